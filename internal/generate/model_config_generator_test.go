// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/config"
)

func TestModelConfigGeneratorAutomatic(t *testing.T) {
	g := NewModelConfigGenerator(ModelConfigGenOptions{MaxInstanceCount: 3})
	configs := g.Configs()

	// 1..3 instances plus the default sentinel
	require.Len(t, configs, 4)
	for i := 0; i < 3; i++ {
		require.NotNil(t, configs[i])
		assert.Equal(t, i+1, configs[i].InstanceCount())
		assert.Equal(t, "KIND_GPU", configs[i].InstanceGroup[0].Kind)
		assert.NotNil(t, configs[i].DynamicBatching)
	}
	assert.Nil(t, configs[3])
}

func TestModelConfigGeneratorCPUOnly(t *testing.T) {
	g := NewModelConfigGenerator(ModelConfigGenOptions{MaxInstanceCount: 1, CPUOnly: true})
	configs := g.Configs()

	require.NotNil(t, configs[0])
	assert.Equal(t, "KIND_CPU", configs[0].InstanceGroup[0].Kind)
}

func TestModelConfigGeneratorRemoteMode(t *testing.T) {
	g := NewModelConfigGenerator(ModelConfigGenOptions{MaxInstanceCount: 3, RemoteMode: true})

	// remote mode cannot modify server-side configs: only the default
	configs := g.Configs()
	require.Len(t, configs, 1)
	assert.Nil(t, configs[0])
}

func TestModelConfigGeneratorSearchDisabled(t *testing.T) {
	g := NewModelConfigGenerator(ModelConfigGenOptions{MaxInstanceCount: 3, SearchDisabled: true})

	configs := g.Configs()
	require.Len(t, configs, 1)
	assert.Nil(t, configs[0])
}

func TestModelConfigGeneratorManual(t *testing.T) {
	g := NewModelConfigGenerator(ModelConfigGenOptions{
		MaxInstanceCount: 5,
		Params: &config.ModelConfigParameters{
			MaxBatchSize:  []int{4, 8},
			InstanceCount: []int{1, 2},
			DynamicBatching: &config.DynamicBatchingParameters{
				MaxQueueDelayMicroseconds: []int{100, 200},
			},
		},
	})

	// 2 batch sizes x 2 instance counts x 2 delays, plus the default
	configs := g.Configs()
	require.Len(t, configs, 9)

	first := configs[0]
	require.NotNil(t, first)
	assert.Equal(t, 4, first.MaxBatchSize)
	assert.Equal(t, 1, first.InstanceCount())
	require.NotNil(t, first.DynamicBatching)
	assert.Equal(t, 100, first.DynamicBatching.MaxQueueDelayMicroseconds)

	assert.Nil(t, configs[8])
}

func TestModelConfigGeneratorIteration(t *testing.T) {
	g := NewModelConfigGenerator(ModelConfigGenOptions{MaxInstanceCount: 2})

	count := 0
	for {
		_, ok := g.NextConfig()
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
	assert.True(t, g.IsDone())
}
