// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
)

func TestBruteGeneratorWalksFullProduct(t *testing.T) {
	g := NewBruteRunConfigGenerator(BruteGenOptions{
		Models: []BruteModel{{
			Name:            "m",
			BatchSizes:      []int{1, 2},
			Parameters:      []int{1, 2},
			ModelConfigOpts: ModelConfigGenOptions{MaxInstanceCount: 2},
		}},
	})

	fingerprints := map[string]bool{}
	count := 0
	for {
		rc := g.NextConfig()
		if rc == nil {
			break
		}
		count++
		require.LessOrEqual(t, count, 100)
		fingerprints[rc.Fingerprint()] = true
		g.SetLastResults([]*result.RunConfigMeasurement{tputMeasurement(100)})
	}

	// 3 server configs (2 instance counts + default) x 4 client configs
	assert.Equal(t, 12, count)
	assert.Len(t, fingerprints, 12)
	assert.True(t, g.IsDone())
}

func TestBruteGeneratorVariantNaming(t *testing.T) {
	g := NewBruteRunConfigGenerator(BruteGenOptions{
		Models: []BruteModel{{
			Name:            "m",
			BatchSizes:      []int{1},
			Parameters:      []int{1},
			ModelConfigOpts: ModelConfigGenOptions{MaxInstanceCount: 1},
		}},
	})

	rc := g.NextConfig()
	require.NotNil(t, rc)
	require.NotNil(t, rc.Models[0].Model)
	assert.Equal(t, "m_config_0", rc.Models[0].Model.Name)
	v, _ := rc.Models[0].Perf.Get("model-name")
	assert.Equal(t, "m_config_0", v)

	g.SetLastResults([]*result.RunConfigMeasurement{tputMeasurement(1)})

	// the default config runs under the model's own name
	rc = g.NextConfig()
	require.NotNil(t, rc)
	assert.Nil(t, rc.Models[0].Model)
	v, _ = rc.Models[0].Perf.Get("model-name")
	assert.Equal(t, "m", v)
}

func TestBruteGeneratorMultiModelProduct(t *testing.T) {
	g := NewBruteRunConfigGenerator(BruteGenOptions{
		Models: []BruteModel{
			{
				Name:            "a",
				BatchSizes:      []int{1},
				Parameters:      []int{1},
				ModelConfigOpts: ModelConfigGenOptions{MaxInstanceCount: 2},
			},
			{
				Name:            "b",
				BatchSizes:      []int{1},
				Parameters:      []int{1},
				ModelConfigOpts: ModelConfigGenOptions{MaxInstanceCount: 1},
			},
		},
	})

	count := 0
	for {
		rc := g.NextConfig()
		if rc == nil {
			break
		}
		require.Len(t, rc.Models, 2)
		count++
		require.LessOrEqual(t, count, 100)
		g.SetLastResults([]*result.RunConfigMeasurement{tputMeasurement(1)})
	}

	// model a: 3 server configs, model b: 2; outer product = 6 combos,
	// one client config each
	assert.Equal(t, 6, count)
}
