// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

import (
	"github.com/ClusterCockpit/cc-model-optimizer/internal/config"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
)

// ModelConfigGenOptions parameterize a server-side config sweep.
type ModelConfigGenOptions struct {
	MaxInstanceCount int
	SearchDisabled   bool

	// RemoteMode disables server-side sweeps entirely: a remote server's
	// model repository cannot be modified.
	RemoteMode bool

	CPUOnly bool

	// Params switches from the automatic instance-count sweep to the
	// Cartesian product of the user-specified lists.
	Params *config.ModelConfigParameters
}

// ModelConfigGenerator enumerates the server-side configurations of one
// model. The sweep always ends with the nil sentinel, which stands for
// "use the model's default config as-is".
type ModelConfigGenerator struct {
	configs []*runconfig.ModelConfig
	idx     int
}

func NewModelConfigGenerator(opts ModelConfigGenOptions) *ModelConfigGenerator {
	g := &ModelConfigGenerator{}
	g.configs = g.generate(opts)
	return g
}

func (g *ModelConfigGenerator) generate(opts ModelConfigGenOptions) []*runconfig.ModelConfig {
	var configs []*runconfig.ModelConfig
	if !opts.RemoteMode {
		if opts.Params != nil {
			configs = manualConfigs(opts)
		} else {
			configs = automaticConfigs(opts)
		}
	}

	if !containsDefault(configs) {
		configs = append(configs, nil)
	}
	return configs
}

func instanceKind(cpuOnly bool) string {
	if cpuOnly {
		return "KIND_CPU"
	}
	return "KIND_GPU"
}

// automaticConfigs sweeps the instance count with dynamic batching
// enabled at its defaults.
func automaticConfigs(opts ModelConfigGenOptions) []*runconfig.ModelConfig {
	if opts.SearchDisabled {
		return nil
	}

	var configs []*runconfig.ModelConfig
	for instances := 1; instances <= opts.MaxInstanceCount; instances++ {
		configs = append(configs, &runconfig.ModelConfig{
			InstanceGroup: []runconfig.InstanceGroup{
				{Count: instances, Kind: instanceKind(opts.CPUOnly)},
			},
			DynamicBatching: &runconfig.DynamicBatching{},
			CPUOnly:         opts.CPUOnly,
		})
	}
	return configs
}

// manualConfigs expands the Cartesian product of the user-specified
// parameter lists.
func manualConfigs(opts ModelConfigGenOptions) []*runconfig.ModelConfig {
	p := opts.Params

	batchSizes := p.MaxBatchSize
	if len(batchSizes) == 0 {
		batchSizes = []int{0}
	}
	instanceCounts := p.InstanceCount
	if len(instanceCounts) == 0 {
		instanceCounts = []int{1}
	}

	batchings := []*runconfig.DynamicBatching{nil}
	if p.DynamicBatching != nil {
		batchings = nil
		preferred := p.DynamicBatching.PreferredBatchSize
		if len(preferred) == 0 {
			preferred = [][]int{nil}
		}
		delays := p.DynamicBatching.MaxQueueDelayMicroseconds
		if len(delays) == 0 {
			delays = []int{0}
		}
		for _, pbs := range preferred {
			for _, delay := range delays {
				batchings = append(batchings, &runconfig.DynamicBatching{
					PreferredBatchSize:        pbs,
					MaxQueueDelayMicroseconds: delay,
				})
			}
		}
	}

	var configs []*runconfig.ModelConfig
	for _, bs := range batchSizes {
		for _, instances := range instanceCounts {
			for _, db := range batchings {
				configs = append(configs, &runconfig.ModelConfig{
					MaxBatchSize: bs,
					InstanceGroup: []runconfig.InstanceGroup{
						{Count: instances, Kind: instanceKind(opts.CPUOnly)},
					},
					DynamicBatching: db,
					CPUOnly:         opts.CPUOnly,
				})
			}
		}
	}
	return configs
}

func containsDefault(configs []*runconfig.ModelConfig) bool {
	for _, c := range configs {
		if c == nil {
			return true
		}
	}
	return false
}

func (g *ModelConfigGenerator) IsDone() bool {
	return g.idx >= len(g.configs)
}

// NextConfig returns the next server-side configuration; the nil
// sentinel is a valid yield.
func (g *ModelConfigGenerator) NextConfig() (*runconfig.ModelConfig, bool) {
	if g.IsDone() {
		return nil, false
	}
	c := g.configs[g.idx]
	g.idx++
	return c, true
}

// Configs returns the full sweep for product composition.
func (g *ModelConfigGenerator) Configs() []*runconfig.ModelConfig {
	return g.configs
}
