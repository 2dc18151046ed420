// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

import (
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
)

// BruteModel describes one model of an undirected search.
type BruteModel struct {
	Name    string
	CPUOnly bool
	Flags   map[string]string

	BatchSizes     []int
	Parameters     []int
	UseRequestRate bool

	ModelConfigOpts ModelConfigGenOptions
}

// BruteGenOptions parameterize the undirected product search.
type BruteGenOptions struct {
	Models []BruteModel

	Protocol  string
	Endpoint  string
	EarlyExit bool
}

// BruteRunConfigGenerator walks the full product space: the Cartesian
// product of every model's server-side configurations, crossed with the
// client-side sweep. The client parameters of the first model drive the
// sweep for all models of a combination.
type BruteRunConfigGenerator struct {
	opts  BruteGenOptions
	namer *runconfig.VariantNamer

	combos   [][]*runconfig.ModelConfig
	comboIdx int

	pacg *PerfAnalyzerConfigGenerator
}

func NewBruteRunConfigGenerator(opts BruteGenOptions) *BruteRunConfigGenerator {
	g := &BruteRunConfigGenerator{
		opts:  opts,
		namer: runconfig.NewVariantNamer(),
	}

	lists := make([][]*runconfig.ModelConfig, len(opts.Models))
	for i, m := range opts.Models {
		lists[i] = NewModelConfigGenerator(m.ModelConfigOpts).Configs()
	}
	g.combos = product(lists)
	return g
}

func (g *BruteRunConfigGenerator) IsDone() bool {
	return g.comboIdx >= len(g.combos)
}

func (g *BruteRunConfigGenerator) NextConfig() *runconfig.RunConfig {
	for {
		if g.IsDone() {
			return nil
		}
		if g.pacg == nil {
			g.pacg = g.newSweep()
		}
		if g.pacg.IsDone() {
			g.comboIdx++
			g.pacg = nil
			continue
		}

		return g.buildRunConfig(g.pacg.NextConfig())
	}
}

// newSweep starts the client-side sweep for the current server-config
// combination. All models share the first model's sweep lists.
func (g *BruteRunConfigGenerator) newSweep() *PerfAnalyzerConfigGenerator {
	first := g.opts.Models[0]
	return NewPerfAnalyzerConfigGenerator(PerfGenOptions{
		ModelName:      first.Name,
		BatchSizes:     first.BatchSizes,
		Parameters:     first.Parameters,
		UseRequestRate: first.UseRequestRate,
		EarlyExit:      g.opts.EarlyExit,
		Protocol:       g.opts.Protocol,
		Endpoint:       g.opts.Endpoint,
	})
}

func (g *BruteRunConfigGenerator) buildRunConfig(pc *runconfig.PerfConfig) *runconfig.RunConfig {
	combo := g.combos[g.comboIdx]

	rc := &runconfig.RunConfig{}
	for i, m := range g.opts.Models {
		mc := combo[i]
		name := m.Name
		if mc != nil {
			named := *mc
			named.Name = g.namer.Name(m.Name, mc)
			mc = &named
			name = mc.Name
		}

		perf := pc.Clone()
		perf.Set("model-name", name)
		perf.Update(m.Flags)

		rc.Models = append(rc.Models, runconfig.ModelRunConfig{
			ModelName: m.Name,
			Model:     mc,
			Perf:      perf,
		})
	}
	return rc
}

// SetLastResults forwards the measurements into the active client-side
// sweep.
func (g *BruteRunConfigGenerator) SetLastResults(results []*result.RunConfigMeasurement) {
	if g.pacg != nil {
		g.pacg.SetLastResults(results)
	}
}
