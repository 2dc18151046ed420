// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

import (
	"sort"
	"strconv"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
)

// PerfGenOptions parameterize a client-side sweep for one model.
type PerfGenOptions struct {
	ModelName  string
	BatchSizes []int

	// Parameters are concurrency values or request-rate values,
	// depending on UseRequestRate.
	Parameters     []int
	UseRequestRate bool

	EarlyExit bool

	Protocol string
	Endpoint string

	// Flags are user-supplied load-generator flags; they override the
	// computed ones.
	Flags map[string]string
}

// PerfAnalyzerConfigGenerator sweeps the client-side load configurations
// of a single model: for every batch size, every concurrency (or request
// rate) value. All combinations are pregenerated; early exit can cut a
// sweep short when throughput plateaus.
type PerfAnalyzerConfigGenerator struct {
	opts    PerfGenOptions
	configs [][]*runconfig.PerfConfig

	currBatchSizeIndex int
	currParameterIndex int

	started bool
	done    bool

	parameterResults []*result.RunConfigMeasurement
	batchSizeResults []*result.RunConfigMeasurement

	parameterWarningPrinted bool
}

func NewPerfAnalyzerConfigGenerator(opts PerfGenOptions) *PerfAnalyzerConfigGenerator {
	opts.BatchSizes = append([]int{}, opts.BatchSizes...)
	sort.Ints(opts.BatchSizes)
	if len(opts.BatchSizes) == 0 {
		opts.BatchSizes = []int{1}
	}
	opts.Parameters = append([]int{}, opts.Parameters...)
	sort.Ints(opts.Parameters)
	if len(opts.Parameters) == 0 {
		opts.Parameters = []int{1}
	}

	g := &PerfAnalyzerConfigGenerator{opts: opts}
	g.generateConfigs()
	return g
}

func (g *PerfAnalyzerConfigGenerator) generateConfigs() {
	for _, bs := range g.opts.BatchSizes {
		var row []*runconfig.PerfConfig
		for _, p := range g.opts.Parameters {
			pc := runconfig.NewPerfConfig()
			pc.Set("model-name", g.opts.ModelName)
			pc.Set("batch-size", strconv.Itoa(bs))
			if g.opts.Protocol != "" {
				pc.Set("protocol", g.opts.Protocol)
			}
			if g.opts.Endpoint != "" {
				pc.Set("url", g.opts.Endpoint)
			}
			pc.Set("measurement-mode", "time_windows")

			if g.opts.UseRequestRate {
				pc.Set("request-rate-range", strconv.Itoa(p))
			} else {
				pc.Set("concurrency-range", strconv.Itoa(p))
			}

			// user flags win over the computed ones
			if err := pc.Update(g.opts.Flags); err != nil {
				cclog.Warnf("model %s: %v", g.opts.ModelName, err)
			}
			row = append(row, pc)
		}
		g.configs = append(g.configs, row)
	}
}

func (g *PerfAnalyzerConfigGenerator) IsDone() bool {
	return g.started && g.done
}

// NextConfig returns the config at the current cursor.
func (g *PerfAnalyzerConfigGenerator) NextConfig() *runconfig.PerfConfig {
	if g.IsDone() {
		return nil
	}
	g.started = true
	return g.configs[g.currBatchSizeIndex][g.currParameterIndex]
}

// SetLastResults ingests the measurements of the last yielded config,
// keeps the best one in the parameter history, and advances the
// cursors. An erroneous result ends the current parameter sweep; the
// batch-size walk continues.
func (g *PerfAnalyzerConfigGenerator) SetLastResults(results []*result.RunConfigMeasurement) {
	best := bestOf(results)
	erroneous := best == nil
	if !erroneous {
		g.parameterResults = append(g.parameterResults, best)
	}

	g.step(erroneous)
}

func (g *PerfAnalyzerConfigGenerator) step(erroneous bool) {
	g.currParameterIndex++

	if erroneous || g.doneWalkingParameters() {
		g.recordBestBatchSizeThroughput()
		g.resetParameters()
		g.currBatchSizeIndex++

		if g.doneWalkingBatchSizes() {
			g.done = true
		}
	}
}

func (g *PerfAnalyzerConfigGenerator) recordBestBatchSizeThroughput() {
	if len(g.parameterResults) > 0 {
		g.batchSizeResults = append(g.batchSizeResults, bestOf(g.parameterResults))
	}
}

func (g *PerfAnalyzerConfigGenerator) resetParameters() {
	g.currParameterIndex = 0
	g.parameterResults = nil
	g.parameterWarningPrinted = false
}

func (g *PerfAnalyzerConfigGenerator) doneWalkingParameters() bool {
	if g.currParameterIndex == len(g.opts.Parameters) {
		return true
	}
	if g.opts.EarlyExit &&
		!throughputGainValid(g.parameterResults, minConsecutiveParameterTries, throughputMinimumGain) {
		if !g.parameterWarningPrinted {
			if g.opts.UseRequestRate {
				cclog.Infof("model %s: no longer increasing request rate as throughput has plateaued", g.opts.ModelName)
			} else {
				cclog.Infof("model %s: no longer increasing concurrency as throughput has plateaued", g.opts.ModelName)
			}
			g.parameterWarningPrinted = true
		}
		return true
	}
	return false
}

func (g *PerfAnalyzerConfigGenerator) doneWalkingBatchSizes() bool {
	if g.currBatchSizeIndex == len(g.opts.BatchSizes) {
		return true
	}
	if g.opts.EarlyExit &&
		!throughputGainValid(g.batchSizeResults, minConsecutiveBatchSizeTries, throughputMinimumGain) {
		cclog.Infof("model %s: no longer increasing client batch size as throughput has plateaued", g.opts.ModelName)
		return true
	}
	return false
}
