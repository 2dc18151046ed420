// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

import (
	"math/rand"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/search"
)

// Trial budget of the stochastic search: a share of the space size,
// bounded so tiny and huge spaces both get a sensible run length.
const (
	optunaTrialRatio = 0.10
	optunaMinTrials  = 20
	optunaMaxTrials  = 200

	// optunaExploitRatio is the share of trials sampled near the best
	// coordinate instead of uniformly.
	optunaExploitRatio = 0.5

	// optunaExploitRadius bounds per-dimension deviation when sampling
	// around the best coordinate.
	optunaExploitRadius = 2

	// optunaMaxSampleAttempts bounds the draw loop when most of the
	// space has been visited already.
	optunaMaxSampleAttempts = 128
)

// OptunaGenOptions parameterize the stochastic sampler selected by the
// "optuna" search mode.
type OptunaGenOptions struct {
	Models []SearchModel
	Dims   *search.Dimensions

	Protocol string
	Endpoint string

	Seed int64
}

// OptunaRunConfigGenerator samples the bounded coordinate space: once a
// best coordinate exists, each draw is taken near it with probability
// optunaExploitRatio and uniformly otherwise. Coordinates are never revisited and the run ends after a trial
// budget proportional to the space size.
type OptunaRunConfigGenerator struct {
	opts  OptunaGenOptions
	namer *runconfig.VariantNamer
	rng   *rand.Rand

	trials   int
	trialIdx int

	seen map[string]bool

	toMeasure    search.Coordinate
	hasToMeasure bool

	best      *result.RunConfigMeasurement
	bestCoord search.Coordinate

	done bool
}

func NewOptunaRunConfigGenerator(opts OptunaGenOptions) *OptunaRunConfigGenerator {
	space := 1
	for i := 0; i < opts.Dims.Len(); i++ {
		d := opts.Dims.At(i)
		space *= d.MaxIdx - d.MinIdx + 1
	}

	trials := int(optunaTrialRatio * float64(space))
	trials = max(trials, optunaMinTrials)
	trials = min(trials, optunaMaxTrials)
	trials = min(trials, space)

	return &OptunaRunConfigGenerator{
		opts:   opts,
		namer:  runconfig.NewVariantNamer(),
		rng:    rand.New(rand.NewSource(opts.Seed)),
		trials: trials,
		seen:   make(map[string]bool),
	}
}

func (g *OptunaRunConfigGenerator) IsDone() bool {
	return g.done
}

func (g *OptunaRunConfigGenerator) NextConfig() *runconfig.RunConfig {
	if g.done {
		return nil
	}
	if !g.hasToMeasure {
		c, ok := g.sample()
		if !ok {
			g.done = true
			return nil
		}
		g.toMeasure = c
		g.hasToMeasure = true
	}

	rc, err := coordinateRunConfig(
		g.opts.Dims, g.toMeasure, g.opts.Models,
		g.namer, g.opts.Protocol, g.opts.Endpoint)
	if err != nil {
		cclog.Errorf("map coordinate %v: %v", g.toMeasure, err)
		g.done = true
		return nil
	}
	return rc
}

// sample draws an unvisited coordinate.
func (g *OptunaRunConfigGenerator) sample() (search.Coordinate, bool) {
	for attempt := 0; attempt < optunaMaxSampleAttempts; attempt++ {
		var c search.Coordinate
		if g.bestCoord != nil && g.rng.Float64() < optunaExploitRatio {
			c = g.sampleNearBest()
		} else {
			c = g.sampleUniform()
		}
		if !g.seen[c.Key()] {
			return c, true
		}
	}
	return nil, false
}

func (g *OptunaRunConfigGenerator) sampleUniform() search.Coordinate {
	c := make(search.Coordinate, g.opts.Dims.Len())
	for i := range c {
		d := g.opts.Dims.At(i)
		c[i] = d.MinIdx + g.rng.Intn(d.MaxIdx-d.MinIdx+1)
	}
	return c
}

func (g *OptunaRunConfigGenerator) sampleNearBest() search.Coordinate {
	c := make(search.Coordinate, g.opts.Dims.Len())
	for i := range c {
		d := g.opts.Dims.At(i)
		v := g.bestCoord[i] + g.rng.Intn(2*optunaExploitRadius+1) - optunaExploitRadius
		v = min(d.MaxIdx, v)
		v = max(d.MinIdx, v)
		c[i] = v
	}
	return c
}

func (g *OptunaRunConfigGenerator) SetLastResults(results []*result.RunConfigMeasurement) {
	if !g.hasToMeasure {
		return
	}
	m := bestOf(results)
	g.seen[g.toMeasure.Key()] = true
	g.trialIdx++

	if m != nil && (g.best == nil || m.CompareTo(g.best) > 0) {
		g.best = m
		g.bestCoord = g.toMeasure.Clone()
	}

	g.hasToMeasure = false
	if g.trialIdx >= g.trials {
		g.done = true
	}
}

// Best returns the best measurement seen so far and its coordinate.
func (g *OptunaRunConfigGenerator) Best() (*result.RunConfigMeasurement, search.Coordinate) {
	return g.best, g.bestCoord
}
