// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

import (
	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/search"
)

// QuickGenOptions parameterize the neighborhood-driven hill climb.
type QuickGenOptions struct {
	Models    []SearchModel
	SearchCfg *search.Config

	Protocol string
	Endpoint string

	// StepDecay multiplies the magnitude scaler whenever a step returns
	// to the current home. Zero selects the default.
	StepDecay float64
}

// QuickRunConfigGenerator drives a hill climb through the coordinate
// space: it initializes a neighborhood around a home coordinate, then
// steps toward better measurements, shrinking the step magnitude when
// progress stalls. Visit counts are global so no coordinate is explored
// twice; re-measured coordinates are expected to be served from the
// orchestrator's fingerprint cache.
type QuickRunConfigGenerator struct {
	opts  QuickGenOptions
	namer *runconfig.VariantNamer

	global       *search.CoordinateData
	neighborhood *search.Neighborhood
	home         search.Coordinate

	toMeasure    search.Coordinate
	hasToMeasure bool

	magnitudeScaler float64
	stepDecay       float64

	best      *result.RunConfigMeasurement
	bestCoord search.Coordinate

	done bool
}

func NewQuickRunConfigGenerator(opts QuickGenOptions) *QuickRunConfigGenerator {
	decay := opts.StepDecay
	if decay <= 0 || decay >= 1 {
		decay = search.DefaultStepDecay
	}

	g := &QuickRunConfigGenerator{
		opts:            opts,
		namer:           runconfig.NewVariantNamer(),
		global:          search.NewCoordinateData(),
		magnitudeScaler: 1.0,
		stepDecay:       decay,
	}
	g.moveHome(g.startingCoordinate())
	return g
}

func (g *QuickRunConfigGenerator) startingCoordinate() search.Coordinate {
	return g.opts.SearchCfg.Dimensions.MinIndexes()
}

func (g *QuickRunConfigGenerator) magnitude() float64 {
	return g.opts.SearchCfg.StepMagnitude * g.magnitudeScaler
}

func (g *QuickRunConfigGenerator) moveHome(home search.Coordinate) {
	g.home = home.Clone()
	g.neighborhood = search.NewNeighborhood(g.opts.SearchCfg.NeighborhoodConfig, g.home)
	g.neighborhood.SeedVisits(g.global)
	cclog.Debugf("new home coordinate %v", g.home)
}

func (g *QuickRunConfigGenerator) IsDone() bool {
	return g.done
}

func (g *QuickRunConfigGenerator) NextConfig() *runconfig.RunConfig {
	if g.done {
		return nil
	}
	if !g.hasToMeasure {
		g.pickNext()
		if g.done {
			return nil
		}
	}

	rc, err := coordinateRunConfig(
		g.opts.SearchCfg.Dimensions, g.toMeasure, g.opts.Models,
		g.namer, g.opts.Protocol, g.opts.Endpoint)
	if err != nil {
		cclog.Errorf("map coordinate %v: %v", g.toMeasure, err)
		g.done = true
		return nil
	}
	return rc
}

// pickNext advances the outer loop: measure the home first, then
// initialize the neighborhood, then step once enough coordinates are
// known. A step that lands on the home shrinks the magnitude until the
// scaler hits its floor.
func (g *QuickRunConfigGenerator) pickNext() {
	for {
		if !g.neighborhood.Data().IsMeasured(g.home) {
			g.setToMeasure(g.home)
			return
		}

		if g.neighborhood.EnoughInitialized() {
			candidate := g.neighborhood.CalculateNewCoordinate(g.magnitude(), search.DefaultClipValue)
			if candidate.Equals(g.home) {
				g.magnitudeScaler *= g.stepDecay
				cclog.Debugf("step stalled, magnitude scaler now %.3f", g.magnitudeScaler)
				if g.magnitudeScaler < search.MinMagnitudeScale {
					g.done = true
					return
				}
				continue
			}
			g.moveHome(candidate)
			continue
		}

		c, ok := g.neighborhood.PickCoordinateToInitialize()
		if !ok {
			g.done = true
			return
		}
		g.setToMeasure(c)
		return
	}
}

func (g *QuickRunConfigGenerator) setToMeasure(c search.Coordinate) {
	g.toMeasure = c.Clone()
	g.hasToMeasure = true
}

// SetLastResults stores the measurement of the coordinate under test in
// the neighborhood and the global coordinate data, and bumps both visit
// counts.
func (g *QuickRunConfigGenerator) SetLastResults(results []*result.RunConfigMeasurement) {
	if !g.hasToMeasure {
		return
	}
	m := bestOf(results)

	g.neighborhood.Data().SetMeasurement(g.toMeasure, m)
	g.neighborhood.Data().IncrementVisitCount(g.toMeasure)
	g.global.SetMeasurement(g.toMeasure, m)
	g.global.IncrementVisitCount(g.toMeasure)

	if m != nil && (g.best == nil || m.CompareTo(g.best) > 0) {
		g.best = m
		g.bestCoord = g.toMeasure.Clone()
	}

	g.hasToMeasure = false
}

// Best returns the best measurement seen so far and its coordinate.
func (g *QuickRunConfigGenerator) Best() (*result.RunConfigMeasurement, search.Coordinate) {
	return g.best, g.bestCoord
}

// CoordinateSnapshot exposes the global coordinate data for
// checkpointing.
func (g *QuickRunConfigGenerator) CoordinateSnapshot() *search.Snapshot {
	return g.global.Snapshot()
}

// RestoreCoordinates reloads the global coordinate data from a
// checkpoint and re-seeds the current neighborhood's visit counts.
func (g *QuickRunConfigGenerator) RestoreCoordinates(s *search.Snapshot) {
	g.global = search.RestoreCoordinateData(s)
	g.neighborhood.SeedVisits(g.global)
}
