// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package search

// Defaults for the neighborhood-driven search. The step decay is exposed
// as a configuration knob (quick_search_step_decay); its floor, the
// radius and the initialization threshold are fixed.
const (
	DefaultRadius         = 3
	DefaultMinInitialized = 3
	DefaultStepMagnitude  = 5
	DefaultClipValue      = 2
	DefaultStepDecay      = 0.5
	MinMagnitudeScale     = 0.1
)

// NeighborhoodConfig describes how a neighborhood is built: over which
// dimensions, within which radius, and how many coordinates must be
// initialized before a step may be taken.
type NeighborhoodConfig struct {
	Dimensions     *Dimensions
	Radius         int
	MinInitialized int
}

// Config describes a full search: the neighborhood parameters plus the
// base magnitude of a step.
type Config struct {
	NeighborhoodConfig
	StepMagnitude float64
}

// NewConfig returns a search config with the default radius, threshold
// and magnitude over the given dimensions.
func NewConfig(dims *Dimensions) *Config {
	return &Config{
		NeighborhoodConfig: NeighborhoodConfig{
			Dimensions:     dims,
			Radius:         DefaultRadius,
			MinInitialized: DefaultMinInitialized,
		},
		StepMagnitude: DefaultStepMagnitude,
	}
}
