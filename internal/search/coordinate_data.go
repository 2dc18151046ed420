// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package search

import (
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
)

// CoordinateData tracks, per coordinate, the last measurement, the visit
// count and whether the coordinate was measured at all. The three maps
// are kept separate because they have different reset semantics: visit
// counts survive neighborhood transitions, the measurement cache is
// scoped to a neighborhood, and the measured flag distinguishes "never
// tried" from "tried and failed".
type CoordinateData struct {
	measurements map[string]*result.RunConfigMeasurement
	visits       map[string]int
	measured     map[string]bool
}

func NewCoordinateData() *CoordinateData {
	return &CoordinateData{
		measurements: make(map[string]*result.RunConfigMeasurement),
		visits:       make(map[string]int),
		measured:     make(map[string]bool),
	}
}

// GetMeasurement returns the stored measurement for c. It returns nil
// both for unmeasured coordinates and for coordinates measured without a
// valid result; use IsMeasured to tell the two apart.
func (cd *CoordinateData) GetMeasurement(c Coordinate) *result.RunConfigMeasurement {
	return cd.measurements[c.Key()]
}

// SetMeasurement records m for c and marks c as measured. m may be nil
// to record a failed measurement. Later writes replace earlier ones.
func (cd *CoordinateData) SetMeasurement(c Coordinate, m *result.RunConfigMeasurement) {
	key := c.Key()
	cd.measurements[key] = m
	cd.measured[key] = true
}

// IsMeasured reports whether a measurement (even a failed one) has been
// recorded for c.
func (cd *CoordinateData) IsMeasured(c Coordinate) bool {
	return cd.measured[c.Key()]
}

// HasValidMeasurement reports whether c has a measurement that is not a
// failure.
func (cd *CoordinateData) HasValidMeasurement(c Coordinate) bool {
	return cd.GetMeasurement(c) != nil
}

// ResetMeasurements clears the measurement cache. Visit counts and
// measured flags are preserved.
func (cd *CoordinateData) ResetMeasurements() {
	cd.measurements = make(map[string]*result.RunConfigMeasurement)
}

// GetVisitCount returns the visit count of c, 0 for unseen coordinates.
func (cd *CoordinateData) GetVisitCount(c Coordinate) int {
	return cd.visits[c.Key()]
}

// IncrementVisitCount increases the visit count of c by one.
func (cd *CoordinateData) IncrementVisitCount(c Coordinate) {
	cd.visits[c.Key()]++
}

// Snapshot is the serializable form of CoordinateData used by the
// checkpoint layer. Map keys are the coordinates' Key() strings.
type Snapshot struct {
	Measurements map[string]*result.RunConfigMeasurement `json:"measurements"`
	Visits       map[string]int                          `json:"visits"`
	Measured     map[string]bool                         `json:"measured"`
}

// Snapshot returns a deep-enough copy for persistence; measurements are
// shared, the bookkeeping maps are copied.
func (cd *CoordinateData) Snapshot() *Snapshot {
	s := &Snapshot{
		Measurements: make(map[string]*result.RunConfigMeasurement, len(cd.measurements)),
		Visits:       make(map[string]int, len(cd.visits)),
		Measured:     make(map[string]bool, len(cd.measured)),
	}
	for k, v := range cd.measurements {
		s.Measurements[k] = v
	}
	for k, v := range cd.visits {
		s.Visits[k] = v
	}
	for k, v := range cd.measured {
		s.Measured[k] = v
	}
	return s
}

// RestoreCoordinateData rebuilds a CoordinateData from a snapshot.
func RestoreCoordinateData(s *Snapshot) *CoordinateData {
	cd := NewCoordinateData()
	if s == nil {
		return cd
	}
	for k, v := range s.Measurements {
		cd.measurements[k] = v
	}
	for k, v := range s.Visits {
		cd.visits[k] = v
	}
	for k, v := range s.Measured {
		cd.measured[k] = v
	}
	return cd
}
