// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package generate implements the run-config generators: iterator-like
// producers of profiling jobs. The orchestrator pulls the next config,
// profiles it, and feeds the measurement back, which advances the
// generator's internal state (cursors, throughput histories, the search
// neighborhood).
package generate

import (
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
)

// ConfigGenerator is the contract every run-config generator satisfies.
// SetLastResults must be called after the corresponding NextConfig and
// before the next NextConfig; generators key their bookkeeping off the
// current cursor.
type ConfigGenerator interface {
	// NextConfig returns the next profiling job, or nil when the
	// generator is done.
	NextConfig() *runconfig.RunConfig

	IsDone() bool

	// SetLastResults reports the measurements of the last yielded
	// config. A nil entry is a failed measurement.
	SetLastResults(results []*result.RunConfigMeasurement)
}

// Early-exit parameters: a sweep stops when the best of the last N
// throughputs improves on the first by less than the minimum gain.
const (
	minConsecutiveParameterTries = 4
	minConsecutiveBatchSizeTries = 4
	throughputMinimumGain        = 0.05
)

// throughputOf treats failed measurements as zero throughput.
func throughputOf(m *result.RunConfigMeasurement) float64 {
	if m == nil {
		return 0
	}
	return m.Throughput()
}

// throughputGainValid reports whether the last minTries throughputs
// still show enough gain to keep sweeping. With fewer than minTries
// samples there is not enough data to exit, so the sweep continues.
func throughputGainValid(measurements []*result.RunConfigMeasurement, minTries int, minGain float64) bool {
	if len(measurements) < minTries {
		return true
	}

	window := measurements[len(measurements)-minTries:]
	first := throughputOf(window[0])
	best := first
	for _, m := range window[1:] {
		if t := throughputOf(m); t > best {
			best = t
		}
	}

	if first == 0 {
		return best > 0
	}
	return (best-first)/first > minGain
}

// bestOf returns the best valid measurement by the comparison order, or
// nil if none is valid.
func bestOf(measurements []*result.RunConfigMeasurement) *result.RunConfigMeasurement {
	var best *result.RunConfigMeasurement
	for _, m := range measurements {
		if m == nil {
			continue
		}
		if best == nil || m.CompareTo(best) > 0 {
			best = m
		}
	}
	return best
}
