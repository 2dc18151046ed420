// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package result

import (
	"math"
	"strings"
)

// Well-known metric names.
const (
	MetricThroughput = "perf_throughput"
	MetricLatencyP99 = "perf_latency_p99"
	MetricLatencyAvg = "perf_latency_avg"
	MetricCPURAM     = "cpu_used_ram"
	MetricGPUMemory  = "gpu_used_memory"
	MetricGPUUtil    = "gpu_utilization"
	MetricGPUPower   = "gpu_power_usage"
)

const epsilon = 1e-9

// Objectives maps metric names to their weights. Weights need not be
// normalized; normalization happens inside the scoring.
type Objectives map[string]float64

// DefaultObjectives maximizes throughput.
func DefaultObjectives() Objectives {
	return Objectives{MetricThroughput: 1}
}

// metricDirection returns +1 for maximized metrics and -1 for metrics
// where smaller is better (latencies, memory, power).
func metricDirection(name string) float64 {
	switch {
	case strings.HasPrefix(name, "perf_latency"),
		name == MetricCPURAM,
		name == MetricGPUMemory,
		name == MetricGPUPower:
		return -1
	}
	return 1
}

// Score computes the continuous comparison of m against other: the
// weighted sum over all objective metrics of the relative improvement
// (m.metric - other.metric) / max(|m.metric|, |other.metric|, eps), with
// the sign inverted for minimized metrics. Positive means m is better.
// Multi-model measurements compose per-model scores with the model
// weights.
func (m *RunConfigMeasurement) Score(other *RunConfigMeasurement) float64 {
	if other == nil {
		return 1
	}

	total := 0.0
	for i := range m.Models {
		if i >= len(other.Models) {
			break
		}
		total += m.ModelWeight(i) * scoreModel(&m.Models[i], &other.Models[i])
	}
	return total
}

func scoreModel(a, b *ModelMeasurement) float64 {
	objectives := a.Objectives
	if len(objectives) == 0 {
		objectives = b.Objectives
	}
	if len(objectives) == 0 {
		objectives = DefaultObjectives()
	}

	weightSum := 0.0
	for _, w := range objectives {
		weightSum += w
	}
	if weightSum <= 0 {
		return 0
	}

	score := 0.0
	for metric, weight := range objectives {
		av, aok := a.Metrics[metric]
		bv, bok := b.Metrics[metric]
		if !aok || !bok {
			continue
		}

		denom := math.Max(math.Max(math.Abs(av), math.Abs(bv)), epsilon)
		score += (weight / weightSum) * metricDirection(metric) * (av - bv) / denom
	}
	return score
}

// CompareTo imposes a strict total order: +1 when m is better than
// other, -1 when worse, 0 when equivalent. Feasibility is the
// lexicographic first key; a measurement passing its constraints always
// beats a failing one, regardless of scores. A nil other always loses.
func (m *RunConfigMeasurement) CompareTo(other *RunConfigMeasurement) int {
	if other == nil {
		return 1
	}

	selfPassing, otherPassing := m.IsPassingConstraints(), other.IsPassingConstraints()
	if selfPassing != otherPassing {
		if selfPassing {
			return 1
		}
		return -1
	}

	score := m.Score(other)
	switch {
	case score > epsilon:
		return 1
	case score < -epsilon:
		return -1
	}
	return 0
}

// CompareConstraints reports how much closer m is to passing its
// constraints than other: the ratio of other's total constraint excess
// to m's. Values above 1 mean m is closer to passing. Only meaningful
// when both measurements fail their constraints.
func (m *RunConfigMeasurement) CompareConstraints(other *RunConfigMeasurement) float64 {
	if other == nil {
		return math.Inf(1)
	}
	return other.totalExcess() / math.Max(m.totalExcess(), epsilon)
}
