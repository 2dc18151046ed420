// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package result holds the immutable record of one profiling run and the
// comparison algebra that ranks two such records under the user's
// objectives and constraints.
package result

// GPUMetrics holds the per-GPU metric values collected during a
// measurement window, e.g. gpu_used_memory, gpu_utilization,
// gpu_power_usage.
type GPUMetrics map[string]float64

// ModelMeasurement is the per-model slice of a profiling run: the
// configuration metadata the run was taken with, the non-GPU metrics and
// the objective/constraint context active at measurement time.
type ModelMeasurement struct {
	Name       string `json:"name"`
	ConfigName string `json:"config_name,omitempty"`

	BatchSize     int `json:"batch_size,omitempty"`
	InstanceCount int `json:"instance_count,omitempty"`
	Concurrency   int `json:"concurrency,omitempty"`
	RequestRate   int `json:"request_rate,omitempty"`

	// Metrics holds non-GPU metrics such as perf_throughput,
	// perf_latency_p99 and cpu_used_ram.
	Metrics map[string]float64 `json:"metrics"`

	Objectives            Objectives  `json:"objectives,omitempty"`
	Constraints           Constraints `json:"constraints,omitempty"`
	ConstraintExpressions []string    `json:"constraint_expressions,omitempty"`
}

// RunConfigMeasurement summarizes one profiling run across all profiled
// models. A nil *RunConfigMeasurement is the failure sentinel.
type RunConfigMeasurement struct {
	Models []ModelMeasurement    `json:"models"`
	GPUs   map[string]GPUMetrics `json:"gpus,omitempty"`

	// Weights are the per-model weights for multi-model composition.
	// When omitted, models are weighted uniformly.
	Weights []float64 `json:"weights,omitempty"`
}

// ModelWeight returns the composition weight of model i, normalized so
// that all weights sum to one.
func (m *RunConfigMeasurement) ModelWeight(i int) float64 {
	if len(m.Models) == 0 {
		return 0
	}
	if len(m.Weights) != len(m.Models) {
		return 1.0 / float64(len(m.Models))
	}

	total := 0.0
	for _, w := range m.Weights {
		total += w
	}
	if total <= 0 {
		return 1.0 / float64(len(m.Models))
	}
	return m.Weights[i] / total
}

// metricValue resolves a metric name for model i: model metrics first,
// then the GPU metric maps (summed across GPUs).
func (m *RunConfigMeasurement) metricValue(i int, name string) (float64, bool) {
	if v, ok := m.Models[i].Metrics[name]; ok {
		return v, true
	}

	sum, found := 0.0, false
	for _, gpu := range m.GPUs {
		if v, ok := gpu[name]; ok {
			sum += v
			found = true
		}
	}
	return sum, found
}

// NonGPUMetric returns the sum of a metric across all models, each value
// scaled by its normalized weight times the number of models (a plain
// sum under uniform weights).
func (m *RunConfigMeasurement) NonGPUMetric(name string) (float64, bool) {
	sum, found := 0.0, false
	for i := range m.Models {
		if v, ok := m.Models[i].Metrics[name]; ok {
			sum += m.ModelWeight(i) * v * float64(len(m.Models))
			found = true
		}
	}
	return sum, found
}

// Throughput returns the aggregate perf_throughput of the run, 0 when
// the metric is absent.
func (m *RunConfigMeasurement) Throughput() float64 {
	v, _ := m.NonGPUMetric(MetricThroughput)
	return v
}

// IsPassingConstraints reports whether every model's constraint set and
// constraint expressions are satisfied.
func (m *RunConfigMeasurement) IsPassingConstraints() bool {
	for i := range m.Models {
		if !m.modelPassing(i) {
			return false
		}
	}
	return true
}

func (m *RunConfigMeasurement) modelPassing(i int) bool {
	lookup := func(name string) (float64, bool) { return m.metricValue(i, name) }
	if !m.Models[i].Constraints.Pass(lookup) {
		return false
	}

	for _, e := range m.Models[i].ConstraintExpressions {
		ok, err := evalConstraintExpression(e, m.exprEnv(i))
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (m *RunConfigMeasurement) exprEnv(i int) map[string]any {
	env := make(map[string]any, len(m.Models[i].Metrics))
	for k, v := range m.Models[i].Metrics {
		env[k] = v
	}
	for _, gpu := range m.GPUs {
		for k, v := range gpu {
			if prev, ok := env[k].(float64); ok {
				env[k] = prev + v
			} else {
				env[k] = v
			}
		}
	}
	return env
}

// totalExcess sums, over all models and constraints, how far the
// measurement exceeds its bounds relative to them.
func (m *RunConfigMeasurement) totalExcess() float64 {
	total := 0.0
	for i := range m.Models {
		lookup := func(name string) (float64, bool) { return m.metricValue(i, name) }
		total += m.Models[i].Constraints.Excess(lookup)
	}
	return total
}
