// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package search

import (
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
)

// makeMeasurement builds a single-model measurement maximizing
// throughput, without constraints.
func makeMeasurement(throughput, latency float64) *result.RunConfigMeasurement {
	return &result.RunConfigMeasurement{
		Models: []result.ModelMeasurement{{
			Name:       "modelA",
			ConfigName: "modelA_config_0",
			Metrics: map[string]float64{
				result.MetricThroughput: throughput,
				result.MetricLatencyAvg: latency,
			},
			Objectives: result.Objectives{result.MetricThroughput: 1},
		}},
	}
}

// makeConstrainedMeasurement builds a measurement with a latency
// ceiling.
func makeConstrainedMeasurement(throughput, latency, maxLatency float64) *result.RunConfigMeasurement {
	m := makeMeasurement(throughput, latency)
	m.Models[0].Constraints = result.Constraints{
		result.MetricLatencyAvg: {Max: &maxLatency},
	}
	return m
}
