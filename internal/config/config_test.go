// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() ProgramConfig {
	cfg := Keys
	cfg.Models = []ModelSpec{{Name: "resnet50"}}
	return cfg
}

func TestObjectivesUnmarshalList(t *testing.T) {
	var o Objectives
	require.NoError(t, json.Unmarshal([]byte(`["perf_throughput", "perf_latency_p99"]`), &o))

	assert.InDelta(t, 1.0, o["perf_throughput"], 1e-9)
	assert.InDelta(t, 1.0, o["perf_latency_p99"], 1e-9)
}

func TestObjectivesUnmarshalMap(t *testing.T) {
	var o Objectives
	require.NoError(t, json.Unmarshal([]byte(`{"perf_throughput": 3, "perf_latency_p99": 1}`), &o))

	assert.InDelta(t, 3.0, o["perf_throughput"], 1e-9)
	assert.InDelta(t, 1.0, o["perf_latency_p99"], 1e-9)
}

func TestValidateDefaultsArePlausible(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, Validate(&cfg))
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := validConfig()
	cfg.RunConfigSearchMode = "exhaustive"
	assert.ErrorIs(t, Validate(&cfg), ErrInvalidConfig)
}

func TestValidateRejectsQuickModeWithConcurrencyList(t *testing.T) {
	cfg := validConfig()
	cfg.RunConfigSearchMode = SearchModeQuick
	cfg.Models[0].Parameters.Concurrency = []int{1, 2, 4}
	assert.ErrorIs(t, Validate(&cfg), ErrInvalidConfig)

	cfg.RunConfigSearchMode = SearchModeBrute
	assert.NoError(t, Validate(&cfg))
}

func TestValidateRejectsConcurrencyAndRequestRate(t *testing.T) {
	cfg := validConfig()
	cfg.RunConfigSearchMode = SearchModeBrute
	cfg.Models[0].Parameters.Concurrency = []int{1}
	cfg.Models[0].Parameters.RequestRate = []int{16}
	assert.ErrorIs(t, Validate(&cfg), ErrInvalidConfig)
}

func TestValidateRejectsInvertedRanges(t *testing.T) {
	cfg := validConfig()
	cfg.RunConfigSearchMinConcurrency = 1024
	cfg.RunConfigSearchMaxConcurrency = 1
	assert.ErrorIs(t, Validate(&cfg), ErrInvalidConfig)
}

func TestValidateRejectsBadObjectiveMetric(t *testing.T) {
	cfg := validConfig()
	cfg.Objectives = Objectives{"not a metric!": 1}
	assert.ErrorIs(t, Validate(&cfg), ErrInvalidConfig)

	cfg.Objectives = Objectives{"perf_throughput": -1}
	assert.ErrorIs(t, Validate(&cfg), ErrInvalidConfig)
}

func TestValidateRejectsNamelessModel(t *testing.T) {
	cfg := validConfig()
	cfg.Models[0].Name = ""
	assert.ErrorIs(t, Validate(&cfg), ErrInvalidConfig)
}

func TestValidateSchemaAcceptsFullConfig(t *testing.T) {
	raw := []byte(`{
		"addr": "localhost:8080",
		"run_config_search_mode": "quick",
		"run_config_search_max_instance_count": 5,
		"early_exit_enable": true,
		"objectives": {"perf_throughput": 10, "perf_latency_p99": 5},
		"constraints": {"perf_latency_p99": {"max": 100}},
		"profile_models": [
			{
				"name": "resnet50",
				"weight": 2,
				"constraints": {"gpu_used_memory": {"max": 8000}},
				"parameters": {"batch_sizes": [1, 4, 8]},
				"perf_analyzer_flags": {"percentile": "95"}
			}
		],
		"nats": {"address": "nats://localhost:4222", "subject": "telemetry.gpu"}
	}`)
	assert.NoError(t, ValidateSchema(raw))
}

func TestValidateSchemaRejectsBadMode(t *testing.T) {
	raw := []byte(`{"run_config_search_mode": "random"}`)
	assert.Error(t, ValidateSchema(raw))
}

func TestValidateSchemaRejectsMalformedModel(t *testing.T) {
	raw := []byte(`{"profile_models": [{"weight": 1}]}`)
	assert.Error(t, ValidateSchema(raw))
}
