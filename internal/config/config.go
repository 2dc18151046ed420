// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the program configuration. The
// configuration is a JSON file checked against an embedded JSON schema
// and decoded into the package-global Keys.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/prometheus/common/model"
)

// ErrInvalidConfig marks configuration combinations the search rejects
// at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

// Search modes.
const (
	SearchModeQuick  = "quick"
	SearchModeBrute  = "brute"
	SearchModeOptuna = "optuna"
)

// Objectives decodes either a list of metric names (uniform weights) or
// a metric-to-weight map.
type Objectives result.Objectives

func (o *Objectives) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		out := make(Objectives, len(names))
		for _, n := range names {
			out[n] = 1
		}
		*o = out
		return nil
	}

	var weighted map[string]float64
	if err := json.Unmarshal(data, &weighted); err != nil {
		return fmt.Errorf("objectives must be a list of metrics or a metric-to-weight map: %w", err)
	}
	*o = Objectives(weighted)
	return nil
}

// ModelParameters are the client-side sweep lists of one model.
// Concurrency and request rate are mutually exclusive.
type ModelParameters struct {
	BatchSizes  []int `json:"batch_sizes,omitempty"`
	Concurrency []int `json:"concurrency,omitempty"`
	RequestRate []int `json:"request_rate,omitempty"`
}

// DynamicBatchingParameters are the server-side dynamic batching sweep
// lists.
type DynamicBatchingParameters struct {
	PreferredBatchSize        [][]int `json:"preferred_batch_size,omitempty"`
	MaxQueueDelayMicroseconds []int   `json:"max_queue_delay_microseconds,omitempty"`
}

// ModelConfigParameters are the user-specified server-side sweep lists.
// When present, the model-config sweep is the Cartesian product of all
// lists instead of the automatic instance-count sweep.
type ModelConfigParameters struct {
	MaxBatchSize    []int                      `json:"max_batch_size,omitempty"`
	InstanceCount   []int                      `json:"instance_count,omitempty"`
	DynamicBatching *DynamicBatchingParameters `json:"dynamic_batching,omitempty"`
}

// ModelSpec configures one model to profile, with optional overrides of
// the global objectives and constraints.
type ModelSpec struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight,omitempty"`
	CPUOnly bool    `json:"cpu_only,omitempty"`

	Objectives            Objectives         `json:"objectives,omitempty"`
	Constraints           result.Constraints `json:"constraints,omitempty"`
	ConstraintExpressions []string           `json:"constraint_expressions,omitempty"`

	Parameters            ModelParameters        `json:"parameters,omitempty"`
	ModelConfigParameters *ModelConfigParameters `json:"model_config_parameters,omitempty"`
	PerfAnalyzerFlags     map[string]string      `json:"perf_analyzer_flags,omitempty"`
}

// EffectiveObjectives resolves the model's objectives against the global
// default.
func (m *ModelSpec) EffectiveObjectives() result.Objectives {
	if len(m.Objectives) > 0 {
		return result.Objectives(m.Objectives)
	}
	if len(Keys.Objectives) > 0 {
		return result.Objectives(Keys.Objectives)
	}
	return result.DefaultObjectives()
}

// EffectiveConstraints resolves the model's constraints against the
// global default.
func (m *ModelSpec) EffectiveConstraints() result.Constraints {
	if len(m.Constraints) > 0 {
		return m.Constraints
	}
	return Keys.Constraints
}

// NatsConfig configures the telemetry ingest connection.
type NatsConfig struct {
	Address       string `json:"address"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	CredsFilePath string `json:"creds-file-path,omitempty"`
	Subject       string `json:"subject,omitempty"`
	ArchiveDir    string `json:"archive-dir,omitempty"`
}

// S3Config configures the optional checkpoint mirror in an
// S3-compatible object store.
type S3Config struct {
	Endpoint     string `json:"endpoint,omitempty"`
	Bucket       string `json:"bucket"`
	AccessKey    string `json:"access-key,omitempty"`
	SecretKey    string `json:"secret-key,omitempty"`
	Region       string `json:"region,omitempty"`
	UsePathStyle bool   `json:"use-path-style,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
}

// APIConfig configures the status/results HTTP API.
type APIConfig struct {
	// JwtPublicKey is the base64-encoded Ed25519 public key used to
	// verify bearer tokens. Empty disables authentication.
	JwtPublicKey      string  `json:"jwt-public-key,omitempty"`
	RequestsPerSecond float64 `json:"requests-per-second,omitempty"`
}

// ProgramConfig is the format of the configuration file.
type ProgramConfig struct {
	// Addr is where the status API listens, when enabled.
	Addr string `json:"addr"`

	CheckpointDir      string `json:"checkpoint_dir"`
	CheckpointInterval string `json:"checkpoint_interval"`

	// DB is the path of the sqlite measurement database.
	DB string `json:"db"`

	ModelRepository    string `json:"model_repository"`
	PerfAnalyzerPath   string `json:"perf_analyzer_path"`
	TritonHTTPEndpoint string `json:"triton_http_endpoint"`
	TritonGRPCEndpoint string `json:"triton_grpc_endpoint"`
	ClientProtocol     string `json:"client_protocol"`
	TritonLaunchMode   string `json:"triton_launch_mode"`

	RunConfigSearchMode              string `json:"run_config_search_mode"`
	RunConfigSearchDisable           bool   `json:"run_config_search_disable"`
	RunConfigSearchMinConcurrency    int    `json:"run_config_search_min_concurrency"`
	RunConfigSearchMaxConcurrency    int    `json:"run_config_search_max_concurrency"`
	RunConfigSearchMinRequestRate    int    `json:"run_config_search_min_request_rate"`
	RunConfigSearchMaxRequestRate    int    `json:"run_config_search_max_request_rate"`
	RunConfigSearchMaxInstanceCount  int    `json:"run_config_search_max_instance_count"`
	RunConfigSearchMaxModelBatchSize int    `json:"run_config_search_max_model_batch_size"`

	EarlyExitEnable      bool    `json:"early_exit_enable"`
	QuickSearchStepDecay float64 `json:"quick_search_step_decay"`

	BatchSizes []int `json:"batch_sizes,omitempty"`

	Objectives  Objectives         `json:"objectives,omitempty"`
	Constraints result.Constraints `json:"constraints,omitempty"`

	Models []ModelSpec `json:"profile_models"`

	Nats         *NatsConfig `json:"nats,omitempty"`
	CheckpointS3 *S3Config   `json:"checkpoint_s3,omitempty"`
	API          *APIConfig  `json:"api,omitempty"`
}

// Keys holds the active configuration. See Init.
var Keys ProgramConfig = ProgramConfig{
	Addr:                             ":8080",
	CheckpointDir:                    "./var/checkpoints",
	CheckpointInterval:               "2m",
	DB:                               "./var/optimizer.db",
	PerfAnalyzerPath:                 "perf_analyzer",
	TritonHTTPEndpoint:               "localhost:8000",
	TritonGRPCEndpoint:               "localhost:8001",
	ClientProtocol:                   "grpc",
	TritonLaunchMode:                 "local",
	RunConfigSearchMode:              SearchModeQuick,
	RunConfigSearchMinConcurrency:    1,
	RunConfigSearchMaxConcurrency:    1024,
	RunConfigSearchMinRequestRate:    16,
	RunConfigSearchMaxRequestRate:    8192,
	RunConfigSearchMaxInstanceCount:  5,
	RunConfigSearchMaxModelBatchSize: 128,
	QuickSearchStepDecay:             0.5,
	BatchSizes:                       []int{1},
}

// Init reads, validates and decodes the configuration file into Keys. A
// missing file keeps the defaults.
func Init(flagConfigFile string) error {
	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			cclog.Warnf("config file %s not found, using defaults", flagConfigFile)
			return Validate(&Keys)
		}
		return err
	}

	if err := ValidateSchema(raw); err != nil {
		return fmt.Errorf("validate %s: %w", flagConfigFile, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		return fmt.Errorf("decode %s: %w", flagConfigFile, err)
	}

	return Validate(&Keys)
}

// Validate applies the semantic checks the schema cannot express.
func Validate(cfg *ProgramConfig) error {
	switch cfg.RunConfigSearchMode {
	case SearchModeQuick, SearchModeBrute, SearchModeOptuna:
	default:
		return fmt.Errorf("%w: unknown run_config_search_mode %q", ErrInvalidConfig, cfg.RunConfigSearchMode)
	}

	if cfg.RunConfigSearchMinConcurrency > cfg.RunConfigSearchMaxConcurrency {
		return fmt.Errorf("%w: run_config_search_min_concurrency > run_config_search_max_concurrency", ErrInvalidConfig)
	}
	if cfg.RunConfigSearchMinRequestRate > cfg.RunConfigSearchMaxRequestRate {
		return fmt.Errorf("%w: run_config_search_min_request_rate > run_config_search_max_request_rate", ErrInvalidConfig)
	}
	if cfg.RunConfigSearchMaxInstanceCount < 1 {
		return fmt.Errorf("%w: run_config_search_max_instance_count must be at least 1", ErrInvalidConfig)
	}
	if cfg.QuickSearchStepDecay <= 0 || cfg.QuickSearchStepDecay >= 1 {
		return fmt.Errorf("%w: quick_search_step_decay must be in (0, 1)", ErrInvalidConfig)
	}

	if err := validateObjectives(cfg.Objectives); err != nil {
		return err
	}

	for i := range cfg.Models {
		m := &cfg.Models[i]
		if m.Name == "" {
			return fmt.Errorf("%w: profile_models[%d] has no name", ErrInvalidConfig, i)
		}
		if m.Weight < 0 {
			return fmt.Errorf("%w: model %s: negative weight", ErrInvalidConfig, m.Name)
		}
		if err := validateObjectives(m.Objectives); err != nil {
			return fmt.Errorf("model %s: %w", m.Name, err)
		}
		if len(m.Parameters.Concurrency) > 0 && len(m.Parameters.RequestRate) > 0 {
			return fmt.Errorf("%w: model %s: concurrency and request_rate are mutually exclusive",
				ErrInvalidConfig, m.Name)
		}
		if cfg.RunConfigSearchMode == SearchModeQuick && len(m.Parameters.Concurrency) > 0 {
			return fmt.Errorf("%w: model %s: quick search derives concurrency and rejects an explicit list",
				ErrInvalidConfig, m.Name)
		}
		for _, bs := range m.Parameters.BatchSizes {
			if bs < 1 {
				return fmt.Errorf("%w: model %s: batch sizes must be positive", ErrInvalidConfig, m.Name)
			}
		}
	}

	return nil
}

func validateObjectives(objectives Objectives) error {
	for name, weight := range objectives {
		if !model.IsValidLegacyMetricName(name) {
			return fmt.Errorf("%w: invalid objective metric name %q", ErrInvalidConfig, name)
		}
		if weight <= 0 {
			return fmt.Errorf("%w: objective %s: weight must be positive", ErrInvalidConfig, name)
		}
	}
	return nil
}
