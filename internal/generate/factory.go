// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

import (
	"fmt"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/config"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/search"
)

// NewRunConfigGenerator builds the generator for the configured search
// mode.
func NewRunConfigGenerator(cfg *config.ProgramConfig) (ConfigGenerator, error) {
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("%w: no models to profile", config.ErrInvalidConfig)
	}

	endpoint := cfg.TritonGRPCEndpoint
	if cfg.ClientProtocol == "http" {
		endpoint = cfg.TritonHTTPEndpoint
	}

	switch cfg.RunConfigSearchMode {
	case config.SearchModeQuick:
		models := searchModels(cfg)
		dims := SearchModelDimensions(models,
			cfg.RunConfigSearchMaxModelBatchSize, cfg.RunConfigSearchMaxInstanceCount)
		return NewQuickRunConfigGenerator(QuickGenOptions{
			Models:    models,
			SearchCfg: search.NewConfig(dims),
			Protocol:  cfg.ClientProtocol,
			Endpoint:  endpoint,
			StepDecay: cfg.QuickSearchStepDecay,
		}), nil

	case config.SearchModeOptuna:
		models := searchModels(cfg)
		dims := SearchModelDimensions(models,
			cfg.RunConfigSearchMaxModelBatchSize, cfg.RunConfigSearchMaxInstanceCount)
		return NewOptunaRunConfigGenerator(OptunaGenOptions{
			Models:   models,
			Dims:     dims,
			Protocol: cfg.ClientProtocol,
			Endpoint: endpoint,
		}), nil

	case config.SearchModeBrute:
		return NewBruteRunConfigGenerator(BruteGenOptions{
			Models:    bruteModels(cfg),
			Protocol:  cfg.ClientProtocol,
			Endpoint:  endpoint,
			EarlyExit: cfg.EarlyExitEnable,
		}), nil
	}

	return nil, fmt.Errorf("%w: unknown run_config_search_mode %q",
		config.ErrInvalidConfig, cfg.RunConfigSearchMode)
}

func searchModels(cfg *config.ProgramConfig) []SearchModel {
	models := make([]SearchModel, len(cfg.Models))
	for i, m := range cfg.Models {
		models[i] = SearchModel{
			Name:    m.Name,
			CPUOnly: m.CPUOnly,
			Flags:   m.PerfAnalyzerFlags,
		}
	}
	return models
}

func bruteModels(cfg *config.ProgramConfig) []BruteModel {
	models := make([]BruteModel, len(cfg.Models))
	for i, m := range cfg.Models {
		batchSizes := m.Parameters.BatchSizes
		if len(batchSizes) == 0 {
			batchSizes = cfg.BatchSizes
		}

		parameters := m.Parameters.Concurrency
		useRequestRate := false
		switch {
		case len(m.Parameters.RequestRate) > 0:
			parameters = m.Parameters.RequestRate
			useRequestRate = true
		case len(parameters) > 0:
		case cfg.RunConfigSearchDisable:
			parameters = []int{1}
		default:
			parameters = DoubledList(
				cfg.RunConfigSearchMinConcurrency, cfg.RunConfigSearchMaxConcurrency)
		}

		models[i] = BruteModel{
			Name:           m.Name,
			CPUOnly:        m.CPUOnly,
			Flags:          m.PerfAnalyzerFlags,
			BatchSizes:     batchSizes,
			Parameters:     parameters,
			UseRequestRate: useRequestRate,
			ModelConfigOpts: ModelConfigGenOptions{
				MaxInstanceCount: cfg.RunConfigSearchMaxInstanceCount,
				SearchDisabled:   cfg.RunConfigSearchDisable,
				RemoteMode:       cfg.TritonLaunchMode == "remote",
				CPUOnly:          m.CPUOnly,
				Params:           m.ModelConfigParameters,
			},
		}
	}
	return models
}
