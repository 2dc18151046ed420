// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runconfig

import "strings"

// ModelRunConfig pairs one server-side configuration of a model with one
// client-side load specification.
type ModelRunConfig struct {
	ModelName string       `json:"model_name"`
	Model     *ModelConfig `json:"model_config,omitempty"`
	Perf      *PerfConfig  `json:"-"`
}

// RunConfig is a fully-specified profiling job across all models.
type RunConfig struct {
	Models []ModelRunConfig `json:"models"`

	// Env holds extra environment for the inference server process.
	Env map[string]string `json:"env,omitempty"`
}

// Fingerprint concatenates the per-model keys in declaration order:
// model name, server config key, client config key.
func (rc *RunConfig) Fingerprint() string {
	parts := make([]string, len(rc.Models))
	for i, mrc := range rc.Models {
		fields := []string{"model=" + mrc.ModelName, mrc.Model.Fingerprint()}
		if mrc.Perf != nil {
			fields = append(fields, mrc.Perf.Fingerprint())
		}
		parts[i] = strings.Join(fields, ",")
	}
	return strings.Join(parts, ";")
}

// ModelNames lists the model names in declaration order.
func (rc *RunConfig) ModelNames() []string {
	names := make([]string, len(rc.Models))
	for i, mrc := range rc.Models {
		names[i] = mrc.ModelName
	}
	return names
}
