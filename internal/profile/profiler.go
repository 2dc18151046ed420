// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package profile drives a config generator to completion: it hands each
// run config to the external profiler, feeds the measurement back into
// the generator, and keeps the checkpoint and the measurement repository
// up to date.
package profile

import (
	"context"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
)

// Profiler executes one profiling job against the inference server: it
// applies the server-side configuration, runs the load generator, and
// returns the combined measurement. A nil measurement with a nil error
// is a valid "measured but failed" outcome; an error means the job could
// not be executed at all.
type Profiler interface {
	Profile(ctx context.Context, rc *runconfig.RunConfig) (*result.RunConfigMeasurement, error)
}

// ServerController is the inference-server side of the contract: write
// the model variant's configuration into the model repository and load
// it.
type ServerController interface {
	ApplyModelConfig(ctx context.Context, modelName string, cfg map[string]any) error
}
