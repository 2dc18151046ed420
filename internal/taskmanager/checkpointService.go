// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package taskmanager

import (
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/go-co-op/gocron/v2"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/state"
)

// RegisterCheckpointService saves the search checkpoint periodically, in
// addition to the orchestrator's save-between-measurements.
func RegisterCheckpointService(mgr *state.Manager, interval time.Duration) {
	if interval <= 0 {
		return
	}

	cclog.Infof("registering checkpoint service with interval %s", interval)
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := mgr.SaveIfDue(); err != nil {
				cclog.Warnf("checkpoint service: %v", err)
			}
		}),
	); err != nil {
		cclog.Errorf("checkpoint service: %v", err)
	}
}
