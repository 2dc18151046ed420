// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package taskmanager schedules the background jobs of a profiling run.
package taskmanager

import (
	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/go-co-op/gocron/v2"
)

var s gocron.Scheduler

func init() {
	var err error
	s, err = gocron.NewScheduler()
	if err != nil {
		cclog.Abortf("taskmanager: could not create scheduler: %v", err)
	}
}

// Start begins executing the registered tasks.
func Start() {
	s.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func Shutdown() {
	if err := s.Shutdown(); err != nil {
		cclog.Warnf("taskmanager shutdown: %v", err)
	}
}
