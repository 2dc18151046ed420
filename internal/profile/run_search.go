// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package profile

import (
	"context"
	"sync"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/generate"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/repository"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/search"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/state"
)

// coordinateCheckpointer is implemented by generators whose coordinate
// bookkeeping is persisted in the checkpoint.
type coordinateCheckpointer interface {
	CoordinateSnapshot() *search.Snapshot
	RestoreCoordinates(*search.Snapshot)
}

// Status is a snapshot of search progress for the API.
type Status struct {
	Measurements   int     `json:"measurements"`
	Failures       int     `json:"failures"`
	Cached         int     `json:"cached"`
	Done           bool    `json:"done"`
	CurrentConfig  string  `json:"current_config,omitempty"`
	BestConfig     string  `json:"best_config,omitempty"`
	BestThroughput float64 `json:"best_throughput,omitempty"`
}

// RunSearch drives a generator to completion: pull a config, profile it
// (or serve it from the checkpoint's fingerprint cache), feed the
// measurement back, persist checkpoints between measurements.
type RunSearch struct {
	gen      generate.ConfigGenerator
	profiler Profiler
	state    *state.Manager
	repo     *repository.ResultRepository

	mu         sync.Mutex
	status     Status
	best       *result.RunConfigMeasurement
	bestConfig *runconfig.RunConfig
}

func NewRunSearch(
	gen generate.ConfigGenerator,
	profiler Profiler,
	stateMgr *state.Manager,
	repo *repository.ResultRepository,
) *RunSearch {
	rs := &RunSearch{
		gen:      gen,
		profiler: profiler,
		state:    stateMgr,
		repo:     repo,
	}

	if cg, ok := gen.(coordinateCheckpointer); ok {
		if snap := stateMgr.CoordinateData(); snap != nil {
			cg.RestoreCoordinates(snap)
		}
	}
	return rs
}

// Status returns a consistent snapshot of the search progress.
func (rs *RunSearch) Status() Status {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.status
}

// Best returns the best measurement and its config.
func (rs *RunSearch) Best() (*result.RunConfigMeasurement, *runconfig.RunConfig) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.best, rs.bestConfig
}

// Run executes the search loop until the generator is done, the context
// is canceled, or an exit was requested. The final checkpoint is always
// written.
func (rs *RunSearch) Run(ctx context.Context) error {
	defer rs.finalize()

	for {
		if rs.state.ShouldExit() || ctx.Err() != nil {
			cclog.Info("exit requested, stopping search")
			break
		}

		rc := rs.gen.NextConfig()
		if rc == nil || rs.gen.IsDone() {
			break
		}
		fingerprint := rc.Fingerprint()
		rs.setCurrent(fingerprint)

		m, cached, err := rs.measure(ctx, rc, fingerprint)
		if err != nil {
			// unexpected executor error: checkpoint what we have and abort
			cclog.Errorf("profiling aborted: %v [%s]", err, fingerprint)
			return err
		}

		rs.gen.SetLastResults([]*result.RunConfigMeasurement{m})
		rs.account(rc, m, cached)
		rs.syncCoordinateData()

		if err := rs.state.SaveIfDue(); err != nil {
			cclog.Warnf("periodic checkpoint failed: %v", err)
		}
	}

	rs.mu.Lock()
	rs.status.Done = true
	rs.status.CurrentConfig = ""
	rs.mu.Unlock()
	rs.logSummary()
	return nil
}

// measure returns the cached measurement for an already-profiled
// fingerprint, or profiles the config and records the outcome.
func (rs *RunSearch) measure(ctx context.Context, rc *runconfig.RunConfig, fingerprint string) (*result.RunConfigMeasurement, bool, error) {
	if m, ok := rs.state.LookupMeasurement(fingerprint); ok {
		cclog.Debugf("serving cached measurement [%s]", fingerprint)
		return m, true, nil
	}

	m, err := rs.profiler.Profile(ctx, rc)
	if err != nil {
		return nil, false, err
	}

	rs.state.RecordMeasurement(fingerprint, m)

	if rs.repo != nil {
		if err := rs.repo.Insert(fingerprint, rc, m); err != nil {
			cclog.Warnf("store measurement: %v", err)
		}
	}
	return m, false, nil
}

func (rs *RunSearch) account(rc *runconfig.RunConfig, m *result.RunConfigMeasurement, cached bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.status.Measurements++
	if !cached {
		measurementsTotal.Inc()
	} else {
		rs.status.Cached++
		cachedMeasurements.Inc()
	}

	if m == nil {
		rs.status.Failures++
		if !cached {
			measurementFailures.Inc()
		}
		return
	}

	if m.IsPassingConstraints() && (rs.best == nil || m.CompareTo(rs.best) > 0) {
		rs.best = m
		rs.bestConfig = rc
		rs.status.BestConfig = rc.Fingerprint()
		rs.status.BestThroughput = m.Throughput()
		bestThroughput.Set(m.Throughput())
	}
}

func (rs *RunSearch) setCurrent(fingerprint string) {
	rs.mu.Lock()
	rs.status.CurrentConfig = fingerprint
	rs.mu.Unlock()
}

// syncCoordinateData copies the generator's coordinate bookkeeping into
// the checkpoint so a resumed run never revisits a coordinate.
func (rs *RunSearch) syncCoordinateData() {
	if cg, ok := rs.gen.(coordinateCheckpointer); ok {
		rs.state.SetCoordinateData(cg.CoordinateSnapshot())
	}
}

func (rs *RunSearch) finalize() {
	if err := rs.state.Save(); err != nil {
		cclog.Errorf("final checkpoint failed: %v", err)
	}
}

func (rs *RunSearch) logSummary() {
	best, bestConfig := rs.Best()
	if best == nil {
		cclog.Info("search finished without a passing configuration")
		return
	}
	cclog.Infof("search finished: best configuration [%s] with throughput %.1f",
		bestConfig.Fingerprint(), best.Throughput())
}
