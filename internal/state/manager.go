// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package state persists the search state across runs. A checkpoint is a
// deterministic JSON snapshot (sorted keys, stable formatting) written
// atomically, so save-load-save round-trips are byte identical and
// interrupted runs resume where they left off.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/search"
)

// ErrStateCorruption is returned when a checkpoint cannot be decoded.
// The user must clear the checkpoint directory.
var ErrStateCorruption = errors.New("corrupt checkpoint")

const checkpointVersion = 1

// Checkpoint is the persisted search state: the seen measurements keyed
// by run-config fingerprint and the global coordinate bookkeeping of the
// coordinate-driven searches.
type Checkpoint struct {
	Version int `json:"version"`

	// Measurements maps run-config fingerprints to their measurement; a
	// null entry records a measured-but-failed config.
	Measurements map[string]*result.RunConfigMeasurement `json:"measurements"`

	CoordinateData *search.Snapshot `json:"coordinate_data,omitempty"`
}

func newCheckpoint() *Checkpoint {
	return &Checkpoint{
		Version:      checkpointVersion,
		Measurements: make(map[string]*result.RunConfigMeasurement),
	}
}

// Manager owns the scoped checkpoint file of one profiling run: load on
// start, periodic saves between measurements, a final atomic write on
// completion or interruption.
type Manager struct {
	dir      string
	scope    string
	interval time.Duration

	mu       sync.Mutex
	current  *Checkpoint
	dirty    bool
	lastSave time.Time

	exiting atomic.Bool
}

func NewManager(dir, scope string, interval time.Duration) *Manager {
	return &Manager{
		dir:      dir,
		scope:    scope,
		interval: interval,
		current:  newCheckpoint(),
		lastSave: time.Now(),
	}
}

func (m *Manager) path() string {
	return filepath.Join(m.dir, m.scope+".ckpt.json")
}

// Load reads the checkpoint file. A missing file starts fresh; an
// undecodable one is reported as ErrStateCorruption.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := os.ReadFile(m.path())
	if err != nil {
		if os.IsNotExist(err) {
			m.current = newCheckpoint()
			return nil
		}
		return err
	}

	ckpt := newCheckpoint()
	if err := json.Unmarshal(raw, ckpt); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStateCorruption, m.path(), err)
	}
	if ckpt.Version != checkpointVersion {
		return fmt.Errorf("%w: %s: version %d, need %d",
			ErrStateCorruption, m.path(), ckpt.Version, checkpointVersion)
	}
	if ckpt.Measurements == nil {
		ckpt.Measurements = make(map[string]*result.RunConfigMeasurement)
	}

	m.current = ckpt
	cclog.Infof("loaded checkpoint %s with %d measurements", m.path(), len(ckpt.Measurements))
	return nil
}

// LookupMeasurement returns the stored measurement for a run-config
// fingerprint. The bool reports whether the fingerprint was measured at
// all; the measurement itself may be nil for a failed config.
func (m *Manager) LookupMeasurement(fingerprint string) (*result.RunConfigMeasurement, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meas, ok := m.current.Measurements[fingerprint]
	return meas, ok
}

// RecordMeasurement stores a measurement under its fingerprint and
// marks the checkpoint dirty.
func (m *Manager) RecordMeasurement(fingerprint string, meas *result.RunConfigMeasurement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Measurements[fingerprint] = meas
	m.dirty = true
}

// MeasurementCount returns the number of stored measurements.
func (m *Manager) MeasurementCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.current.Measurements)
}

// SetCoordinateData replaces the persisted coordinate bookkeeping.
func (m *Manager) SetCoordinateData(s *search.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.CoordinateData = s
	m.dirty = true
}

// CoordinateData returns the persisted coordinate bookkeeping, nil if
// none was stored.
func (m *Manager) CoordinateData() *search.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.CoordinateData
}

// SaveIfDue writes the checkpoint if it is dirty and the save interval
// has elapsed.
func (m *Manager) SaveIfDue() error {
	m.mu.Lock()
	due := m.dirty && time.Since(m.lastSave) >= m.interval
	m.mu.Unlock()

	if !due {
		return nil
	}
	return m.Save()
}

// Save writes the checkpoint atomically: marshal under the lock, write
// to a temp file in the same directory, rename.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(m.current, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(m.dir, m.scope+".ckpt-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), m.path()); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	m.dirty = false
	m.lastSave = time.Now()
	cclog.Debugf("wrote checkpoint %s", m.path())
	return nil
}

// RequestExit sets the exiting flag. The orchestrator checks it between
// measurements.
func (m *Manager) RequestExit() {
	m.exiting.Store(true)
}

func (m *Manager) ShouldExit() bool {
	return m.exiting.Load()
}
