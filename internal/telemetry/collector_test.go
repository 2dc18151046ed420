// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package telemetry

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
)

func newWindow() *Collector {
	return &Collector{samples: make(map[string]map[string][]sample)}
}

func TestIngestLineProtocol(t *testing.T) {
	c := newWindow()

	c.ingest([]byte(
		"gpu_power,gpu=GPU-abc value=42.5 1000000000\n" +
			"gpu_util,gpu=GPU-abc value=80 1000000000\n" +
			"gpu_mem_used,gpu=GPU-abc value=4096 1000000000\n"))

	out := c.Stop()
	require.Contains(t, out, "GPU-abc")
	assert.InDelta(t, 42.5, out["GPU-abc"][result.MetricGPUPower], 1e-9)
	assert.InDelta(t, 80, out["GPU-abc"][result.MetricGPUUtil], 1e-9)
	assert.InDelta(t, 4096, out["GPU-abc"][result.MetricGPUMemory], 1e-9)
}

func TestAggregationRules(t *testing.T) {
	c := newWindow()

	// memory: window maximum; power: average
	c.ingest([]byte("gpu_mem_used,gpu=GPU-0 value=1000 1000000000\n"))
	c.ingest([]byte("gpu_mem_used,gpu=GPU-0 value=3000 2000000000\n"))
	c.ingest([]byte("gpu_mem_used,gpu=GPU-0 value=2000 3000000000\n"))
	c.ingest([]byte("gpu_power,gpu=GPU-0 value=100 1000000000\n"))
	c.ingest([]byte("gpu_power,gpu=GPU-0 value=300 2000000000\n"))

	out := c.Stop()
	assert.InDelta(t, 3000, out["GPU-0"][result.MetricGPUMemory], 1e-9)
	assert.InDelta(t, 200, out["GPU-0"][result.MetricGPUPower], 1e-9)
}

func TestIngestMultipleGPUs(t *testing.T) {
	c := newWindow()

	c.ingest([]byte(
		"gpu_util,gpu=GPU-0 value=10 1000000000\n" +
			"gpu_util,gpu=GPU-1 value=90 1000000000\n"))

	out := c.Stop()
	require.Len(t, out, 2)
	assert.InDelta(t, 10, out["GPU-0"][result.MetricGPUUtil], 1e-9)
	assert.InDelta(t, 90, out["GPU-1"][result.MetricGPUUtil], 1e-9)
}

func TestIngestIgnoresUnknownMeasurements(t *testing.T) {
	c := newWindow()

	c.ingest([]byte(
		"cpu_load,host=n1 value=3.5 1000000000\n" +
			"gpu_util value=50 1000000000\n")) // no gpu tag

	out := c.Stop()
	assert.Empty(t, out)
}

func TestIngestIntegerValues(t *testing.T) {
	c := newWindow()
	c.ingest([]byte("gpu_mem_used,gpu=GPU-0 value=4096i 1000000000\n"))

	out := c.Stop()
	assert.InDelta(t, 4096, out["GPU-0"][result.MetricGPUMemory], 1e-9)
}

func TestSampleArchive(t *testing.T) {
	dir := t.TempDir()

	samples := map[string]map[string][]sample{
		"GPU-0": {
			result.MetricGPUPower: {{Timestamp: 1, Value: 100}, {Timestamp: 2, Value: 110}},
		},
	}
	require.NoError(t, writeSampleArchive(dir, samples))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "telemetry-")
	assert.Contains(t, entries[0].Name(), ".avro")
}
