// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
)

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latency-report.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func TestParseLatencyReport(t *testing.T) {
	path := writeReport(t,
		"Concurrency,Inferences/Second,Client Send,p50 latency,p90 latency,p95 latency,p99 latency\n"+
			"4,1470.4,52,2312,2695,2801,3200\n")

	metrics, err := parseLatencyReport(path)
	require.NoError(t, err)

	assert.InDelta(t, 1470.4, metrics[result.MetricThroughput], 1e-9)
	assert.InDelta(t, 3200, metrics[result.MetricLatencyP99], 1e-9)
	assert.InDelta(t, 2312, metrics["perf_latency_p50"], 1e-9)

	// unrecognized columns are skipped
	_, ok := metrics["Client Send"]
	assert.False(t, ok)
}

func TestParseLatencyReportTakesLastRow(t *testing.T) {
	path := writeReport(t,
		"Concurrency,Inferences/Second,p99 latency\n"+
			"1,100,1000\n"+
			"2,180,1100\n")

	metrics, err := parseLatencyReport(path)
	require.NoError(t, err)
	assert.InDelta(t, 180, metrics[result.MetricThroughput], 1e-9)
}

func TestParseLatencyReportWithoutThroughput(t *testing.T) {
	path := writeReport(t, "Concurrency,p99 latency\n1,1000\n")

	_, err := parseLatencyReport(path)
	assert.Error(t, err)
}

func TestParseLatencyReportEmpty(t *testing.T) {
	path := writeReport(t, "Concurrency,Inferences/Second\n")

	_, err := parseLatencyReport(path)
	assert.Error(t, err)
}
