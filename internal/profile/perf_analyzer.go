// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package profile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/config"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/telemetry"
)

// reportColumns maps load-generator CSV report headers to metric names.
var reportColumns = map[string]string{
	"Inferences/Second": result.MetricThroughput,
	"Avg latency":       result.MetricLatencyAvg,
	"p99 latency":       result.MetricLatencyP99,
	"p95 latency":       "perf_latency_p95",
	"p90 latency":       "perf_latency_p90",
	"p50 latency":       "perf_latency_p50",
}

// PerfAnalyzerProfiler runs the external load-generator binary once per
// model run config and parses its CSV latency report into a
// measurement. GPU telemetry collected during the run window is merged
// in when a collector is attached.
type PerfAnalyzerProfiler struct {
	binary    string
	server    ServerController
	collector *telemetry.Collector
	specs     map[string]*config.ModelSpec
	weights   []float64
}

func NewPerfAnalyzerProfiler(
	binary string,
	server ServerController,
	collector *telemetry.Collector,
	models []config.ModelSpec,
) *PerfAnalyzerProfiler {
	specs := make(map[string]*config.ModelSpec, len(models))
	weights := make([]float64, len(models))
	for i := range models {
		specs[models[i].Name] = &models[i]
		weights[i] = models[i].Weight
		if weights[i] <= 0 {
			weights[i] = 1
		}
	}

	return &PerfAnalyzerProfiler{
		binary:    binary,
		server:    server,
		collector: collector,
		specs:     specs,
		weights:   weights,
	}
}

// Profile applies every model's server config, runs the load generator
// per model, and assembles the combined measurement. A load-generator
// failure yields (nil, nil): measured, no valid result.
func (p *PerfAnalyzerProfiler) Profile(ctx context.Context, rc *runconfig.RunConfig) (*result.RunConfigMeasurement, error) {
	if p.server != nil {
		for _, mrc := range rc.Models {
			name := mrc.ModelName
			cfg := map[string]any{}
			if mrc.Model != nil {
				name = mrc.Model.Name
				cfg = mrc.Model.MergedWith(map[string]any{"name": name})
			}
			if err := p.server.ApplyModelConfig(ctx, name, cfg); err != nil {
				return nil, fmt.Errorf("apply config for %s: %w", name, err)
			}
		}
	}

	if p.collector != nil {
		if err := p.collector.Start(); err != nil {
			cclog.Warnf("telemetry start: %v", err)
		}
	}

	m := &result.RunConfigMeasurement{Weights: p.weights[:min(len(p.weights), len(rc.Models))]}
	failed := false
	for _, mrc := range rc.Models {
		mm, err := p.profileModel(ctx, mrc)
		if err != nil {
			cclog.Errorf("measurement failed: %v [%s]", err, rc.Fingerprint())
			failed = true
			break
		}
		m.Models = append(m.Models, *mm)
	}

	if p.collector != nil {
		gpus := p.collector.Stop()
		if len(gpus) > 0 {
			m.GPUs = gpus
		}
	}

	if failed {
		return nil, nil
	}
	return m, nil
}

func (p *PerfAnalyzerProfiler) profileModel(ctx context.Context, mrc runconfig.ModelRunConfig) (*result.ModelMeasurement, error) {
	reportDir, err := os.MkdirTemp("", "perf-report-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(reportDir)
	reportFile := filepath.Join(reportDir, "latency-report.csv")

	pc := mrc.Perf.Clone()
	pc.Set("latency-report-file", reportFile)

	cmd := exec.CommandContext(ctx, p.binary, pc.Args()...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", p.binary, err, lastLine(out))
	}

	metrics, err := parseLatencyReport(reportFile)
	if err != nil {
		return nil, err
	}

	mm := &result.ModelMeasurement{
		Name:        mrc.ModelName,
		BatchSize:   pc.BatchSize(),
		Concurrency: pc.Concurrency(),
		RequestRate: pc.RequestRate(),
		Metrics:     metrics,
	}
	if mrc.Model != nil {
		mm.ConfigName = mrc.Model.Name
		mm.InstanceCount = mrc.Model.InstanceCount()
	}
	if spec := p.specs[mrc.ModelName]; spec != nil {
		mm.Objectives = spec.EffectiveObjectives()
		mm.Constraints = spec.EffectiveConstraints()
		mm.ConstraintExpressions = spec.ConstraintExpressions
	}
	return mm, nil
}

// parseLatencyReport reads the load generator's CSV report and returns
// the last row's recognized columns as metrics. Latencies are reported
// in microseconds and passed through unchanged.
func parseLatencyReport(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	header := rows[0]
	last := rows[len(rows)-1]
	metrics := make(map[string]float64)
	for i, col := range header {
		if i >= len(last) {
			break
		}
		name, ok := reportColumns[strings.TrimSpace(col)]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(last[i]), 64)
		if err != nil {
			continue
		}
		metrics[name] = v
	}

	if _, ok := metrics[result.MetricThroughput]; !ok {
		return nil, fmt.Errorf("%s: report has no throughput column", path)
	}
	return metrics, nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
