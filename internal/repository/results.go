// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package repository

import (
	"encoding/json"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
)

// MeasurementRow is one persisted measurement.
type MeasurementRow struct {
	ID          int64   `db:"id" json:"id"`
	Fingerprint string  `db:"fingerprint" json:"fingerprint"`
	Model       string  `db:"model" json:"model"`
	Passing     bool    `db:"passing" json:"passing"`
	Throughput  float64 `db:"throughput" json:"throughput"`
	LatencyP99  float64 `db:"latency_p99" json:"latency_p99"`
	Payload     *string `db:"payload" json:"-"`
	CreatedAt   int64   `db:"created_at" json:"created_at"`
}

// ResultRepository stores and ranks completed measurements.
type ResultRepository struct {
	DB *sqlx.DB
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{DB: GetConnection().DB}
}

// Insert upserts a measurement under its fingerprint. A nil measurement
// records a failed config.
func (r *ResultRepository) Insert(fingerprint string, rc *runconfig.RunConfig, m *result.RunConfigMeasurement) error {
	model := strings.Join(rc.ModelNames(), ",")

	passing := false
	throughput, latencyP99 := 0.0, 0.0
	var payload *string
	if m != nil {
		passing = m.IsPassingConstraints()
		throughput = m.Throughput()
		latencyP99, _ = m.NonGPUMetric(result.MetricLatencyP99)

		raw, err := json.Marshal(m)
		if err != nil {
			return err
		}
		s := string(raw)
		payload = &s
	}

	_, err := r.DB.Exec(
		`INSERT INTO measurement (fingerprint, model, passing, throughput, latency_p99, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
		   passing = excluded.passing,
		   throughput = excluded.throughput,
		   latency_p99 = excluded.latency_p99,
		   payload = excluded.payload`,
		fingerprint, model, passing, throughput, latencyP99, payload, time.Now().Unix())
	return err
}

// Best returns the top-n passing measurements by throughput, optionally
// filtered by model name.
func (r *ResultRepository) Best(model string, n int) ([]MeasurementRow, error) {
	q := sq.Select("id", "fingerprint", "model", "passing", "throughput", "latency_p99", "payload", "created_at").
		From("measurement").
		Where(sq.Eq{"passing": true}).
		OrderBy("throughput DESC").
		Limit(uint64(n))
	if model != "" {
		q = q.Where(sq.Eq{"model": model})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []MeasurementRow
	if err := r.DB.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
