// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package profile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	measurementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_measurements_total",
		Help: "Number of completed profiling measurements.",
	})
	measurementFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_measurement_failures_total",
		Help: "Number of profiling measurements without a valid result.",
	})
	cachedMeasurements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_cached_measurements_total",
		Help: "Number of measurements served from the checkpoint instead of profiling.",
	})
	bestThroughput = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "optimizer_best_throughput",
		Help: "Throughput of the best passing configuration found so far.",
	})
)
