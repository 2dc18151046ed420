// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package telemetry collects GPU metrics published during a measurement
// window. DCGM-style publishers emit influx line protocol over NATS,
// one point per GPU and metric; the collector aggregates the samples of
// one window into the per-GPU metric map of the measurement.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/config"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
	influx "github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/nats-io/nats.go"
)

const defaultSubject = "telemetry.gpu"

// canonicalMetric maps publisher measurement names onto the metric
// names the comparator knows.
var canonicalMetric = map[string]string{
	"gpu_util":        result.MetricGPUUtil,
	"gpu_utilization": result.MetricGPUUtil,
	"gpu_mem_used":    result.MetricGPUMemory,
	"gpu_used_memory": result.MetricGPUMemory,
	"gpu_power":       result.MetricGPUPower,
	"gpu_power_usage": result.MetricGPUPower,
}

type sample struct {
	Timestamp int64
	Value     float64
}

// Collector subscribes to the telemetry subject for the duration of one
// measurement and aggregates what arrived.
type Collector struct {
	conn       *nats.Conn
	subject    string
	archiveDir string

	mu      sync.Mutex
	sub     *nats.Subscription
	samples map[string]map[string][]sample
}

// Connect establishes the NATS connection for telemetry ingest.
func Connect(cfg *config.NatsConfig) (*Collector, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("telemetry: NATS address is required")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts, nats.MaxReconnects(-1))

	conn, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", cfg.Address, err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = defaultSubject
	}

	return &Collector{
		conn:       conn,
		subject:    subject,
		archiveDir: cfg.ArchiveDir,
	}, nil
}

// Start opens the measurement window: reset the sample buffers and
// subscribe.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.samples = make(map[string]map[string][]sample)

	sub, err := c.conn.Subscribe(c.subject, func(msg *nats.Msg) {
		c.ingest(msg.Data)
	})
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

// Stop closes the window and returns the aggregated per-GPU metrics:
// memory as the window maximum, utilization and power as averages.
func (c *Collector) Stop() map[string]result.GPUMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			cclog.Warnf("telemetry unsubscribe: %v", err)
		}
		c.sub = nil
	}

	if c.archiveDir != "" && len(c.samples) > 0 {
		if err := writeSampleArchive(c.archiveDir, c.samples); err != nil {
			cclog.Warnf("telemetry archive: %v", err)
		}
	}

	out := make(map[string]result.GPUMetrics, len(c.samples))
	for gpu, metrics := range c.samples {
		agg := make(result.GPUMetrics, len(metrics))
		for metric, values := range metrics {
			if len(values) == 0 {
				continue
			}
			if metric == result.MetricGPUMemory {
				m := values[0].Value
				for _, s := range values[1:] {
					if s.Value > m {
						m = s.Value
					}
				}
				agg[metric] = m
			} else {
				sum := 0.0
				for _, s := range values {
					sum += s.Value
				}
				agg[metric] = sum / float64(len(values))
			}
		}
		out[gpu] = agg
	}
	c.samples = nil
	return out
}

// Close terminates the NATS connection.
func (c *Collector) Close() {
	c.conn.Close()
}

// ingest decodes one line-protocol payload and files its points.
func (c *Collector) ingest(data []byte) {
	dec := influx.NewDecoderWithBytes(data)
	for dec.Next() {
		name, gpu, value, ts, err := decodePoint(dec)
		if err != nil {
			cclog.Debugf("telemetry decode: %v", err)
			continue
		}

		metric, ok := canonicalMetric[name]
		if !ok || gpu == "" {
			continue
		}

		c.mu.Lock()
		if c.samples != nil {
			if c.samples[gpu] == nil {
				c.samples[gpu] = make(map[string][]sample)
			}
			c.samples[gpu][metric] = append(c.samples[gpu][metric],
				sample{Timestamp: ts, Value: value})
		}
		c.mu.Unlock()
	}
}

// decodePoint reads one point: measurement name, the GPU id tag, the
// "value" field and the timestamp.
func decodePoint(dec *influx.Decoder) (string, string, float64, int64, error) {
	measurement, err := dec.Measurement()
	if err != nil {
		return "", "", 0, 0, err
	}
	name := string(measurement)

	gpu := ""
	for {
		key, value, err := dec.NextTag()
		if err != nil {
			return "", "", 0, 0, err
		}
		if key == nil {
			break
		}
		switch string(key) {
		case "gpu", "uuid", "type-id":
			gpu = string(value)
		}
	}

	val := 0.0
	found := false
	for {
		key, value, err := dec.NextField()
		if err != nil {
			return "", "", 0, 0, err
		}
		if key == nil {
			break
		}
		if string(key) != "value" {
			continue
		}
		switch v := value.Interface().(type) {
		case float64:
			val, found = v, true
		case int64:
			val, found = float64(v), true
		case uint64:
			val, found = float64(v), true
		}
	}
	if !found {
		return "", "", 0, 0, fmt.Errorf("point %s has no value field", name)
	}

	t, err := dec.Time(influx.Nanosecond, time.Time{})
	if err != nil {
		return "", "", 0, 0, err
	}

	return name, gpu, val, t.UnixNano(), nil
}
