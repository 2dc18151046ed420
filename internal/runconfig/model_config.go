// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package runconfig describes fully-specified profiling jobs: the
// server-side model configuration, the client-side load-generator
// configuration and their pairing into run configs, plus the
// deterministic fingerprints the checkpoint layer keys on.
package runconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// InstanceGroup is one server-side instance placement entry.
type InstanceGroup struct {
	Count               int    `json:"count"`
	Kind                string `json:"kind"`
	RateLimiterPriority int    `json:"rate_limiter_priority,omitempty"`
}

// DynamicBatching holds the server-side dynamic batcher parameters. A
// zero value means "enabled with server defaults".
type DynamicBatching struct {
	PreferredBatchSize        []int `json:"preferred_batch_size,omitempty"`
	MaxQueueDelayMicroseconds int   `json:"max_queue_delay_microseconds,omitempty"`
}

// ModelConfig is one server-side configuration of a model. A nil
// *ModelConfig stands for "use the model's default configuration as-is".
type ModelConfig struct {
	// Name is the generated variant name this configuration is deployed
	// under.
	Name string `json:"name,omitempty"`

	MaxBatchSize    int              `json:"max_batch_size,omitempty"`
	InstanceGroup   []InstanceGroup  `json:"instance_group,omitempty"`
	DynamicBatching *DynamicBatching `json:"dynamic_batching,omitempty"`
	CPUOnly         bool             `json:"cpu_only,omitempty"`
}

// InstanceCount returns the summed instance count over all groups.
func (mc *ModelConfig) InstanceCount() int {
	n := 0
	for _, g := range mc.InstanceGroup {
		n += g.Count
	}
	return n
}

// Fingerprint returns the deterministic key of this configuration, e.g.
// "max_batch_size=8,instance_count=2". Additional fields extend the key
// only when set, so fingerprints stay stable across versions.
func (mc *ModelConfig) Fingerprint() string {
	if mc == nil {
		return "default"
	}

	parts := []string{
		"max_batch_size=" + strconv.Itoa(mc.MaxBatchSize),
		"instance_count=" + strconv.Itoa(mc.InstanceCount()),
	}
	if mc.CPUOnly {
		parts = append(parts, "kind=KIND_CPU")
	}
	if db := mc.DynamicBatching; db != nil {
		if len(db.PreferredBatchSize) > 0 {
			sizes := make([]string, len(db.PreferredBatchSize))
			for i, s := range db.PreferredBatchSize {
				sizes[i] = strconv.Itoa(s)
			}
			parts = append(parts, "preferred_batch_size="+strings.Join(sizes, "/"))
		}
		if db.MaxQueueDelayMicroseconds > 0 {
			parts = append(parts, fmt.Sprintf("max_queue_delay_microseconds=%d", db.MaxQueueDelayMicroseconds))
		}
	}
	return strings.Join(parts, ",")
}

// MergedWith applies this configuration on top of the model's base
// config fields and returns the merged document. Base fields not
// overwritten here persist.
func (mc *ModelConfig) MergedWith(base map[string]any) map[string]any {
	out := make(map[string]any, len(base)+4)
	for k, v := range base {
		out[k] = v
	}
	if mc == nil {
		return out
	}

	out["name"] = mc.Name
	if mc.MaxBatchSize > 0 {
		out["max_batch_size"] = mc.MaxBatchSize
	}
	if len(mc.InstanceGroup) > 0 {
		groups := make([]map[string]any, len(mc.InstanceGroup))
		for i, g := range mc.InstanceGroup {
			group := map[string]any{
				"count": g.Count,
				"kind":  g.Kind,
			}
			if g.RateLimiterPriority > 0 {
				group["rate_limiter"] = map[string]any{"priority": g.RateLimiterPriority}
			}
			groups[i] = group
		}
		out["instance_group"] = groups
	}
	if mc.DynamicBatching != nil {
		db := map[string]any{}
		if len(mc.DynamicBatching.PreferredBatchSize) > 0 {
			db["preferred_batch_size"] = mc.DynamicBatching.PreferredBatchSize
		}
		if mc.DynamicBatching.MaxQueueDelayMicroseconds > 0 {
			db["max_queue_delay_microseconds"] = mc.DynamicBatching.MaxQueueDelayMicroseconds
		}
		out["dynamic_batching"] = db
	}
	return out
}
