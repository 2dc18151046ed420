// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerfConfigCLIOrdering(t *testing.T) {
	pc := NewPerfConfig()
	require.NoError(t, pc.Set("measurement-interval", "5000"))
	require.NoError(t, pc.Set("model-name", "resnet50"))
	require.NoError(t, pc.Set("concurrency-range", "16"))
	require.NoError(t, pc.Set("batch-size", "4"))
	require.NoError(t, pc.Set("protocol", "grpc"))
	require.NoError(t, pc.Set("url", "localhost:8001"))
	require.NoError(t, pc.Set("verbose", "true"))

	// single-dash options first (in fixed order), then verbose flags,
	// then --key=value arguments
	assert.Equal(t, []string{
		"-m", "resnet50",
		"-b", "4",
		"-u", "localhost:8001",
		"-i", "grpc",
		"-v",
		"--measurement-interval=5000",
		"--concurrency-range=16",
	}, pc.Args())
}

func TestPerfConfigBoolFlags(t *testing.T) {
	pc := NewPerfConfig()
	require.NoError(t, pc.Set("model-name", "m"))
	require.NoError(t, pc.Set("async", "true"))
	require.NoError(t, pc.Set("streaming", "true"))

	assert.Equal(t, "-m m --async --streaming", pc.CLIString())
}

func TestPerfConfigUnsupportedKey(t *testing.T) {
	pc := NewPerfConfig()
	assert.Error(t, pc.Set("no-such-flag", "1"))
}

func TestPerfConfigUserOverride(t *testing.T) {
	pc := NewPerfConfig()
	require.NoError(t, pc.Set("concurrency-range", "8"))
	require.NoError(t, pc.Set("measurement-mode", "time_windows"))

	// user-supplied flags override computed ones
	require.NoError(t, pc.Update(map[string]string{
		"concurrency-range": "64",
		"percentile":        "99",
	}))

	assert.Equal(t, 64, pc.Concurrency())
	v, ok := pc.Get("percentile")
	assert.True(t, ok)
	assert.Equal(t, "99", v)
}

func TestPerfConfigFingerprint(t *testing.T) {
	pc := NewPerfConfig()
	require.NoError(t, pc.Set("concurrency-range", "32"))
	assert.Equal(t, "concurrency=32", pc.Fingerprint())

	rr := NewPerfConfig()
	require.NoError(t, rr.Set("request-rate-range", "128"))
	assert.Equal(t, "request_rate=128", rr.Fingerprint())
}

func TestPerfConfigRangeValues(t *testing.T) {
	pc := NewPerfConfig()
	require.NoError(t, pc.Set("concurrency-range", "4:64:4"))
	assert.Equal(t, 4, pc.Concurrency())
}

func TestPerfConfigClone(t *testing.T) {
	pc := NewPerfConfig()
	require.NoError(t, pc.Set("concurrency-range", "8"))

	clone := pc.Clone()
	require.NoError(t, clone.Set("concurrency-range", "16"))

	assert.Equal(t, 8, pc.Concurrency())
	assert.Equal(t, 16, clone.Concurrency())
}

func TestModelConfigFingerprint(t *testing.T) {
	mc := &ModelConfig{
		MaxBatchSize: 8,
		InstanceGroup: []InstanceGroup{
			{Count: 2, Kind: "KIND_GPU"},
		},
	}
	assert.Equal(t, "max_batch_size=8,instance_count=2", mc.Fingerprint())

	mc.DynamicBatching = &DynamicBatching{
		PreferredBatchSize:        []int{4, 8},
		MaxQueueDelayMicroseconds: 100,
	}
	assert.Equal(t,
		"max_batch_size=8,instance_count=2,preferred_batch_size=4/8,max_queue_delay_microseconds=100",
		mc.Fingerprint())

	var defaultConfig *ModelConfig
	assert.Equal(t, "default", defaultConfig.Fingerprint())
}

func TestRunConfigFingerprint(t *testing.T) {
	pc1 := NewPerfConfig()
	require.NoError(t, pc1.Set("concurrency-range", "12"))
	pc2 := NewPerfConfig()
	require.NoError(t, pc2.Set("concurrency-range", "192"))

	rc := &RunConfig{Models: []ModelRunConfig{
		{
			ModelName: "modelA",
			Model: &ModelConfig{MaxBatchSize: 2,
				InstanceGroup: []InstanceGroup{{Count: 3, Kind: "KIND_GPU"}}},
			Perf: pc1,
		},
		{
			ModelName: "modelB",
			Model: &ModelConfig{MaxBatchSize: 16,
				InstanceGroup: []InstanceGroup{{Count: 6, Kind: "KIND_GPU"}}},
			Perf: pc2,
		},
	}}

	assert.Equal(t,
		"model=modelA,max_batch_size=2,instance_count=3,concurrency=12;"+
			"model=modelB,max_batch_size=16,instance_count=6,concurrency=192",
		rc.Fingerprint())
}

func TestMergedWithPreservesBaseFields(t *testing.T) {
	mc := &ModelConfig{
		Name:            "m_config_0",
		MaxBatchSize:    32,
		InstanceGroup:   []InstanceGroup{{Count: 8, Kind: "KIND_GPU", RateLimiterPriority: 1}},
		DynamicBatching: &DynamicBatching{},
	}

	base := map[string]any{
		"name":           "m",
		"input":          []any{map[string]any{"name": "INPUT__0"}},
		"max_batch_size": 4,
	}

	merged := mc.MergedWith(base)
	assert.Equal(t, "m_config_0", merged["name"])
	assert.Equal(t, 32, merged["max_batch_size"])
	assert.Equal(t, base["input"], merged["input"])
	assert.Contains(t, merged, "dynamic_batching")

	groups := merged["instance_group"].([]map[string]any)
	require.Len(t, groups, 1)
	assert.Equal(t, 8, groups[0]["count"])
	assert.Equal(t, "KIND_GPU", groups[0]["kind"])
	assert.Equal(t, map[string]any{"priority": 1}, groups[0]["rate_limiter"])
}

func TestVariantNamerStability(t *testing.T) {
	vn := NewVariantNamer()

	mc1 := &ModelConfig{MaxBatchSize: 2, InstanceGroup: []InstanceGroup{{Count: 1, Kind: "KIND_GPU"}}}
	mc2 := &ModelConfig{MaxBatchSize: 4, InstanceGroup: []InstanceGroup{{Count: 1, Kind: "KIND_GPU"}}}

	assert.Equal(t, "m_config_0", vn.Name("m", mc1))
	assert.Equal(t, "m_config_1", vn.Name("m", mc2))
	// same fingerprint maps to the same name
	assert.Equal(t, "m_config_0", vn.Name("m", mc1))
	// the default config has a fixed name
	assert.Equal(t, "m_config_default", vn.Name("m", nil))
	// other models count independently
	assert.Equal(t, "other_config_0", vn.Name("other", mc1))
}
