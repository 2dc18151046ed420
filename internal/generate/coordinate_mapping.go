// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

import (
	"fmt"
	"strconv"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/runconfig"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/search"
)

// Dimension names used by the coordinate-driven searches.
const (
	dimMaxBatchSize  = "max_batch_size"
	dimInstanceCount = "instance_count"
)

// SearchModel is what a coordinate-driven generator needs to know about
// one model.
type SearchModel struct {
	Name    string
	CPUOnly bool

	// Flags are user-supplied load-generator flags, applied last.
	Flags map[string]string
}

// SearchModelDimensions builds the concatenated per-model dimensions for
// a coordinate-driven search: an exponential max_batch_size axis and a
// linear instance_count axis per model.
func SearchModelDimensions(models []SearchModel, maxModelBatchSize, maxInstanceCount int) *search.Dimensions {
	maxBatchIdx := 0
	for 1<<(maxBatchIdx+1) <= maxModelBatchSize {
		maxBatchIdx++
	}

	dims := &search.Dimensions{}
	for _, m := range models {
		dims.Add(m.Name,
			search.NewBoundedDimension(dimMaxBatchSize, search.GrowthExponential, 0, maxBatchIdx),
			search.NewBoundedDimension(dimInstanceCount, search.GrowthLinear, 0, maxInstanceCount-1),
		)
	}
	return dims
}

// coordinateRunConfig maps a coordinate to a full profiling job. Each
// model contributes a max_batch_size and an instance_count axis; the
// client concurrency is derived as max_batch_size * instance_count * 2.
func coordinateRunConfig(
	dims *search.Dimensions,
	c search.Coordinate,
	models []SearchModel,
	namer *runconfig.VariantNamer,
	protocol, endpoint string,
) (*runconfig.RunConfig, error) {
	values, err := dims.ValuesFor(c)
	if err != nil {
		return nil, err
	}

	rc := &runconfig.RunConfig{}
	for _, m := range models {
		v, ok := values[m.Name]
		if !ok {
			return nil, fmt.Errorf("no dimensions for model %s", m.Name)
		}
		maxBatchSize := v[dimMaxBatchSize]
		instanceCount := v[dimInstanceCount]
		concurrency := maxBatchSize * instanceCount * 2

		mc := &runconfig.ModelConfig{
			MaxBatchSize: maxBatchSize,
			InstanceGroup: []runconfig.InstanceGroup{{
				Count:               instanceCount,
				Kind:                instanceKind(m.CPUOnly),
				RateLimiterPriority: 1,
			}},
			DynamicBatching: &runconfig.DynamicBatching{},
			CPUOnly:         m.CPUOnly,
		}
		mc.Name = namer.Name(m.Name, mc)

		pc := runconfig.NewPerfConfig()
		pc.Set("model-name", mc.Name)
		pc.Set("batch-size", "1")
		if protocol != "" {
			pc.Set("protocol", protocol)
		}
		if endpoint != "" {
			pc.Set("url", endpoint)
		}
		pc.Set("measurement-mode", "time_windows")
		pc.Set("concurrency-range", strconv.Itoa(concurrency))
		if err := pc.Update(m.Flags); err != nil {
			return nil, err
		}

		rc.Models = append(rc.Models, runconfig.ModelRunConfig{
			ModelName: m.Name,
			Model:     mc,
			Perf:      pc,
		})
	}
	return rc, nil
}
