// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinateDataBasic(t *testing.T) {
	cd := NewCoordinateData()
	c := Coordinate{0, 0, 0}

	assert.Nil(t, cd.GetMeasurement(c))
	assert.Equal(t, 0, cd.GetVisitCount(c))
	assert.False(t, cd.IsMeasured(c))
	assert.False(t, cd.HasValidMeasurement(c))
}

func TestCoordinateDataVisitCount(t *testing.T) {
	cd := NewCoordinateData()
	c1 := Coordinate{0, 0, 0}
	c2 := Coordinate{0, 4, 1}

	cd.IncrementVisitCount(c1)
	assert.Equal(t, 1, cd.GetVisitCount(c1))

	cd.IncrementVisitCount(c2)
	assert.Equal(t, 1, cd.GetVisitCount(c2))

	cd.IncrementVisitCount(c1)
	cd.IncrementVisitCount(c1)
	assert.Equal(t, 3, cd.GetVisitCount(c1))
	assert.Equal(t, 1, cd.GetVisitCount(c2))
}

func TestCoordinateDataMeasurements(t *testing.T) {
	cd := NewCoordinateData()
	c := Coordinate{1, 2}
	m := makeMeasurement(10, 5)

	cd.SetMeasurement(c, m)
	assert.Same(t, m, cd.GetMeasurement(c))
	assert.True(t, cd.IsMeasured(c))
	assert.True(t, cd.HasValidMeasurement(c))

	// idempotent overwrite
	cd.SetMeasurement(c, m)
	assert.Same(t, m, cd.GetMeasurement(c))
	assert.True(t, cd.IsMeasured(c))
}

func TestCoordinateDataFailedMeasurement(t *testing.T) {
	cd := NewCoordinateData()
	c := Coordinate{3, 3}

	cd.SetMeasurement(c, nil)
	assert.Nil(t, cd.GetMeasurement(c))
	assert.True(t, cd.IsMeasured(c))
	assert.False(t, cd.HasValidMeasurement(c))
}

func TestCoordinateDataResetPreservesVisits(t *testing.T) {
	cd := NewCoordinateData()
	c := Coordinate{0, 1}

	cd.SetMeasurement(c, makeMeasurement(10, 5))
	cd.IncrementVisitCount(c)

	cd.ResetMeasurements()
	assert.Nil(t, cd.GetMeasurement(c))
	assert.Equal(t, 1, cd.GetVisitCount(c))
	assert.True(t, cd.IsMeasured(c))
}

func TestCoordinateDataSnapshotRestore(t *testing.T) {
	cd := NewCoordinateData()
	c1 := Coordinate{0, 1}
	c2 := Coordinate{2, 3}

	cd.SetMeasurement(c1, makeMeasurement(10, 5))
	cd.IncrementVisitCount(c1)
	cd.SetMeasurement(c2, nil)
	cd.IncrementVisitCount(c2)
	cd.IncrementVisitCount(c2)

	restored := RestoreCoordinateData(cd.Snapshot())
	assert.Equal(t, 1, restored.GetVisitCount(c1))
	assert.Equal(t, 2, restored.GetVisitCount(c2))
	assert.True(t, restored.IsMeasured(c2))
	assert.False(t, restored.HasValidMeasurement(c2))
	assert.True(t, restored.HasValidMeasurement(c1))
}
