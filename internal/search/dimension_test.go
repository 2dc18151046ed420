// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionGrowthLaws(t *testing.T) {
	lin := NewDimension("instance_count", GrowthLinear)
	exp := NewDimension("max_batch_size", GrowthExponential)

	for _, idx := range []int{0, 1, 5, 10} {
		v, err := lin.ValueAt(idx)
		require.NoError(t, err)
		assert.Equal(t, idx+1, v)

		v, err = exp.ValueAt(idx)
		require.NoError(t, err)
		assert.Equal(t, 1<<idx, v)
	}

	// same index always maps to the same value
	v1, _ := exp.ValueAt(6)
	v2, _ := exp.ValueAt(6)
	assert.Equal(t, v1, v2)
}

func TestDimensionBounds(t *testing.T) {
	d := NewBoundedDimension("x", GrowthLinear, 2, 7)

	_, err := d.ValueAt(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = d.ValueAt(8)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	v, err := d.ValueAt(2)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestDimensionsValuesFor(t *testing.T) {
	dims := &Dimensions{}
	dims.Add("modelA",
		NewDimension("max_batch_size", GrowthExponential),
		NewDimension("instance_count", GrowthLinear))
	dims.Add("modelB",
		NewDimension("max_batch_size", GrowthExponential))

	vals, err := dims.ValuesFor(Coordinate{3, 1, 2})
	require.NoError(t, err)

	assert.Equal(t, 8, vals["modelA"]["max_batch_size"])
	assert.Equal(t, 2, vals["modelA"]["instance_count"])
	assert.Equal(t, 4, vals["modelB"]["max_batch_size"])
}

func TestDimensionsValuesForMismatch(t *testing.T) {
	dims := &Dimensions{}
	dims.Add("m", NewDimension("x", GrowthLinear))

	_, err := dims.ValuesFor(Coordinate{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDimensionsMinIndexes(t *testing.T) {
	dims := &Dimensions{}
	dims.Add("m",
		NewBoundedDimension("x", GrowthExponential, 2, 7),
		NewBoundedDimension("y", GrowthLinear, 1, 5),
		NewBoundedDimension("z", GrowthExponential, 3, 9))

	assert.Equal(t, Coordinate{2, 1, 3}, dims.MinIndexes())
}
