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

func threeDims() *Dimensions {
	dims := &Dimensions{}
	dims.Add("m",
		NewDimension("foo", GrowthLinear),
		NewDimension("bar", GrowthExponential),
		NewDimension("foobar", GrowthExponential))
	return dims
}

func twoDims() *Dimensions {
	dims := &Dimensions{}
	dims.Add("m",
		NewDimension("foo", GrowthLinear),
		NewDimension("bar", GrowthExponential))
	return dims
}

func TestNeighborhoodCreation(t *testing.T) {
	nc := NeighborhoodConfig{Dimensions: threeDims(), Radius: 2, MinInitialized: 3}
	n := NewNeighborhood(nc, Coordinate{1, 1, 1})

	// all coordinates within distance 2 of [1,1,1], no negative indexes
	expected := []Coordinate{
		{0, 0, 0}, {0, 0, 1}, {0, 0, 2}, {0, 1, 0},
		{0, 1, 1}, {0, 1, 2}, {0, 2, 0}, {0, 2, 1},
		{0, 2, 2}, {1, 0, 0}, {1, 0, 1}, {1, 0, 2},
		{1, 1, 0}, {1, 1, 1}, {1, 1, 2}, {1, 1, 3},
		{1, 2, 0}, {1, 2, 1}, {1, 2, 2}, {1, 3, 1},
		{2, 0, 0}, {2, 0, 1}, {2, 0, 2}, {2, 1, 0},
		{2, 1, 1}, {2, 1, 2}, {2, 2, 0}, {2, 2, 1},
		{2, 2, 2}, {3, 1, 1},
	}
	assert.Equal(t, expected, n.Coordinates())

	// containment: every coordinate within radius and bounds
	for _, c := range n.Coordinates() {
		assert.LessOrEqual(t, Distance(c, n.Home()), 2.0)
		for _, v := range c {
			assert.GreaterOrEqual(t, v, 0)
		}
	}
}

func TestNeighborhoodEnoughInitialized(t *testing.T) {
	nc := NeighborhoodConfig{Dimensions: threeDims(), Radius: 2, MinInitialized: 3}
	n := NewNeighborhood(nc, Coordinate{1, 1, 1})
	m := makeMeasurement(100, 80)

	set := func(c Coordinate) {
		n.Data().SetMeasurement(c, m)
		n.Data().IncrementVisitCount(c)
	}

	assert.False(t, n.EnoughInitialized())

	// the home coordinate does not count
	set(Coordinate{1, 1, 1})
	assert.False(t, n.EnoughInitialized())

	set(Coordinate{0, 0, 0})
	assert.False(t, n.EnoughInitialized())

	// same point again: no change
	set(Coordinate{0, 0, 0})
	assert.False(t, n.EnoughInitialized())

	// outside of the neighborhood: no change
	set(Coordinate{0, 0, 4})
	assert.False(t, n.EnoughInitialized())

	set(Coordinate{1, 0, 0})
	assert.False(t, n.EnoughInitialized())

	set(Coordinate{1, 1, 0})
	assert.True(t, n.EnoughInitialized())
}

func TestStepVectorSingleGradient(t *testing.T) {
	// only the first dimension improves the measurement
	nc := NeighborhoodConfig{Dimensions: twoDims(), Radius: 2, MinInitialized: 3}
	n := NewNeighborhood(nc, Coordinate{0, 0})

	n.Data().SetMeasurement(Coordinate{0, 0}, makeMeasurement(1, 5))
	n.Data().IncrementVisitCount(Coordinate{0, 0})
	n.Data().SetMeasurement(Coordinate{1, 0}, makeMeasurement(3, 5))
	n.Data().IncrementVisitCount(Coordinate{1, 0})
	n.Data().SetMeasurement(Coordinate{0, 1}, makeMeasurement(1, 5))
	n.Data().IncrementVisitCount(Coordinate{0, 1})

	assert.Equal(t, Coordinate{10, 0}, n.CalculateNewCoordinate(20, 0))
}

func TestStepVectorTwoGradients(t *testing.T) {
	nc := NeighborhoodConfig{Dimensions: twoDims(), Radius: 2, MinInitialized: 3}
	n := NewNeighborhood(nc, Coordinate{0, 0})

	n.Data().SetMeasurement(Coordinate{0, 0}, makeMeasurement(1, 5))
	n.Data().IncrementVisitCount(Coordinate{0, 0})
	n.Data().SetMeasurement(Coordinate{1, 0}, makeMeasurement(3, 5))
	n.Data().IncrementVisitCount(Coordinate{1, 0})
	n.Data().SetMeasurement(Coordinate{0, 1}, makeMeasurement(3, 5))
	n.Data().IncrementVisitCount(Coordinate{0, 1})

	// computed twice: no internal state may change
	assert.Equal(t, Coordinate{10, 10}, n.CalculateNewCoordinate(20, 0))
	assert.Equal(t, Coordinate{10, 10}, n.CalculateNewCoordinate(20, 0))
}

func TestStepVectorAllSameThroughput(t *testing.T) {
	// a flat neighborhood yields the zero step: the home stays
	nc := NeighborhoodConfig{Dimensions: threeDims(), Radius: 3, MinInitialized: 3}
	n := NewNeighborhood(nc, Coordinate{1, 1, 1})

	for _, c := range []Coordinate{{1, 1, 1}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		n.Data().SetMeasurement(c, makeMeasurement(10, 5))
		n.Data().IncrementVisitCount(c)
	}

	assert.Equal(t, Coordinate{1, 1, 1}, n.CalculateNewCoordinate(5, 0))
}

func TestCalculateNewCoordinateClampsToBounds(t *testing.T) {
	// raw step [8,-8] puts the candidate at [11,-2]; bounds are 2..7
	dims := &Dimensions{}
	dims.Add("m",
		NewBoundedDimension("foo", GrowthLinear, 2, 7),
		NewBoundedDimension("bar", GrowthExponential, 2, 7))

	nc := NeighborhoodConfig{Dimensions: dims, Radius: 8, MinInitialized: 3}
	n := NewNeighborhood(nc, Coordinate{3, 6})

	n.Data().SetMeasurement(Coordinate{3, 6}, makeMeasurement(1, 5))
	n.Data().IncrementVisitCount(Coordinate{3, 6})
	n.Data().SetMeasurement(Coordinate{4, 5}, makeMeasurement(3, 5))
	n.Data().IncrementVisitCount(Coordinate{4, 5})

	assert.Equal(t, Coordinate{7, 2}, n.CalculateNewCoordinate(8, 0))
}

func TestClipBoundsStepComponents(t *testing.T) {
	nc := NeighborhoodConfig{Dimensions: twoDims(), Radius: 5, MinInitialized: 1}
	n := NewNeighborhood(nc, Coordinate{0, 0})

	n.Data().SetMeasurement(Coordinate{0, 0}, makeMeasurement(1, 5))
	n.Data().IncrementVisitCount(Coordinate{0, 0})
	n.Data().SetMeasurement(Coordinate{1, 0}, makeMeasurement(5, 5))
	n.Data().IncrementVisitCount(Coordinate{1, 0})

	for _, clip := range []int{1, 2, 3} {
		candidate := n.CalculateNewCoordinate(40, clip)
		step, err := candidate.Sub(n.Home())
		require.NoError(t, err)
		for _, v := range step {
			assert.LessOrEqual(t, abs(v), clip)
		}
	}
}

func TestClipVectorPreservesDirection(t *testing.T) {
	// [10, 5] clips to [2, 1], not [2, 2]
	assert.Equal(t, Coordinate{2, 1}, clipVector(Coordinate{10, 5}, 2))
	assert.Equal(t, Coordinate{-2, 1}, clipVector(Coordinate{-10, 5}, 2))
	// below the bound nothing changes
	assert.Equal(t, Coordinate{2, 1}, clipVector(Coordinate{2, 1}, 2))
}

func TestStepTowardPassingNeighborsWhenHomeFails(t *testing.T) {
	// the home fails its latency ceiling, one neighbor passes: step
	// toward the passing neighbor with weight 1
	nc := NeighborhoodConfig{Dimensions: twoDims(), Radius: 3, MinInitialized: 1}
	n := NewNeighborhood(nc, Coordinate{2, 2})

	n.Data().SetMeasurement(Coordinate{2, 2}, makeConstrainedMeasurement(10, 50, 20))
	n.Data().IncrementVisitCount(Coordinate{2, 2})
	n.Data().SetMeasurement(Coordinate{1, 2}, makeConstrainedMeasurement(8, 10, 20))
	n.Data().IncrementVisitCount(Coordinate{1, 2})

	assert.Equal(t, Coordinate{0, 2}, n.CalculateNewCoordinate(2, 0))
}

func TestPickCoordinateToInitialize(t *testing.T) {
	nc := NeighborhoodConfig{Dimensions: twoDims(), Radius: 1, MinInitialized: 1}
	n := NewNeighborhood(nc, Coordinate{1, 1})
	// neighborhood: [0,1], [1,0], [1,1], [1,2], [2,1]

	c, ok := n.PickCoordinateToInitialize()
	require.True(t, ok)
	// nothing visited: all values uncovered, first coordinate wins the tie
	assert.Equal(t, Coordinate{0, 1}, c)

	n.Data().SetMeasurement(c, makeMeasurement(1, 1))
	n.Data().IncrementVisitCount(c)

	// covered: {0} in dim 0, {1} in dim 1. [1,0] and [1,2] both cover
	// two new values; the earlier coordinate wins the tie.
	c, ok = n.PickCoordinateToInitialize()
	require.True(t, ok)
	assert.Equal(t, Coordinate{1, 0}, c)
}

func TestPickCoordinateToInitializeExhausted(t *testing.T) {
	nc := NeighborhoodConfig{Dimensions: twoDims(), Radius: 1, MinInitialized: 1}
	n := NewNeighborhood(nc, Coordinate{0, 0})

	for _, c := range n.Coordinates() {
		n.Data().IncrementVisitCount(c)
	}

	_, ok := n.PickCoordinateToInitialize()
	assert.False(t, ok)
}

func TestNearestNeighbor(t *testing.T) {
	nc := NeighborhoodConfig{Dimensions: twoDims(), Radius: 1, MinInitialized: 1}
	n := NewNeighborhood(nc, Coordinate{1, 1})

	c, ok := n.NearestNeighbor(Coordinate{5, 1})
	require.True(t, ok)
	assert.Equal(t, Coordinate{2, 1}, c)

	// a coordinate inside the neighborhood is its own nearest neighbor
	c, ok = n.NearestNeighbor(Coordinate{1, 2})
	require.True(t, ok)
	assert.Equal(t, Coordinate{1, 2}, c)
}

func TestSeedVisits(t *testing.T) {
	global := NewCoordinateData()
	global.IncrementVisitCount(Coordinate{1, 0})
	global.IncrementVisitCount(Coordinate{1, 0})
	global.IncrementVisitCount(Coordinate{9, 9})

	nc := NeighborhoodConfig{Dimensions: twoDims(), Radius: 1, MinInitialized: 1}
	n := NewNeighborhood(nc, Coordinate{1, 1})
	n.SeedVisits(global)

	assert.Equal(t, 2, n.Data().GetVisitCount(Coordinate{1, 0}))
	// outside the neighborhood nothing is seeded
	assert.Equal(t, 0, n.Data().GetVisitCount(Coordinate{9, 9}))
}
