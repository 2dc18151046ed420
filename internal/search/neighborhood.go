// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package search

import (
	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/result"
)

// Neighborhood is the set of coordinates within a Euclidean radius of a
// home coordinate, clamped to the dimension bounds. It owns its own
// CoordinateData and is replaced wholesale when the home moves.
type Neighborhood struct {
	cfg    NeighborhoodConfig
	home   Coordinate
	coords []Coordinate
	data   *CoordinateData
}

func NewNeighborhood(cfg NeighborhoodConfig, home Coordinate) *Neighborhood {
	n := &Neighborhood{
		cfg:  cfg,
		home: home.Clone(),
		data: NewCoordinateData(),
	}
	n.coords = n.enumerate()
	return n
}

func (n *Neighborhood) Home() Coordinate {
	return n.home
}

func (n *Neighborhood) Data() *CoordinateData {
	return n.data
}

// Coordinates returns all coordinates in the neighborhood, in
// enumeration order.
func (n *Neighborhood) Coordinates() []Coordinate {
	return n.coords
}

// SeedVisits copies the visit counts of all neighborhood coordinates
// from global. Measurements are not carried over.
func (n *Neighborhood) SeedVisits(global *CoordinateData) {
	for _, c := range n.coords {
		for i := n.data.GetVisitCount(c); i < global.GetVisitCount(c); i++ {
			n.data.IncrementVisitCount(c)
		}
	}
}

// enumerate lists all lattice points of the bounding hypercube around
// the home that lie within the radius and the dimension bounds.
func (n *Neighborhood) enumerate() []Coordinate {
	dims := n.cfg.Dimensions
	lo := make([]int, dims.Len())
	hi := make([]int, dims.Len())
	for i := 0; i < dims.Len(); i++ {
		d := dims.At(i)
		lo[i] = max(d.MinIdx, n.home[i]-n.cfg.Radius)
		hi[i] = min(d.MaxIdx, n.home[i]+n.cfg.Radius)
	}

	var out []Coordinate
	cur := make(Coordinate, dims.Len())
	copy(cur, lo)
	for {
		c := cur.Clone()
		if Distance(c, n.home) <= float64(n.cfg.Radius) {
			out = append(out, c)
		}

		// odometer increment, last dimension fastest
		i := dims.Len() - 1
		for ; i >= 0; i-- {
			cur[i]++
			if cur[i] <= hi[i] {
				break
			}
			cur[i] = lo[i]
		}
		if i < 0 {
			break
		}
	}
	return out
}

// EnoughInitialized reports whether at least MinInitialized neighborhood
// coordinates (home excluded) have a valid measurement.
func (n *Neighborhood) EnoughInitialized() bool {
	count := 0
	for _, c := range n.coords {
		if c.Equals(n.home) {
			continue
		}
		if n.data.HasValidMeasurement(c) {
			count++
		}
	}
	return count >= n.cfg.MinInitialized
}

// PickCoordinateToInitialize returns the unvisited coordinate covering
// the most values not yet seen in any dimension, maximizing information
// per measurement. Ties go to enumeration order. The second return is
// false when every coordinate has been visited.
func (n *Neighborhood) PickCoordinateToInitialize() (Coordinate, bool) {
	covered := n.coveredValuesPerDimension()

	best := Coordinate(nil)
	bestUncovered := -1
	for _, c := range n.coords {
		if n.data.GetVisitCount(c) > 0 {
			continue
		}
		uncovered := 0
		for i, v := range c {
			if !covered[i][v] {
				uncovered++
			}
		}
		if uncovered > bestUncovered {
			bestUncovered = uncovered
			best = c
		}
	}
	return best, best != nil
}

func (n *Neighborhood) coveredValuesPerDimension() []map[int]bool {
	covered := make([]map[int]bool, n.cfg.Dimensions.Len())
	for i := range covered {
		covered[i] = make(map[int]bool)
	}
	for _, c := range n.visited() {
		for i, v := range c {
			covered[i][v] = true
		}
	}
	return covered
}

// NearestNeighbor returns the neighborhood coordinate closest to c.
func (n *Neighborhood) NearestNeighbor(c Coordinate) (Coordinate, bool) {
	var nearest Coordinate
	minDist := 0.0
	for _, nc := range n.coords {
		d := Distance(nc, c)
		if nearest == nil || d < minDist {
			nearest = nc
			minDist = d
		}
	}
	return nearest, nearest != nil
}

// CalculateNewCoordinate determines the next home candidate from the
// collected neighborhood measurements. The step vector is scaled by
// magnitude, rounded, optionally clipped so that no component exceeds
// clipValue in absolute value (clipValue <= 0 disables clipping), added
// to the home and clamped to the dimension bounds.
func (n *Neighborhood) CalculateNewCoordinate(magnitude float64, clipValue int) Coordinate {
	step := n.stepVector().Scale(magnitude).Round()
	cclog.Debugf("step vector: %v", step)

	if clipValue > 0 {
		step = clipVector(step, clipValue)
		cclog.Debugf("clipped step vector: %v", step)
	}

	candidate, _ := n.home.Add(step)
	return n.clamp(candidate)
}

// clipVector rescales the vector so its largest absolute component
// equals clipValue, approximately preserving direction. Rounding at the
// end can bend the direction slightly.
func clipVector(v Coordinate, clipValue int) Coordinate {
	maxAbs := 0
	for _, x := range v {
		if a := abs(x); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs <= clipValue || maxAbs == 0 {
		return v
	}

	out := make(Coordinate, len(v))
	for i, x := range v {
		out[i] = roundHalfAwayFromZero(float64(clipValue) * float64(x) / float64(maxAbs))
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (n *Neighborhood) clamp(c Coordinate) Coordinate {
	out := c.Clone()
	for i := range out {
		d := n.cfg.Dimensions.At(i)
		out[i] = min(d.MaxIdx, out[i])
		out[i] = max(d.MinIdx, out[i])
	}
	return out
}

// stepVector computes the direction to move from the home coordinate.
// While the home passes its constraints the direction follows the
// objectives; otherwise it points toward the region that passes the
// constraints.
func (n *Neighborhood) stepVector() Vector {
	vectors, measurements := n.passingMeasurements()
	home := n.data.GetMeasurement(n.home)

	if home != nil && home.IsPassingConstraints() {
		cclog.Debug("home coordinate passed constraints")
		return n.optimizeForBetterObjectives(home, vectors, measurements)
	}

	cclog.Debug("home coordinate failed constraints")
	return n.optimizeForPassingConstraints(home, vectors, measurements)
}

// optimizeForBetterObjectives averages the vectors toward passing
// neighbors, each weighted by the comparison against the home. With no
// passing neighbor there is no gradient and the zero vector is returned.
func (n *Neighborhood) optimizeForBetterObjectives(
	home *result.RunConfigMeasurement,
	vectors []Coordinate,
	measurements []*result.RunConfigMeasurement,
) Vector {
	step := make(Vector, n.cfg.Dimensions.Len())
	if len(vectors) == 0 {
		cclog.Debug("no neighbors passing constraints, zero step vector")
		return step
	}

	for i, vec := range vectors {
		weight := float64(measurements[i].CompareTo(home))
		step = step.AddVec(vec.Vector().Scale(weight))
	}
	return step.Scale(1.0 / float64(len(vectors)))
}

// optimizeForPassingConstraints steps toward passing neighbors with
// weight 1.0 each. When no neighbor passes, it falls back to all visited
// neighbors, weighted by how their constraint failure compares to the
// home's.
func (n *Neighborhood) optimizeForPassingConstraints(
	home *result.RunConfigMeasurement,
	vectors []Coordinate,
	measurements []*result.RunConfigMeasurement,
) Vector {
	step := make(Vector, n.cfg.Dimensions.Len())

	if len(vectors) == 0 {
		vectors, measurements = n.allVisitedMeasurements()
		if len(vectors) == 0 {
			return step
		}
	}

	for i, vec := range vectors {
		weight := 1.0
		if !measurements[i].IsPassingConstraints() && home != nil {
			weight = home.CompareConstraints(measurements[i])
		}
		step = step.AddVec(vec.Vector().Scale(weight))
	}
	return step.Scale(1.0 / float64(len(vectors)))
}

// visited returns all visited neighborhood coordinates except the home.
func (n *Neighborhood) visited() []Coordinate {
	var out []Coordinate
	for _, c := range n.coords {
		if !c.Equals(n.home) && n.data.GetVisitCount(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// allVisitedMeasurements pairs every visited neighbor that has a valid
// measurement with its vector from the home.
func (n *Neighborhood) allVisitedMeasurements() ([]Coordinate, []*result.RunConfigMeasurement) {
	var vectors []Coordinate
	var measurements []*result.RunConfigMeasurement
	for _, c := range n.visited() {
		m := n.data.GetMeasurement(c)
		if m == nil {
			continue
		}
		vec, _ := c.Sub(n.home)
		vectors = append(vectors, vec)
		measurements = append(measurements, m)
	}
	return vectors, measurements
}

// passingMeasurements is like allVisitedMeasurements but keeps only
// measurements passing their constraints.
func (n *Neighborhood) passingMeasurements() ([]Coordinate, []*result.RunConfigMeasurement) {
	var vectors []Coordinate
	var measurements []*result.RunConfigMeasurement
	for _, c := range n.visited() {
		m := n.data.GetMeasurement(c)
		if m == nil || !m.IsPassingConstraints() {
			continue
		}
		vec, _ := c.Sub(n.home)
		vectors = append(vectors, vec)
		measurements = append(measurements, m)
	}
	return vectors, measurements
}
