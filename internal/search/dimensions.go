// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package search

import "fmt"

// Dimensions is an ordered sequence of dimensions, each associated with
// an opaque key (typically the model name the dimension belongs to).
type Dimensions struct {
	dims []Dimension
	keys []string
}

// Add appends dimensions and associates all of them with key.
func (ds *Dimensions) Add(key string, dims ...Dimension) {
	for _, d := range dims {
		ds.dims = append(ds.dims, d)
		ds.keys = append(ds.keys, key)
	}
}

func (ds *Dimensions) Len() int {
	return len(ds.dims)
}

// At returns the dimension at index i.
func (ds *Dimensions) At(i int) Dimension {
	return ds.dims[i]
}

// Key returns the key associated with the dimension at index i.
func (ds *Dimensions) Key(i int) string {
	return ds.keys[i]
}

// MinIndexes returns the coordinate built from every dimension's minimum
// index. This is the starting point of a search.
func (ds *Dimensions) MinIndexes() Coordinate {
	c := make(Coordinate, ds.Len())
	for i, d := range ds.dims {
		c[i] = d.MinIdx
	}
	return c
}

// ValuesFor maps a coordinate to the dimension values it selects,
// grouped by the dimensions' keys: ret[key][dimension name] = value.
func (ds *Dimensions) ValuesFor(c Coordinate) (map[string]map[string]int, error) {
	if len(c) != ds.Len() {
		return nil, fmt.Errorf("%w: coordinate has %d entries, %d dimensions",
			ErrDimensionMismatch, len(c), ds.Len())
	}

	vals := make(map[string]map[string]int)
	for i, idx := range c {
		key := ds.keys[i]
		if vals[key] == nil {
			vals[key] = make(map[string]int)
		}

		v, err := ds.dims[i].ValueAt(idx)
		if err != nil {
			return nil, err
		}
		vals[key][ds.dims[i].Name] = v
	}
	return vals, nil
}
