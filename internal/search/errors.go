// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package search

import "errors"

var (
	// ErrDimensionMismatch is returned when a coordinate's length does not
	// match the number of dimensions it is used against.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexOutOfRange is returned when a dimension value is requested
	// outside of the dimension's index bounds.
	ErrIndexOutOfRange = errors.New("index out of range")
)
