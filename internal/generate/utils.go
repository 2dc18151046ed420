// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package generate

// DoubledList generates values from minValue to maxValue, doubling each
// step. A minValue of 0 starts at 1.
func DoubledList(minValue, maxValue int) []int {
	var out []int
	v := minValue
	if v == 0 {
		v = 1
	}
	for v <= maxValue {
		out = append(out, v)
		v *= 2
	}
	return out
}

// product enumerates the Cartesian product of the given lists in
// odometer order (last list fastest). An empty input yields one empty
// combination.
func product[T any](lists [][]T) [][]T {
	for _, l := range lists {
		if len(l) == 0 {
			return nil
		}
	}

	out := [][]T{}
	idx := make([]int, len(lists))
	for {
		combo := make([]T, len(lists))
		for i, j := range idx {
			combo[i] = lists[i][j]
		}
		out = append(out, combo)

		i := len(lists) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(lists[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return out
}
