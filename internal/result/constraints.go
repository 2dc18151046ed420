// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package result

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Constraint bounds a single metric. Min expresses a "the metric must be
// at least" requirement, Max a ceiling. Both may be set.
type Constraint struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Constraints maps metric names to their bounds.
type Constraints map[string]Constraint

// Pass checks all bounds against the metric values provided by lookup.
// Constraints on metrics the lookup cannot resolve are skipped.
func (cs Constraints) Pass(lookup func(string) (float64, bool)) bool {
	for name, c := range cs {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if c.Max != nil && v > *c.Max {
			return false
		}
		if c.Min != nil && v < *c.Min {
			return false
		}
	}
	return true
}

// Excess returns the summed relative violation of all bounds: for a
// ceiling b the term is max(0, a-b)/b, for a floor max(0, b-a)/b. A
// passing metric contributes zero.
func (cs Constraints) Excess(lookup func(string) (float64, bool)) float64 {
	total := 0.0
	for name, c := range cs {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if c.Max != nil && *c.Max != 0 {
			total += max(0, v-*c.Max) / *c.Max
		}
		if c.Min != nil && *c.Min != 0 {
			total += max(0, *c.Min-v) / *c.Min
		}
	}
	return total
}

var exprCache sync.Map // expression string -> *vm.Program

// evalConstraintExpression evaluates a user-defined boolean constraint
// expression against the metric environment. Compiled programs are
// cached per expression string.
func evalConstraintExpression(expression string, env map[string]any) (bool, error) {
	var program *vm.Program
	if cached, ok := exprCache.Load(expression); ok {
		program = cached.(*vm.Program)
	} else {
		compiled, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
		if err != nil {
			return false, err
		}
		exprCache.Store(expression, compiled)
		program = compiled
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	pass, ok := out.(bool)
	return ok && pass, nil
}
