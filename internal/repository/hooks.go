// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package repository

import (
	"context"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

// Hooks logs every query with its execution time.
type Hooks struct{}

type ctxKeyStart struct{}

func (h *Hooks) Before(ctx context.Context, query string, args ...any) (context.Context, error) {
	cclog.Debugf("SQL query %s %q", query, args)
	return context.WithValue(ctx, ctxKeyStart{}, time.Now()), nil
}

func (h *Hooks) After(ctx context.Context, query string, args ...any) (context.Context, error) {
	if begin, ok := ctx.Value(ctxKeyStart{}).(time.Time); ok {
		cclog.Debugf("took: %s", time.Since(begin))
	}
	return ctx, nil
}
