// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"net/http"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/api"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/config"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/profile"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/repository"
)

// serveAPI starts the status/results HTTP server and returns its
// shutdown function.
func serveAPI(runSearch *profile.RunSearch, repo *repository.ResultRepository) func() {
	restAPI, err := api.New(runSearch, repo, config.Keys.API)
	if err != nil {
		cclog.Fatal(err)
	}

	r := mux.NewRouter()
	restAPI.MountRoutes(r)

	server := &http.Server{
		Addr:         config.Keys.Addr,
		Handler:      handlers.CompressHandler(handlers.RecoveryHandler()(r)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		cclog.Infof("serving status API on %s", config.Keys.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cclog.Errorf("status API: %s", err.Error())
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			cclog.Warnf("status API shutdown: %v", err)
		}
	}
}
