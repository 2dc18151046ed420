// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api serves the status and results of a profiling run over
// HTTP: search progress, the best configuration found, and the ranked
// measurements from the repository, plus the prometheus metrics.
package api

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/config"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/profile"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/repository"
)

// RestAPI exposes the search state. With a configured public key, all
// /api routes require an EdDSA-signed bearer token.
type RestAPI struct {
	Search *profile.RunSearch
	Repo   *repository.ResultRepository

	jwtPublicKey ed25519.PublicKey
	limiter      *rate.Limiter
}

func New(search *profile.RunSearch, repo *repository.ResultRepository, cfg *config.APIConfig) (*RestAPI, error) {
	api := &RestAPI{
		Search:  search,
		Repo:    repo,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}

	if cfg != nil {
		if cfg.JwtPublicKey != "" {
			raw, err := base64.StdEncoding.DecodeString(cfg.JwtPublicKey)
			if err != nil {
				return nil, fmt.Errorf("decode jwt-public-key: %w", err)
			}
			if len(raw) != ed25519.PublicKeySize {
				return nil, fmt.Errorf("jwt-public-key: expected %d bytes, got %d", ed25519.PublicKeySize, len(raw))
			}
			api.jwtPublicKey = ed25519.PublicKey(raw)
		}
		if cfg.RequestsPerSecond > 0 {
			api.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
		}
	}

	return api, nil
}

func (api *RestAPI) MountRoutes(r *mux.Router) {
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	secured := r.PathPrefix("/api").Subrouter()
	secured.Use(api.rateLimit, api.authenticate)
	secured.HandleFunc("/status", api.getStatus).Methods(http.MethodGet)
	secured.HandleFunc("/best", api.getBest).Methods(http.MethodGet)
	secured.HandleFunc("/results", api.getResults).Methods(http.MethodGet)
}

func (api *RestAPI) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !api.limiter.Allow() {
			handleError(fmt.Errorf("too many requests"), http.StatusTooManyRequests, rw)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

func (api *RestAPI) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if api.jwtPublicKey == nil {
			next.ServeHTTP(rw, r)
			return
		}

		rawtoken := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if rawtoken == "" {
			handleError(fmt.Errorf("no bearer token"), http.StatusUnauthorized, rw)
			return
		}

		token, err := jwt.Parse(rawtoken, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodEdDSA {
				return nil, fmt.Errorf("only EdDSA tokens are accepted")
			}
			return api.jwtPublicKey, nil
		}, jwt.WithValidMethods([]string{"EdDSA"}))
		if err != nil || !token.Valid {
			handleError(fmt.Errorf("invalid token"), http.StatusUnauthorized, rw)
			return
		}

		next.ServeHTTP(rw, r)
	})
}

func (api *RestAPI) getStatus(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, api.Search.Status())
}

func (api *RestAPI) getBest(rw http.ResponseWriter, r *http.Request) {
	best, bestConfig := api.Search.Best()
	if best == nil {
		handleError(fmt.Errorf("no passing configuration yet"), http.StatusNotFound, rw)
		return
	}

	writeJSON(rw, map[string]any{
		"config":      bestConfig,
		"fingerprint": bestConfig.Fingerprint(),
		"measurement": best,
	})
}

func (api *RestAPI) getResults(rw http.ResponseWriter, r *http.Request) {
	if api.Repo == nil {
		handleError(fmt.Errorf("measurement database disabled"), http.StatusNotImplemented, rw)
		return
	}

	n := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			handleError(fmt.Errorf("invalid limit %q", raw), http.StatusBadRequest, rw)
			return
		}
		n = parsed
	}

	rows, err := api.Repo.Best(r.URL.Query().Get("model"), n)
	if err != nil {
		handleError(err, http.StatusInternalServerError, rw)
		return
	}
	writeJSON(rw, rows)
}

func writeJSON(rw http.ResponseWriter, val any) {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(val); err != nil {
		cclog.Warnf("encode response: %v", err)
	}
}

func handleError(err error, statusCode int, rw http.ResponseWriter) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(map[string]string{"error": err.Error()})
}
