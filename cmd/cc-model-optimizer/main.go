// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/google/gops/agent"

	"github.com/ClusterCockpit/cc-model-optimizer/internal/config"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/generate"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/profile"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/repository"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/state"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/taskmanager"
	"github.com/ClusterCockpit/cc-model-optimizer/internal/telemetry"
	"github.com/ClusterCockpit/cc-model-optimizer/pkg/runtimeEnv"
)

const version = "1.0.0"

// signalGracePeriod is the window in which a second interrupt aborts
// immediately, without the final checkpoint.
const signalGracePeriod = 10 * time.Second

func main() {
	cliInit()

	if flagVersion {
		fmt.Printf("cc-model-optimizer %s\n", version)
		os.Exit(0)
	}

	cclog.Init(flagLogLevel, flagLogDateTime)

	// See https://github.com/google/gops (runtime overhead is almost zero)
	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			cclog.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if err := runtimeEnv.LoadEnv("./.env"); err != nil && !os.IsNotExist(err) {
		cclog.Fatalf("parsing './.env' file failed: %s", err.Error())
	}

	if err := config.Init(flagConfigFile); err != nil {
		cclog.Fatal(err)
	}
	if len(config.Keys.Models) == 0 {
		cclog.Fatal("no models configured under profile_models")
	}

	if err := repository.Connect(config.Keys.DB); err != nil {
		cclog.Fatalf("open measurement database: %s", err.Error())
	}

	stateMgr, mirror := setupState()

	var collector *telemetry.Collector
	if config.Keys.Nats != nil {
		var err error
		if collector, err = telemetry.Connect(config.Keys.Nats); err != nil {
			cclog.Fatal(err)
		}
		defer collector.Close()
	}

	gen, err := generate.NewRunConfigGenerator(&config.Keys)
	if err != nil {
		cclog.Fatal(err)
	}

	profiler := profile.NewPerfAnalyzerProfiler(
		config.Keys.PerfAnalyzerPath, nil, collector, config.Keys.Models)
	repo := repository.NewResultRepository()
	runSearch := profile.NewRunSearch(gen, profiler, stateMgr, repo)

	if interval, err := time.ParseDuration(config.Keys.CheckpointInterval); err == nil {
		taskmanager.RegisterCheckpointService(stateMgr, interval)
	} else {
		cclog.Warnf("invalid checkpoint_interval: %v", err)
	}
	taskmanager.Start()
	defer taskmanager.Shutdown()

	var apiShutdown func()
	if flagServer {
		apiShutdown = serveAPI(runSearch, repo)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(stateMgr)

	runtimeEnv.SystemdNotifiy(true, "profiling")

	if err := runSearch.Run(ctx); err != nil {
		cclog.Errorf("run search: %s", err.Error())
	}

	if mirror != nil {
		if err := mirror.Upload(context.Background(), stateMgr); err != nil {
			cclog.Warnf("checkpoint mirror upload: %v", err)
		}
	}

	if apiShutdown != nil {
		apiShutdown()
	}
}

// setupState builds the checkpoint manager, seeding the local file from
// the S3 mirror when one is configured, and loads the previous state.
func setupState() (*state.Manager, *state.S3Mirror) {
	scope := flagCheckpointScope
	if scope == "" {
		names := make([]string, len(config.Keys.Models))
		for i, m := range config.Keys.Models {
			names[i] = m.Name
		}
		scope = strings.Join(names, "-")
	}

	interval, err := time.ParseDuration(config.Keys.CheckpointInterval)
	if err != nil {
		interval = 2 * time.Minute
	}
	stateMgr := state.NewManager(config.Keys.CheckpointDir, scope, interval)

	var mirror *state.S3Mirror
	if cfg := config.Keys.CheckpointS3; cfg != nil {
		if mirror, err = state.NewS3Mirror(state.S3MirrorConfig{
			Endpoint:     cfg.Endpoint,
			Bucket:       cfg.Bucket,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			Region:       cfg.Region,
			UsePathStyle: cfg.UsePathStyle,
			Prefix:       cfg.Prefix,
		}); err != nil {
			cclog.Fatal(err)
		}
		if err := mirror.Download(context.Background(), stateMgr); err != nil {
			cclog.Warnf("checkpoint mirror download: %v", err)
		}
	}

	if err := stateMgr.Load(); err != nil {
		cclog.Fatalf("load checkpoint: %s", err.Error())
	}
	return stateMgr, mirror
}

// handleSignals requests a graceful exit on the first interrupt and
// aborts immediately on a second one within the grace period.
func handleSignals(stateMgr *state.Manager) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs
	cclog.Info("interrupt received, finishing current measurement (interrupt again to abort)")
	stateMgr.RequestExit()
	first := time.Now()

	sig := <-sigs
	if time.Since(first) < signalGracePeriod {
		cclog.Warnf("second %s within grace period, aborting without final checkpoint", sig)
		os.Exit(1)
	}
}
