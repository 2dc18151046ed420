// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import "flag"

var (
	flagServer, flagGops, flagVersion, flagLogDateTime bool
	flagConfigFile, flagLogLevel, flagCheckpointScope  string
)

func cliInit() {
	flag.BoolVar(&flagServer, "server", false, "Serve the status/results API while profiling")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.BoolVar(&flagVersion, "version", false, "Show version information and exit")
	flag.BoolVar(&flagLogDateTime, "logdate", false, "Set this flag to add date and time to log messages")
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Specify alternative path to `config.json`")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "Sets the logging level: `[debug, info (default), warn, err, crit]`")
	flag.StringVar(&flagCheckpointScope, "checkpoint-scope", "", "Override the checkpoint file name `scope` (defaults to the profiled model names)")
	flag.Parse()
}
