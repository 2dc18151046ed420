// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package runtimeEnv contains process-level setup helpers used by the
// entrypoint.
package runtimeEnv

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
)

// LoadEnv reads a dotenv file into the process environment. A missing
// file is reported via os.IsNotExist.
func LoadEnv(file string) error {
	if _, err := os.Stat(file); err != nil {
		return err
	}
	return godotenv.Load(file)
}

// SystemdNotifiy informs systemd that we are running, if started via
// systemd: https://www.freedesktop.org/software/systemd/man/sd_notify.html
func SystemdNotifiy(ready bool, status string) {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		// Not started using systemd
		return
	}

	args := []string{fmt.Sprintf("--pid=%d", os.Getpid())}
	if ready {
		args = append(args, "--ready")
	}
	if status != "" {
		args = append(args, fmt.Sprintf("--status=%s", status))
	}

	cmd := exec.Command("systemd-notify", args...)
	cmd.Run() // errors ignored on purpose, there is not much to do anyways.
}
