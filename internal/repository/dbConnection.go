// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package repository persists completed measurements in a sqlite
// database so finished and resumed runs can be inspected and ranked
// after the fact.
package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"
)

var (
	dbConnOnce     sync.Once
	dbConnInstance *DBConnection
)

type DBConnection struct {
	DB *sqlx.DB
}

// Connect opens the sqlite database, running migrations first. The
// connection is a process-wide singleton.
func Connect(db string) error {
	var connErr error

	dbConnOnce.Do(func() {
		sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, &Hooks{}))

		if err := os.MkdirAll(filepath.Dir(db), 0o750); err != nil {
			connErr = err
			return
		}

		if err := MigrateDB(db); err != nil {
			connErr = err
			return
		}

		dbHandle, err := sqlx.Open("sqlite3WithHooks", fmt.Sprintf("%s?_foreign_keys=on", db))
		if err != nil {
			connErr = err
			return
		}

		// sqlite does not multithread; more than one open connection
		// would only wait on locks.
		dbHandle.SetMaxOpenConns(1)

		dbConnInstance = &DBConnection{DB: dbHandle}
	})

	return connErr
}

// GetConnection returns the singleton database connection.
func GetConnection() *DBConnection {
	if dbConnInstance == nil {
		cclog.Fatal("database connection not initialized")
	}
	return dbConnInstance
}
