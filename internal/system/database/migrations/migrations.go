/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package migrations applies the embedded SQL schema with golang-migrate.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

const defaultMigrationsTable = "dds_schema_migrations"

// Options control a migration run.
type Options struct {
	// Version migrates to the given version instead of the latest one.
	Version uint
	// MigrationsTable overrides the version bookkeeping table.
	MigrationsTable string
}

// Result describes the schema version before and after a run.
type Result struct {
	PreviousVersion uint
	CurrentVersion  uint
	Changed         bool
}

// migrationLogger forwards golang-migrate output to the service logger.
type migrationLogger struct {
	logger *log.Logger
}

func (l migrationLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrationLogger) Verbose() bool {
	return l.logger.DebugEnabled()
}

// Run applies the embedded migrations on db. An up-to-date schema is not an error.
func Run(ctx context.Context, db *sql.DB, opts Options) (*Result, error) {

	logger := log.GetLogger()
	table := opts.MigrationsTable
	if table == "" {
		table = defaultMigrationsTable
	}

	source, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open embedded migrations")
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to obtain a connection for migrations")
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: table})
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to create migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to create migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator cleanly", log.Any("source_error", srcErr),
				log.Any("database_error", dbErr))
		}
	}()
	m.Log = migrationLogger{logger: logger}

	previous, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, errors.Wrap(err, "failed to read current migration version")
	}
	if dirty {
		return nil, fmt.Errorf("database schema is dirty at version %d", previous)
	}

	startTime := time.Now()
	if opts.Version != 0 {
		err = m.Migrate(opts.Version)
	} else {
		err = m.Up()
	}

	result := &Result{PreviousVersion: previous}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Database migrations failed", log.Error(err))
		return nil, errors.Wrap(err, "failed to apply migrations")
	}

	current, _, verErr := m.Version()
	if verErr != nil && !errors.Is(verErr, migrate.ErrNilVersion) {
		return nil, errors.Wrap(verErr, "failed to read migration version")
	}
	result.CurrentVersion = current
	result.Changed = current != previous

	if result.Changed {
		logger.Info(fmt.Sprintf("Database migrated from version %d to %d in %v", previous, current,
			time.Since(startTime)))
	} else {
		logger.Info("No new migrations to apply", log.Any("version", current))
	}
	return result, nil
}
