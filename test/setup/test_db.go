/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
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

// Package setup starts a disposable Postgres for tests that need a real database.
package setup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wso2/record-deduplication-service/internal/system/database/migrations"
)

// SkipEnv disables the container backed tests when set to any value.
const SkipEnv = "DDS_SKIP_DB_TESTS"

var tables = []string{
	"record_activities", "record_audit_logs", "record_attachments", "record_emails", "record_tasks",
	"record_notes", "record_relationships", "duplicate_scan_checkpoints", "merge_logs",
	"duplicate_candidates", "duplicate_rules", "records", "datasets",
}

// TestDatabase contains the running container and DB connection
type TestDatabase struct {
	Container *postgres.PostgresContainer
	DB        *sql.DB
}

var (
	sharedOnce sync.Once
	sharedDB   *TestDatabase
	sharedErr  error
)

// SetupTestDB spins up a Postgres container and applies the migrations.
func SetupTestDB(ctx context.Context) (*TestDatabase, error) {
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	if _, err := migrations.Run(ctx, db, migrations.Options{}); err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &TestDatabase{
		Container: container,
		DB:        db,
	}, nil
}

// RequireTestDB returns a database shared by the tests of one package. The test is skipped
// in short mode, when DDS_SKIP_DB_TESTS is set or when no container runtime is available.
// The container is reaped by testcontainers once the test binary exits.
func RequireTestDB(t *testing.T) *TestDatabase {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	if os.Getenv(SkipEnv) != "" {
		t.Skipf("skipping database test, %s is set", SkipEnv)
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	sharedOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		sharedDB, sharedErr = SetupTestDB(ctx)
	})
	if sharedErr != nil {
		t.Skipf("postgres container unavailable: %v", sharedErr)
	}
	return sharedDB
}

// Truncate empties every table and restarts the id sequences.
func (td *TestDatabase) Truncate(t *testing.T) {
	t.Helper()

	_, err := td.DB.Exec("TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
