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

package provider

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/wso2/record-deduplication-service/internal/system/config"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
)

const postgresDBType = "postgres"

// DBConfig represents the local database configuration.
type DBConfig struct {
	dsn        string
	driverName string
}

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient() (client.DBClientInterface, error)
	GetDBType() string
}

// DBProvider is the implementation of DBProviderInterface. All providers share one
// connection pool, opened on first use.
type DBProvider struct{}

var (
	pool     *sql.DB
	poolErr  error
	poolOnce sync.Once
	poolMu   sync.Mutex
)

// NewDBProvider creates a new instance of DBProvider.
func NewDBProvider() DBProviderInterface {

	return &DBProvider{}
}

// GetDBClient returns a database client over the shared pool.
func (d *DBProvider) GetDBClient() (client.DBClientInterface, error) {

	poolOnce.Do(func() {
		runtimeConfig := config.GetDDSRuntime().Config
		dbConfig := getDBConfig(runtimeConfig)

		db, err := sql.Open(dbConfig.driverName, dbConfig.dsn)
		if err != nil {
			poolErr = fmt.Errorf("failed to connect to database: %v", err)
			return
		}
		if runtimeConfig.DataSource.MaxOpenConns > 0 {
			db.SetMaxOpenConns(runtimeConfig.DataSource.MaxOpenConns)
		}
		if runtimeConfig.DataSource.MaxIdleConns > 0 {
			db.SetMaxIdleConns(runtimeConfig.DataSource.MaxIdleConns)
		}

		// Test the database connection.
		if err := db.Ping(); err != nil {
			_ = db.Close()
			poolErr = fmt.Errorf("failed to ping database: %v", err)
			return
		}
		poolMu.Lock()
		pool = db
		poolMu.Unlock()
	})
	if poolErr != nil {
		return nil, poolErr
	}

	poolMu.Lock()
	defer poolMu.Unlock()
	return client.NewDBClient(pool), nil
}

// GetDBType returns the key used to pick dialect specific queries from the scripts package.
func (d *DBProvider) GetDBType() string {

	return postgresDBType
}

// ClosePool closes the shared pool. It is called once on shutdown.
func ClosePool() error {

	poolMu.Lock()
	defer poolMu.Unlock()
	if pool == nil {
		return nil
	}
	err := pool.Close()
	pool = nil
	return err
}

// getDBConfig returns the database configuration based on the provided data source.
func getDBConfig(dataSource config.Config) DBConfig {

	var dbConfig DBConfig

	dbConfig.driverName = "postgres"
	dbConfig.dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dataSource.DataSource.Hostname, dataSource.DataSource.Port, dataSource.DataSource.Username,
		dataSource.DataSource.Password, dataSource.DataSource.Name, dataSource.DataSource.SSLMode)

	return dbConfig
}

// StaticDBProvider serves clients over a pool supplied by the caller, such as a test container.
type StaticDBProvider struct {
	db *sql.DB
}

// NewStaticDBProvider wraps an already opened pool.
func NewStaticDBProvider(db *sql.DB) DBProviderInterface {

	return &StaticDBProvider{db: db}
}

func (s *StaticDBProvider) GetDBClient() (client.DBClientInterface, error) {

	return client.NewDBClient(s.db), nil
}

func (s *StaticDBProvider) GetDBType() string {

	return postgresDBType
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx client.Executor) error) error
}

type providerTxRunner struct {
	dbProvider DBProviderInterface
}

// NewTxRunner returns a TxRunner that opens transactions on the provider's pool.
func NewTxRunner(dbProvider DBProviderInterface) TxRunner {

	return &providerTxRunner{dbProvider: dbProvider}
}

func (r *providerTxRunner) RunInTx(ctx context.Context, fn func(tx client.Executor) error) error {

	dbClient, err := r.dbProvider.GetDBClient()
	if err != nil {
		return err
	}
	return client.RunInTransaction(ctx, dbClient, fn)
}
