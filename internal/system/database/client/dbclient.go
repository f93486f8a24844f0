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

package client

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/lib/pq"
)

// Executor is the subset of database operations shared by *sql.DB, *sql.Tx and DBClient.
// Store functions that must take part in a caller's transaction accept an Executor.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// DBClientInterface defines the interface for database operations.
type DBClientInterface interface {
	Executor
	ExecuteQuery(query string, args ...interface{}) ([]map[string]interface{}, error)
	ExecuteQueryContext(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	BeginTx(ctx context.Context) (*sql.Tx, error)
	DB() *sql.DB
	Close() error
}

// DBClient is the implementation of DBClientInterface.
type DBClient struct {
	db *sql.DB
}

// NewDBClient creates a new instance of DBClient with the provided database connection.
// The client does not own the connection pool; Close is a no-op.
func NewDBClient(db *sql.DB) DBClientInterface {

	return &DBClient{
		db: db,
	}
}

// ExecuteQuery executes a query and returns the result as a slice of maps.
func (client *DBClient) ExecuteQuery(query string, args ...interface{}) ([]map[string]interface{}, error) {

	return QueryRows(context.Background(), client.db, query, args...)
}

// ExecuteQueryContext executes a query bound to ctx and returns the result as a slice of maps.
func (client *DBClient) ExecuteQueryContext(ctx context.Context, query string,
	args ...interface{}) ([]map[string]interface{}, error) {

	return QueryRows(ctx, client.db, query, args...)
}

func (client *DBClient) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {

	return client.db.ExecContext(ctx, query, args...)
}

func (client *DBClient) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {

	return client.db.QueryContext(ctx, query, args...)
}

// BeginTx starts a new database transaction.
func (client *DBClient) BeginTx(ctx context.Context) (*sql.Tx, error) {

	return client.db.BeginTx(ctx, nil)
}

// DB exposes the underlying pool for tools that need a *sql.DB, such as migrations.
func (client *DBClient) DB() *sql.DB {

	return client.db
}

// Close is a no-op: the pool is owned by the database provider.
func (client *DBClient) Close() error {
	return nil
}

// QueryRows runs query on ex and returns each row as a map keyed by lower-cased column name.
func QueryRows(ctx context.Context, ex Executor, query string, args ...interface{}) ([]map[string]interface{}, error) {

	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		row := make([]interface{}, len(columns))
		rowPointers := make([]interface{}, len(columns))
		for i := range row {
			rowPointers[i] = &row[i]
		}

		if err := rows.Scan(rowPointers...); err != nil {
			return nil, err
		}

		result := map[string]interface{}{}
		for i, col := range columns {
			// Normalize column names to lowercase for consistency.
			result[strings.ToLower(col)] = row[i]
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
