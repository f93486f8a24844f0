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

package client

import (
	"fmt"
	"strconv"
	"time"
)

// Row is one result row keyed by lower-cased column name, as returned by QueryRows.
type Row map[string]interface{}

// Int64 returns an integer column. NULL yields 0.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	}
	return 0
}

// Float64 returns a floating point column. NULL yields 0.
func (r Row) Float64(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	}
	return 0
}

// String returns a text column. NULL yields "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns a boolean column. NULL yields false.
func (r Row) Bool(col string) bool {
	v, _ := r[col].(bool)
	return v
}

// Time returns a timestamp column. NULL yields the zero time.
func (r Row) Time(col string) time.Time {
	v, _ := r[col].(time.Time)
	return v
}

// TimePtr returns a nullable timestamp column.
func (r Row) TimePtr(col string) *time.Time {
	v, ok := r[col].(time.Time)
	if !ok {
		return nil
	}
	return &v
}

// Bytes returns a JSON or bytea column. NULL yields nil.
func (r Row) Bytes(col string) []byte {
	switch v := r[col].(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}

// Rows converts QueryRows output.
func Rows(results []map[string]interface{}) []Row {
	rows := make([]Row, len(results))
	for i, r := range results {
		rows[i] = r
	}
	return rows
}
