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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRowAccessors(t *testing.T) {
	now := time.Now()
	row := Row{
		"id":          int64(7),
		"match_score": float64(0.95),
		"name":        "Acme",
		"fields":      []byte(`{"a":1}`),
		"is_active":   true,
		"created_at":  now,
		"reviewed_at": nil,
		"numeric":     []byte("12"),
	}

	assert.Equal(t, int64(7), row.Int64("id"))
	assert.Equal(t, 0.95, row.Float64("match_score"))
	assert.Equal(t, "Acme", row.String("name"))
	assert.Equal(t, `{"a":1}`, string(row.Bytes("fields")))
	assert.True(t, row.Bool("is_active"))
	assert.Equal(t, now, row.Time("created_at"))
	assert.Nil(t, row.TimePtr("reviewed_at"))
	assert.Equal(t, int64(12), row.Int64("numeric"))
	assert.Equal(t, "", row.String("missing"))
	assert.Equal(t, int64(0), row.Int64("missing"))
}
