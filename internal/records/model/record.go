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

package model

import "time"

// DatasetField describes one field of a dataset schema.
type DatasetField struct {
	Name  string `json:"name" validate:"required,max=255"`
	Label string `json:"label,omitempty" validate:"max=255"`
}

type Dataset struct {
	ID        int64          `json:"id"`
	TenantID  string         `json:"tenant_id"`
	Name      string         `json:"name"`
	Fields    []DatasetField `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// FieldNames returns the schema field names in declaration order.
func (d *Dataset) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Record is a schema-less key/value record of a dataset.
type Record struct {
	ID        int64                  `json:"id"`
	DatasetID int64                  `json:"dataset_id"`
	Fields    map[string]interface{} `json:"fields"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type DatasetRequest struct {
	Name   string         `json:"name" validate:"required,max=255"`
	Fields []DatasetField `json:"fields" validate:"unique=Name,dive"`
}

type RecordRequest struct {
	Fields map[string]interface{} `json:"fields" validate:"required"`
}

// RecordCreateResponse is returned when a record is created with a duplicate check.
type RecordCreateResponse struct {
	Record        *Record     `json:"record,omitempty"`
	HasDuplicates bool        `json:"has_duplicates"`
	ShouldBlock   bool        `json:"should_block"`
	Duplicates    interface{} `json:"duplicates,omitempty"`
}
