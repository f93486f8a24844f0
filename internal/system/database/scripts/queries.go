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

package scripts

const datasetColumns = `id, tenant_id, name, fields, created_at, updated_at`

const recordColumns = `id, dataset_id, fields, created_at, updated_at`

const matchRuleColumns = `id, dataset_id, name, description, conditions, action, priority, is_active, created_by,
       created_at, updated_at`

var InsertDataset = map[string]string{
	"postgres": `INSERT INTO datasets (tenant_id, name, fields) VALUES ($1, $2, $3) RETURNING ` + datasetColumns,
}

var GetDataset = map[string]string{
	"postgres": `SELECT ` + datasetColumns + ` FROM datasets WHERE id = $1`,
}

var ListDatasetsByTenant = map[string]string{
	"postgres": `SELECT ` + datasetColumns + ` FROM datasets WHERE tenant_id = $1 ORDER BY id`,
}

var ListAllDatasets = map[string]string{
	"postgres": `SELECT ` + datasetColumns + ` FROM datasets ORDER BY id`,
}

var InsertRecord = map[string]string{
	"postgres": `INSERT INTO records (dataset_id, fields) VALUES ($1, $2) RETURNING ` + recordColumns,
}

var GetRecord = map[string]string{
	"postgres": `SELECT ` + recordColumns + ` FROM records WHERE id = $1 AND dataset_id = $2`,
}

var GetRecordByID = map[string]string{
	"postgres": `SELECT ` + recordColumns + ` FROM records WHERE id = $1`,
}

var ListRecordsByDataset = map[string]string{
	"postgres": `SELECT ` + recordColumns + ` FROM records WHERE dataset_id = $1 ORDER BY id`,
}

// ListRecordsWindow takes the dataset id, a record id to leave out (0 for none) and the window size.
// Newest records come first.
var ListRecordsWindow = map[string]string{
	"postgres": `SELECT ` + recordColumns + ` FROM records WHERE dataset_id = $1 AND id <> $2 ORDER BY id DESC LIMIT $3`,
}

var LockRecordsForUpdate = map[string]string{
	"postgres": `SELECT ` + recordColumns + ` FROM records WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
}

var UpdateRecordFields = map[string]string{
	"postgres": `UPDATE records SET fields = $1, updated_at = NOW() WHERE id = $2`,
}

var DeleteRecord = map[string]string{
	"postgres": `DELETE FROM records WHERE id = $1`,
}

var InsertMatchRule = map[string]string{
	"postgres": `INSERT INTO duplicate_rules (id, dataset_id, name, description, conditions, action, priority, is_active,
       created_by) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING ` + matchRuleColumns,
}

var GetMatchRule = map[string]string{
	"postgres": `SELECT ` + matchRuleColumns + ` FROM duplicate_rules WHERE id = $1`,
}

var ListMatchRulesByDataset = map[string]string{
	"postgres": `SELECT ` + matchRuleColumns + ` FROM duplicate_rules WHERE dataset_id = $1
       ORDER BY priority DESC, created_at ASC, id ASC`,
}

var ListActiveMatchRules = map[string]string{
	"postgres": `SELECT ` + matchRuleColumns + ` FROM duplicate_rules WHERE dataset_id = $1 AND is_active = TRUE
       ORDER BY priority DESC, created_at ASC, id ASC`,
}

var UpdateMatchRule = map[string]string{
	"postgres": `UPDATE duplicate_rules SET name = $1, description = $2, conditions = $3, action = $4, priority = $5,
       is_active = $6, updated_at = NOW() WHERE id = $7 RETURNING ` + matchRuleColumns,
}

var DeleteMatchRule = map[string]string{
	"postgres": `DELETE FROM duplicate_rules WHERE id = $1`,
}
