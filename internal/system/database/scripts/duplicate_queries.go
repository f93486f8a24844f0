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

package scripts

const candidateColumns = `id, dataset_id, record_id_a, record_id_b, match_score, matched_rules, status, reviewed_by,
       reviewed_at, dismiss_reason, created_at, updated_at`

const mergeLogColumns = `id, dataset_id, surviving_record_id, merged_record_ids, field_selections,
       merged_data_snapshot, merged_by, created_at`

var CandidateColumns = candidateColumns

var MergeLogColumns = mergeLogColumns

// InsertCandidate returns no row when the pair already exists.
var InsertCandidate = map[string]string{
	"postgres": `INSERT INTO duplicate_candidates (dataset_id, record_id_a, record_id_b, match_score, matched_rules)
       VALUES ($1, $2, $3, $4, $5)
       ON CONFLICT (dataset_id, record_id_a, record_id_b) DO NOTHING RETURNING id`,
}

var ListCandidatePairs = map[string]string{
	"postgres": `SELECT record_id_a, record_id_b FROM duplicate_candidates WHERE dataset_id = $1`,
}

var GetCandidate = map[string]string{
	"postgres": `SELECT ` + candidateColumns + ` FROM duplicate_candidates WHERE id = $1`,
}

var DismissCandidate = map[string]string{
	"postgres": `UPDATE duplicate_candidates SET status = 'dismissed', reviewed_by = $2, reviewed_at = NOW(),
       dismiss_reason = $3, updated_at = NOW() WHERE id = $1 AND status = 'pending' RETURNING ` + candidateColumns,
}

// MarkCandidatesMerged takes the dataset id, the reviewer and every record id taking part in the merge.
var MarkCandidatesMerged = map[string]string{
	"postgres": `UPDATE duplicate_candidates SET status = 'merged', reviewed_by = $2, reviewed_at = NOW(),
       updated_at = NOW() WHERE dataset_id = $1 AND record_id_a = ANY($3) AND record_id_b = ANY($3)`,
}

// DeleteCandidatesReferencing removes every row that references a merged away record ($2),
// including the ones just marked as merged.
var DeleteCandidatesReferencing = map[string]string{
	"postgres": `DELETE FROM duplicate_candidates WHERE dataset_id = $1
       AND (record_id_a = ANY($2) OR record_id_b = ANY($2))`,
}

var CountCandidatesByStatus = map[string]string{
	"postgres": `SELECT status, COUNT(*) AS total FROM duplicate_candidates WHERE dataset_id = $1 GROUP BY status`,
}

var CountHighConfidenceCandidates = map[string]string{
	"postgres": `SELECT COUNT(*) AS total FROM duplicate_candidates
       WHERE dataset_id = $1 AND status = 'pending' AND match_score >= $2`,
}

var InsertMergeLog = map[string]string{
	"postgres": `INSERT INTO merge_logs (dataset_id, surviving_record_id, merged_record_ids, field_selections,
       merged_data_snapshot, merged_by) VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + mergeLogColumns,
}

var GetMergeLog = map[string]string{
	"postgres": `SELECT ` + mergeLogColumns + ` FROM merge_logs WHERE id = $1`,
}

// FindMergeLogByMergedRecord takes a JSON array holding one record id.
var FindMergeLogByMergedRecord = map[string]string{
	"postgres": `SELECT id, surviving_record_id FROM merge_logs WHERE merged_record_ids @> $1::jsonb
       ORDER BY id DESC LIMIT 1`,
}

var GetScanCheckpoint = map[string]string{
	"postgres": `SELECT dataset_id, last_record_id, candidates_created, updated_at
       FROM duplicate_scan_checkpoints WHERE dataset_id = $1`,
}

var UpsertScanCheckpoint = map[string]string{
	"postgres": `INSERT INTO duplicate_scan_checkpoints (dataset_id, last_record_id, candidates_created)
       VALUES ($1, $2, $3)
       ON CONFLICT (dataset_id) DO UPDATE SET last_record_id = EXCLUDED.last_record_id,
       candidates_created = EXCLUDED.candidates_created, updated_at = NOW()`,
}

var DeleteScanCheckpoint = map[string]string{
	"postgres": `DELETE FROM duplicate_scan_checkpoints WHERE dataset_id = $1`,
}
