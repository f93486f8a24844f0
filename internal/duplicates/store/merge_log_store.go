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

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/database/scripts"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
)

const mergeLogStoreName = "merge log store"

var mergeLogColumns = []string{"id", "dataset_id", "surviving_record_id", "merged_record_ids", "field_selections",
	"merged_data_snapshot", "merged_by", "created_at"}

// MergeLogStore persists merge logs. Rows are never updated.
type MergeLogStore struct {
	dbProvider provider.DBProviderInterface
}

func NewMergeLogStore(dbProvider provider.DBProviderInterface) *MergeLogStore {
	return &MergeLogStore{dbProvider: dbProvider}
}

// InsertMergeLog stores entry on ex and returns it as persisted.
func (s *MergeLogStore) InsertMergeLog(ctx context.Context, ex client.Executor, entry model.MergeLog) (*model.MergeLog, error) {

	ex, err := executor(s.dbProvider, ex, mergeLogStoreName)
	if err != nil {
		return nil, err
	}
	if entry.FieldSelections == nil {
		entry.FieldSelections = map[string]model.FieldSelection{}
	}
	if entry.MergedDataSnapshot == nil {
		entry.MergedDataSnapshot = []model.SnapshotEntry{}
	}
	mergedIDs, err := json.Marshal(entry.MergedRecordIDs)
	if err != nil {
		return nil, corruptedError("Failed to encode merged record ids.", err)
	}
	selections, err := json.Marshal(entry.FieldSelections)
	if err != nil {
		return nil, corruptedError("Failed to encode field selections.", err)
	}
	snapshot, err := json.Marshal(entry.MergedDataSnapshot)
	if err != nil {
		return nil, corruptedError("Failed to encode merge snapshot.", err)
	}

	results, err := client.QueryRows(ctx, ex, scripts.InsertMergeLog[s.dbProvider.GetDBType()], entry.DatasetID,
		entry.SurvivingRecordID, mergedIDs, selections, snapshot, nullString(entry.MergedBy))
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to insert merge log for record: %d", entry.SurvivingRecordID), err)
	}
	if len(results) == 0 {
		return nil, queryError("Merge log insert returned no row.", nil)
	}
	return mergeLogFromRow(results[0])
}

// GetMergeLog returns the merge log or nil when it does not exist.
func (s *MergeLogStore) GetMergeLog(ctx context.Context, id int64) (*model.MergeLog, error) {

	dbClient, err := dbClient(s.dbProvider, mergeLogStoreName)
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.GetMergeLog[s.dbProvider.GetDBType()], id)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to fetch merge log: %d", id), err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return mergeLogFromRow(results[0])
}

// FindMergeOf returns the id of the latest merge log that merged recordID away and the
// record that survived it. A zero log id means the record was never merged.
func (s *MergeLogStore) FindMergeOf(ctx context.Context, recordID int64) (logID, survivorID int64, err error) {

	dbClient, err := dbClient(s.dbProvider, mergeLogStoreName)
	if err != nil {
		return 0, 0, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.FindMergeLogByMergedRecord[s.dbProvider.GetDBType()],
		fmt.Sprintf("[%d]", recordID))
	if err != nil {
		return 0, 0, queryError(fmt.Sprintf("Failed to look up merge of record: %d", recordID), err)
	}
	if len(results) == 0 {
		return 0, 0, nil
	}
	row := client.Row(results[0])
	return row.Int64("id"), row.Int64("surviving_record_id"), nil
}

// ListMergeLogs returns one page of the dataset's merge logs, newest first, and the total count.
func (s *MergeLogStore) ListMergeLogs(ctx context.Context, datasetID int64,
	page pagination.PageRequest) ([]model.MergeLog, int64, error) {

	dbClient, err := dbClient(s.dbProvider, mergeLogStoreName)
	if err != nil {
		return nil, 0, err
	}

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*) AS total").From("merge_logs").Where(countSb.Equal("dataset_id", datasetID))
	countQuery, countArgs := countSb.Build()
	countRows, err := dbClient.ExecuteQueryContext(ctx, countQuery, countArgs...)
	if err != nil {
		return nil, 0, queryError(fmt.Sprintf("Failed to count merge logs of dataset: %d", datasetID), err)
	}
	var total int64
	if len(countRows) > 0 {
		total = client.Row(countRows[0]).Int64("total")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(mergeLogColumns...).From("merge_logs")
	sb.Where(sb.Equal("dataset_id", datasetID))
	sb.OrderBy("created_at DESC", "id DESC")
	sb.Limit(page.PerPage).Offset(page.Offset())
	query, args := sb.Build()

	results, err := dbClient.ExecuteQueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, queryError(fmt.Sprintf("Failed to list merge logs of dataset: %d", datasetID), err)
	}
	logs := make([]model.MergeLog, 0, len(results))
	for _, result := range results {
		entry, err := mergeLogFromRow(result)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, *entry)
	}
	return logs, total, nil
}

func mergeLogFromRow(result map[string]interface{}) (*model.MergeLog, error) {

	row := client.Row(result)
	id := row.Int64("id")
	entry := &model.MergeLog{
		ID:                 id,
		DatasetID:          row.Int64("dataset_id"),
		SurvivingRecordID:  row.Int64("surviving_record_id"),
		MergedRecordIDs:    []int64{},
		FieldSelections:    map[string]model.FieldSelection{},
		MergedDataSnapshot: []model.SnapshotEntry{},
		MergedBy:           row.String("merged_by"),
		CreatedAt:          row.Time("created_at"),
	}
	if err := decodeColumn(row, "merged_record_ids", &entry.MergedRecordIDs); err != nil {
		return nil, corruptedError(fmt.Sprintf("Failed to decode merged record ids of merge log: %d", id), err)
	}
	if err := decodeColumn(row, "field_selections", &entry.FieldSelections); err != nil {
		return nil, corruptedError(fmt.Sprintf("Failed to decode field selections of merge log: %d", id), err)
	}
	if err := decodeColumn(row, "merged_data_snapshot", &entry.MergedDataSnapshot); err != nil {
		return nil, corruptedError(fmt.Sprintf("Failed to decode snapshot of merge log: %d", id), err)
	}
	for i := range entry.MergedDataSnapshot {
		if entry.MergedDataSnapshot[i].Fields == nil {
			entry.MergedDataSnapshot[i].Fields = map[string]interface{}{}
		}
	}
	return entry, nil
}

func decodeColumn(row client.Row, col string, target interface{}) error {

	raw := row.Bytes(col)
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}
