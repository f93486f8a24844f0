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
	"fmt"

	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/database/scripts"
)

const checkpointStoreName = "scan checkpoint store"

// CheckpointStore keeps one scan watermark per dataset.
type CheckpointStore struct {
	dbProvider provider.DBProviderInterface
}

func NewCheckpointStore(dbProvider provider.DBProviderInterface) *CheckpointStore {
	return &CheckpointStore{dbProvider: dbProvider}
}

// GetCheckpoint returns the dataset's checkpoint or nil when none is stored.
func (s *CheckpointStore) GetCheckpoint(ctx context.Context, datasetID int64) (*model.ScanCheckpoint, error) {

	dbClient, err := dbClient(s.dbProvider, checkpointStoreName)
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.GetScanCheckpoint[s.dbProvider.GetDBType()], datasetID)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to fetch scan checkpoint of dataset: %d", datasetID), err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	row := client.Row(results[0])
	return &model.ScanCheckpoint{
		DatasetID:         row.Int64("dataset_id"),
		LastRecordID:      row.Int64("last_record_id"),
		CandidatesCreated: int(row.Int64("candidates_created")),
		UpdatedAt:         row.Time("updated_at"),
	}, nil
}

func (s *CheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint model.ScanCheckpoint) error {

	dbClient, err := dbClient(s.dbProvider, checkpointStoreName)
	if err != nil {
		return err
	}
	_, err = dbClient.ExecContext(ctx, scripts.UpsertScanCheckpoint[s.dbProvider.GetDBType()],
		checkpoint.DatasetID, checkpoint.LastRecordID, checkpoint.CandidatesCreated)
	if err != nil {
		return queryError(fmt.Sprintf("Failed to save scan checkpoint of dataset: %d", checkpoint.DatasetID), err)
	}
	return nil
}

func (s *CheckpointStore) DeleteCheckpoint(ctx context.Context, datasetID int64) error {

	dbClient, err := dbClient(s.dbProvider, checkpointStoreName)
	if err != nil {
		return err
	}
	if _, err := dbClient.ExecContext(ctx, scripts.DeleteScanCheckpoint[s.dbProvider.GetDBType()], datasetID); err != nil {
		return queryError(fmt.Sprintf("Failed to delete scan checkpoint of dataset: %d", datasetID), err)
	}
	return nil
}
