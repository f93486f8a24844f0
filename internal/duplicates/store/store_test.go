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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/matching"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
	recordstore "github.com/wso2/record-deduplication-service/internal/records/store"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
	"github.com/wso2/record-deduplication-service/test/setup"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func newDataset(t *testing.T, dbProvider provider.DBProviderInterface) int64 {
	t.Helper()
	dataset, err := recordstore.NewRecordStore(dbProvider).CreateDataset(context.Background(),
		recordmodel.Dataset{TenantID: "carbon.super", Name: "contacts"})
	require.NoError(t, err)
	return dataset.ID
}

func candidate(datasetID, x, y int64, score float64) model.Candidate {
	return model.NewCandidate(datasetID, x, y, matching.MatchResult{
		Matched: true,
		Score:   score,
		MatchedRules: []matching.RuleMatch{
			{RuleID: "name", RuleName: "similar name", Action: matching.ActionWarn, Score: score},
		},
	})
}

// ---------------------------------------------------------------------------
// Candidates
// ---------------------------------------------------------------------------

func TestCandidateStore(t *testing.T) {
	td := setup.RequireTestDB(t)
	td.Truncate(t)
	ctx := context.Background()
	dbProvider := provider.NewStaticDBProvider(td.DB)
	datasetID := newDataset(t, dbProvider)
	candidates := NewCandidateStore(dbProvider)

	created, err := candidates.InsertCandidate(ctx, candidate(datasetID, 5, 3, 0.95))
	require.NoError(t, err)
	assert.True(t, created)

	// The same pair in either order is not stored twice.
	created, err = candidates.InsertCandidate(ctx, candidate(datasetID, 3, 5, 0.5))
	require.NoError(t, err)
	assert.False(t, created)

	_, err = candidates.InsertCandidate(ctx, candidate(datasetID, 3, 9, 0.85))
	require.NoError(t, err)
	_, err = candidates.InsertCandidate(ctx, candidate(datasetID, 7, 12, 0.7))
	require.NoError(t, err)

	pairs, err := candidates.ListCandidatePairs(ctx, datasetID)
	require.NoError(t, err)
	assert.Len(t, pairs, 3)
	assert.Contains(t, pairs, model.NewPairKey(5, 3))

	page, total, err := candidates.ListCandidates(ctx, datasetID, model.CandidateFilter{RecordID: 3},
		pagination.PageRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 2)
	assert.Equal(t, 0.95, page[0].MatchScore)
	assert.Equal(t, int64(3), page[0].RecordIDA)
	assert.Equal(t, int64(5), page[0].RecordIDB)
	require.Len(t, page[0].MatchedRules, 1)
	assert.Equal(t, "name", page[0].MatchedRules[0].RuleID)

	dismissed, err := candidates.DismissCandidate(ctx, page[1].ID, "alice", "different people")
	require.NoError(t, err)
	require.NotNil(t, dismissed)
	assert.Equal(t, model.StatusDismissed, dismissed.Status)
	assert.Equal(t, "alice", dismissed.ReviewedBy)
	assert.NotNil(t, dismissed.ReviewedAt)

	again, err := candidates.DismissCandidate(ctx, page[1].ID, "alice", "")
	require.NoError(t, err)
	assert.Nil(t, again)

	minScore := 0.8
	pending, total, err := candidates.ListCandidates(ctx, datasetID,
		model.CandidateFilter{Status: model.StatusPending, MinScore: &minScore}, pagination.PageRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, pending, 1)

	stats, err := candidates.Stats(ctx, datasetID, 0.9)
	require.NoError(t, err)
	assert.Equal(t, model.CandidateStats{Pending: 2, Dismissed: 1, Total: 3, HighConfidence: 1}, stats)
}

func TestCandidateStore_MergeBookkeeping(t *testing.T) {
	td := setup.RequireTestDB(t)
	td.Truncate(t)
	ctx := context.Background()
	dbProvider := provider.NewStaticDBProvider(td.DB)
	datasetID := newDataset(t, dbProvider)
	candidates := NewCandidateStore(dbProvider)

	for _, c := range []model.Candidate{
		candidate(datasetID, 3, 5, 0.9),
		candidate(datasetID, 5, 9, 0.9),
		candidate(datasetID, 5, 20, 0.9),
		candidate(datasetID, 12, 20, 0.9),
	} {
		_, err := candidates.InsertCandidate(ctx, c)
		require.NoError(t, err)
	}

	merged, err := candidates.MarkMerged(ctx, nil, datasetID, "bob", []int64{3, 5, 9})
	require.NoError(t, err)
	assert.Equal(t, int64(2), merged)

	deleted, err := candidates.DeleteReferencing(ctx, nil, datasetID, []int64{5, 9})
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	pairs, err := candidates.ListCandidatePairs(ctx, datasetID)
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
	assert.Contains(t, pairs, model.NewPairKey(12, 20))
}

// ---------------------------------------------------------------------------
// Checkpoints
// ---------------------------------------------------------------------------

func TestCheckpointStore(t *testing.T) {
	td := setup.RequireTestDB(t)
	td.Truncate(t)
	ctx := context.Background()
	dbProvider := provider.NewStaticDBProvider(td.DB)
	datasetID := newDataset(t, dbProvider)
	checkpoints := NewCheckpointStore(dbProvider)

	checkpoint, err := checkpoints.GetCheckpoint(ctx, datasetID)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)

	require.NoError(t, checkpoints.SaveCheckpoint(ctx, model.ScanCheckpoint{DatasetID: datasetID, LastRecordID: 4,
		CandidatesCreated: 2}))
	require.NoError(t, checkpoints.SaveCheckpoint(ctx, model.ScanCheckpoint{DatasetID: datasetID, LastRecordID: 8,
		CandidatesCreated: 5}))

	checkpoint, err = checkpoints.GetCheckpoint(ctx, datasetID)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, int64(8), checkpoint.LastRecordID)
	assert.Equal(t, 5, checkpoint.CandidatesCreated)

	require.NoError(t, checkpoints.DeleteCheckpoint(ctx, datasetID))
	checkpoint, err = checkpoints.GetCheckpoint(ctx, datasetID)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}
