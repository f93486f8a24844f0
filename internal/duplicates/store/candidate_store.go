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
	"github.com/lib/pq"
	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/matching"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/database/scripts"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
)

const candidateStoreName = "candidate store"

var candidateColumns = []string{"id", "dataset_id", "record_id_a", "record_id_b", "match_score", "matched_rules",
	"status", "reviewed_by", "reviewed_at", "dismiss_reason", "created_at", "updated_at"}

// CandidateStore persists duplicate candidates.
type CandidateStore struct {
	dbProvider provider.DBProviderInterface
}

func NewCandidateStore(dbProvider provider.DBProviderInterface) *CandidateStore {
	return &CandidateStore{dbProvider: dbProvider}
}

// InsertCandidate stores a candidate and reports whether a row was created. An existing row
// for the same pair is left untouched.
func (s *CandidateStore) InsertCandidate(ctx context.Context, candidate model.Candidate) (bool, error) {

	key := candidate.Key()
	if key.A == key.B {
		return false, fmt.Errorf("candidate pair must reference two records: %d", key.A)
	}
	dbClient, err := dbClient(s.dbProvider, candidateStoreName)
	if err != nil {
		return false, err
	}
	rules := candidate.MatchedRules
	if rules == nil {
		rules = []matching.RuleMatch{}
	}
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return false, corruptedError("Failed to encode matched rules.", err)
	}

	query := scripts.InsertCandidate[s.dbProvider.GetDBType()]
	results, err := dbClient.ExecuteQueryContext(ctx, query, candidate.DatasetID, key.A, key.B,
		candidate.MatchScore, rulesJSON)
	if client.IsUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, queryError(fmt.Sprintf("Failed to insert candidate %d-%d.", key.A, key.B), err)
	}
	return len(results) > 0, nil
}

// ListCandidatePairs returns every pair of the dataset that already has a candidate.
func (s *CandidateStore) ListCandidatePairs(ctx context.Context, datasetID int64) (map[model.PairKey]struct{}, error) {

	dbClient, err := dbClient(s.dbProvider, candidateStoreName)
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.ListCandidatePairs[s.dbProvider.GetDBType()], datasetID)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to list candidate pairs of dataset: %d", datasetID), err)
	}
	pairs := make(map[model.PairKey]struct{}, len(results))
	for _, row := range client.Rows(results) {
		pairs[model.NewPairKey(row.Int64("record_id_a"), row.Int64("record_id_b"))] = struct{}{}
	}
	return pairs, nil
}

// GetCandidate returns the candidate or nil when it does not exist.
func (s *CandidateStore) GetCandidate(ctx context.Context, id int64) (*model.Candidate, error) {

	dbClient, err := dbClient(s.dbProvider, candidateStoreName)
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.GetCandidate[s.dbProvider.GetDBType()], id)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to fetch candidate: %d", id), err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return candidateFromRow(results[0])
}

// ListCandidates returns one page of the dataset's candidates matching filter, best scores
// first, and the total count.
func (s *CandidateStore) ListCandidates(ctx context.Context, datasetID int64, filter model.CandidateFilter,
	page pagination.PageRequest) ([]model.Candidate, int64, error) {

	dbClient, err := dbClient(s.dbProvider, candidateStoreName)
	if err != nil {
		return nil, 0, err
	}

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*) AS total").From("duplicate_candidates")
	countSb.Where(candidateFilter(countSb, datasetID, filter)...)
	countQuery, countArgs := countSb.Build()
	countRows, err := dbClient.ExecuteQueryContext(ctx, countQuery, countArgs...)
	if err != nil {
		return nil, 0, queryError(fmt.Sprintf("Failed to count candidates of dataset: %d", datasetID), err)
	}
	var total int64
	if len(countRows) > 0 {
		total = client.Row(countRows[0]).Int64("total")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(candidateColumns...).From("duplicate_candidates")
	sb.Where(candidateFilter(sb, datasetID, filter)...)
	sb.OrderBy("match_score DESC", "id ASC")
	sb.Limit(page.PerPage).Offset(page.Offset())
	query, args := sb.Build()

	results, err := dbClient.ExecuteQueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, queryError(fmt.Sprintf("Failed to list candidates of dataset: %d", datasetID), err)
	}
	candidates := make([]model.Candidate, 0, len(results))
	for _, result := range results {
		candidate, err := candidateFromRow(result)
		if err != nil {
			return nil, 0, err
		}
		candidates = append(candidates, *candidate)
	}
	return candidates, total, nil
}

func candidateFilter(sb *sqlbuilder.SelectBuilder, datasetID int64, filter model.CandidateFilter) []string {

	where := []string{sb.Equal("dataset_id", datasetID)}
	if filter.Status != "" {
		where = append(where, sb.Equal("status", string(filter.Status)))
	}
	if filter.MinScore != nil {
		where = append(where, sb.GreaterEqualThan("match_score", *filter.MinScore))
	}
	if filter.RecordID > 0 {
		where = append(where, sb.Or(sb.Equal("record_id_a", filter.RecordID), sb.Equal("record_id_b", filter.RecordID)))
	}
	return where
}

// DismissCandidate dismisses a pending candidate. It returns nil when the candidate does not
// exist or is no longer pending.
func (s *CandidateStore) DismissCandidate(ctx context.Context, id int64, reviewer, reason string) (*model.Candidate, error) {

	dbClient, err := dbClient(s.dbProvider, candidateStoreName)
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.DismissCandidate[s.dbProvider.GetDBType()],
		id, nullString(reviewer), nullString(reason))
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to dismiss candidate: %d", id), err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return candidateFromRow(results[0])
}

// MarkMerged marks every candidate whose pair lies within recordIDs as merged.
func (s *CandidateStore) MarkMerged(ctx context.Context, ex client.Executor, datasetID int64, reviewer string,
	recordIDs []int64) (int64, error) {

	ex, err := executor(s.dbProvider, ex, candidateStoreName)
	if err != nil {
		return 0, err
	}
	result, err := ex.ExecContext(ctx, scripts.MarkCandidatesMerged[s.dbProvider.GetDBType()], datasetID,
		nullString(reviewer), pq.Array(recordIDs))
	if err != nil {
		return 0, queryError(fmt.Sprintf("Failed to mark candidates of dataset %d as merged.", datasetID), err)
	}
	return result.RowsAffected()
}

// DeleteReferencing deletes every candidate that references one of mergedIDs.
func (s *CandidateStore) DeleteReferencing(ctx context.Context, ex client.Executor, datasetID int64,
	mergedIDs []int64) (int64, error) {

	ex, err := executor(s.dbProvider, ex, candidateStoreName)
	if err != nil {
		return 0, err
	}
	result, err := ex.ExecContext(ctx, scripts.DeleteCandidatesReferencing[s.dbProvider.GetDBType()], datasetID,
		pq.Array(mergedIDs))
	if err != nil {
		return 0, queryError(fmt.Sprintf("Failed to delete candidates of dataset %d.", datasetID), err)
	}
	return result.RowsAffected()
}

// Stats counts the dataset's candidates by status and the pending ones scoring at least
// minScore.
func (s *CandidateStore) Stats(ctx context.Context, datasetID int64, minScore float64) (model.CandidateStats, error) {

	var stats model.CandidateStats
	dbClient, err := dbClient(s.dbProvider, candidateStoreName)
	if err != nil {
		return stats, err
	}
	dbType := s.dbProvider.GetDBType()

	results, err := dbClient.ExecuteQueryContext(ctx, scripts.CountCandidatesByStatus[dbType], datasetID)
	if err != nil {
		return stats, queryError(fmt.Sprintf("Failed to count candidates of dataset: %d", datasetID), err)
	}
	for _, row := range client.Rows(results) {
		count := row.Int64("total")
		switch model.CandidateStatus(row.String("status")) {
		case model.StatusPending:
			stats.Pending = count
		case model.StatusDismissed:
			stats.Dismissed = count
		case model.StatusMerged:
			stats.Merged = count
		}
		stats.Total += count
	}

	results, err = dbClient.ExecuteQueryContext(ctx, scripts.CountHighConfidenceCandidates[dbType], datasetID, minScore)
	if err != nil {
		return stats, queryError(fmt.Sprintf("Failed to count candidates of dataset: %d", datasetID), err)
	}
	if len(results) > 0 {
		stats.HighConfidence = client.Row(results[0]).Int64("total")
	}
	return stats, nil
}

func candidateFromRow(result map[string]interface{}) (*model.Candidate, error) {

	row := client.Row(result)
	rules := []matching.RuleMatch{}
	if raw := row.Bytes("matched_rules"); len(raw) > 0 {
		if err := json.Unmarshal(raw, &rules); err != nil {
			return nil, corruptedError(fmt.Sprintf("Failed to decode matched rules of candidate: %d", row.Int64("id")), err)
		}
	}
	return &model.Candidate{
		ID:            row.Int64("id"),
		DatasetID:     row.Int64("dataset_id"),
		RecordIDA:     row.Int64("record_id_a"),
		RecordIDB:     row.Int64("record_id_b"),
		MatchScore:    row.Float64("match_score"),
		MatchedRules:  rules,
		Status:        model.CandidateStatus(row.String("status")),
		ReviewedBy:    row.String("reviewed_by"),
		ReviewedAt:    row.TimePtr("reviewed_at"),
		DismissReason: row.String("dismiss_reason"),
		CreatedAt:     row.Time("created_at"),
		UpdatedAt:     row.Time("updated_at"),
	}, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
