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

package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
	"github.com/wso2/record-deduplication-service/internal/system/validation"
)

// ListCandidates returns one page of the dataset's candidates, best scores first. An empty
// filter status lists every status.
func (s *DuplicateService) ListCandidates(ctx context.Context, tenantID string, datasetID int64,
	filter model.CandidateFilter, page pagination.PageRequest) (*pagination.Page[model.Candidate], error) {

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, errors.NewValidationError(errors.INVALID_CANDIDATE_FILTER,
			fmt.Sprintf("Unknown candidate status '%s'.", filter.Status))
	}
	if filter.MinScore != nil && (*filter.MinScore < 0 || *filter.MinScore > 1) {
		return nil, errors.NewValidationError(errors.INVALID_CANDIDATE_FILTER, "'min_score' must be between 0 and 1.")
	}
	if _, err := s.GetDataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}

	page = page.Normalize()
	candidates, total, err := s.deps.Candidates.ListCandidates(ctx, datasetID, filter, page)
	if err != nil {
		return nil, err
	}
	result := pagination.NewPage(candidates, total, page)
	return &result, nil
}

// GetCandidate returns the candidate with both of its records. A record merged away since
// the candidate was created is left nil.
func (s *DuplicateService) GetCandidate(ctx context.Context, tenantID string,
	candidateID int64) (*model.CandidateDetail, error) {

	candidate, err := s.candidate(ctx, tenantID, candidateID)
	if err != nil {
		return nil, err
	}
	recordA, err := s.deps.Records.GetRecordByID(ctx, candidate.RecordIDA)
	if err != nil {
		return nil, err
	}
	recordB, err := s.deps.Records.GetRecordByID(ctx, candidate.RecordIDB)
	if err != nil {
		return nil, err
	}
	return &model.CandidateDetail{Candidate: *candidate, RecordA: recordA, RecordB: recordB}, nil
}

// DismissCandidate marks a pending candidate as not a duplicate.
func (s *DuplicateService) DismissCandidate(ctx context.Context, tenantID string, candidateID int64,
	userID, reason string) (*model.Candidate, error) {

	reason = strings.TrimSpace(reason)
	if err := validation.Struct(model.DismissRequest{Reason: reason}, errors.BAD_REQUEST); err != nil {
		return nil, err
	}
	candidate, err := s.candidate(ctx, tenantID, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.Status != model.StatusPending {
		return nil, notPending(candidate)
	}

	dismissed, err := s.deps.Candidates.DismissCandidate(ctx, candidateID, userID, reason)
	if err != nil {
		return nil, err
	}
	if dismissed == nil {
		// Reviewed or purged between the read and the update.
		current, err := s.deps.Candidates.GetCandidate(ctx, candidateID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, candidateNotFound(candidateID)
		}
		return nil, notPending(current)
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   userID,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      strconv.FormatInt(candidateID, 10),
		TargetType:    log.TargetTypeCandidate,
		ActionID:      log.ActionDismissCandidate,
		Data:          map[string]interface{}{"dataset_id": dismissed.DatasetID, "reason": reason},
	})
	s.publish(constants.EventDuplicateDismissed, tenantID, dismissed.DatasetID, dismissed)
	return dismissed, nil
}

// GetStats counts the dataset's candidates by status.
func (s *DuplicateService) GetStats(ctx context.Context, tenantID string, datasetID int64) (*model.CandidateStats, error) {

	if _, err := s.GetDataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}
	stats, err := s.deps.Candidates.Stats(ctx, datasetID, constants.HighConfidenceScore)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetMergeHistory returns one page of the dataset's merge logs, newest first.
func (s *DuplicateService) GetMergeHistory(ctx context.Context, tenantID string, datasetID int64,
	page pagination.PageRequest) (*pagination.Page[model.MergeLog], error) {

	if _, err := s.GetDataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	logs, total, err := s.deps.MergeLogs.ListMergeLogs(ctx, datasetID, page)
	if err != nil {
		return nil, err
	}
	result := pagination.NewPage(logs, total, page)
	return &result, nil
}

func (s *DuplicateService) GetMergeLog(ctx context.Context, tenantID string, mergeLogID int64) (*model.MergeLog, error) {

	entry, err := s.deps.MergeLogs.GetMergeLog(ctx, mergeLogID)
	if err != nil {
		return nil, err
	}
	notFound := errors.NewNotFoundError(errors.MERGE_LOG_NOT_FOUND,
		fmt.Sprintf("Merge log %d does not exist.", mergeLogID))
	if entry == nil {
		return nil, notFound
	}
	if _, err := s.GetDataset(ctx, tenantID, entry.DatasetID); err != nil {
		if errors.StatusOf(err) == http.StatusNotFound {
			return nil, notFound
		}
		return nil, err
	}
	return entry, nil
}

// candidate loads a candidate of a dataset owned by the tenant.
func (s *DuplicateService) candidate(ctx context.Context, tenantID string, candidateID int64) (*model.Candidate, error) {

	candidate, err := s.deps.Candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, candidateNotFound(candidateID)
	}
	if _, err := s.GetDataset(ctx, tenantID, candidate.DatasetID); err != nil {
		if errors.StatusOf(err) == http.StatusNotFound {
			return nil, candidateNotFound(candidateID)
		}
		return nil, err
	}
	return candidate, nil
}

func candidateNotFound(candidateID int64) error {
	return errors.NewNotFoundError(errors.CANDIDATE_NOT_FOUND,
		fmt.Sprintf("Duplicate candidate %d does not exist.", candidateID))
}

func notPending(candidate *model.Candidate) error {
	return errors.NewConflictError(errors.CANDIDATE_NOT_PENDING,
		fmt.Sprintf("Duplicate candidate %d is already %s.", candidate.ID, candidate.Status))
}
