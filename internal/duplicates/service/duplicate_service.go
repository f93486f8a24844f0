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
	"sort"
	"sync"
	"time"

	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/duplicates/store"
	rulemodel "github.com/wso2/record-deduplication-service/internal/match_rules/model"
	ruleservice "github.com/wso2/record-deduplication-service/internal/match_rules/service"
	"github.com/wso2/record-deduplication-service/internal/matching"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
	recordstore "github.com/wso2/record-deduplication-service/internal/records/store"
	"github.com/wso2/record-deduplication-service/internal/references"
	"github.com/wso2/record-deduplication-service/internal/system/config"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/events"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/metrics"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
	"github.com/wso2/record-deduplication-service/internal/system/validation"
)

// DuplicateServiceInterface finds duplicate records, tracks their review and merges them.
// A non-empty tenant restricts access to datasets owned by that tenant.
type DuplicateServiceInterface interface {
	CheckForDuplicates(ctx context.Context, datasetID int64, fields map[string]interface{},
		excludeID int64) ([]model.DuplicateMatch, error)
	Check(ctx context.Context, tenantID string, datasetID int64, req model.CheckRequest) (*model.CheckResponse, error)
	ScanDatasetForDuplicates(ctx context.Context, datasetID int64, opts model.ScanOptions) (*model.ScanResult, error)
	GetDataset(ctx context.Context, tenantID string, datasetID int64) (*recordmodel.Dataset, error)
	ListCandidates(ctx context.Context, tenantID string, datasetID int64, filter model.CandidateFilter,
		page pagination.PageRequest) (*pagination.Page[model.Candidate], error)
	GetCandidate(ctx context.Context, tenantID string, candidateID int64) (*model.CandidateDetail, error)
	DismissCandidate(ctx context.Context, tenantID string, candidateID int64, userID, reason string) (*model.Candidate, error)
	GetStats(ctx context.Context, tenantID string, datasetID int64) (*model.CandidateStats, error)
	MergeRecords(ctx context.Context, tenantID string, req model.MergeRequest, userID string) (*model.MergeResult, error)
	PreviewMerge(ctx context.Context, tenantID string, req model.PreviewRequest) (*model.MergePreview, error)
	GetMergeHistory(ctx context.Context, tenantID string, datasetID int64,
		page pagination.PageRequest) (*pagination.Page[model.MergeLog], error)
	GetMergeLog(ctx context.Context, tenantID string, mergeLogID int64) (*model.MergeLog, error)
}

type recordStore interface {
	GetDataset(ctx context.Context, id int64) (*recordmodel.Dataset, error)
	GetRecordByID(ctx context.Context, id int64) (*recordmodel.Record, error)
	ListRecords(ctx context.Context, datasetID int64) ([]recordmodel.Record, error)
	ListRecordsWindow(ctx context.Context, datasetID, excludeID int64, limit int) ([]recordmodel.Record, error)
	LockRecords(ctx context.Context, ex client.Executor, ids []int64) ([]recordmodel.Record, error)
	UpdateFields(ctx context.Context, ex client.Executor, id int64, fields map[string]interface{}) error
	DeleteRecord(ctx context.Context, ex client.Executor, id int64) (bool, error)
}

type ruleSource interface {
	ListActiveRules(ctx context.Context, datasetID int64) ([]rulemodel.MatchRule, error)
}

type candidateStore interface {
	InsertCandidate(ctx context.Context, candidate model.Candidate) (bool, error)
	ListCandidatePairs(ctx context.Context, datasetID int64) (map[model.PairKey]struct{}, error)
	GetCandidate(ctx context.Context, id int64) (*model.Candidate, error)
	ListCandidates(ctx context.Context, datasetID int64, filter model.CandidateFilter,
		page pagination.PageRequest) ([]model.Candidate, int64, error)
	DismissCandidate(ctx context.Context, id int64, reviewer, reason string) (*model.Candidate, error)
	MarkMerged(ctx context.Context, ex client.Executor, datasetID int64, reviewer string, recordIDs []int64) (int64, error)
	DeleteReferencing(ctx context.Context, ex client.Executor, datasetID int64, mergedIDs []int64) (int64, error)
	Stats(ctx context.Context, datasetID int64, minScore float64) (model.CandidateStats, error)
}

type mergeLogStore interface {
	InsertMergeLog(ctx context.Context, ex client.Executor, entry model.MergeLog) (*model.MergeLog, error)
	GetMergeLog(ctx context.Context, id int64) (*model.MergeLog, error)
	FindMergeOf(ctx context.Context, recordID int64) (logID, survivorID int64, err error)
	ListMergeLogs(ctx context.Context, datasetID int64, page pagination.PageRequest) ([]model.MergeLog, int64, error)
}

type checkpointStore interface {
	GetCheckpoint(ctx context.Context, datasetID int64) (*model.ScanCheckpoint, error)
	SaveCheckpoint(ctx context.Context, checkpoint model.ScanCheckpoint) error
	DeleteCheckpoint(ctx context.Context, datasetID int64) error
}

// Dependencies are the collaborators of a DuplicateService. A nil Publisher resolves to the
// process wide publisher on every publish.
type Dependencies struct {
	Records     recordStore
	Rules       ruleSource
	Candidates  candidateStore
	MergeLogs   mergeLogStore
	Checkpoints checkpointStore
	TxRunner    provider.TxRunner
	Retargeters []references.Retargetable
	Publisher   events.Publisher
	CheckWindow int
	ScanWorkers int
	// CheckpointEvery is how many completed outer records a scan may advance before its
	// checkpoint is saved.
	CheckpointEvery int
}

// DuplicateService is the default implementation of the DuplicateServiceInterface.
type DuplicateService struct {
	deps Dependencies
}

var (
	serviceOnce     sync.Once
	serviceInstance *DuplicateService
)

// GetDuplicateService returns the shared service backed by the configured database.
func GetDuplicateService() DuplicateServiceInterface {

	serviceOnce.Do(func() {
		dbProvider := provider.NewDBProvider()
		deps := Dependencies{
			Records:     recordstore.NewRecordStore(dbProvider),
			Rules:       ruleservice.GetMatchRuleService(),
			Candidates:  store.NewCandidateStore(dbProvider),
			MergeLogs:   store.NewMergeLogStore(dbProvider),
			Checkpoints: store.NewCheckpointStore(dbProvider),
			TxRunner:    provider.NewTxRunner(dbProvider),
			Retargeters: references.Collaborators(dbProvider.GetDBType()),
		}
		if config.IsInitialized() {
			deps.CheckWindow = config.GetDDSRuntime().Config.Dedupe.CheckWindow
			deps.ScanWorkers = config.GetDDSRuntime().Config.Dedupe.ScanWorkers
		}
		serviceInstance = NewDuplicateService(deps)
	})
	return serviceInstance
}

func NewDuplicateService(deps Dependencies) *DuplicateService {

	if deps.CheckWindow <= 0 {
		deps.CheckWindow = config.DefaultCheckWindow
	}
	if deps.ScanWorkers <= 0 {
		deps.ScanWorkers = config.DefaultScanWorkers
	}
	if deps.CheckpointEvery <= 0 {
		deps.CheckpointEvery = defaultCheckpointEvery
	}
	return &DuplicateService{deps: deps}
}

// CheckForDuplicates compares fields against a bounded window of the dataset's records,
// skipping excludeID, and returns every record matched by at least one active rule, best
// score first.
func (s *DuplicateService) CheckForDuplicates(ctx context.Context, datasetID int64, fields map[string]interface{},
	excludeID int64) ([]model.DuplicateMatch, error) {

	start := time.Now()
	defer func() {
		metrics.DuplicateCheckDuration.Observe(time.Since(start).Seconds())
	}()

	rules, err := s.activeRules(ctx, datasetID)
	if err != nil {
		metrics.DuplicateChecksTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	matches := []model.DuplicateMatch{}
	if len(rules) == 0 {
		metrics.DuplicateChecksTotal.WithLabelValues("no_rules").Inc()
		return matches, nil
	}

	existing, err := s.deps.Records.ListRecordsWindow(ctx, datasetID, excludeID, s.deps.CheckWindow)
	if err != nil {
		metrics.DuplicateChecksTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	for _, record := range existing {
		result, err := matching.EvaluateRules(rules, fields, record.Fields)
		if err != nil {
			metrics.DuplicateChecksTotal.WithLabelValues("error").Inc()
			return nil, evaluationError(datasetID, err)
		}
		if !result.Matched {
			continue
		}
		matches = append(matches, model.DuplicateMatch{
			Record:       record,
			Score:        result.Score,
			Action:       result.Action,
			MatchedRules: result.MatchedRules,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	outcome := "clean"
	if len(matches) > 0 {
		outcome = "duplicates"
	}
	metrics.DuplicateChecksTotal.WithLabelValues(outcome).Inc()
	return matches, nil
}

// Check validates req and runs CheckForDuplicates against a dataset of the tenant.
func (s *DuplicateService) Check(ctx context.Context, tenantID string, datasetID int64,
	req model.CheckRequest) (*model.CheckResponse, error) {

	if err := validation.Struct(req, errors.INVALID_RECORD); err != nil {
		return nil, err
	}
	if _, err := s.GetDataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}
	matches, err := s.CheckForDuplicates(ctx, datasetID, req.Fields, req.ExcludeID)
	if err != nil {
		return nil, err
	}
	response := model.NewCheckResponse(matches, constants.MaxCheckResults)
	return &response, nil
}

// GetDataset returns the dataset when it exists and belongs to the tenant.
func (s *DuplicateService) GetDataset(ctx context.Context, tenantID string, datasetID int64) (*recordmodel.Dataset, error) {

	dataset, err := s.deps.Records.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if dataset == nil || (tenantID != "" && dataset.TenantID != tenantID) {
		return nil, errors.NewNotFoundError(errors.DATASET_NOT_FOUND,
			fmt.Sprintf("Dataset %d does not exist.", datasetID))
	}
	return dataset, nil
}

func (s *DuplicateService) activeRules(ctx context.Context, datasetID int64) ([]matching.Rule, error) {

	stored, err := s.deps.Rules.ListActiveRules(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	rules := make([]matching.Rule, 0, len(stored))
	for _, rule := range stored {
		rules = append(rules, rule.ToRule())
	}
	return rules, nil
}

func (s *DuplicateService) publisher() events.Publisher {
	if s.deps.Publisher != nil {
		return s.deps.Publisher
	}
	return events.GetPublisher()
}

func (s *DuplicateService) publish(eventType, tenantID string, datasetID int64, data interface{}) {
	events.PublishAsync(s.publisher(), events.Event{
		Type:      eventType,
		TenantID:  tenantID,
		DatasetID: datasetID,
		Data:      data,
	})
}

func evaluationError(datasetID int64, err error) error {

	errorMsg := fmt.Sprintf("Failed to evaluate duplicate rules of dataset %d: %v", datasetID, err)
	log.GetLogger().Error(errorMsg)
	return errors.NewServerError(errors.ErrorMessage{
		Code:        errors.SCAN_FAILED.Code,
		Message:     errors.SCAN_FAILED.Message,
		Description: errorMsg,
	}, err)
}

func isClientError(err error) bool {
	status := errors.StatusOf(err)
	return status >= 400 && status < 500
}
