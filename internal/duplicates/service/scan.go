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
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/matching"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultCheckpointEvery = 500

// scanState is shared by the shards of one scan. existing is read-only once the shards start.
type scanState struct {
	datasetID int64
	rules     []matching.Rule
	records   []recordmodel.Record
	// outer holds the positions in records whose pairs with every later record get compared.
	outer    []int
	existing map[model.PairKey]struct{}
	limit    int

	// createdBefore counts candidates created by the scan being resumed.
	createdBefore int

	reserved atomic.Int64
	stop     atomic.Bool
	progress *scanProgress
}

// shardResult is what one shard reports back. visited holds every pair the shard compared.
type shardResult struct {
	visited map[model.PairKey]struct{}
	created int
}

// scanProgress tracks completed outer positions. The watermark is the number of leading
// positions that are all complete.
type scanProgress struct {
	mu        sync.Mutex
	done      []bool
	watermark int
	saved     int
}

func newScanProgress(n int) *scanProgress {
	return &scanProgress{done: make([]bool, n)}
}

// complete marks pos as done and reports whether the watermark moved at least every
// positions past the last saved one.
func (p *scanProgress) complete(pos, every int) bool {

	p.mu.Lock()
	defer p.mu.Unlock()
	p.done[pos] = true
	for p.watermark < len(p.done) && p.done[p.watermark] {
		p.watermark++
	}
	return p.watermark-p.saved >= every
}

// ScanDatasetForDuplicates compares every pair of the dataset's records once, lower id first,
// and stores a candidate for each pair matched by an active rule that has no candidate yet.
// Outer records are sharded across workers. The scan stops early once opts.Limit candidates
// were created and fails fast on the first evaluation or storage error. Progress is
// checkpointed so that a scan with opts.Resume continues after the last fully compared
// outer record.
func (s *DuplicateService) ScanDatasetForDuplicates(ctx context.Context, datasetID int64,
	opts model.ScanOptions) (*model.ScanResult, error) {

	start := time.Now()
	logger := log.GetLogger().With(log.Int64("dataset_id", datasetID))

	dataset, err := s.GetDataset(ctx, "", datasetID)
	if err != nil {
		return nil, err
	}
	rules, err := s.activeRules(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	result := &model.ScanResult{DatasetID: datasetID}
	var createdBefore int
	if opts.Resume {
		checkpoint, err := s.deps.Checkpoints.GetCheckpoint(ctx, datasetID)
		if err != nil {
			return nil, err
		}
		if checkpoint != nil {
			result.ResumedFrom = checkpoint.LastRecordID
			createdBefore = checkpoint.CandidatesCreated
		}
	}

	if len(rules) == 0 {
		logger.Info("No active duplicate rules. Skipping scan.")
		if err := s.deps.Checkpoints.DeleteCheckpoint(ctx, datasetID); err != nil {
			return nil, err
		}
		result.Duration = time.Since(start)
		return result, nil
	}

	records, err := s.deps.Records.ListRecords(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	existing, err := s.deps.Candidates.ListCandidatePairs(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	state := &scanState{
		datasetID: datasetID,
		rules:     rules,
		records:   records,
		existing:  existing,
		limit:     opts.Limit,

		createdBefore: createdBefore,
	}
	for i := 0; i+1 < len(records); i++ {
		if records[i].ID > result.ResumedFrom {
			state.outer = append(state.outer, i)
		}
	}
	state.progress = newScanProgress(len(state.outer))

	workers := opts.Workers
	if workers <= 0 {
		workers = s.deps.ScanWorkers
	}
	workers = max(1, min(workers, len(state.outer)))

	logger.Info("Starting duplicate scan", log.Int("records", len(records)), log.Int("rules", len(rules)),
		log.Int("workers", workers), log.Int64("resume_after", result.ResumedFrom))

	shards := make([]shardResult, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			shard, err := s.scanShard(gctx, state, w, workers)
			shards[w] = shard
			return err
		})
	}
	scanErr := scanFailed(datasetID, g.Wait())

	for _, shard := range shards {
		result.PairsCompared += int64(len(shard.visited))
		result.CandidatesCreated += shard.created
	}
	result.LimitReached = state.stop.Load()
	result.Duration = time.Since(start)
	metrics.ScanPairsCompared.Add(float64(result.PairsCompared))
	metrics.CandidatesCreated.Add(float64(result.CandidatesCreated))

	if scanErr != nil || result.LimitReached {
		if err := s.saveCheckpoint(ctx, state, createdBefore+result.CandidatesCreated, true); err != nil {
			logger.Warn("Failed to save scan checkpoint", log.Error(err))
		}
	} else if err := s.deps.Checkpoints.DeleteCheckpoint(ctx, datasetID); err != nil {
		logger.Warn("Failed to clear scan checkpoint", log.Error(err))
	}

	if scanErr != nil {
		metrics.ScanDuration.WithLabelValues("failed").Observe(result.Duration.Seconds())
		logger.Error("Duplicate scan failed", log.Int("candidates_created", result.CandidatesCreated),
			log.Error(scanErr))
		return nil, scanErr
	}
	metrics.ScanDuration.WithLabelValues("completed").Observe(result.Duration.Seconds())

	logger.Info("Duplicate scan finished", log.Int("candidates_created", result.CandidatesCreated),
		log.Int64("pairs_compared", result.PairsCompared), log.String("duration", result.Duration.String()))
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   "scanner",
		InitiatorType: log.InitiatorTypeSystem,
		TargetID:      strconv.FormatInt(datasetID, 10),
		TargetType:    log.TargetTypeDataset,
		ActionID:      log.ActionScanCompleted,
		Data:          result,
	})
	s.publish(constants.EventDuplicateScanCompleted, dataset.TenantID, datasetID, result)
	return result, nil
}

// scanShard compares the outer positions w, w+workers, w+2*workers and so on.
func (s *DuplicateService) scanShard(ctx context.Context, state *scanState, w, workers int) (shardResult, error) {

	shard := shardResult{visited: map[model.PairKey]struct{}{}}
	for k := w; k < len(state.outer); k += workers {
		i := state.outer[k]
		recordA := state.records[i]
		for j := i + 1; j < len(state.records); j++ {
			if state.stop.Load() {
				return shard, nil
			}
			if err := ctx.Err(); err != nil {
				return shard, err
			}
			recordB := state.records[j]
			key := model.NewPairKey(recordA.ID, recordB.ID)
			if _, ok := state.existing[key]; ok {
				continue
			}
			if _, ok := shard.visited[key]; ok {
				continue
			}
			shard.visited[key] = struct{}{}

			match, err := matching.EvaluateRules(state.rules, recordA.Fields, recordB.Fields)
			if err != nil {
				return shard, evaluationError(state.datasetID,
					fmt.Errorf("records %d and %d: %w", key.A, key.B, err))
			}
			if !match.Matched {
				continue
			}
			created, limited, err := s.createCandidate(ctx, state,
				model.NewCandidate(state.datasetID, recordA.ID, recordB.ID, match))
			if err != nil {
				return shard, err
			}
			// The pair matched but was not stored, so the outer record stays incomplete.
			if limited {
				return shard, nil
			}
			if created {
				shard.created++
			}
		}
		if state.progress.complete(k, s.deps.CheckpointEvery) {
			created := state.createdBefore + int(state.reserved.Load())
			if err := s.saveCheckpoint(ctx, state, created, false); err != nil {
				return shard, err
			}
		}
	}
	return shard, nil
}

// createCandidate reserves a slot under the limit before inserting, so concurrent shards
// never create more than limit candidates. limited reports a candidate rejected by the limit.
func (s *DuplicateService) createCandidate(ctx context.Context, state *scanState,
	candidate model.Candidate) (created, limited bool, err error) {

	if state.limit > 0 {
		if n := state.reserved.Add(1); n > int64(state.limit) {
			state.reserved.Add(-1)
			state.stop.Store(true)
			return false, true, nil
		}
	} else {
		state.reserved.Add(1)
	}

	created, err = s.deps.Candidates.InsertCandidate(ctx, candidate)
	if err != nil || !created {
		state.reserved.Add(-1)
		return false, false, err
	}
	if state.limit > 0 && state.reserved.Load() >= int64(state.limit) {
		state.stop.Store(true)
	}
	return true, false, nil
}

// saveCheckpoint persists the watermark when it moved past the last saved one. A final save
// also stores an unchanged watermark so the candidate count stays current.
func (s *DuplicateService) saveCheckpoint(ctx context.Context, state *scanState, created int, final bool) error {

	p := state.progress
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.watermark == 0 || (!final && p.watermark <= p.saved) {
		return nil
	}
	checkpoint := model.ScanCheckpoint{
		DatasetID:         state.datasetID,
		LastRecordID:      state.records[state.outer[p.watermark-1]].ID,
		CandidatesCreated: created,
	}
	if err := s.deps.Checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		return err
	}
	p.saved = p.watermark
	return nil
}

// scanFailed wraps errors that are neither client nor server errors, such as a cancelled
// context.
func scanFailed(datasetID int64, err error) error {

	if err == nil || isClientError(err) {
		return err
	}
	if _, ok := err.(*errors.ServerError); ok {
		return err
	}
	return errors.NewServerError(errors.ErrorMessage{
		Code:        errors.SCAN_FAILED.Code,
		Message:     errors.SCAN_FAILED.Message,
		Description: fmt.Sprintf("Duplicate scan of dataset %d failed.", datasetID),
	}, err)
}
