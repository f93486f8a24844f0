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

package workers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/system/database/lock"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/metrics"
)

const scanLockPrefix = "duplicate-scan:"

// ScanJob is one queued batch scan of a dataset.
type ScanJob struct {
	ID        string
	TenantID  string
	DatasetID int64
	Options   model.ScanOptions
	QueuedBy  string
}

// Scanner runs a batch scan.
type Scanner interface {
	ScanDatasetForDuplicates(ctx context.Context, datasetID int64, opts model.ScanOptions) (*model.ScanResult, error)
}

// ScanWorkerPool runs queued scans on a fixed number of goroutines. A dataset is scanned by
// at most one job at a time across every instance sharing the lock.
type ScanWorkerPool struct {
	jobs    chan ScanJob
	scanner Scanner
	locker  lock.DistributedLock

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var (
	poolMu   sync.RWMutex
	scanPool *ScanWorkerPool
)

func NewScanWorkerPool(scanner Scanner, locker lock.DistributedLock, queueSize int) *ScanWorkerPool {

	if queueSize <= 0 {
		queueSize = 1
	}
	return &ScanWorkerPool{
		jobs:    make(chan ScanJob, queueSize),
		scanner: scanner,
		locker:  locker,
	}
}

// StartScanWorkers starts a pool and makes it the target of EnqueueScan.
func StartScanWorkers(ctx context.Context, scanner Scanner, locker lock.DistributedLock, queueSize,
	workers int) *ScanWorkerPool {

	pool := NewScanWorkerPool(scanner, locker, queueSize)
	pool.Start(ctx, workers)

	poolMu.Lock()
	scanPool = pool
	poolMu.Unlock()
	return pool
}

// EnqueueScan queues job on the pool started by StartScanWorkers.
func EnqueueScan(job ScanJob) (ScanJob, error) {

	poolMu.RLock()
	pool := scanPool
	poolMu.RUnlock()
	if pool == nil {
		return ScanJob{}, queueUnavailable("The duplicate scan workers are not running.")
	}
	return pool.Enqueue(job)
}

func (p *ScanWorkerPool) Start(ctx context.Context, workers int) {

	for i := 0; i < max(1, workers); i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.run(ctx, job)
			}
		}()
	}
}

// Enqueue adds job without blocking. A full queue is reported as 503.
func (p *ScanWorkerPool) Enqueue(job ScanJob) (ScanJob, error) {

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ScanJob{}, queueUnavailable("The duplicate scan workers are shutting down.")
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	select {
	case p.jobs <- job:
		metrics.ScanJobsTotal.WithLabelValues("queued").Inc()
		log.GetLogger().Debug("Queued duplicate scan", log.String("job_id", job.ID),
			log.Int64("dataset_id", job.DatasetID))
		return job, nil
	default:
		metrics.ScanJobsTotal.WithLabelValues("rejected").Inc()
		return ScanJob{}, queueUnavailable("")
	}
}

// Stop rejects new jobs and waits for the queued ones to finish.
func (p *ScanWorkerPool) Stop() {

	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *ScanWorkerPool) run(ctx context.Context, job ScanJob) {

	logger := log.GetLogger().With(log.String("job_id", job.ID), log.Int64("dataset_id", job.DatasetID))
	key := fmt.Sprintf("%s%d", scanLockPrefix, job.DatasetID)

	acquired, err := p.locker.Acquire(ctx, key)
	if err != nil {
		metrics.ScanJobsTotal.WithLabelValues("failed").Inc()
		logger.Error("Failed to acquire the scan lock", log.Error(err))
		return
	}
	if !acquired {
		metrics.ScanJobsTotal.WithLabelValues("skipped").Inc()
		logger.Info("Dataset is already being scanned. Skipping job.")
		return
	}
	defer func() {
		if err := p.locker.Release(context.WithoutCancel(ctx), key); err != nil {
			logger.Warn("Failed to release the scan lock", log.Error(err))
		}
	}()

	result, err := p.scanner.ScanDatasetForDuplicates(ctx, job.DatasetID, job.Options)
	if err != nil {
		metrics.ScanJobsTotal.WithLabelValues("failed").Inc()
		logger.Error("Duplicate scan job failed", log.Error(err))
		return
	}
	metrics.ScanJobsTotal.WithLabelValues("completed").Inc()
	logger.Info("Duplicate scan job completed", log.Int("candidates_created", result.CandidatesCreated),
		log.Bool("limit_reached", result.LimitReached))
}

func queueUnavailable(description string) error {

	err := errors.NewClientError(errors.SCAN_QUEUE_FULL, http.StatusServiceUnavailable)
	if description != "" {
		err.Description = description
	}
	return err
}
