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

package schedulers

import (
	"context"
	"time"

	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/workers"
)

const schedulerInitiator = "scan-scheduler"

type datasetLister interface {
	ListDatasets(ctx context.Context, tenantID string) ([]recordmodel.Dataset, error)
}

// EnqueueFunc queues a scan job.
type EnqueueFunc func(job workers.ScanJob) (workers.ScanJob, error)

// StartScanScheduler queues a resumable scan of every dataset each interval until ctx is
// done. A non-positive interval disables the scheduler.
func StartScanScheduler(ctx context.Context, interval time.Duration, datasets datasetLister, enqueue EnqueueFunc,
	limit int) {

	logger := log.GetLogger()
	if interval <= 0 {
		logger.Info("Periodic duplicate scans are disabled")
		return
	}
	logger.Info("Starting periodic duplicate scans", log.String("interval", interval.String()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueueScans(ctx, datasets, enqueue, limit)
		}
	}
}

// enqueueScans queues one job per dataset and stops at the first full queue.
func enqueueScans(ctx context.Context, datasets datasetLister, enqueue EnqueueFunc, limit int) int {

	logger := log.GetLogger()
	all, err := datasets.ListDatasets(ctx, "")
	if err != nil {
		logger.Error("Failed to list datasets for the periodic scan", log.Error(err))
		return 0
	}

	queued := 0
	for _, dataset := range all {
		_, err := enqueue(workers.ScanJob{
			TenantID:  dataset.TenantID,
			DatasetID: dataset.ID,
			Options:   model.ScanOptions{Limit: limit, Resume: true},
			QueuedBy:  schedulerInitiator,
		})
		if err != nil {
			if errors.StatusOf(err) < 500 {
				logger.Warn("Failed to queue periodic scan", log.Int64("dataset_id", dataset.ID), log.Error(err))
				continue
			}
			logger.Warn("Scan queue is full. Remaining datasets wait for the next run.", log.Int("queued", queued))
			break
		}
		queued++
	}
	logger.Debug("Queued periodic duplicate scans", log.Int("queued", queued))
	return queued
}
