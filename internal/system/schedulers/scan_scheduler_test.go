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
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/workers"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type staticDatasets struct {
	datasets []recordmodel.Dataset
	err      error
}

func (s staticDatasets) ListDatasets(_ context.Context, tenantID string) ([]recordmodel.Dataset, error) {
	if tenantID != "" {
		return nil, fmt.Errorf("expected every tenant")
	}
	return s.datasets, s.err
}

func datasets(ids ...int64) staticDatasets {
	out := staticDatasets{}
	for _, id := range ids {
		out.datasets = append(out.datasets, recordmodel.Dataset{ID: id, TenantID: "carbon.super"})
	}
	return out
}

func TestEnqueueScans_QueuesResumableScanPerDataset(t *testing.T) {
	var jobs []workers.ScanJob
	enqueue := func(job workers.ScanJob) (workers.ScanJob, error) {
		jobs = append(jobs, job)
		return job, nil
	}

	queued := enqueueScans(context.Background(), datasets(1, 2, 3), enqueue, 250)
	assert.Equal(t, 3, queued)
	assert.Len(t, jobs, 3)
	for _, job := range jobs {
		assert.True(t, job.Options.Resume)
		assert.Equal(t, 250, job.Options.Limit)
		assert.Equal(t, schedulerInitiator, job.QueuedBy)
		assert.Equal(t, "carbon.super", job.TenantID)
	}
}

func TestEnqueueScans_StopsAtFullQueue(t *testing.T) {
	calls := 0
	enqueue := func(job workers.ScanJob) (workers.ScanJob, error) {
		calls++
		if calls > 2 {
			return workers.ScanJob{}, errors.NewClientError(errors.SCAN_QUEUE_FULL, http.StatusServiceUnavailable)
		}
		return job, nil
	}

	queued := enqueueScans(context.Background(), datasets(1, 2, 3, 4, 5), enqueue, 0)
	assert.Equal(t, 2, queued)
	assert.Equal(t, 3, calls)
}

func TestEnqueueScans_ListFailure(t *testing.T) {
	enqueue := func(job workers.ScanJob) (workers.ScanJob, error) {
		t.Fatal("nothing should be queued")
		return job, nil
	}
	queued := enqueueScans(context.Background(), staticDatasets{err: fmt.Errorf("db down")}, enqueue, 0)
	assert.Zero(t, queued)
}

func TestStartScanScheduler_DisabledAndCancelled(t *testing.T) {
	done := make(chan struct{})
	go func() {
		StartScanScheduler(context.Background(), 0, datasets(1), nil, 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a disabled scheduler should return immediately")
	}

	ctx, cancel := context.WithCancel(context.Background())
	queued := make(chan workers.ScanJob, 16)
	stopped := make(chan struct{})
	go func() {
		StartScanScheduler(ctx, 10*time.Millisecond, datasets(9), func(job workers.ScanJob) (workers.ScanJob, error) {
			select {
			case queued <- job:
			default:
			}
			return job, nil
		}, 0)
		close(stopped)
	}()

	select {
	case job := <-queued:
		assert.Equal(t, int64(9), job.DatasetID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a periodic scan")
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
