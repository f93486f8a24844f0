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
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/system/database/lock"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type recordingScanner struct {
	mu    sync.Mutex
	scans []int64
	opts  []model.ScanOptions
	err   error
}

func (s *recordingScanner) ScanDatasetForDuplicates(_ context.Context, datasetID int64,
	opts model.ScanOptions) (*model.ScanResult, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = append(s.scans, datasetID)
	s.opts = append(s.opts, opts)
	if s.err != nil {
		return nil, s.err
	}
	return &model.ScanResult{DatasetID: datasetID}, nil
}

func (s *recordingScanner) calls() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.scans...)
}

// ---------------------------------------------------------------------------
// Queueing
// ---------------------------------------------------------------------------

func TestEnqueue_AssignsIDAndRunsJob(t *testing.T) {
	scanner := &recordingScanner{}
	pool := NewScanWorkerPool(scanner, lock.NewLocalLock(), 4)
	pool.Start(context.Background(), 2)

	job, err := pool.Enqueue(ScanJob{DatasetID: 7, Options: model.ScanOptions{Limit: 10, Resume: true}})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	pool.Stop()
	assert.Equal(t, []int64{7}, scanner.calls())
	assert.Equal(t, model.ScanOptions{Limit: 10, Resume: true}, scanner.opts[0])
}

func TestEnqueue_FullQueueIsUnavailable(t *testing.T) {
	pool := NewScanWorkerPool(&recordingScanner{}, lock.NewLocalLock(), 1)

	_, err := pool.Enqueue(ScanJob{DatasetID: 1})
	require.NoError(t, err)

	_, err = pool.Enqueue(ScanJob{DatasetID: 2})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, errors.StatusOf(err))
	assert.Contains(t, err.Error(), errors.SCAN_QUEUE_FULL.Code)
}

func TestEnqueue_AfterStopIsUnavailable(t *testing.T) {
	pool := NewScanWorkerPool(&recordingScanner{}, lock.NewLocalLock(), 1)
	pool.Start(context.Background(), 1)
	pool.Stop()
	pool.Stop()

	_, err := pool.Enqueue(ScanJob{DatasetID: 1})
	assert.Equal(t, http.StatusServiceUnavailable, errors.StatusOf(err))
}

func TestEnqueueScan_RequiresRunningPool(t *testing.T) {
	poolMu.Lock()
	previous := scanPool
	scanPool = nil
	poolMu.Unlock()
	defer func() {
		poolMu.Lock()
		scanPool = previous
		poolMu.Unlock()
	}()

	_, err := EnqueueScan(ScanJob{DatasetID: 1})
	assert.Equal(t, http.StatusServiceUnavailable, errors.StatusOf(err))

	scanner := &recordingScanner{}
	pool := StartScanWorkers(context.Background(), scanner, lock.NewLocalLock(), 2, 1)
	_, err = EnqueueScan(ScanJob{DatasetID: 3})
	require.NoError(t, err)
	pool.Stop()
	assert.Equal(t, []int64{3}, scanner.calls())
}

// ---------------------------------------------------------------------------
// Locking
// ---------------------------------------------------------------------------

func TestRun_SkipsDatasetBeingScanned(t *testing.T) {
	locker := lock.NewLocalLock()
	acquired, err := locker.Acquire(context.Background(), fmt.Sprintf("%s%d", scanLockPrefix, 5))
	require.NoError(t, err)
	require.True(t, acquired)

	scanner := &recordingScanner{}
	pool := NewScanWorkerPool(scanner, locker, 4)
	pool.Start(context.Background(), 1)
	_, err = pool.Enqueue(ScanJob{DatasetID: 5})
	require.NoError(t, err)
	_, err = pool.Enqueue(ScanJob{DatasetID: 6})
	require.NoError(t, err)
	pool.Stop()

	assert.Equal(t, []int64{6}, scanner.calls())
}

func TestRun_ReleasesLockAfterFailure(t *testing.T) {
	locker := lock.NewLocalLock()
	scanner := &recordingScanner{err: fmt.Errorf("boom")}
	pool := NewScanWorkerPool(scanner, locker, 4)
	pool.Start(context.Background(), 1)
	_, err := pool.Enqueue(ScanJob{DatasetID: 5})
	require.NoError(t, err)
	pool.Stop()

	acquired, err := locker.Acquire(context.Background(), fmt.Sprintf("%s%d", scanLockPrefix, 5))
	require.NoError(t, err)
	assert.True(t, acquired)
}
