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
	rulemodel "github.com/wso2/record-deduplication-service/internal/match_rules/model"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/events"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
)

// memoryDB implements every store the service uses plus a TxRunner that restores the
// previous state when the transaction function fails.
type memoryDB struct {
	mu          sync.Mutex
	datasets    map[int64]recordmodel.Dataset
	records     map[int64]recordmodel.Record
	candidates  map[int64]model.Candidate
	mergeLogs   []model.MergeLog
	checkpoints map[int64]model.ScanCheckpoint
	refs        map[string]map[int64]int64
	nextID      int64
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		datasets:    map[int64]recordmodel.Dataset{},
		records:     map[int64]recordmodel.Record{},
		candidates:  map[int64]model.Candidate{},
		checkpoints: map[int64]model.ScanCheckpoint{},
		refs:        map[string]map[int64]int64{},
		nextID:      1000,
	}
}

func (db *memoryDB) addDataset(id int64, tenantID string, fields ...string) {
	dataset := recordmodel.Dataset{ID: id, TenantID: tenantID, Name: fmt.Sprintf("dataset-%d", id)}
	for _, f := range fields {
		dataset.Fields = append(dataset.Fields, recordmodel.DatasetField{Name: f})
	}
	db.datasets[id] = dataset
}

func (db *memoryDB) addRecord(id, datasetID int64, fields map[string]interface{}) {
	db.records[id] = recordmodel.Record{ID: id, DatasetID: datasetID, Fields: fields}
}

func (db *memoryDB) addCandidate(datasetID, x, y int64, score float64) int64 {
	db.nextID++
	c := model.NewCandidate(datasetID, x, y, scoreResult(score))
	c.ID = db.nextID
	db.candidates[c.ID] = c
	return c.ID
}

func (db *memoryDB) addRef(collaborator string, recordID, n int64) {
	if db.refs[collaborator] == nil {
		db.refs[collaborator] = map[int64]int64{}
	}
	db.refs[collaborator][recordID] += n
}

func (db *memoryDB) candidateByPair(x, y int64) (model.Candidate, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	key := model.NewPairKey(x, y)
	for _, c := range db.candidates {
		if c.Key() == key {
			return c, true
		}
	}
	return model.Candidate{}, false
}

func (db *memoryDB) pairs() map[model.PairKey]model.CandidateStatus {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := map[model.PairKey]model.CandidateStatus{}
	for _, c := range db.candidates {
		out[c.Key()] = c.Status
	}
	return out
}

type memorySnapshot struct {
	records     map[int64]recordmodel.Record
	candidates  map[int64]model.Candidate
	mergeLogs   []model.MergeLog
	checkpoints map[int64]model.ScanCheckpoint
	refs        map[string]map[int64]int64
}

func (db *memoryDB) RunInTx(ctx context.Context, fn func(tx client.Executor) error) error {

	db.mu.Lock()
	snap := memorySnapshot{
		records:     map[int64]recordmodel.Record{},
		candidates:  map[int64]model.Candidate{},
		mergeLogs:   append([]model.MergeLog(nil), db.mergeLogs...),
		checkpoints: map[int64]model.ScanCheckpoint{},
		refs:        map[string]map[int64]int64{},
	}
	for k, v := range db.records {
		snap.records[k] = v
	}
	for k, v := range db.candidates {
		snap.candidates[k] = v
	}
	for k, v := range db.checkpoints {
		snap.checkpoints[k] = v
	}
	for name, counts := range db.refs {
		snap.refs[name] = map[int64]int64{}
		for k, v := range counts {
			snap.refs[name][k] = v
		}
	}
	db.mu.Unlock()

	if err := fn(nil); err != nil {
		db.mu.Lock()
		db.records = snap.records
		db.candidates = snap.candidates
		db.mergeLogs = snap.mergeLogs
		db.checkpoints = snap.checkpoints
		db.refs = snap.refs
		db.mu.Unlock()
		return err
	}
	return nil
}

// ---- records

func (db *memoryDB) GetDataset(_ context.Context, id int64) (*recordmodel.Dataset, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	d, ok := db.datasets[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (db *memoryDB) GetRecordByID(_ context.Context, id int64) (*recordmodel.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	r, ok := db.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (db *memoryDB) sortedRecords(datasetID int64) []recordmodel.Record {
	out := []recordmodel.Record{}
	for _, r := range db.records {
		if r.DatasetID == datasetID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (db *memoryDB) ListRecords(_ context.Context, datasetID int64) ([]recordmodel.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.sortedRecords(datasetID), nil
}

func (db *memoryDB) ListRecordsWindow(_ context.Context, datasetID, excludeID int64, limit int) ([]recordmodel.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []recordmodel.Record{}
	sorted := db.sortedRecords(datasetID)
	for i := len(sorted) - 1; i >= 0 && len(out) < limit; i-- {
		if sorted[i].ID != excludeID {
			out = append(out, sorted[i])
		}
	}
	return out, nil
}

func (db *memoryDB) LockRecords(_ context.Context, _ client.Executor, ids []int64) ([]recordmodel.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []recordmodel.Record{}
	for _, id := range ids {
		if r, ok := db.records[id]; ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (db *memoryDB) UpdateFields(_ context.Context, _ client.Executor, id int64, fields map[string]interface{}) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	r := db.records[id]
	r.Fields = fields
	db.records[id] = r
	return nil
}

func (db *memoryDB) DeleteRecord(_ context.Context, _ client.Executor, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.records[id]
	delete(db.records, id)
	return ok, nil
}

// ---- candidates

func (db *memoryDB) InsertCandidate(_ context.Context, c model.Candidate) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, existing := range db.candidates {
		if existing.DatasetID == c.DatasetID && existing.Key() == c.Key() {
			return false, nil
		}
	}
	db.nextID++
	c.ID = db.nextID
	db.candidates[c.ID] = c
	return true, nil
}

func (db *memoryDB) ListCandidatePairs(_ context.Context, datasetID int64) (map[model.PairKey]struct{}, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := map[model.PairKey]struct{}{}
	for _, c := range db.candidates {
		if c.DatasetID == datasetID {
			out[c.Key()] = struct{}{}
		}
	}
	return out, nil
}

func (db *memoryDB) GetCandidate(_ context.Context, id int64) (*model.Candidate, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.candidates[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (db *memoryDB) ListCandidates(_ context.Context, datasetID int64, filter model.CandidateFilter,
	page pagination.PageRequest) ([]model.Candidate, int64, error) {

	db.mu.Lock()
	defer db.mu.Unlock()
	matched := []model.Candidate{}
	for _, c := range db.candidates {
		if c.DatasetID != datasetID || (filter.Status != "" && c.Status != filter.Status) {
			continue
		}
		if filter.MinScore != nil && c.MatchScore < *filter.MinScore {
			continue
		}
		if filter.RecordID > 0 && c.RecordIDA != filter.RecordID && c.RecordIDB != filter.RecordID {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].MatchScore != matched[j].MatchScore {
			return matched[i].MatchScore > matched[j].MatchScore
		}
		return matched[i].ID < matched[j].ID
	})
	total := int64(len(matched))
	from := min(page.Offset(), len(matched))
	to := min(from+page.PerPage, len(matched))
	return matched[from:to], total, nil
}

func (db *memoryDB) DismissCandidate(_ context.Context, id int64, reviewer, reason string) (*model.Candidate, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.candidates[id]
	if !ok || c.Status != model.StatusPending {
		return nil, nil
	}
	now := testNow
	c.Status = model.StatusDismissed
	c.ReviewedBy = reviewer
	c.ReviewedAt = &now
	c.DismissReason = reason
	db.candidates[id] = c
	return &c, nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (db *memoryDB) MarkMerged(_ context.Context, _ client.Executor, datasetID int64, reviewer string,
	recordIDs []int64) (int64, error) {

	db.mu.Lock()
	defer db.mu.Unlock()
	var n int64
	for id, c := range db.candidates {
		if c.DatasetID == datasetID && contains(recordIDs, c.RecordIDA) && contains(recordIDs, c.RecordIDB) {
			now := testNow
			c.Status = model.StatusMerged
			c.ReviewedBy = reviewer
			c.ReviewedAt = &now
			db.candidates[id] = c
			n++
		}
	}
	return n, nil
}

func (db *memoryDB) DeleteReferencing(_ context.Context, _ client.Executor, datasetID int64,
	mergedIDs []int64) (int64, error) {

	db.mu.Lock()
	defer db.mu.Unlock()
	var n int64
	for id, c := range db.candidates {
		if c.DatasetID != datasetID {
			continue
		}
		if contains(mergedIDs, c.RecordIDA) || contains(mergedIDs, c.RecordIDB) {
			delete(db.candidates, id)
			n++
		}
	}
	return n, nil
}

func (db *memoryDB) Stats(_ context.Context, datasetID int64, minScore float64) (model.CandidateStats, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var stats model.CandidateStats
	for _, c := range db.candidates {
		if c.DatasetID != datasetID {
			continue
		}
		switch c.Status {
		case model.StatusPending:
			stats.Pending++
			if c.MatchScore >= minScore {
				stats.HighConfidence++
			}
		case model.StatusDismissed:
			stats.Dismissed++
		case model.StatusMerged:
			stats.Merged++
		}
		stats.Total++
	}
	return stats, nil
}

// ---- merge logs

func (db *memoryDB) InsertMergeLog(_ context.Context, _ client.Executor, entry model.MergeLog) (*model.MergeLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextID++
	entry.ID = db.nextID
	entry.CreatedAt = testNow
	db.mergeLogs = append(db.mergeLogs, entry)
	return &entry, nil
}

func (db *memoryDB) GetMergeLog(_ context.Context, id int64) (*model.MergeLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, entry := range db.mergeLogs {
		if entry.ID == id {
			return &entry, nil
		}
	}
	return nil, nil
}

func (db *memoryDB) FindMergeOf(_ context.Context, recordID int64) (int64, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := len(db.mergeLogs) - 1; i >= 0; i-- {
		if contains(db.mergeLogs[i].MergedRecordIDs, recordID) {
			return db.mergeLogs[i].ID, db.mergeLogs[i].SurvivingRecordID, nil
		}
	}
	return 0, 0, nil
}

func (db *memoryDB) ListMergeLogs(_ context.Context, datasetID int64, page pagination.PageRequest) ([]model.MergeLog, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []model.MergeLog{}
	for i := len(db.mergeLogs) - 1; i >= 0; i-- {
		if db.mergeLogs[i].DatasetID == datasetID {
			out = append(out, db.mergeLogs[i])
		}
	}
	total := int64(len(out))
	from := min(page.Offset(), len(out))
	to := min(from+page.PerPage, len(out))
	return out[from:to], total, nil
}

// ---- checkpoints

func (db *memoryDB) GetCheckpoint(_ context.Context, datasetID int64) (*model.ScanCheckpoint, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp, ok := db.checkpoints[datasetID]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (db *memoryDB) SaveCheckpoint(_ context.Context, checkpoint model.ScanCheckpoint) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.checkpoints[checkpoint.DatasetID] = checkpoint
	return nil
}

func (db *memoryDB) DeleteCheckpoint(_ context.Context, datasetID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.checkpoints, datasetID)
	return nil
}

// ---- collaborators

type staticRules []rulemodel.MatchRule

func (r staticRules) ListActiveRules(_ context.Context, datasetID int64) ([]rulemodel.MatchRule, error) {
	out := []rulemodel.MatchRule{}
	for _, rule := range r {
		if rule.DatasetID == datasetID && rule.IsActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

// memoryRetargeter moves reference counts kept in memoryDB.refs.
type memoryRetargeter struct {
	name string
	db   *memoryDB
	err  error
}

func (r memoryRetargeter) Name() string { return r.name }

func (r memoryRetargeter) BulkRetarget(_ context.Context, _ client.Executor, _, oldID, newID int64) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	counts := r.db.refs[r.name]
	n := counts[oldID]
	if n > 0 {
		counts[newID] += n
		delete(counts, oldID)
	}
	return n, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// slowCandidates delays every insert so concurrent shards race for the scan limit.
type slowCandidates struct {
	*memoryDB
	delay time.Duration
}

func (s slowCandidates) InsertCandidate(ctx context.Context, c model.Candidate) (bool, error) {
	time.Sleep(s.delay)
	return s.memoryDB.InsertCandidate(ctx, c)
}
