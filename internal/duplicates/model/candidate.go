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

package model

import (
	"time"

	"github.com/wso2/record-deduplication-service/internal/matching"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
)

type CandidateStatus string

const (
	StatusPending   CandidateStatus = "pending"
	StatusDismissed CandidateStatus = "dismissed"
	StatusMerged    CandidateStatus = "merged"
)

func (s CandidateStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusDismissed, StatusMerged:
		return true
	}
	return false
}

// PairKey identifies an unordered pair of records. A is always the lower id.
type PairKey struct {
	A int64
	B int64
}

// NewPairKey orders x and y canonically.
func NewPairKey(x, y int64) PairKey {
	if x > y {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

// Candidate is a persisted pair of records flagged as possible duplicates.
type Candidate struct {
	ID            int64                `json:"id"`
	DatasetID     int64                `json:"dataset_id"`
	RecordIDA     int64                `json:"record_id_a"`
	RecordIDB     int64                `json:"record_id_b"`
	MatchScore    float64              `json:"match_score"`
	MatchedRules  []matching.RuleMatch `json:"matched_rules"`
	Status        CandidateStatus      `json:"status"`
	ReviewedBy    string               `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time           `json:"reviewed_at,omitempty"`
	DismissReason string               `json:"dismiss_reason,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewCandidate builds a pending candidate for a matched pair with canonical id order.
func NewCandidate(datasetID, x, y int64, result matching.MatchResult) Candidate {
	key := NewPairKey(x, y)
	return Candidate{
		DatasetID:    datasetID,
		RecordIDA:    key.A,
		RecordIDB:    key.B,
		MatchScore:   result.Score,
		MatchedRules: result.MatchedRules,
		Status:       StatusPending,
	}
}

// Key returns the pair of the candidate.
func (c Candidate) Key() PairKey {
	return NewPairKey(c.RecordIDA, c.RecordIDB)
}

// CandidateDetail is a candidate with both records loaded. A record merged away since the
// candidate was created is nil.
type CandidateDetail struct {
	Candidate
	RecordA *recordmodel.Record `json:"record_a"`
	RecordB *recordmodel.Record `json:"record_b"`
}

// CandidateFilter narrows a candidate listing. Zero values do not filter.
type CandidateFilter struct {
	Status   CandidateStatus
	MinScore *float64
	RecordID int64
}

type CandidateStats struct {
	Pending        int64 `json:"pending"`
	Dismissed      int64 `json:"dismissed"`
	Merged         int64 `json:"merged"`
	Total          int64 `json:"total"`
	HighConfidence int64 `json:"high_confidence"`
}

type DismissRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
