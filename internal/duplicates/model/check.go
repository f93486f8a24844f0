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
	"math"

	"github.com/wso2/record-deduplication-service/internal/matching"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
)

// DuplicateMatch is an existing record matched by a real-time check.
type DuplicateMatch struct {
	Record       recordmodel.Record   `json:"record"`
	Score        float64              `json:"score"`
	Action       matching.Action      `json:"action"`
	MatchedRules []matching.RuleMatch `json:"matched_rules"`
}

type CheckRequest struct {
	Fields    map[string]interface{} `json:"fields" validate:"required"`
	ExcludeID int64                  `json:"exclude_id" validate:"gte=0"`
}

// CheckMatch is the API view of a DuplicateMatch. Score is a percentage.
type CheckMatch struct {
	RecordID     int64                  `json:"record_id"`
	Fields       map[string]interface{} `json:"fields"`
	Score        float64                `json:"score"`
	Action       matching.Action        `json:"action"`
	MatchedRules []matching.RuleMatch   `json:"matched_rules"`
}

type CheckResponse struct {
	HasDuplicates bool         `json:"has_duplicates"`
	ShouldBlock   bool         `json:"should_block"`
	Matches       []CheckMatch `json:"matches"`
}

// NewCheckResponse keeps the first limit matches, which are expected in ranked order.
// ShouldBlock considers every match, not only the kept ones.
func NewCheckResponse(matches []DuplicateMatch, limit int) CheckResponse {

	response := CheckResponse{HasDuplicates: len(matches) > 0, Matches: []CheckMatch{}}
	for i, m := range matches {
		if m.Action == matching.ActionBlock {
			response.ShouldBlock = true
		}
		if limit > 0 && i >= limit {
			continue
		}
		response.Matches = append(response.Matches, CheckMatch{
			RecordID:     m.Record.ID,
			Fields:       m.Record.Fields,
			Score:        math.Round(m.Score * 100),
			Action:       m.Action,
			MatchedRules: m.MatchedRules,
		})
	}
	return response
}
