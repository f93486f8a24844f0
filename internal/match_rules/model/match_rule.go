/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
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
	"encoding/json"
	"time"

	"github.com/wso2/record-deduplication-service/internal/matching"
)

// MatchRule is a condition tree plus the action proposed when it matches a pair.
type MatchRule struct {
	ID          string                 `json:"id"`
	DatasetID   int64                  `json:"dataset_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Conditions  matching.ConditionNode `json:"conditions"`
	Action      matching.Action        `json:"action"`
	Priority    int                    `json:"priority"`
	IsActive    bool                   `json:"is_active"`
	CreatedBy   string                 `json:"created_by,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ToRule returns the evaluation view of the rule.
func (r MatchRule) ToRule() matching.Rule {
	return matching.Rule{
		ID:         r.ID,
		Name:       r.Name,
		Action:     r.Action,
		Priority:   r.Priority,
		Conditions: r.Conditions,
	}
}

// MatchRuleRequest is the body of create and full update requests.
type MatchRuleRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Conditions  json.RawMessage `json:"conditions" validate:"required"`
	Action      string          `json:"action" validate:"omitempty,oneof=warn block auto_merge"`
	Priority    *int            `json:"priority" validate:"omitempty,gte=0,lte=1000"`
	IsActive    *bool           `json:"is_active"`
}

// MatchRulePatch is the body of a partial update. Absent fields keep their value.
type MatchRulePatch struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string         `json:"description"`
	Conditions  json.RawMessage `json:"conditions"`
	Action      *string         `json:"action" validate:"omitempty,oneof=warn block auto_merge"`
	Priority    *int            `json:"priority" validate:"omitempty,gte=0,lte=1000"`
	IsActive    *bool           `json:"is_active"`
}
