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

package matching

import "fmt"

// Action is what a caller should do when a rule matches.
type Action string

const (
	ActionWarn      Action = "warn"
	ActionBlock     Action = "block"
	ActionAutoMerge Action = "auto_merge"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionWarn, ActionBlock, ActionAutoMerge:
		return true
	}
	return false
}

// Rule is the evaluation view of a configured duplicate rule.
type Rule struct {
	ID         string
	Name       string
	Action     Action
	Priority   int
	Conditions ConditionNode
}

// RuleMatch is the provenance stored for every rule that matched a pair.
type RuleMatch struct {
	RuleID   string            `json:"rule_id"`
	RuleName string            `json:"rule_name"`
	Action   Action            `json:"action"`
	Score    float64           `json:"score"`
	Detail   []ConditionDetail `json:"detail,omitempty"`
}

// MatchResult aggregates the rules that matched a pair.
type MatchResult struct {
	Matched      bool        `json:"matched"`
	Score        float64     `json:"score"`
	Action       Action      `json:"action,omitempty"`
	MatchedRules []RuleMatch `json:"matched_rules"`
}

// EvaluateRules evaluates every rule, expected in priority order, against the pair.
// The score and action come from the highest scoring matched rule; on equal scores the
// earlier rule wins.
func EvaluateRules(rules []Rule, a, b map[string]interface{}) (MatchResult, error) {

	result := MatchResult{MatchedRules: []RuleMatch{}}
	best := -1
	for _, rule := range rules {
		r, err := Evaluate(rule.Conditions, a, b)
		if err != nil {
			return MatchResult{}, fmt.Errorf("rule '%s': %w", rule.ID, err)
		}
		if !r.Matched {
			continue
		}
		result.MatchedRules = append(result.MatchedRules, RuleMatch{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Action:   rule.Action,
			Score:    r.Score,
			Detail:   r.Details,
		})
		last := len(result.MatchedRules) - 1
		if best < 0 || r.Score > result.MatchedRules[best].Score {
			best = last
		}
	}

	if best >= 0 {
		result.Matched = true
		result.Score = result.MatchedRules[best].Score
		result.Action = result.MatchedRules[best].Action
	}
	return result, nil
}
