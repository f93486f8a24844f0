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

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ReasonEmptyValue marks a leaf skipped because one side had no value.
const ReasonEmptyValue = "empty_value"

// ConditionDetail records how one leaf scored.
type ConditionDetail struct {
	Field     string    `json:"field"`
	MatchType MatchType `json:"match_type"`
	Threshold float64   `json:"threshold"`
	Score     float64   `json:"score"`
	Matched   bool      `json:"matched"`
	Reason    string    `json:"reason,omitempty"`
}

// Result is the outcome of evaluating one condition tree against a pair of records.
type Result struct {
	Matched bool              `json:"matched"`
	Score   float64           `json:"score"`
	Details []ConditionDetail `json:"details,omitempty"`
}

// Evaluate evaluates node against the field maps of two records.
func Evaluate(node ConditionNode, a, b map[string]interface{}) (Result, error) {

	switch n := node.(type) {
	case Leaf:
		return evaluateLeaf(n, a, b)
	case Group:
		return evaluateGroup(n, a, b)
	case nil:
		return Result{}, fmt.Errorf("condition is missing")
	default:
		return Result{}, fmt.Errorf("unsupported condition node %T", node)
	}
}

func evaluateLeaf(leaf Leaf, a, b map[string]interface{}) (Result, error) {

	detail := ConditionDetail{Field: leaf.FieldPath, MatchType: leaf.MatchType, Threshold: leaf.Threshold}

	valueA := ResolvePath(a, leaf.FieldPath)
	valueB := ResolvePath(b, leaf.FieldPath)
	if IsEmpty(valueA) || IsEmpty(valueB) {
		detail.Reason = ReasonEmptyValue
		return Result{Details: []ConditionDetail{detail}}, nil
	}

	score, err := Score(leaf.MatchType, Stringify(valueA), Stringify(valueB))
	if err != nil {
		return Result{}, fmt.Errorf("field '%s': %w", leaf.FieldPath, err)
	}
	score = clamp(score)
	detail.Score = score
	detail.Matched = score >= leaf.Threshold

	return Result{Matched: detail.Matched, Score: score, Details: []ConditionDetail{detail}}, nil
}

func evaluateGroup(group Group, a, b map[string]interface{}) (Result, error) {

	if len(group.Children) == 0 {
		return Result{}, nil
	}

	results := make([]Result, 0, len(group.Children))
	var details []ConditionDetail
	for _, child := range group.Children {
		r, err := Evaluate(child, a, b)
		if err != nil {
			return Result{}, err
		}
		results = append(results, r)
		details = append(details, r.Details...)
	}

	var out Result
	switch group.Logic {
	case LogicOr:
		for _, r := range results {
			out.Matched = out.Matched || r.Matched
			out.Score = math.Max(out.Score, r.Score)
		}
	case LogicAnd:
		out.Matched = true
		sum := 0.0
		for _, r := range results {
			out.Matched = out.Matched && r.Matched
			sum += r.Score
		}
		// A failed AND group scores zero even when some children came close.
		if out.Matched {
			out.Score = sum / float64(len(results))
		}
	default:
		return Result{}, fmt.Errorf("unknown logic '%s'", group.Logic)
	}
	out.Score = round4(out.Score)
	out.Details = details
	return out, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ResolvePath walks a dot separated path through nested maps. A missing key or a
// non-map value in the middle of the path yields nil.
func ResolvePath(fields map[string]interface{}, path string) interface{} {

	if fields == nil || path == "" {
		return nil
	}
	var current interface{} = fields
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// IsEmpty reports nil, blank strings and empty collections.
func IsEmpty(v interface{}) bool {

	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Stringify renders a scalar field value for comparison. Collections are JSON encoded.
func Stringify(v interface{}) string {

	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}
