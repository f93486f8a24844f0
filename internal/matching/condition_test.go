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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConditions_GroupWithLeaves(t *testing.T) {
	raw := `{
		"logic": "AND",
		"rules": [
			{"field": "email", "match_type": "exact", "threshold": 1},
			{"logic": "or", "rules": [
				{"field": "name", "match_type": "fuzzy"},
				{"field": "address.city", "match_type": "phonetic", "threshold": 0.7}
			]}
		]
	}`

	node, err := ParseConditions([]byte(raw))
	require.NoError(t, err)

	group, ok := node.(Group)
	require.True(t, ok)
	assert.Equal(t, LogicAnd, group.Logic)
	require.Len(t, group.Children, 2)
	assert.Equal(t, Leaf{FieldPath: "email", MatchType: MatchExact, Threshold: 1}, group.Children[0])

	inner, ok := group.Children[1].(Group)
	require.True(t, ok)
	assert.Equal(t, LogicOr, inner.Logic)
	assert.Equal(t, DefaultThreshold, inner.Children[0].(Leaf).Threshold)
	assert.Equal(t, []string{"email", "name", "address.city"}, Fields(node))
}

func TestParseConditions_Roundtrip(t *testing.T) {
	tree := And(Field("email", MatchEmailDomain), Or(Field("name", MatchFuzzy).WithThreshold(0.75)))

	encoded, err := json.Marshal(tree)
	require.NoError(t, err)

	parsed, err := ParseConditions(encoded)
	require.NoError(t, err)
	assert.Equal(t, tree, parsed)
}

func TestParseConditions_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":            ``,
		"null":             `null`,
		"not an object":    `[1,2]`,
		"unknown logic":    `{"logic": "xor", "rules": []}`,
		"mixed node":       `{"logic": "and", "rules": [], "field": "x"}`,
		"no discriminator": `{"match_type": "exact"}`,
		"unknown match":    `{"field": "name", "match_type": "regex"}`,
		"missing field":    `{"field": "", "match_type": "exact"}`,
		"empty segment":    `{"field": "address..city", "match_type": "exact"}`,
		"threshold high":   `{"field": "name", "match_type": "fuzzy", "threshold": 1.5}`,
		"threshold low":    `{"field": "name", "match_type": "fuzzy", "threshold": -0.1}`,
		"bad child":        `{"logic": "or", "rules": [{"field": "name"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConditions([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParseConditions_ErrorNamesLocation(t *testing.T) {
	_, err := ParseConditions([]byte(`{"logic":"and","rules":[{"field":"a","match_type":"exact"},{"field":"b","match_type":"x"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conditions.rules[1]")
}

func TestParseConditions_DepthLimit(t *testing.T) {
	leaf := `{"field":"a","match_type":"exact"}`
	raw := strings.Repeat(`{"logic":"and","rules":[`, maxConditionDepth+1) + leaf + strings.Repeat(`]}`, maxConditionDepth+1)

	_, err := ParseConditions([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested deeper")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(And(Field("a", MatchExact))))
	assert.NoError(t, Validate(Or()))
	assert.Error(t, Validate(nil))
	assert.Error(t, Validate(Group{Logic: "xor"}))
	assert.Error(t, Validate(And(Field("a", "nope"))))
	assert.Error(t, Validate(Field("a", MatchFuzzy).WithThreshold(2)))
}
