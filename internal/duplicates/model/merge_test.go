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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/record-deduplication-service/internal/matching"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
)

func TestFieldSelection_Decode(t *testing.T) {
	cases := []struct {
		raw  string
		want FieldSelection
	}{
		{`"a"`, Surviving()},
		{`"surviving"`, Surviving()},
		{`"B"`, FromIndex(0)},
		{`2`, FromIndex(2)},
		{`"1"`, FromIndex(1)},
		{`{"record_id": 9}`, FromRecord(9)},
		{`{"custom": "555-0000"}`, Custom("555-0000")},
		{`{"custom": null}`, Custom(nil)},
		{`{"custom": 12}`, Custom(json.Number("12"))},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			var got FieldSelection
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFieldSelection_RejectsMalformed(t *testing.T) {
	for _, raw := range []string{`null`, `"c"`, `-1`, `1.5`, `true`, `{}`, `{"record_id": "x"}`,
		`{"custom": 1, "record_id": 2}`, `{"other": 1}`} {
		var got FieldSelection
		assert.Error(t, json.Unmarshal([]byte(raw), &got), raw)
	}
}

func TestMergeRequest_Decode(t *testing.T) {
	raw := `{"surviving_record_id": 5, "merge_record_ids": [9], "field_selections": {"phone": "b", "name": "a"}}`

	var req MergeRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	assert.Equal(t, int64(5), req.SurvivingRecordID)
	assert.Equal(t, []int64{9}, req.MergeRecordIDs)
	assert.Equal(t, FromIndex(0), req.FieldSelections["phone"])
	assert.Equal(t, Surviving(), req.FieldSelections["name"])
}

func TestFieldSelection_Encode(t *testing.T) {
	encoded, err := json.Marshal(map[string]FieldSelection{
		"a": Surviving(),
		"b": FromIndex(1),
		"c": FromRecord(7),
		"d": Custom("x"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"surviving","b":1,"c":{"record_id":7},"d":{"custom":"x"}}`, string(encoded))
}

func TestNewCandidate_CanonicalOrder(t *testing.T) {
	c := NewCandidate(3, 9, 5, matching.MatchResult{Score: 0.9})
	assert.Equal(t, int64(5), c.RecordIDA)
	assert.Equal(t, int64(9), c.RecordIDB)
	assert.Equal(t, StatusPending, c.Status)
	assert.Equal(t, NewPairKey(5, 9), c.Key())
	assert.Equal(t, NewPairKey(9, 5), c.Key())
}

func TestNewCheckResponse(t *testing.T) {
	matches := make([]DuplicateMatch, 0, 7)
	for i := 0; i < 7; i++ {
		matches = append(matches, DuplicateMatch{
			Record: recordmodel.Record{ID: int64(i + 1)},
			Score:  0.956,
			Action: matching.ActionWarn,
		})
	}
	matches[6].Action = matching.ActionBlock

	response := NewCheckResponse(matches, 5)
	assert.True(t, response.HasDuplicates)
	assert.True(t, response.ShouldBlock)
	require.Len(t, response.Matches, 5)
	assert.Equal(t, 96.0, response.Matches[0].Score)

	empty := NewCheckResponse(nil, 5)
	assert.False(t, empty.HasDuplicates)
	assert.False(t, empty.ShouldBlock)
	assert.NotNil(t, empty.Matches)
}
