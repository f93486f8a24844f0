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

package service

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/record-deduplication-service/internal/match_rules/model"
	"github.com/wso2/record-deduplication-service/internal/matching"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/system/cache"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type fakeRuleStore struct {
	rules       map[string]model.MatchRule
	activeCalls int
}

func (f *fakeRuleStore) AddMatchRule(_ context.Context, rule model.MatchRule) (*model.MatchRule, error) {
	rule.CreatedAt = time.Now()
	f.rules[rule.ID] = rule
	return &rule, nil
}

func (f *fakeRuleStore) GetMatchRule(_ context.Context, ruleID string) (*model.MatchRule, error) {
	rule, ok := f.rules[ruleID]
	if !ok {
		return nil, nil
	}
	return &rule, nil
}

func (f *fakeRuleStore) ListMatchRules(_ context.Context, datasetID int64) ([]model.MatchRule, error) {
	var out []model.MatchRule
	for _, r := range f.rules {
		if r.DatasetID == datasetID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (f *fakeRuleStore) ListActiveRules(ctx context.Context, datasetID int64) ([]model.MatchRule, error) {
	f.activeCalls++
	all, _ := f.ListMatchRules(ctx, datasetID)
	var out []model.MatchRule
	for _, r := range all {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleStore) UpdateMatchRule(_ context.Context, rule model.MatchRule) (*model.MatchRule, error) {
	if _, ok := f.rules[rule.ID]; !ok {
		return nil, nil
	}
	f.rules[rule.ID] = rule
	return &rule, nil
}

func (f *fakeRuleStore) DeleteMatchRule(_ context.Context, ruleID string) error {
	delete(f.rules, ruleID)
	return nil
}

type fakeDatasets map[int64]*recordmodel.Dataset

func (f fakeDatasets) GetDataset(_ context.Context, id int64) (*recordmodel.Dataset, error) {
	return f[id], nil
}

func newTestService() (*MatchRuleService, *fakeRuleStore) {
	ruleStore := &fakeRuleStore{rules: map[string]model.MatchRule{}}
	datasets := fakeDatasets{1: {ID: 1, TenantID: "t1", Name: "companies"}}
	return NewMatchRuleService(ruleStore, datasets, cache.NewCache[[]model.MatchRule]("test", time.Minute)), ruleStore
}

const nameCondition = `{"logic": "and", "rules": [{"field": "name", "match_type": "fuzzy", "threshold": 0.85}]}`

func intPtr(v int) *int { return &v }

// ---------------------------------------------------------------------------
// AddMatchRule
// ---------------------------------------------------------------------------

func TestAddMatchRule_AppliesDefaults(t *testing.T) {
	svc, _ := newTestService()

	rule, err := svc.AddMatchRule(context.Background(), "t1", 1, model.MatchRuleRequest{
		Name:       " Similar name ",
		Conditions: json.RawMessage(nameCondition),
	}, "alice")
	require.NoError(t, err)

	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, "Similar name", rule.Name)
	assert.Equal(t, matching.ActionWarn, rule.Action)
	assert.Equal(t, 0, rule.Priority)
	assert.True(t, rule.IsActive)
	assert.Equal(t, "alice", rule.CreatedBy)
	group, ok := rule.Conditions.(matching.Group)
	require.True(t, ok)
	assert.Equal(t, matching.LogicAnd, group.Logic)
}

func TestAddMatchRule_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		req    model.MatchRuleRequest
		status int
		code   string
	}{
		{"missing name", model.MatchRuleRequest{Conditions: json.RawMessage(nameCondition)},
			http.StatusBadRequest, errors.INVALID_MATCH_RULE.Code},
		{"unknown action", model.MatchRuleRequest{Name: "r", Action: "delete", Conditions: json.RawMessage(nameCondition)},
			http.StatusBadRequest, errors.INVALID_MATCH_RULE.Code},
		{"priority too high", model.MatchRuleRequest{Name: "r", Priority: intPtr(1001), Conditions: json.RawMessage(nameCondition)},
			http.StatusBadRequest, errors.INVALID_MATCH_RULE.Code},
		{"missing conditions", model.MatchRuleRequest{Name: "r"},
			http.StatusBadRequest, errors.INVALID_MATCH_RULE.Code},
		{"bad match type", model.MatchRuleRequest{Name: "r",
			Conditions: json.RawMessage(`{"field": "name", "match_type": "regex"}`)},
			http.StatusBadRequest, errors.INVALID_CONDITIONS.Code},
		{"bad threshold", model.MatchRuleRequest{Name: "r",
			Conditions: json.RawMessage(`{"field": "name", "match_type": "exact", "threshold": 1.5}`)},
			http.StatusBadRequest, errors.INVALID_CONDITIONS.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, ruleStore := newTestService()
			_, err := svc.AddMatchRule(context.Background(), "t1", 1, tc.req, "alice")
			require.Error(t, err)
			clientErr, ok := err.(*errors.ClientError)
			require.True(t, ok, "expected a ClientError")
			assert.Equal(t, tc.status, clientErr.StatusCode)
			assert.Equal(t, tc.code, clientErr.Code)
			assert.Empty(t, ruleStore.rules)
		})
	}
}

func TestAddMatchRule_UnknownDataset(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.AddMatchRule(context.Background(), "t1", 2, model.MatchRuleRequest{
		Name: "r", Conditions: json.RawMessage(nameCondition)}, "alice")
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))

	_, err = svc.AddMatchRule(context.Background(), "t2", 1, model.MatchRuleRequest{
		Name: "r", Conditions: json.RawMessage(nameCondition)}, "alice")
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
}

// ---------------------------------------------------------------------------
// Updates
// ---------------------------------------------------------------------------

func TestPatchMatchRule_UpdatesOnlyGivenFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rule, err := svc.AddMatchRule(ctx, "t1", 1, model.MatchRuleRequest{
		Name: "r", Priority: intPtr(10), Action: "block", Conditions: json.RawMessage(nameCondition)}, "alice")
	require.NoError(t, err)

	inactive := false
	patched, err := svc.PatchMatchRule(ctx, "t1", rule.ID, model.MatchRulePatch{IsActive: &inactive}, "bob")
	require.NoError(t, err)
	assert.False(t, patched.IsActive)
	assert.Equal(t, 10, patched.Priority)
	assert.Equal(t, matching.ActionBlock, patched.Action)

	empty := " "
	_, err = svc.PatchMatchRule(ctx, "t1", rule.ID, model.MatchRulePatch{Name: &empty}, "bob")
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))

	_, err = svc.PatchMatchRule(ctx, "t1", "missing", model.MatchRulePatch{IsActive: &inactive}, "bob")
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
}

func TestGetMatchRule_OtherTenantIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rule, err := svc.AddMatchRule(ctx, "t1", 1, model.MatchRuleRequest{
		Name: "r", Conditions: json.RawMessage(nameCondition)}, "alice")
	require.NoError(t, err)

	_, err = svc.GetMatchRule(ctx, "t2", rule.ID)
	require.Error(t, err)
	assert.Equal(t, errors.MATCH_RULE_NOT_FOUND.Code, err.(*errors.ClientError).Code)
}

// ---------------------------------------------------------------------------
// Active rule cache
// ---------------------------------------------------------------------------

func TestListActiveRules_CachedUntilWrite(t *testing.T) {
	svc, ruleStore := newTestService()
	ctx := context.Background()

	_, err := svc.AddMatchRule(ctx, "t1", 1, model.MatchRuleRequest{
		Name: "low", Priority: intPtr(1), Conditions: json.RawMessage(nameCondition)}, "alice")
	require.NoError(t, err)

	rules, err := svc.ListActiveRules(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	_, err = svc.ListActiveRules(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ruleStore.activeCalls)

	high, err := svc.AddMatchRule(ctx, "t1", 1, model.MatchRuleRequest{
		Name: "high", Priority: intPtr(100), Conditions: json.RawMessage(nameCondition)}, "alice")
	require.NoError(t, err)

	rules, err = svc.ListActiveRules(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, ruleStore.activeCalls)
	require.Len(t, rules, 2)
	assert.Equal(t, high.ID, rules[0].ID)

	require.NoError(t, svc.DeleteMatchRule(ctx, "t1", high.ID, "alice"))
	rules, err = svc.ListActiveRules(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}
