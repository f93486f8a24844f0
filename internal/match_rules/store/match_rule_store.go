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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wso2/record-deduplication-service/internal/match_rules/model"
	"github.com/wso2/record-deduplication-service/internal/matching"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/database/scripts"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

// MatchRuleStore persists duplicate rules.
type MatchRuleStore struct {
	dbProvider provider.DBProviderInterface
}

func NewMatchRuleStore(dbProvider provider.DBProviderInterface) *MatchRuleStore {
	return &MatchRuleStore{dbProvider: dbProvider}
}

func (s *MatchRuleStore) query(ctx context.Context, description string, queries map[string]string,
	args ...interface{}) ([]map[string]interface{}, error) {

	logger := log.GetLogger()
	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to get db client for %s.", description)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.DB_CLIENT_INIT.Code,
			Message:     errors.DB_CLIENT_INIT.Message,
			Description: errorMsg,
		}, err)
	}
	results, err := dbClient.ExecuteQueryContext(ctx, queries[s.dbProvider.GetDBType()], args...)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to execute query for %s.", description)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.EXECUTE_QUERY.Code,
			Message:     errors.EXECUTE_QUERY.Message,
			Description: errorMsg,
		}, err)
	}
	return results, nil
}

// AddMatchRule inserts a rule and returns the stored row.
func (s *MatchRuleStore) AddMatchRule(ctx context.Context, rule model.MatchRule) (*model.MatchRule, error) {

	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return nil, corrupted(rule.ID, err)
	}
	results, err := s.query(ctx, fmt.Sprintf("inserting duplicate rule %s", rule.ID), scripts.InsertMatchRule,
		rule.ID, rule.DatasetID, rule.Name, nullString(rule.Description), conditions, string(rule.Action),
		rule.Priority, rule.IsActive, nullString(rule.CreatedBy))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return ruleFromRow(results[0])
}

// GetMatchRule returns the rule or nil when it does not exist.
func (s *MatchRuleStore) GetMatchRule(ctx context.Context, ruleID string) (*model.MatchRule, error) {

	results, err := s.query(ctx, fmt.Sprintf("fetching duplicate rule %s", ruleID), scripts.GetMatchRule, ruleID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return ruleFromRow(results[0])
}

// ListMatchRules returns every rule of the dataset ordered by priority descending.
func (s *MatchRuleStore) ListMatchRules(ctx context.Context, datasetID int64) ([]model.MatchRule, error) {

	results, err := s.query(ctx, fmt.Sprintf("listing duplicate rules of dataset %d", datasetID),
		scripts.ListMatchRulesByDataset, datasetID)
	if err != nil {
		return nil, err
	}
	return rulesFromRows(results)
}

// ListActiveRules returns the active rules of the dataset ordered by priority descending,
// then by creation time.
func (s *MatchRuleStore) ListActiveRules(ctx context.Context, datasetID int64) ([]model.MatchRule, error) {

	results, err := s.query(ctx, fmt.Sprintf("listing active duplicate rules of dataset %d", datasetID),
		scripts.ListActiveMatchRules, datasetID)
	if err != nil {
		return nil, err
	}
	return rulesFromRows(results)
}

// UpdateMatchRule overwrites the mutable columns of a rule and returns the stored row, or
// nil when the rule does not exist.
func (s *MatchRuleStore) UpdateMatchRule(ctx context.Context, rule model.MatchRule) (*model.MatchRule, error) {

	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return nil, corrupted(rule.ID, err)
	}
	results, err := s.query(ctx, fmt.Sprintf("updating duplicate rule %s", rule.ID), scripts.UpdateMatchRule,
		rule.Name, nullString(rule.Description), conditions, string(rule.Action), rule.Priority, rule.IsActive,
		rule.ID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return ruleFromRow(results[0])
}

// DeleteMatchRule removes a rule.
func (s *MatchRuleStore) DeleteMatchRule(ctx context.Context, ruleID string) error {

	_, err := s.query(ctx, fmt.Sprintf("deleting duplicate rule %s", ruleID), scripts.DeleteMatchRule, ruleID)
	return err
}

func ruleFromRow(result map[string]interface{}) (*model.MatchRule, error) {

	row := client.Row(result)
	conditions, err := matching.ParseConditions(row.Bytes("conditions"))
	if err != nil {
		return nil, corrupted(row.String("id"), err)
	}
	return &model.MatchRule{
		ID:          row.String("id"),
		DatasetID:   row.Int64("dataset_id"),
		Name:        row.String("name"),
		Description: row.String("description"),
		Conditions:  conditions,
		Action:      matching.Action(row.String("action")),
		Priority:    int(row.Int64("priority")),
		IsActive:    row.Bool("is_active"),
		CreatedBy:   row.String("created_by"),
		CreatedAt:   row.Time("created_at"),
		UpdatedAt:   row.Time("updated_at"),
	}, nil
}

func rulesFromRows(results []map[string]interface{}) ([]model.MatchRule, error) {

	rules := make([]model.MatchRule, 0, len(results))
	for _, result := range results {
		rule, err := ruleFromRow(result)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

func corrupted(ruleID string, err error) error {

	errorMsg := fmt.Sprintf("Conditions of duplicate rule %s could not be encoded or decoded.", ruleID)
	log.GetLogger().Error(errorMsg, log.Error(err))
	return errors.NewServerError(errors.ErrorMessage{
		Code:        errors.DATA_CORRUPTED.Code,
		Message:     errors.DATA_CORRUPTED.Message,
		Description: errorMsg,
	}, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
