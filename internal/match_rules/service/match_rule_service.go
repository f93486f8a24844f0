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
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wso2/record-deduplication-service/internal/match_rules/model"
	"github.com/wso2/record-deduplication-service/internal/match_rules/store"
	"github.com/wso2/record-deduplication-service/internal/matching"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
	recordstore "github.com/wso2/record-deduplication-service/internal/records/store"
	"github.com/wso2/record-deduplication-service/internal/system/cache"
	"github.com/wso2/record-deduplication-service/internal/system/config"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/validation"
)

// MatchRuleServiceInterface manages duplicate rules. A non-empty tenant restricts access
// to rules of datasets owned by that tenant.
type MatchRuleServiceInterface interface {
	AddMatchRule(ctx context.Context, tenantID string, datasetID int64, req model.MatchRuleRequest,
		userID string) (*model.MatchRule, error)
	GetMatchRule(ctx context.Context, tenantID, ruleID string) (*model.MatchRule, error)
	ListMatchRules(ctx context.Context, tenantID string, datasetID int64) ([]model.MatchRule, error)
	UpdateMatchRule(ctx context.Context, tenantID, ruleID string, req model.MatchRuleRequest,
		userID string) (*model.MatchRule, error)
	PatchMatchRule(ctx context.Context, tenantID, ruleID string, patch model.MatchRulePatch,
		userID string) (*model.MatchRule, error)
	DeleteMatchRule(ctx context.Context, tenantID, ruleID, userID string) error
	ListActiveRules(ctx context.Context, datasetID int64) ([]model.MatchRule, error)
}

type matchRuleStore interface {
	AddMatchRule(ctx context.Context, rule model.MatchRule) (*model.MatchRule, error)
	GetMatchRule(ctx context.Context, ruleID string) (*model.MatchRule, error)
	ListMatchRules(ctx context.Context, datasetID int64) ([]model.MatchRule, error)
	ListActiveRules(ctx context.Context, datasetID int64) ([]model.MatchRule, error)
	UpdateMatchRule(ctx context.Context, rule model.MatchRule) (*model.MatchRule, error)
	DeleteMatchRule(ctx context.Context, ruleID string) error
}

type datasetLookup interface {
	GetDataset(ctx context.Context, id int64) (*recordmodel.Dataset, error)
}

// MatchRuleService is the default implementation of the MatchRuleServiceInterface.
type MatchRuleService struct {
	store    matchRuleStore
	datasets datasetLookup
	active   *cache.Cache[[]model.MatchRule]
}

var (
	serviceOnce     sync.Once
	serviceInstance *MatchRuleService
)

// GetMatchRuleService returns the shared service. Its active rule cache lives as long as
// the process.
func GetMatchRuleService() MatchRuleServiceInterface {

	serviceOnce.Do(func() {
		ttl := config.DefaultRuleCacheTTL
		if config.IsInitialized() {
			ttl = config.GetDDSRuntime().Config.Dedupe.RuleCacheTTL
		}
		dbProvider := provider.NewDBProvider()
		serviceInstance = NewMatchRuleService(store.NewMatchRuleStore(dbProvider),
			recordstore.NewRecordStore(dbProvider), cache.NewCache[[]model.MatchRule]("active-duplicate-rules", ttl))
	})
	return serviceInstance
}

func NewMatchRuleService(ruleStore matchRuleStore, datasets datasetLookup,
	activeCache *cache.Cache[[]model.MatchRule]) *MatchRuleService {

	return &MatchRuleService{store: ruleStore, datasets: datasets, active: activeCache}
}

// AddMatchRule validates and stores a new rule. Action defaults to warn, priority to 0 and
// the rule starts active unless is_active is false.
func (s *MatchRuleService) AddMatchRule(ctx context.Context, tenantID string, datasetID int64,
	req model.MatchRuleRequest, userID string) (*model.MatchRule, error) {

	if _, err := s.dataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}
	rule, err := ruleFromRequest(req)
	if err != nil {
		return nil, err
	}
	rule.ID = uuid.New().String()
	rule.DatasetID = datasetID
	rule.CreatedBy = userID

	stored, err := s.store.AddMatchRule(ctx, rule)
	if err != nil {
		return nil, err
	}
	s.invalidate(datasetID)

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   userID,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      rule.ID,
		TargetType:    log.TargetTypeMatchRule,
		ActionID:      log.ActionAddMatchRule,
		Data:          map[string]interface{}{"dataset_id": datasetID, "action": rule.Action},
	})
	return stored, nil
}

func (s *MatchRuleService) GetMatchRule(ctx context.Context, tenantID, ruleID string) (*model.MatchRule, error) {

	rule, err := s.store.GetMatchRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, notFound(ruleID)
	}
	if _, err := s.dataset(ctx, tenantID, rule.DatasetID); err != nil {
		if errors.StatusOf(err) == http.StatusNotFound {
			return nil, notFound(ruleID)
		}
		return nil, err
	}
	return rule, nil
}

func (s *MatchRuleService) ListMatchRules(ctx context.Context, tenantID string,
	datasetID int64) ([]model.MatchRule, error) {

	if _, err := s.dataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}
	return s.store.ListMatchRules(ctx, datasetID)
}

// UpdateMatchRule replaces every mutable attribute of the rule.
func (s *MatchRuleService) UpdateMatchRule(ctx context.Context, tenantID, ruleID string,
	req model.MatchRuleRequest, userID string) (*model.MatchRule, error) {

	existing, err := s.GetMatchRule(ctx, tenantID, ruleID)
	if err != nil {
		return nil, err
	}
	rule, err := ruleFromRequest(req)
	if err != nil {
		return nil, err
	}
	rule.ID = existing.ID
	rule.DatasetID = existing.DatasetID
	return s.save(ctx, rule, userID)
}

// PatchMatchRule updates only the attributes present in patch.
func (s *MatchRuleService) PatchMatchRule(ctx context.Context, tenantID, ruleID string,
	patch model.MatchRulePatch, userID string) (*model.MatchRule, error) {

	if err := validation.Struct(patch, errors.INVALID_MATCH_RULE); err != nil {
		return nil, err
	}
	rule, err := s.GetMatchRule(ctx, tenantID, ruleID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, errors.NewValidationError(errors.INVALID_MATCH_RULE, "'name' must not be empty.")
		}
		rule.Name = name
	}
	if patch.Description != nil {
		rule.Description = *patch.Description
	}
	if len(patch.Conditions) > 0 {
		conditions, err := parseConditions(patch.Conditions)
		if err != nil {
			return nil, err
		}
		rule.Conditions = conditions
	}
	if patch.Action != nil {
		rule.Action = matching.Action(*patch.Action)
	}
	if patch.Priority != nil {
		rule.Priority = *patch.Priority
	}
	if patch.IsActive != nil {
		rule.IsActive = *patch.IsActive
	}
	return s.save(ctx, *rule, userID)
}

func (s *MatchRuleService) save(ctx context.Context, rule model.MatchRule, userID string) (*model.MatchRule, error) {

	stored, err := s.store.UpdateMatchRule(ctx, rule)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, notFound(rule.ID)
	}
	s.invalidate(rule.DatasetID)

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   userID,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      rule.ID,
		TargetType:    log.TargetTypeMatchRule,
		ActionID:      log.ActionUpdateMatchRule,
	})
	return stored, nil
}

func (s *MatchRuleService) DeleteMatchRule(ctx context.Context, tenantID, ruleID, userID string) error {

	rule, err := s.GetMatchRule(ctx, tenantID, ruleID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteMatchRule(ctx, ruleID); err != nil {
		return err
	}
	s.invalidate(rule.DatasetID)

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   userID,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      ruleID,
		TargetType:    log.TargetTypeMatchRule,
		ActionID:      log.ActionDeleteMatchRule,
	})
	return nil
}

// ListActiveRules returns the active rules of a dataset in evaluation order. Results are
// cached until the TTL passes or a rule of the dataset changes.
func (s *MatchRuleService) ListActiveRules(ctx context.Context, datasetID int64) ([]model.MatchRule, error) {

	key := strconv.FormatInt(datasetID, 10)
	if rules, ok := s.active.Get(key); ok {
		return rules, nil
	}
	rules, err := s.store.ListActiveRules(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	s.active.Set(key, rules)
	return rules, nil
}

func (s *MatchRuleService) invalidate(datasetID int64) {
	s.active.Delete(strconv.FormatInt(datasetID, 10))
}

func (s *MatchRuleService) dataset(ctx context.Context, tenantID string, datasetID int64) (*recordmodel.Dataset, error) {

	dataset, err := s.datasets.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if dataset == nil || (tenantID != "" && dataset.TenantID != tenantID) {
		return nil, errors.NewNotFoundError(errors.DATASET_NOT_FOUND,
			fmt.Sprintf("Dataset %d does not exist.", datasetID))
	}
	return dataset, nil
}

func ruleFromRequest(req model.MatchRuleRequest) (model.MatchRule, error) {

	if err := validation.Struct(req, errors.INVALID_MATCH_RULE); err != nil {
		return model.MatchRule{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.MatchRule{}, errors.NewValidationError(errors.INVALID_MATCH_RULE, "'name' must not be empty.")
	}
	conditions, err := parseConditions(req.Conditions)
	if err != nil {
		return model.MatchRule{}, err
	}

	rule := model.MatchRule{
		Name:        name,
		Description: req.Description,
		Conditions:  conditions,
		Action:      matching.ActionWarn,
		IsActive:    true,
	}
	if req.Action != "" {
		rule.Action = matching.Action(req.Action)
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	return rule, nil
}

func parseConditions(raw []byte) (matching.ConditionNode, error) {

	conditions, err := matching.ParseConditions(raw)
	if err != nil {
		return nil, errors.NewValidationError(errors.INVALID_CONDITIONS, err.Error())
	}
	return conditions, nil
}

func notFound(ruleID string) error {
	return errors.NewNotFoundError(errors.MATCH_RULE_NOT_FOUND,
		fmt.Sprintf("Duplicate rule %s does not exist.", ruleID))
}
