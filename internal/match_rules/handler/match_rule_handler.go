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

package handler

import (
	"net/http"

	"github.com/wso2/record-deduplication-service/internal/match_rules/model"
	"github.com/wso2/record-deduplication-service/internal/match_rules/provider"
	"github.com/wso2/record-deduplication-service/internal/system/authn"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
	"github.com/wso2/record-deduplication-service/internal/system/security"
	"github.com/wso2/record-deduplication-service/internal/system/utils"
)

type MatchRuleHandler struct{}

func NewMatchRuleHandler() *MatchRuleHandler {
	return &MatchRuleHandler{}
}

// AddMatchRule handles POST /datasets/{datasetId}/duplicate-rules
func (h *MatchRuleHandler) AddMatchRule(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicateRulesManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.MatchRuleRequest
	if err := utils.DecodeJSONBody(r, &req, constants.MatchRuleResource); err != nil {
		utils.HandleError(w, err)
		return
	}

	service := provider.NewMatchRuleProvider().GetMatchRuleService()
	rule, err := service.AddMatchRule(r.Context(), utils.ExtractTenantFromPath(r), datasetID, req,
		authn.GetUserIDFromRequest(r))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, rule, constants.MatchRuleResource)
}

// ListMatchRules handles GET /datasets/{datasetId}/duplicate-rules
func (h *MatchRuleHandler) ListMatchRules(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicateRulesView); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewMatchRuleProvider().GetMatchRuleService()
	rules, err := service.ListMatchRules(r.Context(), utils.ExtractTenantFromPath(r), datasetID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if rules == nil {
		rules = []model.MatchRule{}
	}
	utils.RespondJSON(w, http.StatusOK, rules, constants.MatchRuleResource)
}

// GetMatchRule handles GET /duplicate-rules/{ruleId}
func (h *MatchRuleHandler) GetMatchRule(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicateRulesView); err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewMatchRuleProvider().GetMatchRuleService()
	rule, err := service.GetMatchRule(r.Context(), utils.ExtractTenantFromPath(r), r.PathValue("ruleId"))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule, constants.MatchRuleResource)
}

// UpdateMatchRule handles PUT /duplicate-rules/{ruleId}
func (h *MatchRuleHandler) UpdateMatchRule(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicateRulesManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.MatchRuleRequest
	if err := utils.DecodeJSONBody(r, &req, constants.MatchRuleResource); err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewMatchRuleProvider().GetMatchRuleService()
	rule, err := service.UpdateMatchRule(r.Context(), utils.ExtractTenantFromPath(r), r.PathValue("ruleId"), req,
		authn.GetUserIDFromRequest(r))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule, constants.MatchRuleResource)
}

// PatchMatchRule handles PATCH /duplicate-rules/{ruleId}
func (h *MatchRuleHandler) PatchMatchRule(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicateRulesManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	var patch model.MatchRulePatch
	if err := utils.DecodeJSONBody(r, &patch, constants.MatchRuleResource); err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewMatchRuleProvider().GetMatchRuleService()
	rule, err := service.PatchMatchRule(r.Context(), utils.ExtractTenantFromPath(r), r.PathValue("ruleId"), patch,
		authn.GetUserIDFromRequest(r))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule, constants.MatchRuleResource)
}

// DeleteMatchRule handles DELETE /duplicate-rules/{ruleId}
func (h *MatchRuleHandler) DeleteMatchRule(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicateRulesManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewMatchRuleProvider().GetMatchRuleService()
	err := service.DeleteMatchRule(r.Context(), utils.ExtractTenantFromPath(r), r.PathValue("ruleId"),
		authn.GetUserIDFromRequest(r))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
