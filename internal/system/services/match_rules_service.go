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

package services

import (
	"fmt"
	"net/http"

	"github.com/wso2/record-deduplication-service/internal/match_rules/handler"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
)

type MatchRulesService struct {
	matchRuleHandler *handler.MatchRuleHandler
}

func NewMatchRulesService(mux *http.ServeMux, apiBasePath string) *MatchRulesService {

	instance := &MatchRulesService{
		matchRuleHandler: handler.NewMatchRuleHandler(),
	}
	instance.RegisterRoutes(mux, apiBasePath)

	return instance
}

func (s *MatchRulesService) RegisterRoutes(mux *http.ServeMux, apiBasePath string) {

	datasetRules := apiBasePath + constants.DatasetsApiPath + "/{datasetId}" + constants.DuplicateRulesApiPath
	rule := apiBasePath + constants.DuplicateRulesApiPath + "/{ruleId}"

	mux.HandleFunc(fmt.Sprintf("POST %s", datasetRules), s.matchRuleHandler.AddMatchRule)
	mux.HandleFunc(fmt.Sprintf("GET %s", datasetRules), s.matchRuleHandler.ListMatchRules)
	mux.HandleFunc(fmt.Sprintf("GET %s", rule), s.matchRuleHandler.GetMatchRule)
	mux.HandleFunc(fmt.Sprintf("PUT %s", rule), s.matchRuleHandler.UpdateMatchRule)
	mux.HandleFunc(fmt.Sprintf("PATCH %s", rule), s.matchRuleHandler.PatchMatchRule)
	mux.HandleFunc(fmt.Sprintf("DELETE %s", rule), s.matchRuleHandler.DeleteMatchRule)
}
