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

package handler

import (
	"net/http"
	"strconv"

	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/utils"
	"github.com/wso2/record-deduplication-service/internal/system/validation"
)

// parseCandidateFilter reads `status`, `min_score` and `record_id` from the query string.
func parseCandidateFilter(r *http.Request) (model.CandidateFilter, error) {

	query := r.URL.Query()
	filter := model.CandidateFilter{Status: model.CandidateStatus(query.Get("status"))}

	if raw := query.Get("min_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.CandidateFilter{}, errors.NewValidationError(errors.INVALID_CANDIDATE_FILTER,
				"'min_score' must be a number.")
		}
		filter.MinScore = &score
	}
	if raw := query.Get("record_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return model.CandidateFilter{}, errors.NewValidationError(errors.INVALID_CANDIDATE_FILTER,
				"'record_id' must be a positive integer.")
		}
		filter.RecordID = id
	}
	return filter, nil
}

// decodeOptionalBody decodes the body when the request has one.
func decodeOptionalBody(r *http.Request, target interface{}, resourceName string) error {

	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return utils.DecodeJSONBody(r, target, resourceName)
}

func validateScanRequest(req model.ScanRequest) error {
	return validation.Struct(req, errors.BAD_REQUEST)
}
