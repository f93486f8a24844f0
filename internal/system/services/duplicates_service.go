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

	"github.com/wso2/record-deduplication-service/internal/duplicates/handler"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
)

type DuplicatesService struct {
	duplicateHandler *handler.DuplicateHandler
}

func NewDuplicatesService(mux *http.ServeMux, apiBasePath string) *DuplicatesService {

	instance := &DuplicatesService{
		duplicateHandler: handler.NewDuplicateHandler(),
	}
	instance.RegisterRoutes(mux, apiBasePath)

	return instance
}

func (s *DuplicatesService) RegisterRoutes(mux *http.ServeMux, apiBasePath string) {

	dataset := apiBasePath + constants.DatasetsApiPath + "/{datasetId}"
	duplicates := apiBasePath + constants.DuplicatesApiPath
	mergeLogs := apiBasePath + constants.MergeLogsApiPath

	mux.HandleFunc(fmt.Sprintf("GET %s%s", dataset, constants.DuplicatesApiPath), s.duplicateHandler.ListCandidates)
	mux.HandleFunc(fmt.Sprintf("GET %s%s/stats", dataset, constants.DuplicatesApiPath), s.duplicateHandler.GetStats)
	mux.HandleFunc(fmt.Sprintf("POST %s%s/check", dataset, constants.DuplicatesApiPath), s.duplicateHandler.Check)
	mux.HandleFunc(fmt.Sprintf("POST %s%s/scan", dataset, constants.DuplicatesApiPath), s.duplicateHandler.Scan)
	mux.HandleFunc(fmt.Sprintf("GET %s%s", dataset, constants.MergeLogsApiPath), s.duplicateHandler.GetMergeHistory)

	mux.HandleFunc(fmt.Sprintf("POST %s/merge", duplicates), s.duplicateHandler.Merge)
	mux.HandleFunc(fmt.Sprintf("POST %s/merge/preview", duplicates), s.duplicateHandler.PreviewMerge)
	mux.HandleFunc(fmt.Sprintf("GET %s/{candidateId}", duplicates), s.duplicateHandler.GetCandidate)
	mux.HandleFunc(fmt.Sprintf("POST %s/{candidateId}/dismiss", duplicates), s.duplicateHandler.DismissCandidate)
	mux.HandleFunc(fmt.Sprintf("GET %s/{mergeLogId}", mergeLogs), s.duplicateHandler.GetMergeLog)
}
