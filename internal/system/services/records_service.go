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

	"github.com/wso2/record-deduplication-service/internal/records/handler"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
)

type RecordsService struct {
	recordHandler *handler.RecordHandler
}

func NewRecordsService(mux *http.ServeMux, apiBasePath string) *RecordsService {

	instance := &RecordsService{
		recordHandler: handler.NewRecordHandler(),
	}
	instance.RegisterRoutes(mux, apiBasePath)

	return instance
}

func (s *RecordsService) RegisterRoutes(mux *http.ServeMux, apiBasePath string) {

	datasets := apiBasePath + constants.DatasetsApiPath
	records := datasets + "/{datasetId}" + constants.RecordsApiPath

	mux.HandleFunc(fmt.Sprintf("POST %s", datasets), s.recordHandler.CreateDataset)
	mux.HandleFunc(fmt.Sprintf("GET %s", datasets), s.recordHandler.ListDatasets)
	mux.HandleFunc(fmt.Sprintf("GET %s/{datasetId}", datasets), s.recordHandler.GetDataset)
	mux.HandleFunc(fmt.Sprintf("POST %s", records), s.recordHandler.CreateRecord)
	mux.HandleFunc(fmt.Sprintf("GET %s", records), s.recordHandler.ListRecords)
	mux.HandleFunc(fmt.Sprintf("GET %s/{recordId}", records), s.recordHandler.GetRecord)
	mux.HandleFunc(fmt.Sprintf("PUT %s/{recordId}", records), s.recordHandler.UpdateRecord)
	mux.HandleFunc(fmt.Sprintf("DELETE %s/{recordId}", records), s.recordHandler.DeleteRecord)
}
