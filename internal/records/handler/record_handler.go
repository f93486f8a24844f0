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

	dupmodel "github.com/wso2/record-deduplication-service/internal/duplicates/model"
	dupprovider "github.com/wso2/record-deduplication-service/internal/duplicates/provider"
	"github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/records/provider"
	"github.com/wso2/record-deduplication-service/internal/system/authn"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
	"github.com/wso2/record-deduplication-service/internal/system/security"
	"github.com/wso2/record-deduplication-service/internal/system/utils"
)

type RecordHandler struct{}

func NewRecordHandler() *RecordHandler {
	return &RecordHandler{}
}

// CreateDataset handles POST /datasets
func (h *RecordHandler) CreateDataset(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationRecordsManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.DatasetRequest
	if err := utils.DecodeJSONBody(r, &req, constants.DatasetResource); err != nil {
		utils.HandleError(w, err)
		return
	}

	service := provider.NewRecordsProvider().GetRecordService()
	dataset, err := service.CreateDataset(r.Context(), utils.ExtractTenantFromPath(r), req)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, dataset, constants.DatasetResource)
}

// ListDatasets handles GET /datasets
func (h *RecordHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationRecordsView); err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewRecordsProvider().GetRecordService()
	datasets, err := service.ListDatasets(r.Context(), utils.ExtractTenantFromPath(r))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if datasets == nil {
		datasets = []model.Dataset{}
	}
	utils.RespondJSON(w, http.StatusOK, datasets, constants.DatasetResource)
}

// GetDataset handles GET /datasets/{datasetId}
func (h *RecordHandler) GetDataset(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationRecordsView); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewRecordsProvider().GetRecordService()
	dataset, err := service.GetDataset(r.Context(), utils.ExtractTenantFromPath(r), datasetID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, dataset, constants.DatasetResource)
}

// CreateRecord handles POST /datasets/{datasetId}/records. With ?check_duplicates=true the
// record is checked first; a blocking match rejects it unless ?force=true is given.
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationRecordsManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.RecordRequest
	if err := utils.DecodeJSONBody(r, &req, constants.RecordResource); err != nil {
		utils.HandleError(w, err)
		return
	}

	tenantID := utils.ExtractTenantFromPath(r)
	service := provider.NewRecordsProvider().GetRecordService()
	response := model.RecordCreateResponse{}

	if r.URL.Query().Get("check_duplicates") == "true" {
		if _, err := service.GetDataset(r.Context(), tenantID, datasetID); err != nil {
			utils.HandleError(w, err)
			return
		}
		duplicateService := dupprovider.NewDuplicatesProvider().GetDuplicateService()
		matches, err := duplicateService.CheckForDuplicates(r.Context(), datasetID, req.Fields, 0)
		if err != nil {
			utils.HandleError(w, err)
			return
		}
		check := dupmodel.NewCheckResponse(matches, constants.MaxCheckResults)
		response.HasDuplicates = check.HasDuplicates
		response.ShouldBlock = check.ShouldBlock
		if check.HasDuplicates {
			response.Duplicates = check.Matches
		}
		if check.ShouldBlock && r.URL.Query().Get("force") != "true" {
			utils.RespondJSON(w, http.StatusConflict, response, constants.RecordResource)
			return
		}
	}

	record, err := service.CreateRecord(r.Context(), tenantID, datasetID, req.Fields)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	response.Record = record
	utils.RespondJSON(w, http.StatusCreated, response, constants.RecordResource)
}

// ListRecords handles GET /datasets/{datasetId}/records
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationRecordsView); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	page, err := pagination.ParsePage(r)
	if err != nil {
		utils.HandleError(w, errors.NewValidationError(errors.INVALID_PAGINATION, err.Error()))
		return
	}
	service := provider.NewRecordsProvider().GetRecordService()
	records, err := service.ListRecords(r.Context(), utils.ExtractTenantFromPath(r), datasetID, page)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, records, constants.RecordResource)
}

// GetRecord handles GET /datasets/{datasetId}/records/{recordId}
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationRecordsView); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, recordID, err := recordPath(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewRecordsProvider().GetRecordService()
	record, err := service.GetRecord(r.Context(), utils.ExtractTenantFromPath(r), datasetID, recordID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, record, constants.RecordResource)
}

// UpdateRecord handles PUT /datasets/{datasetId}/records/{recordId}
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationRecordsManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, recordID, err := recordPath(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.RecordRequest
	if err := utils.DecodeJSONBody(r, &req, constants.RecordResource); err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewRecordsProvider().GetRecordService()
	record, err := service.UpdateRecord(r.Context(), utils.ExtractTenantFromPath(r), datasetID, recordID,
		req.Fields, authn.GetUserIDFromRequest(r))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, record, constants.RecordResource)
}

// DeleteRecord handles DELETE /datasets/{datasetId}/records/{recordId}
func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationRecordsManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, recordID, err := recordPath(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewRecordsProvider().GetRecordService()
	err = service.DeleteRecord(r.Context(), utils.ExtractTenantFromPath(r), datasetID, recordID,
		authn.GetUserIDFromRequest(r))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func recordPath(r *http.Request) (int64, int64, error) {

	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		return 0, 0, err
	}
	recordID, err := utils.PathInt64(r, "recordId")
	if err != nil {
		return 0, 0, err
	}
	return datasetID, recordID, nil
}
