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
	"github.com/wso2/record-deduplication-service/internal/duplicates/provider"
	"github.com/wso2/record-deduplication-service/internal/system/authn"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
	"github.com/wso2/record-deduplication-service/internal/system/security"
	"github.com/wso2/record-deduplication-service/internal/system/utils"
	"github.com/wso2/record-deduplication-service/internal/system/workers"
)

type DuplicateHandler struct{}

func NewDuplicateHandler() *DuplicateHandler {
	return &DuplicateHandler{}
}

// ListCandidates handles GET /datasets/{datasetId}/duplicates
func (h *DuplicateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesView); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	filter, err := parseCandidateFilter(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	page, err := pagination.ParsePage(r)
	if err != nil {
		utils.HandleError(w, errors.NewValidationError(errors.INVALID_PAGINATION, err.Error()))
		return
	}

	service := provider.NewDuplicatesProvider().GetDuplicateService()
	candidates, err := service.ListCandidates(r.Context(), utils.ExtractTenantFromPath(r), datasetID, filter, page)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, candidates, constants.CandidateResource)
}

// GetStats handles GET /datasets/{datasetId}/duplicates/stats
func (h *DuplicateHandler) GetStats(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesView); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewDuplicatesProvider().GetDuplicateService()
	stats, err := service.GetStats(r.Context(), utils.ExtractTenantFromPath(r), datasetID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats, constants.CandidateResource)
}

// Check handles POST /datasets/{datasetId}/duplicates/check
func (h *DuplicateHandler) Check(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesView); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.CheckRequest
	if err := utils.DecodeJSONBody(r, &req, constants.CheckResource); err != nil {
		utils.HandleError(w, err)
		return
	}

	service := provider.NewDuplicatesProvider().GetDuplicateService()
	response, err := service.Check(r.Context(), utils.ExtractTenantFromPath(r), datasetID, req)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, response, constants.CheckResource)
}

// Scan handles POST /datasets/{datasetId}/duplicates/scan. The scan runs on the scan worker
// pool; the response carries the job id.
func (h *DuplicateHandler) Scan(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	datasetID, err := utils.PathInt64(r, "datasetId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.ScanRequest
	if err := decodeOptionalBody(r, &req, constants.ScanResource); err != nil {
		utils.HandleError(w, err)
		return
	}
	if err := validateScanRequest(req); err != nil {
		utils.HandleError(w, err)
		return
	}

	tenantID := utils.ExtractTenantFromPath(r)
	service := provider.NewDuplicatesProvider().GetDuplicateService()
	if _, err := service.GetDataset(r.Context(), tenantID, datasetID); err != nil {
		utils.HandleError(w, err)
		return
	}

	userID := authn.GetUserIDFromRequest(r)
	job, err := workers.EnqueueScan(workers.ScanJob{
		TenantID:  tenantID,
		DatasetID: datasetID,
		Options:   model.ScanOptions{Limit: req.Limit, Resume: req.Resume},
		QueuedBy:  userID,
	})
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   userID,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      strconv.FormatInt(datasetID, 10),
		TargetType:    log.TargetTypeDataset,
		ActionID:      log.ActionScanQueued,
		Data:          map[string]interface{}{"job_id": job.ID, "limit": req.Limit, "resume": req.Resume},
	})
	utils.RespondJSON(w, http.StatusAccepted, model.ScanJobResponse{
		JobID:     job.ID,
		DatasetID: datasetID,
		Status:    "queued",
	}, constants.ScanResource)
}

// GetCandidate handles GET /duplicates/{candidateId}
func (h *DuplicateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesView); err != nil {
		utils.HandleError(w, err)
		return
	}
	candidateID, err := utils.PathInt64(r, "candidateId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewDuplicatesProvider().GetDuplicateService()
	candidate, err := service.GetCandidate(r.Context(), utils.ExtractTenantFromPath(r), candidateID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, candidate, constants.CandidateResource)
}

// DismissCandidate handles POST /duplicates/{candidateId}/dismiss
func (h *DuplicateHandler) DismissCandidate(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesManage); err != nil {
		utils.HandleError(w, err)
		return
	}
	candidateID, err := utils.PathInt64(r, "candidateId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.DismissRequest
	if err := decodeOptionalBody(r, &req, constants.CandidateResource); err != nil {
		utils.HandleError(w, err)
		return
	}

	service := provider.NewDuplicatesProvider().GetDuplicateService()
	candidate, err := service.DismissCandidate(r.Context(), utils.ExtractTenantFromPath(r), candidateID,
		authn.GetUserIDFromRequest(r), req.Reason)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, candidate, constants.CandidateResource)
}

// Merge handles POST /duplicates/merge
func (h *DuplicateHandler) Merge(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesMerge); err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.MergeRequest
	if err := utils.DecodeJSONBody(r, &req, constants.MergeResource); err != nil {
		utils.HandleError(w, err)
		return
	}

	service := provider.NewDuplicatesProvider().GetDuplicateService()
	result, err := service.MergeRecords(r.Context(), utils.ExtractTenantFromPath(r), req, authn.GetUserIDFromRequest(r))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result, constants.MergeResource)
}

// PreviewMerge handles POST /duplicates/merge/preview
func (h *DuplicateHandler) PreviewMerge(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesView); err != nil {
		utils.HandleError(w, err)
		return
	}
	var req model.PreviewRequest
	if err := utils.DecodeJSONBody(r, &req, constants.MergeResource); err != nil {
		utils.HandleError(w, err)
		return
	}

	service := provider.NewDuplicatesProvider().GetDuplicateService()
	preview, err := service.PreviewMerge(r.Context(), utils.ExtractTenantFromPath(r), req)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, preview, constants.MergeResource)
}

// GetMergeHistory handles GET /datasets/{datasetId}/merge-logs
func (h *DuplicateHandler) GetMergeHistory(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesView); err != nil {
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

	service := provider.NewDuplicatesProvider().GetDuplicateService()
	history, err := service.GetMergeHistory(r.Context(), utils.ExtractTenantFromPath(r), datasetID, page)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, history, constants.MergeResource)
}

// GetMergeLog handles GET /merge-logs/{mergeLogId}
func (h *DuplicateHandler) GetMergeLog(w http.ResponseWriter, r *http.Request) {

	if err := security.AuthnAndAuthz(r, constants.OperationDuplicatesView); err != nil {
		utils.HandleError(w, err)
		return
	}
	mergeLogID, err := utils.PathInt64(r, "mergeLogId")
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewDuplicatesProvider().GetDuplicateService()
	entry, err := service.GetMergeLog(r.Context(), utils.ExtractTenantFromPath(r), mergeLogID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, entry, constants.MergeResource)
}
