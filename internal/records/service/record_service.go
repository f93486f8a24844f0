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

package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/records/store"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
	"github.com/wso2/record-deduplication-service/internal/system/validation"
)

// RecordServiceInterface manages datasets and their records. A non-empty tenant restricts
// every lookup to datasets owned by that tenant.
type RecordServiceInterface interface {
	CreateDataset(ctx context.Context, tenantID string, req model.DatasetRequest) (*model.Dataset, error)
	GetDataset(ctx context.Context, tenantID string, datasetID int64) (*model.Dataset, error)
	ListDatasets(ctx context.Context, tenantID string) ([]model.Dataset, error)
	CreateRecord(ctx context.Context, tenantID string, datasetID int64, fields map[string]interface{}) (*model.Record, error)
	GetRecord(ctx context.Context, tenantID string, datasetID, recordID int64) (*model.Record, error)
	ListRecords(ctx context.Context, tenantID string, datasetID int64,
		page pagination.PageRequest) (pagination.Page[model.Record], error)
	UpdateRecord(ctx context.Context, tenantID string, datasetID, recordID int64, fields map[string]interface{},
		userID string) (*model.Record, error)
	DeleteRecord(ctx context.Context, tenantID string, datasetID, recordID int64, userID string) error
}

type recordStore interface {
	CreateDataset(ctx context.Context, dataset model.Dataset) (*model.Dataset, error)
	GetDataset(ctx context.Context, id int64) (*model.Dataset, error)
	ListDatasets(ctx context.Context, tenantID string) ([]model.Dataset, error)
	CreateRecord(ctx context.Context, datasetID int64, fields map[string]interface{}) (*model.Record, error)
	GetRecord(ctx context.Context, datasetID, id int64) (*model.Record, error)
	ListRecordsPage(ctx context.Context, datasetID int64, page pagination.PageRequest) ([]model.Record, int64, error)
	UpdateFields(ctx context.Context, ex client.Executor, id int64, fields map[string]interface{}) error
	DeleteRecord(ctx context.Context, ex client.Executor, id int64) (bool, error)
}

type RecordService struct {
	store recordStore
}

// GetRecordService returns a service backed by the shared database pool.
func GetRecordService() RecordServiceInterface {
	return NewRecordService(store.NewRecordStore(provider.NewDBProvider()))
}

func NewRecordService(recordStore recordStore) *RecordService {
	return &RecordService{store: recordStore}
}

func (rs *RecordService) CreateDataset(ctx context.Context, tenantID string,
	req model.DatasetRequest) (*model.Dataset, error) {

	if err := validation.Struct(req, errors.INVALID_DATASET); err != nil {
		return nil, err
	}
	dataset, err := rs.store.CreateDataset(ctx, model.Dataset{
		TenantID: tenantID,
		Name:     req.Name,
		Fields:   req.Fields,
	})
	if err != nil {
		return nil, err
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      strconv.FormatInt(dataset.ID, 10),
		TargetType:    log.TargetTypeDataset,
		ActionID:      log.ActionAddDataset,
	})
	return dataset, nil
}

func (rs *RecordService) GetDataset(ctx context.Context, tenantID string, datasetID int64) (*model.Dataset, error) {

	dataset, err := rs.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if dataset == nil || (tenantID != "" && dataset.TenantID != tenantID) {
		return nil, errors.NewNotFoundError(errors.DATASET_NOT_FOUND,
			fmt.Sprintf("Dataset %d does not exist.", datasetID))
	}
	return dataset, nil
}

func (rs *RecordService) ListDatasets(ctx context.Context, tenantID string) ([]model.Dataset, error) {

	return rs.store.ListDatasets(ctx, tenantID)
}

func (rs *RecordService) CreateRecord(ctx context.Context, tenantID string, datasetID int64,
	fields map[string]interface{}) (*model.Record, error) {

	if fields == nil {
		return nil, errors.NewValidationError(errors.INVALID_RECORD, "'fields' is required.")
	}
	if _, err := rs.GetDataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}
	record, err := rs.store.CreateRecord(ctx, datasetID, fields)
	if err != nil {
		return nil, err
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      strconv.FormatInt(record.ID, 10),
		TargetType:    log.TargetTypeRecord,
		ActionID:      log.ActionAddRecord,
	})
	return record, nil
}

func (rs *RecordService) GetRecord(ctx context.Context, tenantID string, datasetID,
	recordID int64) (*model.Record, error) {

	if _, err := rs.GetDataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}
	record, err := rs.store.GetRecord(ctx, datasetID, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.NewNotFoundError(errors.RECORD_NOT_FOUND,
			fmt.Sprintf("Record %d does not exist in dataset %d.", recordID, datasetID))
	}
	return record, nil
}

func (rs *RecordService) ListRecords(ctx context.Context, tenantID string, datasetID int64,
	page pagination.PageRequest) (pagination.Page[model.Record], error) {

	if _, err := rs.GetDataset(ctx, tenantID, datasetID); err != nil {
		return pagination.Page[model.Record]{}, err
	}
	page = page.Normalize()
	records, total, err := rs.store.ListRecordsPage(ctx, datasetID, page)
	if err != nil {
		return pagination.Page[model.Record]{}, err
	}
	return pagination.NewPage(records, total, page), nil
}

// UpdateRecord replaces the fields of a record.
func (rs *RecordService) UpdateRecord(ctx context.Context, tenantID string, datasetID, recordID int64,
	fields map[string]interface{}, userID string) (*model.Record, error) {

	if fields == nil {
		return nil, errors.NewValidationError(errors.INVALID_RECORD, "'fields' is required.")
	}
	record, err := rs.GetRecord(ctx, tenantID, datasetID, recordID)
	if err != nil {
		return nil, err
	}
	if err := rs.store.UpdateFields(ctx, nil, recordID, fields); err != nil {
		return nil, err
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   userID,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      strconv.FormatInt(recordID, 10),
		TargetType:    log.TargetTypeRecord,
		ActionID:      log.ActionUpdateRecord,
	})
	return rs.GetRecord(ctx, tenantID, record.DatasetID, recordID)
}

func (rs *RecordService) DeleteRecord(ctx context.Context, tenantID string, datasetID, recordID int64,
	userID string) error {

	if _, err := rs.GetRecord(ctx, tenantID, datasetID, recordID); err != nil {
		return err
	}
	deleted, err := rs.store.DeleteRecord(ctx, nil, recordID)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.NewNotFoundError(errors.RECORD_NOT_FOUND,
			fmt.Sprintf("Record %d does not exist in dataset %d.", recordID, datasetID))
	}

	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   userID,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      strconv.FormatInt(recordID, 10),
		TargetType:    log.TargetTypeRecord,
		ActionID:      log.ActionDeleteRecord,
	})
	return nil
}
