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

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
	"github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/database/scripts"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/pagination"
)

// RecordStore persists datasets and records.
type RecordStore struct {
	dbProvider provider.DBProviderInterface
}

func NewRecordStore(dbProvider provider.DBProviderInterface) *RecordStore {
	return &RecordStore{dbProvider: dbProvider}
}

func (s *RecordStore) dbClient() (client.DBClientInterface, error) {

	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		errorMsg := "Failed to get database client for record store."
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.DB_CLIENT_INIT.Code,
			Message:     errors.DB_CLIENT_INIT.Message,
			Description: errorMsg,
		}, err)
	}
	return dbClient, nil
}

func queryError(description string, err error) error {

	log.GetLogger().Debug(description, log.Error(err))
	return errors.NewServerError(errors.ErrorMessage{
		Code:        errors.EXECUTE_QUERY.Code,
		Message:     errors.EXECUTE_QUERY.Message,
		Description: description,
	}, err)
}

func corruptedError(description string, err error) error {

	log.GetLogger().Error(description, log.Error(err))
	return errors.NewServerError(errors.ErrorMessage{
		Code:        errors.DATA_CORRUPTED.Code,
		Message:     errors.DATA_CORRUPTED.Message,
		Description: description,
	}, err)
}

// CreateDataset inserts a dataset and returns it with its generated id.
func (s *RecordStore) CreateDataset(ctx context.Context, dataset model.Dataset) (*model.Dataset, error) {

	dbClient, err := s.dbClient()
	if err != nil {
		return nil, err
	}
	if dataset.Fields == nil {
		dataset.Fields = []model.DatasetField{}
	}
	fieldsJSON, err := json.Marshal(dataset.Fields)
	if err != nil {
		return nil, corruptedError("Failed to encode dataset fields.", err)
	}

	query := scripts.InsertDataset[s.dbProvider.GetDBType()]
	results, err := dbClient.ExecuteQueryContext(ctx, query, dataset.TenantID, dataset.Name, fieldsJSON)
	if client.IsUniqueViolation(err) {
		return nil, errors.NewConflictError(errors.DATASET_ALREADY_EXISTS,
			fmt.Sprintf("A dataset named '%s' already exists.", dataset.Name))
	}
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to insert dataset: %s", dataset.Name), err)
	}
	if len(results) == 0 {
		return nil, queryError("Dataset insert returned no row.", nil)
	}
	return datasetFromRow(results[0])
}

// GetDataset returns the dataset or nil when it does not exist.
func (s *RecordStore) GetDataset(ctx context.Context, id int64) (*model.Dataset, error) {

	dbClient, err := s.dbClient()
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.GetDataset[s.dbProvider.GetDBType()], id)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to fetch dataset: %d", id), err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return datasetFromRow(results[0])
}

// ListDatasets returns the datasets of a tenant. An empty tenant lists every dataset.
func (s *RecordStore) ListDatasets(ctx context.Context, tenantID string) ([]model.Dataset, error) {

	dbClient, err := s.dbClient()
	if err != nil {
		return nil, err
	}
	var results []map[string]interface{}
	if tenantID == "" {
		results, err = dbClient.ExecuteQueryContext(ctx, scripts.ListAllDatasets[s.dbProvider.GetDBType()])
	} else {
		results, err = dbClient.ExecuteQueryContext(ctx, scripts.ListDatasetsByTenant[s.dbProvider.GetDBType()], tenantID)
	}
	if err != nil {
		return nil, queryError("Failed to list datasets.", err)
	}

	datasets := make([]model.Dataset, 0, len(results))
	for _, row := range results {
		dataset, err := datasetFromRow(row)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *dataset)
	}
	return datasets, nil
}

// CreateRecord inserts a record into a dataset.
func (s *RecordStore) CreateRecord(ctx context.Context, datasetID int64, fields map[string]interface{}) (*model.Record, error) {

	dbClient, err := s.dbClient()
	if err != nil {
		return nil, err
	}
	fieldsJSON, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.InsertRecord[s.dbProvider.GetDBType()], datasetID, fieldsJSON)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to insert record into dataset: %d", datasetID), err)
	}
	if len(results) == 0 {
		return nil, queryError("Record insert returned no row.", nil)
	}
	return RecordFromRow(results[0])
}

// GetRecord returns the record of the dataset or nil when it does not exist.
func (s *RecordStore) GetRecord(ctx context.Context, datasetID, id int64) (*model.Record, error) {

	dbClient, err := s.dbClient()
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.GetRecord[s.dbProvider.GetDBType()], id, datasetID)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to fetch record: %d", id), err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return RecordFromRow(results[0])
}

// GetRecordByID returns a record of any dataset or nil when it does not exist.
func (s *RecordStore) GetRecordByID(ctx context.Context, id int64) (*model.Record, error) {

	dbClient, err := s.dbClient()
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.GetRecordByID[s.dbProvider.GetDBType()], id)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to fetch record: %d", id), err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return RecordFromRow(results[0])
}

// ListRecords returns every record of the dataset ordered by id.
func (s *RecordStore) ListRecords(ctx context.Context, datasetID int64) ([]model.Record, error) {

	dbClient, err := s.dbClient()
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.ListRecordsByDataset[s.dbProvider.GetDBType()], datasetID)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to list records of dataset: %d", datasetID), err)
	}
	return recordsFromRows(results)
}

// ListRecordsWindow returns the newest limit records of the dataset, highest id first,
// leaving out excludeID when it is non-zero.
func (s *RecordStore) ListRecordsWindow(ctx context.Context, datasetID, excludeID int64, limit int) ([]model.Record, error) {

	dbClient, err := s.dbClient()
	if err != nil {
		return nil, err
	}
	results, err := dbClient.ExecuteQueryContext(ctx, scripts.ListRecordsWindow[s.dbProvider.GetDBType()],
		datasetID, excludeID, limit)
	if err != nil {
		return nil, queryError(fmt.Sprintf("Failed to list records of dataset: %d", datasetID), err)
	}
	return recordsFromRows(results)
}

// ListRecordsPage returns one page of the dataset's records and the total count.
func (s *RecordStore) ListRecordsPage(ctx context.Context, datasetID int64,
	page pagination.PageRequest) ([]model.Record, int64, error) {

	dbClient, err := s.dbClient()
	if err != nil {
		return nil, 0, err
	}

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*) AS total").From("records").Where(countSb.Equal("dataset_id", datasetID))
	countQuery, countArgs := countSb.Build()
	countRows, err := dbClient.ExecuteQueryContext(ctx, countQuery, countArgs...)
	if err != nil {
		return nil, 0, queryError(fmt.Sprintf("Failed to count records of dataset: %d", datasetID), err)
	}
	var total int64
	if len(countRows) > 0 {
		total = client.Row(countRows[0]).Int64("total")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "dataset_id", "fields", "created_at", "updated_at").From("records")
	sb.Where(sb.Equal("dataset_id", datasetID))
	sb.OrderBy("id").Asc()
	sb.Limit(page.PerPage).Offset(page.Offset())
	query, args := sb.Build()

	results, err := dbClient.ExecuteQueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, queryError(fmt.Sprintf("Failed to list records of dataset: %d", datasetID), err)
	}
	records, err := recordsFromRows(results)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// LockRecords selects the given records FOR UPDATE in id order on ex, which must be a
// transaction.
func (s *RecordStore) LockRecords(ctx context.Context, ex client.Executor, ids []int64) ([]model.Record, error) {

	results, err := client.QueryRows(ctx, ex, scripts.LockRecordsForUpdate[s.dbProvider.GetDBType()], pq.Array(ids))
	if err != nil {
		return nil, queryError("Failed to lock records for update.", err)
	}
	return recordsFromRows(results)
}

// UpdateFields replaces the fields of a record.
func (s *RecordStore) UpdateFields(ctx context.Context, ex client.Executor, id int64, fields map[string]interface{}) error {

	fieldsJSON, err := encodeFields(fields)
	if err != nil {
		return err
	}
	if ex == nil {
		if ex, err = s.dbClient(); err != nil {
			return err
		}
	}
	if _, err := ex.ExecContext(ctx, scripts.UpdateRecordFields[s.dbProvider.GetDBType()], fieldsJSON, id); err != nil {
		return queryError(fmt.Sprintf("Failed to update record: %d", id), err)
	}
	return nil
}

// DeleteRecord deletes a record and reports whether it existed.
func (s *RecordStore) DeleteRecord(ctx context.Context, ex client.Executor, id int64) (bool, error) {

	var err error
	if ex == nil {
		if ex, err = s.dbClient(); err != nil {
			return false, err
		}
	}
	result, err := ex.ExecContext(ctx, scripts.DeleteRecord[s.dbProvider.GetDBType()], id)
	if err != nil {
		return false, queryError(fmt.Sprintf("Failed to delete record: %d", id), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, queryError(fmt.Sprintf("Failed to delete record: %d", id), err)
	}
	return affected > 0, nil
}

func encodeFields(fields map[string]interface{}) ([]byte, error) {

	if fields == nil {
		fields = map[string]interface{}{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, corruptedError("Failed to encode record fields.", err)
	}
	return encoded, nil
}

// DecodeFields decodes a JSONB field map keeping numbers as json.Number.
func DecodeFields(raw []byte) (map[string]interface{}, error) {

	fields := map[string]interface{}{}
	if len(raw) == 0 {
		return fields, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return fields, nil
}

// RecordFromRow maps a records row.
func RecordFromRow(result map[string]interface{}) (*model.Record, error) {

	row := client.Row(result)
	fields, err := DecodeFields(row.Bytes("fields"))
	if err != nil {
		return nil, corruptedError(fmt.Sprintf("Failed to decode fields of record: %d", row.Int64("id")), err)
	}
	return &model.Record{
		ID:        row.Int64("id"),
		DatasetID: row.Int64("dataset_id"),
		Fields:    fields,
		CreatedAt: row.Time("created_at"),
		UpdatedAt: row.Time("updated_at"),
	}, nil
}

func recordsFromRows(results []map[string]interface{}) ([]model.Record, error) {

	records := make([]model.Record, 0, len(results))
	for _, result := range results {
		record, err := RecordFromRow(result)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func datasetFromRow(result map[string]interface{}) (*model.Dataset, error) {

	row := client.Row(result)
	fields := []model.DatasetField{}
	if raw := row.Bytes("fields"); len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, corruptedError(fmt.Sprintf("Failed to decode fields of dataset: %d", row.Int64("id")), err)
		}
	}
	return &model.Dataset{
		ID:        row.Int64("id"),
		TenantID:  row.String("tenant_id"),
		Name:      row.String("name"),
		Fields:    fields,
		CreatedAt: row.Time("created_at"),
		UpdatedAt: row.Time("updated_at"),
	}, nil
}
