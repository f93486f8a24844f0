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
	"reflect"
	"sort"
	"strconv"

	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/metrics"
	"github.com/wso2/record-deduplication-service/internal/system/validation"
)

// MergeRecords merges the records in req.MergeRecordIDs into the surviving record inside one
// transaction. The survivor keeps its fields except where req.FieldSelections picks another
// value, every dependent reference moves to the survivor, the candidates of the merged records
// are resolved, a merge log with the pre-merge state is written and the merged records are
// deleted. Nothing is changed when any step fails.
func (s *DuplicateService) MergeRecords(ctx context.Context, tenantID string, req model.MergeRequest,
	userID string) (*model.MergeResult, error) {

	if err := validation.Struct(req, errors.INVALID_MERGE_REQUEST); err != nil {
		return nil, err
	}
	for _, id := range req.MergeRecordIDs {
		if id == req.SurvivingRecordID {
			return nil, errors.NewValidationError(errors.INVALID_MERGE_REQUEST,
				fmt.Sprintf("Record %d cannot be merged into itself.", id))
		}
	}

	survivor, err := s.mergeRecord(ctx, req.SurvivingRecordID)
	if err != nil {
		return nil, err
	}
	dataset, err := s.GetDataset(ctx, tenantID, survivor.DatasetID)
	if err != nil {
		return nil, err
	}
	for _, id := range req.MergeRecordIDs {
		record, err := s.mergeRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		if record.DatasetID != survivor.DatasetID {
			return nil, errors.NewValidationError(errors.INVALID_MERGE_REQUEST,
				fmt.Sprintf("Record %d does not belong to dataset %d.", id, survivor.DatasetID))
		}
	}
	if err := validateSelections(req.FieldSelections, req.SurvivingRecordID, req.MergeRecordIDs); err != nil {
		return nil, err
	}

	var (
		merged     *recordmodel.Record
		entry      *model.MergeLog
		resolved   int64
		retargeted = map[string]int64{}
	)
	err = s.deps.TxRunner.RunInTx(ctx, func(tx client.Executor) error {

		allIDs := append([]int64{req.SurvivingRecordID}, req.MergeRecordIDs...)
		sort.Slice(allIDs, func(i, j int) bool { return allIDs[i] < allIDs[j] })

		locked, err := s.deps.Records.LockRecords(ctx, tx, allIDs)
		if err != nil {
			return err
		}
		byID := make(map[int64]recordmodel.Record, len(locked))
		for _, record := range locked {
			byID[record.ID] = record
		}
		for _, id := range allIDs {
			record, ok := byID[id]
			if !ok {
				return errors.NewConflictError(errors.RECORD_ALREADY_MERGED,
					fmt.Sprintf("Record %d was merged or deleted by a concurrent request.", id))
			}
			if record.DatasetID != dataset.ID {
				return errors.NewValidationError(errors.INVALID_MERGE_REQUEST,
					fmt.Sprintf("Record %d does not belong to dataset %d.", id, dataset.ID))
			}
		}

		current := byID[req.SurvivingRecordID]
		mergeRecords := make([]recordmodel.Record, 0, len(req.MergeRecordIDs))
		snapshot := make([]model.SnapshotEntry, 0, len(req.MergeRecordIDs))
		for _, id := range req.MergeRecordIDs {
			record := byID[id]
			mergeRecords = append(mergeRecords, record)
			snapshot = append(snapshot, model.SnapshotEntry{
				ID:        record.ID,
				Fields:    copyFields(record.Fields),
				CreatedAt: record.CreatedAt,
				UpdatedAt: record.UpdatedAt,
			})
		}

		fields, err := resolveFields(current, mergeRecords, req.FieldSelections)
		if err != nil {
			return err
		}
		if err := s.deps.Records.UpdateFields(ctx, tx, current.ID, fields); err != nil {
			return err
		}

		for _, id := range req.MergeRecordIDs {
			for _, collaborator := range s.deps.Retargeters {
				n, err := collaborator.BulkRetarget(ctx, tx, dataset.ID, id, current.ID)
				if err != nil {
					return err
				}
				retargeted[collaborator.Name()] += n
			}
		}

		if resolved, err = s.deps.Candidates.MarkMerged(ctx, tx, dataset.ID, userID, allIDs); err != nil {
			return err
		}
		// Merged away records are deleted below, so no candidate may keep pointing at them.
		if _, err := s.deps.Candidates.DeleteReferencing(ctx, tx, dataset.ID, req.MergeRecordIDs); err != nil {
			return err
		}

		entry, err = s.deps.MergeLogs.InsertMergeLog(ctx, tx, model.MergeLog{
			DatasetID:          dataset.ID,
			SurvivingRecordID:  current.ID,
			MergedRecordIDs:    req.MergeRecordIDs,
			FieldSelections:    req.FieldSelections,
			MergedDataSnapshot: snapshot,
			MergedBy:           userID,
		})
		if err != nil {
			return err
		}

		for _, id := range req.MergeRecordIDs {
			if _, err := s.deps.Records.DeleteRecord(ctx, tx, id); err != nil {
				return err
			}
		}

		refreshed, err := s.deps.Records.LockRecords(ctx, tx, []int64{current.ID})
		if err != nil {
			return err
		}
		if len(refreshed) == 0 {
			return errors.NewConflictError(errors.RECORD_ALREADY_MERGED,
				fmt.Sprintf("Record %d was deleted by a concurrent request.", current.ID))
		}
		merged = &refreshed[0]
		return nil
	})
	if err != nil {
		metrics.MergesTotal.WithLabelValues("failed").Inc()
		return nil, mergeFailed(req.SurvivingRecordID, err)
	}

	metrics.MergesTotal.WithLabelValues("success").Inc()
	for name, n := range retargeted {
		metrics.ReferencesRetargeted.WithLabelValues(name).Add(float64(n))
	}
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorID:   userID,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      strconv.FormatInt(merged.ID, 10),
		TargetType:    log.TargetTypeRecord,
		ActionID:      log.ActionMergeRecords,
		Data: map[string]interface{}{
			"dataset_id":        dataset.ID,
			"merged_record_ids": req.MergeRecordIDs,
			"merge_log_id":      entry.ID,
			"candidates_merged": resolved,
		},
	})
	s.publish(constants.EventDuplicateMerged, dataset.TenantID, dataset.ID, map[string]interface{}{
		"surviving_record_id": merged.ID,
		"merged_record_ids":   req.MergeRecordIDs,
		"merge_log_id":        entry.ID,
		"merged_by":           userID,
	})

	return &model.MergeResult{Record: merged, MergeLogID: entry.ID, CandidatesMerged: resolved,
		Retargeted: retargeted}, nil
}

// mergeRecord loads a record taking part in a merge. A record merged away earlier is a
// conflict, any other missing record a validation error.
func (s *DuplicateService) mergeRecord(ctx context.Context, id int64) (*recordmodel.Record, error) {

	record, err := s.deps.Records.GetRecordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}
	logID, survivorID, err := s.deps.MergeLogs.FindMergeOf(ctx, id)
	if err != nil {
		return nil, err
	}
	if logID != 0 {
		return nil, errors.NewConflictError(errors.RECORD_ALREADY_MERGED,
			fmt.Sprintf("Record %d was already merged into record %d.", id, survivorID))
	}
	return nil, errors.NewValidationError(errors.INVALID_MERGE_REQUEST,
		fmt.Sprintf("Record %d does not exist.", id))
}

// PreviewMerge reports, for every field of the dataset, the values of both records and the
// value a merge of record B into record A with the given selections would keep.
func (s *DuplicateService) PreviewMerge(ctx context.Context, tenantID string,
	req model.PreviewRequest) (*model.MergePreview, error) {

	if err := validation.Struct(req, errors.INVALID_MERGE_REQUEST); err != nil {
		return nil, err
	}
	recordA, err := s.previewRecord(ctx, req.RecordAID)
	if err != nil {
		return nil, err
	}
	recordB, err := s.previewRecord(ctx, req.RecordBID)
	if err != nil {
		return nil, err
	}
	dataset, err := s.GetDataset(ctx, tenantID, recordA.DatasetID)
	if err != nil {
		return nil, err
	}
	if recordB.DatasetID != recordA.DatasetID {
		return nil, errors.NewValidationError(errors.INVALID_MERGE_REQUEST,
			fmt.Sprintf("Record %d does not belong to dataset %d.", recordB.ID, recordA.DatasetID))
	}
	if err := validateSelections(req.FieldSelections, recordA.ID, []int64{recordB.ID}); err != nil {
		return nil, err
	}

	labels := map[string]string{}
	names := dataset.FieldNames()
	for _, field := range dataset.Fields {
		labels[field.Name] = field.Label
	}
	if len(names) == 0 {
		names = unionKeys(recordA.Fields, recordB.Fields)
	}

	preview := &model.MergePreview{RecordA: recordA, RecordB: recordB, Fields: make([]model.FieldDiff, 0, len(names))}
	for _, name := range names {
		selection, ok := req.FieldSelections[name]
		if !ok {
			selection = model.Surviving()
		}
		valueA := recordA.Fields[name]
		selected := valueA
		value, present, err := resolveSelection(name, selection, *recordA, []recordmodel.Record{*recordB})
		if err != nil {
			return nil, err
		}
		if present {
			selected = value
		}
		preview.Fields = append(preview.Fields, model.FieldDiff{
			Field:         name,
			Label:         labels[name],
			ValueA:        valueA,
			ValueB:        recordB.Fields[name],
			Selection:     selection,
			SelectedValue: selected,
			Differs:       !reflect.DeepEqual(valueA, recordB.Fields[name]),
		})
	}
	return preview, nil
}

func (s *DuplicateService) previewRecord(ctx context.Context, id int64) (*recordmodel.Record, error) {

	record, err := s.deps.Records.GetRecordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.NewNotFoundError(errors.RECORD_NOT_FOUND, fmt.Sprintf("Record %d does not exist.", id))
	}
	return record, nil
}

// validateSelections checks that every index and record id refers to a record of the merge.
func validateSelections(selections map[string]model.FieldSelection, survivorID int64, mergeIDs []int64) error {

	for field, selection := range selections {
		if field == "" {
			return errors.NewValidationError(errors.INVALID_FIELD_SELECTION, "Field selection keys must not be empty.")
		}
		switch selection.Kind {
		case model.SelectIndex:
			if selection.Index < 0 || selection.Index >= len(mergeIDs) {
				return errors.NewValidationError(errors.INVALID_FIELD_SELECTION,
					fmt.Sprintf("Selection of '%s' refers to merge record %d but only %d are merged.",
						field, selection.Index, len(mergeIDs)))
			}
		case model.SelectRecord:
			if selection.RecordID == survivorID {
				continue
			}
			found := false
			for _, id := range mergeIDs {
				found = found || id == selection.RecordID
			}
			if !found {
				return errors.NewValidationError(errors.INVALID_FIELD_SELECTION,
					fmt.Sprintf("Selection of '%s' refers to record %d which is not part of the merge.",
						field, selection.RecordID))
			}
		case model.SelectSurviving, model.SelectCustom:
		default:
			return errors.NewValidationError(errors.INVALID_FIELD_SELECTION,
				fmt.Sprintf("Selection of '%s' is not supported.", field))
		}
	}
	return nil
}

// resolveFields starts from the survivor's fields and applies every selection. A value taken
// from a merge record is only copied when that record has a non-null value for the field.
func resolveFields(survivor recordmodel.Record, mergeRecords []recordmodel.Record,
	selections map[string]model.FieldSelection) (map[string]interface{}, error) {

	fields := copyFields(survivor.Fields)
	for field, selection := range selections {
		value, present, err := resolveSelection(field, selection, survivor, mergeRecords)
		if err != nil {
			return nil, err
		}
		if present {
			fields[field] = value
		}
	}
	return fields, nil
}

// resolveSelection returns the value selection picks for field and whether there is one.
func resolveSelection(field string, selection model.FieldSelection, survivor recordmodel.Record,
	mergeRecords []recordmodel.Record) (interface{}, bool, error) {

	switch selection.Kind {
	case model.SelectSurviving:
		value, ok := survivor.Fields[field]
		return value, ok, nil
	case model.SelectCustom:
		return selection.Value, true, nil
	case model.SelectIndex:
		if selection.Index < 0 || selection.Index >= len(mergeRecords) {
			return nil, false, errors.NewValidationError(errors.INVALID_FIELD_SELECTION,
				fmt.Sprintf("Selection of '%s' refers to an unknown merge record.", field))
		}
		return presentValue(mergeRecords[selection.Index].Fields, field)
	case model.SelectRecord:
		if selection.RecordID == survivor.ID {
			value, ok := survivor.Fields[field]
			return value, ok, nil
		}
		for _, record := range mergeRecords {
			if record.ID == selection.RecordID {
				return presentValue(record.Fields, field)
			}
		}
		return nil, false, errors.NewValidationError(errors.INVALID_FIELD_SELECTION,
			fmt.Sprintf("Selection of '%s' refers to record %d which is not part of the merge.",
				field, selection.RecordID))
	}
	return nil, false, errors.NewValidationError(errors.INVALID_FIELD_SELECTION,
		fmt.Sprintf("Selection of '%s' is not supported.", field))
}

func presentValue(fields map[string]interface{}, field string) (interface{}, bool, error) {
	value, ok := fields[field]
	return value, ok && value != nil, nil
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func unionKeys(a, b map[string]interface{}) []string {

	seen := map[string]struct{}{}
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mergeFailed keeps client and server errors and wraps anything else.
func mergeFailed(survivorID int64, err error) error {

	if isClientError(err) {
		return err
	}
	if _, ok := err.(*errors.ServerError); ok {
		return err
	}
	log.GetLogger().Error("Record merge failed", log.Int64("surviving_record_id", survivorID), log.Error(err))
	return errors.NewServerError(errors.ErrorMessage{
		Code:        errors.MERGE_FAILED.Code,
		Message:     errors.MERGE_FAILED.Message,
		Description: fmt.Sprintf("Failed to merge records into record %d.", survivorID),
	}, err)
}
