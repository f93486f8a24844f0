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

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	recordmodel "github.com/wso2/record-deduplication-service/internal/records/model"
)

// SelectionKind says where the merged value of a field comes from.
type SelectionKind string

const (
	SelectSurviving SelectionKind = "surviving"
	SelectIndex     SelectionKind = "index"
	SelectRecord    SelectionKind = "record"
	SelectCustom    SelectionKind = "custom"
)

// FieldSelection is the decoded form of one field_selections entry. Accepted JSON forms are
// "a" or "surviving", "b" (index 0), a numeric index into merge_record_ids,
// {"record_id": X} and {"custom": v}.
type FieldSelection struct {
	Kind     SelectionKind
	Index    int
	RecordID int64
	Value    interface{}
}

func Surviving() FieldSelection           { return FieldSelection{Kind: SelectSurviving} }
func FromIndex(i int) FieldSelection      { return FieldSelection{Kind: SelectIndex, Index: i} }
func FromRecord(id int64) FieldSelection  { return FieldSelection{Kind: SelectRecord, RecordID: id} }
func Custom(v interface{}) FieldSelection { return FieldSelection{Kind: SelectCustom, Value: v} }

func (s *FieldSelection) UnmarshalJSON(data []byte) error {

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("field selection must not be null")
	}

	switch trimmed[0] {
	case '"':
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		return s.fromString(value)
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		if len(raw) != 1 {
			return fmt.Errorf("field selection object must have exactly one of 'custom' or 'record_id'")
		}
		if v, ok := raw["custom"]; ok {
			decoder := json.NewDecoder(bytes.NewReader(v))
			decoder.UseNumber()
			var value interface{}
			if err := decoder.Decode(&value); err != nil {
				return err
			}
			*s = Custom(value)
			return nil
		}
		if v, ok := raw["record_id"]; ok {
			var id int64
			if err := json.Unmarshal(v, &id); err != nil {
				return fmt.Errorf("'record_id' must be an integer")
			}
			*s = FromRecord(id)
			return nil
		}
		return fmt.Errorf("field selection object must have exactly one of 'custom' or 'record_id'")
	default:
		var index int
		if err := json.Unmarshal(trimmed, &index); err != nil {
			return fmt.Errorf("field selection must be \"a\", \"b\", an index or an object")
		}
		if index < 0 {
			return fmt.Errorf("field selection index must not be negative")
		}
		*s = FromIndex(index)
		return nil
	}
}

func (s *FieldSelection) fromString(value string) error {

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "a", "surviving":
		*s = Surviving()
		return nil
	case "b":
		*s = FromIndex(0)
		return nil
	}
	index, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || index < 0 {
		return fmt.Errorf("unknown field selection '%s'", value)
	}
	*s = FromIndex(index)
	return nil
}

func (s FieldSelection) MarshalJSON() ([]byte, error) {

	switch s.Kind {
	case SelectIndex:
		return json.Marshal(s.Index)
	case SelectRecord:
		return json.Marshal(map[string]int64{"record_id": s.RecordID})
	case SelectCustom:
		return json.Marshal(map[string]interface{}{"custom": s.Value})
	}
	return json.Marshal(string(SelectSurviving))
}

type MergeRequest struct {
	SurvivingRecordID int64                     `json:"surviving_record_id" validate:"gt=0"`
	MergeRecordIDs    []int64                   `json:"merge_record_ids" validate:"required,min=1,unique,dive,gt=0"`
	FieldSelections   map[string]FieldSelection `json:"field_selections"`
}

type PreviewRequest struct {
	RecordAID       int64                     `json:"record_a_id" validate:"gt=0"`
	RecordBID       int64                     `json:"record_b_id" validate:"gt=0,nefield=RecordAID"`
	FieldSelections map[string]FieldSelection `json:"field_selections"`
}

// FieldDiff is one row of a merge preview.
type FieldDiff struct {
	Field         string         `json:"field"`
	Label         string         `json:"label,omitempty"`
	ValueA        interface{}    `json:"value_a"`
	ValueB        interface{}    `json:"value_b"`
	Selection     FieldSelection `json:"selection"`
	SelectedValue interface{}    `json:"selected_value"`
	Differs       bool           `json:"differs"`
}

type MergePreview struct {
	RecordA *recordmodel.Record `json:"record_a"`
	RecordB *recordmodel.Record `json:"record_b"`
	Fields  []FieldDiff         `json:"fields"`
}

// SnapshotEntry is the state of a merged away record before the merge.
type SnapshotEntry struct {
	ID        int64                  `json:"id"`
	Fields    map[string]interface{} `json:"fields"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// MergeLog is the write-once audit entry of one merge.
type MergeLog struct {
	ID                 int64                     `json:"id"`
	DatasetID          int64                     `json:"dataset_id"`
	SurvivingRecordID  int64                     `json:"surviving_record_id"`
	MergedRecordIDs    []int64                   `json:"merged_record_ids"`
	FieldSelections    map[string]FieldSelection `json:"field_selections"`
	MergedDataSnapshot []SnapshotEntry           `json:"merged_data_snapshot"`
	MergedBy           string                    `json:"merged_by,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
}

// MergeResult is the surviving record after a merge. CandidatesMerged counts the reviewed
// pairs the merge resolved.
type MergeResult struct {
	Record           *recordmodel.Record `json:"record"`
	MergeLogID       int64               `json:"merge_log_id"`
	CandidatesMerged int64               `json:"candidates_merged"`
	Retargeted       map[string]int64    `json:"retargeted"`
}
