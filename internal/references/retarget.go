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

// Package references moves rows that point at a record onto another record of the same
// dataset. The merge engine calls every collaborator listed by Collaborators.
package references

import (
	"context"
	"fmt"

	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/scripts"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

// Retargetable is implemented by every collaborator that holds references to records.
// BulkRetarget is idempotent and only touches rows of the given dataset.
type Retargetable interface {
	Name() string
	BulkRetarget(ctx context.Context, ex client.Executor, datasetID, oldID, newID int64) (int64, error)
}

// tableRetargeter repoints a single record_id column.
type tableRetargeter struct {
	name  string
	query string
}

func (t tableRetargeter) Name() string {
	return t.name
}

func (t tableRetargeter) BulkRetarget(ctx context.Context, ex client.Executor, datasetID, oldID,
	newID int64) (int64, error) {

	return exec(ctx, ex, t.name, t.query, datasetID, oldID, newID)
}

// relationshipRetargeter repoints both ends of relationship edges and drops edges that
// would link the survivor to itself.
type relationshipRetargeter struct {
	fromQuery string
	toQuery   string
	selfQuery string
}

func (relationshipRetargeter) Name() string {
	return "relationships"
}

func (r relationshipRetargeter) BulkRetarget(ctx context.Context, ex client.Executor, datasetID, oldID,
	newID int64) (int64, error) {

	from, err := exec(ctx, ex, r.Name(), r.fromQuery, datasetID, oldID, newID)
	if err != nil {
		return 0, err
	}
	to, err := exec(ctx, ex, r.Name(), r.toQuery, datasetID, oldID, newID)
	if err != nil {
		return 0, err
	}
	if _, err := exec(ctx, ex, r.Name(), r.selfQuery, datasetID, newID); err != nil {
		return 0, err
	}
	return from + to, nil
}

// Collaborators returns the fixed list of reference holders in the order they are retargeted.
// Activities come last so their provenance stamp reflects the record they were moved from.
func Collaborators(dbType string) []Retargetable {

	return []Retargetable{
		relationshipRetargeter{
			fromQuery: scripts.RetargetRelationshipsFrom[dbType],
			toQuery:   scripts.RetargetRelationshipsTo[dbType],
			selfQuery: scripts.DeleteSelfRelationships[dbType],
		},
		tableRetargeter{name: "notes", query: scripts.RetargetNotes[dbType]},
		tableRetargeter{name: "tasks", query: scripts.RetargetTasks[dbType]},
		tableRetargeter{name: "emails", query: scripts.RetargetEmails[dbType]},
		tableRetargeter{name: "attachments", query: scripts.RetargetAttachments[dbType]},
		tableRetargeter{name: "audit_logs", query: scripts.RetargetAuditLogs[dbType]},
		tableRetargeter{name: "activities", query: scripts.RetargetActivities[dbType]},
	}
}

func exec(ctx context.Context, ex client.Executor, name, query string, args ...interface{}) (int64, error) {

	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to retarget %s references.", name)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return 0, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.RETARGET_FAILED.Code,
			Message:     errors.RETARGET_FAILED.Message,
			Description: errorMsg,
		}, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
