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

package references

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/test/setup"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type fakeResult int64

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

type execCall struct {
	query string
	args  []interface{}
}

type recordingExecutor struct {
	calls    []execCall
	affected int64
	failOn   string
}

func (e *recordingExecutor) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	e.calls = append(e.calls, execCall{query: query, args: args})
	if e.failOn != "" && strings.Contains(query, e.failOn) {
		return nil, fmt.Errorf("boom")
	}
	return fakeResult(e.affected), nil
}

func (e *recordingExecutor) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, fmt.Errorf("unexpected query")
}

var _ client.Executor = (*recordingExecutor)(nil)

// ---------------------------------------------------------------------------
// Collaborator list
// ---------------------------------------------------------------------------

func TestCollaborators_FixedOrder(t *testing.T) {
	var names []string
	for _, c := range Collaborators("postgres") {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"relationships", "notes", "tasks", "emails", "attachments", "audit_logs", "activities"},
		names)
}

func TestTableRetargeter_PassesDatasetAndIDs(t *testing.T) {
	ex := &recordingExecutor{affected: 3}
	notes := Collaborators("postgres")[1]

	moved, err := notes.BulkRetarget(context.Background(), ex, 7, 9, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), moved)
	require.Len(t, ex.calls, 1)
	assert.Contains(t, ex.calls[0].query, "record_notes")
	assert.Equal(t, []interface{}{int64(7), int64(9), int64(5)}, ex.calls[0].args)
}

func TestRelationshipRetargeter_RepointsBothEndsAndDropsSelfLinks(t *testing.T) {
	ex := &recordingExecutor{affected: 1}
	relationships := Collaborators("postgres")[0]

	moved, err := relationships.BulkRetarget(context.Background(), ex, 7, 9, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)
	require.Len(t, ex.calls, 3)
	assert.Contains(t, ex.calls[0].query, "from_record_id = $3")
	assert.Contains(t, ex.calls[1].query, "to_record_id = $3")
	assert.Contains(t, ex.calls[2].query, "DELETE")
	assert.Equal(t, []interface{}{int64(7), int64(5)}, ex.calls[2].args)
}

func TestBulkRetarget_WrapsFailures(t *testing.T) {
	ex := &recordingExecutor{failOn: "record_tasks"}
	tasks := Collaborators("postgres")[2]

	_, err := tasks.BulkRetarget(context.Background(), ex, 1, 2, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DDS-15011")
}

// ---------------------------------------------------------------------------
// Against Postgres
// ---------------------------------------------------------------------------

func TestRetargetAgainstPostgres(t *testing.T) {
	td := setup.RequireTestDB(t)
	td.Truncate(t)
	ctx := context.Background()
	db := td.DB

	_, err := db.Exec(`INSERT INTO record_notes (dataset_id, record_id, body) VALUES (1, 9, 'n1'), (2, 9, 'other dataset')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO record_relationships (from_dataset_id, from_record_id, to_dataset_id, to_record_id)
		VALUES (1, 9, 1, 5), (1, 3, 1, 9)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO record_activities (dataset_id, record_id, activity_type, metadata)
		VALUES (1, 9, 'call', '{}'), (1, 9, 'visit', '{"merged_from": 4}')`)
	require.NoError(t, err)

	dbClient, err := provider.NewStaticDBProvider(db).GetDBClient()
	require.NoError(t, err)
	err = client.RunInTransaction(ctx, dbClient, func(tx client.Executor) error {
		for _, c := range Collaborators("postgres") {
			if _, err := c.BulkRetarget(ctx, tx, 1, 9, 5); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM record_notes WHERE record_id = 5 AND dataset_id = 1`).Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM record_notes WHERE record_id = 9 AND dataset_id = 2`).Scan(&count))
	assert.Equal(t, 1, count)

	// The 9 -> 5 edge became a self link and is gone; 3 -> 9 now points at 5.
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM record_relationships`).Scan(&count))
	assert.Equal(t, 1, count)
	var to int64
	require.NoError(t, db.QueryRow(`SELECT to_record_id FROM record_relationships WHERE from_record_id = 3`).Scan(&to))
	assert.Equal(t, int64(5), to)

	var call, visit string
	require.NoError(t, db.QueryRow(`SELECT metadata->>'merged_from' FROM record_activities WHERE activity_type = 'call'`).Scan(&call))
	require.NoError(t, db.QueryRow(`SELECT metadata->>'merged_from' FROM record_activities WHERE activity_type = 'visit'`).Scan(&visit))
	assert.Equal(t, "9", call)
	assert.Equal(t, "4", visit)

	// A second run finds nothing left to move.
	ex := dbClient
	for _, c := range Collaborators("postgres") {
		moved, err := c.BulkRetarget(ctx, ex, 1, 9, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(0), moved, c.Name())
	}
}
