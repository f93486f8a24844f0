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
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/record-deduplication-service/internal/records/model"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/test/setup"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func recordIDs(records []model.Record) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestListRecordsWindow_NewestFirst(t *testing.T) {
	td := setup.RequireTestDB(t)
	td.Truncate(t)
	ctx := context.Background()
	store := NewRecordStore(provider.NewStaticDBProvider(td.DB))

	dataset, err := store.CreateDataset(ctx, model.Dataset{TenantID: "carbon.super", Name: "contacts"})
	require.NoError(t, err)
	created := []int64{}
	for _, name := range []string{"Acme", "Globex", "Initech", "Umbrella"} {
		record, err := store.CreateRecord(ctx, dataset.ID, map[string]interface{}{"name": name})
		require.NoError(t, err)
		created = append(created, record.ID)
	}

	window, err := store.ListRecordsWindow(ctx, dataset.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{created[3], created[2]}, recordIDs(window))

	window, err = store.ListRecordsWindow(ctx, dataset.ID, created[3], 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{created[2], created[1]}, recordIDs(window))
}
