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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	"github.com/wso2/record-deduplication-service/internal/system/database/migrations"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type fakeRunner struct {
	scanDataset int64
	scanOpts    model.ScanOptions
	checkReq    model.CheckRequest
	checkTenant string
	err         error
}

func (f *fakeRunner) ScanDatasetForDuplicates(_ context.Context, datasetID int64,
	opts model.ScanOptions) (*model.ScanResult, error) {
	f.scanDataset = datasetID
	f.scanOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &model.ScanResult{DatasetID: datasetID, CandidatesCreated: 3, PairsCompared: 45}, nil
}

func (f *fakeRunner) Check(_ context.Context, tenantID string, _ int64,
	req model.CheckRequest) (*model.CheckResponse, error) {
	f.checkTenant = tenantID
	f.checkReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &model.CheckResponse{HasDuplicates: true, Matches: []model.CheckMatch{{RecordID: 7, Score: 90}}}, nil
}

type harness struct {
	runner      *fakeRunner
	migrateOpts migrations.Options
	setupHome   string
	tornDown    bool
}

func newHarness() *harness {
	return &harness{runner: &fakeRunner{}}
}

func (h *harness) runtime() Runtime {
	return Runtime{
		Setup: func(home string) error {
			h.setupHome = home
			return nil
		},
		Migrate: func(_ context.Context, opts migrations.Options) (*migrations.Result, error) {
			h.migrateOpts = opts
			return &migrations.Result{PreviousVersion: 0, CurrentVersion: 3, Changed: true}, nil
		},
		Duplicates: func() DuplicateRunner { return h.runner },
		Teardown:   func() { h.tornDown = true },
	}
}

func (h *harness) execute(args ...string) (string, error) {
	cmd := NewRootCommandWithRuntime(h.runtime())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// ---------------------------------------------------------------------------
// Command tree
// ---------------------------------------------------------------------------

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "dedupectl", cmd.Use)

	for _, name := range []string{"migrate", "scan", "check"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestScanCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	scanCmd, _, err := cmd.Find([]string{"scan"})
	require.NoError(t, err)

	for _, flag := range []string{"dataset", "limit", "workers", "resume"} {
		assert.NotNil(t, scanCmd.Flags().Lookup(flag), flag)
	}
	assert.Equal(t, "false", scanCmd.Flags().Lookup("resume").DefValue)
}

// ---------------------------------------------------------------------------
// migrate
// ---------------------------------------------------------------------------

func TestMigrate(t *testing.T) {
	h := newHarness()
	out, err := h.execute("migrate", "--home", "/opt/dds", "--version", "2")
	require.NoError(t, err)

	assert.Equal(t, uint(2), h.migrateOpts.Version)
	assert.Equal(t, "/opt/dds", h.setupHome)
	assert.True(t, h.tornDown)
	assert.Contains(t, out, "from version 0 to 3")
}

func TestMigrate_SetupFailure(t *testing.T) {
	h := newHarness()
	runtime := h.runtime()
	runtime.Setup = func(string) error { return errors.New("no deployment.yaml") }

	cmd := NewRootCommandWithRuntime(runtime)
	cmd.SetArgs([]string{"migrate"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deployment.yaml")
}

// ---------------------------------------------------------------------------
// scan
// ---------------------------------------------------------------------------

func TestScan(t *testing.T) {
	h := newHarness()
	out, err := h.execute("scan", "--dataset", "4", "--limit", "10", "--workers", "2", "--resume")
	require.NoError(t, err)

	assert.Equal(t, int64(4), h.runner.scanDataset)
	assert.Equal(t, model.ScanOptions{Limit: 10, Workers: 2, Resume: true}, h.runner.scanOpts)

	var result model.ScanResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 3, result.CandidatesCreated)
	assert.Equal(t, int64(45), result.PairsCompared)
}

func TestScan_Rejections(t *testing.T) {
	cases := map[string][]string{
		"missing dataset":  {"scan"},
		"zero dataset":     {"scan", "--dataset", "0"},
		"negative limit":   {"scan", "--dataset", "1", "--limit", "-1"},
		"negative workers": {"scan", "--dataset", "1", "--workers", "-3"},
		"positional args":  {"scan", "extra", "--dataset", "1"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			_, err := h.execute(args...)
			require.Error(t, err)
			assert.Zero(t, h.runner.scanDataset)
		})
	}
}

func TestScan_PropagatesServiceError(t *testing.T) {
	h := newHarness()
	h.runner.err = errors.New("scan failed")
	_, err := h.execute("scan", "--dataset", "1")
	require.EqualError(t, err, "scan failed")
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func TestCheck(t *testing.T) {
	h := newHarness()
	out, err := h.execute("check", "--dataset", "1", "--fields", `{"name": "Jon Smith", "age": 42}`,
		"--exclude", "9")
	require.NoError(t, err)

	assert.Equal(t, "", h.runner.checkTenant)
	assert.Equal(t, int64(9), h.runner.checkReq.ExcludeID)
	assert.Equal(t, "Jon Smith", h.runner.checkReq.Fields["name"])
	assert.Equal(t, json.Number("42"), h.runner.checkReq.Fields["age"])

	var response model.CheckResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.True(t, response.HasDuplicates)
	require.Len(t, response.Matches, 1)
	assert.Equal(t, int64(7), response.Matches[0].RecordID)
}

func TestCheck_RejectsBadFields(t *testing.T) {
	for _, raw := range []string{"", "null", "{}", "[1, 2]", "{broken"} {
		t.Run(raw, func(t *testing.T) {
			h := newHarness()
			_, err := h.execute("check", "--dataset", "1", "--fields", raw)
			require.Error(t, err)
			assert.Nil(t, h.runner.checkReq.Fields)
		})
	}
}
