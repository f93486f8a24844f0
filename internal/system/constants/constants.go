/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
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

package constants

const ApiBasePath = "/api/v1"
const DefaultTenant = "carbon.super"

const (
	DatasetsApiPath       = "/datasets"
	RecordsApiPath        = "/records"
	DuplicateRulesApiPath = "/duplicate-rules"
	DuplicatesApiPath     = "/duplicates"
	MergeLogsApiPath      = "/merge-logs"
)

type contextKey string

const (
	TenantContextKey  contextKey = "tenant"
	TraceIDContextKey contextKey = "trace_id"
	UserIDContextKey  contextKey = "user_id"
)

const TraceIDHeader = "X-Trace-Id"

// Resource names used in decode error messages.
const (
	DatasetResource   = "dataset"
	RecordResource    = "record"
	MatchRuleResource = "duplicate rule"
	CandidateResource = "duplicate candidate"
	MergeResource     = "merge"
	ScanResource      = "duplicate scan"
	CheckResource     = "duplicate check"
)

// Operations checked against auth.required_scopes.
const (
	OperationRecordsView          = "records:view"
	OperationRecordsManage        = "records:manage"
	OperationDuplicateRulesView   = "duplicate_rules:view"
	OperationDuplicateRulesManage = "duplicate_rules:manage"
	OperationDuplicatesView       = "duplicates:view"
	OperationDuplicatesManage     = "duplicates:manage"
	OperationDuplicatesMerge      = "duplicates:merge"
)

// Event types published after committed changes.
const (
	EventDuplicateMerged        = "duplicate.merged"
	EventDuplicateDismissed     = "duplicate.dismissed"
	EventDuplicateScanCompleted = "duplicate.scan_completed"
)

// HighConfidenceScore is the score from which a pending candidate counts as high confidence.
const HighConfidenceScore = 0.9

const (
	MaxRuleNameLength = 255
	MaxRulePriority   = 1000
	MaxScanLimit      = 10000
	MaxCheckResults   = 5
)
