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

package errors

const errorPrefix = "DDS-"

var (
	// Server error codes

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Error while initializing the database client.",
	}

	EXECUTE_QUERY = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while executing the database query.",
	}

	TRANSACTION_FAILED = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while executing the database transaction.",
	}

	LOCK_KEY_GEN = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while generating the advisory lock key.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error while acquiring the advisory lock.",
	}

	LOCK_RELEASE = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while releasing the advisory lock.",
	}

	LOCK_RESULT_INVALID = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Advisory lock query returned an invalid result.",
	}

	PARSING_ERROR = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Parsing token failed.",
	}

	SCAN_FAILED = ErrorMessage{
		Code:    errorPrefix + "15009",
		Message: "Duplicate scan failed.",
	}

	MERGE_FAILED = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Record merge failed.",
	}

	RETARGET_FAILED = ErrorMessage{
		Code:    errorPrefix + "15011",
		Message: "Error while transferring record references.",
	}

	DATA_CORRUPTED = ErrorMessage{
		Code:    errorPrefix + "15012",
		Message: "Stored data could not be decoded.",
	}

	MIGRATION_FAILED = ErrorMessage{
		Code:    errorPrefix + "15013",
		Message: "Database migration failed.",
	}

	INTERNAL_SERVER_ERROR = ErrorMessage{
		Code:        errorPrefix + "15014",
		Message:     "Internal server error.",
		Description: "The server encountered an error while processing the request.",
	}

	EVENT_PUBLISH_FAILED = ErrorMessage{
		Code:    errorPrefix + "15015",
		Message: "Error while publishing the event.",
	}

	// Client error codes

	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "11001",
		Message: "Invalid body format.",
	}

	UN_AUTHORIZED = ErrorMessage{
		Code:        errorPrefix + "11002",
		Message:     "Unauthorized",
		Description: "Authorization failure. Authorization information was invalid or missing from your request.",
	}

	FORBIDDEN = ErrorMessage{
		Code:        errorPrefix + "11003",
		Message:     "Forbidden",
		Description: "The token does not carry the scopes required for this operation.",
	}

	DATASET_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11004",
		Message:     "Dataset not found.",
		Description: "No dataset found for the given dataset id.",
	}

	RECORD_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11005",
		Message:     "Record not found.",
		Description: "No record found for the given record id.",
	}

	MATCH_RULE_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11006",
		Message:     "Duplicate rule not found.",
		Description: "No duplicate rule found for the given rule id.",
	}

	CANDIDATE_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11007",
		Message:     "Duplicate candidate not found.",
		Description: "No duplicate candidate found for the given candidate id.",
	}

	MERGE_LOG_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11008",
		Message:     "Merge history entry not found.",
		Description: "No merge history entry found for the given id.",
	}

	INVALID_CONDITIONS = ErrorMessage{
		Code:    errorPrefix + "11009",
		Message: "Invalid rule conditions.",
	}

	INVALID_MATCH_RULE = ErrorMessage{
		Code:    errorPrefix + "11010",
		Message: "Duplicate rule validation failed.",
	}

	INVALID_MERGE_REQUEST = ErrorMessage{
		Code:    errorPrefix + "11011",
		Message: "Invalid merge request.",
	}

	INVALID_FIELD_SELECTION = ErrorMessage{
		Code:    errorPrefix + "11012",
		Message: "Invalid field selection.",
	}

	RECORD_ALREADY_MERGED = ErrorMessage{
		Code:        errorPrefix + "11013",
		Message:     "Record already merged.",
		Description: "The record was merged into another record and no longer exists.",
	}

	CANDIDATE_NOT_PENDING = ErrorMessage{
		Code:    errorPrefix + "11014",
		Message: "Duplicate candidate is not pending review.",
	}

	INVALID_PAGINATION = ErrorMessage{
		Code:    errorPrefix + "11015",
		Message: "Invalid pagination parameters.",
	}

	INVALID_DATASET = ErrorMessage{
		Code:    errorPrefix + "11016",
		Message: "Dataset validation failed.",
	}

	INVALID_RECORD = ErrorMessage{
		Code:    errorPrefix + "11017",
		Message: "Record validation failed.",
	}

	SCAN_QUEUE_FULL = ErrorMessage{
		Code:        errorPrefix + "11018",
		Message:     "Scan queue is full.",
		Description: "The duplicate scan queue is full. Retry later.",
	}

	INVALID_CANDIDATE_FILTER = ErrorMessage{
		Code:    errorPrefix + "11019",
		Message: "Invalid duplicate candidate filter.",
	}

	DATASET_ALREADY_EXISTS = ErrorMessage{
		Code:    errorPrefix + "11020",
		Message: "Dataset already exists.",
	}
)
