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

import "time"

// ScanOptions controls one batch scan. Zero values fall back to configuration.
type ScanOptions struct {
	// Limit stops the scan once this many new candidates were created. Zero means no limit.
	Limit   int
	Workers int
	// Resume skips outer records up to the stored checkpoint.
	Resume bool
}

type ScanRequest struct {
	Limit  int  `json:"limit" validate:"gte=0,lte=10000"`
	Resume bool `json:"resume"`
}

type ScanResult struct {
	DatasetID         int64         `json:"dataset_id"`
	CandidatesCreated int           `json:"candidates_created"`
	PairsCompared     int64         `json:"pairs_compared"`
	LimitReached      bool          `json:"limit_reached"`
	ResumedFrom       int64         `json:"resumed_from,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// ScanCheckpoint is the watermark of fully compared outer records of an interrupted scan.
type ScanCheckpoint struct {
	DatasetID         int64     `json:"dataset_id"`
	LastRecordID      int64     `json:"last_record_id"`
	CandidatesCreated int       `json:"candidates_created"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ScanJobResponse struct {
	JobID     string `json:"job_id"`
	DatasetID int64  `json:"dataset_id"`
	Status    string `json:"status"`
}
