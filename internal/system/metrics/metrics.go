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

// Package metrics provides Prometheus metrics for the deduplication service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dds"

var (
	// DuplicateChecksTotal tracks real-time duplicate checks by outcome
	DuplicateChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "requests_total",
			Help:      "Total number of real-time duplicate checks by outcome",
		},
		[]string{"outcome"},
	)

	// DuplicateCheckDuration tracks real-time duplicate check duration
	DuplicateCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "duration_seconds",
			Help:      "Duration of real-time duplicate checks in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// ScanPairsCompared tracks record pairs evaluated by batch scans
	ScanPairsCompared = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "pairs_compared_total",
			Help:      "Total number of record pairs evaluated by batch scans",
		},
	)

	// CandidatesCreated tracks duplicate candidates persisted by batch scans
	CandidatesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "candidates_created_total",
			Help:      "Total number of duplicate candidates created by batch scans",
		},
	)

	// ScanDuration tracks batch scan duration by status
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Duration of batch duplicate scans in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 1800},
		},
		[]string{"status"},
	)

	// ScanJobsTotal tracks queued scan jobs by result
	ScanJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "jobs_total",
			Help:      "Total number of queued scan jobs by result",
		},
		[]string{"result"},
	)

	// MergesTotal tracks record merges by status
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "merge",
			Name:      "merges_total",
			Help:      "Total number of record merges by status",
		},
		[]string{"status"},
	)

	// ReferencesRetargeted tracks dependent rows moved to a surviving record
	ReferencesRetargeted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "merge",
			Name:      "references_retargeted_total",
			Help:      "Total number of dependent rows moved to a surviving record",
		},
		[]string{"collaborator"},
	)

	// EventsPublished tracks events published to Kafka
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "events_published_total",
			Help:      "Total number of events published to Kafka",
		},
		[]string{"event_type", "status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
