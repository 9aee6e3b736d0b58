// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics wraps the engine's Prometheus instrumentation: ingest
// throughput, search latency, FTS-fallback rate, and Scribe update counts.
// None of this is required for correctness; it is the ambient observability
// layer the teacher carries for every long-running subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every metric the engine exports. A nil *Registry is not
// usable; call New() once at process startup and pass it down.
type Registry struct {
	IngestFilesTotal     *prometheus.CounterVec
	IngestBytesTotal     prometheus.Counter
	IngestDuplicatesTotal prometheus.Counter
	IngestErrorsTotal    prometheus.Counter

	SearchLatency     prometheus.Histogram
	SearchFTSFallback prometheus.Counter
	SearchResultsTotal prometheus.Histogram

	ScribeUpdatesTotal  prometheus.Counter
	ScribeFailuresTotal prometheus.Counter

	WatcherQueueDepth  prometheus.Gauge
	WatcherDroppedTotal prometheus.Counter
}

// New registers every engine metric against reg (pass prometheus.NewRegistry()
// in tests to avoid collisions with the global DefaultRegisterer).
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		IngestFilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_ingest_files_total",
			Help: "Files processed by the ingestor, labeled by outcome.",
		}, []string{"outcome"}),
		IngestBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_ingest_bytes_total",
			Help: "Total bytes read by the ingestor.",
		}),
		IngestDuplicatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_ingest_duplicates_total",
			Help: "Ingests skipped due to a hash match against an existing compound.",
		}),
		IngestErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_ingest_errors_total",
			Help: "Per-file ingestion errors (logged and skipped, never fatal).",
		}),
		SearchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_search_latency_seconds",
			Help:    "Tag-Walker search latency end to end.",
			Buckets: prometheus.DefBuckets,
		}),
		SearchFTSFallback: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_search_fts_fallback_total",
			Help: "Searches that fell back to a linear scan after FTS failed.",
		}),
		SearchResultsTotal: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_search_results_count",
			Help:    "Number of ranked molecules returned per search.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		ScribeUpdatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_scribe_updates_total",
			Help: "Session-state compressions that replaced the rolling summary.",
		}),
		ScribeFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_scribe_failures_total",
			Help: "Generator failures during update_state; previous state was preserved.",
		}),
		WatcherQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "engine_watcher_queue_depth",
			Help: "Current depth of the watcher's bounded debounce queue.",
		}),
		WatcherDroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_watcher_dropped_events_total",
			Help: "Watcher events dropped because the bounded queue overflowed.",
		}),
	}
}
