// Package metrics exposes Prometheus instrumentation for the connector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts DocuSign API requests by endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docusign_connector_api_requests_total",
			Help: "Total number of DocuSign API requests",
		},
		[]string{"endpoint", "status"},
	)

	// APIRetriesTotal counts retried API requests.
	APIRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docusign_connector_api_retries_total",
			Help: "Total number of retried DocuSign API requests",
		},
	)

	// RowsUpsertedTotal counts rows pushed to the host sink by table.
	RowsUpsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docusign_connector_rows_upserted_total",
			Help: "Total rows upserted into the destination",
		},
		[]string{"table"},
	)

	// SyncsTotal counts sync invocations by result.
	SyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docusign_connector_syncs_total",
			Help: "Total sync invocations by result",
		},
		[]string{"result"},
	)

	// SyncDuration observes end-to-end sync duration.
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docusign_connector_sync_duration_seconds",
			Help:    "End-to-end sync duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)
