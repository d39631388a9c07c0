package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notewallet"

var (
	UnlockFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unlock_failures_total",
		Help:      "Number of unlock attempts with a wrong password.",
	})

	IntercomRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "intercom_requests_total",
		Help:      "Number of intercom requests by message type and outcome.",
	}, []string{"type", "outcome"})

	ConnectedPorts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "intercom_connected_ports",
		Help:      "Number of front contexts currently connected.",
	})

	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_total",
		Help:      "Number of queued transactions by final status.",
	}, []string{"status"})

	ScannedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scanned_records_total",
		Help:      "Number of chain records tested for ownership.",
	})

	OwnedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "owned_records_total",
		Help:      "Number of owned records found while scanning.",
	})

	TaggedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tagged_records_total",
		Help:      "Number of tagging attempts by outcome.",
	}, []string{"outcome"})

	SkippedSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skipped_syncs_total",
		Help:      "Number of sync passes skipped because the lock was held.",
	}, []string{"lock"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_batch_duration_seconds",
		Help:      "Time spent scanning a batch of records.",
		Buckets:   prometheus.DefBuckets,
	})
)
