// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors shared by the download,
// build, and query paths. Collectors register with the default registry
// and are served by `bibindex serve` at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bibindex"

var (
	DownloadBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "download_bytes_total",
		Help:      "Bytes written to the dump cache, by artifact file name.",
	}, []string{"artifact"})

	RecordsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_extracted_total",
		Help:      "Records yielded by the corpus extractor.",
	})

	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_skipped_total",
		Help:      "Records dropped during extraction, by reason.",
	}, []string{"reason"})

	BuildBatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "build_batches_total",
		Help:      "Record batches inserted into a store under construction.",
	})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Latency of title searches against the store.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
)
