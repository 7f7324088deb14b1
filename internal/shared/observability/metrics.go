package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusOK         = "ok"
	StatusCached     = "cached"
	StatusParseError = "parse_error"
	StatusError      = "error"
)

// Metrics definitions
var (
	CollectDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "astnames_collect_seconds",
		Help:    "Time spent parsing a source file and collecting its bound names.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astnames_files_total",
		Help: "Total number of files processed, by outcome.",
	}, []string{"status"})

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astnames_events_total",
		Help: "Total number of name events applied during traversal, by kind.",
	}, []string{"kind"})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "astnames_cache_hits_total",
		Help: "Total number of files answered from the result cache.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "astnames_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "astnames_scan_seconds",
		Help:    "Wall time of a full scan over the configured paths.",
		Buckets: prometheus.DefBuckets,
	})
)
