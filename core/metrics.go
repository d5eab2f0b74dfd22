package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for a Locker.
type Metrics struct {
	FilesIndexed   prometheus.Counter
	RecordsIndexed *prometheus.CounterVec
	DecodeErrors   *prometheus.CounterVec
	KeyCollisions  prometheus.Counter
	BuildDuration  prometheus.Histogram
	HintLoads      *prometheus.CounterVec
	Gets           *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	filesIndexed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sonarlocker_files_indexed_total",
		Help: "Total files decoded while building an index",
	})

	recordsIndexed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sonarlocker_records_indexed_total",
		Help: "Total keyed records found while building an index",
	}, []string{"kind"})

	decodeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sonarlocker_decode_errors_total",
		Help: "Total files that failed to decode",
	}, []string{"format"})

	keyCollisions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sonarlocker_key_collisions_total",
		Help: "Total records whose key was already indexed",
	})

	buildDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sonarlocker_build_duration_seconds",
		Help:    "Time spent building an index from the files",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	hintLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sonarlocker_hint_loads_total",
		Help: "Hint file load attempts by outcome",
	}, []string{"result"})

	gets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sonarlocker_gets_total",
		Help: "Point queries by outcome",
	}, []string{"result"})

	reg.MustRegister(filesIndexed, recordsIndexed, decodeErrors, keyCollisions, buildDuration, hintLoads, gets)

	return &Metrics{
		FilesIndexed:   filesIndexed,
		RecordsIndexed: recordsIndexed,
		DecodeErrors:   decodeErrors,
		KeyCollisions:  keyCollisions,
		BuildDuration:  buildDuration,
		HintLoads:      hintLoads,
		Gets:           gets,
	}
}
