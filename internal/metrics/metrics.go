// Package metrics exposes Prometheus collectors for dataset loads and the
// HTTP surface.
//
// Collectors live in their own registry instead of the global default one,
// so only what this package registers is served.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salesdesk"

// Load outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Registry holds every collector of this package.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	loadsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loads_total",
		Help:      "File loads by outcome and file kind.",
	}, []string{"outcome", "kind"})

	loadDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "load_duration_seconds",
		Help:      "Time spent reading and parsing a file.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	recordsLoaded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_loaded_total",
		Help:      "Records built from loaded files.",
	})

	datasetRecords = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_records",
		Help:      "Records in the current dataset.",
	})

	missingColumns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "missing_columns_total",
		Help:      "Loads where a required column could not be resolved.",
	}, []string{"field"})

	encodingFallbacks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "encoding_fallbacks_total",
		Help:      "Loads decoded with the fallback encoding.",
	})

	rateLimited = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Load describes one finished load attempt.
type Load struct {
	Outcome  string
	Kind     string // "text" or "workbook"
	Duration time.Duration
	Records  int
	Missing  []string
	FellBack bool
}

// ObserveLoad records a load attempt. Only successful loads update the
// dataset gauge.
func ObserveLoad(l Load) {
	kind := l.Kind
	if kind == "" {
		kind = "unknown"
	}
	loadsTotal.WithLabelValues(l.Outcome, kind).Inc()
	if l.Outcome != OutcomeOK {
		return
	}

	loadDuration.Observe(l.Duration.Seconds())
	recordsLoaded.Add(float64(l.Records))
	datasetRecords.Set(float64(l.Records))
	for _, f := range l.Missing {
		missingColumns.WithLabelValues(f).Inc()
	}
	if l.FellBack {
		encodingFallbacks.Inc()
	}
}

// RateLimited counts a request rejected by the rate limiter.
func RateLimited() {
	rateLimited.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
