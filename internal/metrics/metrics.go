package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the service exposes on /metrics.
type Metrics struct {
	Searches                *prometheus.CounterVec
	SearchSeconds           prometheus.Histogram
	BackfillAttempts        *prometheus.CounterVec
	GeocodeSeconds          *prometheus.HistogramVec
	GeocodeErrors           prometheus.Counter
	StoreWriteFailures      prometheus.Counter
	CandidateFetchFailures  prometheus.Counter
	BackfillBudgetExhausted prometheus.Counter
	CacheLookups            *prometheus.CounterVec
	ActiveWorkers           prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Searches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nearby_searches_total",
			Help: "Total number of proximity searches by final status.",
		}, []string{"status"}),
		SearchSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "nearby_search_duration_seconds",
			Help:    "Duration of proximity searches including lazy geocoding.",
			Buckets: prometheus.DefBuckets,
		}),
		BackfillAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nearby_backfill_attempts_total",
			Help: "Total number of coordinate backfill attempts by outcome.",
		}, []string{"outcome"}),
		GeocodeSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nearby_geocoding_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		GeocodeErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nearby_geocoding_errors_total",
			Help: "Total number of failed geocoding requests (not counting unresolved addresses).",
		}),
		StoreWriteFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nearby_store_write_failures_total",
			Help: "Total number of resolved locations that could not be persisted.",
		}),
		CandidateFetchFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nearby_candidate_fetch_failures_total",
			Help: "Total number of searches that could not load unlocated candidates.",
		}),
		BackfillBudgetExhausted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nearby_backfill_budget_exhausted_total",
			Help: "Total number of searches whose backfill loop ran out of time.",
		}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nearby_geocoding_cache_lookups_total",
			Help: "Total number of geocoding cache lookups by result.",
		}, []string{"result"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nearby_warmer_active_workers",
			Help: "Current number of warmer workers resolving addresses.",
		}),
	}
}
