// Package metrics exposes Prometheus collectors for the search pipeline and
// the HTTP API. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shelfscan"

// Metrics groups every collector the service records.
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	fetchDuration  *prometheus.HistogramVec
	cardsFound     prometheus.Histogram
	cardsDropped   prometheus.Counter
	cacheLookups   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// New registers all collectors (plus Go and process collectors) on a fresh
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Keyword searches by outcome (success, error).",
		}, []string{"outcome"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end time of a search: fetch, parse and extraction.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent in the outbound request, by engine and result.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"engine", "result"}),
		cardsFound: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "result_cards",
			Help:      "Result cards located per search page.",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 50, 80},
		}),
		cardsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_dropped_total",
			Help:      "Result cards skipped because extraction failed.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result (hit, miss).",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "status"}),
	}

	reg.MustRegister(
		m.searches,
		m.searchDuration,
		m.fetchDuration,
		m.cardsFound,
		m.cardsDropped,
		m.cacheLookups,
		m.httpRequests,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSearch records one completed search.
func (m *Metrics) ObserveSearch(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome(err)).Inc()
	m.searchDuration.Observe(d.Seconds())
}

// ObserveFetch records one outbound request.
func (m *Metrics) ObserveFetch(engine string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(engine, outcome(err)).Observe(d.Seconds())
}

// ObserveCards records how many cards a page had and how many were dropped.
func (m *Metrics) ObserveCards(found, dropped int) {
	if m == nil {
		return
	}
	m.cardsFound.Observe(float64(found))
	m.cardsDropped.Add(float64(dropped))
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Middleware counts API requests by matched route and status.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
