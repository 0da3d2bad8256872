// Package prom implements the metrics Observer on Prometheus
package prom

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Observer is a prometheus backed metrics.Observer
type Observer struct {
	reg      *prometheus.Registry
	apiCalls *prometheus.CounterVec
	apiDur   prometheus.Histogram
	rateRem  prometheus.Gauge
	breaker  prometheus.Gauge
	hits     prometheus.Counter
	misses   prometheus.Counter
}

// New builds an Observer with its own registry
func New() *Observer {
	reg := prometheus.NewRegistry()
	o := &Observer{
		reg: reg,
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "github_api_calls_total",
			Help: "Upstream GitHub API calls by kind and outcome",
		}, []string{"kind", "outcome"}),
		apiDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "github_api_duration_seconds",
			Help:    "Upstream GitHub API call latency",
			Buckets: prometheus.DefBuckets,
		}),
		rateRem: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "github_rate_limit_remaining",
			Help: "Last known GitHub rate limit remaining",
		}),
		breaker: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half open, 2 open)",
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Result cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Result cache misses",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		o.apiCalls, o.apiDur, o.rateRem, o.breaker, o.hits, o.misses,
	)
	return o
}

// APICall implements metrics.Observer
func (o *Observer) APICall(kind, outcome string, elapsed time.Duration) {
	o.apiCalls.WithLabelValues(kind, outcome).Inc()
	o.apiDur.Observe(elapsed.Seconds())
}

// RateRemaining implements metrics.Observer
func (o *Observer) RateRemaining(remaining int) { o.rateRem.Set(float64(remaining)) }

// BreakerState implements metrics.Observer
func (o *Observer) BreakerState(state int) { o.breaker.Set(float64(state)) }

// CacheHit implements metrics.Observer
func (o *Observer) CacheHit() { o.hits.Inc() }

// CacheMiss implements metrics.Observer
func (o *Observer) CacheMiss() { o.misses.Inc() }

// Handler serves the registry for GET /metrics
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.reg, promhttp.HandlerOpts{})
}
