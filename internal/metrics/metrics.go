// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus collectors for outbound API calls,
// inbound HTTP requests and notices shown to visitors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ecole"

// Collector holds every portal metric.
type Collector struct {
	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	httpTotal   *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
	notices     *prometheus.CounterVec
	apiUp       prometheus.Gauge
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Requests sent to the remote API by operation and status code.",
		}, []string{"operation", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Remote API request latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Inbound HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Inbound HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Notices shown to visitors by severity.",
		}, []string{"severity"}),
		apiUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_up",
			Help:      "1 if the last remote API health probe succeeded.",
		}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.httpTotal,
		c.httpLatency,
		c.notices,
		c.apiUp,
	)

	return c
}

// ObserveAPICall records one remote API call. status is 0 for transport errors.
func (c *Collector) ObserveAPICall(operation string, status int, d time.Duration) {
	c.apiRequests.WithLabelValues(operation, statusLabel(status)).Inc()
	c.apiLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveHTTPRequest records one inbound request.
func (c *Collector) ObserveHTTPRequest(route, method string, status int, d time.Duration) {
	c.httpTotal.WithLabelValues(route, method, statusLabel(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveNotice records a notice shown to a visitor.
func (c *Collector) ObserveNotice(severity string) {
	c.notices.WithLabelValues(severity).Inc()
}

// SetAPIUp records the outcome of the last health probe.
func (c *Collector) SetAPIUp(up bool) {
	if up {
		c.apiUp.Set(1)
		return
	}
	c.apiUp.Set(0)
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
