// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics holds the Prometheus collectors of the site. All methods
// are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIFallbacksTotal  *prometheus.CounterVec

	FormSubmissionsTotal *prometheus.CounterVec
	AuthEventsTotal      *prometheus.CounterVec
	AccessDeniedTotal    *prometheus.CounterVec
	LoginThrottledTotal  *prometheus.CounterVec

	ServerStartTime prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vetpl_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vetpl_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vetpl_api_requests_total",
			Help: "Requests made to the careers backend.",
		}, []string{"endpoint", "status"}),

		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vetpl_api_request_duration_seconds",
			Help:    "Careers backend request duration in seconds.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		APIFallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vetpl_api_fallbacks_total",
			Help: "Reads answered from static fallback data.",
		}, []string{"endpoint"}),

		FormSubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vetpl_form_submissions_total",
			Help: "Form submissions by kind and outcome.",
		}, []string{"kind", "outcome"}),

		AuthEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vetpl_auth_events_total",
			Help: "Authentication events by type and outcome.",
		}, []string{"event", "outcome"}),

		AccessDeniedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vetpl_access_denied_total",
			Help: "Requests stopped by the route guard.",
		}, []string{"decision"}),

		LoginThrottledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vetpl_login_throttled_total",
			Help: "Sign-in attempts refused by rate limit or started lockouts.",
		}, []string{"reason"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vetpl_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.APIRequestsTotal,
		m.APIRequestDuration,
		m.APIFallbacksTotal,
		m.FormSubmissionsTotal,
		m.AuthEventsTotal,
		m.AccessDeniedTotal,
		m.LoginThrottledTotal,
		m.ServerStartTime,
	)
	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveAPI records one backend call. status 0 means a transport failure.
func (m *Metrics) ObserveAPI(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	m.APIRequestsTotal.WithLabelValues(endpoint, label).Inc()
	m.APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncFallback records a read served from fallback data.
func (m *Metrics) IncFallback(endpoint string) {
	if m == nil {
		return
	}
	m.APIFallbacksTotal.WithLabelValues(endpoint).Inc()
}

// IncFormSubmission records a form submission outcome.
func (m *Metrics) IncFormSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.FormSubmissionsTotal.WithLabelValues(kind, outcome).Inc()
}

// IncAuthEvent records an authentication event.
func (m *Metrics) IncAuthEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// IncAccessDenied records a guard decision other than allow.
func (m *Metrics) IncAccessDenied(decision string) {
	if m == nil {
		return
	}
	m.AccessDeniedTotal.WithLabelValues(decision).Inc()
}

// IncLoginThrottled records a refused sign-in post or a started lockout.
func (m *Metrics) IncLoginThrottled(reason string) {
	if m == nil {
		return
	}
	m.LoginThrottledTotal.WithLabelValues(reason).Inc()
}
