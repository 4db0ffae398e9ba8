package healthendpoint

import (
	"fmt"

	"apimonitor/models"

	"code.cloudfoundry.org/clock"
	"github.com/prometheus/client_golang/prometheus"
)

// ProbeMetricsCollector exposes the monitoring engine's state as
// Prometheus metrics for scraping at /metrics.
type ProbeMetricsCollector interface {
	prometheus.Collector
	InitializeEndpoints(endpoints []models.EndpointSpec)
	RecordOutcome(method string, outcome models.ProbeOutcome)
	RecordStateChange(change models.StateChange)
	UpdateHealthState(state models.HealthState)
	UpdateStats(stats models.WindowStats)
}

type probeMetricsCollector struct {
	clock clock.Clock

	responseTimeGauge   *prometheus.GaugeVec
	requestCounter      *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequests2xx     *prometheus.CounterVec
	httpRequests4xx     *prometheus.CounterVec
	httpRequests5xx     *prometheus.CounterVec
	currentStatusCode   *prometheus.GaugeVec
	outageStatus        *prometheus.GaugeVec
	consecutiveFailures *prometheus.GaugeVec
	outageDuration      *prometheus.GaugeVec
	outageEventsTotal   *prometheus.CounterVec
	availabilityGauge   *prometheus.GaugeVec
	errorRateGauge      *prometheus.GaugeVec
}

func NewProbeMetricsCollector(clock clock.Clock) ProbeMetricsCollector {
	return &probeMetricsCollector{
		clock: clock,
		responseTimeGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "api_response_time_milliseconds",
				Help: "API response time in milliseconds",
			}, []string{"endpoint_name", "url", "status"}),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests_total",
				Help: "Total API requests",
			}, []string{"endpoint_name", "url", "status"}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_http_requests_total",
				Help: "Total HTTP requests by status code",
			}, []string{"endpoint_name", "method", "status_code"}),
		httpRequests2xx: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_http_requests_2xx_total",
				Help: "Total successful HTTP requests (2xx)",
			}, []string{"endpoint_name", "method"}),
		httpRequests4xx: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_http_requests_4xx_total",
				Help: "Total client error HTTP requests (4xx)",
			}, []string{"endpoint_name", "method"}),
		httpRequests5xx: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_http_requests_5xx_total",
				Help: "Total server error HTTP requests (5xx)",
			}, []string{"endpoint_name", "method"}),
		currentStatusCode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "api_current_status_code",
				Help: "Current HTTP status code for endpoint",
			}, []string{"endpoint_name", "method"}),
		outageStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "api_endpoint_outage_status",
				Help: "Endpoint outage status (0=healthy, 1=degraded, 2=outage)",
			}, []string{"endpoint_name"}),
		consecutiveFailures: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "api_consecutive_failures",
				Help: "Number of consecutive failures for endpoint",
			}, []string{"endpoint_name"}),
		outageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "api_outage_duration_seconds",
				Help: "Current outage duration in seconds (0 if not in outage)",
			}, []string{"endpoint_name"}),
		outageEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_outage_events_total",
				Help: "Total outage events",
			}, []string{"endpoint_name", "event_type"}),
		availabilityGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "api_availability_percentage",
				Help: "API availability percentage",
			}, []string{"endpoint_name"}),
		errorRateGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "api_error_rate_percentage",
				Help: "API error rate percentage",
			}, []string{"endpoint_name"}),
	}
}

// InitializeEndpoints presets the per-endpoint series so dashboards
// see every configured endpoint before its first probe.
func (c *probeMetricsCollector) InitializeEndpoints(endpoints []models.EndpointSpec) {
	eventTypes := []models.StateChangeType{
		models.StateChangeOutageStart,
		models.StateChangeOutageRecovery,
		models.StateChangeDegradationStart,
		models.StateChangeDegradationRecovery,
	}
	for _, endpoint := range endpoints {
		c.outageStatus.WithLabelValues(endpoint.Name).Set(0)
		c.consecutiveFailures.WithLabelValues(endpoint.Name).Set(0)
		c.outageDuration.WithLabelValues(endpoint.Name).Set(0)
		c.availabilityGauge.WithLabelValues(endpoint.Name).Set(100)
		c.errorRateGauge.WithLabelValues(endpoint.Name).Set(0)
		for _, eventType := range eventTypes {
			c.outageEventsTotal.WithLabelValues(endpoint.Name, string(eventType))
		}
	}
}

func (c *probeMetricsCollector) RecordOutcome(method string, outcome models.ProbeOutcome) {
	status := "failure"
	if outcome.Succeeded {
		status = "success"
	}
	c.responseTimeGauge.WithLabelValues(outcome.EndpointName, outcome.URL, status).Set(outcome.LatencyMs)
	c.requestCounter.WithLabelValues(outcome.EndpointName, outcome.URL, status).Inc()

	if outcome.StatusCode == nil {
		return
	}
	code := *outcome.StatusCode
	c.httpRequestsTotal.WithLabelValues(outcome.EndpointName, method, fmt.Sprintf("%d", code)).Inc()
	c.currentStatusCode.WithLabelValues(outcome.EndpointName, method).Set(float64(code))
	switch {
	case code >= 200 && code < 300:
		c.httpRequests2xx.WithLabelValues(outcome.EndpointName, method).Inc()
	case code >= 400 && code < 500:
		c.httpRequests4xx.WithLabelValues(outcome.EndpointName, method).Inc()
	case code >= 500 && code < 600:
		c.httpRequests5xx.WithLabelValues(outcome.EndpointName, method).Inc()
	}
}

func (c *probeMetricsCollector) RecordStateChange(change models.StateChange) {
	c.outageEventsTotal.WithLabelValues(change.EndpointName, string(change.Type)).Inc()
}

func (c *probeMetricsCollector) UpdateHealthState(state models.HealthState) {
	c.outageStatus.WithLabelValues(state.EndpointName).Set(outageStatusValue(state.Status))
	c.consecutiveFailures.WithLabelValues(state.EndpointName).Set(float64(state.ConsecutiveFailures))

	duration := 0.0
	if state.Status == models.StatusOutage && state.OutageStartedAt != nil {
		duration = c.clock.Now().Sub(*state.OutageStartedAt).Seconds()
	}
	c.outageDuration.WithLabelValues(state.EndpointName).Set(duration)
}

func (c *probeMetricsCollector) UpdateStats(stats models.WindowStats) {
	if stats.InsufficientData {
		return
	}
	c.availabilityGauge.WithLabelValues(stats.EndpointName).Set(stats.AvailabilityPercentage)
	c.errorRateGauge.WithLabelValues(stats.EndpointName).Set(stats.ErrorRatePercentage)
}

func outageStatusValue(status models.HealthStatus) float64 {
	switch status {
	case models.StatusDegraded:
		return 1
	case models.StatusOutage:
		return 2
	default:
		return 0
	}
}

func (c *probeMetricsCollector) vecs() []prometheus.Collector {
	return []prometheus.Collector{
		c.responseTimeGauge, c.requestCounter, c.httpRequestsTotal,
		c.httpRequests2xx, c.httpRequests4xx, c.httpRequests5xx,
		c.currentStatusCode, c.outageStatus, c.consecutiveFailures,
		c.outageDuration, c.outageEventsTotal, c.availabilityGauge,
		c.errorRateGauge,
	}
}

func (c *probeMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, vec := range c.vecs() {
		vec.Describe(ch)
	}
}

func (c *probeMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, vec := range c.vecs() {
		vec.Collect(ch)
	}
}
