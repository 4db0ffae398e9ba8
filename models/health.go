package models

import "time"

type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusDegraded HealthStatus = "degraded"
	StatusOutage   HealthStatus = "outage"
)

// HealthState is a point-in-time snapshot of one endpoint's detector state.
// The detector owns the mutable state; everything crossing a package boundary
// is a copy of this struct.
type HealthState struct {
	EndpointName         string       `json:"endpoint_name"`
	Status               HealthStatus `json:"status"`
	ConsecutiveFailures  int          `json:"consecutive_failures"`
	ConsecutiveSuccesses int          `json:"consecutive_successes"`
	OutageStartedAt      *time.Time   `json:"outage_started_at,omitempty"`
	Critical             bool         `json:"critical"`
	LastSuccessAt        *time.Time   `json:"last_success_at,omitempty"`
	LastFailureAt        *time.Time   `json:"last_failure_at,omitempty"`
	LastError            string       `json:"last_error,omitempty"`
	LastStatusCode       *int         `json:"last_status_code,omitempty"`
}

// WindowStats summarizes the probe outcomes currently inside an endpoint's
// rolling window. When no samples are in the window, InsufficientData is set
// and the percentage fields are not meaningful.
type WindowStats struct {
	EndpointName           string  `json:"endpoint_name"`
	SampleCount            int     `json:"sample_count"`
	SuccessCount           int     `json:"success_count"`
	AvailabilityPercentage float64 `json:"availability_percentage"`
	ErrorRatePercentage    float64 `json:"error_rate_percentage"`
	AverageLatencyMs       float64 `json:"average_latency_ms"`
	P95LatencyMs           float64 `json:"p95_latency_ms"`
	InsufficientData       bool    `json:"insufficient_data"`
}

// EndpointHealth pairs the detector state with the current window stats, for
// the API surface.
type EndpointHealth struct {
	State HealthState `json:"state"`
	Stats WindowStats `json:"stats"`
}

// HealthSummary is the overall view served by GET /v1/health.
type HealthSummary struct {
	Timestamp          time.Time                 `json:"timestamp"`
	TotalEndpoints     int                       `json:"total_endpoints"`
	HealthyEndpoints   int                       `json:"healthy_endpoints"`
	DegradedEndpoints  int                       `json:"degraded_endpoints"`
	OutageEndpoints    int                       `json:"outage_endpoints"`
	ActiveAlerts       int                       `json:"active_alerts"`
	Endpoints          map[string]EndpointHealth `json:"endpoints"`
}
