package models

import "time"

// ErrorResponse is the JSON error body returned by the API surface.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SLAReportEntry is one endpoint's line in the SLA report.
type SLAReportEntry struct {
	EndpointName           string  `json:"endpoint_name"`
	AvailabilityPercentage float64 `json:"availability_percentage"`
	SLATarget              float64 `json:"sla_target"`
	SLAMet                 bool    `json:"sla_met"`
	AverageLatencyMs       float64 `json:"average_latency_ms"`
	P95LatencyMs           float64 `json:"p95_latency_ms"`
	SampleCount            int     `json:"sample_count"`
	InsufficientData       bool    `json:"insufficient_data"`
}

// SLAReport is the rolled-up SLA view served by GET /v1/sla.
type SLAReport struct {
	Timestamp time.Time        `json:"timestamp"`
	Endpoints []SLAReportEntry `json:"endpoints"`
}

// OutageDetail is the per-endpoint outage view: the current detector state
// plus the failed probes retrieved from storage.
type OutageDetail struct {
	State          HealthState    `json:"state"`
	RecentFailures []ProbeOutcome `json:"recent_failures"`
}

// ResolveAlertRequest is the body of POST /v1/alerts/{alertid}/resolve.
type ResolveAlertRequest struct {
	ResolvedBy string `json:"resolved_by"`
}

// TriggerResponse acknowledges a manually triggered probe cycle.
type TriggerResponse struct {
	Status string `json:"status"`
}
