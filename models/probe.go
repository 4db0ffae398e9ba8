package models

import "time"

type FailureKind string

const (
	FailureNone             FailureKind = "none"
	FailureTimeout          FailureKind = "timeout"
	FailureConnectionError  FailureKind = "connection_error"
	FailureStatusMismatch   FailureKind = "status_mismatch"
	FailureValidationFailed FailureKind = "validation_failed"
)

// ProbeOutcome is the result of a single probe against one endpoint. A failed
// probe is a data point, not an error.
type ProbeOutcome struct {
	EndpointName      string      `json:"endpoint_name"`
	URL               string      `json:"url"`
	Timestamp         time.Time   `json:"timestamp"`
	Succeeded         bool        `json:"succeeded"`
	StatusCode        *int        `json:"status_code,omitempty"`
	LatencyMs         float64     `json:"latency_ms"`
	ResponseSizeBytes int         `json:"response_size_bytes,omitempty"`
	FailureKind       FailureKind `json:"failure_kind"`
	ValidationDetail  string      `json:"validation_detail,omitempty"`
}

// HasStatusInRange reports whether the outcome carries a status code within
// [low, high]. Transport failures have no status code.
func (o *ProbeOutcome) HasStatusInRange(low, high int) bool {
	return o.StatusCode != nil && *o.StatusCode >= low && *o.StatusCode <= high
}
