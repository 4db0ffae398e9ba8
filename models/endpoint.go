package models

import "time"

const (
	CheckJSONKeyExists = "json_key_exists"
	CheckJSONKeyValue  = "json_key_value"
)

// ContentCheck is a single content validation rule applied to a probe
// response body, in declaration order.
type ContentCheck struct {
	Type     string `yaml:"type" json:"type"`
	Key      string `yaml:"key" json:"key"`
	Expected any    `yaml:"expected,omitempty" json:"expected,omitempty"`
}

type SLA struct {
	AvailabilityPercentage float64 `yaml:"availability_percentage" json:"availability_percentage"`
	MaxResponseTimeMs      float64 `yaml:"max_response_time_ms" json:"max_response_time_ms"`
}

type SLO struct {
	MaxAvgResponseTimeMs   float64 `yaml:"max_avg_response_time_ms" json:"max_avg_response_time_ms"`
	MaxErrorRatePercentage float64 `yaml:"max_error_rate_percentage" json:"max_error_rate_percentage"`
}

type ValidationSpec struct {
	ContentChecks []ContentCheck `yaml:"content_checks" json:"content_checks,omitempty"`
}

// EndpointSpec describes one monitored HTTP endpoint. Specs are loaded by the
// configuration layer and are read-only afterwards.
type EndpointSpec struct {
	Name           string            `yaml:"name" json:"name"`
	URL            string            `yaml:"url" json:"url"`
	Method         string            `yaml:"method" json:"method"`
	ExpectedStatus int               `yaml:"expected_status" json:"expected_status"`
	Headers        map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body           map[string]any    `yaml:"body,omitempty" json:"body,omitempty"`
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	SLA            SLA               `yaml:"sla" json:"sla"`
	SLO            SLO               `yaml:"slo" json:"slo"`
	Validation     ValidationSpec    `yaml:"validation,omitempty" json:"validation,omitempty"`
}

// Timeout returns the per-endpoint probe timeout, falling back to the given
// global default when the endpoint does not override it.
func (s *EndpointSpec) Timeout(defaultTimeout time.Duration) time.Duration {
	if s.TimeoutSeconds > 0 {
		return time.Duration(s.TimeoutSeconds) * time.Second
	}
	return defaultTimeout
}
