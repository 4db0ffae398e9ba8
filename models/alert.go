package models

import (
	"fmt"
	"time"
)

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

type AlertKind string

const (
	AlertKindOutage       AlertKind = "outage"
	AlertKindSLAViolation AlertKind = "sla_violation"
	AlertKindSLOViolation AlertKind = "slo_violation"
)

const (
	SubtypeAvailability = "availability"
	SubtypeResponseTime = "response_time"
	SubtypeErrorRate    = "error_rate"
	SubtypeConsecutive  = "consecutive_failures"
	SubtypeDegradation  = "degradation"
)

// AlertKey identifies one logical alert lineage: while an unresolved Alert
// exists for a key, further activity on that key updates it instead of
// creating a new one.
type AlertKey struct {
	EndpointName string
	Kind         AlertKind
	Subtype      string
}

func (k AlertKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.EndpointName, k.Kind, k.Subtype)
}

// Alert is one deduplicated alert record. Once Resolved is set the record is
// never mutated again; a recurring condition creates a new Alert.
type Alert struct {
	Id               string        `json:"id"`
	EndpointName     string        `json:"endpoint_name"`
	Kind             AlertKind     `json:"kind"`
	Subtype          string        `json:"subtype"`
	Severity         AlertSeverity `json:"severity"`
	Description      string        `json:"description"`
	CurrentValue     float64       `json:"current_value"`
	Threshold        float64       `json:"threshold"`
	CreatedAt        time.Time     `json:"created_at"`
	LastNotifiedAt   time.Time     `json:"last_notified_at"`
	RepeatCount      int           `json:"repeat_count"`
	Resolved         bool          `json:"resolved"`
	ResolvedAt       *time.Time    `json:"resolved_at,omitempty"`
	ResolvedBy       string        `json:"resolved_by,omitempty"`
	ResolutionReason string        `json:"resolution_reason,omitempty"`
}

func (a *Alert) Key() AlertKey {
	return AlertKey{EndpointName: a.EndpointName, Kind: a.Kind, Subtype: a.Subtype}
}

type AlertEventType string

const (
	AlertEventCreated      AlertEventType = "created"
	AlertEventRepeated     AlertEventType = "repeated"
	AlertEventResolved     AlertEventType = "resolved"
	AlertEventAutoResolved AlertEventType = "auto_resolved"
)

// AlertEvent is what crosses the boundary to notification transports: a copy
// of the alert plus what just happened to it.
type AlertEvent struct {
	Alert Alert          `json:"alert"`
	Type  AlertEventType `json:"type"`
}

// Violation is one active SLA/SLO condition produced by the evaluator.
type Violation struct {
	EndpointName string        `json:"endpoint_name"`
	Kind         AlertKind     `json:"kind"`
	Subtype      string        `json:"subtype"`
	Severity     AlertSeverity `json:"severity"`
	CurrentValue float64       `json:"current_value"`
	Threshold    float64       `json:"threshold"`
	Description  string        `json:"description"`
}

func (v Violation) Key() AlertKey {
	return AlertKey{EndpointName: v.EndpointName, Kind: v.Kind, Subtype: v.Subtype}
}

// StateChangeType distinguishes the detector's transition events.
type StateChangeType string

const (
	StateChangeOutageStart         StateChangeType = "outage_start"
	StateChangeOutageRecovery      StateChangeType = "outage_recovery"
	StateChangeDegradationStart    StateChangeType = "degradation_start"
	StateChangeDegradationRecovery StateChangeType = "degradation_recovery"
)

// StateChange is emitted by the outage detector when an endpoint crosses a
// state boundary.
type StateChange struct {
	EndpointName        string          `json:"endpoint_name"`
	Type                StateChangeType `json:"type"`
	Timestamp           time.Time       `json:"timestamp"`
	Severity            AlertSeverity   `json:"severity"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	OutageDuration      time.Duration   `json:"outage_duration,omitempty"`
	Reason              string          `json:"reason,omitempty"`
}
