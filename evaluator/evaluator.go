package evaluator

import (
	"fmt"

	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
)

// Evaluator checks one endpoint's window statistics against its SLA
// and SLO targets. It holds no state; every evaluation reports the
// full set of currently violated conditions.
type Evaluator struct {
	logger lager.Logger
}

func NewEvaluator(logger lager.Logger) *Evaluator {
	return &Evaluator{
		logger: logger.Session("slo-evaluator"),
	}
}

// Evaluate returns the active violations for an endpoint. A zero
// threshold means the target is not configured and is skipped, as is
// the whole evaluation when the window has no samples.
func (e *Evaluator) Evaluate(endpoint models.EndpointSpec, stats models.WindowStats) []models.Violation {
	violations := []models.Violation{}
	if stats.InsufficientData {
		return violations
	}

	if threshold := endpoint.SLA.AvailabilityPercentage; threshold > 0 && stats.AvailabilityPercentage < threshold {
		overRatio := (threshold - stats.AvailabilityPercentage) / threshold
		violations = append(violations, models.Violation{
			EndpointName: endpoint.Name,
			Kind:         models.AlertKindSLAViolation,
			Subtype:      models.SubtypeAvailability,
			Severity:     severityForRatio(overRatio),
			CurrentValue: stats.AvailabilityPercentage,
			Threshold:    threshold,
			Description:  fmt.Sprintf("Availability %.2f%% below SLA threshold of %g%%", stats.AvailabilityPercentage, threshold),
		})
	}

	if threshold := endpoint.SLO.MaxAvgResponseTimeMs; threshold > 0 && stats.AverageLatencyMs > threshold {
		overRatio := (stats.AverageLatencyMs - threshold) / threshold
		violations = append(violations, models.Violation{
			EndpointName: endpoint.Name,
			Kind:         models.AlertKindSLOViolation,
			Subtype:      models.SubtypeResponseTime,
			Severity:     severityForRatio(overRatio),
			CurrentValue: stats.AverageLatencyMs,
			Threshold:    threshold,
			Description:  fmt.Sprintf("Average response time %.2fms exceeds SLO threshold of %gms", stats.AverageLatencyMs, threshold),
		})
	}

	if threshold := endpoint.SLO.MaxErrorRatePercentage; threshold > 0 && stats.ErrorRatePercentage > threshold {
		overRatio := (stats.ErrorRatePercentage - threshold) / threshold
		violations = append(violations, models.Violation{
			EndpointName: endpoint.Name,
			Kind:         models.AlertKindSLOViolation,
			Subtype:      models.SubtypeErrorRate,
			Severity:     severityForRatio(overRatio),
			CurrentValue: stats.ErrorRatePercentage,
			Threshold:    threshold,
			Description:  fmt.Sprintf("Error rate %.2f%% exceeds SLO threshold of %g%%", stats.ErrorRatePercentage, threshold),
		})
	}

	if len(violations) > 0 {
		e.logger.Debug("violations-found", lager.Data{"endpoint": endpoint.Name, "count": len(violations)})
	}
	return violations
}

func severityForRatio(overRatio float64) models.AlertSeverity {
	switch {
	case overRatio >= 1.0:
		return models.SeverityCritical
	case overRatio >= 0.5:
		return models.SeverityHigh
	case overRatio >= 0.25:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
