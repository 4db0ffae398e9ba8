package detector

import (
	"fmt"
	"sync"
	"time"

	"apimonitor/config"
	"apimonitor/models"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
)

// Detector tracks the health state machine of every endpoint. Each
// endpoint has its own state cell; transitions are driven by Observe,
// one probe outcome at a time.
type Detector struct {
	logger lager.Logger
	clock  clock.Clock
	conf   config.OutageDetectionConfig

	lock  sync.RWMutex
	cells map[string]*models.HealthState
}

func NewDetector(logger lager.Logger, clock clock.Clock, conf config.OutageDetectionConfig) *Detector {
	return &Detector{
		logger: logger.Session("outage-detector"),
		clock:  clock,
		conf:   conf,
		cells:  map[string]*models.HealthState{},
	}
}

// IsDetectorFailure classifies a probe outcome for outage tracking. A
// probe that did not succeed always counts; the configuration flags
// only add attribution on top of an otherwise successful probe.
func (d *Detector) IsDetectorFailure(outcome models.ProbeOutcome) bool {
	if !outcome.Succeeded {
		return true
	}
	if d.conf.TimeoutAsFailure && outcome.FailureKind == models.FailureTimeout {
		return true
	}
	if d.conf.HTTP5xxAsFailure && outcome.HasStatusInRange(500, 599) {
		return true
	}
	if d.conf.HTTP4xxAsFailure && outcome.HasStatusInRange(400, 499) {
		return true
	}
	return false
}

func failureReason(outcome models.ProbeOutcome) string {
	switch {
	case outcome.FailureKind == models.FailureTimeout:
		return "timeout"
	case outcome.HasStatusInRange(500, 599):
		return "server_error"
	case outcome.HasStatusInRange(400, 499):
		return "client_error"
	case outcome.FailureKind == models.FailureValidationFailed:
		return "validation_failed"
	case outcome.FailureKind == models.FailureStatusMismatch:
		return "status_mismatch"
	default:
		return "connection_error"
	}
}

// Observe folds one probe outcome into the endpoint's state cell and
// returns the updated state snapshot plus a state change event when a
// boundary was crossed.
func (d *Detector) Observe(outcome models.ProbeOutcome) (models.HealthState, *models.StateChange) {
	d.lock.Lock()
	defer d.lock.Unlock()

	now := d.clock.Now()
	cell := d.cell(outcome.EndpointName)

	var change *models.StateChange
	if d.IsDetectorFailure(outcome) {
		change = d.observeFailure(cell, outcome, now)
	} else {
		change = d.observeSuccess(cell, outcome, now)
	}

	d.refreshCritical(cell, now)

	if change != nil {
		d.logger.Info("state-change", lager.Data{
			"endpoint": change.EndpointName,
			"type":     change.Type,
			"severity": change.Severity,
			"reason":   change.Reason,
		})
	}
	return *cell, change
}

func (d *Detector) observeFailure(cell *models.HealthState, outcome models.ProbeOutcome, now time.Time) *models.StateChange {
	cell.ConsecutiveFailures++
	cell.ConsecutiveSuccesses = 0
	cell.LastFailureAt = &now
	cell.LastStatusCode = outcome.StatusCode
	cell.LastError = outcome.ValidationDetail
	if cell.LastError == "" && outcome.StatusCode != nil {
		cell.LastError = fmt.Sprintf("HTTP %d", *outcome.StatusCode)
	}

	switch {
	case cell.Status != models.StatusOutage && cell.ConsecutiveFailures >= d.conf.ConsecutiveFailuresThreshold:
		cell.Status = models.StatusOutage
		cell.OutageStartedAt = &now
		return &models.StateChange{
			EndpointName:        cell.EndpointName,
			Type:                models.StateChangeOutageStart,
			Timestamp:           now,
			Severity:            models.SeverityHigh,
			ConsecutiveFailures: cell.ConsecutiveFailures,
			Reason:              failureReason(outcome),
		}
	case cell.Status == models.StatusHealthy && cell.ConsecutiveFailures >= d.conf.DegradedThreshold:
		cell.Status = models.StatusDegraded
		return &models.StateChange{
			EndpointName:        cell.EndpointName,
			Type:                models.StateChangeDegradationStart,
			Timestamp:           now,
			Severity:            models.SeverityMedium,
			ConsecutiveFailures: cell.ConsecutiveFailures,
			Reason:              failureReason(outcome),
		}
	}
	return nil
}

func (d *Detector) observeSuccess(cell *models.HealthState, outcome models.ProbeOutcome, now time.Time) *models.StateChange {
	cell.ConsecutiveSuccesses++
	cell.ConsecutiveFailures = 0
	cell.LastSuccessAt = &now
	cell.LastStatusCode = outcome.StatusCode
	cell.LastError = ""

	if cell.Status == models.StatusHealthy || cell.ConsecutiveSuccesses < d.conf.RecoverySuccessThreshold {
		return nil
	}

	previous := cell.Status
	cell.Status = models.StatusHealthy

	change := &models.StateChange{
		EndpointName: cell.EndpointName,
		Timestamp:    now,
		Reason:       "consecutive_successes",
	}
	if previous == models.StatusOutage {
		change.Type = models.StateChangeOutageRecovery
		change.Severity = models.SeverityMedium
		if cell.OutageStartedAt != nil {
			change.OutageDuration = now.Sub(*cell.OutageStartedAt)
		}
	} else {
		change.Type = models.StateChangeDegradationRecovery
		change.Severity = models.SeverityLow
	}

	cell.OutageStartedAt = nil
	cell.Critical = false
	return change
}

// refreshCritical flips the sticky critical flag once an outage has
// lasted at least the configured duration. Recovery is the only thing
// that clears it.
func (d *Detector) refreshCritical(cell *models.HealthState, now time.Time) {
	if cell.Status != models.StatusOutage || cell.Critical || cell.OutageStartedAt == nil {
		return
	}
	criticalAfter := time.Duration(d.conf.CriticalOutageDurationMinutes) * time.Minute
	if now.Sub(*cell.OutageStartedAt) >= criticalAfter {
		cell.Critical = true
		d.logger.Info("outage-critical", lager.Data{
			"endpoint": cell.EndpointName,
			"duration": now.Sub(*cell.OutageStartedAt).String(),
		})
	}
}

func (d *Detector) cell(endpointName string) *models.HealthState {
	c, exists := d.cells[endpointName]
	if !exists {
		c = &models.HealthState{
			EndpointName: endpointName,
			Status:       models.StatusHealthy,
		}
		d.cells[endpointName] = c
	}
	return c
}

// StateOf returns a snapshot of one endpoint's state. The critical
// flag is refreshed against the current time so a long outage reads as
// critical even between probes.
func (d *Detector) StateOf(endpointName string) (models.HealthState, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	c, exists := d.cells[endpointName]
	if !exists {
		return models.HealthState{}, false
	}
	d.refreshCritical(c, d.clock.Now())
	return *c, true
}

// States returns a snapshot of every tracked endpoint.
func (d *Detector) States() map[string]models.HealthState {
	d.lock.Lock()
	defer d.lock.Unlock()

	now := d.clock.Now()
	states := make(map[string]models.HealthState, len(d.cells))
	for name, c := range d.cells {
		d.refreshCritical(c, now)
		states[name] = *c
	}
	return states
}
