package alerting

import (
	"errors"
	"fmt"
	"sync"

	"apimonitor/config"
	"apimonitor/helpers"
	"apimonitor/models"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
)

var (
	ErrAlertNotFound        = errors.New("alert not found")
	ErrAlertAlreadyResolved = errors.New("alert is already resolved")
)

// Notifier delivers alert events to the configured channels. Delivery
// failures are the notifier's problem; the manager logs them and moves
// on.
type Notifier interface {
	Notify(event models.AlertEvent) error
}

// AlertManager turns the stream of violations and detector state
// changes into a deduplicated, rate-limited alert set. One unresolved
// Alert exists per key at any time; a recurring condition after
// resolution starts a new lineage.
type AlertManager struct {
	logger   lager.Logger
	clock    clock.Clock
	conf     config.AlertingConfig
	notifier Notifier

	lock    sync.Mutex
	active  map[models.AlertKey]*models.Alert
	byID    map[string]*models.Alert
	history []*models.Alert
}

func NewAlertManager(logger lager.Logger, clock clock.Clock, conf config.AlertingConfig, notifier Notifier) *AlertManager {
	return &AlertManager{
		logger:   logger.Session("alert-manager"),
		clock:    clock,
		conf:     conf,
		notifier: notifier,
		active:   map[models.AlertKey]*models.Alert{},
		byID:     map[string]*models.Alert{},
		history:  []*models.Alert{},
	}
}

// ProcessViolations reconciles the evaluator's current violation set
// for one endpoint: active conditions raise or refresh alerts, and
// previously alerted conditions that are no longer reported resolve.
func (m *AlertManager) ProcessViolations(endpointName string, violations []models.Violation) {
	m.lock.Lock()
	defer m.lock.Unlock()

	seen := map[models.AlertKey]bool{}
	for _, v := range violations {
		seen[v.Key()] = true
		m.raise(v.Key(), v.Severity, v.CurrentValue, v.Threshold, v.Description)
	}

	for key, alert := range m.active {
		if key.EndpointName != endpointName {
			continue
		}
		if key.Kind != models.AlertKindSLAViolation && key.Kind != models.AlertKindSLOViolation {
			continue
		}
		if !seen[key] {
			m.resolve(alert, models.AlertEventResolved, "system", "condition cleared")
		}
	}
}

// HandleStateChange maps detector transitions onto the alert set.
// Degradation alerts are raised only when configured.
func (m *AlertManager) HandleStateChange(change models.StateChange) {
	m.lock.Lock()
	defer m.lock.Unlock()

	switch change.Type {
	case models.StateChangeOutageStart:
		key := models.AlertKey{EndpointName: change.EndpointName, Kind: models.AlertKindOutage, Subtype: models.SubtypeConsecutive}
		description := fmt.Sprintf("Endpoint %s is in outage after %d consecutive failures (%s)",
			change.EndpointName, change.ConsecutiveFailures, change.Reason)
		m.raise(key, change.Severity, float64(change.ConsecutiveFailures), 0, description)

	case models.StateChangeOutageRecovery:
		key := models.AlertKey{EndpointName: change.EndpointName, Kind: models.AlertKindOutage, Subtype: models.SubtypeConsecutive}
		if alert, exists := m.active[key]; exists {
			reason := fmt.Sprintf("endpoint recovered after %s", change.OutageDuration)
			m.resolve(alert, models.AlertEventResolved, "system", reason)
		}

	case models.StateChangeDegradationStart:
		if !m.conf.AlertOnDegraded {
			return
		}
		key := models.AlertKey{EndpointName: change.EndpointName, Kind: models.AlertKindOutage, Subtype: models.SubtypeDegradation}
		description := fmt.Sprintf("Endpoint %s is degraded after %d consecutive failures (%s)",
			change.EndpointName, change.ConsecutiveFailures, change.Reason)
		m.raise(key, change.Severity, float64(change.ConsecutiveFailures), 0, description)

	case models.StateChangeDegradationRecovery:
		key := models.AlertKey{EndpointName: change.EndpointName, Kind: models.AlertKindOutage, Subtype: models.SubtypeDegradation}
		if alert, exists := m.active[key]; exists {
			m.resolve(alert, models.AlertEventResolved, "system", "endpoint recovered")
		}
	}
}

// raise creates a new alert for the key or refreshes the existing one.
// Re-notification happens at most once per repeat interval and stops
// after max_repeats repeats (0 meaning unlimited).
func (m *AlertManager) raise(key models.AlertKey, severity models.AlertSeverity, currentValue, threshold float64, description string) {
	now := m.clock.Now()

	if alert, exists := m.active[key]; exists {
		alert.Severity = severity
		alert.CurrentValue = currentValue
		alert.Description = description

		if now.Sub(alert.LastNotifiedAt) >= m.conf.RepeatInterval() &&
			(m.conf.MaxRepeats == 0 || alert.RepeatCount < m.conf.MaxRepeats) {
			alert.RepeatCount++
			alert.LastNotifiedAt = now
			m.notify(models.AlertEvent{Alert: *alert, Type: models.AlertEventRepeated})
		}
		return
	}

	id, err := helpers.GenerateGUID()
	if err != nil {
		m.logger.Error("failed-to-generate-alert-id", err)
		return
	}

	alert := &models.Alert{
		Id:             id,
		EndpointName:   key.EndpointName,
		Kind:           key.Kind,
		Subtype:        key.Subtype,
		Severity:       severity,
		Description:    description,
		CurrentValue:   currentValue,
		Threshold:      threshold,
		CreatedAt:      now,
		LastNotifiedAt: now,
	}
	m.active[key] = alert
	m.byID[id] = alert
	m.appendHistory(alert)

	m.logger.Info("alert-created", lager.Data{"id": id, "key": key.String(), "severity": severity})
	m.notify(models.AlertEvent{Alert: *alert, Type: models.AlertEventCreated})
}

// AutoResolveStale force-resolves alerts that have been open longer
// than auto_resolve_after_hours, whether or not their condition ever
// cleared. A zero setting disables this.
func (m *AlertManager) AutoResolveStale() {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.conf.AutoResolveAfterHours == 0 {
		return
	}

	now := m.clock.Now()
	for _, alert := range m.active {
		if now.Sub(alert.CreatedAt) >= m.conf.AutoResolveAfter() {
			reason := fmt.Sprintf("alert exceeded maximum age of %dh", m.conf.AutoResolveAfterHours)
			m.resolve(alert, models.AlertEventAutoResolved, "system (auto-resolved)", reason)
		}
	}
}

// Resolve closes an alert out of band, regardless of condition state.
func (m *AlertManager) Resolve(alertID string, resolvedBy string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	alert, exists := m.byID[alertID]
	if !exists {
		return fmt.Errorf("alert %q: %w", alertID, ErrAlertNotFound)
	}
	if alert.Resolved {
		return fmt.Errorf("alert %q: %w", alertID, ErrAlertAlreadyResolved)
	}
	m.resolve(alert, models.AlertEventResolved, resolvedBy, "manually resolved")
	return nil
}

func (m *AlertManager) resolve(alert *models.Alert, eventType models.AlertEventType, resolvedBy, reason string) {
	now := m.clock.Now()
	alert.Resolved = true
	alert.ResolvedAt = &now
	alert.ResolvedBy = resolvedBy
	alert.ResolutionReason = reason
	delete(m.active, alert.Key())

	m.logger.Info("alert-resolved", lager.Data{"id": alert.Id, "key": alert.Key().String(), "reason": reason})
	m.notify(models.AlertEvent{Alert: *alert, Type: eventType})
}

func (m *AlertManager) notify(event models.AlertEvent) {
	if !m.conf.Enabled || m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(event); err != nil {
		m.logger.Error("failed-to-notify", err, lager.Data{"alert": event.Alert.Id, "type": event.Type})
	}
}

func (m *AlertManager) appendHistory(alert *models.Alert) {
	m.history = append(m.history, alert)
	if len(m.history) > m.conf.HistoryLimit {
		m.history = m.history[len(m.history)-m.conf.HistoryLimit:]
	}
}

// ActiveAlerts returns copies of all unresolved alerts.
func (m *AlertManager) ActiveAlerts() []models.Alert {
	m.lock.Lock()
	defer m.lock.Unlock()

	alerts := make([]models.Alert, 0, len(m.active))
	for _, alert := range m.active {
		alerts = append(alerts, *alert)
	}
	return alerts
}

// History returns copies of the retained alert records, oldest first.
func (m *AlertManager) History() []models.Alert {
	m.lock.Lock()
	defer m.lock.Unlock()

	alerts := make([]models.Alert, 0, len(m.history))
	for _, alert := range m.history {
		alerts = append(alerts, *alert)
	}
	return alerts
}

// ActiveCount reports the number of unresolved alerts.
func (m *AlertManager) ActiveCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.active)
}
