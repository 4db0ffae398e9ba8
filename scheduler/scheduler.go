package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"apimonitor/alerting"
	"apimonitor/collection"
	"apimonitor/config"
	"apimonitor/detector"
	"apimonitor/evaluator"
	"apimonitor/healthendpoint"
	"apimonitor/models"
	"apimonitor/storage"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
)

const slaReportInterval = time.Hour

// Prober runs a single probe against an endpoint. Satisfied by probe.Executor.
type Prober interface {
	Probe(ctx context.Context, endpoint models.EndpointSpec) models.ProbeOutcome
}

// Scheduler drives the monitoring loop: it ticks at the configured interval,
// dispatches one probe task per endpoint to a bounded worker pool, and folds
// the results sequentially on the coordinator goroutine. All mutable state
// downstream of the probe (windows, detector, alerts) is only touched from
// the coordinator.
type Scheduler struct {
	logger        lager.Logger
	clock         clock.Clock
	interval      time.Duration
	maxWorkers    int
	endpointOrder []models.EndpointSpec
	endpoints     map[string]models.EndpointSpec

	prober       Prober
	windows      *collection.WindowSet
	detector     *detector.Detector
	evaluator    *evaluator.Evaluator
	alertManager *alerting.AlertManager
	metrics      healthendpoint.ProbeMetricsCollector
	sink         storage.Sink

	taskChan    chan models.EndpointSpec
	resultChan  chan models.ProbeOutcome
	triggerChan chan struct{}
	doneChan    chan struct{}

	// owned by the coordinator goroutine
	inFlight      map[string]bool
	lastSLAReport time.Time
}

func NewScheduler(
	logger lager.Logger,
	clock clock.Clock,
	conf config.MonitoringConfig,
	endpoints []models.EndpointSpec,
	prober Prober,
	windows *collection.WindowSet,
	detector *detector.Detector,
	evaluator *evaluator.Evaluator,
	alertManager *alerting.AlertManager,
	metrics healthendpoint.ProbeMetricsCollector,
	sink storage.Sink,
) *Scheduler {
	byName := make(map[string]models.EndpointSpec, len(endpoints))
	for _, endpoint := range endpoints {
		byName[endpoint.Name] = endpoint
	}
	return &Scheduler{
		logger:        logger.Session("scheduler"),
		clock:         clock,
		interval:      conf.Interval(),
		maxWorkers:    conf.MaxWorkers,
		endpointOrder: endpoints,
		endpoints:     byName,
		prober:        prober,
		windows:       windows,
		detector:      detector,
		evaluator:     evaluator,
		alertManager:  alertManager,
		metrics:       metrics,
		sink:          sink,
		taskChan:      make(chan models.EndpointSpec, len(endpoints)),
		resultChan:    make(chan models.ProbeOutcome, len(endpoints)),
		triggerChan:   make(chan struct{}, 1),
		doneChan:      make(chan struct{}),
		inFlight:      make(map[string]bool),
	}
}

// Run implements ifrit.Runner. The first probe cycle is dispatched before the
// first tick so a fresh process reports health without waiting a full
// interval.
func (s *Scheduler) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	wg := &sync.WaitGroup{}
	for i := 0; i < s.maxWorkers; i++ {
		wg.Add(1)
		go s.probeWorker(wg)
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.metrics.InitializeEndpoints(s.endpointOrder)
	s.lastSLAReport = s.clock.Now()
	s.dispatchCycle()

	close(ready)
	s.logger.Info("started", lager.Data{"interval": s.interval.String(), "max-workers": s.maxWorkers, "endpoints": len(s.endpointOrder)})

	for {
		select {
		case <-ticker.C():
			s.alertManager.AutoResolveStale()
			s.dispatchCycle()
			s.maybeLogSLAReport()
		case <-s.triggerChan:
			s.dispatchCycle()
		case outcome := <-s.resultChan:
			s.fold(outcome)
		case <-signals:
			close(s.doneChan)
			wg.Wait()
			s.logger.Info("stopped")
			return nil
		}
	}
}

// TriggerCycle requests an immediate probe cycle outside the tick schedule.
// A cycle already pending is not queued twice.
func (s *Scheduler) TriggerCycle() {
	select {
	case s.triggerChan <- struct{}{}:
	default:
	}
}

// HealthSummary assembles the overall view of every configured endpoint.
// Endpoints that have not completed a probe yet report as healthy with an
// empty window.
func (s *Scheduler) HealthSummary() models.HealthSummary {
	now := s.clock.Now()
	summary := models.HealthSummary{
		Timestamp:      now,
		TotalEndpoints: len(s.endpointOrder),
		ActiveAlerts:   s.alertManager.ActiveCount(),
		Endpoints:      make(map[string]models.EndpointHealth, len(s.endpointOrder)),
	}
	for _, endpoint := range s.endpointOrder {
		state, ok := s.detector.StateOf(endpoint.Name)
		if !ok {
			state = models.HealthState{EndpointName: endpoint.Name, Status: models.StatusHealthy}
		}
		switch state.Status {
		case models.StatusOutage:
			summary.OutageEndpoints++
		case models.StatusDegraded:
			summary.DegradedEndpoints++
		default:
			summary.HealthyEndpoints++
		}
		summary.Endpoints[endpoint.Name] = models.EndpointHealth{
			State: state,
			Stats: s.windows.Snapshot(endpoint.Name, now),
		}
	}
	return summary
}

// SLAReport rolls up the current window of every endpoint against its SLA
// availability target.
func (s *Scheduler) SLAReport() models.SLAReport {
	now := s.clock.Now()
	report := models.SLAReport{
		Timestamp: now,
		Endpoints: make([]models.SLAReportEntry, 0, len(s.endpointOrder)),
	}
	for _, endpoint := range s.endpointOrder {
		stats := s.windows.Snapshot(endpoint.Name, now)
		report.Endpoints = append(report.Endpoints, models.SLAReportEntry{
			EndpointName:           endpoint.Name,
			AvailabilityPercentage: stats.AvailabilityPercentage,
			SLATarget:              endpoint.SLA.AvailabilityPercentage,
			SLAMet:                 stats.InsufficientData || endpoint.SLA.AvailabilityPercentage == 0 || stats.AvailabilityPercentage >= endpoint.SLA.AvailabilityPercentage,
			AverageLatencyMs:       stats.AverageLatencyMs,
			P95LatencyMs:           stats.P95LatencyMs,
			SampleCount:            stats.SampleCount,
			InsufficientData:       stats.InsufficientData,
		})
	}
	return report
}

func (s *Scheduler) probeWorker(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-s.doneChan:
			return
		case endpoint := <-s.taskChan:
			outcome := s.prober.Probe(context.Background(), endpoint)
			select {
			case s.resultChan <- outcome:
			case <-s.doneChan:
				return
			}
		}
	}
}

func (s *Scheduler) dispatchCycle() {
	for _, endpoint := range s.endpointOrder {
		if s.inFlight[endpoint.Name] {
			s.logger.Info("skipping-in-flight-endpoint", lager.Data{"name": endpoint.Name})
			continue
		}
		s.inFlight[endpoint.Name] = true
		s.taskChan <- endpoint
	}
}

func (s *Scheduler) fold(outcome models.ProbeOutcome) {
	endpoint, ok := s.endpoints[outcome.EndpointName]
	if !ok {
		s.logger.Error("unknown-endpoint-result", fmt.Errorf("no configured endpoint %q", outcome.EndpointName))
		return
	}
	delete(s.inFlight, outcome.EndpointName)

	now := s.clock.Now()
	s.windows.Record(outcome, now)
	stats := s.windows.Snapshot(outcome.EndpointName, now)
	state, change := s.detector.Observe(outcome)

	s.metrics.RecordOutcome(endpoint.Method, outcome)
	s.metrics.UpdateHealthState(state)
	s.metrics.UpdateStats(stats)

	if change != nil {
		s.metrics.RecordStateChange(*change)
		s.alertManager.HandleStateChange(*change)
	}
	s.alertManager.ProcessViolations(outcome.EndpointName, s.evaluator.Evaluate(endpoint, stats))

	if err := s.sink.SaveOutcome(outcome); err != nil {
		s.logger.Error("failed-to-save-outcome", err, lager.Data{"name": outcome.EndpointName})
	}
	if err := s.sink.SaveStats(now, stats); err != nil {
		s.logger.Error("failed-to-save-stats", err, lager.Data{"name": outcome.EndpointName})
	}
}

func (s *Scheduler) maybeLogSLAReport() {
	now := s.clock.Now()
	if now.Sub(s.lastSLAReport) < slaReportInterval {
		return
	}
	s.lastSLAReport = now
	for _, endpoint := range s.endpointOrder {
		stats := s.windows.Snapshot(endpoint.Name, now)
		if stats.InsufficientData {
			continue
		}
		s.logger.Info("sla-report", lager.Data{
			"name":         endpoint.Name,
			"availability": stats.AvailabilityPercentage,
			"sla-target":   endpoint.SLA.AvailabilityPercentage,
			"sla-met":      endpoint.SLA.AvailabilityPercentage == 0 || stats.AvailabilityPercentage >= endpoint.SLA.AvailabilityPercentage,
			"avg-latency":  stats.AverageLatencyMs,
			"error-rate":   stats.ErrorRatePercentage,
		})
	}
}
