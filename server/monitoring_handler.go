package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"apimonitor/alerting"
	"apimonitor/detector"
	"apimonitor/helpers/handlers"
	"apimonitor/models"
	"apimonitor/scheduler"
	"apimonitor/storage"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
)

const recentFailureLookback = 24 * time.Hour

type MonitoringHandler struct {
	logger       lager.Logger
	clock        clock.Clock
	scheduler    *scheduler.Scheduler
	detector     *detector.Detector
	alertManager *alerting.AlertManager
	sink         storage.Sink
	endpoints    map[string]bool
}

func NewMonitoringHandler(logger lager.Logger, clock clock.Clock, scheduler *scheduler.Scheduler, detector *detector.Detector, alertManager *alerting.AlertManager, sink storage.Sink, endpoints []models.EndpointSpec) *MonitoringHandler {
	known := make(map[string]bool, len(endpoints))
	for _, endpoint := range endpoints {
		known[endpoint.Name] = true
	}
	return &MonitoringHandler{
		logger:       logger.Session("monitoring-handler"),
		clock:        clock,
		scheduler:    scheduler,
		detector:     detector,
		alertManager: alertManager,
		sink:         sink,
		endpoints:    known,
	}
}

func (h *MonitoringHandler) GetHealth(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	handlers.WriteJSONResponse(w, http.StatusOK, h.scheduler.HealthSummary())
}

func (h *MonitoringHandler) GetAlerts(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	handlers.WriteJSONResponse(w, http.StatusOK, h.alertManager.ActiveAlerts())
}

func (h *MonitoringHandler) GetAlertHistory(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	history := h.alertManager.History()

	limitParam := r.URL.Query()["limit"]
	if len(limitParam) == 1 {
		limit, err := strconv.Atoi(limitParam[0])
		if err != nil || limit < 0 {
			h.logger.Error("get-alert-history-parse-limit", err, lager.Data{"limit": limitParam})
			handlers.WriteJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{
				Code:    "Bad-Request",
				Message: "Error parsing limit"})
			return
		}
		if limit < len(history) {
			history = history[len(history)-limit:]
		}
	} else if len(limitParam) > 1 {
		handlers.WriteJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "Bad-Request",
			Message: "Incorrect limit parameter in query string"})
		return
	}

	handlers.WriteJSONResponse(w, http.StatusOK, history)
}

func (h *MonitoringHandler) ResolveAlert(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	alertID := vars["alertid"]

	request := models.ResolveAlertRequest{}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
			h.logger.Error("resolve-alert-decode-body", err, lager.Data{"alertId": alertID})
			handlers.WriteJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{
				Code:    "Bad-Request",
				Message: "Error parsing request body"})
			return
		}
	}
	if request.ResolvedBy == "" {
		request.ResolvedBy = "api"
	}

	err := h.alertManager.Resolve(alertID, request.ResolvedBy)
	switch {
	case errors.Is(err, alerting.ErrAlertNotFound):
		handlers.WriteJSONResponse(w, http.StatusNotFound, models.ErrorResponse{
			Code:    "Not-Found",
			Message: "Alert " + alertID + " not found"})
	case errors.Is(err, alerting.ErrAlertAlreadyResolved):
		handlers.WriteJSONResponse(w, http.StatusConflict, models.ErrorResponse{
			Code:    "Conflict",
			Message: "Alert " + alertID + " is already resolved"})
	case err != nil:
		h.logger.Error("resolve-alert", err, lager.Data{"alertId": alertID})
		handlers.WriteJSONResponse(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "Internal-Server-Error",
			Message: "Error resolving alert"})
	default:
		handlers.WriteJSONResponse(w, http.StatusOK, models.TriggerResponse{Status: "resolved"})
	}
}

func (h *MonitoringHandler) GetSLAReport(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	handlers.WriteJSONResponse(w, http.StatusOK, h.scheduler.SLAReport())
}

func (h *MonitoringHandler) GetOutages(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	outages := []models.HealthState{}
	for _, state := range h.detector.States() {
		if state.Status == models.StatusOutage {
			outages = append(outages, state)
		}
	}
	handlers.WriteJSONResponse(w, http.StatusOK, outages)
}

func (h *MonitoringHandler) GetOutage(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	endpointName := vars["endpoint"]
	if !h.endpoints[endpointName] {
		handlers.WriteJSONResponse(w, http.StatusNotFound, models.ErrorResponse{
			Code:    "Not-Found",
			Message: "Endpoint " + endpointName + " not found"})
		return
	}

	state, ok := h.detector.StateOf(endpointName)
	if !ok {
		state = models.HealthState{EndpointName: endpointName, Status: models.StatusHealthy}
	}

	now := h.clock.Now()
	outcomes, err := h.sink.RetrieveOutcomes(endpointName, now.Add(-recentFailureLookback), now)
	if err != nil {
		h.logger.Error("get-outage-retrieve-outcomes", err, lager.Data{"endpoint": endpointName})
		handlers.WriteJSONResponse(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "Internal-Server-Error",
			Message: "Error retrieving probe history"})
		return
	}

	failures := []models.ProbeOutcome{}
	for _, outcome := range outcomes {
		if !outcome.Succeeded {
			failures = append(failures, outcome)
		}
	}

	handlers.WriteJSONResponse(w, http.StatusOK, models.OutageDetail{
		State:          state,
		RecentFailures: failures,
	})
}

func (h *MonitoringHandler) TriggerCycle(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	h.scheduler.TriggerCycle()
	handlers.WriteJSONResponse(w, http.StatusAccepted, models.TriggerResponse{Status: "triggered"})
}
