package server

import (
	"net/http"

	"apimonitor/alerting"
	"apimonitor/detector"
	"apimonitor/helpers"
	"apimonitor/models"
	"apimonitor/routes"
	"apimonitor/scheduler"
	"apimonitor/storage"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tedsuo/ifrit"
)

type VarsFunc func(w http.ResponseWriter, r *http.Request, vars map[string]string)

func (vh VarsFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vh(w, r, vars)
}

func NewServer(logger lager.Logger, conf helpers.ServerConfig, clock clock.Clock, scheduler *scheduler.Scheduler, detector *detector.Detector, alertManager *alerting.AlertManager, sink storage.Sink, registry *prometheus.Registry, endpoints []models.EndpointSpec) (ifrit.Runner, error) {
	handler := NewMonitoringHandler(logger, clock, scheduler, detector, alertManager, sink, endpoints)

	r := routes.ApiMonitorRoutes()
	r.Get(routes.GetHealthRouteName).Handler(VarsFunc(handler.GetHealth))
	r.Get(routes.GetAlertsRouteName).Handler(VarsFunc(handler.GetAlerts))
	r.Get(routes.GetAlertHistoryRouteName).Handler(VarsFunc(handler.GetAlertHistory))
	r.Get(routes.ResolveAlertRouteName).Handler(VarsFunc(handler.ResolveAlert))
	r.Get(routes.GetSLAReportRouteName).Handler(VarsFunc(handler.GetSLAReport))
	r.Get(routes.GetOutagesRouteName).Handler(VarsFunc(handler.GetOutages))
	r.Get(routes.GetOutageRouteName).Handler(VarsFunc(handler.GetOutage))
	r.Get(routes.TriggerCycleRouteName).Handler(VarsFunc(handler.TriggerCycle))
	r.Get(routes.GetPrometheusRouteName).Handler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return helpers.NewHTTPServer(logger, conf, r)
}
