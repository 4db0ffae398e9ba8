package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

const (
	HealthPath         = "/v1/health"
	GetHealthRouteName = "GetHealth"

	AlertsPath         = "/v1/alerts"
	GetAlertsRouteName = "GetAlerts"

	AlertHistoryPath         = "/v1/alerts/history"
	GetAlertHistoryRouteName = "GetAlertHistory"

	ResolveAlertPath      = "/v1/alerts/{alertid}/resolve"
	ResolveAlertRouteName = "ResolveAlert"

	SLAReportPath         = "/v1/sla"
	GetSLAReportRouteName = "GetSLAReport"

	OutagesPath         = "/v1/outages"
	GetOutagesRouteName = "GetOutages"

	OutagePath         = "/v1/outages/{endpoint}"
	GetOutageRouteName = "GetOutage"

	TriggerPath           = "/v1/trigger"
	TriggerCycleRouteName = "TriggerCycle"

	PrometheusPath         = "/metrics"
	GetPrometheusRouteName = "GetPrometheus"
)

type ApiMonitorRoute struct {
	apiRoutes *mux.Router
}

var apiMonitorRouteInstance = newRouters()

func newRouters() *ApiMonitorRoute {
	instance := &ApiMonitorRoute{
		apiRoutes: mux.NewRouter(),
	}

	instance.apiRoutes.Path(HealthPath).Methods(http.MethodGet).Name(GetHealthRouteName)
	instance.apiRoutes.Path(AlertHistoryPath).Methods(http.MethodGet).Name(GetAlertHistoryRouteName)
	instance.apiRoutes.Path(AlertsPath).Methods(http.MethodGet).Name(GetAlertsRouteName)
	instance.apiRoutes.Path(ResolveAlertPath).Methods(http.MethodPost).Name(ResolveAlertRouteName)
	instance.apiRoutes.Path(SLAReportPath).Methods(http.MethodGet).Name(GetSLAReportRouteName)
	instance.apiRoutes.Path(OutagePath).Methods(http.MethodGet).Name(GetOutageRouteName)
	instance.apiRoutes.Path(OutagesPath).Methods(http.MethodGet).Name(GetOutagesRouteName)
	instance.apiRoutes.Path(TriggerPath).Methods(http.MethodPost).Name(TriggerCycleRouteName)
	instance.apiRoutes.Path(PrometheusPath).Methods(http.MethodGet).Name(GetPrometheusRouteName)

	return instance
}

func ApiMonitorRoutes() *mux.Router {
	return apiMonitorRouteInstance.apiRoutes
}
