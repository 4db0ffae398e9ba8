package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"apimonitor/alerting"
	"apimonitor/collection"
	"apimonitor/config"
	"apimonitor/detector"
	"apimonitor/evaluator"
	"apimonitor/healthendpoint"
	"apimonitor/helpers"
	"apimonitor/models"
	"apimonitor/notifier"
	"apimonitor/probe"
	"apimonitor/scheduler"
	"apimonitor/server"
	"apimonitor/storage"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/sigmon"
)

const pruneInterval = time.Hour

func main() {
	var path string
	flag.StringVar(&path, "c", "", "config file")
	flag.Parse()
	if path == "" {
		fmt.Fprintln(os.Stdout, "missing config file\nUsage:use '-c' option to specify the config file path")
		os.Exit(1)
	}

	conf, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stdout, "%s\n", err.Error())
		os.Exit(1)
	}

	logger := helpers.InitLoggerFromConfig(&conf.Logging, "apimonitor")
	amClock := clock.NewClock()

	sink, err := storage.New(logger, conf.Storage)
	if err != nil {
		logger.Error("failed-to-create-storage-sink", err, lager.Data{"storageConfig": conf.Storage})
		os.Exit(1)
	}
	defer func() { _ = sink.Close() }()

	metricsCollector := healthendpoint.NewProbeMetricsCollector(amClock)
	promRegistry := prometheus.NewRegistry()
	healthendpoint.RegisterCollectors(promRegistry, []prometheus.Collector{
		metricsCollector,
	}, true, logger.Session("apimonitor-prometheus"))

	probeClient := helpers.CreateHTTPClient(len(conf.Endpoints), conf.Monitoring.SkipSSLValidation)
	executor := probe.NewExecutor(logger, probeClient, conf.Monitoring.Timeout())

	channels := notifier.NewFromConfig(logger, conf.Alerting, helpers.CreateHTTPClient(len(conf.Alerting.Channels), false))
	logger.Info("notification-channels", lager.Data{"count": channels.ChannelCount()})
	alertManager := alerting.NewAlertManager(logger, amClock, conf.Alerting, &persistingNotifier{
		logger: logger.Session("persisting-notifier"),
		sink:   sink,
		next:   channels,
	})

	windows := collection.NewWindowSet(time.Duration(conf.Monitoring.OutageDetection.FailureWindowMinutes) * time.Minute)
	outageDetector := detector.NewDetector(logger, amClock, conf.Monitoring.OutageDetection)
	sloEvaluator := evaluator.NewEvaluator(logger)

	probeScheduler := scheduler.NewScheduler(logger, amClock, conf.Monitoring, conf.Endpoints,
		executor, windows, outageDetector, sloEvaluator, alertManager, metricsCollector, sink)

	httpServer, err := server.NewServer(logger.Session("http_server"), conf.Server, amClock,
		probeScheduler, outageDetector, alertManager, sink, promRegistry, conf.Endpoints)
	if err != nil {
		logger.Error("failed-to-create-http-server", err)
		os.Exit(1)
	}

	members := grouper.Members{
		{Name: "scheduler", Runner: probeScheduler},
		{Name: "http_server", Runner: httpServer},
	}

	if conf.Storage.Type == "postgres" && conf.Storage.Postgres.RetentionDays > 0 {
		members = append(members, grouper.Member{Name: "pruner", Runner: newPruner(logger, amClock, sink, conf.Storage.Postgres.RetentionDays)})
	}

	monitor := ifrit.Invoke(sigmon.New(grouper.NewOrdered(os.Interrupt, members)))

	logger.Info("started")

	err = <-monitor.Wait()
	if err != nil {
		logger.Error("exited-with-failure", err)
		os.Exit(1)
	}

	logger.Info("exited")
}

// persistingNotifier writes every alert event to the storage sink before
// handing it to the delivery channels. Sink failures never block delivery.
type persistingNotifier struct {
	logger lager.Logger
	sink   storage.Sink
	next   alerting.Notifier
}

func (n *persistingNotifier) Notify(event models.AlertEvent) error {
	if err := n.sink.SaveAlertEvent(event); err != nil {
		n.logger.Error("failed-to-save-alert-event", err, lager.Data{"alertId": event.Alert.Id})
	}
	return n.next.Notify(event)
}

func newPruner(logger lager.Logger, pClock clock.Clock, sink storage.Sink, retentionDays int) ifrit.Runner {
	prunerLogger := logger.Session("pruner", lager.Data{"retentionDays": retentionDays})
	return ifrit.RunFunc(func(signals <-chan os.Signal, ready chan<- struct{}) error {
		ticker := pClock.NewTicker(pruneInterval)
		defer ticker.Stop()
		close(ready)
		prunerLogger.Info("started")
		for {
			select {
			case <-ticker.C():
				cutoff := pClock.Now().AddDate(0, 0, -retentionDays)
				if err := sink.Prune(cutoff); err != nil {
					prunerLogger.Error("failed-to-prune", err, lager.Data{"cutoff": cutoff})
				}
			case <-signals:
				prunerLogger.Info("stopped")
				return nil
			}
		}
	})
}
