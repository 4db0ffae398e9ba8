package storage

import (
	"fmt"
	"time"

	"apimonitor/config"
	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
)

// Sink persists probe outcomes, window snapshots and alert events.
// Sink failures are non-fatal to the monitoring loop; callers log and
// continue in-memory.
type Sink interface {
	SaveOutcome(outcome models.ProbeOutcome) error
	SaveStats(timestamp time.Time, stats models.WindowStats) error
	SaveAlertEvent(event models.AlertEvent) error
	RetrieveOutcomes(endpointName string, start, end time.Time) ([]models.ProbeOutcome, error)
	Prune(before time.Time) error
	Close() error
}

// New builds the sink named by the storage configuration.
func New(logger lager.Logger, conf config.StorageConfig) (Sink, error) {
	switch conf.Type {
	case "file":
		return NewFileSink(logger, conf.File.Path)
	case "postgres":
		return NewSQLSink(logger, conf.Postgres)
	case "none":
		return &NoneSink{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", conf.Type)
	}
}

// NoneSink discards everything.
type NoneSink struct{}

func (*NoneSink) SaveOutcome(models.ProbeOutcome) error { return nil }
func (*NoneSink) SaveStats(time.Time, models.WindowStats) error { return nil }
func (*NoneSink) SaveAlertEvent(models.AlertEvent) error { return nil }
func (*NoneSink) Prune(time.Time) error { return nil }
func (*NoneSink) Close() error { return nil }
func (*NoneSink) RetrieveOutcomes(string, time.Time, time.Time) ([]models.ProbeOutcome, error) {
	return []models.ProbeOutcome{}, nil
}
