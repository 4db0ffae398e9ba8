package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
)

// FileSink appends records as JSON lines under a base directory, one
// file per record type.
type FileSink struct {
	logger lager.Logger
	lock   sync.Mutex

	outcomesFile string
	statsFile    string
	alertsFile   string
}

func NewFileSink(logger lager.Logger, basePath string) (*FileSink, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		logger.Error("failed-to-create-storage-dir", err, lager.Data{"path": basePath})
		return nil, err
	}
	return &FileSink{
		logger:       logger.Session("file-sink", lager.Data{"path": basePath}),
		outcomesFile: filepath.Join(basePath, "probe_outcomes.jsonl"),
		statsFile:    filepath.Join(basePath, "window_stats.jsonl"),
		alertsFile:   filepath.Join(basePath, "alert_events.jsonl"),
	}, nil
}

func (s *FileSink) SaveOutcome(outcome models.ProbeOutcome) error {
	return s.appendJSON(s.outcomesFile, outcome)
}

type statsRecord struct {
	Timestamp time.Time          `json:"timestamp"`
	Stats     models.WindowStats `json:"stats"`
}

func (s *FileSink) SaveStats(timestamp time.Time, stats models.WindowStats) error {
	return s.appendJSON(s.statsFile, statsRecord{Timestamp: timestamp, Stats: stats})
}

func (s *FileSink) SaveAlertEvent(event models.AlertEvent) error {
	return s.appendJSON(s.alertsFile, event)
}

func (s *FileSink) appendJSON(path string, record any) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		s.logger.Error("failed-to-open-file", err, lager.Data{"file": path})
		return err
	}
	defer func() { _ = file.Close() }()

	enc := json.NewEncoder(file)
	if err := enc.Encode(record); err != nil {
		s.logger.Error("failed-to-append-record", err, lager.Data{"file": path})
		return err
	}
	return nil
}

// RetrieveOutcomes scans the outcomes file and returns the records for
// one endpoint within [start, end]. An empty endpoint name matches all.
func (s *FileSink) RetrieveOutcomes(endpointName string, start, end time.Time) ([]models.ProbeOutcome, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	outcomes := []models.ProbeOutcome{}

	file, err := os.Open(s.outcomesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return outcomes, nil
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var outcome models.ProbeOutcome
		if err := json.Unmarshal(scanner.Bytes(), &outcome); err != nil {
			s.logger.Error("failed-to-decode-record", err)
			continue
		}
		if endpointName != "" && outcome.EndpointName != endpointName {
			continue
		}
		if outcome.Timestamp.Before(start) || outcome.Timestamp.After(end) {
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, scanner.Err()
}

// Prune is a no-op for file storage; files are rotated externally.
func (s *FileSink) Prune(time.Time) error { return nil }

func (s *FileSink) Close() error { return nil }
