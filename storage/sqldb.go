package storage

import (
	"encoding/json"
	"time"

	"apimonitor/config"
	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// SQLSink persists records to PostgreSQL.
type SQLSink struct {
	dbConfig config.PostgresConfig
	logger   lager.Logger
	sqldb    *sqlx.DB
}

func NewSQLSink(logger lager.Logger, dbConfig config.PostgresConfig) (*SQLSink, error) {
	sqldb, err := sqlx.Open("postgres", dbConfig.URL)
	if err != nil {
		logger.Error("open-storage-db", err)
		return nil, err
	}

	err = sqldb.Ping()
	if err != nil {
		_ = sqldb.Close()
		logger.Error("ping-storage-db", err)
		return nil, err
	}
	sqldb.SetConnMaxLifetime(dbConfig.ConnectionMaxLifetime)
	sqldb.SetMaxIdleConns(dbConfig.MaxIdleConnections)
	sqldb.SetMaxOpenConns(dbConfig.MaxOpenConnections)

	return &SQLSink{
		dbConfig: dbConfig,
		logger:   logger.Session("sql-sink"),
		sqldb:    sqldb,
	}, nil
}

func (s *SQLSink) Close() error {
	return s.sqldb.Close()
}

func (s *SQLSink) SaveOutcome(outcome models.ProbeOutcome) error {
	query := s.sqldb.Rebind("INSERT INTO probe_outcomes(endpoint_name, url, timestamp, succeeded, status_code, latency_ms, response_size_bytes, failure_kind, validation_detail) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)")
	_, err := s.sqldb.Exec(query, outcome.EndpointName, outcome.URL, outcome.Timestamp, outcome.Succeeded,
		outcome.StatusCode, outcome.LatencyMs, outcome.ResponseSizeBytes, outcome.FailureKind, outcome.ValidationDetail)
	if err != nil {
		s.logger.Error("insert-probe-outcome", err, lager.Data{"endpoint": outcome.EndpointName})
	}
	return err
}

func (s *SQLSink) SaveStats(timestamp time.Time, stats models.WindowStats) error {
	query := s.sqldb.Rebind("INSERT INTO window_stats(endpoint_name, timestamp, sample_count, success_count, availability_percentage, error_rate_percentage, average_latency_ms, p95_latency_ms) VALUES(?, ?, ?, ?, ?, ?, ?, ?)")
	_, err := s.sqldb.Exec(query, stats.EndpointName, timestamp, stats.SampleCount, stats.SuccessCount,
		stats.AvailabilityPercentage, stats.ErrorRatePercentage, stats.AverageLatencyMs, stats.P95LatencyMs)
	if err != nil {
		s.logger.Error("insert-window-stats", err, lager.Data{"endpoint": stats.EndpointName})
	}
	return err
}

func (s *SQLSink) SaveAlertEvent(event models.AlertEvent) error {
	payload, err := json.Marshal(event.Alert)
	if err != nil {
		return err
	}
	query := s.sqldb.Rebind("INSERT INTO alert_events(alert_id, endpoint_name, event_type, severity, timestamp, alert) VALUES(?, ?, ?, ?, ?, ?)")
	_, err = s.sqldb.Exec(query, event.Alert.Id, event.Alert.EndpointName, event.Type, event.Alert.Severity,
		event.Alert.LastNotifiedAt, payload)
	if err != nil {
		s.logger.Error("insert-alert-event", err, lager.Data{"alert": event.Alert.Id})
	}
	return err
}

func (s *SQLSink) RetrieveOutcomes(endpointName string, start, end time.Time) ([]models.ProbeOutcome, error) {
	query := s.sqldb.Rebind("SELECT endpoint_name, url, timestamp, succeeded, status_code, latency_ms, response_size_bytes, failure_kind, validation_detail FROM probe_outcomes WHERE endpoint_name=? AND timestamp>=? AND timestamp<=? ORDER BY timestamp ASC")

	rows, err := s.sqldb.Query(query, endpointName, start, end)
	if err != nil {
		s.logger.Error("retrieve-probe-outcomes", err, lager.Data{"endpoint": endpointName})
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	outcomes := []models.ProbeOutcome{}
	for rows.Next() {
		var outcome models.ProbeOutcome
		if err := rows.Scan(&outcome.EndpointName, &outcome.URL, &outcome.Timestamp, &outcome.Succeeded,
			&outcome.StatusCode, &outcome.LatencyMs, &outcome.ResponseSizeBytes, &outcome.FailureKind, &outcome.ValidationDetail); err != nil {
			s.logger.Error("scan-probe-outcome", err)
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

// Prune deletes records older than the given time from every table.
func (s *SQLSink) Prune(before time.Time) error {
	for _, table := range []string{"probe_outcomes", "window_stats", "alert_events"} {
		query := s.sqldb.Rebind("DELETE FROM " + table + " WHERE timestamp < ?")
		if _, err := s.sqldb.Exec(query, before); err != nil {
			s.logger.Error("prune-table", err, lager.Data{"table": table})
			return err
		}
	}
	return nil
}
