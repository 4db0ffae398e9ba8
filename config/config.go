package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"apimonitor/helpers"
	"apimonitor/models"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLoggingLevel = "info"
	DefaultServerPort   = 8080

	DefaultIntervalSeconds = 30
	DefaultTimeoutSeconds  = 10
	DefaultMaxWorkers      = 5

	DefaultConsecutiveFailuresThreshold  = 3
	DefaultDegradedThreshold             = 2
	DefaultRecoverySuccessThreshold      = 2
	DefaultFailureWindowMinutes          = 10
	DefaultCriticalOutageDurationMinutes = 5

	DefaultRepeatIntervalMinutes = 15
	DefaultMaxRepeats            = 0
	DefaultAutoResolveAfterHours = 24
	DefaultAlertHistoryLimit     = 1000

	DefaultStorageType = "file"
	DefaultFilePath    = "./data"
)

var validMethods = map[string]bool{"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true}

type OutageDetectionConfig struct {
	ConsecutiveFailuresThreshold  int  `yaml:"consecutive_failures_threshold" json:"consecutive_failures_threshold"`
	DegradedThreshold             int  `yaml:"degraded_threshold" json:"degraded_threshold"`
	RecoverySuccessThreshold      int  `yaml:"recovery_success_threshold" json:"recovery_success_threshold"`
	FailureWindowMinutes          int  `yaml:"failure_window_minutes" json:"failure_window_minutes"`
	CriticalOutageDurationMinutes int  `yaml:"critical_outage_duration_minutes" json:"critical_outage_duration_minutes"`
	TimeoutAsFailure              bool `yaml:"timeout_as_failure" json:"timeout_as_failure"`
	HTTP5xxAsFailure              bool `yaml:"http_5xx_as_failure" json:"http_5xx_as_failure"`
	HTTP4xxAsFailure              bool `yaml:"http_4xx_as_failure" json:"http_4xx_as_failure"`
}

type MonitoringConfig struct {
	IntervalSeconds   int                   `yaml:"interval_seconds" json:"interval_seconds"`
	TimeoutSeconds    int                   `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxWorkers        int                   `yaml:"max_workers" json:"max_workers"`
	SkipSSLValidation bool                  `yaml:"skip_ssl_validation" json:"skip_ssl_validation"`
	OutageDetection   OutageDetectionConfig `yaml:"outage_detection" json:"outage_detection"`
}

func (c MonitoringConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c MonitoringConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ChannelConfig struct {
	Type           string            `yaml:"type" json:"type"`
	Enabled        *bool             `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	URL            string            `yaml:"url,omitempty" json:"url,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	RetryCount     int               `yaml:"retry_count,omitempty" json:"retry_count,omitempty"`
	SMTPServer     string            `yaml:"smtp_server,omitempty" json:"smtp_server,omitempty"`
	SMTPPort       int               `yaml:"smtp_port,omitempty" json:"smtp_port,omitempty"`
	Username       string            `yaml:"username,omitempty" json:"username,omitempty"`
	Password       string            `yaml:"password,omitempty" json:"password,omitempty"`
	FromAddress    string            `yaml:"from_address,omitempty" json:"from_address,omitempty"`
	ToAddresses    []string          `yaml:"to_addresses,omitempty" json:"to_addresses,omitempty"`
}

func (c ChannelConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

type AlertingConfig struct {
	Enabled               bool            `yaml:"enabled" json:"enabled"`
	AlertOnDegraded       bool            `yaml:"alert_on_degraded" json:"alert_on_degraded"`
	RepeatIntervalMinutes int             `yaml:"repeat_interval_minutes" json:"repeat_interval_minutes"`
	MaxRepeats            int             `yaml:"max_repeats" json:"max_repeats"`
	AutoResolveAfterHours int             `yaml:"auto_resolve_after_hours" json:"auto_resolve_after_hours"`
	HistoryLimit          int             `yaml:"history_limit" json:"history_limit"`
	Channels              []ChannelConfig `yaml:"channels" json:"channels"`
}

func (c AlertingConfig) RepeatInterval() time.Duration {
	return time.Duration(c.RepeatIntervalMinutes) * time.Minute
}

func (c AlertingConfig) AutoResolveAfter() time.Duration {
	return time.Duration(c.AutoResolveAfterHours) * time.Hour
}

type FileStorageConfig struct {
	Path string `yaml:"path" json:"path"`
}

type PostgresConfig struct {
	URL                   string        `yaml:"url" json:"url"`
	MaxOpenConnections    int           `yaml:"max_open_connections" json:"max_open_connections"`
	MaxIdleConnections    int           `yaml:"max_idle_connections" json:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `yaml:"connection_max_lifetime" json:"connection_max_lifetime"`
	RetentionDays         int           `yaml:"retention_days" json:"retention_days"`
}

type StorageConfig struct {
	Type     string            `yaml:"type" json:"type"`
	File     FileStorageConfig `yaml:"file" json:"file"`
	Postgres PostgresConfig    `yaml:"postgres" json:"postgres"`
}

type Config struct {
	Logging    helpers.LoggingConfig `yaml:"logging" json:"logging"`
	Server     helpers.ServerConfig  `yaml:"server" json:"server"`
	Monitoring MonitoringConfig      `yaml:"monitoring" json:"monitoring"`
	Alerting   AlertingConfig        `yaml:"alerting" json:"alerting"`
	Storage    StorageConfig         `yaml:"storage" json:"storage"`
	Endpoints  []models.EndpointSpec `yaml:"endpoints" json:"endpoints"`
}

func defaultConfig() Config {
	return Config{
		Logging: helpers.LoggingConfig{Level: DefaultLoggingLevel},
		Server:  helpers.ServerConfig{Port: DefaultServerPort},
		Monitoring: MonitoringConfig{
			IntervalSeconds: DefaultIntervalSeconds,
			TimeoutSeconds:  DefaultTimeoutSeconds,
			MaxWorkers:      DefaultMaxWorkers,
			OutageDetection: OutageDetectionConfig{
				ConsecutiveFailuresThreshold:  DefaultConsecutiveFailuresThreshold,
				DegradedThreshold:             DefaultDegradedThreshold,
				RecoverySuccessThreshold:      DefaultRecoverySuccessThreshold,
				FailureWindowMinutes:          DefaultFailureWindowMinutes,
				CriticalOutageDurationMinutes: DefaultCriticalOutageDurationMinutes,
				TimeoutAsFailure:              true,
				HTTP5xxAsFailure:              true,
				HTTP4xxAsFailure:              false,
			},
		},
		Alerting: AlertingConfig{
			Enabled:               true,
			RepeatIntervalMinutes: DefaultRepeatIntervalMinutes,
			MaxRepeats:            DefaultMaxRepeats,
			AutoResolveAfterHours: DefaultAutoResolveAfterHours,
			HistoryLimit:          DefaultAlertHistoryLimit,
		},
		Storage: StorageConfig{
			Type: DefaultStorageType,
			File: FileStorageConfig{Path: DefaultFilePath},
		},
	}
}

func LoadConfig(filepath string) (*Config, error) {
	conf := defaultConfig()

	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %q: %w", filepath, err)
	}
	defer func() { _ = file.Close() }()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", filepath, err)
	}

	applyEndpointDefaults(conf.Endpoints)

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func applyEndpointDefaults(endpoints []models.EndpointSpec) {
	for i := range endpoints {
		if endpoints[i].Method == "" {
			endpoints[i].Method = "GET"
		}
		if endpoints[i].ExpectedStatus == 0 {
			endpoints[i].ExpectedStatus = 200
		}
	}
}

func (c *Config) Validate() error {
	if err := c.validateMonitoring(); err != nil {
		return err
	}
	if err := c.validateAlerting(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMonitoring() error {
	if c.Monitoring.IntervalSeconds <= 0 {
		return fmt.Errorf("Configuration error: monitoring.interval_seconds is less-equal than 0")
	}
	if c.Monitoring.TimeoutSeconds <= 0 {
		return fmt.Errorf("Configuration error: monitoring.timeout_seconds is less-equal than 0")
	}
	if c.Monitoring.MaxWorkers <= 0 {
		return fmt.Errorf("Configuration error: monitoring.max_workers is less-equal than 0")
	}
	od := c.Monitoring.OutageDetection
	if od.ConsecutiveFailuresThreshold <= 0 {
		return fmt.Errorf("Configuration error: monitoring.outage_detection.consecutive_failures_threshold is less-equal than 0")
	}
	if od.DegradedThreshold <= 0 || od.DegradedThreshold > od.ConsecutiveFailuresThreshold {
		return fmt.Errorf("Configuration error: monitoring.outage_detection.degraded_threshold should be in (0, consecutive_failures_threshold]")
	}
	if od.RecoverySuccessThreshold <= 0 {
		return fmt.Errorf("Configuration error: monitoring.outage_detection.recovery_success_threshold is less-equal than 0")
	}
	if od.FailureWindowMinutes <= 0 {
		return fmt.Errorf("Configuration error: monitoring.outage_detection.failure_window_minutes is less-equal than 0")
	}
	if od.CriticalOutageDurationMinutes <= 0 {
		return fmt.Errorf("Configuration error: monitoring.outage_detection.critical_outage_duration_minutes is less-equal than 0")
	}
	return nil
}

func (c *Config) validateAlerting() error {
	if c.Alerting.RepeatIntervalMinutes <= 0 {
		return fmt.Errorf("Configuration error: alerting.repeat_interval_minutes is less-equal than 0")
	}
	if c.Alerting.MaxRepeats < 0 {
		return fmt.Errorf("Configuration error: alerting.max_repeats is less than 0")
	}
	if c.Alerting.AutoResolveAfterHours < 0 {
		return fmt.Errorf("Configuration error: alerting.auto_resolve_after_hours is less than 0")
	}
	if c.Alerting.HistoryLimit <= 0 {
		return fmt.Errorf("Configuration error: alerting.history_limit is less-equal than 0")
	}
	for _, ch := range c.Alerting.Channels {
		switch ch.Type {
		case "console":
		case "webhook":
			if ch.URL == "" {
				return fmt.Errorf("Configuration error: alerting webhook channel url is empty")
			}
		case "email":
			if ch.SMTPServer == "" {
				return fmt.Errorf("Configuration error: alerting email channel smtp_server is empty")
			}
			if len(ch.ToAddresses) == 0 {
				return fmt.Errorf("Configuration error: alerting email channel to_addresses is empty")
			}
		default:
			return fmt.Errorf("Configuration error: unknown alerting channel type %q", ch.Type)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Type {
	case "file":
		if c.Storage.File.Path == "" {
			return fmt.Errorf("Configuration error: storage.file.path is empty")
		}
	case "postgres":
		if c.Storage.Postgres.URL == "" {
			return fmt.Errorf("Configuration error: storage.postgres.url is empty")
		}
	case "none":
	default:
		return fmt.Errorf("Configuration error: storage.type must be one of file, postgres, none")
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("Configuration error: at least one endpoint must be configured")
	}

	validator := NewEndpointValidator()
	seen := make(map[string]bool, len(c.Endpoints))
	for _, endpoint := range c.Endpoints {
		if seen[endpoint.Name] {
			return fmt.Errorf("Configuration error: duplicate endpoint name %q", endpoint.Name)
		}
		seen[endpoint.Name] = true

		if !validMethods[endpoint.Method] {
			return fmt.Errorf("Configuration error: endpoint %q has invalid method %q", endpoint.Name, endpoint.Method)
		}
		u, err := url.Parse(endpoint.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("Configuration error: endpoint %q has invalid url %q", endpoint.Name, endpoint.URL)
		}
		if endpoint.TimeoutSeconds < 0 {
			return fmt.Errorf("Configuration error: endpoint %q has negative timeout_seconds", endpoint.Name)
		}
		if err := validator.ValidateEndpoint(endpoint); err != nil {
			return fmt.Errorf("Configuration error: endpoint %q: %w", endpoint.Name, err)
		}
	}
	return nil
}
