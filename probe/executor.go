package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"reflect"
	"time"

	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
)

const timestampPlaceholder = "{{timestamp}}"

// Executor issues a single HTTP request per probe and classifies the
// outcome. It is safe for concurrent use by multiple workers.
type Executor struct {
	logger         lager.Logger
	client         *http.Client
	defaultTimeout time.Duration
}

func NewExecutor(logger lager.Logger, client *http.Client, defaultTimeout time.Duration) *Executor {
	return &Executor{
		logger:         logger.Session("probe-executor"),
		client:         client,
		defaultTimeout: defaultTimeout,
	}
}

func (e *Executor) Probe(ctx context.Context, endpoint models.EndpointSpec) models.ProbeOutcome {
	timestamp := time.Now()
	outcome := models.ProbeOutcome{
		EndpointName: endpoint.Name,
		URL:          endpoint.URL,
		Timestamp:    timestamp,
	}

	ctx, cancel := context.WithTimeout(ctx, endpoint.Timeout(e.defaultTimeout))
	defer cancel()

	req, err := e.buildRequest(ctx, endpoint, timestamp)
	if err != nil {
		outcome.FailureKind = models.FailureConnectionError
		outcome.ValidationDetail = err.Error()
		return outcome
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	outcome.LatencyMs = float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		outcome.FailureKind = classifyTransportError(err)
		outcome.ValidationDetail = err.Error()
		e.logger.Debug("probe-transport-failure", lager.Data{"endpoint": endpoint.Name, "kind": outcome.FailureKind, "error": err.Error()})
		return outcome
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome.FailureKind = classifyTransportError(err)
		outcome.ValidationDetail = err.Error()
		return outcome
	}

	statusCode := resp.StatusCode
	outcome.StatusCode = &statusCode
	outcome.ResponseSizeBytes = len(body)

	if statusCode != endpoint.ExpectedStatus {
		outcome.FailureKind = models.FailureStatusMismatch
		outcome.ValidationDetail = fmt.Sprintf("expected status %d, got %d", endpoint.ExpectedStatus, statusCode)
		return outcome
	}

	if detail := runContentChecks(endpoint.Validation.ContentChecks, body); detail != "" {
		outcome.FailureKind = models.FailureValidationFailed
		outcome.ValidationDetail = detail
		return outcome
	}

	outcome.Succeeded = true
	outcome.FailureKind = models.FailureNone
	return outcome
}

func (e *Executor) buildRequest(ctx context.Context, endpoint models.EndpointSpec, timestamp time.Time) (*http.Request, error) {
	var bodyReader io.Reader
	if len(endpoint.Body) > 0 {
		rendered := renderBody(endpoint.Body, timestamp)
		bodyBytes, err := json.Marshal(rendered)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, endpoint.Method, endpoint.URL, bodyReader)
	if err != nil {
		return nil, err
	}
	for name, value := range endpoint.Headers {
		req.Header.Set(name, value)
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// renderBody substitutes the {{timestamp}} placeholder in string
// values, descending into nested objects.
func renderBody(body map[string]any, timestamp time.Time) map[string]any {
	rendered := make(map[string]any, len(body))
	for key, value := range body {
		switch v := value.(type) {
		case string:
			if v == timestampPlaceholder {
				rendered[key] = timestamp.Format(time.RFC3339)
			} else {
				rendered[key] = v
			}
		case map[string]any:
			rendered[key] = renderBody(v, timestamp)
		default:
			rendered[key] = value
		}
	}
	return rendered
}

// runContentChecks evaluates the checks in declaration order and
// returns the detail message of the first failing one.
func runContentChecks(checks []models.ContentCheck, body []byte) string {
	if len(checks) == 0 {
		return ""
	}

	var parsed map[string]any
	parseErr := json.Unmarshal(body, &parsed)

	for _, check := range checks {
		switch check.Type {
		case models.CheckJSONKeyExists:
			if parseErr != nil {
				return fmt.Sprintf("check json_key_exists(%s) failed: response is not a JSON object", check.Key)
			}
			if _, exists := parsed[check.Key]; !exists {
				return fmt.Sprintf("check json_key_exists(%s) failed: key is absent", check.Key)
			}
		case models.CheckJSONKeyValue:
			if parseErr != nil {
				return fmt.Sprintf("check json_key_value(%s) failed: response is not a JSON object", check.Key)
			}
			actual, exists := parsed[check.Key]
			if !exists {
				return fmt.Sprintf("check json_key_value(%s) failed: key is absent", check.Key)
			}
			if !reflect.DeepEqual(normalizeJSONValue(check.Expected), actual) {
				return fmt.Sprintf("check json_key_value(%s) failed: expected %v, got %v", check.Key, check.Expected, actual)
			}
		default:
			return fmt.Sprintf("unknown content check type %q", check.Type)
		}
	}
	return ""
}

// normalizeJSONValue round-trips a configured value through JSON so
// that it compares equal to decoded response values. YAML decodes
// numbers as int, JSON decodes them as float64.
func normalizeJSONValue(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return value
	}
	return normalized
}

func classifyTransportError(err error) models.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.FailureTimeout
	}
	return models.FailureConnectionError
}
