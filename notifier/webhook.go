package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"apimonitor/config"
	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
	"github.com/cenk/backoff"
	backoffv4 "github.com/cenkalti/backoff/v4"
	circuit "github.com/rubyist/circuitbreaker"
)

const (
	defaultWebhookTimeout     = 10 * time.Second
	defaultWebhookRetries     = 3
	breakerConsecutiveLimit   = 5
	breakerBackOffInitial     = 10 * time.Second
	breakerBackOffMaxInterval = 10 * time.Minute
)

// WebhookNotifier posts alert events as JSON to a single destination.
// Each destination has its own circuit breaker so a dead webhook stops
// consuming retries while other channels keep delivering.
type WebhookNotifier struct {
	logger     lager.Logger
	client     *http.Client
	url        string
	headers    map[string]string
	timeout    time.Duration
	retryCount int
	breaker    *circuit.Breaker
}

func NewWebhookNotifier(logger lager.Logger, client *http.Client, channel config.ChannelConfig) *WebhookNotifier {
	timeout := defaultWebhookTimeout
	if channel.TimeoutSeconds > 0 {
		timeout = time.Duration(channel.TimeoutSeconds) * time.Second
	}
	retryCount := defaultWebhookRetries
	if channel.RetryCount > 0 {
		retryCount = channel.RetryCount
	}

	bf := backoff.NewExponentialBackOff()
	bf.InitialInterval = breakerBackOffInitial
	bf.MaxInterval = breakerBackOffMaxInterval
	bf.MaxElapsedTime = 0
	bf.Reset()

	return &WebhookNotifier{
		logger:     logger.Session("webhook-notifier", lager.Data{"url": channel.URL}),
		client:     client,
		url:        channel.URL,
		headers:    channel.Headers,
		timeout:    timeout,
		retryCount: retryCount,
		breaker: circuit.NewBreakerWithOptions(&circuit.Options{
			BackOff:    bf,
			ShouldTrip: circuit.ConsecutiveTripFunc(breakerConsecutiveLimit),
		}),
	}
}

func (n *WebhookNotifier) Notify(event models.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode alert event: %w", err)
	}

	if n.breaker.Tripped() {
		n.logger.Info("circuit-tripped", lager.Data{"consecutiveFailures": n.breaker.ConsecFailures()})
	}
	err = n.breaker.Call(func() error { return n.postWithRetries(payload) }, 0)
	if err != nil {
		n.logger.Error("webhook-delivery-failed", err, lager.Data{"alert": event.Alert.Id})
		return err
	}
	return nil
}

func (n *WebhookNotifier) postWithRetries(payload []byte) error {
	operation := func() error { return n.post(payload) }

	bf := backoffv4.NewExponentialBackOff()
	bf.InitialInterval = 500 * time.Millisecond
	return backoffv4.Retry(operation, backoffv4.WithMaxRetries(bf, uint64(n.retryCount-1)))
}

func (n *WebhookNotifier) post(payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for name, value := range n.headers {
		req.Header.Set(name, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
