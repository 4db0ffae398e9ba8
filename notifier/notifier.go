package notifier

import (
	"net/http"
	"os"

	"apimonitor/config"
	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
)

// Notifier is one delivery channel for alert events.
type Notifier interface {
	Notify(event models.AlertEvent) error
}

// NewFromConfig builds the configured channels and wraps them in a
// MultiNotifier. Disabled channels are skipped; unknown types were
// rejected at config validation time.
func NewFromConfig(logger lager.Logger, conf config.AlertingConfig, client *http.Client) *MultiNotifier {
	notifiers := []Notifier{}
	for _, channel := range conf.Channels {
		if !channel.IsEnabled() {
			continue
		}
		switch channel.Type {
		case "console":
			notifiers = append(notifiers, NewConsoleNotifier(logger, os.Stdout))
		case "webhook":
			notifiers = append(notifiers, NewWebhookNotifier(logger, client, channel))
		case "email":
			notifiers = append(notifiers, NewEmailNotifier(logger, channel))
		}
	}
	return NewMultiNotifier(logger, notifiers)
}
