package notifier

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
)

// ConsoleNotifier prints alert events as human-readable banners.
type ConsoleNotifier struct {
	logger lager.Logger
	lock   sync.Mutex
	writer io.Writer
}

func NewConsoleNotifier(logger lager.Logger, writer io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{
		logger: logger.Session("console-notifier"),
		writer: writer,
	}
}

func (n *ConsoleNotifier) Notify(event models.AlertEvent) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	_, err := fmt.Fprint(n.writer, formatBanner(event))
	return err
}

func formatBanner(event models.AlertEvent) string {
	alert := event.Alert
	separator := strings.Repeat("=", 80)

	var b strings.Builder
	b.WriteString("\n" + separator + "\n")

	switch event.Type {
	case models.AlertEventResolved, models.AlertEventAutoResolved:
		fmt.Fprintf(&b, "ALERT RESOLVED: %s\n", alert.EndpointName)
		b.WriteString(separator + "\n")
		if alert.ResolvedAt != nil {
			fmt.Fprintf(&b, "Resolved:    %s\n", alert.ResolvedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(&b, "Endpoint:    %s\n", alert.EndpointName)
		fmt.Fprintf(&b, "Resolved By: %s\n", alert.ResolvedBy)
		fmt.Fprintf(&b, "Resolution:  %s\n", alert.ResolutionReason)
		fmt.Fprintf(&b, "Severity:    %s\n", strings.ToUpper(string(alert.Severity)))
	default:
		fmt.Fprintf(&b, "ALERT: %s %s for %s\n", strings.ToUpper(string(alert.Severity)), alert.Kind, alert.EndpointName)
		b.WriteString(separator + "\n")
		fmt.Fprintf(&b, "Timestamp:   %s\n", alert.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "Endpoint:    %s\n", alert.EndpointName)
		fmt.Fprintf(&b, "Severity:    %s\n", strings.ToUpper(string(alert.Severity)))
		fmt.Fprintf(&b, "Type:        %s/%s\n", alert.Kind, alert.Subtype)
		fmt.Fprintf(&b, "Description: %s\n", alert.Description)
		if alert.Threshold > 0 {
			fmt.Fprintf(&b, "Current:     %.2f\n", alert.CurrentValue)
			fmt.Fprintf(&b, "Threshold:   %.2f\n", alert.Threshold)
		}
		if event.Type == models.AlertEventRepeated {
			fmt.Fprintf(&b, "Repeat:      %d\n", alert.RepeatCount)
		}
	}

	b.WriteString(separator + "\n")
	return b.String()
}
