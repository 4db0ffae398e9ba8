package notifier

import (
	"errors"

	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
)

// MultiNotifier fans an alert event out to every configured channel.
// Delivery succeeds when at least one channel accepts the event; a
// failing channel never blocks the others.
type MultiNotifier struct {
	logger    lager.Logger
	notifiers []Notifier
}

func NewMultiNotifier(logger lager.Logger, notifiers []Notifier) *MultiNotifier {
	return &MultiNotifier{
		logger:    logger.Session("multi-notifier"),
		notifiers: notifiers,
	}
}

func (m *MultiNotifier) Notify(event models.AlertEvent) error {
	if len(m.notifiers) == 0 {
		return nil
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(event); err != nil {
			m.logger.Error("channel-delivery-failed", err, lager.Data{"alert": event.Alert.Id})
			errs = append(errs, err)
		}
	}
	if len(errs) == len(m.notifiers) {
		return errors.Join(errs...)
	}
	return nil
}

// ChannelCount reports the number of configured channels.
func (m *MultiNotifier) ChannelCount() int {
	return len(m.notifiers)
}
