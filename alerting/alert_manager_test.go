package alerting_test

import (
	"errors"
	"time"

	. "apimonitor/alerting"
	"apimonitor/config"
	"apimonitor/fakes"
	"apimonitor/models"

	"code.cloudfoundry.org/clock/fakeclock"
	"code.cloudfoundry.org/lager/v3/lagertest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AlertManager", func() {

	var (
		manager  *AlertManager
		notifier *fakes.FakeNotifier
		fclock   *fakeclock.FakeClock
		conf     config.AlertingConfig
	)

	responseTimeViolation := func(currentValue float64) models.Violation {
		return models.Violation{
			EndpointName: "orders-api",
			Kind:         models.AlertKindSLOViolation,
			Subtype:      models.SubtypeResponseTime,
			Severity:     models.SeverityHigh,
			CurrentValue: currentValue,
			Threshold:    2000,
			Description:  "Average response time exceeds SLO threshold",
		}
	}

	outageStart := func() models.StateChange {
		return models.StateChange{
			EndpointName:        "orders-api",
			Type:                models.StateChangeOutageStart,
			Severity:            models.SeverityHigh,
			ConsecutiveFailures: 3,
			Reason:              "connection_error",
		}
	}

	BeforeEach(func() {
		notifier = &fakes.FakeNotifier{}
		fclock = fakeclock.NewFakeClock(time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC))
		conf = config.AlertingConfig{
			Enabled:               true,
			AlertOnDegraded:       false,
			RepeatIntervalMinutes: 15,
			MaxRepeats:            0,
			AutoResolveAfterHours: 24,
			HistoryLimit:          1000,
		}
	})

	JustBeforeEach(func() {
		manager = NewAlertManager(lagertest.NewTestLogger("alert-manager-test"), fclock, conf, notifier)
	})

	Describe("ProcessViolations", func() {
		It("creates an alert and notifies immediately on a new violation", func() {
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})

			Expect(notifier.NotifyCallCount()).To(Equal(1))
			event := notifier.NotifyArgsForCall(0)
			Expect(event.Type).To(Equal(models.AlertEventCreated))
			Expect(event.Alert.EndpointName).To(Equal("orders-api"))
			Expect(event.Alert.Subtype).To(Equal(models.SubtypeResponseTime))
			Expect(event.Alert.RepeatCount).To(BeZero())
			Expect(event.Alert.Id).NotTo(BeEmpty())

			Expect(manager.ActiveCount()).To(Equal(1))
		})

		It("does not re-notify within the repeat interval", func() {
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
			fclock.Increment(5 * time.Minute)
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3600)})

			Expect(notifier.NotifyCallCount()).To(Equal(1))
			Expect(manager.ActiveAlerts()[0].CurrentValue).To(Equal(3600.0))
		})

		It("re-notifies once the repeat interval elapses", func() {
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
			fclock.Increment(5 * time.Minute)
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3600)})
			fclock.Increment(15 * time.Minute)
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3700)})

			Expect(notifier.NotifyCallCount()).To(Equal(2))
			event := notifier.NotifyArgsForCall(1)
			Expect(event.Type).To(Equal(models.AlertEventRepeated))
			Expect(event.Alert.RepeatCount).To(Equal(1))
		})

		It("counts a second repeat after another interval", func() {
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
			fclock.Increment(16 * time.Minute)
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
			fclock.Increment(16 * time.Minute)
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})

			Expect(notifier.NotifyCallCount()).To(Equal(3))
			Expect(notifier.NotifyArgsForCall(2).Alert.RepeatCount).To(Equal(2))
		})

		Context("when max_repeats is bounded", func() {
			BeforeEach(func() {
				conf.MaxRepeats = 1
			})

			It("stops re-notifying after the limit", func() {
				manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
				fclock.Increment(16 * time.Minute)
				manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
				fclock.Increment(16 * time.Minute)
				manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})

				Expect(notifier.NotifyCallCount()).To(Equal(2))
			})
		})

		It("resolves the alert when the condition clears", func() {
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
			fclock.Increment(time.Minute)
			manager.ProcessViolations("orders-api", []models.Violation{})

			Expect(manager.ActiveCount()).To(BeZero())
			Expect(notifier.NotifyCallCount()).To(Equal(2))
			event := notifier.NotifyArgsForCall(1)
			Expect(event.Type).To(Equal(models.AlertEventResolved))
			Expect(event.Alert.Resolved).To(BeTrue())
			Expect(event.Alert.ResolutionReason).To(Equal("condition cleared"))
		})

		It("starts a new lineage when the condition re-activates after resolution", func() {
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
			firstID := notifier.NotifyArgsForCall(0).Alert.Id
			manager.ProcessViolations("orders-api", []models.Violation{})
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})

			Expect(manager.ActiveCount()).To(Equal(1))
			Expect(manager.ActiveAlerts()[0].Id).NotTo(Equal(firstID))
			Expect(manager.History()).To(HaveLen(2))
		})

		It("does not touch alerts of other endpoints when a set is empty", func() {
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
			manager.ProcessViolations("health-check", []models.Violation{})

			Expect(manager.ActiveCount()).To(Equal(1))
		})

		Context("when the notifier fails", func() {
			BeforeEach(func() {
				notifier.NotifyReturns(errors.New("webhook down"))
			})

			It("keeps tracking the alert", func() {
				manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
				Expect(manager.ActiveCount()).To(Equal(1))
			})
		})
	})

	Describe("HandleStateChange", func() {
		It("raises an outage alert on outage start", func() {
			manager.HandleStateChange(outageStart())

			Expect(notifier.NotifyCallCount()).To(Equal(1))
			event := notifier.NotifyArgsForCall(0)
			Expect(event.Alert.Kind).To(Equal(models.AlertKindOutage))
			Expect(event.Alert.Subtype).To(Equal(models.SubtypeConsecutive))
			Expect(event.Alert.CurrentValue).To(Equal(3.0))
		})

		It("deduplicates repeated outage starts within the interval", func() {
			manager.HandleStateChange(outageStart())
			manager.HandleStateChange(outageStart())

			Expect(notifier.NotifyCallCount()).To(Equal(1))
			Expect(manager.ActiveCount()).To(Equal(1))
		})

		It("resolves the outage alert on recovery", func() {
			manager.HandleStateChange(outageStart())
			manager.HandleStateChange(models.StateChange{
				EndpointName:   "orders-api",
				Type:           models.StateChangeOutageRecovery,
				OutageDuration: 3 * time.Minute,
			})

			Expect(manager.ActiveCount()).To(BeZero())
			event := notifier.NotifyArgsForCall(1)
			Expect(event.Type).To(Equal(models.AlertEventResolved))
			Expect(event.Alert.ResolutionReason).To(ContainSubstring("recovered after 3m0s"))
		})

		It("ignores degradation when alert_on_degraded is off", func() {
			manager.HandleStateChange(models.StateChange{
				EndpointName: "orders-api",
				Type:         models.StateChangeDegradationStart,
				Severity:     models.SeverityMedium,
			})

			Expect(notifier.NotifyCallCount()).To(BeZero())
		})

		Context("when alert_on_degraded is on", func() {
			BeforeEach(func() {
				conf.AlertOnDegraded = true
			})

			It("raises and resolves degradation alerts", func() {
				manager.HandleStateChange(models.StateChange{
					EndpointName:        "orders-api",
					Type:                models.StateChangeDegradationStart,
					Severity:            models.SeverityMedium,
					ConsecutiveFailures: 2,
				})
				Expect(manager.ActiveCount()).To(Equal(1))

				manager.HandleStateChange(models.StateChange{
					EndpointName: "orders-api",
					Type:         models.StateChangeDegradationRecovery,
				})
				Expect(manager.ActiveCount()).To(BeZero())
			})
		})
	})

	Describe("AutoResolveStale", func() {
		It("force-resolves alerts older than the maximum age", func() {
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})

			fclock.Increment(23 * time.Hour)
			manager.AutoResolveStale()
			Expect(manager.ActiveCount()).To(Equal(1))

			fclock.Increment(time.Hour)
			manager.AutoResolveStale()
			Expect(manager.ActiveCount()).To(BeZero())

			event := notifier.NotifyArgsForCall(notifier.NotifyCallCount() - 1)
			Expect(event.Type).To(Equal(models.AlertEventAutoResolved))
			Expect(event.Alert.ResolvedBy).To(Equal("system (auto-resolved)"))
		})

		Context("when auto resolve is disabled", func() {
			BeforeEach(func() {
				conf.AutoResolveAfterHours = 0
			})

			It("leaves old alerts open", func() {
				manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})
				fclock.Increment(100 * time.Hour)
				manager.AutoResolveStale()

				Expect(manager.ActiveCount()).To(Equal(1))
			})
		})
	})

	Describe("Resolve", func() {
		It("resolves an alert manually", func() {
			manager.HandleStateChange(outageStart())
			id := notifier.NotifyArgsForCall(0).Alert.Id

			Expect(manager.Resolve(id, "operator")).To(Succeed())
			Expect(manager.ActiveCount()).To(BeZero())

			event := notifier.NotifyArgsForCall(1)
			Expect(event.Type).To(Equal(models.AlertEventResolved))
			Expect(event.Alert.ResolvedBy).To(Equal("operator"))
		})

		It("rejects unknown alert ids", func() {
			Expect(manager.Resolve("nope", "operator")).To(MatchError(ErrAlertNotFound))
		})

		It("rejects double resolution", func() {
			manager.HandleStateChange(outageStart())
			id := notifier.NotifyArgsForCall(0).Alert.Id

			Expect(manager.Resolve(id, "operator")).To(Succeed())
			Expect(manager.Resolve(id, "operator")).To(MatchError(ErrAlertAlreadyResolved))
		})
	})

	Describe("History", func() {
		It("reflects resolution in retained records", func() {
			manager.HandleStateChange(outageStart())
			manager.HandleStateChange(models.StateChange{EndpointName: "orders-api", Type: models.StateChangeOutageRecovery})

			history := manager.History()
			Expect(history).To(HaveLen(1))
			Expect(history[0].Resolved).To(BeTrue())
		})

		Context("with a small retention limit", func() {
			BeforeEach(func() {
				conf.HistoryLimit = 2
			})

			It("drops the oldest records", func() {
				for _, name := range []string{"a", "b", "c"} {
					change := outageStart()
					change.EndpointName = name
					manager.HandleStateChange(change)
				}

				history := manager.History()
				Expect(history).To(HaveLen(2))
				Expect(history[0].EndpointName).To(Equal("b"))
				Expect(history[1].EndpointName).To(Equal("c"))
			})
		})
	})

	Context("when alerting is disabled", func() {
		BeforeEach(func() {
			conf.Enabled = false
		})

		It("tracks alerts without notifying", func() {
			manager.ProcessViolations("orders-api", []models.Violation{responseTimeViolation(3500)})

			Expect(notifier.NotifyCallCount()).To(BeZero())
			Expect(manager.ActiveCount()).To(Equal(1))
		})
	})
})
