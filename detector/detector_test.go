package detector_test

import (
	"time"

	"apimonitor/config"
	. "apimonitor/detector"
	"apimonitor/models"

	"code.cloudfoundry.org/clock/fakeclock"
	"code.cloudfoundry.org/lager/v3/lagertest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Detector", func() {

	var (
		det       *Detector
		fclock    *fakeclock.FakeClock
		conf      config.OutageDetectionConfig
		startTime time.Time
	)

	success := func() models.ProbeOutcome {
		code := 200
		return models.ProbeOutcome{EndpointName: "orders-api", Succeeded: true, StatusCode: &code, FailureKind: models.FailureNone}
	}

	failure := func() models.ProbeOutcome {
		return models.ProbeOutcome{EndpointName: "orders-api", Succeeded: false, FailureKind: models.FailureConnectionError, ValidationDetail: "connection refused"}
	}

	timeout := func() models.ProbeOutcome {
		return models.ProbeOutcome{EndpointName: "orders-api", Succeeded: false, FailureKind: models.FailureTimeout}
	}

	successWithStatus := func(code int) models.ProbeOutcome {
		return models.ProbeOutcome{EndpointName: "orders-api", Succeeded: true, StatusCode: &code, FailureKind: models.FailureNone}
	}

	observeAll := func(outcomes ...models.ProbeOutcome) (models.HealthState, []models.StateChange) {
		var state models.HealthState
		changes := []models.StateChange{}
		for _, o := range outcomes {
			var change *models.StateChange
			state, change = det.Observe(o)
			if change != nil {
				changes = append(changes, *change)
			}
		}
		return state, changes
	}

	BeforeEach(func() {
		startTime = time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
		fclock = fakeclock.NewFakeClock(startTime)
		conf = config.OutageDetectionConfig{
			ConsecutiveFailuresThreshold:  3,
			DegradedThreshold:             2,
			RecoverySuccessThreshold:      2,
			FailureWindowMinutes:          10,
			CriticalOutageDurationMinutes: 5,
			TimeoutAsFailure:              true,
			HTTP5xxAsFailure:              true,
			HTTP4xxAsFailure:              false,
		}
	})

	JustBeforeEach(func() {
		det = NewDetector(lagertest.NewTestLogger("detector-test"), fclock, conf)
	})

	Describe("failure classification", func() {
		It("counts any unsuccessful probe as a failure", func() {
			Expect(det.IsDetectorFailure(failure())).To(BeTrue())
			Expect(det.IsDetectorFailure(timeout())).To(BeTrue())
		})

		It("does not count a successful probe as a failure", func() {
			Expect(det.IsDetectorFailure(success())).To(BeFalse())
		})

		Context("when http_4xx_as_failure is enabled", func() {
			BeforeEach(func() {
				conf.HTTP4xxAsFailure = true
			})

			It("counts an expected 4xx response as a failure", func() {
				Expect(det.IsDetectorFailure(successWithStatus(404))).To(BeTrue())
			})
		})

		Context("when http_4xx_as_failure is disabled", func() {
			It("counts an expected 4xx response as a success", func() {
				Expect(det.IsDetectorFailure(successWithStatus(404))).To(BeFalse())
			})
		})

		Context("when timeout_as_failure is disabled", func() {
			BeforeEach(func() {
				conf.TimeoutAsFailure = false
			})

			It("still counts a timed-out probe as a failure", func() {
				Expect(det.IsDetectorFailure(timeout())).To(BeTrue())
			})
		})
	})

	Describe("state transitions", func() {
		It("starts endpoints as healthy", func() {
			state, change := det.Observe(success())
			Expect(state.Status).To(Equal(models.StatusHealthy))
			Expect(change).To(BeNil())
		})

		It("enters degraded at the degraded threshold", func() {
			state, changes := observeAll(failure(), failure())
			Expect(state.Status).To(Equal(models.StatusDegraded))
			Expect(state.ConsecutiveFailures).To(Equal(2))
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].Type).To(Equal(models.StateChangeDegradationStart))
		})

		It("enters outage at the consecutive failures threshold with exactly one event", func() {
			state, changes := observeAll(failure(), failure(), failure(), failure())
			Expect(state.Status).To(Equal(models.StatusOutage))
			Expect(state.OutageStartedAt).NotTo(BeNil())

			outageEvents := 0
			for _, c := range changes {
				if c.Type == models.StateChangeOutageStart {
					outageEvents++
					Expect(c.Severity).To(Equal(models.SeverityHigh))
					Expect(c.ConsecutiveFailures).To(Equal(3))
					Expect(c.Reason).To(Equal("connection_error"))
				}
			}
			Expect(outageEvents).To(Equal(1))
		})

		It("recovers to healthy after enough consecutive successes", func() {
			observeAll(failure(), failure(), failure())

			state, changes := observeAll(success(), success())
			Expect(state.Status).To(Equal(models.StatusHealthy))
			Expect(state.OutageStartedAt).To(BeNil())
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].Type).To(Equal(models.StateChangeOutageRecovery))
			Expect(changes[0].Reason).To(Equal("consecutive_successes"))
		})

		It("reports the outage duration on recovery", func() {
			observeAll(failure(), failure(), failure())
			fclock.Increment(3 * time.Minute)

			_, changes := observeAll(success(), success())
			Expect(changes[0].OutageDuration).To(Equal(3 * time.Minute))
		})

		It("resets the success run on an intervening failure", func() {
			observeAll(failure(), failure(), failure())

			state, changes := observeAll(success(), failure(), success())
			Expect(state.Status).To(Equal(models.StatusOutage))
			Expect(state.ConsecutiveSuccesses).To(Equal(1))
			Expect(changes).To(BeEmpty())
		})

		It("recovers from degraded with a degradation recovery event", func() {
			observeAll(failure(), failure())

			state, changes := observeAll(success(), success())
			Expect(state.Status).To(Equal(models.StatusHealthy))
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].Type).To(Equal(models.StateChangeDegradationRecovery))
		})

		It("never reports failures and successes in a run simultaneously", func() {
			outcomes := []models.ProbeOutcome{failure(), success(), failure(), failure(), success(), failure()}
			for _, o := range outcomes {
				state, _ := det.Observe(o)
				Expect(state.ConsecutiveFailures == 0 || state.ConsecutiveSuccesses == 0).To(BeTrue())
			}
		})

		It("tracks endpoints independently", func() {
			other := models.ProbeOutcome{EndpointName: "health-check", Succeeded: false, FailureKind: models.FailureTimeout}
			observeAll(failure(), failure(), failure())

			state, _ := det.Observe(other)
			Expect(state.EndpointName).To(Equal("health-check"))
			Expect(state.Status).To(Equal(models.StatusHealthy))
			Expect(state.ConsecutiveFailures).To(Equal(1))
		})
	})

	Describe("critical outages", func() {
		JustBeforeEach(func() {
			observeAll(failure(), failure(), failure())
		})

		It("is not critical before the configured duration", func() {
			fclock.Increment(4 * time.Minute)
			state, _ := det.StateOf("orders-api")
			Expect(state.Critical).To(BeFalse())
		})

		It("turns critical once the outage lasted long enough", func() {
			fclock.Increment(5 * time.Minute)
			state, _ := det.StateOf("orders-api")
			Expect(state.Critical).To(BeTrue())
		})

		It("stays critical until recovery clears it", func() {
			fclock.Increment(6 * time.Minute)
			det.Observe(failure())
			state, _ := det.StateOf("orders-api")
			Expect(state.Critical).To(BeTrue())

			state, _ = observeAll(success(), success())
			Expect(state.Critical).To(BeFalse())
			Expect(state.Status).To(Equal(models.StatusHealthy))
		})
	})

	Describe("StateOf", func() {
		It("reports unknown endpoints", func() {
			_, exists := det.StateOf("unknown")
			Expect(exists).To(BeFalse())
		})
	})

	Describe("States", func() {
		It("snapshots every tracked endpoint", func() {
			det.Observe(success())
			det.Observe(models.ProbeOutcome{EndpointName: "health-check", Succeeded: false})

			states := det.States()
			Expect(states).To(HaveLen(2))
			Expect(states["orders-api"].Status).To(Equal(models.StatusHealthy))
			Expect(states["health-check"].ConsecutiveFailures).To(Equal(1))
		})
	})
})
