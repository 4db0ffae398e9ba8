package collection_test

import (
	"time"

	. "apimonitor/collection"
	"apimonitor/models"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SampleWindow", func() {

	var (
		window *SampleWindow
		now    time.Time
	)

	outcome := func(offset time.Duration, succeeded bool, latencyMs float64) models.ProbeOutcome {
		return models.ProbeOutcome{
			EndpointName: "orders-api",
			Timestamp:    now.Add(offset),
			Succeeded:    succeeded,
			LatencyMs:    latencyMs,
		}
	}

	BeforeEach(func() {
		now = time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
		window = NewSampleWindow(10 * time.Minute)
	})

	Describe("NewSampleWindow", func() {
		Context("when duration is not positive", func() {
			It("panics", func() {
				Expect(func() { NewSampleWindow(0) }).To(Panic())
			})
		})
	})

	Describe("Snapshot", func() {
		Context("when the window is empty", func() {
			It("reports insufficient data", func() {
				stats := window.Snapshot("orders-api", now)
				Expect(stats.InsufficientData).To(BeTrue())
				Expect(stats.SampleCount).To(BeZero())
			})
		})

		Context("with a mix of successes and failures", func() {
			BeforeEach(func() {
				window.Record(outcome(-4*time.Minute, true, 100), now)
				window.Record(outcome(-3*time.Minute, true, 200), now)
				window.Record(outcome(-2*time.Minute, false, 0), now)
				window.Record(outcome(-1*time.Minute, true, 300), now)
			})

			It("computes availability and error rate over all samples", func() {
				stats := window.Snapshot("orders-api", now)
				Expect(stats.SampleCount).To(Equal(4))
				Expect(stats.SuccessCount).To(Equal(3))
				Expect(stats.AvailabilityPercentage).To(Equal(75.0))
				Expect(stats.ErrorRatePercentage).To(Equal(25.0))
			})

			It("averages latency over successful samples only", func() {
				stats := window.Snapshot("orders-api", now)
				Expect(stats.AverageLatencyMs).To(Equal(200.0))
			})
		})

		Context("when all samples failed", func() {
			BeforeEach(func() {
				window.Record(outcome(-2*time.Minute, false, 0), now)
				window.Record(outcome(-1*time.Minute, false, 0), now)
			})

			It("reports zero availability and zero latency", func() {
				stats := window.Snapshot("orders-api", now)
				Expect(stats.InsufficientData).To(BeFalse())
				Expect(stats.AvailabilityPercentage).To(BeZero())
				Expect(stats.ErrorRatePercentage).To(Equal(100.0))
				Expect(stats.AverageLatencyMs).To(BeZero())
				Expect(stats.P95LatencyMs).To(BeZero())
			})
		})

		Context("with samples older than the window", func() {
			BeforeEach(func() {
				window.Record(outcome(-15*time.Minute, false, 0), now)
				window.Record(outcome(-10*time.Minute, true, 100), now)
				window.Record(outcome(-1*time.Minute, true, 200), now)
			})

			It("evicts only samples strictly older than the window", func() {
				stats := window.Snapshot("orders-api", now)
				Expect(stats.SampleCount).To(Equal(2))
				Expect(stats.SuccessCount).To(Equal(2))
				Expect(stats.AvailabilityPercentage).To(Equal(100.0))
			})
		})

		Context("as time advances past recorded samples", func() {
			BeforeEach(func() {
				window.Record(outcome(-5*time.Minute, true, 100), now)
			})

			It("eventually reports insufficient data again", func() {
				later := now.Add(20 * time.Minute)
				stats := window.Snapshot("orders-api", later)
				Expect(stats.InsufficientData).To(BeTrue())
			})
		})

		It("computes the 95th percentile latency", func() {
			for i := 1; i <= 100; i++ {
				window.Record(outcome(-time.Duration(i)*time.Second, true, float64(i)), now)
			}
			stats := window.Snapshot("orders-api", now)
			Expect(stats.P95LatencyMs).To(Equal(95.0))
		})
	})
})

var _ = Describe("WindowSet", func() {

	var (
		set *WindowSet
		now time.Time
	)

	BeforeEach(func() {
		now = time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
		set = NewWindowSet(10 * time.Minute)
	})

	It("keeps samples of different endpoints apart", func() {
		set.Record(models.ProbeOutcome{EndpointName: "a", Timestamp: now, Succeeded: true, LatencyMs: 100}, now)
		set.Record(models.ProbeOutcome{EndpointName: "b", Timestamp: now, Succeeded: false}, now)

		Expect(set.Snapshot("a", now).AvailabilityPercentage).To(Equal(100.0))
		Expect(set.Snapshot("b", now).AvailabilityPercentage).To(BeZero())
	})

	It("reports insufficient data for unknown endpoints", func() {
		Expect(set.Snapshot("unknown", now).InsufficientData).To(BeTrue())
	})
})
