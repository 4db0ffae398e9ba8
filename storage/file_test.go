package storage_test

import (
	"os"
	"path/filepath"
	"time"

	"apimonitor/config"
	"apimonitor/models"
	. "apimonitor/storage"

	"code.cloudfoundry.org/lager/v3/lagertest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FileSink", func() {

	var (
		sink     *FileSink
		basePath string
		err      error
		now      time.Time
	)

	outcome := func(name string, offset time.Duration) models.ProbeOutcome {
		return models.ProbeOutcome{
			EndpointName: name,
			URL:          "https://api.example.com/" + name,
			Timestamp:    now.Add(offset),
			Succeeded:    true,
			LatencyMs:    120,
			FailureKind:  models.FailureNone,
		}
	}

	BeforeEach(func() {
		now = time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
		basePath = filepath.Join(GinkgoT().TempDir(), "data")
		sink, err = NewFileSink(lagertest.NewTestLogger("file-sink-test"), basePath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the storage directory", func() {
		Expect(basePath).To(BeADirectory())
	})

	It("round-trips probe outcomes", func() {
		Expect(sink.SaveOutcome(outcome("orders-api", 0))).To(Succeed())
		Expect(sink.SaveOutcome(outcome("orders-api", time.Minute))).To(Succeed())
		Expect(sink.SaveOutcome(outcome("health-check", 0))).To(Succeed())

		outcomes, err := sink.RetrieveOutcomes("orders-api", now.Add(-time.Hour), now.Add(time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcomes).To(HaveLen(2))
		Expect(outcomes[0].EndpointName).To(Equal("orders-api"))
		Expect(outcomes[0].Timestamp).To(BeTemporally("==", now))
	})

	It("filters outcomes by time range", func() {
		Expect(sink.SaveOutcome(outcome("orders-api", -2*time.Hour))).To(Succeed())
		Expect(sink.SaveOutcome(outcome("orders-api", 0))).To(Succeed())

		outcomes, err := sink.RetrieveOutcomes("orders-api", now.Add(-time.Hour), now.Add(time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcomes).To(HaveLen(1))
	})

	It("returns nothing when no records were written", func() {
		outcomes, err := sink.RetrieveOutcomes("orders-api", now.Add(-time.Hour), now)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcomes).To(BeEmpty())
	})

	It("appends window stats and alert events as JSON lines", func() {
		Expect(sink.SaveStats(now, models.WindowStats{EndpointName: "orders-api", SampleCount: 10})).To(Succeed())
		Expect(sink.SaveAlertEvent(models.AlertEvent{Type: models.AlertEventCreated, Alert: models.Alert{Id: "alert-guid"}})).To(Succeed())

		statsContent, err := os.ReadFile(filepath.Join(basePath, "window_stats.jsonl"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(statsContent)).To(ContainSubstring(`"sample_count":10`))

		alertsContent, err := os.ReadFile(filepath.Join(basePath, "alert_events.jsonl"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(alertsContent)).To(ContainSubstring(`"id":"alert-guid"`))
	})
})

var _ = Describe("New", func() {
	It("builds the sink for each configured type", func() {
		logger := lagertest.NewTestLogger("storage-test")

		sink, err := New(logger, config.StorageConfig{Type: "file", File: config.FileStorageConfig{Path: GinkgoT().TempDir()}})
		Expect(err).NotTo(HaveOccurred())
		Expect(sink).To(BeAssignableToTypeOf(&FileSink{}))

		sink, err = New(logger, config.StorageConfig{Type: "none"})
		Expect(err).NotTo(HaveOccurred())
		Expect(sink).To(BeAssignableToTypeOf(&NoneSink{}))

		_, err = New(logger, config.StorageConfig{Type: "s3"})
		Expect(err).To(MatchError(`unknown storage type "s3"`))
	})
})
