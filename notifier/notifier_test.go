package notifier_test

import (
	"errors"
	"net/http"
	"time"

	"apimonitor/config"
	"apimonitor/helpers"
	"apimonitor/models"
	. "apimonitor/notifier"

	"code.cloudfoundry.org/lager/v3/lagertest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/ghttp"
)

func testEvent(eventType models.AlertEventType) models.AlertEvent {
	return models.AlertEvent{
		Type: eventType,
		Alert: models.Alert{
			Id:           "alert-guid",
			EndpointName: "orders-api",
			Kind:         models.AlertKindSLOViolation,
			Subtype:      models.SubtypeResponseTime,
			Severity:     models.SeverityHigh,
			Description:  "Average response time 3500.00ms exceeds SLO threshold of 2000ms",
			CurrentValue: 3500,
			Threshold:    2000,
			CreatedAt:    time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC),
		},
	}
}

var _ = Describe("ConsoleNotifier", func() {

	var (
		buffer  *gbytes.Buffer
		console *ConsoleNotifier
	)

	BeforeEach(func() {
		buffer = gbytes.NewBuffer()
		console = NewConsoleNotifier(lagertest.NewTestLogger("console-test"), buffer)
	})

	It("prints a banner with the alert details", func() {
		Expect(console.Notify(testEvent(models.AlertEventCreated))).To(Succeed())

		Expect(buffer).To(gbytes.Say("ALERT: HIGH slo_violation for orders-api"))
		Expect(buffer).To(gbytes.Say("Severity:    HIGH"))
		Expect(buffer).To(gbytes.Say("Current:     3500.00"))
		Expect(buffer).To(gbytes.Say("Threshold:   2000.00"))
	})

	It("prints a resolution banner for resolved events", func() {
		event := testEvent(models.AlertEventResolved)
		resolvedAt := time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)
		event.Alert.Resolved = true
		event.Alert.ResolvedAt = &resolvedAt
		event.Alert.ResolvedBy = "system"
		event.Alert.ResolutionReason = "condition cleared"

		Expect(console.Notify(event)).To(Succeed())

		Expect(buffer).To(gbytes.Say("ALERT RESOLVED: orders-api"))
		Expect(buffer).To(gbytes.Say("Resolved By: system"))
		Expect(buffer).To(gbytes.Say("Resolution:  condition cleared"))
	})

	It("includes the repeat count on repeated events", func() {
		event := testEvent(models.AlertEventRepeated)
		event.Alert.RepeatCount = 2

		Expect(console.Notify(event)).To(Succeed())
		Expect(buffer).To(gbytes.Say("Repeat:      2"))
	})
})

var _ = Describe("WebhookNotifier", func() {

	var (
		server  *ghttp.Server
		webhook *WebhookNotifier
		channel config.ChannelConfig
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		channel = config.ChannelConfig{
			Type:           "webhook",
			URL:            server.URL() + "/hooks/monitor",
			Headers:        map[string]string{"X-Token": "secret"},
			TimeoutSeconds: 2,
			RetryCount:     2,
		}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		webhook = NewWebhookNotifier(lagertest.NewTestLogger("webhook-test"), helpers.CreateHTTPClient(10, false), channel)
	})

	It("posts the alert event as JSON with the configured headers", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest("POST", "/hooks/monitor"),
			ghttp.VerifyHeaderKV("X-Token", "secret"),
			ghttp.VerifyContentType("application/json"),
			ghttp.VerifyJSONRepresenting(testEvent(models.AlertEventCreated)),
			ghttp.RespondWith(http.StatusOK, ""),
		))

		Expect(webhook.Notify(testEvent(models.AlertEventCreated))).To(Succeed())
		Expect(server.ReceivedRequests()).To(HaveLen(1))
	})

	It("retries failed deliveries", func() {
		server.AppendHandlers(
			ghttp.RespondWith(http.StatusInternalServerError, ""),
			ghttp.RespondWith(http.StatusOK, ""),
		)

		Expect(webhook.Notify(testEvent(models.AlertEventCreated))).To(Succeed())
		Expect(server.ReceivedRequests()).To(HaveLen(2))
	})

	It("fails once the retries are exhausted", func() {
		server.AppendHandlers(
			ghttp.RespondWith(http.StatusBadGateway, ""),
			ghttp.RespondWith(http.StatusBadGateway, ""),
		)

		err := webhook.Notify(testEvent(models.AlertEventCreated))
		Expect(err).To(MatchError(ContainSubstring("status 502")))
		Expect(server.ReceivedRequests()).To(HaveLen(2))
	})
})

var _ = Describe("MultiNotifier", func() {

	var (
		multi   *MultiNotifier
		passing *stubChannel
		failing *stubChannel
	)

	BeforeEach(func() {
		passing = &stubChannel{}
		failing = &stubChannel{err: errors.New("channel down")}
	})

	It("fans events out to every channel", func() {
		multi = NewMultiNotifier(lagertest.NewTestLogger("multi-test"), []Notifier{passing, failing})

		Expect(multi.Notify(testEvent(models.AlertEventCreated))).To(Succeed())
		Expect(passing.calls).To(Equal(1))
		Expect(failing.calls).To(Equal(1))
	})

	It("fails only when every channel fails", func() {
		multi = NewMultiNotifier(lagertest.NewTestLogger("multi-test"), []Notifier{failing})

		Expect(multi.Notify(testEvent(models.AlertEventCreated))).To(MatchError("channel down"))
	})

	It("accepts events when no channels are configured", func() {
		multi = NewMultiNotifier(lagertest.NewTestLogger("multi-test"), nil)

		Expect(multi.Notify(testEvent(models.AlertEventCreated))).To(Succeed())
		Expect(multi.ChannelCount()).To(BeZero())
	})
})

type stubChannel struct {
	calls int
	err   error
}

func (s *stubChannel) Notify(models.AlertEvent) error {
	s.calls++
	return s.err
}
