package notifier

import (
	"fmt"
	"net/smtp"
	"strings"

	"apimonitor/config"
	"apimonitor/models"

	"code.cloudfoundry.org/lager/v3"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier delivers alert events over SMTP as plain text.
type EmailNotifier struct {
	logger   lager.Logger
	addr     string
	username string
	password string
	host     string
	from     string
	to       []string
	sendMail sendMailFunc
}

func NewEmailNotifier(logger lager.Logger, channel config.ChannelConfig) *EmailNotifier {
	return newEmailNotifier(logger, channel, smtp.SendMail)
}

func newEmailNotifier(logger lager.Logger, channel config.ChannelConfig, sendMail sendMailFunc) *EmailNotifier {
	port := channel.SMTPPort
	if port == 0 {
		port = 25
	}
	return &EmailNotifier{
		logger:   logger.Session("email-notifier"),
		addr:     fmt.Sprintf("%s:%d", channel.SMTPServer, port),
		host:     channel.SMTPServer,
		username: channel.Username,
		password: channel.Password,
		from:     channel.FromAddress,
		to:       channel.ToAddresses,
		sendMail: sendMail,
	}
}

func (n *EmailNotifier) Notify(event models.AlertEvent) error {
	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}

	msg := n.buildMessage(event)
	if err := n.sendMail(n.addr, auth, n.from, n.to, msg); err != nil {
		n.logger.Error("email-delivery-failed", err, lager.Data{"alert": event.Alert.Id})
		return err
	}
	n.logger.Debug("email-sent", lager.Data{"alert": event.Alert.Id, "recipients": len(n.to)})
	return nil
}

func (n *EmailNotifier) buildMessage(event models.AlertEvent) []byte {
	alert := event.Alert

	subject := fmt.Sprintf("[%s] %s %s for %s", strings.ToUpper(string(alert.Severity)), event.Type, alert.Kind, alert.EndpointName)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")

	fmt.Fprintf(&b, "Alert ID:    %s\r\n", alert.Id)
	fmt.Fprintf(&b, "Endpoint:    %s\r\n", alert.EndpointName)
	fmt.Fprintf(&b, "Severity:    %s\r\n", strings.ToUpper(string(alert.Severity)))
	fmt.Fprintf(&b, "Type:        %s/%s\r\n", alert.Kind, alert.Subtype)
	fmt.Fprintf(&b, "Event:       %s\r\n", event.Type)
	fmt.Fprintf(&b, "Created:     %s\r\n", alert.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Description: %s\r\n", alert.Description)
	if alert.Threshold > 0 {
		fmt.Fprintf(&b, "Current:     %.2f\r\nThreshold:   %.2f\r\n", alert.CurrentValue, alert.Threshold)
	}
	if alert.Resolved {
		fmt.Fprintf(&b, "Resolved By: %s\r\nResolution:  %s\r\n", alert.ResolvedBy, alert.ResolutionReason)
	}
	return []byte(b.String())
}
