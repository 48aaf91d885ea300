package ports

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"
)

// LoggingEmailDispatcher is an EmailDispatcher that logs the message
// instead of sending it; it needs no GmailAppPassword.
type LoggingEmailDispatcher struct{}

// Send logs the message and returns nil.
func (LoggingEmailDispatcher) Send(ctx context.Context, msg Message) error {
	log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("email dispatch (logging only, no SMTP configured)")
	return nil
}

// GmailSMTPDispatcher sends mail through Gmail's SMTP relay using an
// app password, over net/smtp. No third-party mail client appears with
// usable source anywhere in the reference corpus (go.mod-only manifest
// listings for sendgrid/mailgun carry no implementation to learn from),
// and the configuration this module already carries (GmailAppPassword)
// is shaped around raw SMTP auth rather than an HTTP API key, so this
// stays on the standard library.
type GmailSMTPDispatcher struct {
	From     string
	Password string
}

// NewGmailSMTPDispatcher wires a dispatcher against the given Gmail
// account and app password.
func NewGmailSMTPDispatcher(from, appPassword string) *GmailSMTPDispatcher {
	return &GmailSMTPDispatcher{From: from, Password: appPassword}
}

const gmailSMTPAddr = "smtp.gmail.com:587"

// Send composes and delivers msg. Attachments are not MIME-encoded here;
// callers needing attachments should route through PDFRenderer output
// first and reference it by URL rather than inlining large bodies.
func (d *GmailSMTPDispatcher) Send(ctx context.Context, msg Message) error {
	auth := smtp.PlainAuth("", d.From, d.Password, "smtp.gmail.com")

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		d.From, joinAddrs(msg.To), msg.Subject, msg.Body)

	return smtp.SendMail(gmailSMTPAddr, auth, d.From, msg.To, []byte(body))
}

func joinAddrs(addrs []string) string {
	out := ""
	for i, a := range addrs {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
