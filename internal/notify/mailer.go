// Package notify delivers all outbound side effects of the submission
// lifecycle: transactional email to authors and moderators, and the
// site-regeneration webhook toward the console.
//
// Every send is best effort. Failures are logged and swallowed so a
// broken SMTP relay or a console outage never fails the state
// transition that triggered the notification.
package notify

import (
	"crypto/tls"

	mail "github.com/go-mail/mail/v2"
)

// Mailer sends one email. Either body may be empty, but not both.
type Mailer interface {
	Send(to, subject, textBody, htmlBody string) error
}

// SMTPOptions configures the SMTP relay.
type SMTPOptions struct {
	Host string
	Port int
	User string
	Pass string
	// From is the sender header, e.g. "AI-Theoretical <noreply@ai-theoretical.org>".
	From string
	// SkipTLSVerify disables certificate verification. Dev only.
	SkipTLSVerify bool
}

// SMTPMailer delivers mail over SMTP with mandatory STARTTLS.
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPMailer builds the dialer. STARTTLS is mandatory; the TLS
// ServerName must match the relay hostname.
func NewSMTPMailer(opt SMTPOptions) *SMTPMailer {
	d := mail.NewDialer(opt.Host, opt.Port, opt.User, opt.Pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         opt.Host,
		InsecureSkipVerify: opt.SkipTLSVerify,
	}
	return &SMTPMailer{dialer: d, from: opt.From}
}

// Send dials the relay and delivers one message.
func (m *SMTPMailer) Send(to, subject, textBody, htmlBody string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	switch {
	case textBody != "" && htmlBody != "":
		msg.SetBody("text/plain", textBody)
		msg.AddAlternative("text/html", htmlBody)
	case htmlBody != "":
		msg.SetBody("text/html", htmlBody)
	default:
		msg.SetBody("text/plain", textBody)
	}
	return m.dialer.DialAndSend(msg)
}
