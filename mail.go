package chronicle

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// MailMessage is a single outbound email.
type MailMessage struct {
	To      []string
	Subject string
	Body    string
}

// Mailer sends mail through the transport selected by the environment
// config: SMTP when a host is configured and debug is off, otherwise a
// console backend that writes the message to stderr. The console fallback
// keeps dev environments from needing a mail server.
type Mailer struct {
	cfg   MailConfig
	debug bool
}

// NewMailer builds a Mailer from the site's mail config.
func NewMailer(cfg MailConfig, debug bool) *Mailer {
	return &Mailer{cfg: cfg, debug: debug}
}

// Send dispatches one message. Messages with no recipients are dropped
// silently.
func (m *Mailer) Send(msg MailMessage) error {
	if len(msg.To) == 0 {
		return nil
	}
	if m.debug || m.cfg.SMTPHost == "" {
		return m.sendConsole(msg)
	}
	return m.sendSMTP(msg)
}

func (m *Mailer) sendConsole(msg MailMessage) error {
	fmt.Fprintf(os.Stderr, "--- mail ---\nFrom: %s\nTo: %s\nSubject: %s\n\n%s\n------------\n",
		m.cfg.From, strings.Join(msg.To, ", "), msg.Subject, msg.Body)
	return nil
}

func (m *Mailer) sendSMTP(msg MailMessage) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)
	if err := smtp.SendMail(addr, auth, m.cfg.From, msg.To, []byte(b.String())); err != nil {
		return fmt.Errorf("chronicle: send mail: %w", err)
	}
	return nil
}
