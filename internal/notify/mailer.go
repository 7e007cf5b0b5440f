package notify

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Sender delivers one rendered message. Split out so tests can record instead
// of dialing SMTP.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// logSender is used when SMTP is not configured (dev, tests, CI).
type logSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) Sender {
	return &logSender{log: log.With().Str("component", "mail").Logger()}
}

func (s *logSender) Send(to, subject, _ string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Msg("mail suppressed (no SMTP configured)")
	return nil
}
