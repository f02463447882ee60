package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTP delivers through gomail, dialing per message.
type SMTP struct {
	dialer *gomail.Dialer
}

func NewSMTP(cfg SMTPConfig) *SMTP {
	return &SMTP{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("mail %q: no recipients", msg.Subject)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}

	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		if msg.HTML != "" {
			m.AddAlternative("text/html", msg.HTML)
		}
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	for _, a := range msg.Attachments {
		data := a.Data
		m.Attach(a.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(data))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send %q: %w", msg.Subject, err)
	}
	return nil
}

// Console logs messages instead of sending them. Used when SMTP is not
// configured.
type Console struct {
	log zerolog.Logger
}

func NewConsole(log zerolog.Logger) *Console {
	return &Console{log: log}
}

func (c *Console) Send(_ context.Context, msg Message) error {
	c.log.Info().
		Str("to", strings.Join(msg.To, ",")).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("email (console)")
	return nil
}
