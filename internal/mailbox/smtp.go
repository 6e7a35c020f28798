package mailbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     Address
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	send SendFunc
	now  func() time.Time
}

// NewSMTPSender constructs an SMTPSender that uses smtp.SendMail.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return NewSMTPSenderWithFunc(cfg, smtp.SendMail)
}

// NewSMTPSenderWithFunc constructs an SMTPSender with an injectable transport (for tests).
func NewSMTPSenderWithFunc(cfg SMTPConfig, fn SendFunc) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: fn, now: time.Now}
}

// Send delivers m. The context is only checked before dialing since
// net/smtp has no context support.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := m.Recipients()
	if len(to) == 0 {
		return errors.New("message has no recipients")
	}
	if s.cfg.Host == "" {
		return errors.New("smtp host not configured")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, s.cfg.From.Email, to, s.build(m)); err != nil {
		return fmt.Errorf("sending message %s via %s: %w", m.ID, addr, err)
	}

	return nil
}

// build renders m as a MIME document with a base64 HTML body.
func (s *SMTPSender) build(m Message) []byte {
	to := make([]string, 0, len(m.To))
	for _, a := range m.To {
		to = append(to, a.String())
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.cfg.From.String())
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s@%s>\r\n", m.ID, s.cfg.Host)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

	enc := base64.StdEncoding.EncodeToString([]byte(m.Content))
	for len(enc) > 76 {
		buf.WriteString(enc[:76] + "\r\n")
		enc = enc[76:]
	}
	buf.WriteString(enc + "\r\n")

	return buf.Bytes()
}
