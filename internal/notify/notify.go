// Package notify tells the site owner about new contact submissions.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/Zachkp/portfolio/internal/contact"
)

// Notifier is called once a record has been stored.
type Notifier interface {
	Notify(ctx context.Context, rec contact.Record) error
}

// Nop discards notifications. Used when SMTP is not configured.
type Nop struct{}

func (Nop) Notify(context.Context, contact.Record) error { return nil }

// ErrNotConfigured is returned when SMTP credentials are missing.
var ErrNotConfigured = errors.New("SMTP credentials not configured")

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string // e.g. "smtp.gmail.com"
	Port     int    // e.g. 587
	User     string
	Password string
	To       string // where submissions are delivered
	Timeout  time.Duration
}

// DefaultTimeout bounds one delivery when SMTPConfig.Timeout is unset.
const DefaultTimeout = 15 * time.Second

// Enabled reports whether enough is configured to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.User != "" && c.Password != "" && c.To != ""
}

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier mails each submission to the owner with Reply-To set to the
// visitor.
type SMTPNotifier struct {
	cfg  SMTPConfig
	log  *slog.Logger
	send sendFunc
}

func NewSMTPNotifier(cfg SMTPConfig, log *slog.Logger) (*SMTPNotifier, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	return &SMTPNotifier{cfg: cfg, log: log, send: sendMail}, nil
}

// New returns an SMTPNotifier when credentials are present and Nop otherwise.
func New(cfg SMTPConfig, log *slog.Logger) Notifier {
	n, err := NewSMTPNotifier(cfg, log)
	if err != nil {
		log.Warn("Contact notifications disabled", "reason", err)
		return Nop{}
	}
	return n
}

// Notify delivers one mail. The whole exchange with the relay, dial
// included, is bounded by ctx and by the configured timeout.
func (n *SMTPNotifier) Notify(ctx context.Context, rec contact.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := n.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(n.cfg.Host, fmt.Sprint(n.cfg.Port))
	auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	msg := Compose(n.cfg.User, n.cfg.To, rec)

	if err := n.send(ctx, addr, auth, n.cfg.User, []string{n.cfg.To}, msg); err != nil {
		return fmt.Errorf("send contact %d: %w", rec.ID, err)
	}
	n.log.Info("Contact notification sent", "contact_id", rec.ID)
	return nil
}

// sendMail is smtp.SendMail with the connection tied to ctx: the socket
// deadline follows the context deadline and cancellation closes it.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("smtp addr: %w", err)
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("smtp deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if a != nil {
		if err := client.Auth(a); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}

// Compose renders the notification mail for rec.
func Compose(from, to string, rec contact.Record) []byte {
	company := rec.Company
	if company == "" {
		company = "-"
	}
	body := fmt.Sprintf(`New contact form submission from your portfolio:

Name: %s
Email: %s
Company: %s
Received: %s
Message:
%s

---
Sent from your portfolio contact form
`, rec.Name, rec.Email, company, rec.CreatedAt.Format("2006-01-02 15:04 MST"), rec.Message)

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", headerSafe("Portfolio Contact: "+rec.Name)) + "\r\n")
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Reply-To: " + headerSafe(rec.Email) + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(body + "\r\n")
	return []byte(b.String())
}

// headerSafe strips line breaks so visitor input cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
