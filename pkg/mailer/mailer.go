package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// ErrDisabled is returned when no SMTP host is configured.
var ErrDisabled = errors.New("mailer disabled")

// Message is a plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(ctx context.Context, to []string, msg []byte) error

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// SMTPSender sends mail through a relay, guarded by a circuit breaker.
type SMTPSender struct {
	addr    string
	host    string
	from    string
	auth    smtp.Auth
	dial    dialFunc
	send    sendFunc
	breaker *gobreaker.CircuitBreaker[struct{}]
	logg    *logger.Logger
	now     func() time.Time
}

// New builds an SMTP sender. It returns ErrDisabled when the config lacks a host or sender.
func New(cfg config.MailerConfig, logg *logger.Logger) (*SMTPSender, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	s := &SMTPSender{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host: cfg.Host,
		from: cfg.From,
		auth: auth,
		dial: (&net.Dialer{}).DialContext,
		logg: logg,
		now:  time.Now,
	}
	s.send = s.deliver
	s.breaker = newBreaker(cfg, logg)
	return s, nil
}

func newBreaker(cfg config.MailerConfig, logg *logger.Logger) *gobreaker.CircuitBreaker[struct{}] {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logg == nil {
				return
			}
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "mailer circuit breaker state changed")
		},
	})
}

// Send delivers msg unless the breaker is open.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("recipient required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw := s.render(msg)
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.send(ctx, msg.To, raw)
	})
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// deliver runs one SMTP conversation. Cancelling ctx aborts any blocked read or write.
func (s *SMTPSender) deliver(ctx context.Context, to []string, msg []byte) error {
	conn, err := s.dial(ctx, "tcp", s.addr)
	if err != nil {
		return withCtxErr(ctx, err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return withCtxErr(ctx, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return withCtxErr(ctx, err)
		}
	}
	if s.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(s.auth); err != nil {
				return withCtxErr(ctx, err)
			}
		}
	}
	if err := client.Mail(s.from); err != nil {
		return withCtxErr(ctx, err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return withCtxErr(ctx, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return withCtxErr(ctx, err)
	}
	if _, err := w.Write(msg); err != nil {
		return withCtxErr(ctx, err)
	}
	if err := w.Close(); err != nil {
		return withCtxErr(ctx, err)
	}
	return withCtxErr(ctx, client.Quit())
}

// withCtxErr reports the context error when it caused the failure.
func withCtxErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

func (s *SMTPSender) render(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	b.WriteString("Date: " + s.now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
