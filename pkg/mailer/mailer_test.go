package mailer

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

func newTestSender(t *testing.T, failures uint32, send sendFunc) *SMTPSender {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	cfg := config.MailerConfig{
		Host:             "smtp.example.com",
		Port:             587,
		From:             "shop@example.com",
		BreakerFailures:  failures,
		BreakerOpenDelay: time.Minute,
	}
	s, err := New(cfg, logg)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	s.send = send
	s.now = func() time.Time { return time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestNewDisabledWithoutHost(t *testing.T) {
	if _, err := New(config.MailerConfig{}, nil); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestSendRendersMessage(t *testing.T) {
	var gotTo []string
	var gotBody []byte
	s := newTestSender(t, 3, func(_ context.Context, to []string, msg []byte) error {
		gotTo = to
		gotBody = msg
		return nil
	})

	err := s.Send(context.Background(), Message{
		To:      []string{"ana@example.com"},
		Subject: "Order received\r\nBcc: evil@example.com",
		Body:    "Thanks\nfor your order",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if s.addr != "smtp.example.com:587" || len(gotTo) != 1 || gotTo[0] != "ana@example.com" {
		t.Fatalf("unexpected addr %q or recipients %v", s.addr, gotTo)
	}
	body := string(gotBody)
	if !strings.Contains(body, "Subject: Order received  Bcc: evil@example.com\r\n") {
		t.Fatalf("subject header not sanitized: %q", body)
	}
	if !strings.Contains(body, "Thanks\r\nfor your order") {
		t.Fatalf("body line endings not normalized: %q", body)
	}
}

func TestSendOpensBreakerAfterFailures(t *testing.T) {
	calls := 0
	s := newTestSender(t, 2, func(context.Context, []string, []byte) error {
		calls++
		return errors.New("relay down")
	})
	msg := Message{To: []string{"ana@example.com"}, Subject: "x", Body: "y"}

	for i := 0; i < 2; i++ {
		if err := s.Send(context.Background(), msg); err == nil {
			t.Fatalf("expected relay failure on attempt %d", i)
		}
	}
	err := s.Send(context.Background(), msg)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected relay to be skipped once open, calls=%d", calls)
	}
}

func TestSendRequiresRecipient(t *testing.T) {
	s := newTestSender(t, 1, func(context.Context, []string, []byte) error { return nil })
	if err := s.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected missing recipient error")
	}
}

func fakeRelay(conn net.Conn, received chan<- string) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 relay ready")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "EHLO":
			_ = tp.PrintfLine("250-relay.example.com")
			_ = tp.PrintfLine("250 8BITMIME")
		case "MAIL", "RCPT":
			_ = tp.PrintfLine("250 ok")
		case "DATA":
			_ = tp.PrintfLine("354 go ahead")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			received <- strings.Join(lines, "\n")
			_ = tp.PrintfLine("250 queued")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("502 unsupported")
		}
	}
}

func TestDeliverTalksToRelay(t *testing.T) {
	s := newTestSender(t, 3, nil)
	received := make(chan string, 1)
	s.dial = func(_ context.Context, network, addr string) (net.Conn, error) {
		if network != "tcp" || addr != "smtp.example.com:587" {
			t.Errorf("unexpected dial %s %s", network, addr)
		}
		client, server := net.Pipe()
		go fakeRelay(server, received)
		return client, nil
	}
	s.send = s.deliver

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Send(ctx, Message{To: []string{"ana@example.com"}, Subject: "Hi", Body: "Thanks"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case body := <-received:
		if !strings.Contains(body, "Subject: Hi") || !strings.Contains(body, "Thanks") {
			t.Fatalf("unexpected message %q", body)
		}
	default:
		t.Fatal("relay did not receive the message")
	}
}

func TestDeliverStopsWhenRelayStalls(t *testing.T) {
	s := newTestSender(t, 3, nil)
	s.dial = func(context.Context, string, string) (net.Conn, error) {
		client, server := net.Pipe()
		t.Cleanup(func() { _ = server.Close() })
		return client, nil
	}
	s.send = s.deliver

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := s.Send(ctx, Message{To: []string{"ana@example.com"}, Subject: "Hi", Body: "Thanks"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("send did not honor the context, took %s", elapsed)
	}
}

func TestDeliverPassesContextToDial(t *testing.T) {
	s := newTestSender(t, 3, nil)
	s.dial = func(ctx context.Context, _, _ string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s.send = s.deliver

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.deliver(ctx, []string{"ana@example.com"}, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled dial, got %v", err)
	}
}
