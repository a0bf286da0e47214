package notifications

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/mailer"
	"github.com/angelmondragon/storefront/pkg/outbox"
)

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func newTestDispatcher(t *testing.T, sender mailer.Sender, shop string) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(sender, shop, nil, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewDispatcher() error: %v", err)
	}
	return d
}

func orderCreated(email string) *outbox.ResolvedEvent {
	return &outbox.ResolvedEvent{
		Descriptor: outbox.EventDescriptor{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder},
		Payload: &outbox.OrderCreatedEvent{
			OrderID:      uuid.New(),
			OrderKey:     "wc_order_abc123",
			CustomerName: "Ana Silva",
			Email:        email,
			Total:        "24.90",
			Currency:     "EUR",
			ItemCount:    2,
		},
	}
}

func TestDispatchOrderCreatedSendsCustomerAndShopMail(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	d := newTestDispatcher(t, sender, "shop@example.com")

	if err := d.Dispatch(context.Background(), orderCreated("ana@example.com")); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.sent))
	}
	customer := sender.sent[0]
	if customer.To[0] != "ana@example.com" || !strings.Contains(customer.Body, "24.90 EUR") {
		t.Fatalf("unexpected customer message %+v", customer)
	}
	if sender.sent[1].To[0] != "shop@example.com" || !strings.Contains(sender.sent[1].Subject, "wc_order_abc123") {
		t.Fatalf("unexpected shop message %+v", sender.sent[1])
	}
}

func TestDispatchWithoutRecipientsIsSkipped(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	d := newTestDispatcher(t, sender, "")
	if err := d.Dispatch(context.Background(), orderCreated("")); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no messages, got %d", len(sender.sent))
	}
}

func TestDispatchSendFailureIsRetryable(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{err: errors.New("connection refused")}
	d := newTestDispatcher(t, sender, "")
	err := d.Dispatch(context.Background(), orderCreated("ana@example.com"))
	if err == nil {
		t.Fatal("expected send failure")
	}
	var nonRetryable outbox.NonRetryableError
	if errors.As(err, &nonRetryable) {
		t.Fatal("expected send failure to be retryable")
	}
}

func TestDispatchUnknownPayloadIsTerminal(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t, &recordingSender{}, "")
	err := d.Dispatch(context.Background(), &outbox.ResolvedEvent{Payload: struct{}{}})
	var nonRetryable outbox.NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}
