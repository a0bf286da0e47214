package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/mailer"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/outbox"
)

// Dispatcher turns outbox events into outbound mail.
type Dispatcher struct {
	sender        mailer.Sender
	shopRecipient string
	metrics       *metrics.NotificationMetrics
	logg          *logger.Logger
}

// NewDispatcher builds a dispatcher. shopRecipient may be empty.
func NewDispatcher(sender mailer.Sender, shopRecipient string, notificationMetrics *metrics.NotificationMetrics, logg *logger.Logger) (*Dispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{
		sender:        sender,
		shopRecipient: strings.TrimSpace(shopRecipient),
		metrics:       notificationMetrics,
		logg:          logg,
	}, nil
}

// Dispatch handles one resolved event. A NonRetryableError means the event can never be delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, event *outbox.ResolvedEvent) error {
	if event == nil {
		return outbox.NewNonRetryableError(fmt.Errorf("event required"))
	}
	switch payload := event.Payload.(type) {
	case *outbox.OrderCreatedEvent:
		return d.orderCreated(ctx, payload)
	default:
		return outbox.NewNonRetryableError(fmt.Errorf("no notification for %s", event.Descriptor.EventType))
	}
}

func (d *Dispatcher) orderCreated(ctx context.Context, event *outbox.OrderCreatedEvent) error {
	ctx = d.logg.WithOrderID(ctx, event.OrderID.String())

	messages := make([]mailer.Message, 0, 2)
	if email := strings.TrimSpace(event.Email); email != "" {
		messages = append(messages, customerMessage(email, event))
	}
	if d.shopRecipient != "" {
		messages = append(messages, shopMessage(d.shopRecipient, event))
	}
	if len(messages) == 0 {
		d.metrics.IncResult("skipped")
		d.logg.Warn(ctx, "order notification has no recipients")
		return nil
	}

	for _, msg := range messages {
		if err := d.sender.Send(ctx, msg); err != nil {
			d.metrics.IncResult("failed")
			return fmt.Errorf("order %s notification: %w", event.OrderKey, err)
		}
		d.metrics.IncResult("sent")
	}
	d.logg.Info(ctx, "order notifications sent")
	return nil
}
