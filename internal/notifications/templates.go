package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/mailer"
	"github.com/angelmondragon/storefront/pkg/outbox"
)

func customerMessage(to string, event *outbox.OrderCreatedEvent) mailer.Message {
	var body strings.Builder
	name := strings.TrimSpace(event.CustomerName)
	if name == "" {
		name = "customer"
	}
	fmt.Fprintf(&body, "Hello %s,\n\n", name)
	fmt.Fprintf(&body, "We received your order %s.\n", event.OrderKey)
	fmt.Fprintf(&body, "Items: %d\nTotal: %s %s\n\n", event.ItemCount, event.Total, event.Currency)
	body.WriteString("We will let you know once it ships.\n")
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Your order %s", event.OrderKey),
		Body:    body.String(),
	}
}

func shopMessage(to string, event *outbox.OrderCreatedEvent) mailer.Message {
	var body strings.Builder
	fmt.Fprintf(&body, "Order: %s (%s)\n", event.OrderKey, event.OrderID)
	fmt.Fprintf(&body, "Customer: %s <%s>\n", event.CustomerName, event.Email)
	fmt.Fprintf(&body, "Items: %d\nTotal: %s %s\n", event.ItemCount, event.Total, event.Currency)
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("New order %s", event.OrderKey),
		Body:    body.String(),
	}
}
