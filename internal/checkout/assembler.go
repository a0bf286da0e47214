package checkout

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/shipping"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	orderKeyPrefix   = "wc_order_"
	orderKeyLength   = 13
	orderKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Policy is the pricing policy applied to every order.
type Policy struct {
	TaxRate          decimal.Decimal
	PricesIncludeTax bool
	Currency         string
	PaymentMethod    string
}

// Customer carries the submitted contact and client details.
type Customer struct {
	Billing       types.Billing
	Shipping      types.Shipping
	IPAddress     string
	UserAgent     string
	Note          string
	PaymentMethod string
}

// Assembler builds immutable order snapshots from priced cart lines.
type Assembler struct {
	policy   Policy
	orderKey func() (string, error)
}

// NewAssembler builds an assembler for the policy.
func NewAssembler(policy Policy) (*Assembler, error) {
	if policy.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	if strings.TrimSpace(policy.Currency) == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &Assembler{policy: policy, orderKey: newOrderKey}, nil
}

// Assemble prices the lines and the shipping charge into an unsaved order.
// Taxes are computed per unit and then multiplied by quantity.
func (a *Assembler) Assemble(lines []cart.Line, quote shipping.Quote, customer Customer) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("cannot assemble an order without lines")
	}
	key, err := a.orderKey()
	if err != nil {
		return nil, fmt.Errorf("generate order key: %w", err)
	}

	rate := a.policy.TaxRate
	inclusive := a.policy.PricesIncludeTax

	paymentMethod := strings.TrimSpace(customer.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = a.policy.PaymentMethod
	}

	order := &models.Order{
		OrderKey:           key,
		Status:             enums.OrderStatusPending,
		Currency:           strings.ToUpper(a.policy.Currency),
		PricesIncludeTax:   inclusive,
		DiscountTotal:      decimal.Zero,
		DiscountTax:        decimal.Zero,
		ShippingTotal:      decimal.Zero,
		ShippingTax:        decimal.Zero,
		CartTax:            decimal.Zero,
		Total:              decimal.Zero,
		TotalTax:           decimal.Zero,
		CustomerIPAddress:  customer.IPAddress,
		CustomerUserAgent:  customer.UserAgent,
		CustomerNote:       strings.TrimSpace(customer.Note),
		Billing:            customer.Billing,
		Shipping:           customer.Shipping,
		PaymentMethod:      paymentMethod,
		PaymentMethodTitle: paymentMethod,
		CartHash:           CartHash(lines),
		LineItems:          make([]models.OrderLineItem, 0, len(lines)),
	}

	for i, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		charged := line.Price
		regular := line.RegularPrice
		if regular.LessThan(charged) {
			regular = charged
		}
		regularTax := Tax(regular, rate, inclusive)
		chargedTax := Tax(charged, rate, inclusive)

		item := models.OrderLineItem{
			ProductID:   line.ProductID,
			SKU:         line.SKU,
			Name:        line.Name,
			Price:       charged,
			Quantity:    line.Quantity,
			Subtotal:    regular.Mul(qty),
			SubtotalTax: regularTax.Mul(qty),
			Total:       charged.Mul(qty),
			TotalTax:    chargedTax.Mul(qty),
			Position:    i,
		}
		order.LineItems = append(order.LineItems, item)

		order.DiscountTotal = order.DiscountTotal.Add(regular.Sub(charged).Mul(qty))
		order.DiscountTax = order.DiscountTax.Add(regularTax.Sub(chargedTax).Mul(qty))
		order.Total = order.Total.Add(item.Total)
		order.TotalTax = order.TotalTax.Add(item.TotalTax)
		order.CartTax = order.CartTax.Add(item.TotalTax)
	}
	if len(order.LineItems) == 0 {
		return nil, fmt.Errorf("cannot assemble an order without lines")
	}

	shippingLine := models.OrderShippingLine{
		MethodTitle: shippingTitle(quote),
		Total:       quote.Price,
		TotalTax:    Tax(quote.Price, rate, inclusive),
	}
	order.ShippingLines = []models.OrderShippingLine{shippingLine}
	order.ShippingTotal = shippingLine.Total
	order.ShippingTax = shippingLine.TotalTax
	order.Total = order.Total.Add(shippingLine.Total)
	order.TotalTax = order.TotalTax.Add(shippingLine.TotalTax)

	return order, nil
}

// Rekey gives the order a freshly generated key.
func (a *Assembler) Rekey(order *models.Order) error {
	key, err := a.orderKey()
	if err != nil {
		return fmt.Errorf("generate order key: %w", err)
	}
	order.OrderKey = key
	return nil
}

// CartHash fingerprints the priced lines. It is stored on the order and not
// compared against earlier submissions.
func CartHash(lines []cart.Line) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s:%d:%s", line.ProductID, line.Quantity, types.FormatMoney(line.Price)))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func shippingTitle(quote shipping.Quote) string {
	if quote.Free {
		return "Free shipping"
	}
	title := strings.TrimSpace(quote.Country + " " + quote.Region)
	if title == "" {
		return "Shipping"
	}
	return "Shipping " + title
}

func newOrderKey() (string, error) {
	var b strings.Builder
	b.WriteString(orderKeyPrefix)
	alphabetSize := big.NewInt(int64(len(orderKeyAlphabet)))
	for i := 0; i < orderKeyLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b.WriteByte(orderKeyAlphabet[n.Int64()])
	}
	return b.String(), nil
}
