package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// LineItemView is a line of the order confirmation.
type LineItemView struct {
	ProductID   uuid.UUID `json:"product_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	Subtotal    string    `json:"subtotal"`
	SubtotalTax string    `json:"subtotal_tax"`
	Total       string    `json:"total"`
	TotalTax    string    `json:"total_tax"`
}

// ShippingLineView is the shipping charge of the order confirmation.
type ShippingLineView struct {
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
	TotalTax    string `json:"total_tax"`
}

// OrderView is the order confirmation view model.
type OrderView struct {
	ID                 uuid.UUID          `json:"id"`
	OrderKey           string             `json:"order_key"`
	Status             enums.OrderStatus  `json:"status"`
	Currency           string             `json:"currency"`
	PricesIncludeTax   bool               `json:"prices_include_tax"`
	DiscountTotal      string             `json:"discount_total"`
	DiscountTax        string             `json:"discount_tax"`
	ShippingTotal      string             `json:"shipping_total"`
	ShippingTax        string             `json:"shipping_tax"`
	CartTax            string             `json:"cart_tax"`
	Total              string             `json:"total"`
	TotalTax           string             `json:"total_tax"`
	CustomerNote       string             `json:"customer_note"`
	Billing            types.Billing      `json:"billing"`
	Shipping           types.Shipping     `json:"shipping"`
	PaymentMethod      string             `json:"payment_method"`
	PaymentMethodTitle string             `json:"payment_method_title"`
	LineItems          []LineItemView     `json:"line_items"`
	ShippingLines      []ShippingLineView `json:"shipping_lines"`
	DateCreated        time.Time          `json:"date_created"`
}

// NewOrderView maps a persisted order to its confirmation view.
func NewOrderView(order *models.Order) OrderView {
	view := OrderView{
		ID:                 order.ID,
		OrderKey:           order.OrderKey,
		Status:             order.Status,
		Currency:           order.Currency,
		PricesIncludeTax:   order.PricesIncludeTax,
		DiscountTotal:      types.FormatMoney(order.DiscountTotal),
		DiscountTax:        types.FormatMoney(order.DiscountTax),
		ShippingTotal:      types.FormatMoney(order.ShippingTotal),
		ShippingTax:        types.FormatMoney(order.ShippingTax),
		CartTax:            types.FormatMoney(order.CartTax),
		Total:              types.FormatMoney(order.Total),
		TotalTax:           types.FormatMoney(order.TotalTax),
		CustomerNote:       order.CustomerNote,
		Billing:            order.Billing,
		Shipping:           order.Shipping,
		PaymentMethod:      order.PaymentMethod,
		PaymentMethodTitle: order.PaymentMethodTitle,
		LineItems:          make([]LineItemView, 0, len(order.LineItems)),
		ShippingLines:      make([]ShippingLineView, 0, len(order.ShippingLines)),
		DateCreated:        order.CreatedAt,
	}
	for _, item := range order.LineItems {
		view.LineItems = append(view.LineItems, LineItemView{
			ProductID:   item.ProductID,
			SKU:         item.SKU,
			Name:        item.Name,
			Price:       types.FormatMoney(item.Price),
			Quantity:    item.Quantity,
			Subtotal:    types.FormatMoney(item.Subtotal),
			SubtotalTax: types.FormatMoney(item.SubtotalTax),
			Total:       types.FormatMoney(item.Total),
			TotalTax:    types.FormatMoney(item.TotalTax),
		})
	}
	for _, line := range order.ShippingLines {
		view.ShippingLines = append(view.ShippingLines, ShippingLineView{
			MethodTitle: line.MethodTitle,
			Total:       types.FormatMoney(line.Total),
			TotalTax:    types.FormatMoney(line.TotalTax),
		})
	}
	return view
}
