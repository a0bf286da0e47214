package controllers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/shipping"
	"github.com/angelmondragon/storefront/pkg/types"
)

// CartLineView is one priced line of the cart screen.
type CartLineView struct {
	ProductID    uuid.UUID      `json:"product_id"`
	SKU          string         `json:"sku"`
	Name         string         `json:"name"`
	Permalink    string         `json:"permalink"`
	Image        *catalog.Image `json:"image,omitempty"`
	Price        string         `json:"price"`
	RegularPrice string         `json:"regular_price"`
	Quantity     int            `json:"quantity"`
	LineTotal    string         `json:"line_total"`
}

// CartView is the priced cart.
type CartView struct {
	Lines       []CartLineView `json:"lines"`
	ItemCount   int            `json:"item_count"`
	TotalWeight int            `json:"total_weight"`
	Total       string         `json:"total"`
}

// ShippingQuoteView describes the resolved shipping charge.
type ShippingQuoteView struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	Price   string `json:"price"`
	Free    bool   `json:"free"`
}

// CheckoutView is returned by every checkout request.
type CheckoutView struct {
	Outcome       checkout.Outcome   `json:"outcome"`
	Cart          CartView           `json:"cart"`
	Countries     []shipping.Country `json:"countries"`
	Shipping      *ShippingQuoteView `json:"shipping,omitempty"`
	ShippingTotal string             `json:"shipping_total"`
	Total         string             `json:"total"`
	Alert         string             `json:"alert,omitempty"`
	Order         *orders.OrderView  `json:"order,omitempty"`
}

func newCartView(res *cart.Resolution) CartView {
	view := CartView{Lines: []CartLineView{}, Total: types.FormatMoney(decimal.Zero)}
	if res == nil {
		return view
	}
	for _, line := range res.Lines {
		view.Lines = append(view.Lines, CartLineView{
			ProductID:    line.ProductID,
			SKU:          line.SKU,
			Name:         line.Name,
			Permalink:    line.Permalink,
			Image:        line.Image,
			Price:        types.FormatMoney(line.Price),
			RegularPrice: types.FormatMoney(line.RegularPrice),
			Quantity:     line.Quantity,
			LineTotal:    types.FormatMoney(line.Total()),
		})
		view.ItemCount += line.Quantity
	}
	view.TotalWeight = res.TotalWeight
	view.Total = types.FormatMoney(res.TotalOrderValue)
	return view
}

func newCheckoutView(result *checkout.Result) CheckoutView {
	view := CheckoutView{
		Outcome:       result.Outcome,
		Cart:          newCartView(result.Cart),
		Countries:     result.Countries,
		ShippingTotal: types.FormatMoney(result.ShippingTotal),
		Alert:         result.Alert,
	}
	if view.Countries == nil {
		view.Countries = []shipping.Country{}
	}
	subtotal := decimal.Zero
	if result.Cart != nil {
		subtotal = result.Cart.TotalOrderValue
	}
	view.Total = types.FormatMoney(subtotal.Add(result.ShippingTotal))
	if result.Quote != nil {
		view.Shipping = &ShippingQuoteView{
			Country: result.Quote.Country,
			Region:  result.Quote.Region,
			Price:   types.FormatMoney(result.Quote.Price),
			Free:    result.Quote.Free,
		}
	}
	if result.Order != nil {
		order := orders.NewOrderView(result.Order)
		view.Order = &order
		view.Total = order.Total
	}
	return view
}
