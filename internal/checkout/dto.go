package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/shipping"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Form is the checkout submission. Field names are the storefront's form contract.
type Form struct {
	BillingFirstName       string `form:"billing_first_name" validate:"required_without=CalculateShipping,max=100"`
	BillingLastName        string `form:"billing_last_name" validate:"required_without=CalculateShipping,max=100"`
	Email                  string `form:"email" validate:"required_without=CalculateShipping,omitempty,email"`
	Phone                  string `form:"phone" validate:"max=40"`
	BillingAddress         string `form:"billing_address" validate:"required_without=CalculateShipping,max=255"`
	BillingPostcode        string `form:"billing_postcode" validate:"required_without=CalculateShipping,max=20"`
	BillingCity            string `form:"billing_city" validate:"required_without=CalculateShipping,max=100"`
	BillingCountry         string `form:"billing_country" validate:"required_without=CalculateShipping,omitempty,len=2"`
	TaxIDNumber            string `form:"tax_id_number" validate:"max=40"`
	ShipToDifferentAddress bool   `form:"ship_to_different_address"`
	ShippingFirstName      string `form:"shipping_first_name" validate:"required_if=ShipToDifferentAddress true CalculateShipping false,max=100"`
	ShippingLastName       string `form:"shipping_last_name" validate:"required_if=ShipToDifferentAddress true CalculateShipping false,max=100"`
	ShippingAddress        string `form:"shipping_address" validate:"required_if=ShipToDifferentAddress true CalculateShipping false,max=255"`
	ShippingPostcode       string `form:"shipping_postcode" validate:"required_if=ShipToDifferentAddress true CalculateShipping false,max=20"`
	ShippingCity           string `form:"shipping_city" validate:"required_if=ShipToDifferentAddress true CalculateShipping false,max=100"`
	ShippingCountry        string `form:"shipping_country" validate:"required_if=ShipToDifferentAddress true CalculateShipping false,omitempty,len=2"`
	Terms                  bool   `form:"terms" validate:"required_without=CalculateShipping"`
	PaymentMethod          string `form:"payment_method" validate:"max=100"`
	OrderComments          string `form:"order_comments" validate:"max=2000"`
	CalculateShipping      bool   `form:"calculate_shipping"`
}

// Billing returns the billing contact.
func (f Form) Billing() types.Billing {
	return types.Billing{
		FirstName:   strings.TrimSpace(f.BillingFirstName),
		LastName:    strings.TrimSpace(f.BillingLastName),
		Address:     strings.TrimSpace(f.BillingAddress),
		City:        strings.TrimSpace(f.BillingCity),
		Postcode:    strings.TrimSpace(f.BillingPostcode),
		CountryCode: strings.ToUpper(strings.TrimSpace(f.BillingCountry)),
		Email:       strings.TrimSpace(f.Email),
		Phone:       strings.TrimSpace(f.Phone),
		TaxIDNumber: strings.TrimSpace(f.TaxIDNumber),
	}
}

// Shipping returns the delivery address, which is the billing address unless
// a different one was requested.
func (f Form) Shipping() types.Shipping {
	if !f.ShipToDifferentAddress {
		return types.ShippingFromBilling(f.Billing())
	}
	return types.Shipping{
		FirstName:   strings.TrimSpace(f.ShippingFirstName),
		LastName:    strings.TrimSpace(f.ShippingLastName),
		Address:     strings.TrimSpace(f.ShippingAddress),
		City:        strings.TrimSpace(f.ShippingCity),
		Postcode:    strings.TrimSpace(f.ShippingPostcode),
		CountryCode: strings.ToUpper(strings.TrimSpace(f.ShippingCountry)),
	}
}

// Client identifies the browser submitting the checkout.
type Client struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// Outcome is the terminal state of one checkout request.
type Outcome string

const (
	OutcomePreview          Outcome = "preview"
	OutcomeEstimated        Outcome = "estimated"
	OutcomeEstimateDegraded Outcome = "estimate_degraded"
	OutcomePlaced           Outcome = "placed"
	OutcomeEmptyCart        Outcome = "empty_cart"
)

// Result is what a checkout request produced.
type Result struct {
	Outcome       Outcome
	Cart          *cart.Resolution
	Form          Form
	Countries     []shipping.Country
	Quote         *shipping.Quote
	ShippingTotal decimal.Decimal
	// Alert is set when the shipping estimate could not be resolved.
	Alert string
	Order *models.Order
}
