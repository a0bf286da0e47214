package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Billing is the billing contact stored as JSONB on orders.
type Billing struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Postcode    string `json:"postcode"`
	CountryCode string `json:"country_code"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	TaxIDNumber string `json:"tax_id_number"`
}

// FullName joins first and last name.
func (b Billing) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// Value serializes the billing contact to JSON.
func (b Billing) Value() (driver.Value, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("billing: %w", err)
	}
	return string(raw), nil
}

// Scan decodes JSONB into the billing contact.
func (b *Billing) Scan(value interface{}) error {
	if value == nil {
		*b = Billing{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return fmt.Errorf("billing: %w", err)
	}
	return json.Unmarshal(raw, b)
}

// Shipping is the delivery address stored as JSONB on orders.
type Shipping struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Postcode    string `json:"postcode"`
	CountryCode string `json:"country_code"`
}

// ShippingFromBilling copies the delivery-relevant billing fields.
func ShippingFromBilling(b Billing) Shipping {
	return Shipping{
		FirstName:   b.FirstName,
		LastName:    b.LastName,
		Address:     b.Address,
		City:        b.City,
		Postcode:    b.Postcode,
		CountryCode: b.CountryCode,
	}
}

func (s Shipping) Value() (driver.Value, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("shipping: %w", err)
	}
	return string(raw), nil
}

func (s *Shipping) Scan(value interface{}) error {
	if value == nil {
		*s = Shipping{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return fmt.Errorf("shipping: %w", err)
	}
	return json.Unmarshal(raw, s)
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
