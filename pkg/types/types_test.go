package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"4.9":     "4.90",
		"0":       "0.00",
		"12.345":  "12.35",
		"100":     "100.00",
		"1.86992": "1.87",
	}
	for in, want := range cases {
		if got := FormatMoney(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatMoney(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestBillingScanRoundTrip(t *testing.T) {
	t.Parallel()

	in := Billing{FirstName: "Ana", LastName: "Silva", Postcode: "1000-100", CountryCode: "PT"}
	raw, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var out Billing
	if err := out.Scan([]byte(raw.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
	if out.FullName() != "Ana Silva" {
		t.Fatalf("unexpected full name %q", out.FullName())
	}

	if err := out.Scan(42); err == nil {
		t.Fatal("expected unsupported scan type error")
	}
}

func TestShippingFromBilling(t *testing.T) {
	t.Parallel()

	s := ShippingFromBilling(Billing{FirstName: "Rui", City: "Lisboa", Postcode: "1100-001", CountryCode: "PT", Email: "r@example.com"})
	if s.City != "Lisboa" || s.CountryCode != "PT" || s.Postcode != "1100-001" {
		t.Fatalf("unexpected shipping %+v", s)
	}
}
