package shipping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func defaultRates(t *testing.T) *Rates {
	t.Helper()
	rates, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	return rates
}

func TestCalculate(t *testing.T) {
	t.Parallel()
	rates := defaultRates(t)

	cases := []struct {
		name       string
		country    string
		postcode   string
		weight     int
		orderValue string
		wantPrice  string
		wantRegion string
		wantFree   bool
	}{
		{name: "pt mainland first tier", country: "PT", postcode: "1000-100", weight: 800, orderValue: "50", wantPrice: "4.90", wantRegion: "mainland"},
		{name: "pt mainland free shipping", country: "PT", postcode: "1000-100", weight: 800, orderValue: "150", wantPrice: "0", wantRegion: "mainland", wantFree: true},
		{name: "pt mainland threshold inclusive", country: "pt", postcode: " 4000-001 ", weight: 2500, orderValue: "100.00", wantPrice: "0", wantRegion: "mainland", wantFree: true},
		{name: "pt madeira second tier", country: "PT", postcode: "9000-050", weight: 1001, orderValue: "20", wantPrice: "9.30", wantRegion: "madeira"},
		{name: "pt acores keeps charging above 100", country: "PT", postcode: "9500-100", weight: 1000, orderValue: "150", wantPrice: "6.90", wantRegion: "acores"},
		{name: "es wildcard region", country: "ES", postcode: "28001", weight: 4500, orderValue: "50", wantPrice: "24.50", wantRegion: "mainland"},
		{name: "es empty postcode still matches", country: "ES", postcode: "", weight: 1000, orderValue: "10", wantPrice: "7.90", wantRegion: "mainland"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			quote, err := rates.Calculate(tc.country, tc.postcode, tc.weight, decimal.RequireFromString(tc.orderValue))
			if err != nil {
				t.Fatalf("Calculate() error: %v", err)
			}
			if !quote.Price.Equal(decimal.RequireFromString(tc.wantPrice)) {
				t.Fatalf("expected price %s, got %s", tc.wantPrice, quote.Price)
			}
			if quote.Region != tc.wantRegion {
				t.Fatalf("expected region %q, got %q", tc.wantRegion, quote.Region)
			}
			if quote.Free != tc.wantFree {
				t.Fatalf("expected free=%v, got %v", tc.wantFree, quote.Free)
			}
		})
	}
}

func TestCalculateFailures(t *testing.T) {
	t.Parallel()
	rates := defaultRates(t)

	cases := []struct {
		name     string
		country  string
		postcode string
		weight   int
		want     Reason
	}{
		{name: "offered country without table", country: "FR", postcode: "75001", weight: 500, want: ReasonNoTable},
		{name: "unknown country", country: "", postcode: "1000", weight: 500, want: ReasonNoTable},
		{name: "postcode outside every region", country: "PT", postcode: "0999", weight: 500, want: ReasonNoRegion},
		{name: "non numeric postcode", country: "PT", postcode: "ABC", weight: 500, want: ReasonNoRegion},
		{name: "too heavy", country: "PT", postcode: "1000-100", weight: 5001, want: ReasonNoTier},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := rates.Calculate(tc.country, tc.postcode, tc.weight, decimal.NewFromInt(10))
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := ReasonOf(err); got != tc.want {
				t.Fatalf("expected reason %q, got %q (%v)", tc.want, got, err)
			}
		})
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	t.Parallel()
	rates := defaultRates(t)

	inputs := []struct {
		country  string
		postcode string
		weight   int
	}{
		{"PT", "1000-100", 800},
		{"PT", "0000", 800},
		{"ES", "08001", 9000},
	}
	for _, in := range inputs {
		firstQuote, firstErr := rates.Calculate(in.country, in.postcode, in.weight, decimal.NewFromInt(50))
		for i := 0; i < 5; i++ {
			quote, err := rates.Calculate(in.country, in.postcode, in.weight, decimal.NewFromInt(50))
			if (err == nil) != (firstErr == nil) {
				t.Fatalf("error presence changed between calls for %+v", in)
			}
			if err != nil && err.Error() != firstErr.Error() {
				t.Fatalf("error changed: %q vs %q", err, firstErr)
			}
			if !quote.Price.Equal(firstQuote.Price) || quote.Region != firstQuote.Region {
				t.Fatalf("quote changed: %+v vs %+v", quote, firstQuote)
			}
		}
	}
}

func TestFirstMatchingRegionWins(t *testing.T) {
	t.Parallel()
	raw := []byte(`
countries:
  XX:
    - label: narrow
      postcodes: ['^1']
      tiers:
        - {max_weight: 1000, price: "1.00"}
    - label: catchall
      free_shipping_from: "0"
      tiers:
        - {max_weight: 1000, price: "9.00"}
`)
	rates, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	quote, err := rates.Calculate("XX", "1234", 100, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}
	if quote.Region != "narrow" || !quote.Price.Equal(decimal.RequireFromString("1.00")) {
		t.Fatalf("expected narrow region at 1.00, got %+v", quote)
	}

	quote, err = rates.Calculate("XX", "2234", 100, decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}
	if !quote.Free {
		t.Fatalf("expected catchall free shipping, got %+v", quote)
	}
}

func TestParseRejectsInvalidTables(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"empty":         `countries: {}`,
		"bad regex":     "countries:\n  PT:\n    - label: a\n      postcodes: ['[']\n      tiers: [{max_weight: 1, price: \"1\"}]\n",
		"unsorted":      "countries:\n  PT:\n    - label: a\n      tiers: [{max_weight: 2, price: \"1\"}, {max_weight: 1, price: \"2\"}]\n",
		"bad price":     "countries:\n  PT:\n    - label: a\n      tiers: [{max_weight: 1, price: \"abc\"}]\n",
		"no tiers":      "countries:\n  PT:\n    - label: a\n",
		"long code":     "countries:\n  PRT:\n    - label: a\n      tiers: [{max_weight: 1, price: \"1\"}]\n",
		"missing label": "countries:\n  PT:\n    - tiers: [{max_weight: 1, price: \"1\"}]\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rates.yaml")
	doc := "checkout_countries:\n  - {code: de, name: Germany}\ncountries:\n  DE:\n    - label: national\n      tiers: [{max_weight: 2000, price: \"6.50\"}]\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write rates: %v", err)
	}

	rates, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !rates.Supports("de") {
		t.Fatal("expected DE to be supported")
	}
	countries := rates.CheckoutCountries()
	if len(countries) != 1 || countries[0].Code != "DE" {
		t.Fatalf("unexpected checkout countries %+v", countries)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file to fail")
	}
}

func TestDefaultCheckoutCountries(t *testing.T) {
	t.Parallel()
	rates := defaultRates(t)

	got := rates.CheckoutCountries()
	want := []string{"FR", "PT", "ES"}
	if len(got) != len(want) {
		t.Fatalf("expected %d countries, got %d", len(want), len(got))
	}
	shippable := map[string]bool{"FR": false, "PT": true, "ES": true}
	for i, code := range want {
		if got[i].Code != code {
			t.Fatalf("position %d: expected %s, got %s", i, code, got[i].Code)
		}
		if got[i].Shippable != shippable[code] {
			t.Fatalf("%s: expected shippable=%v", code, shippable[code])
		}
	}
	if codes := rates.Codes(); len(codes) != 2 || codes[0] != "ES" || codes[1] != "PT" {
		t.Fatalf("unexpected table codes %v", codes)
	}
}
