package shipping

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier prices every parcel up to MaxWeight grams.
type Tier struct {
	MaxWeight int
	Price     decimal.Decimal
}

// Region is one priced zone of a country, selected by postal code.
// A region without patterns matches every postal code; one without a
// threshold never ships free.
type Region struct {
	Label            string
	Patterns         []*regexp.Regexp
	Tiers            []Tier
	FreeShippingFrom decimal.NullDecimal
}

func (r Region) matches(postcode string) bool {
	if len(r.Patterns) == 0 {
		return true
	}
	for _, pattern := range r.Patterns {
		if pattern.MatchString(postcode) {
			return true
		}
	}
	return false
}

// Country is a display entry for the checkout country selector.
// Shippable is false when the country is offered but has no rate table.
type Country struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Shippable bool   `json:"shippable" yaml:"-"`
}

// Rates holds the per-country shipping tables. It is immutable once built.
type Rates struct {
	countries map[string][]Region
	checkout  []Country
}

// Quote is a resolved shipping charge.
type Quote struct {
	Country string
	Region  string
	Price   decimal.Decimal
	Free    bool
}

// NewRates builds a rate set from already validated regions.
func NewRates(countries map[string][]Region, checkout []Country) *Rates {
	copied := make(map[string][]Region, len(countries))
	for code, regions := range countries {
		copied[normalizeCountry(code)] = append([]Region(nil), regions...)
	}
	return &Rates{countries: copied, checkout: append([]Country(nil), checkout...)}
}

// Calculate resolves the shipping charge for a destination. The first
// region matching the postal code wins; its free-shipping threshold is
// checked before the weight tiers.
func (r *Rates) Calculate(country, postcode string, weight int, orderValue decimal.Decimal) (Quote, error) {
	country = normalizeCountry(country)
	postcode = strings.TrimSpace(postcode)

	regions, ok := r.countries[country]
	if !ok || len(regions) == 0 {
		return Quote{}, &Error{Reason: ReasonNoTable, Country: country, Postcode: postcode, Weight: weight}
	}

	for _, region := range regions {
		if !region.matches(postcode) {
			continue
		}
		if region.FreeShippingFrom.Valid && orderValue.GreaterThanOrEqual(region.FreeShippingFrom.Decimal) {
			return Quote{Country: country, Region: region.Label, Price: decimal.Zero, Free: true}, nil
		}
		for _, tier := range region.Tiers {
			if weight <= tier.MaxWeight {
				return Quote{Country: country, Region: region.Label, Price: tier.Price}, nil
			}
		}
		return Quote{}, &Error{Reason: ReasonNoTier, Country: country, Postcode: postcode, Weight: weight}
	}

	return Quote{}, &Error{Reason: ReasonNoRegion, Country: country, Postcode: postcode, Weight: weight}
}

// Supports reports whether a table exists for the country.
func (r *Rates) Supports(country string) bool {
	_, ok := r.countries[normalizeCountry(country)]
	return ok
}

// CheckoutCountries lists the countries offered at checkout, in display order.
func (r *Rates) CheckoutCountries() []Country {
	countries := make([]Country, 0, len(r.checkout))
	for _, c := range r.checkout {
		c.Shippable = r.Supports(c.Code)
		countries = append(countries, c)
	}
	return countries
}

// Codes returns the country codes that carry a table, sorted.
func (r *Rates) Codes() []string {
	codes := make([]string, 0, len(r.countries))
	for code := range r.countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func normalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
