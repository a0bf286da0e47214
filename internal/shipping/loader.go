package shipping

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default_rates.yaml
var defaultRatesYAML []byte

type fileSpec struct {
	CheckoutCountries []Country               `yaml:"checkout_countries"`
	Countries         map[string][]regionSpec `yaml:"countries"`
}

type regionSpec struct {
	Label            string     `yaml:"label"`
	Postcodes        []string   `yaml:"postcodes"`
	FreeShippingFrom string     `yaml:"free_shipping_from"`
	Tiers            []tierSpec `yaml:"tiers"`
}

type tierSpec struct {
	MaxWeight int    `yaml:"max_weight"`
	Price     string `yaml:"price"`
}

// Default returns the built-in rate tables.
func Default() (*Rates, error) {
	return Parse(defaultRatesYAML)
}

// Load reads the rate tables from path, falling back to the built-in tables when path is empty.
func Load(path string) (*Rates, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shipping rates %s: %w", path, err)
	}
	rates, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse shipping rates %s: %w", path, err)
	}
	return rates, nil
}

// Parse decodes and validates a YAML rate document.
func Parse(raw []byte) (*Rates, error) {
	var doc fileSpec
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(doc.Countries) == 0 {
		return nil, fmt.Errorf("shipping tables is empty")
	}

	countries := make(map[string][]Region, len(doc.Countries))
	for code, specs := range doc.Countries {
		code = normalizeCountry(code)
		if len(code) != 2 {
			return nil, fmt.Errorf("country %q: expected a two-letter code", code)
		}
		regions := make([]Region, 0, len(specs))
		for i, rs := range specs {
			region, err := buildRegion(rs)
			if err != nil {
				return nil, fmt.Errorf("country %s region %d: %w", code, i, err)
			}
			regions = append(regions, region)
		}
		countries[code] = regions
	}

	checkout := make([]Country, 0, len(doc.CheckoutCountries))
	for _, c := range doc.CheckoutCountries {
		checkout = append(checkout, Country{Code: normalizeCountry(c.Code), Name: strings.TrimSpace(c.Name)})
	}

	return NewRates(countries, checkout), nil
}

func buildRegion(rs regionSpec) (Region, error) {
	label := strings.TrimSpace(rs.Label)
	if label == "" {
		return Region{}, fmt.Errorf("label is required")
	}

	region := Region{Label: label}
	for _, expr := range rs.Postcodes {
		pattern, err := regexp.Compile(expr)
		if err != nil {
			return Region{}, fmt.Errorf("%s: postcode pattern %q: %w", label, expr, err)
		}
		region.Patterns = append(region.Patterns, pattern)
	}

	if strings.TrimSpace(rs.FreeShippingFrom) != "" {
		threshold, err := decimal.NewFromString(strings.TrimSpace(rs.FreeShippingFrom))
		if err != nil {
			return Region{}, fmt.Errorf("%s: free_shipping_from: %w", label, err)
		}
		region.FreeShippingFrom = decimal.NewNullDecimal(threshold)
	}

	if len(rs.Tiers) == 0 {
		return Region{}, fmt.Errorf("%s: at least one weight tier is required", label)
	}
	previous := 0
	for i, ts := range rs.Tiers {
		if ts.MaxWeight <= previous {
			return Region{}, fmt.Errorf("%s: tier %d must ascend by max_weight", label, i)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(ts.Price))
		if err != nil {
			return Region{}, fmt.Errorf("%s: tier %d price: %w", label, i, err)
		}
		if price.IsNegative() {
			return Region{}, fmt.Errorf("%s: tier %d price must not be negative", label, i)
		}
		region.Tiers = append(region.Tiers, Tier{MaxWeight: ts.MaxWeight, Price: price})
		previous = ts.MaxWeight
	}
	return region, nil
}
