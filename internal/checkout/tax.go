package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Tax returns the tax carried by one unit at price, rounded to cents.
// Inclusive prices have the tax backed out; exclusive prices have it added.
// Callers multiply the per-unit result by quantity.
func Tax(price, ratePercent decimal.Decimal, pricesIncludeTax bool) decimal.Decimal {
	if ratePercent.IsZero() || price.IsZero() {
		return decimal.Zero
	}
	if pricesIncludeTax {
		net := price.Div(decimal.NewFromInt(1).Add(ratePercent.Div(hundred)))
		return types.RoundMoney(price.Sub(net))
	}
	return types.RoundMoney(types.Percent(price, ratePercent))
}
