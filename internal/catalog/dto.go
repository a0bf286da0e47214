package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Image is the primary picture attached to a product.
type Image struct {
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

// Product is the live catalog data the cart prices against.
type Product struct {
	ID            uuid.UUID
	SKU           string
	Name          string
	Permalink     string
	Price         decimal.Decimal
	RegularPrice  decimal.Decimal
	StockQuantity int
	Weight        int
	Image         *Image
}
