package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/catalog"
)

type catalogReader interface {
	GetPublishedProductsByIds(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error)
}

// Line is a cart entry priced against the live catalog.
type Line struct {
	ProductID    uuid.UUID
	SKU          string
	Name         string
	Permalink    string
	Image        *catalog.Image
	Price        decimal.Decimal
	RegularPrice decimal.Decimal
	Quantity     int
	Weight       int
}

// Total is the charged price times the resolved quantity.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Resolution is the outcome of pricing a quantity snapshot.
type Resolution struct {
	Lines           []Line
	Quantities      map[uuid.UUID]int
	TotalWeight     int
	TotalOrderValue decimal.Decimal
	// Dropped lists entries removed from Quantities: out of stock, unpublished, or non-positive.
	Dropped []uuid.UUID
}

// Empty reports whether nothing in the cart can be ordered.
func (r *Resolution) Empty() bool {
	return r == nil || len(r.Lines) == 0
}

// Pricer turns requested quantities into stock-checked, priced lines.
type Pricer struct {
	catalog catalogReader
}

// NewPricer builds a pricer over the catalog reader.
func NewPricer(reader catalogReader) (*Pricer, error) {
	if reader == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &Pricer{catalog: reader}, nil
}

// Resolve prices the snapshot. The snapshot is not modified; the returned
// Quantities map is what the cart should hold afterwards. Clamping to live
// stock only affects the line, never the stored request.
func (p *Pricer) Resolve(ctx context.Context, snapshot map[uuid.UUID]int) (*Resolution, error) {
	res := &Resolution{
		Lines:           []Line{},
		Quantities:      make(map[uuid.UUID]int, len(snapshot)),
		TotalOrderValue: decimal.Zero,
	}

	ids := make([]uuid.UUID, 0, len(snapshot))
	for id, qty := range snapshot {
		if qty <= 0 {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		ids = append(ids, id)
	}
	sortIDs(ids)
	if len(ids) == 0 {
		sortIDs(res.Dropped)
		return res, nil
	}

	products, err := p.catalog.GetPublishedProductsByIds(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart: %w", err)
	}

	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	for _, id := range ids {
		requested := snapshot[id]
		product, ok := byID[id]
		if !ok || product.StockQuantity <= 0 {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.Quantities[id] = requested

		qty := requested
		if qty > product.StockQuantity {
			qty = product.StockQuantity
		}
		line := Line{
			ProductID:    product.ID,
			SKU:          product.SKU,
			Name:         product.Name,
			Permalink:    product.Permalink,
			Image:        product.Image,
			Price:        product.Price,
			RegularPrice: product.RegularPrice,
			Quantity:     qty,
			Weight:       product.Weight,
		}
		res.Lines = append(res.Lines, line)
		res.TotalWeight += line.Weight * line.Quantity
		res.TotalOrderValue = res.TotalOrderValue.Add(line.Total())
	}
	sortIDs(res.Dropped)
	return res, nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
}
