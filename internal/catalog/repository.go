package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
)

// ErrInsufficientStock is returned when a conditional decrement matches no row.
var ErrInsufficientStock = errors.New("insufficient stock")

const primaryImageQuery = `
SELECT pm.product_id AS product_id,
       m.src AS src,
       m.name AS name,
       m.alt AS alt
FROM product_media pm
JOIN media m ON m.id = pm.media_id
WHERE pm.product_id IN ?
ORDER BY pm.product_id, pm.position DESC
`

type imageRow struct {
	ProductID uuid.UUID
	Src       string
	Name      string
	Alt       string
}

// Repository reads the product catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetPublishedProductsByIds loads the published products among ids, ordered by id.
// Ids that are unknown or not published are absent from the result.
func (r *Repository) GetPublishedProductsByIds(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, enums.ProductStatusPublish).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load published products: %w", err)
	}
	if len(rows) == 0 {
		return []Product{}, nil
	}

	found := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		found = append(found, row.ID)
	}
	images, err := r.primaryImages(ctx, found)
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, Product{
			ID:            row.ID,
			SKU:           row.SKU,
			Name:          row.Name,
			Permalink:     row.Permalink,
			Price:         row.Price,
			RegularPrice:  row.RegularPrice,
			StockQuantity: row.StockQuantity,
			Weight:        row.Weight,
			Image:         images[row.ID],
		})
	}
	return products, nil
}

func (r *Repository) primaryImages(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*Image, error) {
	var rows []imageRow
	if err := r.db.WithContext(ctx).Raw(primaryImageQuery, productIDs).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load product images: %w", err)
	}
	images := make(map[uuid.UUID]*Image, len(rows))
	for _, row := range rows {
		if _, ok := images[row.ProductID]; ok {
			continue
		}
		images[row.ProductID] = &Image{Src: row.Src, Name: row.Name, Alt: row.Alt}
	}
	return images, nil
}

// DecrementStock subtracts qty from the product stock only when enough remains.
// It runs on tx when given so the decrement commits with the order.
func (r *Repository) DecrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	conn := r.db
	if tx != nil {
		conn = tx
	}
	res := conn.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("decrement stock for %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
	}
	return nil
}
