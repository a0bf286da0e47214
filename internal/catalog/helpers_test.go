package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t, "catalog")
}

func mustCreateProduct(t *testing.T, db *gorm.DB, name string, status enums.ProductStatus, price, regular string, stock, weight int) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:           "SKU-" + uuid.NewString()[:8],
		Name:          name,
		Permalink:     "/product/" + name,
		Price:         decimal.RequireFromString(price),
		RegularPrice:  decimal.RequireFromString(regular),
		StockQuantity: stock,
		StockStatus:   enums.StockStatusInStock,
		Weight:        weight,
		Status:        status,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func mustAttachImage(t *testing.T, db *gorm.DB, productID uuid.UUID, src string, position int) {
	t.Helper()
	media := &models.Media{Src: src, Name: src}
	if err := db.Create(media).Error; err != nil {
		t.Fatalf("create media: %v", err)
	}
	link := &models.ProductMedia{ProductID: productID, MediaID: media.ID, Position: position}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("attach media: %v", err)
	}
}
