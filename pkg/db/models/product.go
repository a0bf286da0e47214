package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// Product is a catalog listing. Price is the amount currently charged
// (the sale price when one is active); RegularPrice is the list price.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SKU           string              `gorm:"column:sku;not null"`
	Name          string              `gorm:"column:name;not null"`
	Permalink     string              `gorm:"column:permalink;not null"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	RegularPrice  decimal.Decimal     `gorm:"column:regular_price;type:numeric(12,2);not null"`
	OnSale        bool                `gorm:"column:on_sale;not null;default:false"`
	StockQuantity int                 `gorm:"column:stock_quantity;not null;default:0"`
	StockStatus   enums.StockStatus   `gorm:"column:stock_status;type:stock_status;not null;default:'instock'"`
	Weight        int                 `gorm:"column:weight;not null;default:0"`
	Status        enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'draft'"`
	Media         []ProductMedia      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
