package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderShippingLine records the resolved shipping charge of an order.
type OrderShippingLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	MethodTitle string          `gorm:"column:method_title;not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	TotalTax    decimal.Decimal `gorm:"column:total_tax;type:numeric(12,2);not null"`
}

func (s *OrderShippingLine) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
