package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Order is the immutable snapshot of a placed checkout.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderKey           string              `gorm:"column:order_key;not null;unique"`
	Status             enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Currency           string              `gorm:"column:currency;not null"`
	PricesIncludeTax   bool                `gorm:"column:prices_include_tax;not null"`
	DiscountTotal      decimal.Decimal     `gorm:"column:discount_total;type:numeric(12,2);not null"`
	DiscountTax        decimal.Decimal     `gorm:"column:discount_tax;type:numeric(12,2);not null"`
	ShippingTotal      decimal.Decimal     `gorm:"column:shipping_total;type:numeric(12,2);not null"`
	ShippingTax        decimal.Decimal     `gorm:"column:shipping_tax;type:numeric(12,2);not null"`
	CartTax            decimal.Decimal     `gorm:"column:cart_tax;type:numeric(12,2);not null"`
	Total              decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	TotalTax           decimal.Decimal     `gorm:"column:total_tax;type:numeric(12,2);not null"`
	CustomerIPAddress  string              `gorm:"column:customer_ip_address;not null"`
	CustomerUserAgent  string              `gorm:"column:customer_user_agent;not null"`
	CustomerNote       string              `gorm:"column:customer_note;not null;default:''"`
	Billing            types.Billing       `gorm:"column:billing;type:jsonb;not null"`
	Shipping           types.Shipping      `gorm:"column:shipping;type:jsonb;not null"`
	PaymentMethod      string              `gorm:"column:payment_method;not null"`
	PaymentMethodTitle string              `gorm:"column:payment_method_title;not null"`
	CartHash           string              `gorm:"column:cart_hash;not null"`
	LineItems          []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingLines      []OrderShippingLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:date_created;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:date_modified;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	if !o.Status.IsValid() {
		return fmt.Errorf("invalid order status %q", o.Status)
	}
	return nil
}
