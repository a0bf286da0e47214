package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

func sampleOrder() *models.Order {
	money := decimal.RequireFromString
	return &models.Order{
		OrderKey:           "wc_order_" + uuid.NewString()[:13],
		Status:             enums.OrderStatusPending,
		Currency:           "EUR",
		PricesIncludeTax:   true,
		DiscountTotal:      money("4.60"),
		DiscountTax:        money("0.86"),
		ShippingTotal:      money("4.90"),
		ShippingTax:        money("0.92"),
		CartTax:            money("3.74"),
		Total:              money("24.90"),
		TotalTax:           money("4.66"),
		CustomerIPAddress:  "127.0.0.1",
		CustomerUserAgent:  "test",
		Billing:            types.Billing{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com", CountryCode: "PT", Postcode: "1000-100"},
		Shipping:           types.Shipping{FirstName: "Ana", LastName: "Silva", CountryCode: "PT", Postcode: "1000-100"},
		PaymentMethod:      "unknown",
		PaymentMethodTitle: "unknown",
		CartHash:           "hash",
		LineItems: []models.OrderLineItem{
			{ProductID: uuid.New(), SKU: "MUG", Name: "Mug", Price: money("10.00"), Quantity: 2, Subtotal: money("24.60"), SubtotalTax: money("4.60"), Total: money("20.00"), TotalTax: money("3.74")},
			{ProductID: uuid.New(), SKU: "PEN", Name: "Pen", Price: money("0.00"), Quantity: 1, Subtotal: money("0.00"), SubtotalTax: money("0.00"), Total: money("0.00"), TotalTax: money("0.00")},
		},
		ShippingLines: []models.OrderShippingLine{
			{MethodTitle: "PT mainland", Total: money("4.90"), TotalTax: money("0.92")},
		},
	}
}

func TestInsertAndFindByID(t *testing.T) {
	db := dbtest.Open(t, "orders")
	repo := NewRepository(db)

	order := sampleOrder()
	require.NoError(t, repo.Insert(context.Background(), order))
	require.NotEqual(t, uuid.Nil, order.ID)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderKey, found.OrderKey)
	assert.Equal(t, "24.90", found.Total.StringFixed(2))
	assert.Equal(t, "ana@example.com", found.Billing.Email)
	require.Len(t, found.LineItems, 2)
	assert.Equal(t, "MUG", found.LineItems[0].SKU)
	assert.Equal(t, 1, found.LineItems[1].Position)
	require.Len(t, found.ShippingLines, 1)
	assert.Equal(t, "4.90", found.ShippingLines[0].Total.StringFixed(2))
}

func TestInsertRollsBackInsideTransaction(t *testing.T) {
	db := dbtest.Open(t, "orders_tx")
	repo := NewRepository(db)

	order := sampleOrder()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).Insert(context.Background(), order); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.OrderLineItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInsertRejectsUnknownStatus(t *testing.T) {
	db := dbtest.Open(t, "orders_status")
	repo := NewRepository(db)

	order := sampleOrder()
	order.Status = enums.OrderStatus("onhold")
	require.Error(t, repo.Insert(context.Background(), order))

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}
