package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
)

func TestGetPublishedProductsByIdsFiltersStatus(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	published := mustCreateProduct(t, db, "mug", enums.ProductStatusPublish, "10.00", "12.30", 4, 350)
	draft := mustCreateProduct(t, db, "poster", enums.ProductStatusDraft, "5.00", "5.00", 9, 100)

	products, err := repo.GetPublishedProductsByIds(context.Background(), []uuid.UUID{published.ID, draft.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, products, 1)

	got := products[0]
	assert.Equal(t, published.ID, got.ID)
	assert.Equal(t, "mug", got.Name)
	assert.Equal(t, "10.00", got.Price.StringFixed(2))
	assert.Equal(t, "12.30", got.RegularPrice.StringFixed(2))
	assert.Equal(t, 4, got.StockQuantity)
	assert.Equal(t, 350, got.Weight)
	assert.Nil(t, got.Image)
}

func TestGetPublishedProductsByIdsPicksHighestPositionImage(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	product := mustCreateProduct(t, db, "lamp", enums.ProductStatusPublish, "30.00", "30.00", 2, 1200)
	mustAttachImage(t, db, product.ID, "/media/lamp-side.jpg", 1)
	mustAttachImage(t, db, product.ID, "/media/lamp-front.jpg", 5)

	products, err := repo.GetPublishedProductsByIds(context.Background(), []uuid.UUID{product.ID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Image)
	assert.Equal(t, "/media/lamp-front.jpg", products[0].Image.Src)
}

func TestGetPublishedProductsByIdsEmptyInput(t *testing.T) {
	repo := NewRepository(setupCatalogTestDB(t))

	products, err := repo.GetPublishedProductsByIds(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestDecrementStock(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	product := mustCreateProduct(t, db, "pen", enums.ProductStatusPublish, "2.00", "2.00", 3, 20)

	require.NoError(t, repo.DecrementStock(context.Background(), nil, product.ID, 2))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 1, reloaded.StockQuantity)

	err := repo.DecrementStock(context.Background(), nil, product.ID, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 1, reloaded.StockQuantity)
}
