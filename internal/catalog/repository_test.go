package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *catalog.Repository {
	// Use in-memory database for tests
	repo, err := catalog.NewRepository(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test repository: %v", err)
	}

	if err := repo.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestProducts_Returns9AfterMigrations(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 9)

	for i, p := range products {
		assert.Equal(t, string(rune('1'+i)), p.ID, "products must keep seed order")
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.RunMigrations())

	products, err := repo.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 9)
}

func TestProducts_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Products(ctx)
	assert.ErrorContains(t, err, "context canceled")
}

func TestProductByID_ReturnsProduct(t *testing.T) {
	repo := setupTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	product, err := repo.ProductByID(ctx, "8")
	require.NoError(t, err)

	assert.Equal(t, "Denim Jeans", product.Name)
	assert.Equal(t, "79.99", product.Price.String())
	assert.Equal(t, "clothing", product.Category)
	assert.True(t, product.IsOnSale)
	require.NotNil(t, product.OriginalPrice)
	assert.Equal(t, "99.99", product.OriginalPrice.String())
	assert.InDelta(t, 4.4, product.Rating, 0.0001)
	assert.Equal(t, 567, product.ReviewCount)
}

func TestProductByID_NoOriginalPrice(t *testing.T) {
	repo := setupTestDB(t)

	product, err := repo.ProductByID(context.Background(), "1")
	require.NoError(t, err)

	assert.False(t, product.IsOnSale)
	assert.Nil(t, product.OriginalPrice)
}

func TestProductByID_IncorrectID(t *testing.T) {
	repo := setupTestDB(t)

	product, err := repo.ProductByID(context.Background(), "-1")

	assert.Nil(t, product)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestProductsByCategory(t *testing.T) {
	repo := setupTestDB(t)

	books, err := repo.ProductsByCategory(context.Background(), "books")
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "The Great Gatsby", books[0].Name)

	none, err := repo.ProductsByCategory(context.Background(), "garden")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCategories(t *testing.T) {
	repo := setupTestDB(t)

	categories, err := repo.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "electronics", categories[0].ID)

	category, err := repo.CategoryByID(context.Background(), "clothing")
	require.NoError(t, err)
	assert.Equal(t, "Fashion and apparel for all", category.Description)

	_, err = repo.CategoryByID(context.Background(), "garden")
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
}

func TestRepositorySearch(t *testing.T) {
	repo := setupTestDB(t)

	results, err := repo.Search(context.Background(), "  NOVEL ")
	require.NoError(t, err)

	ids := make([]string, len(results))
	for i, p := range results {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"4", "5", "6"}, ids)
}
