package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
)

func setupProductService(t *testing.T) (ProductService, *fakeImages, repository.ProductRepository) {
	testDB := setupTestDB(t)
	repo := repository.NewProductRepository(testDB)
	images := newFakeImages()
	return NewProductService(repo, images), images, repo
}

func TestProductService_CreateProduct(t *testing.T) {
	svc, images, _ := setupProductService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Minimalist Silk Blazer",
		NewPrice: 450,
		Category: "Women's Fashion",
		Quantity: 12,
		Sizes:    []string{"S", "M"},
	}, jpeg("blazer.jpg"))
	require.NoError(t, err)

	assert.NotEmpty(t, product.ID)
	assert.Equal(t, model.ProductStatusActive, product.Status)
	assert.Equal(t, "https://cdn.test/"+product.ImagePublicID, product.Image)
	assert.Contains(t, images.uploaded, product.ImagePublicID)

	got, err := svc.GetProduct(product.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M"}, got.Sizes)
}

func TestProductService_CreateProductWithoutStockIsOutOfStock(t *testing.T) {
	svc, _, _ := setupProductService(t)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "Leather Tote Bag",
		NewPrice: 1200,
		Category: "Accessories",
		Status:   model.ProductStatusActive,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusOutOfStock, product.Status)
	assert.Empty(t, product.Image)
}

func TestProductService_CreateProductUploadFails(t *testing.T) {
	svc, images, _ := setupProductService(t)
	images.uploadErr = errBoom

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "Coat", NewPrice: 1}, jpeg("coat.jpg"))
	assert.ErrorIs(t, err, ErrImageUploadFailed)

	products, err := svc.ListProducts()
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductService_CreateProductWithoutImageStorage(t *testing.T) {
	testDB := setupTestDB(t)
	svc := NewProductService(repository.NewProductRepository(testDB), nil)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "Coat", NewPrice: 1}, jpeg("coat.jpg"))
	assert.ErrorIs(t, err, ErrImageUploadFailed)
}

func TestProductService_GetProductNotFound(t *testing.T) {
	svc, _, _ := setupProductService(t)

	_, err := svc.GetProduct("missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_ListNewArrivals(t *testing.T) {
	testDB := setupTestDB(t)
	svc := NewProductService(repository.NewProductRepository(testDB), nil)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < NewArrivalsLimit+2; i++ {
		seedProduct(t, testDB, model.Product{Name: "Arrival", NewArrival: true, Quantity: 1, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	seedProduct(t, testDB, model.Product{Name: "Staple", Quantity: 1})

	arrivals, err := svc.ListNewArrivals()
	require.NoError(t, err)
	assert.Len(t, arrivals, NewArrivalsLimit)
	for _, p := range arrivals {
		assert.True(t, p.NewArrival)
	}
}

func TestProductService_UpdateProduct(t *testing.T) {
	tests := []struct {
		name       string
		start      model.Product
		input      UpdateProductInput
		wantStatus model.ProductStatus
		wantQty    int
	}{
		{
			name:       "Zero quantity marks out of stock",
			start:      model.Product{Name: "Blazer", Quantity: 3},
			input:      UpdateProductInput{Quantity: intPtr(0)},
			wantStatus: model.ProductStatusOutOfStock,
			wantQty:    0,
		},
		{
			name:       "Restock reactivates",
			start:      model.Product{Name: "Blazer", Quantity: 0, Status: model.ProductStatusOutOfStock},
			input:      UpdateProductInput{Quantity: intPtr(8)},
			wantStatus: model.ProductStatusActive,
			wantQty:    8,
		},
		{
			name:       "Inactive is kept when stocked",
			start:      model.Product{Name: "Blazer", Quantity: 4},
			input:      UpdateProductInput{Status: statusPtr(model.ProductStatusInactive)},
			wantStatus: model.ProductStatusInactive,
			wantQty:    4,
		},
		{
			name:       "Missing quantity keeps stock",
			start:      model.Product{Name: "Blazer", Quantity: 6},
			input:      UpdateProductInput{Name: strPtr("Silk Blazer")},
			wantStatus: model.ProductStatusActive,
			wantQty:    6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB := setupTestDB(t)
			svc := NewProductService(repository.NewProductRepository(testDB), nil)
			start := seedProduct(t, testDB, tt.start)

			updated, err := svc.UpdateProduct(context.Background(), start.ID, tt.input, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, updated.Status)
			assert.Equal(t, tt.wantQty, updated.Quantity)

			stored, err := svc.GetProduct(start.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.Status)
		})
	}
}

func TestProductService_UpdateProductReplacesImage(t *testing.T) {
	testDB := setupTestDB(t)
	images := newFakeImages()
	svc := NewProductService(repository.NewProductRepository(testDB), images)
	start := seedProduct(t, testDB, model.Product{Name: "Coat", Quantity: 2, Image: "https://cdn.test/old", ImagePublicID: "products/old.jpg"})

	updated, err := svc.UpdateProduct(context.Background(), start.ID, UpdateProductInput{}, jpeg("new.jpg"))
	require.NoError(t, err)

	assert.Equal(t, []string{"products/old.jpg"}, images.deleted)
	assert.NotEqual(t, "products/old.jpg", updated.ImagePublicID)
	assert.Contains(t, images.uploaded, updated.ImagePublicID)
}

func TestProductService_UpdateProductImageDeleteFails(t *testing.T) {
	testDB := setupTestDB(t)
	images := newFakeImages()
	images.deleteErr = errBoom
	svc := NewProductService(repository.NewProductRepository(testDB), images)
	start := seedProduct(t, testDB, model.Product{Name: "Coat", Quantity: 2, ImagePublicID: "products/old.jpg"})

	_, err := svc.UpdateProduct(context.Background(), start.ID, UpdateProductInput{Name: strPtr("Renamed")}, jpeg("new.jpg"))
	assert.ErrorIs(t, err, ErrImageDeleteFailed)
	assert.Empty(t, images.uploaded)

	stored, err := svc.GetProduct(start.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coat", stored.Name)
}

func TestProductService_UpdateProductNotFound(t *testing.T) {
	svc, _, _ := setupProductService(t)

	_, err := svc.UpdateProduct(context.Background(), "missing", UpdateProductInput{}, nil)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_DeleteProduct(t *testing.T) {
	testDB := setupTestDB(t)
	images := newFakeImages()
	svc := NewProductService(repository.NewProductRepository(testDB), images)
	start := seedProduct(t, testDB, model.Product{Name: "Coat", Quantity: 2, ImagePublicID: "products/coat.jpg"})

	require.NoError(t, svc.DeleteProduct(context.Background(), start.ID))
	assert.Equal(t, []string{"products/coat.jpg"}, images.deleted)

	_, err := svc.GetProduct(start.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), start.ID), ErrProductNotFound)
}

func TestProductService_ImportProducts(t *testing.T) {
	svc, _, _ := setupProductService(t)

	n, err := svc.ImportProducts([]model.Product{
		{Name: "Blazer", NewPrice: 450, Category: "Women's Fashion", Quantity: 3},
		{Name: "Tote", NewPrice: 1200, Category: "Accessories", Quantity: 0, Status: model.ProductStatusActive},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	products, err := svc.ListProducts()
	require.NoError(t, err)
	require.Len(t, products, 2)
	statuses := map[string]model.ProductStatus{}
	for _, p := range products {
		statuses[p.Name] = p.Status
	}
	assert.Equal(t, model.ProductStatusActive, statuses["Blazer"])
	assert.Equal(t, model.ProductStatusOutOfStock, statuses["Tote"])
}

func TestProductService_SyncStockStatuses(t *testing.T) {
	testDB := setupTestDB(t)
	svc := NewProductService(repository.NewProductRepository(testDB), nil)
	drained := seedProduct(t, testDB, model.Product{Name: "Blazer", Quantity: 1})
	require.NoError(t, testDB.Model(&model.Product{}).Where("id = ?", drained.ID).Update("quantity", 0).Error)

	changed, err := svc.SyncStockStatuses()
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	got, err := svc.GetProduct(drained.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusOutOfStock, got.Status)
}

func intPtr(v int) *int                                    { return &v }
func strPtr(v string) *string                              { return &v }
func statusPtr(v model.ProductStatus) *model.ProductStatus { return &v }
