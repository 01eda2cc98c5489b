package service

import (
	"context"
	"errors"
	"io"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/internal/storage"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// NewArrivalsLimit caps the new-arrivals listing.
const NewArrivalsLimit = 10

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrImageDeleteFailed = errors.New("image delete failed")
	ErrImageUploadFailed = errors.New("image upload failed")
)

// ImageUpload is an image file attached to a create or update request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type CreateProductInput struct {
	Name               string
	Description        string
	NewPrice           float64
	ComparePrice       float64
	Category           string
	NewArrival         bool
	NewArrivalFeatured bool
	Quantity           int
	Unit               string
	Status             model.ProductStatus
	IsFeatured         bool
	Sizes              []string
}

// UpdateProductInput is a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	Name               *string
	Description        *string
	NewPrice           *float64
	ComparePrice       *float64
	Category           *string
	NewArrival         *bool
	NewArrivalFeatured *bool
	Quantity           *int
	Unit               *string
	Status             *model.ProductStatus
	IsFeatured         *bool
	Sizes              []string
}

type ProductService interface {
	ListProducts() ([]model.Product, error)
	ListNewArrivals() ([]model.Product, error)
	GetProduct(id string) (*model.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput, image *ImageUpload) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, input UpdateProductInput, image *ImageUpload) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ImportProducts(products []model.Product) (int, error)
	SyncStockStatuses() (int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	images      storage.ImageStorage
}

// NewProductService wires the catalog. images may be nil, in which case
// requests carrying an image fail with ErrImageUploadFailed.
func NewProductService(productRepo repository.ProductRepository, images storage.ImageStorage) ProductService {
	return &productService{
		productRepo: productRepo,
		images:      images,
	}
}

func (s *productService) ListProducts() ([]model.Product, error) {
	products, err := s.productRepo.FindAll()
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}
	return products, nil
}

func (s *productService) ListNewArrivals() ([]model.Product, error) {
	products, err := s.productRepo.FindNewArrivals(NewArrivalsLimit)
	if err != nil {
		logger.Error("Failed to list new arrivals", err)
		return nil, err
	}
	return products, nil
}

func (s *productService) GetProduct(id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to get product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput, image *ImageUpload) (*model.Product, error) {
	product := &model.Product{
		Name:               input.Name,
		Description:        input.Description,
		NewPrice:           input.NewPrice,
		ComparePrice:       input.ComparePrice,
		Category:           input.Category,
		NewArrival:         input.NewArrival,
		NewArrivalFeatured: input.NewArrivalFeatured,
		Quantity:           input.Quantity,
		Unit:               input.Unit,
		Status:             model.DeriveStatus(input.Quantity, input.Status),
		IsFeatured:         input.IsFeatured,
		Sizes:              input.Sizes,
	}

	if image != nil {
		stored, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		product.Image = stored.URL
		product.ImagePublicID = stored.Key
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": input.Name,
		})
		if product.ImagePublicID != "" {
			s.discard(ctx, product.ImagePublicID)
		}
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"status":     product.Status,
	})
	return product, nil
}

// UpdateProduct applies input, re-derives the status from the resulting
// quantity, and when image is set swaps the stored image: the previous
// object is deleted first and both steps must succeed.
func (s *productService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput, image *ImageUpload) (*model.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	applyProductUpdate(product, input)

	requested := product.Status
	if input.Status != nil {
		requested = *input.Status
	}
	product.Status = model.DeriveStatus(product.Quantity, requested)

	if image != nil {
		if product.ImagePublicID != "" {
			if s.images == nil {
				return nil, ErrImageDeleteFailed
			}
			if err := s.images.Delete(ctx, product.ImagePublicID); err != nil {
				logger.Error("Failed to delete previous product image", err, map[string]interface{}{
					"product_id": id,
					"image_key":  product.ImagePublicID,
				})
				return nil, ErrImageDeleteFailed
			}
		}
		stored, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		product.Image = stored.URL
		product.ImagePublicID = stored.Key
	}

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
		"status":     product.Status,
		"quantity":   product.Quantity,
	})
	return product, nil
}

func applyProductUpdate(product *model.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.NewPrice != nil {
		product.NewPrice = *input.NewPrice
	}
	if input.ComparePrice != nil {
		product.ComparePrice = *input.ComparePrice
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.NewArrival != nil {
		product.NewArrival = *input.NewArrival
	}
	if input.NewArrivalFeatured != nil {
		product.NewArrivalFeatured = *input.NewArrivalFeatured
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.Unit != nil {
		product.Unit = *input.Unit
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.Sizes != nil {
		product.Sizes = input.Sizes
	}
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.GetProduct(id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(id); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}
	if product.ImagePublicID != "" {
		s.discard(ctx, product.ImagePublicID)
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

// ImportProducts bulk-inserts products, deriving each status from its quantity.
func (s *productService) ImportProducts(products []model.Product) (int, error) {
	for i := range products {
		products[i].Status = model.DeriveStatus(products[i].Quantity, products[i].Status)
	}
	if err := s.productRepo.CreateBatch(products); err != nil {
		logger.Error("Failed to import products", err, map[string]interface{}{
			"count": len(products),
		})
		return 0, err
	}

	logger.Info("Products imported", map[string]interface{}{
		"count": len(products),
	})
	return len(products), nil
}

func (s *productService) SyncStockStatuses() (int64, error) {
	changed, err := s.productRepo.SyncStockStatuses()
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		logger.Info("Product stock statuses synced", map[string]interface{}{
			"changed": changed,
		})
	}
	return changed, nil
}

func (s *productService) upload(ctx context.Context, image *ImageUpload) (*storage.StoredImage, error) {
	if s.images == nil {
		logger.Warn("Image upload requested but no image storage is configured")
		return nil, ErrImageUploadFailed
	}
	stored, err := s.images.Upload(ctx, image.Filename, image.ContentType, image.Body)
	if err != nil {
		logger.Error("Failed to upload product image", err, map[string]interface{}{
			"filename": image.Filename,
		})
		return nil, ErrImageUploadFailed
	}
	return stored, nil
}

// discard removes an image that is no longer referenced; failures only leak
// an object, so they are logged.
func (s *productService) discard(ctx context.Context, key string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logger.Warn("Failed to remove orphaned product image", map[string]interface{}{
			"image_key": key,
			"error":     err.Error(),
		})
	}
}
