package repository

import (
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	CreateBatch(products []model.Product) error
	FindAll() ([]model.Product, error)
	FindNewArrivals(limit int) ([]model.Product, error)
	FindByID(id string) (*model.Product, error)
	FindByIDs(ids []string) (map[string]model.Product, error)
	Update(product *model.Product) error
	Delete(id string) error
	SyncStockStatuses() (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":     product.Name,
			"category": product.Category,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) CreateBatch(products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	logger.Debug("Creating product batch in database", map[string]interface{}{
		"count": len(products),
	})

	if err := r.db.CreateInBatches(products, 100).Error; err != nil {
		logger.Error("Failed to create product batch in database", err, map[string]interface{}{
			"count": len(products),
		})
		return err
	}
	return nil
}

// FindAll returns every product, newest first.
func (r *productRepository) FindAll() ([]model.Product, error) {
	logger.Debug("Finding all products in database")

	var products []model.Product
	if err := r.db.Order("created_at DESC").Find(&products).Error; err != nil {
		logger.Error("Failed to find products in database", err)
		return nil, err
	}

	logger.Debug("Products found in database", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) FindNewArrivals(limit int) ([]model.Product, error) {
	logger.Debug("Finding new arrivals in database", map[string]interface{}{
		"limit": limit,
	})

	var products []model.Product
	query := r.db.Where("new_arrival = ?", true).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find new arrivals in database", err)
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindByID(id string) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.Where("id = ?", id).First(&product).Error; err != nil {
		logger.Debug("Product lookup failed", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the given products keyed by id; unknown ids are absent.
func (r *productRepository) FindByIDs(ids []string) (map[string]model.Product, error) {
	result := make(map[string]model.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []model.Product
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		logger.Error("Failed to find products by IDs in database", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) Delete(id string) error {
	logger.Debug("Deleting product in database", map[string]interface{}{
		"product_id": id,
	})

	result := r.db.Where("id = ?", id).Delete(&model.Product{})
	if result.Error != nil {
		logger.Error("Failed to delete product in database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SyncStockStatuses marks sold-out products out of stock and restocked
// out-of-stock products active again. Inactive products are left alone
// unless they sold out. Returns the number of rows changed.
func (r *productRepository) SyncStockStatuses() (int64, error) {
	var changed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		soldOut := tx.Model(&model.Product{}).
			Where("quantity <= ? AND status <> ?", 0, model.ProductStatusOutOfStock).
			Update("status", model.ProductStatusOutOfStock)
		if soldOut.Error != nil {
			return soldOut.Error
		}

		restocked := tx.Model(&model.Product{}).
			Where("quantity > ? AND status = ?", 0, model.ProductStatusOutOfStock).
			Update("status", model.ProductStatusActive)
		if restocked.Error != nil {
			return restocked.Error
		}

		changed = soldOut.RowsAffected + restocked.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to sync product stock statuses", err)
		return 0, err
	}
	return changed, nil
}
