package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a stock decrement would go below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

type OrderFilter struct {
	Status *model.OrderStatus
	Search string // order number, customer name or email
	Limit  int
	Offset int
}

type OrderRepository interface {
	// CreateWithStock decrements stock for every item and inserts the order
	// in one transaction. Nothing is written if any item is short.
	CreateWithStock(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindAll(filter OrderFilter) ([]model.Order, error)
	UpdateStatus(id uint, status model.OrderStatus) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateWithStock(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"order_number":   order.OrderNumber,
		"total_amount":   order.TotalAmount,
		"payment_method": order.PaymentMethod,
		"items":          len(order.Items),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			result := tx.Model(&model.Product{}).
				Where("id = ? AND quantity >= ?", item.ProductID, item.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
			}
		}
		return tx.Create(order).Error
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientStock) {
			logger.Error("Failed to create order in database", err, map[string]interface{}{
				"order_number": order.OrderNumber,
			})
		}
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		logger.Debug("Order lookup failed", map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}
	return &order, nil
}

// FindAll returns orders newest first.
func (r *orderRepository) FindAll(filter OrderFilter) ([]model.Order, error) {
	logger.Debug("Finding orders in database", map[string]interface{}{
		"status": filter.Status,
		"search": filter.Search,
	})

	query := r.db.Model(&model.Order{}).Preload("Items")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(order_number) LIKE ? OR LOWER(customer_email) LIKE ? OR LOWER(customer_first_name) LIKE ? OR LOWER(customer_last_name) LIKE ?",
			like, like, like, like,
		)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []model.Order
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders in database", err)
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	result := r.db.Model(&model.Order{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		logger.Error("Failed to update order status in database", result.Error, map[string]interface{}{
			"order_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
