package service

import (
	"errors"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

type OrderService interface {
	ListOrders(filter repository.OrderFilter) ([]model.Order, error)
	GetOrder(id uint) (*model.Order, error)
	UpdateStatus(id uint, status string) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	notifier  OrderNotifier
}

func NewOrderService(orderRepo repository.OrderRepository, notifier OrderNotifier) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		notifier:  notifier,
	}
}

func (s *orderService) ListOrders(filter repository.OrderFilter) ([]model.Order, error) {
	orders, err := s.orderRepo.FindAll(filter)
	if err != nil {
		logger.Error("Failed to list orders", err)
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetOrder(id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to get order", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return order, nil
}

// UpdateStatus accepts any known status name, case-insensitively.
func (s *orderService) UpdateStatus(id uint, status string) (*model.Order, error) {
	parsed, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, ErrInvalidOrderStatus
	}

	if err := s.orderRepo.UpdateStatus(id, parsed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to update order status", err, map[string]interface{}{
			"order_id": id,
			"status":   parsed,
		})
		return nil, err
	}

	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": id,
		"status":   parsed,
	})
	if s.notifier != nil {
		s.notifier.OrderStatusChanged(order)
	}
	return order, nil
}
