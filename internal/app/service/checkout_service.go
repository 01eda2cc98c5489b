package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

var (
	ErrEmptyOrder         = errors.New("order has no items")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidPayment     = errors.New("unsupported payment method")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidSize        = errors.New("size not offered for product")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// OrderNotifier is told about new orders and status changes.
type OrderNotifier interface {
	OrderCreated(order *model.Order)
	OrderStatusChanged(order *model.Order)
}

// CheckoutRecorder counts placed orders.
type CheckoutRecorder interface {
	IncCheckout(paymentMethod string)
}

type CheckoutItem struct {
	ProductID string
	Size      string
	Quantity  int
}

type CheckoutInput struct {
	Customer      model.CustomerInfo
	PaymentMethod model.PaymentMethod
	Items         []CheckoutItem
}

// LineError names the item a checkout failure refers to.
type LineError struct {
	ProductID string
	Size      string
	Err       error
}

func (e *LineError) Error() string {
	if e.Size != "" {
		return fmt.Sprintf("%s (product %s, size %s)", e.Err, e.ProductID, e.Size)
	}
	return fmt.Sprintf("%s (product %s)", e.Err, e.ProductID)
}

func (e *LineError) Unwrap() error { return e.Err }

type CheckoutService interface {
	PlaceOrder(input CheckoutInput) (*model.Order, error)
}

type checkoutService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	notifier    OrderNotifier
	recorder    CheckoutRecorder
	now         func() time.Time
}

// NewCheckoutService builds the checkout step. notifier and recorder may be nil.
func NewCheckoutService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	notifier OrderNotifier,
	recorder CheckoutRecorder,
) CheckoutService {
	return &checkoutService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		notifier:    notifier,
		recorder:    recorder,
		now:         time.Now,
	}
}

// PlaceOrder prices every line from the catalog, never from the client,
// checks availability, and stores the order while decrementing stock.
func (s *checkoutService) PlaceOrder(input CheckoutInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if input.PaymentMethod != model.PaymentOnline && input.PaymentMethod != model.PaymentCOD {
		return nil, ErrInvalidPayment
	}

	ids := make([]string, 0, len(input.Items))
	requested := make(map[string]int, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, &LineError{ProductID: item.ProductID, Size: item.Size, Err: ErrInvalidQuantity}
		}
		if _, seen := requested[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	products, err := s.productRepo.FindByIDs(ids)
	if err != nil {
		logger.Error("Failed to load products for checkout", err)
		return nil, err
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, &LineError{ProductID: item.ProductID, Err: ErrProductNotFound}
		}
		if product.Status != model.ProductStatusActive {
			return nil, &LineError{ProductID: item.ProductID, Err: ErrProductUnavailable}
		}
		if !product.HasSize(item.Size) {
			return nil, &LineError{ProductID: item.ProductID, Size: item.Size, Err: ErrInvalidSize}
		}
		if requested[item.ProductID] > product.Quantity {
			return nil, &LineError{ProductID: item.ProductID, Err: ErrInsufficientStock}
		}

		price := decimal.NewFromFloat(product.NewPrice)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  product.Category,
			Price:     product.NewPrice,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Image:     product.Image,
		})
	}

	order := &model.Order{
		OrderNumber:   s.orderNumber(),
		Customer:      input.Customer,
		PaymentMethod: input.PaymentMethod,
		Status:        model.OrderStatusPending,
		TotalAmount:   total.Round(2).InexactFloat64(),
		Items:         items,
	}

	if err := s.orderRepo.CreateWithStock(order); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			// stock moved between the check above and the write
			logger.Warn("Checkout lost a stock race", map[string]interface{}{
				"error": err.Error(),
			})
			return nil, fmt.Errorf("%w: %v", ErrInsufficientStock, err)
		}
		logger.Error("Failed to store order", err, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return nil, err
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_id":       order.ID,
		"order_number":   order.OrderNumber,
		"payment_method": order.PaymentMethod,
		"total_amount":   order.TotalAmount,
		"items":          len(order.Items),
	})

	if s.recorder != nil {
		s.recorder.IncCheckout(string(order.PaymentMethod))
	}
	if s.notifier != nil {
		s.notifier.OrderCreated(order)
	}
	return order, nil
}

// orderNumber looks like ORD-20240131-1A2B3C4D.
func (s *checkoutService) orderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", s.now().Format("20060102"), suffix)
}
