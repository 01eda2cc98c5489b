package repository

import (
	"context"
	"time"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"gorm.io/gorm"
)

// revenueCondition selects orders that count as earned revenue. Columns are
// qualified so the condition also works in joins with order_items.
const revenueCondition = "((orders.payment_method = ? AND orders.status NOT IN ?) OR (orders.payment_method = ? AND orders.status = ?))"

func revenueArgs() []interface{} {
	return []interface{}{
		model.PaymentOnline, model.NonRevenueStatuses,
		model.PaymentCOD, model.OrderStatusDelivered,
	}
}

type CategorySales struct {
	Name  string
	Value float64
}

type ProductSales struct {
	Name    string
	Sales   int64
	Revenue float64
}

type StatusCount struct {
	Status model.OrderStatus
	Count  int64
}

// AnalyticsRepository runs the read-only aggregate queries behind the admin
// dashboard. Every method is safe to call concurrently.
type AnalyticsRepository interface {
	Revenue(ctx context.Context, from, to time.Time) (float64, error)
	CountOrders(ctx context.Context, from, to time.Time) (int64, error)
	CountCustomers(ctx context.Context, from time.Time) (int64, error)
	CountOrdersWithStatus(ctx context.Context, status model.OrderStatus) (int64, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
	CountProductsWithStatus(ctx context.Context, status model.ProductStatus) (int64, error)
	RevenueOrders(ctx context.Context, from time.Time) ([]model.Order, error)
	CategorySales(ctx context.Context, from time.Time) ([]CategorySales, error)
	TopProducts(ctx context.Context, from time.Time, limit int) ([]ProductSales, error)
	RecentOrders(ctx context.Context, limit int) ([]model.Order, error)
	StatusCounts(ctx context.Context, from time.Time) ([]StatusCount, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) orders(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Order{})
}

// Revenue sums revenue orders created in [from, to). A zero to means open-ended.
func (r *analyticsRepository) Revenue(ctx context.Context, from, to time.Time) (float64, error) {
	query := r.orders(ctx).
		Select("COALESCE(SUM(orders.total_amount), 0)").
		Where(revenueCondition, revenueArgs()...).
		Where("orders.created_at >= ?", from)
	if !to.IsZero() {
		query = query.Where("orders.created_at < ?", to)
	}

	var total float64
	if err := query.Row().Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *analyticsRepository) CountOrders(ctx context.Context, from, to time.Time) (int64, error) {
	query := r.orders(ctx).Where("created_at >= ?", from)
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}
	var n int64
	err := query.Count(&n).Error
	return n, err
}

// CountCustomers counts distinct customer emails since from.
func (r *analyticsRepository) CountCustomers(ctx context.Context, from time.Time) (int64, error) {
	var n int64
	err := r.orders(ctx).
		Where("created_at >= ?", from).
		Distinct("customer_email").
		Count(&n).Error
	return n, err
}

func (r *analyticsRepository) CountOrdersWithStatus(ctx context.Context, status model.OrderStatus) (int64, error) {
	var n int64
	err := r.orders(ctx).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *analyticsRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("quantity < ?", threshold).Count(&n).Error
	return n, err
}

func (r *analyticsRepository) CountProductsWithStatus(ctx context.Context, status model.ProductStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// RevenueOrders returns revenue orders since from, oldest first, without items.
func (r *analyticsRepository) RevenueOrders(ctx context.Context, from time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := r.orders(ctx).
		Where(revenueCondition, revenueArgs()...).
		Where("orders.created_at >= ?", from).
		Order("orders.created_at ASC").
		Find(&orders).Error
	return orders, err
}

// CategorySales totals price × quantity of revenue order items per
// category, largest first.
func (r *analyticsRepository) CategorySales(ctx context.Context, from time.Time) ([]CategorySales, error) {
	var rows []CategorySales
	err := r.itemsOfRevenueOrders(ctx, from).
		Select("order_items.category AS name, SUM(order_items.price * order_items.quantity) AS value").
		Group("order_items.category").
		Order("value DESC").
		Scan(&rows).Error
	return rows, err
}

// TopProducts ranks product names by units sold in revenue orders.
func (r *analyticsRepository) TopProducts(ctx context.Context, from time.Time, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.itemsOfRevenueOrders(ctx, from).
		Select("order_items.name AS name, SUM(order_items.quantity) AS sales, SUM(order_items.price * order_items.quantity) AS revenue").
		Group("order_items.name").
		Order("sales DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepository) itemsOfRevenueOrders(ctx context.Context, from time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.deleted_at IS NULL").
		Where(revenueCondition, revenueArgs()...).
		Where("orders.created_at >= ?", from)
}

func (r *analyticsRepository) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.orders(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *analyticsRepository) StatusCounts(ctx context.Context, from time.Time) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.orders(ctx).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ?", from).
		Group("status").
		Scan(&rows).Error
	return rows, err
}
