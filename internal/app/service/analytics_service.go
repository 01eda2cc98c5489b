package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultAnalyticsRange = "30d"
	topProductsLimit      = 5
	recentOrdersLimit     = 5
)

// CategoryColors is the palette assigned to categories in rank order.
var CategoryColors = []string{"#3b82f6", "#22c55e", "#a855f7", "#f97316", "#ef4444", "#06b6d4"}

// RangeDays maps a range token to a window length. Unknown tokens mean a year.
func RangeDays(token string) int {
	switch token {
	case "":
		return 30
	case "7d":
		return 7
	case "30d":
		return 30
	case "90d":
		return 90
	}
	return 365
}

type AnalyticsOverview struct {
	TotalRevenue     float64 `json:"totalRevenue"`
	RevenueChange    int     `json:"revenueChange"`
	TotalOrders      int64   `json:"totalOrders"`
	OrdersChange     int     `json:"ordersChange"`
	TotalCustomers   int64   `json:"totalCustomers"`
	TotalProducts    int64   `json:"totalProducts"`
	PendingOrders    int64   `json:"pendingOrders"`
	LowStockProducts int64   `json:"lowStockProducts"`
}

type SalesPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type CategorySlice struct {
	Name       string `json:"name"`
	Value      int64  `json:"value"`
	Color      string `json:"color"`
	Percentage int    `json:"percentage"`
}

type TopProduct struct {
	Name    string  `json:"name"`
	Sales   int64   `json:"sales"`
	Revenue float64 `json:"revenue"`
}

type RecentOrder struct {
	ID            string    `json:"id"`
	Customer      string    `json:"customer"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	Date          time.Time `json:"date"`
	PaymentMethod string    `json:"paymentMethod"`
}

type AnalyticsReport struct {
	Range                string            `json:"range"`
	Overview             AnalyticsOverview `json:"overview"`
	SalesTrend           []SalesPoint      `json:"salesTrend"`
	CategoryDistribution []CategorySlice   `json:"categoryDistribution"`
	TopProducts          []TopProduct      `json:"topProducts"`
	RecentOrders         []RecentOrder     `json:"recentOrders"`
	OrderStatus          map[string]int64  `json:"orderStatus"`
}

type AnalyticsService interface {
	Report(ctx context.Context, rangeToken string) (*AnalyticsReport, error)
}

type analyticsService struct {
	repo repository.AnalyticsRepository
	now  func() time.Time
}

func NewAnalyticsService(repo repository.AnalyticsRepository) AnalyticsService {
	return &analyticsService{repo: repo, now: time.Now}
}

// Report runs every aggregate for the window ending now, concurrently.
// Nothing is cached.
func (s *analyticsService) Report(ctx context.Context, rangeToken string) (*AnalyticsReport, error) {
	if rangeToken == "" {
		rangeToken = DefaultAnalyticsRange
	}
	days := RangeDays(rangeToken)
	window := time.Duration(days) * 24 * time.Hour
	now := s.now()
	start := now.Add(-window)
	prevStart := start.Add(-window)

	var (
		revenue, prevRevenue  float64
		orders, prevOrders    int64
		customers, pending    int64
		lowStock, active      int64
		revenueOrders, recent []model.Order
		categories            []repository.CategorySales
		top                   []repository.ProductSales
		statuses              []repository.StatusCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { revenue, err = s.repo.Revenue(gctx, start, time.Time{}); return })
	g.Go(func() (err error) { prevRevenue, err = s.repo.Revenue(gctx, prevStart, start); return })
	g.Go(func() (err error) { orders, err = s.repo.CountOrders(gctx, start, time.Time{}); return })
	g.Go(func() (err error) { prevOrders, err = s.repo.CountOrders(gctx, prevStart, start); return })
	g.Go(func() (err error) { customers, err = s.repo.CountCustomers(gctx, start); return })
	g.Go(func() (err error) {
		pending, err = s.repo.CountOrdersWithStatus(gctx, model.OrderStatusPending)
		return
	})
	g.Go(func() (err error) { lowStock, err = s.repo.CountLowStock(gctx, model.LowStockThreshold); return })
	g.Go(func() (err error) {
		active, err = s.repo.CountProductsWithStatus(gctx, model.ProductStatusActive)
		return
	})
	g.Go(func() (err error) { revenueOrders, err = s.repo.RevenueOrders(gctx, start); return })
	g.Go(func() (err error) { categories, err = s.repo.CategorySales(gctx, start); return })
	g.Go(func() (err error) { top, err = s.repo.TopProducts(gctx, start, topProductsLimit); return })
	g.Go(func() (err error) { recent, err = s.repo.RecentOrders(gctx, recentOrdersLimit); return })
	g.Go(func() (err error) { statuses, err = s.repo.StatusCounts(gctx, start); return })

	if err := g.Wait(); err != nil {
		logger.Error("Failed to compute analytics", err, map[string]interface{}{
			"range": rangeToken,
		})
		return nil, err
	}

	report := &AnalyticsReport{
		Range: rangeToken,
		Overview: AnalyticsOverview{
			TotalRevenue:     revenue,
			RevenueChange:    percentChange(revenue, prevRevenue),
			TotalOrders:      orders,
			OrdersChange:     percentChange(float64(orders), float64(prevOrders)),
			TotalCustomers:   customers,
			TotalProducts:    active,
			PendingOrders:    pending,
			LowStockProducts: lowStock,
		},
		SalesTrend:           salesTrend(revenueOrders),
		CategoryDistribution: categoryDistribution(categories),
		TopProducts:          make([]TopProduct, 0, len(top)),
		RecentOrders:         make([]RecentOrder, 0, len(recent)),
		OrderStatus:          make(map[string]int64, len(statuses)),
	}

	for _, p := range top {
		report.TopProducts = append(report.TopProducts, TopProduct{Name: p.Name, Sales: p.Sales, Revenue: p.Revenue})
	}
	for _, o := range recent {
		customer := o.Customer.FullName()
		if customer == "" {
			customer = "Guest"
		}
		report.RecentOrders = append(report.RecentOrders, RecentOrder{
			ID:            o.OrderNumber,
			Customer:      customer,
			Amount:        o.TotalAmount,
			Status:        strings.ToLower(string(o.Status)),
			Date:          o.CreatedAt,
			PaymentMethod: string(o.PaymentMethod),
		})
	}
	for _, st := range statuses {
		report.OrderStatus[strings.ToLower(string(st.Status))] += st.Count
	}

	logger.Debug("Analytics computed", map[string]interface{}{
		"range":   rangeToken,
		"revenue": revenue,
		"orders":  orders,
	})
	return report, nil
}

// percentChange is the rounded change against previous; 0 when previous is 0.
func percentChange(current, previous float64) int {
	if previous == 0 {
		return 0
	}
	return roundHalfUp((current - previous) / previous * 100)
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// salesTrend buckets orders by UTC calendar day, ascending.
func salesTrend(orders []model.Order) []SalesPoint {
	type bucket struct {
		revenue decimal.Decimal
		orders  int
	}
	buckets := make(map[string]*bucket)
	for _, o := range orders {
		day := o.CreatedAt.UTC().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{revenue: decimal.Zero}
			buckets[day] = b
		}
		b.revenue = b.revenue.Add(decimal.NewFromFloat(o.TotalAmount))
		b.orders++
	}

	points := make([]SalesPoint, 0, len(buckets))
	for day, b := range buckets {
		points = append(points, SalesPoint{Date: day, Revenue: b.revenue.InexactFloat64(), Orders: b.orders})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// categoryDistribution assigns palette colors in rank order and computes
// each category's rounded share of the rounded total.
func categoryDistribution(rows []repository.CategorySales) []CategorySlice {
	slices := make([]CategorySlice, 0, len(rows))
	var total int64
	for i, row := range rows {
		name := row.Name
		if name == "" {
			name = "Uncategorized"
		}
		value := int64(roundHalfUp(row.Value))
		total += value
		slices = append(slices, CategorySlice{
			Name:  name,
			Value: value,
			Color: CategoryColors[i%len(CategoryColors)],
		})
	}
	if total == 0 {
		return slices
	}
	for i := range slices {
		slices[i].Percentage = roundHalfUp(float64(slices[i].Value) / float64(total) * 100)
	}
	return slices
}
