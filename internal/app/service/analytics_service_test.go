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

func TestRangeDays(t *testing.T) {
	tests := map[string]int{
		"":    30,
		"7d":  7,
		"30d": 30,
		"90d": 90,
		"1y":  365,
		"2w":  365,
	}
	for token, want := range tests {
		assert.Equal(t, want, RangeDays(token), "token %q", token)
	}
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0, percentChange(500, 0))
	assert.Equal(t, 100, percentChange(500, 250))
	assert.Equal(t, -50, percentChange(125, 250))
	assert.Equal(t, 33, percentChange(4, 3))
	// halves round up, including negatives
	assert.Equal(t, 3, roundHalfUp(2.5))
	assert.Equal(t, -2, roundHalfUp(-2.5))
}

func TestCategoryDistribution(t *testing.T) {
	slices := categoryDistribution([]repository.CategorySales{
		{Name: "Women's Fashion", Value: 300.4},
		{Name: "", Value: 99.6},
		{Name: "Men's Collection", Value: 100},
	})

	require.Len(t, slices, 3)
	assert.Equal(t, CategorySlice{Name: "Women's Fashion", Value: 300, Color: "#3b82f6", Percentage: 60}, slices[0])
	assert.Equal(t, CategorySlice{Name: "Uncategorized", Value: 100, Color: "#22c55e", Percentage: 20}, slices[1])
	assert.Equal(t, "#a855f7", slices[2].Color)
}

func TestCategoryDistribution_ColorsWrap(t *testing.T) {
	rows := make([]repository.CategorySales, len(CategoryColors)+1)
	for i := range rows {
		rows[i] = repository.CategorySales{Name: "c", Value: 1}
	}
	slices := categoryDistribution(rows)
	assert.Equal(t, CategoryColors[0], slices[len(CategoryColors)].Color)
}

func TestSalesTrend(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC) }
	points := salesTrend([]model.Order{
		{TotalAmount: 0.1, CreatedAt: day(2, 9)},
		{TotalAmount: 0.2, CreatedAt: day(2, 18)},
		{TotalAmount: 50, CreatedAt: day(1, 23)},
	})

	require.Len(t, points, 2)
	assert.Equal(t, SalesPoint{Date: "2024-03-01", Revenue: 50, Orders: 1}, points[0])
	assert.Equal(t, SalesPoint{Date: "2024-03-02", Revenue: 0.3, Orders: 2}, points[1])
}

func TestAnalyticsService_Report(t *testing.T) {
	testDB := setupTestDB(t)
	now := time.Now()
	recent := now.Add(-24 * time.Hour)

	seedProduct(t, testDB, model.Product{Name: "Blazer", NewPrice: 100, Quantity: 2})
	seedProduct(t, testDB, model.Product{Name: "Coat", NewPrice: 200, Quantity: 20})
	seedProduct(t, testDB, model.Product{Name: "Tote", NewPrice: 50, Quantity: 0, Status: model.ProductStatusOutOfStock})

	orders := []model.Order{
		{
			OrderNumber: "ORD-A", Customer: model.CustomerInfo{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			PaymentMethod: model.PaymentOnline, Status: model.OrderStatusPending, TotalAmount: 300, CreatedAt: recent,
			Items: []model.OrderItem{
				{ProductID: "p1", Name: "Blazer", Category: "Women's Fashion", Price: 100, Quantity: 1},
				{ProductID: "p2", Name: "Coat", Category: "Men's Collection", Price: 200, Quantity: 1},
			},
		},
		{
			OrderNumber: "ORD-B", Customer: model.CustomerInfo{Email: "anon@example.com"},
			PaymentMethod: model.PaymentCOD, Status: model.OrderStatusDelivered, TotalAmount: 200, CreatedAt: recent.Add(time.Minute),
			Items: []model.OrderItem{{ProductID: "p1", Name: "Blazer", Category: "Women's Fashion", Price: 100, Quantity: 2}},
		},
		{
			OrderNumber: "ORD-OLD", Customer: model.CustomerInfo{FirstName: "Old", Email: "old@example.com"},
			PaymentMethod: model.PaymentOnline, Status: model.OrderStatusPending, TotalAmount: 250, CreatedAt: now.Add(-10 * 24 * time.Hour),
		},
	}
	for i := range orders {
		require.NoError(t, testDB.Create(&orders[i]).Error)
	}

	svc := NewAnalyticsService(repository.NewAnalyticsRepository(testDB))
	svc.(*analyticsService).now = func() time.Time { return now }

	report, err := svc.Report(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, "7d", report.Range)
	assert.Equal(t, 500.0, report.Overview.TotalRevenue)
	assert.Equal(t, 100, report.Overview.RevenueChange)
	assert.Equal(t, int64(2), report.Overview.TotalOrders)
	assert.Equal(t, 100, report.Overview.OrdersChange)
	assert.Equal(t, int64(2), report.Overview.TotalCustomers)
	assert.Equal(t, int64(2), report.Overview.TotalProducts)
	assert.Equal(t, int64(2), report.Overview.PendingOrders)
	assert.Equal(t, int64(2), report.Overview.LowStockProducts)

	require.Len(t, report.CategoryDistribution, 2)
	assert.Equal(t, "Women's Fashion", report.CategoryDistribution[0].Name)
	assert.Equal(t, 60, report.CategoryDistribution[0].Percentage)

	require.NotEmpty(t, report.TopProducts)
	assert.Equal(t, TopProduct{Name: "Blazer", Sales: 3, Revenue: 300}, report.TopProducts[0])

	require.Len(t, report.RecentOrders, 3)
	assert.Equal(t, "ORD-B", report.RecentOrders[0].ID)
	assert.Equal(t, "Guest", report.RecentOrders[0].Customer)
	assert.Equal(t, "delivered", report.RecentOrders[0].Status)
	assert.Equal(t, "Ada Lovelace", report.RecentOrders[1].Customer)

	assert.Equal(t, map[string]int64{"pending": 1, "delivered": 1}, report.OrderStatus)

	var trendOrders int
	for _, p := range report.SalesTrend {
		trendOrders += p.Orders
	}
	assert.Equal(t, 2, trendOrders)
}

func TestAnalyticsService_ReportDefaultsRange(t *testing.T) {
	testDB := setupTestDB(t)
	svc := NewAnalyticsService(repository.NewAnalyticsRepository(testDB))

	report, err := svc.Report(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultAnalyticsRange, report.Range)
	assert.Empty(t, report.SalesTrend)
	assert.Empty(t, report.RecentOrders)
	assert.Zero(t, report.Overview.RevenueChange)
}

type failingAnalyticsRepo struct {
	repository.AnalyticsRepository
}

func (failingAnalyticsRepo) Revenue(context.Context, time.Time, time.Time) (float64, error) {
	return 0, errBoom
}

func TestAnalyticsService_ReportPropagatesErrors(t *testing.T) {
	testDB := setupTestDB(t)
	svc := NewAnalyticsService(failingAnalyticsRepo{repository.NewAnalyticsRepository(testDB)})

	report, err := svc.Report(context.Background(), "30d")
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, report)
}
