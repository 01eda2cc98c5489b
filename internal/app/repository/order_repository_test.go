package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"gorm.io/gorm"
)

func TestOrderRepository_CreateWithStockDecrements(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewOrderRepository(testDB)
	products := NewProductRepository(testDB)

	p := seedProduct(t, testDB, model.Product{Name: "Blazer", NewPrice: 450, Quantity: 5, Sizes: []string{"M"}})

	order := &model.Order{
		OrderNumber:   "ORD-1",
		Customer:      model.CustomerInfo{FirstName: "Ada", Email: "ada@example.com"},
		PaymentMethod: model.PaymentOnline,
		Status:        model.OrderStatusPending,
		TotalAmount:   900,
		Items: []model.OrderItem{
			{ProductID: p.ID, Name: p.Name, Price: 450, Size: "M", Quantity: 2},
		},
	}
	require.NoError(t, repo.CreateWithStock(order))
	assert.NotZero(t, order.ID)

	got, err := products.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Blazer", found.Items[0].Name)
	assert.Equal(t, "ada@example.com", found.Customer.Email)
}

func TestOrderRepository_CreateWithStockRollsBack(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewOrderRepository(testDB)
	products := NewProductRepository(testDB)

	plenty := seedProduct(t, testDB, model.Product{Name: "Plenty", NewPrice: 10, Quantity: 10})
	scarce := seedProduct(t, testDB, model.Product{Name: "Scarce", NewPrice: 10, Quantity: 1})

	order := &model.Order{
		OrderNumber:   "ORD-2",
		Customer:      model.CustomerInfo{FirstName: "Ada", Email: "ada@example.com"},
		PaymentMethod: model.PaymentCOD,
		Items: []model.OrderItem{
			{ProductID: plenty.ID, Name: "Plenty", Price: 10, Quantity: 2},
			{ProductID: scarce.ID, Name: "Scarce", Price: 10, Quantity: 2},
		},
	}
	err := repo.CreateWithStock(order)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, _ := products.FindByID(plenty.ID)
	assert.Equal(t, 10, got.Quantity, "first decrement must be rolled back")

	var count int64
	testDB.Model(&model.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestOrderRepository_FindAllFilters(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewOrderRepository(testDB)

	seedOrder(t, testDB, model.Order{OrderNumber: "ORD-A", Customer: model.CustomerInfo{FirstName: "Ada", Email: "ada@example.com"}, PaymentMethod: model.PaymentOnline, Status: model.OrderStatusPending})
	seedOrder(t, testDB, model.Order{OrderNumber: "ORD-B", Customer: model.CustomerInfo{FirstName: "Grace", Email: "grace@example.com"}, PaymentMethod: model.PaymentCOD, Status: model.OrderStatusDelivered})

	all, err := repo.FindAll(OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	delivered := model.OrderStatusDelivered
	byStatus, err := repo.FindAll(OrderFilter{Status: &delivered})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "ORD-B", byStatus[0].OrderNumber)

	bySearch, err := repo.FindAll(OrderFilter{Search: "ADA"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "ORD-A", bySearch[0].OrderNumber)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewOrderRepository(testDB)

	o := seedOrder(t, testDB, model.Order{PaymentMethod: model.PaymentOnline, Status: model.OrderStatusPending})

	require.NoError(t, repo.UpdateStatus(o.ID, model.OrderStatusShipped))
	found, err := repo.FindByID(o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, found.Status)

	assert.ErrorIs(t, repo.UpdateStatus(9999, model.OrderStatusShipped), gorm.ErrRecordNotFound)
}
