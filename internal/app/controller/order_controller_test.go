package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupOrderControllerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	testDB := setupTestDB(t)
	ctrl := NewOrderController(service.NewOrderService(repository.NewOrderRepository(testDB), nil))

	router := gin.New()
	admin := router.Group("/admin", asStaff)
	admin.GET("/orders", ctrl.ListOrders)
	admin.GET("/orders/export", ctrl.ExportOrders)
	admin.GET("/orders/:id", ctrl.GetOrder)
	admin.PUT("/orders/:id/status", ctrl.UpdateStatus)
	return router, testDB
}

func seedOrder(t *testing.T, testDB *gorm.DB, number, firstName string, status model.OrderStatus, total float64) *model.Order {
	t.Helper()
	order := &model.Order{
		OrderNumber: number,
		Customer: model.CustomerInfo{
			FirstName: firstName,
			LastName:  "Shopper",
			Email:     fmt.Sprintf("%s@example.com", firstName),
		},
		PaymentMethod: model.PaymentOnline,
		Status:        status,
		TotalAmount:   total,
		CreatedAt:     time.Now().UTC(),
		Items: []model.OrderItem{
			{ProductID: "p1", Name: "Minimalist Silk Blazer", Price: total, Quantity: 1, Size: "M"},
		},
	}
	require.NoError(t, testDB.Create(order).Error)
	return order
}

func TestOrderController_ListOrders(t *testing.T) {
	router, testDB := setupOrderControllerTest(t)
	seedOrder(t, testDB, "ORD-1", "Ada", model.OrderStatusPending, 450)
	seedOrder(t, testDB, "ORD-2", "Grace", model.OrderStatusShipped, 890)

	w := doJSON(t, router, http.MethodGet, "/admin/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Orders []model.Order `json:"orders"`
		Count  int           `json:"count"`
	}
	decode(t, w, &body)
	assert.Equal(t, 2, body.Count)

	w = doJSON(t, router, http.MethodGet, "/admin/orders?status=shipped", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "ORD-2", body.Orders[0].OrderNumber)

	w = doJSON(t, router, http.MethodGet, "/admin/orders?status=all&q=ada", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "ORD-1", body.Orders[0].OrderNumber)
}

func TestOrderController_ListOrdersBadQuery(t *testing.T) {
	router, _ := setupOrderControllerTest(t)

	tests := []struct {
		name    string
		query   string
		wantErr string
	}{
		{name: "Unknown status", query: "status=lost", wantErr: "ORDER_INVALID_STATUS"},
		{name: "Limit too large", query: "limit=500", wantErr: "VALIDATION_INVALID_RANGE"},
		{name: "Negative offset", query: "offset=-1", wantErr: "VALIDATION_INVALID_RANGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, "/admin/orders?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, tt.wantErr, body.Error)
		})
	}
}

func TestOrderController_GetOrder(t *testing.T) {
	router, testDB := setupOrderControllerTest(t)
	order := seedOrder(t, testDB, "ORD-1", "Ada", model.OrderStatusPending, 450)

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/admin/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Order model.Order `json:"order"`
	}
	decode(t, w, &body)
	assert.Equal(t, "ORD-1", body.Order.OrderNumber)
	assert.Len(t, body.Order.Items, 1)

	w = doJSON(t, router, http.MethodGet, "/admin/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody errorBody
	decode(t, w, &errBody)
	assert.Equal(t, "VALIDATION_INVALID_ID", errBody.Error)

	w = doJSON(t, router, http.MethodGet, "/admin/orders/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderController_UpdateStatus(t *testing.T) {
	router, testDB := setupOrderControllerTest(t)
	order := seedOrder(t, testDB, "ORD-1", "Ada", model.OrderStatusPending, 450)
	path := fmt.Sprintf("/admin/orders/%d/status", order.ID)

	w := doJSON(t, router, http.MethodPut, path, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Order model.Order `json:"order"`
	}
	decode(t, w, &body)
	assert.Equal(t, model.OrderStatusShipped, body.Order.Status)

	w = doJSON(t, router, http.MethodPut, path, map[string]string{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, path, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/admin/orders/999/status", map[string]string{"status": "Delivered"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderController_ExportOrders(t *testing.T) {
	router, testDB := setupOrderControllerTest(t)
	seedOrder(t, testDB, "ORD-1", "Ada", model.OrderStatusPending, 450)
	seedOrder(t, testDB, "ORD-2", "Grace", model.OrderStatusDelivered, 890)

	w := doJSON(t, router, http.MethodGet, "/admin/orders/export?status=delivered", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"orders-")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one order")
	assert.Contains(t, rows[1], "ORD-2")
}
