package controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	apperrors "github.com/velora-shop/storefront-backend/internal/errors"
	"github.com/velora-shop/storefront-backend/internal/middleware"
	"github.com/velora-shop/storefront-backend/internal/spreadsheet"
	"github.com/velora-shop/storefront-backend/internal/validation"
)

const (
	defaultOrderPageSize = 50
	maxOrderPageSize     = 200
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListOrders returns orders for the admin dashboard
// GET /api/v1/admin/orders?status=&q=&limit=&offset=
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter, ok := orderFilterFromQuery(c, defaultOrderPageSize)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.ListOrders(filter)
	if err != nil {
		log.Error("Failed to list orders", err)
		apperrors.InternalError(c, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder returns one order with its items
// GET /api/v1/admin/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		log.Error("Failed to get order", err, map[string]interface{}{
			"order_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateStatus changes an order's status
// PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid status data")
		return
	}
	if err := validation.Struct(req); err != nil {
		apperrors.RespondWithValidationError(c, validation.Fields(err))
		return
	}

	order, err := ctrl.orderService.UpdateStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderStatus):
			apperrors.BadRequest(c, apperrors.OrderInvalidStatus, fmt.Sprintf("Unknown order status %q", req.Status))
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": id,
			})
			apperrors.InternalError(c, "Failed to update order status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}

// ExportOrders downloads the filtered orders as a spreadsheet
// GET /api/v1/admin/orders/export
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter, ok := orderFilterFromQuery(c, 0)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.ListOrders(filter)
	if err != nil {
		log.Error("Failed to load orders for export", err)
		apperrors.InternalError(c, "Failed to export orders")
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteOrders(&buf, orders); err != nil {
		log.Error("Failed to write order spreadsheet", err)
		apperrors.InternalError(c, "Failed to export orders")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// orderFilterFromQuery reads status, q, limit and offset. A zero
// defaultLimit means unlimited.
func orderFilterFromQuery(c *gin.Context, defaultLimit int) (repository.OrderFilter, bool) {
	filter := repository.OrderFilter{
		Search: c.Query("q"),
		Limit:  defaultLimit,
	}

	if raw := c.Query("status"); raw != "" && raw != "all" {
		status, ok := model.ParseOrderStatus(raw)
		if !ok {
			apperrors.BadRequest(c, apperrors.OrderInvalidStatus, fmt.Sprintf("Unknown order status %q", raw))
			return filter, false
		}
		filter.Status = &status
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxOrderPageSize {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, fmt.Sprintf("limit must be between 1 and %d", maxOrderPageSize))
			return filter, false
		}
		filter.Limit = n
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "offset must be zero or more")
			return filter, false
		}
		filter.Offset = n
	}

	return filter, true
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return 0, false
	}
	return uint(id), true
}
