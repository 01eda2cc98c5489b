package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	apperrors "github.com/velora-shop/storefront-backend/internal/errors"
	"github.com/velora-shop/storefront-backend/internal/middleware"
	"github.com/velora-shop/storefront-backend/internal/validation"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

type CustomerRequest struct {
	FirstName    string `json:"firstName" validate:"required,max=100"`
	LastName     string `json:"lastName" validate:"required,max=100"`
	Country      string `json:"country" validate:"required"`
	State        string `json:"state"`
	City         string `json:"city" validate:"required"`
	Postcode     string `json:"postcode" validate:"max=20"`
	AddressLine1 string `json:"address1" validate:"required,max=200"`
	AddressLine2 string `json:"address2" validate:"max=200"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,max=30"`
}

type CheckoutItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type CheckoutRequest struct {
	Customer      CustomerRequest       `json:"customer" validate:"required"`
	PaymentMethod string                `json:"paymentMethod" validate:"required,oneof=Online COD"`
	Items         []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PlaceOrder validates the cart against the catalog and stores the order
// POST /api/v1/checkout
func (ctrl *CheckoutController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid checkout data")
		return
	}
	if err := validation.Struct(req); err != nil {
		apperrors.RespondWithValidationError(c, validation.Fields(err))
		return
	}

	input := service.CheckoutInput{
		Customer: model.CustomerInfo{
			FirstName:    req.Customer.FirstName,
			LastName:     req.Customer.LastName,
			Country:      req.Customer.Country,
			State:        req.Customer.State,
			City:         req.Customer.City,
			Postcode:     req.Customer.Postcode,
			AddressLine1: req.Customer.AddressLine1,
			AddressLine2: req.Customer.AddressLine2,
			Email:        req.Customer.Email,
			Phone:        req.Customer.Phone,
		},
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		Items:         make([]service.CheckoutItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.CheckoutItem{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
		})
	}

	order, err := ctrl.checkoutService.PlaceOrder(input)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

func respondCheckoutError(c *gin.Context, err error) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrEmptyOrder):
		apperrors.BadRequest(c, apperrors.OrderEmpty, "Order has no items")
	case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrInvalidPayment):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, err.Error())
	case errors.Is(err, service.ErrProductUnavailable):
		apperrors.Conflict(c, apperrors.ProductUnavailable, err.Error())
	case errors.Is(err, service.ErrInvalidSize):
		apperrors.BadRequest(c, apperrors.ProductInvalidSize, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		apperrors.Conflict(c, apperrors.OrderInsufficientStock, err.Error())
	default:
		log.Error("Checkout failed", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "place order")
	}
}
