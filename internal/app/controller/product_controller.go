package controller

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	apperrors "github.com/velora-shop/storefront-backend/internal/errors"
	"github.com/velora-shop/storefront-backend/internal/middleware"
	"github.com/velora-shop/storefront-backend/internal/storage"
	"github.com/velora-shop/storefront-backend/internal/validation"
)

const maxImageSize = 5 * 1024 * 1024

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// CreateProductRequest is the product schema for new products.
type CreateProductRequest struct {
	Name               string   `json:"name" form:"name" validate:"required,max=200"`
	Description        string   `json:"description" form:"description" validate:"max=5000"`
	NewPrice           float64  `json:"newprice" form:"newprice" validate:"gt=0"`
	ComparePrice       float64  `json:"comparePrice" form:"comparePrice" validate:"gte=0"`
	Category           string   `json:"category" form:"category" validate:"required"`
	NewArrival         bool     `json:"newArrival" form:"newArrival"`
	NewArrivalFeatured bool     `json:"newArrivalFeatured" form:"newArrivalFeatured"`
	Quantity           int      `json:"quantity" form:"quantity" validate:"gte=0"`
	Unit               string   `json:"unit" form:"unit"`
	Status             string   `json:"status" form:"status" validate:"omitempty,oneof=active inactive 'out of stock'"`
	IsFeatured         bool     `json:"isFeatured" form:"isFeatured"`
	Sizes              []string `json:"size" form:"size" validate:"dive,required"`
}

// UpdateProductRequest is a partial product; absent fields are unchanged.
type UpdateProductRequest struct {
	Name               *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description        *string  `json:"description" validate:"omitempty,max=5000"`
	NewPrice           *float64 `json:"newprice" validate:"omitempty,gt=0"`
	ComparePrice       *float64 `json:"comparePrice" validate:"omitempty,gte=0"`
	Category           *string  `json:"category" validate:"omitempty,min=1"`
	NewArrival         *bool    `json:"newArrival"`
	NewArrivalFeatured *bool    `json:"newArrivalFeatured"`
	Quantity           *int     `json:"quantity" validate:"omitempty,gte=0"`
	Unit               *string  `json:"unit"`
	Status             *string  `json:"status" validate:"omitempty,oneof=active inactive 'out of stock'"`
	IsFeatured         *bool    `json:"isFeatured"`
	Sizes              []string `json:"size" validate:"omitempty,dive,required"`
}

// ListProducts returns every product, newest first
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.productService.ListProducts()
	if err != nil {
		log.Error("Failed to list products", err)
		apperrors.InternalError(c, "Failed to fetch products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	c.JSON(http.StatusOK, products)
}

// ListNewArrivals returns the latest products flagged as new arrivals
// GET /api/v1/products/new-arrivals
func (ctrl *ProductController) ListNewArrivals(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.productService.ListNewArrivals()
	if err != nil {
		log.Error("Failed to list new arrivals", err)
		apperrors.InternalError(c, "Failed to fetch new arrivals")
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct returns a single product
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	product, err := ctrl.productService.GetProduct(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to get product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct adds a product from JSON or a multipart form with an image
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid create product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
		return
	}
	req.Sizes = normalizeSizes(req.Sizes)
	if err := validation.Struct(req); err != nil {
		apperrors.RespondWithValidationError(c, validation.Fields(err))
		return
	}

	image, closeImage, ok := imageFromRequest(c)
	if !ok {
		return
	}
	defer closeImage()

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Name:               req.Name,
		Description:        req.Description,
		NewPrice:           req.NewPrice,
		ComparePrice:       req.ComparePrice,
		Category:           req.Category,
		NewArrival:         req.NewArrival,
		NewArrivalFeatured: req.NewArrivalFeatured,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		Status:             model.ProductStatus(req.Status),
		IsFeatured:         req.IsFeatured,
		Sizes:              req.Sizes,
	}, image)
	if err != nil {
		ctrl.respondWriteError(c, err, "create product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct applies a partial update from JSON or a multipart form
// PATCH /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	var req UpdateProductRequest
	if isMultipart(c) {
		parsed, fieldErrs := updateRequestFromForm(c)
		if len(fieldErrs) > 0 {
			apperrors.RespondWithValidationError(c, fieldErrs)
			return
		}
		req = parsed
	} else if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update product request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
		return
	}
	if req.Sizes != nil {
		req.Sizes = normalizeSizes(req.Sizes)
	}
	if err := validation.Struct(req); err != nil {
		apperrors.RespondWithValidationError(c, validation.Fields(err))
		return
	}

	image, closeImage, ok := imageFromRequest(c)
	if !ok {
		return
	}
	defer closeImage()

	input := service.UpdateProductInput{
		Name:               req.Name,
		Description:        req.Description,
		NewPrice:           req.NewPrice,
		ComparePrice:       req.ComparePrice,
		Category:           req.Category,
		NewArrival:         req.NewArrival,
		NewArrivalFeatured: req.NewArrivalFeatured,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		IsFeatured:         req.IsFeatured,
		Sizes:              req.Sizes,
	}
	if req.Status != nil {
		status := model.ProductStatus(*req.Status)
		input.Status = &status
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), id, input, image)
	if err != nil {
		ctrl.respondWriteError(c, err, "update product")
		return
	}

	log.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct removes a product and its image
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	if err := ctrl.productService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		ctrl.respondWriteError(c, err, "delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (ctrl *ProductController) respondWriteError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrImageDeleteFailed):
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Image delete failed")
	case errors.Is(err, service.ErrImageUploadFailed):
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Image upload failed")
	default:
		log.Error("Product write failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// imageFromRequest opens the optional "image" file of a multipart request.
// ok is false when a response has already been written.
func imageFromRequest(c *gin.Context) (*service.ImageUpload, func(), bool) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, true
	}

	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, true
		}
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid image upload")
		return nil, noop, false
	}
	if header.Size == 0 {
		return nil, noop, true
	}
	if err := storage.ValidateFileSize(header.Size, maxImageSize); err != nil {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, err.Error())
		return nil, noop, false
	}
	contentType := header.Header.Get("Content-Type")
	if err := storage.ValidateContentType(contentType, allowedImageTypes); err != nil {
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())
		return nil, noop, false
	}

	file, err := header.Open()
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid image upload")
		return nil, noop, false
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Body:        file,
	}, func() { closeFile(file) }, true
}

func closeFile(f multipart.File) {
	_ = f.Close()
}

// updateRequestFromForm reads the fields present in a multipart form.
func updateRequestFromForm(c *gin.Context) (UpdateProductRequest, map[string]string) {
	var req UpdateProductRequest
	fieldErrs := map[string]string{}

	str := func(key string) *string {
		if v, ok := c.GetPostForm(key); ok {
			return &v
		}
		return nil
	}
	boolean := func(key string) *bool {
		if v, ok := c.GetPostForm(key); ok {
			b := parseFormBool(v)
			return &b
		}
		return nil
	}

	req.Name = str("name")
	req.Description = str("description")
	req.Category = str("category")
	req.Unit = str("unit")
	req.Status = str("status")
	req.NewArrival = boolean("newArrival")
	req.NewArrivalFeatured = boolean("newArrivalFeatured")
	req.IsFeatured = boolean("isFeatured")

	if v, ok := c.GetPostForm("newprice"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			fieldErrs["newprice"] = "must be a number"
		} else {
			req.NewPrice = &f
		}
	}
	if v, ok := c.GetPostForm("comparePrice"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			fieldErrs["comparePrice"] = "must be a number"
		} else {
			req.ComparePrice = &f
		}
	}
	if v, ok := c.GetPostForm("quantity"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			fieldErrs["quantity"] = "must be a whole number"
		} else {
			req.Quantity = &n
		}
	}
	if sizes, ok := c.GetPostFormArray("size"); ok {
		req.Sizes = sizes
	}

	return req, fieldErrs
}

// normalizeSizes splits comma-separated entries and drops blanks.
func normalizeSizes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, s := range strings.Split(entry, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func parseFormBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
