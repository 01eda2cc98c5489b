package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	apperrors "github.com/velora-shop/storefront-backend/internal/errors"
	"github.com/velora-shop/storefront-backend/internal/middleware"
)

type AnalyticsController struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsController(analyticsService service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
	}
}

type analyticsResponse struct {
	Success bool `json:"success"`
	*service.AnalyticsReport
}

// GetAnalytics returns dashboard aggregates for a range
// GET /api/v1/admin/analytics?range=7d|30d|90d|1y
func (ctrl *AnalyticsController) GetAnalytics(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	rangeToken := c.DefaultQuery("range", service.DefaultAnalyticsRange)

	report, err := ctrl.analyticsService.Report(c.Request.Context(), rangeToken)
	if err != nil {
		log.Error("Failed to compute analytics", err, map[string]interface{}{
			"range": rangeToken,
		})
		apperrors.InternalError(c, "Error fetching analytics")
		return
	}

	c.JSON(http.StatusOK, analyticsResponse{Success: true, AnalyticsReport: report})
}
