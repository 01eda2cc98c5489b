package controller

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/velora-shop/storefront-backend/internal/middleware"
	"github.com/velora-shop/storefront-backend/internal/websocket"
)

type OrderFeedController struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
}

func NewOrderFeedController(hub *websocket.Hub, allowedOrigins []string) *OrderFeedController {
	return &OrderFeedController{
		hub:      hub,
		upgrader: websocket.NewUpgrader(allowedOrigins),
	}
}

// Stream upgrades to a websocket and pushes order events until disconnect
// GET /api/v1/admin/ws/orders
func (ctrl *OrderFeedController) Stream(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, _ := middleware.GetUserID(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	log.Info("Order feed connected", map[string]interface{}{
		"user_id": userID,
	})
	ctrl.hub.Serve(conn, userID)
}
