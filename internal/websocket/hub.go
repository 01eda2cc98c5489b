// Package websocket pushes order events to connected admin dashboards.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"

	sendBufferSize = 64
)

// OrderSummary is the order payload of a feed event.
type OrderSummary struct {
	ID            uint                `json:"id"`
	OrderNumber   string              `json:"orderId"`
	Customer      string              `json:"customer"`
	Email         string              `json:"email"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	Status        model.OrderStatus   `json:"status"`
	TotalAmount   float64             `json:"totalAmount"`
	Items         int                 `json:"items"`
	CreatedAt     time.Time           `json:"createdAt"`
}

type Event struct {
	Type  string       `json:"type"`
	Order OrderSummary `json:"order"`
}

// Client is one connected dashboard session.
type Client struct {
	hub    *Hub
	conn   *Conn
	UserID uint
	send   chan []byte
}

// Hub fans order events out to every registered client. A client whose
// buffer is full is dropped rather than blocking the broadcaster.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			logger.Info("Order feed hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Order feed client registered", map[string]interface{}{
				"user_id":       client.UserID,
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			var stale []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					stale = append(stale, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range stale {
				logger.Warn("Order feed client too slow, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	if ok {
		logger.Info("Order feed client unregistered", map[string]interface{}{
			"user_id":           client.UserID,
			"remaining_clients": remaining,
		})
	}
}

// ClientCount is the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OrderCreated broadcasts a new order.
func (h *Hub) OrderCreated(order *model.Order) {
	h.publish(EventOrderCreated, order)
}

// OrderStatusChanged broadcasts a status update.
func (h *Hub) OrderStatusChanged(order *model.Order) {
	h.publish(EventOrderStatusChanged, order)
}

func (h *Hub) publish(eventType string, order *model.Order) {
	data, err := json.Marshal(Event{Type: eventType, Order: summarize(order)})
	if err != nil {
		logger.Error("Failed to marshal order event", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return
	}

	select {
	case h.broadcast <- data:
	default:
		// events are advisory; dashboards reload on reconnect
		logger.Warn("Order feed broadcast full, event dropped", map[string]interface{}{
			"type":     eventType,
			"order_id": order.ID,
		})
	}
}

func summarize(order *model.Order) OrderSummary {
	return OrderSummary{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Customer:      order.Customer.FullName(),
		Email:         order.Customer.Email,
		PaymentMethod: order.PaymentMethod,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		Items:         len(order.Items),
		CreatedAt:     order.CreatedAt,
	}
}
