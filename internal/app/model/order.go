package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type OrderStatus string
type PaymentMethod string

const (
	OrderStatusPending         OrderStatus = "Pending"
	OrderStatusAwaitingPayment OrderStatus = "Awaiting Payment"
	OrderStatusProcessing      OrderStatus = "Processing"
	OrderStatusConfirmed       OrderStatus = "Confirmed"
	OrderStatusShipped         OrderStatus = "Shipped"
	OrderStatusDelivered       OrderStatus = "Delivered"
	OrderStatusCancelled       OrderStatus = "Cancelled"
	OrderStatusFailed          OrderStatus = "Failed"
	OrderStatusRefunded        OrderStatus = "Refunded"

	PaymentOnline PaymentMethod = "Online"
	PaymentCOD    PaymentMethod = "COD"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAwaitingPayment,
	OrderStatusProcessing,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusFailed,
	OrderStatusRefunded,
}

// ParseOrderStatus matches s case-insensitively against the known statuses.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// NonRevenueStatuses never count toward revenue for online orders.
var NonRevenueStatuses = []OrderStatus{OrderStatusCancelled, OrderStatusFailed, OrderStatusRefunded}

// CustomerInfo is the shipping and contact block captured at checkout.
type CustomerInfo struct {
	FirstName    string `gorm:"not null" json:"firstName"`
	LastName     string `json:"lastName"`
	Country      string `json:"country"`
	State        string `json:"state"`
	City         string `json:"city"`
	Postcode     string `json:"postcode"`
	AddressLine1 string `json:"address1"`
	AddressLine2 string `json:"address2"`
	Email        string `gorm:"index;not null" json:"email"`
	Phone        string `json:"phone"`
}

func (ci CustomerInfo) FullName() string {
	return strings.TrimSpace(ci.FirstName + " " + ci.LastName)
}

type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	OrderNumber   string         `gorm:"uniqueIndex;type:varchar(40);not null" json:"orderId"`
	Customer      CustomerInfo   `gorm:"embedded;embeddedPrefix:customer_" json:"customerInfo"`
	PaymentMethod PaymentMethod  `gorm:"type:varchar(10);not null" json:"paymentMethod"`
	Status        OrderStatus    `gorm:"type:varchar(20);default:'Pending';index" json:"status"`
	TotalAmount   float64        `gorm:"not null" json:"totalAmount"`
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// CountsAsRevenue applies the revenue rule: online orders unless cancelled,
// failed or refunded; cash on delivery only once delivered.
func (o *Order) CountsAsRevenue() bool {
	switch o.PaymentMethod {
	case PaymentOnline:
		for _, st := range NonRevenueStatuses {
			if o.Status == st {
				return false
			}
		}
		return true
	case PaymentCOD:
		return o.Status == OrderStatusDelivered
	}
	return false
}

// OrderItem is a snapshot of a purchased line; later catalog edits do not
// change it.
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID string    `gorm:"type:varchar(36);not null;index" json:"product_id"`
	Name      string    `gorm:"not null" json:"name"`
	Category  string    `json:"category"`
	Price     float64   `gorm:"not null" json:"price"`
	Size      string    `json:"size"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
