package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleFarmer     Role = "farmer"
	RoleTrader     Role = "trader"
	RoleShopkeeper Role = "shopkeeper"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleTrader, RoleShopkeeper:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Location  string    `json:"location,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID           uuid.UUID       `json:"id"`
	FarmerID     uuid.UUID       `json:"farmer_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Availability bool            `json:"availability"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	HarvestDate  *time.Time      `json:"harvest_date,omitempty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderRejected  OrderStatus = "rejected"
	OrderDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderRejected, OrderDelivered:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderRejected || s == OrderDelivered
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Order is a trade request from a buyer (trader or shopkeeper) against a
// farmer's product. Orders are never deleted, only transitioned.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	FarmerID      uuid.UUID       `json:"farmer_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	DeliveryDate  *time.Time      `json:"delivery_date,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InventoryRecord is the per (shopkeeper, product) stock ledger entry.
// quantity_in and quantity_out are cumulative counters; current_stock is
// their difference and never goes negative.
type InventoryRecord struct {
	ID           uuid.UUID `json:"id"`
	ShopkeeperID uuid.UUID `json:"shopkeeper_id"`
	ProductID    uuid.UUID `json:"product_id"`
	QuantityIn   int       `json:"quantity_in"`
	QuantityOut  int       `json:"quantity_out"`
	CurrentStock int       `json:"current_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ReorderFrequency string

const (
	ReorderDaily   ReorderFrequency = "daily"
	ReorderWeekly  ReorderFrequency = "weekly"
	ReorderMonthly ReorderFrequency = "monthly"
)

func (f ReorderFrequency) Valid() bool {
	switch f {
	case ReorderDaily, ReorderWeekly, ReorderMonthly:
		return true
	}
	return false
}

// AutoReorderRule configures automatic reorder recommendations for one
// (shopkeeper, product) pair. At most one rule exists per pair.
type AutoReorderRule struct {
	ID              uuid.UUID        `json:"id"`
	ShopkeeperID    uuid.UUID        `json:"shopkeeper_id"`
	ProductID       uuid.UUID        `json:"product_id"`
	MinStock        int              `json:"min_stock"`
	ReorderQuantity int              `json:"reorder_quantity"`
	Frequency       ReorderFrequency `json:"frequency"`
	Enabled         bool             `json:"enabled"`
	LastTriggeredAt *time.Time       `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ReorderEvent is a reorder recommendation produced by the evaluator. It is
// derived state and never persisted; the rule's last_triggered_at is stamped
// after the event has been acted on.
type ReorderEvent struct {
	ShopkeeperID        uuid.UUID `json:"shopkeeper_id"`
	ProductID           uuid.UUID `json:"product_id"`
	RecommendedQuantity int       `json:"recommended_quantity"`
}

// ReorderCandidate pairs an enabled rule with the current stock of its
// inventory record, as read by the scanner in one pass.
type ReorderCandidate struct {
	Rule         AutoReorderRule
	CurrentStock int
}

type NotificationType string

const (
	NotificationOrder   NotificationType = "order"
	NotificationPayment NotificationType = "payment"
	NotificationSystem  NotificationType = "system"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	Data      map[string]any   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
