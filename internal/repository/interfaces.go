package repository

import (
	"context"
	"time"

	"farm2city/internal/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetAll(ctx context.Context, onlyAvailable bool) ([]models.Product, error)
	GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error)
	GetByCategory(ctx context.Context, category string) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ReserveQuantity conditionally decrements the available quantity and
	// fails with ErrInsufficientStock when the product cannot cover it.
	ReserveQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	// ReleaseQuantity returns a previously reserved quantity to the product.
	ReleaseQuantity(ctx context.Context, id uuid.UUID, quantity int) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)

	// UpdateStatus performs the conditional write "set status where id and
	// status=expected". A zero-row update means the stored status no longer
	// matches and surfaces as ErrInvalidTransition, which serializes
	// concurrent transitions targeting the same order.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, expected, next models.PaymentStatus) error
}

type InventoryRepository interface {
	Get(ctx context.Context, shopkeeperID, productID uuid.UUID) (*models.InventoryRecord, error)
	GetByShopkeeper(ctx context.Context, shopkeeperID uuid.UUID) ([]models.InventoryRecord, error)

	// Ensure creates the (shopkeeper, product) record with zeroed counters
	// if it does not exist yet.
	Ensure(ctx context.Context, shopkeeperID, productID uuid.UUID) error
	// ApplyDelta atomically applies one stock movement: the matching counter,
	// current_stock and updated_at change together or not at all. Fails with
	// ErrInsufficientStock when the result would be negative.
	ApplyDelta(ctx context.Context, shopkeeperID, productID uuid.UUID, delta int) (*models.InventoryRecord, error)
}

type ReorderRuleRepository interface {
	Create(ctx context.Context, rule *models.AutoReorderRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AutoReorderRule, error)
	GetByShopkeeper(ctx context.Context, shopkeeperID uuid.UUID) ([]models.AutoReorderRule, error)
	Update(ctx context.Context, rule *models.AutoReorderRule) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListEnabledWithStock joins enabled rules with their inventory records
	// so one scanner pass sees rule and current stock together.
	ListEnabledWithStock(ctx context.Context) ([]models.ReorderCandidate, error)
	MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}
