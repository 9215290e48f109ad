package orders

import (
	"context"
	"fmt"
	"time"

	"farm2city/internal/models"
	"farm2city/internal/notify"
	"farm2city/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockAdjuster is the slice of the inventory ledger the order service needs
// for the delivery side effect.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, shopkeeperID, productID uuid.UUID, delta int) (*models.InventoryRecord, error)
}

type Service struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	stock    StockAdjuster
	notifier notify.Notifier
	log      *zap.SugaredLogger
}

func NewService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	stock StockAdjuster,
	notifier notify.Notifier,
	log *zap.SugaredLogger,
) *Service {
	return &Service{
		orders:   orders,
		products: products,
		users:    users,
		stock:    stock,
		notifier: notifier,
		log:      log,
	}
}

type CreateRequest struct {
	ProductID    uuid.UUID  `json:"product_id"`
	Quantity     int        `json:"quantity"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// Create places an order for a buyer. The unit price is snapshotted from
// the product and the total computed with decimal arithmetic, so
// 20 x 15.50 is exactly 310.00. The ordered quantity is reserved against
// the product up front, which is what keeps two buyers from overselling the
// same produce.
func (s *Service) Create(ctx context.Context, buyerID uuid.UUID, req CreateRequest) (*models.Order, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", repository.ErrInvalidInput)
	}
	if req.DeliveryDate != nil && req.DeliveryDate.Before(time.Now()) {
		return nil, fmt.Errorf("%w: delivery date must be in the future", repository.ErrInvalidInput)
	}

	buyer, err := s.users.GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if buyer.Role != models.RoleTrader && buyer.Role != models.RoleShopkeeper {
		return nil, fmt.Errorf("%w: only traders and shopkeepers place orders", repository.ErrNotAllowed)
	}

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Availability {
		return nil, fmt.Errorf("%w: product %s is not available", repository.ErrInvalidInput, product.ID)
	}

	if err := s.products.ReserveQuantity(ctx, product.ID, req.Quantity); err != nil {
		return nil, err
	}

	order := &models.Order{
		BuyerID:       buyer.ID,
		FarmerID:      product.FarmerID,
		ProductID:     product.ID,
		Quantity:      req.Quantity,
		UnitPrice:     product.Price,
		TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		DeliveryDate:  req.DeliveryDate,
		Notes:         req.Notes,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// Compensate the reservation so the produce stays sellable.
		if rerr := s.products.ReleaseQuantity(ctx, product.ID, req.Quantity); rerr != nil {
			s.log.Errorw("failed to release reservation after create failure",
				"product_id", product.ID, "quantity", req.Quantity, "error", rerr)
		}
		return nil, err
	}

	s.notifier.Notify(ctx, product.FarmerID,
		"New Order Received",
		fmt.Sprintf("%s placed an order for %d %s of %s", buyer.Name, req.Quantity, product.Unit, product.Name),
		models.NotificationOrder,
		map[string]any{"order_id": order.ID, "status": order.Status},
	)

	return order, nil
}

func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.FarmerID != userID {
		return nil, repository.ErrNotFound
	}
	return order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.orders.GetByUser(ctx, userID)
}

// Transition moves an order along the lifecycle on behalf of its farmer.
// The store write is conditional on the status the actor read, so two
// concurrent transitions cannot both succeed. Side effects (reservation
// release on reject, shopkeeper stock-in on delivery, buyer notification)
// run after the write committed and never undo it.
func (s *Service) Transition(ctx context.Context, actorID, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.FarmerID != actorID {
		return nil, fmt.Errorf("%w: only the order's farmer can change its status", repository.ErrNotAllowed)
	}

	if err := ValidateTransition(order.Status, next); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, next); err != nil {
		return nil, err
	}
	order.Status = next

	switch next {
	case models.OrderRejected:
		if err := s.products.ReleaseQuantity(ctx, order.ProductID, order.Quantity); err != nil {
			s.log.Errorw("failed to release reservation for rejected order",
				"order_id", order.ID, "error", err)
		}
	case models.OrderDelivered:
		s.applyDeliveryEffects(ctx, order)
	}

	title, message := statusNotification(order)
	s.notifier.Notify(ctx, order.BuyerID, title, message, models.NotificationOrder,
		map[string]any{"order_id": order.ID, "status": order.Status})

	return order, nil
}

// applyDeliveryEffects books delivered produce into the buyer's inventory
// ledger when the buyer runs a shop. Traders resell directly and carry no
// ledger.
func (s *Service) applyDeliveryEffects(ctx context.Context, order *models.Order) {
	buyer, err := s.users.GetByID(ctx, order.BuyerID)
	if err != nil {
		s.log.Errorw("failed to load buyer for delivery effects", "order_id", order.ID, "error", err)
		return
	}

	if buyer.Role != models.RoleShopkeeper {
		return
	}

	if _, err := s.stock.AdjustStock(ctx, buyer.ID, order.ProductID, order.Quantity); err != nil {
		s.log.Errorw("failed to book delivered stock",
			"order_id", order.ID, "shopkeeper_id", buyer.ID, "error", err)
	}
}

// ApplyPaymentResult is the payment callback: it flips payment_status from
// pending and tells the buyer. The conditional write keeps a late or
// duplicate callback from overwriting a settled payment.
func (s *Service) ApplyPaymentResult(ctx context.Context, orderID uuid.UUID, paid bool) error {
	next := models.PaymentPaid
	title := "Payment Successful"
	message := "Your payment was received."
	if !paid {
		next = models.PaymentFailed
		title = "Payment Failed"
		message = "Your payment could not be processed. Please try again."
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.orders.UpdatePaymentStatus(ctx, orderID, models.PaymentPending, next); err != nil {
		return err
	}

	s.notifier.Notify(ctx, order.BuyerID, title, message, models.NotificationPayment,
		map[string]any{"order_id": orderID, "payment_status": next})

	return nil
}

func statusNotification(order *models.Order) (title, message string) {
	switch order.Status {
	case models.OrderConfirmed:
		return "Order Confirmed",
			fmt.Sprintf("Your order for %d units has been confirmed by the farmer.", order.Quantity)
	case models.OrderRejected:
		return "Order Rejected",
			"Your order was rejected by the farmer."
	case models.OrderDelivered:
		return "Order Delivered",
			fmt.Sprintf("Your order for %d units has been delivered.", order.Quantity)
	default:
		return "Order Updated",
			fmt.Sprintf("Your order is now %s.", order.Status)
	}
}
