package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"farm2city/internal/models"
	"farm2city/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

type fakeProductRepo struct {
	products map[uuid.UUID]*models.Product
	reserved map[uuid.UUID]int
	failOn   error
}

func (f *fakeProductRepo) Create(ctx context.Context, product *models.Product) error { return nil }

func (f *fakeProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) GetAll(ctx context.Context, onlyAvailable bool) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) GetByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, product *models.Product) error { return nil }
func (f *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error            { return nil }

func (f *fakeProductRepo) ReserveQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if f.failOn != nil {
		return f.failOn
	}
	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Quantity < quantity {
		return repository.ErrInsufficientStock
	}
	p.Quantity -= quantity
	if f.reserved == nil {
		f.reserved = make(map[uuid.UUID]int)
	}
	f.reserved[id] += quantity
	return nil
}

func (f *fakeProductRepo) ReleaseQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Quantity += quantity
	f.reserved[id] -= quantity
	return nil
}

type fakeOrderRepo struct {
	orders    map[uuid.UUID]*models.Order
	createErr error
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) GetByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.BuyerID == userID || o.FarmerID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next models.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status != expected {
		return repository.ErrInvalidTransition
	}
	o.Status = next
	return nil
}

func (f *fakeOrderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, expected, next models.PaymentStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.PaymentStatus != expected {
		return repository.ErrInvalidTransition
	}
	o.PaymentStatus = next
	return nil
}

type stockCall struct {
	shopkeeperID uuid.UUID
	productID    uuid.UUID
	delta        int
}

type fakeStock struct {
	calls []stockCall
}

func (f *fakeStock) AdjustStock(ctx context.Context, shopkeeperID, productID uuid.UUID, delta int) (*models.InventoryRecord, error) {
	f.calls = append(f.calls, stockCall{shopkeeperID, productID, delta})
	return &models.InventoryRecord{ShopkeeperID: shopkeeperID, ProductID: productID, CurrentStock: delta}, nil
}

type sentNotification struct {
	userID uuid.UUID
	title  string
	typ    models.NotificationType
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string, typ models.NotificationType, data map[string]any) {
	f.sent = append(f.sent, sentNotification{userID: userID, title: title, typ: typ})
}

type serviceFixture struct {
	svc      *Service
	users    *fakeUserRepo
	products *fakeProductRepo
	orders   *fakeOrderRepo
	stock    *fakeStock
	notifier *fakeNotifier

	farmer     *models.User
	trader     *models.User
	shopkeeper *models.User
	product    *models.Product
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	farmer := &models.User{ID: uuid.New(), Name: "Ravi", Role: models.RoleFarmer}
	trader := &models.User{ID: uuid.New(), Name: "Meera", Role: models.RoleTrader}
	shopkeeper := &models.User{ID: uuid.New(), Name: "Anil", Role: models.RoleShopkeeper}

	product := &models.Product{
		ID:           uuid.New(),
		FarmerID:     farmer.ID,
		Name:         "Tomatoes",
		Price:        decimal.RequireFromString("15.5"),
		Quantity:     100,
		Availability: true,
		Unit:         "kg",
	}

	f := &serviceFixture{
		users:      &fakeUserRepo{users: map[uuid.UUID]*models.User{farmer.ID: farmer, trader.ID: trader, shopkeeper.ID: shopkeeper}},
		products:   &fakeProductRepo{products: map[uuid.UUID]*models.Product{product.ID: product}},
		orders:     &fakeOrderRepo{orders: make(map[uuid.UUID]*models.Order)},
		stock:      &fakeStock{},
		notifier:   &fakeNotifier{},
		farmer:     farmer,
		trader:     trader,
		shopkeeper: shopkeeper,
		product:    product,
	}
	f.svc = NewService(f.orders, f.products, f.users, f.stock, f.notifier, zap.NewNop().Sugar())
	return f
}

func TestCreate_ComputesExactTotal(t *testing.T) {
	f := newServiceFixture(t)

	order, err := f.svc.Create(context.Background(), f.trader.ID, CreateRequest{
		ProductID: f.product.ID,
		Quantity:  20,
	})
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("310.0")),
		"total was %s", order.TotalAmount)
	assert.True(t, order.UnitPrice.Equal(f.product.Price))
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
}

func TestCreate_ReservesQuantityAndNotifiesFarmer(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Create(context.Background(), f.trader.ID, CreateRequest{
		ProductID: f.product.ID,
		Quantity:  30,
	})
	require.NoError(t, err)

	assert.Equal(t, 70, f.products.products[f.product.ID].Quantity)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.farmer.ID, f.notifier.sent[0].userID)
	assert.Equal(t, "New Order Received", f.notifier.sent[0].title)
}

func TestCreate_RejectsFarmerBuyer(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Create(context.Background(), f.farmer.ID, CreateRequest{
		ProductID: f.product.ID,
		Quantity:  5,
	})
	assert.ErrorIs(t, err, repository.ErrNotAllowed)
}

func TestCreate_InsufficientProductQuantity(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Create(context.Background(), f.trader.ID, CreateRequest{
		ProductID: f.product.ID,
		Quantity:  101,
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Empty(t, f.notifier.sent)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	f := newServiceFixture(t)

	for _, qty := range []int{0, -3} {
		_, err := f.svc.Create(context.Background(), f.trader.ID, CreateRequest{
			ProductID: f.product.ID,
			Quantity:  qty,
		})
		assert.ErrorIs(t, err, repository.ErrInvalidInput)
	}
}

func TestCreate_ReleasesReservationWhenStoreFails(t *testing.T) {
	f := newServiceFixture(t)
	f.orders.createErr = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), f.trader.ID, CreateRequest{
		ProductID: f.product.ID,
		Quantity:  25,
	})
	require.Error(t, err)

	assert.Equal(t, 100, f.products.products[f.product.ID].Quantity,
		"reservation must be released when the order cannot be stored")
	assert.Empty(t, f.notifier.sent)
}

func placeOrder(t *testing.T, f *serviceFixture, buyerID uuid.UUID, qty int) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), buyerID, CreateRequest{
		ProductID: f.product.ID,
		Quantity:  qty,
	})
	require.NoError(t, err)
	f.notifier.sent = nil
	return order
}

func TestTransition_ConfirmNotifiesBuyer(t *testing.T) {
	f := newServiceFixture(t)
	order := placeOrder(t, f, f.trader.ID, 10)

	updated, err := f.svc.Transition(context.Background(), f.farmer.ID, order.ID, models.OrderConfirmed)
	require.NoError(t, err)

	assert.Equal(t, models.OrderConfirmed, updated.Status)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.trader.ID, f.notifier.sent[0].userID)
	assert.Equal(t, "Order Confirmed", f.notifier.sent[0].title)
}

func TestTransition_OnlyFarmerMayAct(t *testing.T) {
	f := newServiceFixture(t)
	order := placeOrder(t, f, f.trader.ID, 10)

	_, err := f.svc.Transition(context.Background(), f.trader.ID, order.ID, models.OrderConfirmed)
	assert.ErrorIs(t, err, repository.ErrNotAllowed)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)
}

func TestTransition_RejectReleasesReservation(t *testing.T) {
	f := newServiceFixture(t)
	order := placeOrder(t, f, f.trader.ID, 40)
	assert.Equal(t, 60, f.products.products[f.product.ID].Quantity)

	_, err := f.svc.Transition(context.Background(), f.farmer.ID, order.ID, models.OrderRejected)
	require.NoError(t, err)

	assert.Equal(t, 100, f.products.products[f.product.ID].Quantity)
}

func TestTransition_TerminalOrderStaysPut(t *testing.T) {
	f := newServiceFixture(t)
	order := placeOrder(t, f, f.trader.ID, 10)

	_, err := f.svc.Transition(context.Background(), f.farmer.ID, order.ID, models.OrderRejected)
	require.NoError(t, err)

	_, err = f.svc.Transition(context.Background(), f.farmer.ID, order.ID, models.OrderConfirmed)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestTransition_DeliveryBooksShopkeeperStock(t *testing.T) {
	f := newServiceFixture(t)
	order := placeOrder(t, f, f.shopkeeper.ID, 15)

	_, err := f.svc.Transition(context.Background(), f.farmer.ID, order.ID, models.OrderConfirmed)
	require.NoError(t, err)
	_, err = f.svc.Transition(context.Background(), f.farmer.ID, order.ID, models.OrderDelivered)
	require.NoError(t, err)

	require.Len(t, f.stock.calls, 1)
	assert.Equal(t, f.shopkeeper.ID, f.stock.calls[0].shopkeeperID)
	assert.Equal(t, f.product.ID, f.stock.calls[0].productID)
	assert.Equal(t, 15, f.stock.calls[0].delta)
}

func TestTransition_DeliveryToTraderSkipsLedger(t *testing.T) {
	f := newServiceFixture(t)
	order := placeOrder(t, f, f.trader.ID, 15)

	_, err := f.svc.Transition(context.Background(), f.farmer.ID, order.ID, models.OrderConfirmed)
	require.NoError(t, err)
	_, err = f.svc.Transition(context.Background(), f.farmer.ID, order.ID, models.OrderDelivered)
	require.NoError(t, err)

	assert.Empty(t, f.stock.calls)
}

func TestGet_HiddenFromStrangers(t *testing.T) {
	f := newServiceFixture(t)
	order := placeOrder(t, f, f.trader.ID, 10)

	_, err := f.svc.Get(context.Background(), f.shopkeeper.ID, order.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := f.svc.Get(context.Background(), f.trader.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	got, err = f.svc.Get(context.Background(), f.farmer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestApplyPaymentResult(t *testing.T) {
	f := newServiceFixture(t)
	order := placeOrder(t, f, f.trader.ID, 10)

	err := f.svc.ApplyPaymentResult(context.Background(), order.ID, true)
	require.NoError(t, err)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.trader.ID, f.notifier.sent[0].userID)
	assert.Equal(t, models.NotificationPayment, f.notifier.sent[0].typ)

	// A duplicate callback cannot overwrite the settled payment.
	err = f.svc.ApplyPaymentResult(context.Background(), order.ID, false)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	stored, err = f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
}
