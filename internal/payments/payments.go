package payments

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"farm2city/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mock payment processor. No gateway is called; outcomes are simulated.
// Unlike a global singleton, the service is constructed once at startup and
// handed to whoever needs it, with the transaction store injectable so tests
// and future persistent backends can swap it.

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

type Method string

const (
	MethodUPI        Method = "upi"
	MethodCard       Method = "card"
	MethodNetBanking Method = "netbanking"
	MethodWallet     Method = "wallet"
)

func (m Method) Valid() bool {
	switch m {
	case MethodUPI, MethodCard, MethodNetBanking, MethodWallet:
		return true
	}
	return false
}

type Transaction struct {
	ID        string          `json:"transaction_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Status    Status          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Method    Method          `json:"method,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Request struct {
	OrderID  uuid.UUID       `json:"order_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type Response struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	PaymentURL    string `json:"payment_url,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Store holds transactions. The in-memory implementation below matches the
// mock's non-persistent contract.
type Store interface {
	Put(txn Transaction)
	Get(id string) (Transaction, bool)
}

type MemoryStore struct {
	mu   sync.Mutex
	txns map[string]Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txns: make(map[string]Transaction)}
}

func (s *MemoryStore) Put(txn Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[txn.ID] = txn
}

func (s *MemoryStore) Get(id string) (Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[id]
	return txn, ok
}

type Service struct {
	store       Store
	successRate float64
	roll        func() float64
	now         func() time.Time
	log         *zap.SugaredLogger
}

type Option func(*Service)

// WithClock fixes the service's notion of time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRoll replaces the randomness source deciding payment outcomes.
func WithRoll(roll func() float64) Option {
	return func(s *Service) { s.roll = roll }
}

func WithSuccessRate(rate float64) Option {
	return func(s *Service) { s.successRate = rate }
}

func NewService(store Store, log *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		successRate: 0.9,
		roll:        rand.Float64,
		now:         time.Now,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Initiate(ctx context.Context, req Request) (Response, error) {
	if req.OrderID == uuid.Nil {
		return Response{}, fmt.Errorf("%w: order ID is required", repository.ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return Response{}, fmt.Errorf("%w: amount must be positive", repository.ErrInvalidInput)
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	txn := Transaction{
		ID:        fmt.Sprintf("txn_%d_%s", s.now().UnixMilli(), uuid.NewString()[:8]),
		OrderID:   req.OrderID,
		Status:    StatusPending,
		Amount:    req.Amount,
		Currency:  currency,
		Timestamp: s.now(),
	}
	s.store.Put(txn)

	s.log.Infow("payment initiated",
		"transaction_id", txn.ID, "order_id", req.OrderID, "amount", req.Amount)

	return Response{
		Success:       true,
		TransactionID: txn.ID,
		PaymentURL:    "/payment/process/" + txn.ID,
	}, nil
}

// Process settles a pending transaction. Outcome is simulated with the
// configured success rate (90% by default, like the mock it replaces).
func (s *Service) Process(ctx context.Context, transactionID string, method Method) (Response, error) {
	if !method.Valid() {
		return Response{}, fmt.Errorf("%w: unknown payment method %q", repository.ErrInvalidInput, method)
	}

	txn, ok := s.store.Get(transactionID)
	if !ok {
		return Response{}, fmt.Errorf("%w: transaction %s", repository.ErrNotFound, transactionID)
	}
	if txn.Status != StatusPending {
		return Response{}, fmt.Errorf("%w: transaction %s is already %s", repository.ErrInvalidInput, transactionID, txn.Status)
	}

	txn.Method = method
	if s.roll() < s.successRate {
		txn.Status = StatusCompleted
		s.store.Put(txn)

		s.log.Infow("payment completed",
			"transaction_id", txn.ID, "amount", txn.Amount, "method", method)

		return Response{Success: true, TransactionID: txn.ID}, nil
	}

	txn.Status = StatusFailed
	s.store.Put(txn)

	return Response{
		Success:       false,
		TransactionID: txn.ID,
		Error:         "Payment failed. Please try again.",
	}, nil
}

func (s *Service) Status(ctx context.Context, transactionID string) (Transaction, error) {
	txn, ok := s.store.Get(transactionID)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: transaction %s", repository.ErrNotFound, transactionID)
	}
	return txn, nil
}

// Refund reverses a completed transaction; anything else is rejected.
func (s *Service) Refund(ctx context.Context, transactionID string) (Response, error) {
	txn, ok := s.store.Get(transactionID)
	if !ok {
		return Response{}, fmt.Errorf("%w: transaction %s", repository.ErrNotFound, transactionID)
	}
	if txn.Status != StatusCompleted {
		return Response{}, fmt.Errorf("%w: only completed transactions can be refunded", repository.ErrInvalidInput)
	}

	txn.Status = StatusRefunded
	s.store.Put(txn)

	refund := Transaction{
		ID:        fmt.Sprintf("refund_%d_%s", s.now().UnixMilli(), uuid.NewString()[:8]),
		OrderID:   txn.OrderID,
		Status:    StatusCompleted,
		Amount:    txn.Amount,
		Currency:  txn.Currency,
		Timestamp: s.now(),
	}
	s.store.Put(refund)

	s.log.Infow("refund processed",
		"original_transaction_id", txn.ID, "refund_transaction_id", refund.ID, "amount", refund.Amount)

	return Response{Success: true, TransactionID: refund.ID}, nil
}
