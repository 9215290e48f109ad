package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"farm2city/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewService(NewMemoryStore(), zap.NewNop().Sugar(), opts...)
}

func initiate(t *testing.T, svc *Service) string {
	t.Helper()
	resp, err := svc.Initiate(context.Background(), Request{
		OrderID: uuid.New(),
		Amount:  decimal.RequireFromString("310.00"),
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	return resp.TransactionID
}

func TestInitiate(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.Initiate(context.Background(), Request{
		OrderID: uuid.New(),
		Amount:  decimal.RequireFromString("310.00"),
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.TransactionID, "txn_"))
	assert.Equal(t, "/payment/process/"+resp.TransactionID, resp.PaymentURL)

	txn, err := svc.Status(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, txn.Status)
	assert.Equal(t, "INR", txn.Currency)
}

func TestInitiate_Validation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Initiate(context.Background(), Request{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = svc.Initiate(context.Background(), Request{OrderID: uuid.New()})
	assert.ErrorIs(t, err, repository.ErrInvalidInput, "zero amount must be rejected")

	_, err = svc.Initiate(context.Background(), Request{
		OrderID: uuid.New(),
		Amount:  decimal.NewFromInt(-5),
	})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestProcess_SuccessPath(t *testing.T) {
	svc := newTestService(t, WithRoll(func() float64 { return 0.1 }))
	id := initiate(t, svc)

	resp, err := svc.Process(context.Background(), id, MethodUPI)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	txn, err := svc.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, txn.Status)
	assert.Equal(t, MethodUPI, txn.Method)
}

func TestProcess_FailurePath(t *testing.T) {
	svc := newTestService(t, WithRoll(func() float64 { return 0.95 }))
	id := initiate(t, svc)

	resp, err := svc.Process(context.Background(), id, MethodCard)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)

	txn, err := svc.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, txn.Status)
}

func TestProcess_OnlyPendingSettles(t *testing.T) {
	svc := newTestService(t, WithRoll(func() float64 { return 0.1 }))
	id := initiate(t, svc)

	_, err := svc.Process(context.Background(), id, MethodUPI)
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), id, MethodUPI)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestProcess_UnknownMethodAndTransaction(t *testing.T) {
	svc := newTestService(t)
	id := initiate(t, svc)

	_, err := svc.Process(context.Background(), id, Method("cheque"))
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = svc.Process(context.Background(), "txn_missing", MethodUPI)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRefund(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t,
		WithRoll(func() float64 { return 0.1 }),
		WithClock(func() time.Time { return clock }),
	)
	id := initiate(t, svc)

	_, err := svc.Process(context.Background(), id, MethodWallet)
	require.NoError(t, err)

	resp, err := svc.Refund(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.TransactionID, "refund_"))

	original, err := svc.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, original.Status)

	refund, err := svc.Status(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, refund.Status)
	assert.True(t, refund.Amount.Equal(original.Amount))
	assert.Equal(t, clock, refund.Timestamp)
}

func TestRefund_OnlyCompleted(t *testing.T) {
	svc := newTestService(t, WithRoll(func() float64 { return 0.95 }))
	id := initiate(t, svc)

	// Pending transactions cannot be refunded.
	_, err := svc.Refund(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	// Neither can failed ones.
	_, err = svc.Process(context.Background(), id, MethodCard)
	require.NoError(t, err)
	_, err = svc.Refund(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = svc.Refund(context.Background(), "txn_missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
