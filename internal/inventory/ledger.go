package inventory

import (
	"context"
	"fmt"

	"farm2city/internal/models"
	"farm2city/internal/repository"

	"github.com/google/uuid"
)

// Stock classification thresholds. Anything at or above the medium
// threshold is considered high.
const (
	LowStockThreshold    = 10
	MediumStockThreshold = 50
)

type StockStatus string

const (
	StockOut    StockStatus = "out"
	StockLow    StockStatus = "low"
	StockMedium StockStatus = "medium"
	StockHigh   StockStatus = "high"
)

// StatusFor classifies a current stock level.
func StatusFor(stock int) StockStatus {
	switch {
	case stock <= 0:
		return StockOut
	case stock < LowStockThreshold:
		return StockLow
	case stock < MediumStockThreshold:
		return StockMedium
	default:
		return StockHigh
	}
}

// Line is an inventory record together with its classification, the shape
// shopkeeper-facing views consume.
type Line struct {
	models.InventoryRecord
	Status StockStatus `json:"status"`
}

// Ledger tracks cumulative stock-in/stock-out per (shopkeeper, product)
// pair. All mutations go through AdjustStock.
type Ledger struct {
	repo repository.InventoryRepository
}

func NewLedger(repo repository.InventoryRepository) *Ledger {
	return &Ledger{repo: repo}
}

// AdjustStock applies one stock movement: positive delta is stock-in,
// negative is stock-out. The record is created on first use (get-or-create
// is part of the contract, not a side effect). A movement that would drive
// current stock negative fails with ErrInsufficientStock and changes
// nothing.
func (l *Ledger) AdjustStock(ctx context.Context, shopkeeperID, productID uuid.UUID, delta int) (*models.InventoryRecord, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: stock adjustment cannot be zero", repository.ErrInvalidInput)
	}

	if err := l.repo.Ensure(ctx, shopkeeperID, productID); err != nil {
		return nil, err
	}

	return l.repo.ApplyDelta(ctx, shopkeeperID, productID, delta)
}

// Overview returns every ledger line for a shopkeeper with stock status
// attached.
func (l *Ledger) Overview(ctx context.Context, shopkeeperID uuid.UUID) ([]Line, error) {
	records, err := l.repo.GetByShopkeeper(ctx, shopkeeperID)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(records))
	for _, rec := range records {
		lines = append(lines, Line{
			InventoryRecord: rec,
			Status:          StatusFor(rec.CurrentStock),
		})
	}

	return lines, nil
}
