package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farm2city/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type inventoryRepo struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) InventoryRepository {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) Get(ctx context.Context, shopkeeperID, productID uuid.UUID) (*models.InventoryRecord, error) {
	if shopkeeperID == uuid.Nil || productID == uuid.Nil {
		return nil, fmt.Errorf("%w: shopkeeper and product IDs are required", ErrInvalidInput)
	}

	sql := `SELECT
		id,
		shopkeeper_id,
		product_id,
		quantity_in,
		quantity_out,
		current_stock,
		created_at,
		updated_at
		FROM inventory
		WHERE shopkeeper_id = $1 AND product_id = $2
	`

	var rec models.InventoryRecord

	err := r.db.QueryRow(ctx, sql, shopkeeperID, productID).Scan(
		&rec.ID,
		&rec.ShopkeeperID,
		&rec.ProductID,
		&rec.QuantityIn,
		&rec.QuantityOut,
		&rec.CurrentStock,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get inventory (%s, %s): %w", shopkeeperID, productID, err)
	}

	return &rec, nil
}

func (r *inventoryRepo) GetByShopkeeper(ctx context.Context, shopkeeperID uuid.UUID) ([]models.InventoryRecord, error) {
	if shopkeeperID == uuid.Nil {
		return nil, fmt.Errorf("%w: shopkeeper ID cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT
		id,
		shopkeeper_id,
		product_id,
		quantity_in,
		quantity_out,
		current_stock,
		created_at,
		updated_at
		FROM inventory
		WHERE shopkeeper_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(ctx, sql, shopkeeperID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory for shopkeeper %s: %w", shopkeeperID, err)
	}

	defer rows.Close()

	var records []models.InventoryRecord

	for rows.Next() {
		var rec models.InventoryRecord

		err := rows.Scan(&rec.ID,
			&rec.ShopkeeperID,
			&rec.ProductID,
			&rec.QuantityIn,
			&rec.QuantityOut,
			&rec.CurrentStock,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory records: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return records, nil
}

func (r *inventoryRepo) Ensure(ctx context.Context, shopkeeperID, productID uuid.UUID) error {
	if shopkeeperID == uuid.Nil || productID == uuid.Nil {
		return fmt.Errorf("%w: shopkeeper and product IDs are required", ErrInvalidInput)
	}

	sql := `INSERT INTO inventory (
		shopkeeper_id,
		product_id,
		quantity_in,
		quantity_out,
		current_stock,
		created_at,
		updated_at
	) VALUES ($1, $2, 0, 0, 0, $3, $3)
	ON CONFLICT (shopkeeper_id, product_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, sql, shopkeeperID, productID, time.Now()); err != nil {
		return fmt.Errorf("failed to ensure inventory record (%s, %s): %w", shopkeeperID, productID, err)
	}

	return nil
}

func (r *inventoryRepo) ApplyDelta(ctx context.Context, shopkeeperID, productID uuid.UUID, delta int) (*models.InventoryRecord, error) {
	if shopkeeperID == uuid.Nil || productID == uuid.Nil {
		return nil, fmt.Errorf("%w: shopkeeper and product IDs are required", ErrInvalidInput)
	}
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta cannot be zero", ErrInvalidInput)
	}

	in, out := 0, 0
	if delta > 0 {
		in = delta
	} else {
		out = -delta
	}

	// Single conditional statement: counters, current_stock and updated_at
	// move together, and the stock guard in the WHERE clause rejects any
	// movement that would go negative without mutating the row.
	sql := `UPDATE inventory
		SET quantity_in = quantity_in + $1,
			quantity_out = quantity_out + $2,
			current_stock = current_stock + $3,
			updated_at = $4
		WHERE shopkeeper_id = $5 AND product_id = $6 AND current_stock + $3 >= 0
		RETURNING id, shopkeeper_id, product_id, quantity_in, quantity_out, current_stock, created_at, updated_at
	`

	var rec models.InventoryRecord

	err := r.db.QueryRow(ctx, sql, in, out, delta, time.Now(), shopkeeperID, productID).Scan(
		&rec.ID,
		&rec.ShopkeeperID,
		&rec.ProductID,
		&rec.QuantityIn,
		&rec.QuantityOut,
		&rec.CurrentStock,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The row exists after Ensure, so no match means the guard fired.
			if _, gerr := r.Get(ctx, shopkeeperID, productID); gerr != nil {
				return nil, gerr
			}
			return nil, fmt.Errorf("%w: stock movement %d rejected for (%s, %s)", ErrInsufficientStock, delta, shopkeeperID, productID)
		}
		return nil, fmt.Errorf("failed to apply stock movement (%s, %s): %w", shopkeeperID, productID, err)
	}

	return &rec, nil
}
