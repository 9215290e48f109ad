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

type orderRepo struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order cannot be nil", ErrInvalidInput)
	}
	if order.BuyerID == uuid.Nil || order.FarmerID == uuid.Nil || order.ProductID == uuid.Nil {
		return fmt.Errorf("%w: buyer, farmer and product IDs are required", ErrInvalidInput)
	}
	if order.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	sql := `INSERT INTO orders (
		buyer_id,
		farmer_id,
		product_id,
		quantity,
		unit_price,
		total_amount,
		status,
		payment_status,
		delivery_date,
		notes,
		created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id
	`

	order.CreatedAt = time.Now()

	err := r.db.QueryRow(ctx, sql,
		order.BuyerID,
		order.FarmerID,
		order.ProductID,
		order.Quantity,
		order.UnitPrice,
		order.TotalAmount,
		order.Status,
		order.PaymentStatus,
		order.DeliveryDate,
		nullableText(order.Notes),
		order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: order ID cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT
		id,
		buyer_id,
		farmer_id,
		product_id,
		quantity,
		unit_price,
		total_amount,
		status,
		payment_status,
		delivery_date,
		COALESCE(notes, ''),
		created_at
		FROM orders
		WHERE id = $1
	`

	var order models.Order

	err := r.db.QueryRow(ctx, sql, id).Scan(
		&order.ID,
		&order.BuyerID,
		&order.FarmerID,
		&order.ProductID,
		&order.Quantity,
		&order.UnitPrice,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentStatus,
		&order.DeliveryDate,
		&order.Notes,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	return &order, nil
}

func (r *orderRepo) GetByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user ID cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT
		id,
		buyer_id,
		farmer_id,
		product_id,
		quantity,
		unit_price,
		total_amount,
		status,
		payment_status,
		delivery_date,
		COALESCE(notes, ''),
		created_at
		FROM orders
		WHERE buyer_id = $1 OR farmer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var o models.Order

		err := rows.Scan(&o.ID,
			&o.BuyerID,
			&o.FarmerID,
			&o.ProductID,
			&o.Quantity,
			&o.UnitPrice,
			&o.TotalAmount,
			&o.Status,
			&o.PaymentStatus,
			&o.DeliveryDate,
			&o.Notes,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan orders: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return orders, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next models.OrderStatus) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: order ID cannot be empty", ErrInvalidInput)
	}
	if !expected.Valid() || !next.Valid() {
		return fmt.Errorf("%w: unknown order status", ErrInvalidInput)
	}

	sql := `UPDATE orders
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.Exec(ctx, sql, next, id, expected)
	if err != nil {
		return fmt.Errorf("update status of order %s: %w", id, err)
	}

	// Zero rows means the stored status no longer matches: either the order
	// is gone or a concurrent transition won the race.
	if result.RowsAffected() == 0 {
		return ErrInvalidTransition
	}

	return nil
}

func (r *orderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, expected, next models.PaymentStatus) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: order ID cannot be empty", ErrInvalidInput)
	}

	sql := `UPDATE orders
		SET payment_status = $1
		WHERE id = $2 AND payment_status = $3
	`

	result, err := r.db.Exec(ctx, sql, next, id, expected)
	if err != nil {
		return fmt.Errorf("update payment status of order %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrInvalidTransition
	}

	return nil
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
