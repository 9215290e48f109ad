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

type reorderRuleRepo struct {
	db *pgxpool.Pool
}

func NewReorderRuleRepository(db *pgxpool.Pool) ReorderRuleRepository {
	return &reorderRuleRepo{db: db}
}

// validateRule rejects malformed configurations at write time so the
// evaluator can assume every stored rule is well formed.
func validateRule(rule *models.AutoReorderRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule cannot be nil", ErrInvalidRule)
	}
	if rule.ShopkeeperID == uuid.Nil || rule.ProductID == uuid.Nil {
		return fmt.Errorf("%w: shopkeeper and product IDs are required", ErrInvalidRule)
	}
	if rule.MinStock < 0 {
		return fmt.Errorf("%w: min_stock cannot be negative", ErrInvalidRule)
	}
	if rule.ReorderQuantity <= 0 {
		return fmt.Errorf("%w: reorder_quantity must be positive", ErrInvalidRule)
	}
	if !rule.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, rule.Frequency)
	}
	return nil
}

func (r *reorderRuleRepo) Create(ctx context.Context, rule *models.AutoReorderRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	sql := `INSERT INTO auto_reorder_settings (
		shopkeeper_id,
		product_id,
		min_stock,
		reorder_quantity,
		frequency,
		enabled,
		created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (shopkeeper_id, product_id) DO NOTHING
	RETURNING id
	`

	rule.CreatedAt = time.Now()

	err := r.db.QueryRow(ctx, sql,
		rule.ShopkeeperID,
		rule.ProductID,
		rule.MinStock,
		rule.ReorderQuantity,
		rule.Frequency,
		rule.Enabled,
		rule.CreatedAt,
	).Scan(&rule.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The unique pair already has a rule; at most one is allowed.
			return fmt.Errorf("%w: rule for (%s, %s) already exists", ErrDuplicate, rule.ShopkeeperID, rule.ProductID)
		}
		return fmt.Errorf("failed to create reorder rule: %w", err)
	}

	return nil
}

func (r *reorderRuleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AutoReorderRule, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: rule ID cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT
		id,
		shopkeeper_id,
		product_id,
		min_stock,
		reorder_quantity,
		frequency,
		enabled,
		last_triggered_at,
		created_at
		FROM auto_reorder_settings
		WHERE id = $1
	`

	var rule models.AutoReorderRule

	err := r.db.QueryRow(ctx, sql, id).Scan(
		&rule.ID,
		&rule.ShopkeeperID,
		&rule.ProductID,
		&rule.MinStock,
		&rule.ReorderQuantity,
		&rule.Frequency,
		&rule.Enabled,
		&rule.LastTriggeredAt,
		&rule.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reorder rule %s: %w", id, err)
	}

	return &rule, nil
}

func (r *reorderRuleRepo) GetByShopkeeper(ctx context.Context, shopkeeperID uuid.UUID) ([]models.AutoReorderRule, error) {
	if shopkeeperID == uuid.Nil {
		return nil, fmt.Errorf("%w: shopkeeper ID cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT
		id,
		shopkeeper_id,
		product_id,
		min_stock,
		reorder_quantity,
		frequency,
		enabled,
		last_triggered_at,
		created_at
		FROM auto_reorder_settings
		WHERE shopkeeper_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, sql, shopkeeperID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reorder rules for shopkeeper %s: %w", shopkeeperID, err)
	}

	defer rows.Close()

	var rules []models.AutoReorderRule

	for rows.Next() {
		var rule models.AutoReorderRule

		err := rows.Scan(&rule.ID,
			&rule.ShopkeeperID,
			&rule.ProductID,
			&rule.MinStock,
			&rule.ReorderQuantity,
			&rule.Frequency,
			&rule.Enabled,
			&rule.LastTriggeredAt,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reorder rules: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return rules, nil
}

func (r *reorderRuleRepo) Update(ctx context.Context, rule *models.AutoReorderRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	if rule.ID == uuid.Nil {
		return fmt.Errorf("%w: rule ID cannot be empty", ErrInvalidInput)
	}

	sql := `UPDATE auto_reorder_settings
		SET min_stock = $1,
			reorder_quantity = $2,
			frequency = $3,
			enabled = $4
		WHERE id = $5 AND shopkeeper_id = $6
	`

	result, err := r.db.Exec(ctx, sql,
		rule.MinStock,
		rule.ReorderQuantity,
		rule.Frequency,
		rule.Enabled,
		rule.ID,
		rule.ShopkeeperID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reorder rule %s: %w", rule.ID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *reorderRuleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: rule ID cannot be empty", ErrInvalidInput)
	}

	sql := `DELETE FROM auto_reorder_settings WHERE id = $1`

	result, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete reorder rule %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *reorderRuleRepo) ListEnabledWithStock(ctx context.Context) ([]models.ReorderCandidate, error) {
	// Rules without an inventory record yet evaluate against zero stock.
	sql := `SELECT
		s.id,
		s.shopkeeper_id,
		s.product_id,
		s.min_stock,
		s.reorder_quantity,
		s.frequency,
		s.enabled,
		s.last_triggered_at,
		s.created_at,
		COALESCE(i.current_stock, 0)
		FROM auto_reorder_settings s
		LEFT JOIN inventory i
			ON i.shopkeeper_id = s.shopkeeper_id AND i.product_id = s.product_id
		WHERE s.enabled = TRUE
		ORDER BY s.created_at
	`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled reorder rules: %w", err)
	}

	defer rows.Close()

	var candidates []models.ReorderCandidate

	for rows.Next() {
		var c models.ReorderCandidate

		err := rows.Scan(&c.Rule.ID,
			&c.Rule.ShopkeeperID,
			&c.Rule.ProductID,
			&c.Rule.MinStock,
			&c.Rule.ReorderQuantity,
			&c.Rule.Frequency,
			&c.Rule.Enabled,
			&c.Rule.LastTriggeredAt,
			&c.Rule.CreatedAt,
			&c.CurrentStock,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reorder candidates: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return candidates, nil
}

func (r *reorderRuleRepo) MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: rule ID cannot be empty", ErrInvalidInput)
	}

	sql := `UPDATE auto_reorder_settings
		SET last_triggered_at = $1
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, sql, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark reorder rule %s triggered: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
