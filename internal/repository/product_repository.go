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

type productRepo struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `
		id,
		farmer_id,
		name,
		price,
		quantity,
		availability,
		COALESCE(description, ''),
		COALESCE(category, ''),
		COALESCE(unit, ''),
		harvest_date,
		expiry_date,
		created_at,
		updated_at`

func validateProduct(p *models.Product) error {
	if p == nil {
		return fmt.Errorf("%w: product cannot be nil", ErrInvalidInput)
	}
	if p.FarmerID == uuid.Nil {
		return fmt.Errorf("%w: farmer ID is required", ErrInvalidInput)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: product name required", ErrInvalidInput)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: product price should be positive", ErrInvalidInput)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: product quantity cannot be negative", ErrInvalidInput)
	}
	return nil
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	sql := `
		INSERT INTO products (
			farmer_id,
			name,
			price,
			quantity,
			availability,
			description,
			category,
			unit,
			harvest_date,
			expiry_date,
			created_at,
			updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id
	`

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	err := r.db.QueryRow(ctx, sql,
		p.FarmerID,
		p.Name,
		p.Price,
		p.Quantity,
		p.Availability,
		nullableText(p.Description),
		nullableText(p.Category),
		nullableText(p.Unit),
		p.HarvestDate,
		p.ExpiryDate,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: product ID cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product models.Product

	err := r.db.QueryRow(ctx, sql, id).Scan(
		&product.ID,
		&product.FarmerID,
		&product.Name,
		&product.Price,
		&product.Quantity,
		&product.Availability,
		&product.Description,
		&product.Category,
		&product.Unit,
		&product.HarvestDate,
		&product.ExpiryDate,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id %s: %w", id, err)
	}

	return &product, nil
}

func (r *productRepo) GetAll(ctx context.Context, onlyAvailable bool) ([]models.Product, error) {
	sql := `SELECT ` + productColumns + ` FROM products`
	if onlyAvailable {
		sql += ` WHERE availability = TRUE`
	}
	sql += ` ORDER BY name`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}

	defer rows.Close()

	return scanProducts(rows)
}

func (r *productRepo) GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error) {
	if farmerID == uuid.Nil {
		return nil, fmt.Errorf("%w: farmer ID cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT ` + productColumns + ` FROM products WHERE farmer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, sql, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get products for farmer %s: %w", farmerID, err)
	}

	defer rows.Close()

	return scanProducts(rows)
}

func (r *productRepo) GetByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if category == "" {
		return nil, fmt.Errorf("category cannot be empty: %w", ErrInvalidInput)
	}

	sql := `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY name`

	rows, err := r.db.Query(ctx, sql, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get products with category: %w", err)
	}

	defer rows.Close()

	return scanProducts(rows)
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		return fmt.Errorf("%w: product ID cannot be empty", ErrInvalidInput)
	}

	sql := `
	UPDATE products
	SET
		name = $1,
		price = $2,
		quantity = $3,
		availability = $4,
		description = $5,
		category = $6,
		unit = $7,
		harvest_date = $8,
		expiry_date = $9,
		updated_at = $10
	WHERE id = $11 AND farmer_id = $12
	RETURNING updated_at
	`

	now := time.Now()

	err := r.db.QueryRow(ctx, sql,
		p.Name,
		p.Price,
		p.Quantity,
		p.Availability,
		nullableText(p.Description),
		nullableText(p.Category),
		nullableText(p.Unit),
		p.HarvestDate,
		p.ExpiryDate,
		now,
		p.ID,
		p.FarmerID,
	).Scan(&p.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update product %s: %w", p.ID, err)
	}

	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: product ID cannot be empty", ErrInvalidInput)
	}

	sql := `DELETE FROM products WHERE id = $1`

	result, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *productRepo) ReserveQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: product ID cannot be empty", ErrInvalidInput)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	// Conditional decrement: the quantity guard in the WHERE clause keeps
	// concurrent reservations from overselling the same product.
	sql := `UPDATE products
		SET quantity = quantity - $1, updated_at = $2
		WHERE id = $3 AND quantity >= $1
	`

	result, err := r.db.Exec(ctx, sql, quantity, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reserve %d of product %s: %w", quantity, id, err)
	}

	if result.RowsAffected() == 0 {
		// Either the product is missing or it cannot cover the quantity.
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return fmt.Errorf("%w: product %s cannot cover quantity %d", ErrInsufficientStock, id, quantity)
	}

	return nil
}

func (r *productRepo) ReleaseQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: product ID cannot be empty", ErrInvalidInput)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	sql := `UPDATE products
		SET quantity = quantity + $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, sql, quantity, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to release %d of product %s: %w", quantity, id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanProducts(rows pgx.Rows) ([]models.Product, error) {
	var products []models.Product

	for rows.Next() {
		var p models.Product

		err := rows.Scan(&p.ID,
			&p.FarmerID,
			&p.Name,
			&p.Price,
			&p.Quantity,
			&p.Availability,
			&p.Description,
			&p.Category,
			&p.Unit,
			&p.HarvestDate,
			&p.ExpiryDate,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan products: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return products, nil
}
