package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Place(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, line := range o.Lines {
		if err := reserve(ctx, tx, line); err != nil {
			return nil, err
		}
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Total = domain.OrderTotal(o.Lines)
	if err := tx.QueryRow(ctx, `
INSERT INTO orders (id, user_id, email, total_cents)
VALUES ($1, $2::uuid, $3, $4)
RETURNING created_at
`, o.ID, o.UserID, o.Email, domain.PriceCents(o.Total)).Scan(&o.CreatedAt); err != nil {
		return nil, err
	}

	for i, line := range o.Lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_lines (order_id, position, product_id, name, price_cents, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
`, o.ID, i, line.ID, line.Name, domain.PriceCents(line.Price), line.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &o, nil
}

func reserve(ctx context.Context, tx pgx.Tx, line domain.CartLineItem) error {
	cmd, err := tx.Exec(ctx, `
UPDATE products
SET stock = stock - $1
WHERE id = $2 AND stock >= $1
`, line.Quantity, line.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, line.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("product %s: %w", line.ID, domain.ErrNotFound)
	}
	return fmt.Errorf("product %s: %w", line.ID, domain.ErrInsufficientStock)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var (
		o          domain.Order
		totalCents int64
		createdAt  time.Time
	)
	err := r.pool.QueryRow(ctx, `
SELECT id::text, user_id::text, email, total_cents, created_at
FROM orders
WHERE id::text = $1
`, id).Scan(&o.ID, &o.UserID, &o.Email, &totalCents, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	o.Total = domain.PriceFromCents(totalCents)
	o.CreatedAt = createdAt

	rows, err := r.pool.Query(ctx, `
SELECT product_id, name, price_cents, quantity
FROM order_lines
WHERE order_id = $1::uuid
ORDER BY position
`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			line  domain.CartLineItem
			cents int64
		)
		if err := rows.Scan(&line.ID, &line.Name, &cents, &line.Quantity); err != nil {
			return nil, err
		}
		line.Price = domain.PriceFromCents(cents)
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}
