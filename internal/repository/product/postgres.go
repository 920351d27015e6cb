package product

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product-repo")}
}

const productColumns = `id, name, description, price_cents, image, stock, created_at`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, name, description, price_cents, image, stock)
VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    image = EXCLUDED.image,
    stock = EXCLUDED.stock
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.ID,
		p.Name,
		p.Description,
		domain.PriceCents(p.Price),
		p.Image,
		p.Stock,
	))
	if err != nil {
		r.logger.Error("upsert", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("upserted", zap.String("id", res.ID))
	return res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		cents int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &cents, &p.Image, &p.Stock, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Price = domain.PriceFromCents(cents)
	return &p, nil
}
