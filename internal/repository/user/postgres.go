package user

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("user-repo")}
}

const userColumns = `id::text, name, email, password_hash, street, city, department, address_description, created_at`

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (name, email, password_hash, street, city, department, address_description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(ctx, q,
		u.Name,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Address.Street,
		u.Address.City,
		u.Address.Department,
		u.Address.Description,
	))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id::text = $1 LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
UPDATE users
SET name = $2, email = $3, street = $4, city = $5, department = $6, address_description = $7, updated_at = now()
WHERE id::text = $1
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(ctx, q,
		u.ID,
		u.Name,
		strings.ToLower(u.Email),
		u.Address.Street,
		u.Address.City,
		u.Address.Department,
		u.Address.Description,
	))
}

func (r *postgresRepo) SetPasswordHash(ctx context.Context, id, hash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id::text = $1`, id, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Address.Street,
		&u.Address.City,
		&u.Address.Department,
		&u.Address.Description,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("scan", zap.Error(err))
		return nil, err
	}
	return &u, nil
}
