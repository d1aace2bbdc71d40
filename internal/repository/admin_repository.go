package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fgtintas/referral-service/internal/domain"
)

// AdminRepository defines persistence access for admin principals.
type AdminRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	Upsert(ctx context.Context, admin *domain.Admin) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository returns a Postgres-backed implementation.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

const adminColumns = `id, email, name, password_hash, created_at`

func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE id=$1`, id)
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE email=$1`, email)
}

func (r *adminRepository) getOne(ctx context.Context, query string, arg any) (*domain.Admin, error) {
	var admin domain.Admin
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&admin.PasswordHash,
		&admin.CreatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &admin, nil
}

// Upsert provisions an admin, replacing name and password hash when the email exists.
func (r *adminRepository) Upsert(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admin_users (id, email, name, password_hash)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name, password_hash=EXCLUDED.password_hash
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		admin.ID,
		admin.Email,
		admin.Name,
		admin.PasswordHash,
	).Scan(&admin.ID, &admin.CreatedAt)
}

func (r *adminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE admin_users SET password_hash=$1 WHERE id=$2`, passwordHash, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
