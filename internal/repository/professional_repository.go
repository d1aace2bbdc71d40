package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fgtintas/referral-service/internal/domain"
)

// ProfessionalRepository handles persistence for professionals and their credentials.
type ProfessionalRepository interface {
	// Create inserts the professional. Email and referral code uniqueness are
	// enforced by the store and surface as ErrDuplicateEmail / ErrDuplicateReferralCode.
	Create(ctx context.Context, pro *domain.Professional) error
	GetByID(ctx context.Context, id string) (*domain.Professional, error)
	GetByEmail(ctx context.Context, email string) (*domain.Professional, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.Professional, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Professional, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.Professional, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context, filter ProfessionalFilter) ([]domain.Professional, error)
}

// ProfessionalFilter defines query params for professional listing.
type ProfessionalFilter struct {
	Active *bool
	Limit  int
	Offset int
}

type professionalRepository struct {
	pool *pgxpool.Pool
}

// NewProfessionalRepository instantiates the repository.
func NewProfessionalRepository(pool *pgxpool.Pool) ProfessionalRepository {
	return &professionalRepository{pool: pool}
}

const professionalColumns = `id, email, password_hash, referral_code, name, phone, whatsapp, specialty,
            description, city, state, photo, active, commission_balance, created_at, updated_at`

func scanProfessional(row pgx.Row) (*domain.Professional, error) {
	var pro domain.Professional
	if err := row.Scan(
		&pro.ID,
		&pro.Email,
		&pro.PasswordHash,
		&pro.ReferralCode,
		&pro.Profile.Name,
		&pro.Profile.Phone,
		&pro.Profile.Whatsapp,
		&pro.Profile.Specialty,
		&pro.Profile.Description,
		&pro.Profile.City,
		&pro.Profile.State,
		&pro.Profile.Photo,
		&pro.Active,
		&pro.CommissionBalance,
		&pro.CreatedAt,
		&pro.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &pro, nil
}

func (r *professionalRepository) Create(ctx context.Context, pro *domain.Professional) error {
	const query = `
        INSERT INTO professionals (id, email, password_hash, referral_code, name, phone, whatsapp,
            specialty, description, city, state, photo, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING commission_balance, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		pro.ID,
		pro.Email,
		pro.PasswordHash,
		pro.ReferralCode,
		pro.Profile.Name,
		pro.Profile.Phone,
		pro.Profile.Whatsapp,
		pro.Profile.Specialty,
		pro.Profile.Description,
		pro.Profile.City,
		pro.Profile.State,
		pro.Profile.Photo,
		pro.Active,
	).Scan(&pro.CommissionBalance, &pro.CreatedAt, &pro.UpdatedAt)
	return mapPgError(err)
}

func (r *professionalRepository) GetByID(ctx context.Context, id string) (*domain.Professional, error) {
	return scanProfessional(r.pool.QueryRow(ctx, `SELECT `+professionalColumns+` FROM professionals WHERE id=$1`, id))
}

func (r *professionalRepository) GetByEmail(ctx context.Context, email string) (*domain.Professional, error) {
	return scanProfessional(r.pool.QueryRow(ctx, `SELECT `+professionalColumns+` FROM professionals WHERE email=$1`, email))
}

func (r *professionalRepository) GetByReferralCode(ctx context.Context, code string) (*domain.Professional, error) {
	return scanProfessional(r.pool.QueryRow(ctx, `SELECT `+professionalColumns+` FROM professionals WHERE referral_code=$1`, code))
}

func (r *professionalRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM professionals WHERE referral_code=$1)`, code).Scan(&exists)
	return exists, err
}

func (r *professionalRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Professional, error) {
	const query = `
        UPDATE professionals SET
            name=COALESCE($2, name),
            phone=COALESCE($3, phone),
            whatsapp=COALESCE($4, whatsapp),
            specialty=COALESCE($5, specialty),
            description=COALESCE($6, description),
            city=COALESCE($7, city),
            state=COALESCE($8, state),
            photo=COALESCE($9, photo),
            updated_at=NOW()
        WHERE id=$1
        RETURNING ` + professionalColumns

	return scanProfessional(r.pool.QueryRow(ctx, query,
		id,
		update.Name,
		update.Phone,
		update.Whatsapp,
		update.Specialty,
		update.Description,
		update.City,
		update.State,
		update.Photo,
	))
}

func (r *professionalRepository) SetActive(ctx context.Context, id string, active bool) (*domain.Professional, error) {
	query := `UPDATE professionals SET active=$2, updated_at=NOW() WHERE id=$1 RETURNING ` + professionalColumns
	return scanProfessional(r.pool.QueryRow(ctx, query, id, active))
}

func (r *professionalRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE professionals SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *professionalRepository) List(ctx context.Context, filter ProfessionalFilter) ([]domain.Professional, error) {
	query := `SELECT ` + professionalColumns + ` FROM professionals`
	args := []any{}
	clauses := []string{}

	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Professional{}
	for rows.Next() {
		pro, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *pro)
	}
	return result, mapPgError(rows.Err())
}
