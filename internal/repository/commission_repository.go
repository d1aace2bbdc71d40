package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fgtintas/referral-service/internal/domain"
)

// CommissionRepository is the append-only commission ledger.
type CommissionRepository interface {
	// Append stores entry and increments the professional's balance by
	// entry.CommissionValue in one transaction, returning the updated professional.
	Append(ctx context.Context, entry *domain.CommissionEntry) (*domain.Professional, error)
	// Statement returns the professional with their entries, most recent
	// first, read from one snapshot so the balance equals the entries' sum.
	Statement(ctx context.Context, professionalID string) (*domain.Professional, []domain.CommissionEntry, error)
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type commissionRepository struct {
	pool *pgxpool.Pool
}

// NewCommissionRepository builds repository.
func NewCommissionRepository(pool *pgxpool.Pool) CommissionRepository {
	return &commissionRepository{pool: pool}
}

func (r *commissionRepository) Append(ctx context.Context, entry *domain.CommissionEntry) (*domain.Professional, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The UPDATE takes the row lock, so concurrent appends for the same
	// professional serialize here and each sees the previous increment.
	pro, err := scanProfessional(tx.QueryRow(ctx, `
        UPDATE professionals
        SET commission_balance = commission_balance + $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+professionalColumns,
		entry.ProfessionalID,
		entry.CommissionValue,
	))
	if err != nil {
		return nil, err
	}

	const insert = `
        INSERT INTO commission_entries (id, professional_id, entry_date, client_name, purchase_value,
            commission_rate, commission_value, added_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at`
	if err := tx.QueryRow(ctx, insert,
		entry.ID,
		entry.ProfessionalID,
		entry.Date,
		entry.ClientName,
		entry.PurchaseValue,
		entry.CommissionRate,
		entry.CommissionValue,
		entry.AddedBy,
	).Scan(&entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert commission entry: %w", mapPgError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}
	return pro, nil
}

func (r *commissionRepository) Statement(ctx context.Context, professionalID string) (*domain.Professional, []domain.CommissionEntry, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, nil, fmt.Errorf("begin statement tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	pro, err := scanProfessional(tx.QueryRow(ctx, `SELECT `+professionalColumns+` FROM professionals WHERE id=$1`, professionalID))
	if err != nil {
		return nil, nil, err
	}
	entries, err := listEntries(ctx, tx, professionalID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit statement tx: %w", err)
	}
	return pro, entries, nil
}

func listEntries(ctx context.Context, q rowQuerier, professionalID string) ([]domain.CommissionEntry, error) {
	const query = `
        SELECT id, professional_id, entry_date, client_name, purchase_value, commission_rate,
            commission_value, added_by, created_at
        FROM commission_entries WHERE professional_id=$1
        ORDER BY created_at DESC, id DESC`
	rows, err := q.Query(ctx, query, professionalID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	result := []domain.CommissionEntry{}
	for rows.Next() {
		var entry domain.CommissionEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ProfessionalID,
			&entry.Date,
			&entry.ClientName,
			&entry.PurchaseValue,
			&entry.CommissionRate,
			&entry.CommissionValue,
			&entry.AddedBy,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, mapPgError(rows.Err())
}
