package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a principal email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateReferralCode is returned when a referral code is already issued.
	ErrDuplicateReferralCode = errors.New("referral code already issued")
	// ErrValueOutOfRange is returned when an amount does not fit its column.
	ErrValueOutOfRange = errors.New("value out of range")
)

const (
	pgUniqueViolation        = "23505"
	pgInvalidTextRepr        = "22P02"
	pgNumericValueOutOfRange = "22003"

	professionalsEmailKey    = "professionals_email_key"
	professionalsReferralKey = "professionals_referral_code_key"
)

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case professionalsEmailKey:
		return ErrDuplicateEmail
	case professionalsReferralKey:
		return ErrDuplicateReferralCode
	default:
		return err
	}
}

// mapPgError translates driver errors into the repository sentinels. A key
// that is not a valid uuid cannot match any row, so it reads as ErrNotFound.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgInvalidTextRepr:
		return ErrNotFound
	case pgNumericValueOutOfRange:
		return fmt.Errorf("%w: %w", ErrValueOutOfRange, err)
	case pgUniqueViolation:
		return mapUniqueViolation(err)
	default:
		return err
	}
}
