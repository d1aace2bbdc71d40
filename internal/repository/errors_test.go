package repository

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapUniqueViolationByConstraint(t *testing.T) {
	email := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: professionalsEmailKey}
	code := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: professionalsReferralKey}
	other := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "admin_users_email_key"}
	notUnique := &pgconn.PgError{Code: "23503", ConstraintName: professionalsEmailKey}

	assert.ErrorIs(t, mapUniqueViolation(email), ErrDuplicateEmail)
	assert.ErrorIs(t, mapUniqueViolation(fmt.Errorf("insert: %w", code)), ErrDuplicateReferralCode)
	assert.Same(t, other, mapUniqueViolation(other))
	assert.Same(t, notUnique, mapUniqueViolation(notUnique))
}

func TestMapPgError(t *testing.T) {
	plain := errors.New("connection reset")

	cases := map[string]struct {
		in   error
		want error
	}{
		"no rows":            {pgx.ErrNoRows, ErrNotFound},
		"wrapped no rows":    {fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		"malformed uuid key": {&pgconn.PgError{Code: pgInvalidTextRepr, Message: `invalid input syntax for type uuid: "abc"`}, ErrNotFound},
		"numeric overflow":   {&pgconn.PgError{Code: pgNumericValueOutOfRange, Message: "numeric field overflow"}, ErrValueOutOfRange},
		"duplicate email":    {&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: professionalsEmailKey}, ErrDuplicateEmail},
		"duplicate code":     {&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: professionalsReferralKey}, ErrDuplicateReferralCode},
		"unrelated":          {plain, plain},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, mapPgError(tc.in), tc.want)
		})
	}
	assert.NoError(t, mapPgError(nil))
}

func TestMapPgErrorKeepsDriverDetailOnOverflow(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgNumericValueOutOfRange, ColumnName: "commission_balance"}

	err := mapPgError(pgErr)
	var got *pgconn.PgError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "commission_balance", got.ColumnName)
}

// The duplicate mapping keys off constraint names, so the schema must keep
// declaring them under exactly these names.
func TestMigrationDeclaresMappedConstraints(t *testing.T) {
	ddl, err := os.ReadFile("../persistence/migrations/0001_init.sql")
	require.NoError(t, err)

	assert.Contains(t, string(ddl), "CONSTRAINT "+professionalsEmailKey+" UNIQUE (email)")
	assert.Contains(t, string(ddl), "CONSTRAINT "+professionalsReferralKey+" UNIQUE (referral_code)")
}
