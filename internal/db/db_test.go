package db

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrations, "migrations")
	require.NoError(t, err)
	defer src.Close()

	v, err := src.First()
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	up, _, err := src.ReadUp(v)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	_ = up.Close()
	assert.Contains(t, string(body), "CREATE TABLE orders")

	down, _, err := src.ReadDown(v)
	require.NoError(t, err)
	_ = down.Close()
}

func TestErrorCodes(t *testing.T) {
	wrap := func(code string) error { return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code}) }

	assert.True(t, IsUniqueViolation(wrap("23505")))
	assert.True(t, IsCheckViolation(wrap("23514")))
	assert.True(t, IsConflict(wrap("40P01")))
	assert.True(t, IsConflict(wrap("40001")))
	assert.False(t, IsConflict(wrap("23505")))
	assert.False(t, IsConflict(errors.New("plain")))
}
