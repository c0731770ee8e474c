package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/tinysteps/smart-explorer/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: foreignKeyViolationCode}, store.ErrInvalidEntity},
		{"check violation", &pgconn.PgError{Code: checkViolationCode}, store.ErrInvalidEntity},
		{"not null violation", &pgconn.PgError{Code: notNullViolationCode}, store.ErrInvalidEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapError(tt.in), tt.want)
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, MapError(nil))
	})

	t.Run("unknown passes through", func(t *testing.T) {
		err := errors.New("boom")
		assert.Same(t, err, MapError(err))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: checkViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrSessionNotFound))
	assert.ErrorIs(t, CheckRowsAffected(fakeResult{rows: 0}, store.ErrSessionNotFound), store.ErrSessionNotFound)
	assert.ErrorIs(t, CheckRowsAffected(fakeResult{rows: 0}, nil), store.ErrNotFound)
	assert.Error(t, CheckRowsAffected(fakeResult{err: errors.New("driver")}, nil))
	assert.Error(t, CheckRowsAffected(nil, nil))
}
