package pg_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()
	dup := &pgconn.PgError{Code: "23505"}
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, pg.IsNotFoundError(errors.Join(errors.New("ctx"), pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))
	assert.True(t, pg.IsDuplicateKeyError(errors.Join(errors.New("insert"), dup)))
	assert.False(t, pg.IsDuplicateKeyError(fk))
	assert.True(t, pg.IsForeignKeyViolationError(fk))
	assert.False(t, pg.IsForeignKeyViolationError(nil))
}

func TestConnectRejectsEmptyConnectionString(t *testing.T) {
	t.Parallel()
	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}

func TestMigrateRequiresFS(t *testing.T) {
	t.Parallel()
	err := pg.Migrate(context.Background(), nil, nil, "", pg.Config{}, nil)
	assert.ErrorIs(t, err, pg.ErrMigrationsNotProvided)
}

type mockBeginner struct {
	mock.Mock
}

func (m *mockBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func TestWithTxBeginFailure(t *testing.T) {
	t.Parallel()
	db := &mockBeginner{}
	db.On("Begin", mock.Anything).Return(nil, errors.New("pool exhausted"))

	called := false
	err := pg.WithTx(context.Background(), db, func(pgx.Tx) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, pg.ErrTxFailed)
	assert.False(t, called)
	db.AssertExpectations(t)
}
