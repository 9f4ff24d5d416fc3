package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInTx(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("commits on success", func(t *testing.T) {
		tx := new(MockTx)
		tx.On("Commit", ctx).Return(nil)

		err := inTx(ctx, func(context.Context) (pgx.Tx, error) { return tx, nil }, logger, func(pgx.Tx) error { return nil })
		assert.NoError(t, err)
		tx.AssertNotCalled(t, "Rollback", ctx)
		tx.AssertExpectations(t)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		tx := new(MockTx)
		tx.On("Rollback", ctx).Return(nil)
		boom := errors.New("boom")

		err := inTx(ctx, func(context.Context) (pgx.Tx, error) { return tx, nil }, logger, func(pgx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		tx.AssertNotCalled(t, "Commit", ctx)
		tx.AssertExpectations(t)
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		tx := new(MockTx)
		tx.On("Rollback", ctx).Return(nil).Once()

		assert.PanicsWithValue(t, "nil map", func() {
			_ = inTx(ctx, func(context.Context) (pgx.Tx, error) { return tx, nil }, logger, func(pgx.Tx) error {
				panic("nil map")
			})
		})
		tx.AssertNotCalled(t, "Commit", ctx)
		tx.AssertExpectations(t)
	})

	t.Run("begin failure", func(t *testing.T) {
		called := false
		err := inTx(ctx, func(context.Context) (pgx.Tx, error) { return nil, errors.New("pool closed") }, logger,
			func(pgx.Tx) error {
				called = true
				return nil
			})
		assert.ErrorContains(t, err, "failed to begin transaction")
		assert.False(t, called)
	})
}
