package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

func TestStore_WithinTx_Commit(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_RollbackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_RetriesSerializationFailure(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	serErr := &pq.Error{Code: "40001"}

	// First attempt fails with a serialization error, second succeeds.
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		attempts++
		if attempts == 1 {
			return serErr
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_ExhaustedRetriesSurfaceConcurrencyError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db, 2)
	ctx := context.Background()

	serErr := &pq.Error{Code: "40P01"}
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	txErr := store.WithinTx(ctx, func(tx repository.Store) error {
		return serErr
	})
	assert.ErrorIs(t, txErr, domain.ErrConcurrency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_NestedRunsInSameScope(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	// Only one Begin/Commit pair: the inner WithinTx joins the outer one.
	mock.ExpectBegin()
	mock.ExpectCommit()

	err := store.WithinTx(ctx, func(outer repository.Store) error {
		return outer.WithinTx(ctx, func(inner repository.Store) error {
			return nil
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
