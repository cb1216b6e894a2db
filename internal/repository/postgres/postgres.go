package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the repositories can
// run against either a pooled connection or an open transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const defaultTxAttempts = 3

type Store struct {
	db         *sql.DB
	q          querier
	txAttempts int

	products *productRepository
	orders   *orderRepository
	bookings *bookingRepository
}

func NewStore(db *sql.DB, txAttempts int) *Store {
	if txAttempts <= 0 {
		txAttempts = defaultTxAttempts
	}
	return newStore(db, db, txAttempts)
}

func newStore(db *sql.DB, q querier, txAttempts int) *Store {
	return &Store{
		db:         db,
		q:          q,
		txAttempts: txAttempts,
		products:   &productRepository{q: q},
		orders:     &orderRepository{q: q},
		bookings:   &bookingRepository{q: q},
	}
}

func (s *Store) Products() repository.ProductRepository { return s.products }
func (s *Store) Orders() repository.OrderRepository     { return s.orders }
func (s *Store) Bookings() repository.BookingRepository { return s.bookings }

// WithinTx runs fn inside a SERIALIZABLE transaction and retries
// serialization failures up to the configured attempt count. Serializable
// isolation is what makes the find-conflicts-then-insert sequence safe
// against a concurrent booking of the same product and interval.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		// Already inside a transaction, just run in the same scope.
		return fn(s)
	}

	var lastErr error
	for attempt := 1; attempt <= s.txAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		err = fn(newStore(s.db, tx, s.txAttempts))
		if err == nil {
			err = tx.Commit()
			if err == nil {
				return nil
			}
		} else {
			_ = tx.Rollback()
		}

		if !isSerializationFailure(err) {
			return err
		}
		logger.Warn("Serialization failure, retrying transaction", "attempt", attempt, "error", err)
		lastErr = err
	}

	return fmt.Errorf("%w: %v", domain.ErrConcurrency, lastErr)
}

// isSerializationFailure matches Postgres SQLSTATE 40001 (serialization
// failure) and 40P01 (deadlock detected).
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
