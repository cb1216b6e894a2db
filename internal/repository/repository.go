package repository

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, shopID, id int32) (*domain.Product, error)
	ListByShop(ctx context.Context, shopID int32) ([]domain.Product, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, shopID, id int32) (*domain.Order, error)
	// Update persists customer fields, cached totals and status.
	Update(ctx context.Context, o *domain.Order) error
	ListByShop(ctx context.Context, shopID int32, page, pageSize int32) ([]domain.Order, int32, error)
	// ListActiveIDs returns the ids of every non-cancelled order of the shop,
	// for reconciliation sweeps.
	ListActiveIDs(ctx context.Context, shopID int32) ([]int32, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, shopID, id int32) (*domain.Booking, error)
	// Update persists interval, rent, cached balances, flags and status.
	Update(ctx context.Context, b *domain.Booking) error
	ListByOrder(ctx context.Context, shopID, orderID int32) ([]domain.Booking, error)
	// FindOverlapping returns non-cancelled bookings of the product whose
	// half-open interval intersects [from, to). excludeID lets an in-place
	// edit ignore itself; pass 0 to exclude nothing.
	FindOverlapping(ctx context.Context, shopID, productID int32, from, to time.Time, excludeID int32) ([]domain.ConflictingBooking, error)
	// ListIssuedPastDue returns ISSUED bookings whose to_datetime is before
	// the cutoff, for the overdue return digest.
	ListIssuedPastDue(ctx context.Context, shopID int32, cutoff time.Time) ([]domain.Booking, error)

	AppendPayment(ctx context.Context, e *domain.PaymentEntry) error
	// UpdatePaymentAmount rewrites one entry's amount and note. Used only by
	// the advance-reconcile path of a pre-issue edit; everything else treats
	// the ledger as append-only.
	UpdatePaymentAmount(ctx context.Context, shopID, entryID, amountCents int32, note string) error
	ListPayments(ctx context.Context, shopID, bookingID int32) ([]domain.PaymentEntry, error)
	ListPaymentsByOrder(ctx context.Context, shopID, orderID int32) ([]domain.PaymentEntry, error)
}

// Store bundles the repositories together with transactional execution.
// WithinTx runs fn against a store whose repositories share one serializable
// transaction, retrying a bounded number of times on serialization failure.
// The conflict-check-then-write and ledger-append-then-recompute sequences
// must run inside WithinTx to keep the no-overlap and balance invariants.
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository
	Bookings() BookingRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}
