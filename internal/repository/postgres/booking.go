package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
)

type bookingRepository struct {
	q querier
}

const bookingColumns = `id, shop_id, order_id, product_id, from_datetime, to_datetime,
	decided_rent_cents, advance_cents, remaining_cents, status, conflict_overridden, COALESCE(notes, ''), created_on, updated_on`

func scanBooking(row interface{ Scan(...any) error }, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.ShopID, &b.OrderID, &b.ProductID, &b.FromDateTime, &b.ToDateTime,
		&b.DecidedRentCents, &b.AdvanceCents, &b.RemainingCents, &b.Status, &b.ConflictOverridden,
		&b.Notes, &b.CreatedOn, &b.UpdatedOn)
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (shop_id, order_id, product_id, from_datetime, to_datetime,
	          decided_rent_cents, advance_cents, remaining_cents, status, conflict_overridden, notes, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	now := time.Now()
	b.CreatedOn = now
	b.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query,
		b.ShopID, b.OrderID, b.ProductID, b.FromDateTime, b.ToDateTime,
		b.DecidedRentCents, b.AdvanceCents, b.RemainingCents, b.Status, b.ConflictOverridden, b.Notes,
		now, now).Scan(&b.ID)
}

func (r *bookingRepository) GetByID(ctx context.Context, shopID, id int32) (*domain.Booking, error) {
	b := &domain.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND shop_id = $2`
	err := scanBooking(r.q.QueryRowContext(ctx, query, id, shopID), b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "booking", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `UPDATE bookings SET product_id=$1, from_datetime=$2, to_datetime=$3, decided_rent_cents=$4,
	          advance_cents=$5, remaining_cents=$6, status=$7, conflict_overridden=$8, notes=$9, updated_on=$10
	          WHERE id=$11 AND shop_id=$12`
	b.UpdatedOn = time.Now()
	_, err := r.q.ExecContext(ctx, query,
		b.ProductID, b.FromDateTime, b.ToDateTime, b.DecidedRentCents,
		b.AdvanceCents, b.RemainingCents, b.Status, b.ConflictOverridden, b.Notes, b.UpdatedOn,
		b.ID, b.ShopID)
	return err
}

func (r *bookingRepository) ListByOrder(ctx context.Context, shopID, orderID int32) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE order_id = $1 AND shop_id = $2 ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, orderID, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// FindOverlapping applies the half-open interval test in SQL: [a0,a1) and
// [b0,b1) overlap iff a0 < b1 AND a1 > b0. Cancelled bookings never count.
func (r *bookingRepository) FindOverlapping(ctx context.Context, shopID, productID int32, from, to time.Time, excludeID int32) ([]domain.ConflictingBooking, error) {
	query := `SELECT b.id, b.order_id, o.customer_name, b.from_datetime, b.to_datetime, b.status
	          FROM bookings b
	          JOIN orders o ON o.id = b.order_id
	          WHERE b.shop_id = $1 AND b.product_id = $2
	            AND b.status <> $3
	            AND b.from_datetime < $4 AND b.to_datetime > $5
	            AND b.id <> $6
	          ORDER BY b.from_datetime`
	rows, err := r.q.QueryContext(ctx, query, shopID, productID, domain.BookingStatusCancelled, to, from, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []domain.ConflictingBooking
	for rows.Next() {
		var c domain.ConflictingBooking
		if err := rows.Scan(&c.BookingID, &c.OrderID, &c.CustomerName, &c.FromDateTime, &c.ToDateTime, &c.Status); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func (r *bookingRepository) ListIssuedPastDue(ctx context.Context, shopID int32, cutoff time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE shop_id = $1 AND status = $2 AND to_datetime < $3 ORDER BY to_datetime`
	rows, err := r.q.QueryContext(ctx, query, shopID, domain.BookingStatusIssued, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) AppendPayment(ctx context.Context, e *domain.PaymentEntry) error {
	query := `INSERT INTO booking_payments (shop_id, booking_id, type, amount_cents, note, recorded_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if e.RecordedOn.IsZero() {
		e.RecordedOn = time.Now()
	}
	return r.q.QueryRowContext(ctx, query, e.ShopID, e.BookingID, e.Type, e.AmountCents, e.Note, e.RecordedOn).Scan(&e.ID)
}

func (r *bookingRepository) UpdatePaymentAmount(ctx context.Context, shopID, entryID, amountCents int32, note string) error {
	query := `UPDATE booking_payments SET amount_cents=$1, note=$2 WHERE id=$3 AND shop_id=$4`
	res, err := r.q.ExecContext(ctx, query, amountCents, note, entryID, shopID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.NotFoundError{Entity: "payment entry", ID: entryID}
	}
	return nil
}

func (r *bookingRepository) ListPayments(ctx context.Context, shopID, bookingID int32) ([]domain.PaymentEntry, error) {
	query := `SELECT id, shop_id, booking_id, type, amount_cents, COALESCE(note, ''), recorded_on
	          FROM booking_payments WHERE booking_id = $1 AND shop_id = $2 ORDER BY recorded_on, id`
	return r.listPayments(ctx, query, bookingID, shopID)
}

func (r *bookingRepository) ListPaymentsByOrder(ctx context.Context, shopID, orderID int32) ([]domain.PaymentEntry, error) {
	query := `SELECT p.id, p.shop_id, p.booking_id, p.type, p.amount_cents, COALESCE(p.note, ''), p.recorded_on
	          FROM booking_payments p
	          JOIN bookings b ON b.id = p.booking_id
	          WHERE b.order_id = $1 AND p.shop_id = $2 ORDER BY p.recorded_on, p.id`
	return r.listPayments(ctx, query, orderID, shopID)
}

func (r *bookingRepository) listPayments(ctx context.Context, query string, args ...any) ([]domain.PaymentEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PaymentEntry
	for rows.Next() {
		var e domain.PaymentEntry
		if err := rows.Scan(&e.ID, &e.ShopID, &e.BookingID, &e.Type, &e.AmountCents, &e.Note, &e.RecordedOn); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
