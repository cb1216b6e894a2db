package domain

import "time"

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusIssued    BookingStatus = "ISSUED"
	BookingStatusReturned  BookingStatus = "RETURNED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID        int32 `json:"id"`
	ShopID    int32 `json:"shop_id"`
	OrderID   int32 `json:"order_id"`
	ProductID int32 `json:"product_id"`
	// Half-open interval: the booking occupies [FromDateTime, ToDateTime).
	FromDateTime     time.Time     `json:"from_datetime"`
	ToDateTime       time.Time     `json:"to_datetime"`
	DecidedRentCents int32         `json:"decided_rent_cents"`
	// AdvanceCents and RemainingCents are caches recomputed from the payment
	// ledger on every mutation. The ledger is the source of truth.
	AdvanceCents       int32         `json:"advance_cents"`
	RemainingCents     int32         `json:"remaining_cents"`
	Status             BookingStatus `json:"status"`
	ConflictOverridden bool          `json:"conflict_overridden"`
	Notes              string        `json:"notes"`
	CreatedOn          time.Time     `json:"created_on"`
	UpdatedOn          time.Time     `json:"updated_on"`
}

// Overlaps reports whether the booking's interval intersects [from, to)
// under half-open semantics: a booking ending exactly when another starts
// does not overlap it.
func (b *Booking) Overlaps(from, to time.Time) bool {
	return b.FromDateTime.Before(to) && b.ToDateTime.After(from)
}

// ConflictingBooking is the caller-facing view of an overlapping booking,
// carrying enough context to display or to decide on an override.
type ConflictingBooking struct {
	BookingID    int32         `json:"booking_id"`
	OrderID      int32         `json:"order_id"`
	CustomerName string        `json:"customer_name"`
	FromDateTime time.Time     `json:"from_datetime"`
	ToDateTime   time.Time     `json:"to_datetime"`
	Status       BookingStatus `json:"status"`
}
