package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConcurrency is surfaced after bounded retries of a serializable
// transaction keep failing on storage contention.
var ErrConcurrency = errors.New("operation aborted by concurrent update, please retry")

// ErrOrderCancelled rejects any mutation of an order that has reached its
// terminal CANCELLED state.
var ErrOrderCancelled = errors.New("order is cancelled")

// ErrInvalidArgument marks malformed or out-of-range request input.
var ErrInvalidArgument = errors.New("invalid argument")

// Invalidf builds an ErrInvalidArgument with a formatted message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

type NotFoundError struct {
	Entity string
	ID     int32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConflictError is returned when a booking create or edit overlaps existing
// non-cancelled bookings and no override was requested. It carries the
// conflicting set so the caller can choose to override.
type ConflictError struct {
	Conflicts []ConflictingBooking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("interval overlaps %d existing booking(s)", len(e.Conflicts))
}

type InvalidTransitionError struct {
	BookingID int32
	Current   BookingStatus
	Required  BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d is %s, operation requires %s", e.BookingID, e.Current, e.Required)
}

type AlreadyFullyPaidError struct {
	BookingID int32
}

func (e *AlreadyFullyPaidError) Error() string {
	return fmt.Sprintf("booking %d is already fully paid", e.BookingID)
}

type OverpaymentError struct {
	BookingID int32
	MaxCents  int32
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment exceeds remaining amount of booking %d, maximum accepted is %d", e.BookingID, e.MaxCents)
}

type NothingToRefundError struct {
	BookingID int32
}

func (e *NothingToRefundError) Error() string {
	return fmt.Sprintf("booking %d has no paid amount to refund", e.BookingID)
}

type RefundExceedsPaidError struct {
	BookingID int32
	MaxCents  int32
}

func (e *RefundExceedsPaidError) Error() string {
	return fmt.Sprintf("refund exceeds paid amount of booking %d, maximum refundable is %d", e.BookingID, e.MaxCents)
}

type InvalidRefundAmountError struct {
	RequestedCents int32
	MaxCents       int32
}

func (e *InvalidRefundAmountError) Error() string {
	return fmt.Sprintf("refund amount %d out of range, must be between 0 and %d", e.RequestedCents, e.MaxCents)
}

type AllBookingsFullyPaidError struct {
	OrderID int32
}

func (e *AllBookingsFullyPaidError) Error() string {
	return fmt.Sprintf("all bookings of order %d are fully paid, nothing to distribute to", e.OrderID)
}

// NonCancellableStateError blocks whole-order cancellation while any
// booking has already been issued or returned.
type NonCancellableStateError struct {
	OrderID  int32
	Statuses []BookingStatus
}

func (e *NonCancellableStateError) Error() string {
	parts := make([]string, len(e.Statuses))
	for i, s := range e.Statuses {
		parts[i] = string(s)
	}
	return fmt.Sprintf("order %d has bookings in non-cancellable states: %s", e.OrderID, strings.Join(parts, ", "))
}

// IsValidation reports whether err belongs to the domain validation family,
// i.e. the request was well-formed but violated a business rule.
func IsValidation(err error) bool {
	var (
		fullyPaid  *AlreadyFullyPaidError
		overpay    *OverpaymentError
		noRefund   *NothingToRefundError
		refundMax  *RefundExceedsPaidError
		refundArg  *InvalidRefundAmountError
		allPaid    *AllBookingsFullyPaidError
	)
	return errors.As(err, &fullyPaid) ||
		errors.As(err, &overpay) ||
		errors.As(err, &noRefund) ||
		errors.As(err, &refundMax) ||
		errors.As(err, &refundArg) ||
		errors.As(err, &allPaid)
}
