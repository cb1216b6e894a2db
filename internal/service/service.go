package service

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
)

// AddBookingInput carries everything needed to attach a new booking to an
// order. DecidedRentCents <= 0 falls back to the product's default rent.
type AddBookingInput struct {
	ProductID         int32
	FromDateTime      time.Time
	ToDateTime        time.Time
	DecidedRentCents  int32
	AdvanceCents      int32
	Notes             string
	OverrideConflicts bool
}

// UpdateBookingInput is a sparse patch; nil fields are left untouched.
// Setting AdvanceCents reconciles the booking's single ADVANCE ledger entry
// rather than appending a new one.
type UpdateBookingInput struct {
	ProductID         *int32
	FromDateTime      *time.Time
	ToDateTime        *time.Time
	DecidedRentCents  *int32
	AdvanceCents      *int32
	Notes             *string
	OverrideConflicts bool
}

type BookingService interface {
	CheckConflicts(ctx context.Context, shopID, productID int32, from, to time.Time, excludeBookingID int32) ([]domain.ConflictingBooking, error)
	AddBookingToOrder(ctx context.Context, shopID, orderID int32, in AddBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, shopID, bookingID int32) (*domain.Booking, []domain.PaymentEntry, error)
	UpdateBooking(ctx context.Context, shopID, bookingID int32, in UpdateBookingInput) (*domain.Booking, error)
	IssueBooking(ctx context.Context, shopID, bookingID int32, paymentCents int32, note string) (*domain.Booking, error)
	ReturnBooking(ctx context.Context, shopID, bookingID int32, paymentCents int32, note string) (*domain.Booking, error)
	AddPayment(ctx context.Context, shopID, bookingID int32, amountCents int32, note string) (*domain.Booking, error)
	// RecordRefund appends a manual REFUND entry, bounded by the booking's
	// current net paid amount.
	RecordRefund(ctx context.Context, shopID, bookingID int32, amountCents int32, note string) (*domain.Booking, error)
}

type CancellationService interface {
	// CancelBooking redistributes the booking's net-paid amount to sibling
	// bookings fill-to-need, refunds the leftover, and cancels the booking.
	// refundCents overrides the computed leftover when non-nil.
	CancelBooking(ctx context.Context, shopID, bookingID int32, refundCents *int32) (*domain.Booking, *domain.RefundBreakdown, error)
	// PreviewCancelBooking runs the same computation without persisting.
	PreviewCancelBooking(ctx context.Context, shopID, bookingID int32) (*domain.RefundBreakdown, error)
	// CancelOrder cancels every booking of the order, distributing the
	// refund proportionally to each booking's own paid amount.
	CancelOrder(ctx context.Context, shopID, orderID int32, refundCents *int32, note string) (*domain.Order, []domain.RefundShare, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, shopID int32, customerName, customerPhone string) (*domain.Order, error)
	GetOrder(ctx context.Context, shopID, orderID int32) (*domain.Order, []domain.Booking, error)
	ListOrders(ctx context.Context, shopID int32, page, pageSize int32) ([]domain.Order, int32, error)
	// CollectPayment distributes an order-level payment across underpaid
	// bookings, weighted by decided rent.
	CollectPayment(ctx context.Context, shopID, orderID int32, amountCents int32, note string) (*domain.Order, []domain.PaymentShare, error)
	GenerateInvoice(ctx context.Context, shopID, orderID int32) (*domain.Invoice, error)
	// RecomputeOrder refreshes the order's cached totals and status from the
	// ledgers. Used by the nightly reconciliation sweep.
	RecomputeOrder(ctx context.Context, shopID, orderID int32) (*domain.Order, error)
}

type ProductService interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, shopID, productID int32) (*domain.Product, error)
	ListProducts(ctx context.Context, shopID int32) ([]domain.Product, error)
}

type EmailService interface {
	SendOverdueReturnDigest(ctx context.Context, to string, shopID int32, overdue []domain.Booking) error
}
