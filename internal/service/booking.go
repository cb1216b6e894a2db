package service

import (
	"context"
	"fmt"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"
)

type bookingService struct {
	store repository.Store
}

func NewBookingService(store repository.Store) BookingService {
	return &bookingService{store: store}
}

// CheckConflicts is the read-only pre-check. The same query runs again
// inside the write transaction of every create or edit, so a clean pre-check
// never substitutes for the commit-time check.
func (s *bookingService) CheckConflicts(ctx context.Context, shopID, productID int32, from, to time.Time, excludeBookingID int32) ([]domain.ConflictingBooking, error) {
	if err := validateInterval(from, to); err != nil {
		return nil, err
	}
	if _, err := s.store.Products().GetByID(ctx, shopID, productID); err != nil {
		return nil, err
	}
	return s.store.Bookings().FindOverlapping(ctx, shopID, productID, from, to, excludeBookingID)
}

func (s *bookingService) AddBookingToOrder(ctx context.Context, shopID, orderID int32, in AddBookingInput) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.AddBookingToOrder", "shop_id", shopID, "order_id", orderID, "product_id", in.ProductID)

	if err := validateInterval(in.FromDateTime, in.ToDateTime); err != nil {
		return nil, err
	}
	if in.AdvanceCents < 0 {
		return nil, domain.Invalidf("advance amount must not be negative")
	}

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, shopID, orderID)
		if err != nil {
			return err
		}
		if order.Status == domain.OrderStatusCancelled {
			return domain.ErrOrderCancelled
		}

		product, err := tx.Products().GetByID(ctx, shopID, in.ProductID)
		if err != nil {
			return err
		}

		decidedRent := in.DecidedRentCents
		if decidedRent <= 0 {
			decidedRent = product.DefaultRentCents
		}

		// Conflict check and insert share the serializable transaction, so a
		// concurrent booking of the same product and interval cannot slip in
		// between them.
		conflicts, err := tx.Bookings().FindOverlapping(ctx, shopID, in.ProductID, in.FromDateTime, in.ToDateTime, 0)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 && !in.OverrideConflicts {
			return &domain.ConflictError{Conflicts: conflicts}
		}

		b := &domain.Booking{
			ShopID:             shopID,
			OrderID:            orderID,
			ProductID:          in.ProductID,
			FromDateTime:       in.FromDateTime,
			ToDateTime:         in.ToDateTime,
			DecidedRentCents:   decidedRent,
			RemainingCents:     decidedRent,
			Status:             domain.BookingStatusBooked,
			ConflictOverridden: len(conflicts) > 0,
			Notes:              in.Notes,
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}

		if in.AdvanceCents > 0 {
			if in.AdvanceCents > decidedRent {
				return &domain.OverpaymentError{BookingID: b.ID, MaxCents: decidedRent}
			}
			entry := &domain.PaymentEntry{
				ShopID:      shopID,
				BookingID:   b.ID,
				Type:        domain.PaymentTypeAdvance,
				AmountCents: in.AdvanceCents,
				Note:        "advance at booking",
			}
			if err := tx.Bookings().AppendPayment(ctx, entry); err != nil {
				return err
			}
			if err := refreshBookingBalance(ctx, tx, b); err != nil {
				return err
			}
		}

		if _, err := refreshOrder(ctx, tx, shopID, orderID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.AddBookingToOrder", err, "order_id", orderID)
		return nil, err
	}

	logger.ExitMethod("bookingService.AddBookingToOrder", "booking_id", booking.ID, "conflict_overridden", booking.ConflictOverridden)
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, shopID, bookingID int32) (*domain.Booking, []domain.PaymentEntry, error) {
	b, err := s.store.Bookings().GetByID(ctx, shopID, bookingID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.store.Bookings().ListPayments(ctx, shopID, bookingID)
	if err != nil {
		return nil, nil, err
	}
	return b, entries, nil
}

// UpdateBooking edits a booking's fields while it is still BOOKED. Interval
// or product changes re-run conflict detection; an advance change reconciles
// the single ADVANCE ledger entry instead of appending blindly.
func (s *bookingService) UpdateBooking(ctx context.Context, shopID, bookingID int32, in UpdateBookingInput) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.UpdateBooking", "shop_id", shopID, "booking_id", bookingID)

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetByID(ctx, shopID, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusBooked {
			return &domain.InvalidTransitionError{BookingID: bookingID, Current: b.Status, Required: domain.BookingStatusBooked}
		}

		intervalChanged := false
		if in.ProductID != nil && *in.ProductID != b.ProductID {
			if _, err := tx.Products().GetByID(ctx, shopID, *in.ProductID); err != nil {
				return err
			}
			b.ProductID = *in.ProductID
			intervalChanged = true
		}
		if in.FromDateTime != nil {
			b.FromDateTime = *in.FromDateTime
			intervalChanged = true
		}
		if in.ToDateTime != nil {
			b.ToDateTime = *in.ToDateTime
			intervalChanged = true
		}
		if err := validateInterval(b.FromDateTime, b.ToDateTime); err != nil {
			return err
		}
		if in.DecidedRentCents != nil {
			if *in.DecidedRentCents <= 0 {
				return domain.Invalidf("decided rent must be positive")
			}
			b.DecidedRentCents = *in.DecidedRentCents
		}
		if in.Notes != nil {
			b.Notes = *in.Notes
		}

		if intervalChanged {
			conflicts, err := tx.Bookings().FindOverlapping(ctx, shopID, b.ProductID, b.FromDateTime, b.ToDateTime, b.ID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 && !in.OverrideConflicts {
				return &domain.ConflictError{Conflicts: conflicts}
			}
			b.ConflictOverridden = len(conflicts) > 0
		}

		if in.AdvanceCents != nil {
			if err := reconcileAdvance(ctx, tx, b, *in.AdvanceCents); err != nil {
				return err
			}
		}

		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		if err := refreshBookingBalance(ctx, tx, b); err != nil {
			return err
		}
		if _, err := refreshOrder(ctx, tx, shopID, b.OrderID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.UpdateBooking", err, "booking_id", bookingID)
		return nil, err
	}

	logger.ExitMethod("bookingService.UpdateBooking", "booking_id", bookingID)
	return booking, nil
}

// reconcileAdvance finds the booking's ADVANCE entry and rewrites its amount,
// creating one when the booking has none yet. The new amount must keep the
// ledger-derived remaining at or above zero.
func reconcileAdvance(ctx context.Context, tx repository.Store, b *domain.Booking, advanceCents int32) error {
	if advanceCents < 0 {
		return domain.Invalidf("advance amount must not be negative")
	}

	entries, err := tx.Bookings().ListPayments(ctx, b.ShopID, b.ID)
	if err != nil {
		return err
	}

	var current *domain.PaymentEntry
	var otherInbound int32
	for i, e := range entries {
		switch e.Type {
		case domain.PaymentTypeAdvance:
			if current == nil {
				current = &entries[i]
			} else {
				otherInbound += e.AmountCents
			}
		case domain.PaymentTypePaymentReceived:
			otherInbound += e.AmountCents
		}
	}

	maxAdvance := b.DecidedRentCents - otherInbound
	if advanceCents > maxAdvance {
		return &domain.OverpaymentError{BookingID: b.ID, MaxCents: maxAdvance}
	}

	switch {
	case current != nil:
		return tx.Bookings().UpdatePaymentAmount(ctx, b.ShopID, current.ID, advanceCents, "advance reconciled by edit")
	case advanceCents > 0:
		return tx.Bookings().AppendPayment(ctx, &domain.PaymentEntry{
			ShopID:      b.ShopID,
			BookingID:   b.ID,
			Type:        domain.PaymentTypeAdvance,
			AmountCents: advanceCents,
			Note:        "advance set by edit",
		})
	default:
		return nil
	}
}

func (s *bookingService) IssueBooking(ctx context.Context, shopID, bookingID int32, paymentCents int32, note string) (*domain.Booking, error) {
	return s.transition(ctx, "IssueBooking", shopID, bookingID, paymentCents, note,
		domain.BookingStatusBooked, domain.BookingStatusIssued)
}

func (s *bookingService) ReturnBooking(ctx context.Context, shopID, bookingID int32, paymentCents int32, note string) (*domain.Booking, error) {
	return s.transition(ctx, "ReturnBooking", shopID, bookingID, paymentCents, note,
		domain.BookingStatusIssued, domain.BookingStatusReturned)
}

// transition moves a booking one step forward, optionally accepting an exact
// payment first. Issue and return expect the accepted amount to equal the
// requested one, so overpayment rejects instead of clamping.
func (s *bookingService) transition(ctx context.Context, op string, shopID, bookingID, paymentCents int32, note string, required, next domain.BookingStatus) (*domain.Booking, error) {
	logger.EnterMethod("bookingService."+op, "shop_id", shopID, "booking_id", bookingID, "payment_cents", paymentCents)

	if paymentCents < 0 {
		return nil, domain.Invalidf("payment amount must not be negative")
	}

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetByID(ctx, shopID, bookingID)
		if err != nil {
			return err
		}
		if b.Status != required {
			return &domain.InvalidTransitionError{BookingID: bookingID, Current: b.Status, Required: required}
		}

		if paymentCents > 0 {
			entries, err := tx.Bookings().ListPayments(ctx, shopID, bookingID)
			if err != nil {
				return err
			}
			bal := domain.ComputeBalance(b.DecidedRentCents, entries)
			if bal.RemainingCents <= 0 {
				return &domain.AlreadyFullyPaidError{BookingID: bookingID}
			}
			if paymentCents > bal.RemainingCents {
				return &domain.OverpaymentError{BookingID: bookingID, MaxCents: bal.RemainingCents}
			}
			entry := &domain.PaymentEntry{
				ShopID:      shopID,
				BookingID:   bookingID,
				Type:        domain.PaymentTypePaymentReceived,
				AmountCents: paymentCents,
				Note:        note,
			}
			if err := tx.Bookings().AppendPayment(ctx, entry); err != nil {
				return err
			}
		}

		b.Status = next
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		if err := refreshBookingBalance(ctx, tx, b); err != nil {
			return err
		}
		if _, err := refreshOrder(ctx, tx, shopID, b.OrderID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService."+op, err, "booking_id", bookingID)
		return nil, err
	}

	logger.ExitMethod("bookingService."+op, "booking_id", bookingID, "status", booking.Status)
	return booking, nil
}

// AddPayment records a generic payment against a booking. The entry type is
// auto-selected (ADVANCE while BOOKED, PAYMENT_RECEIVED after); an amount
// above the remaining balance is clamped down and the clamp noted.
func (s *bookingService) AddPayment(ctx context.Context, shopID, bookingID int32, amountCents int32, note string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.AddPayment", "shop_id", shopID, "booking_id", bookingID, "amount_cents", amountCents)

	if amountCents <= 0 {
		return nil, domain.Invalidf("payment amount must be positive")
	}

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetByID(ctx, shopID, bookingID)
		if err != nil {
			return err
		}
		if b.Status == domain.BookingStatusCancelled {
			return &domain.InvalidTransitionError{BookingID: bookingID, Current: b.Status, Required: domain.BookingStatusBooked}
		}

		entries, err := tx.Bookings().ListPayments(ctx, shopID, bookingID)
		if err != nil {
			return err
		}
		bal := domain.ComputeBalance(b.DecidedRentCents, entries)
		if bal.RemainingCents <= 0 {
			return &domain.AlreadyFullyPaidError{BookingID: bookingID}
		}

		accepted := amountCents
		if accepted > bal.RemainingCents {
			accepted = bal.RemainingCents
			clampNote := fmt.Sprintf("clamped from %s to remaining %s",
				utils.FormatCents(amountCents), utils.FormatCents(accepted))
			if note != "" {
				note = note + " (" + clampNote + ")"
			} else {
				note = clampNote
			}
		}

		entryType := domain.PaymentTypePaymentReceived
		if b.Status == domain.BookingStatusBooked {
			entryType = domain.PaymentTypeAdvance
		}
		entry := &domain.PaymentEntry{
			ShopID:      shopID,
			BookingID:   bookingID,
			Type:        entryType,
			AmountCents: accepted,
			Note:        note,
		}
		if err := tx.Bookings().AppendPayment(ctx, entry); err != nil {
			return err
		}
		if err := refreshBookingBalance(ctx, tx, b); err != nil {
			return err
		}
		if _, err := refreshOrder(ctx, tx, shopID, b.OrderID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.AddPayment", err, "booking_id", bookingID)
		return nil, err
	}

	logger.ExitMethod("bookingService.AddPayment", "booking_id", bookingID, "remaining_cents", booking.RemainingCents)
	return booking, nil
}

func (s *bookingService) RecordRefund(ctx context.Context, shopID, bookingID int32, amountCents int32, note string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.RecordRefund", "shop_id", shopID, "booking_id", bookingID, "amount_cents", amountCents)

	if amountCents <= 0 {
		return nil, domain.Invalidf("refund amount must be positive")
	}

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetByID(ctx, shopID, bookingID)
		if err != nil {
			return err
		}

		entries, err := tx.Bookings().ListPayments(ctx, shopID, bookingID)
		if err != nil {
			return err
		}
		bal := domain.ComputeBalance(b.DecidedRentCents, entries)
		if bal.TotalPaidCents <= 0 {
			return &domain.NothingToRefundError{BookingID: bookingID}
		}
		if amountCents > bal.TotalPaidCents {
			return &domain.RefundExceedsPaidError{BookingID: bookingID, MaxCents: bal.TotalPaidCents}
		}

		entry := &domain.PaymentEntry{
			ShopID:      shopID,
			BookingID:   bookingID,
			Type:        domain.PaymentTypeRefund,
			AmountCents: amountCents,
			Note:        note,
		}
		if err := tx.Bookings().AppendPayment(ctx, entry); err != nil {
			return err
		}
		if err := refreshBookingBalance(ctx, tx, b); err != nil {
			return err
		}
		if _, err := refreshOrder(ctx, tx, shopID, b.OrderID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.RecordRefund", err, "booking_id", bookingID)
		return nil, err
	}

	logger.ExitMethod("bookingService.RecordRefund", "booking_id", bookingID, "refunded_cents", amountCents)
	return booking, nil
}

func validateInterval(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return domain.Invalidf("both from and to datetimes are required")
	}
	if !from.Before(to) {
		return domain.Invalidf("from datetime must be before to datetime")
	}
	return nil
}
