package service

import (
	"context"
	"fmt"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"
)

type cancellationService struct {
	store repository.Store
}

func NewCancellationService(store repository.Store) CancellationService {
	return &cancellationService{store: store}
}

// planCancellation computes what cancelling the booking would do with its
// money: siblings are filled in enumeration order up to their own remaining
// need, whatever is left becomes refundable. Pure computation, no writes.
func planCancellation(ctx context.Context, s repository.Store, b *domain.Booking) (*domain.RefundBreakdown, error) {
	entries, err := s.Bookings().ListPayments(ctx, b.ShopID, b.ID)
	if err != nil {
		return nil, err
	}
	netPaid := domain.ComputeBalance(b.DecidedRentCents, entries).TotalPaidCents
	if netPaid < 0 {
		netPaid = 0
	}

	breakdown := &domain.RefundBreakdown{BookingID: b.ID, NetPaidCents: netPaid}

	siblings, err := s.Bookings().ListByOrder(ctx, b.ShopID, b.OrderID)
	if err != nil {
		return nil, err
	}

	fundsLeft := netPaid
	for _, sib := range siblings {
		if fundsLeft <= 0 {
			break
		}
		if sib.ID == b.ID || sib.Status == domain.BookingStatusCancelled {
			continue
		}
		sibEntries, err := s.Bookings().ListPayments(ctx, b.ShopID, sib.ID)
		if err != nil {
			return nil, err
		}
		need := domain.ComputeBalance(sib.DecidedRentCents, sibEntries).RemainingCents
		if need <= 0 {
			continue
		}
		amount := need
		if amount > fundsLeft {
			amount = fundsLeft
		}
		breakdown.Transfers = append(breakdown.Transfers, domain.RefundTransfer{ToBookingID: sib.ID, AmountCents: amount})
		breakdown.TransferredCents += amount
		fundsLeft -= amount
	}

	breakdown.RefundableCents = netPaid - breakdown.TransferredCents
	return breakdown, nil
}

func (s *cancellationService) PreviewCancelBooking(ctx context.Context, shopID, bookingID int32) (*domain.RefundBreakdown, error) {
	b, err := s.store.Bookings().GetByID(ctx, shopID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingStatusBooked {
		return nil, &domain.InvalidTransitionError{BookingID: bookingID, Current: b.Status, Required: domain.BookingStatusBooked}
	}
	return planCancellation(ctx, s.store, b)
}

func (s *cancellationService) CancelBooking(ctx context.Context, shopID, bookingID int32, refundCents *int32) (*domain.Booking, *domain.RefundBreakdown, error) {
	logger.EnterMethod("cancellationService.CancelBooking", "shop_id", shopID, "booking_id", bookingID)

	var (
		booking   *domain.Booking
		breakdown *domain.RefundBreakdown
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetByID(ctx, shopID, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusBooked {
			return &domain.InvalidTransitionError{BookingID: bookingID, Current: b.Status, Required: domain.BookingStatusBooked}
		}

		plan, err := planCancellation(ctx, tx, b)
		if err != nil {
			return err
		}

		if refundCents != nil {
			maxRefund := plan.NetPaidCents - plan.TransferredCents
			if *refundCents < 0 || *refundCents > maxRefund {
				return &domain.InvalidRefundAmountError{RequestedCents: *refundCents, MaxCents: maxRefund}
			}
			plan.RefundableCents = *refundCents
		}

		// Every transfer writes a matched pair: REFUND on the cancelled
		// booking, ADVANCE on the receiver.
		for _, tr := range plan.Transfers {
			out := &domain.PaymentEntry{
				ShopID:      shopID,
				BookingID:   b.ID,
				Type:        domain.PaymentTypeRefund,
				AmountCents: tr.AmountCents,
				Note:        fmt.Sprintf("transferred to booking %d on cancellation", tr.ToBookingID),
			}
			if err := tx.Bookings().AppendPayment(ctx, out); err != nil {
				return err
			}
			in := &domain.PaymentEntry{
				ShopID:      shopID,
				BookingID:   tr.ToBookingID,
				Type:        domain.PaymentTypeAdvance,
				AmountCents: tr.AmountCents,
				Note:        fmt.Sprintf("transferred from cancelled booking %d", b.ID),
			}
			if err := tx.Bookings().AppendPayment(ctx, in); err != nil {
				return err
			}
			receiver, err := tx.Bookings().GetByID(ctx, shopID, tr.ToBookingID)
			if err != nil {
				return err
			}
			if err := refreshBookingBalance(ctx, tx, receiver); err != nil {
				return err
			}
		}

		if plan.RefundableCents > 0 {
			refund := &domain.PaymentEntry{
				ShopID:      shopID,
				BookingID:   b.ID,
				Type:        domain.PaymentTypeRefund,
				AmountCents: plan.RefundableCents,
				Note:        "refund on cancellation",
			}
			if err := tx.Bookings().AppendPayment(ctx, refund); err != nil {
				return err
			}
		}

		b.Status = domain.BookingStatusCancelled
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
		breakdown = plan
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("cancellationService.CancelBooking", err, "booking_id", bookingID)
		return nil, nil, err
	}

	logger.ExitMethod("cancellationService.CancelBooking", "booking_id", bookingID,
		"transferred_cents", breakdown.TransferredCents, "refundable_cents", breakdown.RefundableCents)
	return booking, breakdown, nil
}

// CancelOrder cancels every booking of the order at once. Unlike the
// single-booking path, the refund here is distributed proportionally to each
// booking's own paid amount, with the last booking absorbing the rounding
// remainder.
func (s *cancellationService) CancelOrder(ctx context.Context, shopID, orderID int32, refundCents *int32, note string) (*domain.Order, []domain.RefundShare, error) {
	logger.EnterMethod("cancellationService.CancelOrder", "shop_id", shopID, "order_id", orderID)

	var (
		order  *domain.Order
		shares []domain.RefundShare
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().GetByID(ctx, shopID, orderID)
		if err != nil {
			return err
		}
		if o.Status == domain.OrderStatusCancelled {
			return domain.ErrOrderCancelled
		}

		bookings, err := tx.Bookings().ListByOrder(ctx, shopID, orderID)
		if err != nil {
			return err
		}

		var active []domain.Booking
		var blocking []domain.BookingStatus
		for _, b := range bookings {
			switch b.Status {
			case domain.BookingStatusCancelled:
			case domain.BookingStatusBooked:
				active = append(active, b)
			default:
				blocking = append(blocking, b.Status)
			}
		}
		if len(blocking) > 0 {
			return &domain.NonCancellableStateError{OrderID: orderID, Statuses: blocking}
		}

		paid := make([]int32, len(active))
		var totalPaid int32
		for i, b := range active {
			entries, err := tx.Bookings().ListPayments(ctx, shopID, b.ID)
			if err != nil {
				return err
			}
			p := domain.ComputeBalance(b.DecidedRentCents, entries).TotalPaidCents
			if p < 0 {
				p = 0
			}
			paid[i] = p
			totalPaid += p
		}

		refund := totalPaid
		if refundCents != nil {
			if *refundCents < 0 || *refundCents > totalPaid {
				return &domain.InvalidRefundAmountError{RequestedCents: *refundCents, MaxCents: totalPaid}
			}
			refund = *refundCents
		}

		refundSplit := utils.SplitProportionally(refund, paid)
		// The remainder-absorbing share can nudge one slice past what that
		// booking actually paid; push any excess onto siblings with headroom.
		capAtPaid(refundSplit, paid)

		for i, b := range active {
			if refundSplit[i] > 0 {
				entryNote := note
				if entryNote == "" {
					entryNote = "refund on order cancellation"
				}
				entry := &domain.PaymentEntry{
					ShopID:      shopID,
					BookingID:   b.ID,
					Type:        domain.PaymentTypeRefund,
					AmountCents: refundSplit[i],
					Note:        entryNote,
				}
				if err := tx.Bookings().AppendPayment(ctx, entry); err != nil {
					return err
				}
			}

			// Cancelled regardless of whether a refund entry was written.
			active[i].Status = domain.BookingStatusCancelled
			if err := tx.Bookings().Update(ctx, &active[i]); err != nil {
				return err
			}
			if err := refreshBookingBalance(ctx, tx, &active[i]); err != nil {
				return err
			}
			shares = append(shares, domain.RefundShare{BookingID: b.ID, PaidCents: paid[i], RefundCents: refundSplit[i]})
		}

		order, err = refreshOrder(ctx, tx, shopID, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusCancelled {
			order.Status = domain.OrderStatusCancelled
			if err := tx.Orders().Update(ctx, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("cancellationService.CancelOrder", err, "order_id", orderID)
		return nil, nil, err
	}

	logger.ExitMethod("cancellationService.CancelOrder", "order_id", orderID, "bookings_cancelled", len(shares))
	return order, shares, nil
}

// capAtPaid clamps each share to the matching paid amount and redistributes
// the clipped excess to entries that still have headroom. Shares and paid
// must be the same length, with sum(shares) <= sum(paid).
func capAtPaid(shares, paid []int32) {
	var excess int32
	for i := range shares {
		if shares[i] > paid[i] {
			excess += shares[i] - paid[i]
			shares[i] = paid[i]
		}
	}
	for i := range shares {
		if excess <= 0 {
			break
		}
		headroom := paid[i] - shares[i]
		if headroom <= 0 {
			continue
		}
		add := headroom
		if add > excess {
			add = excess
		}
		shares[i] += add
		excess -= add
	}
}
