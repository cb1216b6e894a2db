package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-backend/internal/domain"
)

func TestCancellationService_CancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("TransfersToSiblingThenRefundsRest", func(t *testing.T) {
		store := newFakeStore()
		productID := store.addProduct(1, "Canoe", 500)
		orderID := store.addOrder(1, "Alice")
		b1 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(1), ToDateTime: day(5), DecidedRentCents: 500,
		})
		b2 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(6), ToDateTime: day(8), DecidedRentCents: 300,
		})
		store.addPayment(1, b1, domain.PaymentTypeAdvance, 500)
		svc := NewCancellationService(store)

		booking, breakdown, err := svc.CancelBooking(ctx, 1, b1, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, booking.Status)
		assert.Equal(t, int32(500), breakdown.NetPaidCents)
		assert.Equal(t, int32(300), breakdown.TransferredCents)
		assert.Equal(t, int32(200), breakdown.RefundableCents)
		require.Len(t, breakdown.Transfers, 1)
		assert.Equal(t, b2, breakdown.Transfers[0].ToBookingID)

		// The cancelled booking's refund entries together return the full 500.
		var refunded int32
		for _, e := range store.paymentsFor(b1) {
			if e.Type == domain.PaymentTypeRefund {
				refunded += e.AmountCents
			}
		}
		assert.Equal(t, int32(500), refunded)

		// The sibling absorbed the transfer as an advance and is fully paid.
		sibling := store.bookings[b2]
		assert.Equal(t, int32(300), sibling.AdvanceCents)
		assert.Equal(t, int32(0), sibling.RemainingCents)

		order := store.orders[orderID]
		assert.Equal(t, int32(300), order.TotalCents)
		assert.Equal(t, int32(300), order.ReceivedCents)
	})

	t.Run("SiblingsFilledInEnumerationOrder", func(t *testing.T) {
		store := newFakeStore()
		productID := store.addProduct(1, "Canoe", 500)
		orderID := store.addOrder(1, "Alice")
		b1 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(1), ToDateTime: day(3), DecidedRentCents: 200,
		})
		b2 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(4), ToDateTime: day(6), DecidedRentCents: 100,
		})
		b3 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(7), ToDateTime: day(9), DecidedRentCents: 300,
		})
		store.addPayment(1, b1, domain.PaymentTypeAdvance, 150)
		svc := NewCancellationService(store)

		_, breakdown, err := svc.CancelBooking(ctx, 1, b1, nil)
		require.NoError(t, err)
		require.Len(t, breakdown.Transfers, 2)
		assert.Equal(t, domain.RefundTransfer{ToBookingID: b2, AmountCents: 100}, breakdown.Transfers[0])
		assert.Equal(t, domain.RefundTransfer{ToBookingID: b3, AmountCents: 50}, breakdown.Transfers[1])
		assert.Equal(t, int32(0), breakdown.RefundableCents)
	})

	t.Run("RefundOverrideZeroKeepsMoneyUnrefunded", func(t *testing.T) {
		store := newFakeStore()
		productID := store.addProduct(1, "Canoe", 500)
		orderID := store.addOrder(1, "Alice")
		b1 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(1), ToDateTime: day(3), DecidedRentCents: 500,
		})
		store.addPayment(1, b1, domain.PaymentTypeAdvance, 200)
		svc := NewCancellationService(store)

		zero := int32(0)
		_, breakdown, err := svc.CancelBooking(ctx, 1, b1, &zero)
		require.NoError(t, err)
		assert.Equal(t, int32(0), breakdown.RefundableCents)

		for _, e := range store.paymentsFor(b1) {
			assert.NotEqual(t, domain.PaymentTypeRefund, e.Type)
		}
	})

	t.Run("RefundOverrideAboveLeftoverRejected", func(t *testing.T) {
		store := newFakeStore()
		productID := store.addProduct(1, "Canoe", 500)
		orderID := store.addOrder(1, "Alice")
		b1 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(1), ToDateTime: day(3), DecidedRentCents: 500,
		})
		store.addPayment(1, b1, domain.PaymentTypeAdvance, 200)
		svc := NewCancellationService(store)

		tooMuch := int32(300)
		_, _, err := svc.CancelBooking(ctx, 1, b1, &tooMuch)
		var refundErr *domain.InvalidRefundAmountError
		require.ErrorAs(t, err, &refundErr)
		assert.Equal(t, int32(200), refundErr.MaxCents)
	})

	t.Run("OnlyBookedCancellable", func(t *testing.T) {
		store := newFakeStore()
		productID := store.addProduct(1, "Canoe", 500)
		orderID := store.addOrder(1, "Alice")
		b1 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(1), ToDateTime: day(3), DecidedRentCents: 500,
			Status: domain.BookingStatusIssued,
		})
		svc := NewCancellationService(store)

		_, _, err := svc.CancelBooking(ctx, 1, b1, nil)
		var transErr *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &transErr)
	})
}

func TestCancellationService_PreviewCancelBooking(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	productID := store.addProduct(1, "Canoe", 500)
	orderID := store.addOrder(1, "Alice")
	b1 := store.addBooking(domain.Booking{
		ShopID: 1, OrderID: orderID, ProductID: productID,
		FromDateTime: day(1), ToDateTime: day(5), DecidedRentCents: 500,
	})
	b2 := store.addBooking(domain.Booking{
		ShopID: 1, OrderID: orderID, ProductID: productID,
		FromDateTime: day(6), ToDateTime: day(8), DecidedRentCents: 300,
	})
	store.addPayment(1, b1, domain.PaymentTypeAdvance, 500)
	svc := NewCancellationService(store)

	breakdown, err := svc.PreviewCancelBooking(ctx, 1, b1)
	require.NoError(t, err)
	assert.Equal(t, int32(300), breakdown.TransferredCents)
	assert.Equal(t, int32(200), breakdown.RefundableCents)

	// Preview writes nothing.
	assert.Equal(t, domain.BookingStatusBooked, store.bookings[b1].Status)
	assert.Len(t, store.paymentsFor(b1), 1)
	assert.Empty(t, store.paymentsFor(b2))
}

func TestCancellationService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	setup := func() (*fakeStore, int32, int32, int32) {
		store := newFakeStore()
		productID := store.addProduct(1, "Canoe", 500)
		orderID := store.addOrder(1, "Alice")
		b1 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(1), ToDateTime: day(5), DecidedRentCents: 400,
		})
		b2 := store.addBooking(domain.Booking{
			ShopID: 1, OrderID: orderID, ProductID: productID,
			FromDateTime: day(6), ToDateTime: day(8), DecidedRentCents: 200,
		})
		store.addPayment(1, b1, domain.PaymentTypeAdvance, 300)
		store.addPayment(1, b2, domain.PaymentTypeAdvance, 100)
		return store, orderID, b1, b2
	}

	t.Run("PartialRefundSplitProportionallyToPaid", func(t *testing.T) {
		store, orderID, b1, b2 := setup()
		svc := NewCancellationService(store)

		refund := int32(200)
		order, shares, err := svc.CancelOrder(ctx, 1, orderID, &refund, "")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)

		// Paid 300 and 100, so a 200 refund splits 150/50.
		require.Len(t, shares, 2)
		assert.Equal(t, domain.RefundShare{BookingID: b1, PaidCents: 300, RefundCents: 150}, shares[0])
		assert.Equal(t, domain.RefundShare{BookingID: b2, PaidCents: 100, RefundCents: 50}, shares[1])

		assert.Equal(t, domain.BookingStatusCancelled, store.bookings[b1].Status)
		assert.Equal(t, domain.BookingStatusCancelled, store.bookings[b2].Status)
	})

	t.Run("DefaultRefundIsEverythingPaid", func(t *testing.T) {
		store, orderID, b1, b2 := setup()
		svc := NewCancellationService(store)

		_, shares, err := svc.CancelOrder(ctx, 1, orderID, nil, "season closed")
		require.NoError(t, err)
		assert.Equal(t, int32(300), shares[0].RefundCents)
		assert.Equal(t, int32(100), shares[1].RefundCents)

		for _, id := range []int32{b1, b2} {
			bal := domain.ComputeBalance(store.bookings[id].DecidedRentCents, store.paymentsFor(id))
			assert.Equal(t, int32(0), bal.TotalPaidCents)
		}
	})

	t.Run("IssuedBookingBlocksCancellation", func(t *testing.T) {
		store, orderID, b1, _ := setup()
		b := store.bookings[b1]
		b.Status = domain.BookingStatusIssued
		store.bookings[b1] = b
		svc := NewCancellationService(store)

		_, _, err := svc.CancelOrder(ctx, 1, orderID, nil, "")
		var blockErr *domain.NonCancellableStateError
		require.ErrorAs(t, err, &blockErr)
		assert.Contains(t, blockErr.Statuses, domain.BookingStatusIssued)
	})

	t.Run("AlreadyCancelledOrderRejected", func(t *testing.T) {
		store, orderID, _, _ := setup()
		o := store.orders[orderID]
		o.Status = domain.OrderStatusCancelled
		store.orders[orderID] = o
		svc := NewCancellationService(store)

		_, _, err := svc.CancelOrder(ctx, 1, orderID, nil, "")
		assert.ErrorIs(t, err, domain.ErrOrderCancelled)
	})

	t.Run("RefundAbovePaidRejected", func(t *testing.T) {
		store, orderID, _, _ := setup()
		svc := NewCancellationService(store)

		tooMuch := int32(500)
		_, _, err := svc.CancelOrder(ctx, 1, orderID, &tooMuch, "")
		var refundErr *domain.InvalidRefundAmountError
		require.ErrorAs(t, err, &refundErr)
		assert.Equal(t, int32(400), refundErr.MaxCents)
	})
}

func TestCapAtPaid(t *testing.T) {
	t.Run("ExcessMovesToHeadroom", func(t *testing.T) {
		shares := []int32{120, 30}
		paid := []int32{100, 100}
		capAtPaid(shares, paid)
		assert.Equal(t, []int32{100, 50}, shares)
	})

	t.Run("NoExcessUnchanged", func(t *testing.T) {
		shares := []int32{50, 50}
		paid := []int32{100, 100}
		capAtPaid(shares, paid)
		assert.Equal(t, []int32{50, 50}, shares)
	})
}
