package domain

import "time"

type PaymentType string

const (
	PaymentTypeAdvance         PaymentType = "ADVANCE"
	PaymentTypePaymentReceived PaymentType = "PAYMENT_RECEIVED"
	PaymentTypeRefund          PaymentType = "REFUND"
)

// PaymentEntry is one row of a booking's append-only payment ledger.
// Entries are never updated or deleted; balances are always derived by
// folding the full ledger.
type PaymentEntry struct {
	ID          int32       `json:"id"`
	ShopID      int32       `json:"shop_id"`
	BookingID   int32       `json:"booking_id"`
	Type        PaymentType `json:"type"`
	AmountCents int32       `json:"amount_cents"` // always >= 0; Type carries the direction
	Note        string      `json:"note,omitempty"`
	RecordedOn  time.Time   `json:"recorded_on"`
}

// Balance is the derived financial position of one booking.
type Balance struct {
	TotalPaidCents    int32 `json:"total_paid_cents"`
	TotalAdvanceCents int32 `json:"total_advance_cents"`
	RemainingCents    int32 `json:"remaining_cents"`
}

// ComputeBalance folds a booking's ledger into its balance. The computation
// is a pure function of the inputs, so recomputing from the same ledger
// always yields the same result.
//
//	totalPaid    = Σ(ADVANCE, PAYMENT_RECEIVED) − Σ(REFUND)
//	totalAdvance = max(0, Σ(ADVANCE) − Σ(REFUND))
//	remaining    = decidedRent − totalPaid
func ComputeBalance(decidedRentCents int32, entries []PaymentEntry) Balance {
	var inbound, advances, refunds int32
	for _, e := range entries {
		switch e.Type {
		case PaymentTypeAdvance:
			advances += e.AmountCents
			inbound += e.AmountCents
		case PaymentTypePaymentReceived:
			inbound += e.AmountCents
		case PaymentTypeRefund:
			refunds += e.AmountCents
		}
	}

	totalPaid := inbound - refunds
	totalAdvance := advances - refunds
	if totalAdvance < 0 {
		totalAdvance = 0
	}

	return Balance{
		TotalPaidCents:    totalPaid,
		TotalAdvanceCents: totalAdvance,
		RemainingCents:    decidedRentCents - totalPaid,
	}
}
