package domain

// RefundTransfer records one redistribution of funds from a cancelled
// booking to a sibling booking in the same order.
type RefundTransfer struct {
	ToBookingID int32 `json:"to_booking_id"`
	AmountCents int32 `json:"amount_cents"`
}

// RefundBreakdown is the financial outcome of cancelling a single booking:
// the net paid amount, the transfers made to siblings, and what is left to
// hand back to the customer.
type RefundBreakdown struct {
	BookingID        int32            `json:"booking_id"`
	NetPaidCents     int32            `json:"net_paid_cents"`
	Transfers        []RefundTransfer `json:"transfers,omitempty"`
	TransferredCents int32            `json:"transferred_cents"`
	RefundableCents  int32            `json:"refundable_cents"`
}

// RefundShare is one booking's slice of a whole-order refund.
type RefundShare struct {
	BookingID   int32 `json:"booking_id"`
	PaidCents   int32 `json:"paid_cents"`
	RefundCents int32 `json:"refund_cents"`
}

// PaymentShare is one booking's slice of an order-level payment collection.
type PaymentShare struct {
	BookingID   int32 `json:"booking_id"`
	AmountCents int32 `json:"amount_cents"`
}
