package domain

import "time"

// InvoiceLine is one booking on an invoice.
type InvoiceLine struct {
	BookingID      int32         `json:"booking_id"`
	ProductName    string        `json:"product_name"`
	FromDateTime   time.Time     `json:"from_datetime"`
	ToDateTime     time.Time     `json:"to_datetime"`
	Status         BookingStatus `json:"status"`
	RentCents      int32         `json:"rent_cents"`
	PaidCents      int32         `json:"paid_cents"`
	RemainingCents int32         `json:"remaining_cents"`
}

// Invoice is a read-only projection of an order, its bookings and the full
// payment history. It introduces no state of its own.
type Invoice struct {
	InvoiceNumber string         `json:"invoice_number"`
	GeneratedOn   time.Time      `json:"generated_on"`
	Order         Order          `json:"order"`
	Lines         []InvoiceLine  `json:"lines"`
	Payments      []PaymentEntry `json:"payments"`
}
