package domain

import "time"

type OrderStatus string

const (
	OrderStatusInitiated     OrderStatus = "INITIATED"
	OrderStatusPartiallyDone OrderStatus = "PARTIALLY_DONE"
	OrderStatusInProgress    OrderStatus = "IN_PROGRESS"
	OrderStatusFullyDone     OrderStatus = "FULLY_DONE"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
)

type Order struct {
	ID            int32  `json:"id"`
	ShopID        int32  `json:"shop_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	// Totals are caches over the order's non-cancelled bookings, recomputed
	// after every ledger or status mutation.
	TotalCents     int32       `json:"total_cents"`
	ReceivedCents  int32       `json:"received_cents"`
	RemainingCents int32       `json:"remaining_cents"`
	Status         OrderStatus `json:"status"`
	CreatedOn      time.Time   `json:"created_on"`
	UpdatedOn      time.Time   `json:"updated_on"`
}

// DeriveOrderStatus computes an order's status from its bookings and their
// ledger-derived totals. CANCELLED is terminal and never re-derived; callers
// must not invoke this on an already cancelled order.
func DeriveOrderStatus(bookings []Booking, totalCents, receivedCents int32) OrderStatus {
	if len(bookings) == 0 {
		return OrderStatusInitiated
	}

	allCancelled := true
	allReturned := true
	for _, b := range bookings {
		if b.Status != BookingStatusCancelled {
			allCancelled = false
			if b.Status != BookingStatusReturned {
				allReturned = false
			}
		}
	}
	if allCancelled {
		return OrderStatusCancelled
	}

	switch {
	case allReturned && receivedCents >= totalCents:
		return OrderStatusFullyDone
	case receivedCents >= totalCents:
		return OrderStatusInProgress
	case receivedCents > 0:
		return OrderStatusPartiallyDone
	default:
		return OrderStatusInitiated
	}
}
