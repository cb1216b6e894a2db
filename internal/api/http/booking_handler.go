package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	bookings     service.BookingService
	cancellation service.CancellationService
}

func NewBookingHandler(bookings service.BookingService, cancellation service.CancellationService) *BookingHandler {
	return &BookingHandler{bookings: bookings, cancellation: cancellation}
}

type bookingResponse struct {
	Booking  *domain.Booking       `json:"booking"`
	Payments []domain.PaymentEntry `json:"payments,omitempty"`
}

type paymentRequest struct {
	AmountCents int32  `json:"amount_cents"`
	Note        string `json:"note,omitempty"`
}

type updateBookingRequest struct {
	ProductID         *int32  `json:"product_id,omitempty"`
	FromDateTime      *string `json:"from_datetime,omitempty"`
	ToDateTime        *string `json:"to_datetime,omitempty"`
	DecidedRentCents  *int32  `json:"decided_rent_cents,omitempty"`
	AdvanceCents      *int32  `json:"advance_cents,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	OverrideConflicts bool    `json:"override_conflicts,omitempty"`
}

type cancelBookingRequest struct {
	RefundCents *int32 `json:"refund_cents,omitempty"`
}

func (h *BookingHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())

	productID, err := parseQueryInt32(r, "product_id")
	if err != nil {
		badRequest(w, "product_id is required")
		return
	}
	from, err := parseQueryTime(r, "from")
	if err != nil {
		badRequest(w, "from must be an RFC3339 datetime")
		return
	}
	to, err := parseQueryTime(r, "to")
	if err != nil {
		badRequest(w, "to must be an RFC3339 datetime")
		return
	}
	var excludeID int32
	if r.URL.Query().Get("exclude_booking_id") != "" {
		excludeID, err = parseQueryInt32(r, "exclude_booking_id")
		if err != nil {
			badRequest(w, "exclude_booking_id must be an integer")
			return
		}
	}

	conflicts, err := h.bookings.CheckConflicts(r.Context(), shopID, productID, from, to, excludeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	booking, payments, err := h.bookings.GetBooking(r.Context(), shopID, bookingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: booking, Payments: payments})
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := service.UpdateBookingInput{
		ProductID:         req.ProductID,
		DecidedRentCents:  req.DecidedRentCents,
		AdvanceCents:      req.AdvanceCents,
		Notes:             req.Notes,
		OverrideConflicts: req.OverrideConflicts,
	}
	if req.FromDateTime != nil {
		t, err := time.Parse(time.RFC3339, *req.FromDateTime)
		if err != nil {
			badRequest(w, "from_datetime must be an RFC3339 datetime")
			return
		}
		in.FromDateTime = &t
	}
	if req.ToDateTime != nil {
		t, err := time.Parse(time.RFC3339, *req.ToDateTime)
		if err != nil {
			badRequest(w, "to_datetime must be an RFC3339 datetime")
			return
		}
		in.ToDateTime = &t
	}

	booking, err := h.bookings.UpdateBooking(r.Context(), shopID, bookingID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: booking})
}

func (h *BookingHandler) IssueBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.IssueBooking)
}

func (h *BookingHandler) ReturnBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.ReturnBooking)
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, shopID, bookingID, paymentCents int32, note string) (*domain.Booking, error)) {
	shopID, _ := ShopIDFromContext(r.Context())
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booking, err := fn(r.Context(), shopID, bookingID, req.AmountCents, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: booking})
}

func (h *BookingHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booking, err := h.bookings.AddPayment(r.Context(), shopID, bookingID, req.AmountCents, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: booking})
}

func (h *BookingHandler) RecordRefund(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booking, err := h.bookings.RecordRefund(r.Context(), shopID, bookingID, req.AmountCents, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: booking})
}

func (h *BookingHandler) PreviewCancel(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	breakdown, err := h.cancellation.PreviewCancelBooking(r.Context(), shopID, bookingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req cancelBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booking, breakdown, err := h.cancellation.CancelBooking(r.Context(), shopID, bookingID, req.RefundCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking, "breakdown": breakdown})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int32, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		badRequest(w, name+" must be a positive integer")
		return 0, false
	}
	return int32(id), true
}

func parseQueryInt32(r *http.Request, name string) (int32, error) {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 32)
	return int32(v), err
}

func parseQueryTime(r *http.Request, name string) (time.Time, error) {
	return time.Parse(time.RFC3339, r.URL.Query().Get(name))
}
