package http

import (
	"net/http"
	"strconv"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

// OrderHandler exposes order creation, aggregation and cancellation.
type OrderHandler struct {
	orders       service.OrderService
	bookings     service.BookingService
	cancellation service.CancellationService
}

func NewOrderHandler(orders service.OrderService, bookings service.BookingService, cancellation service.CancellationService) *OrderHandler {
	return &OrderHandler{orders: orders, bookings: bookings, cancellation: cancellation}
}

type createOrderRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

type addBookingRequest struct {
	ProductID         int32  `json:"product_id"`
	FromDateTime      string `json:"from_datetime"`
	ToDateTime        string `json:"to_datetime"`
	DecidedRentCents  int32  `json:"decided_rent_cents,omitempty"`
	AdvanceCents      int32  `json:"advance_cents,omitempty"`
	Notes             string `json:"notes,omitempty"`
	OverrideConflicts bool   `json:"override_conflicts,omitempty"`
}

type cancelOrderRequest struct {
	RefundCents *int32 `json:"refund_cents,omitempty"`
	Note        string `json:"note,omitempty"`
}

type orderResponse struct {
	Order    *domain.Order    `json:"order"`
	Bookings []domain.Booking `json:"bookings,omitempty"`
}

type listOrdersResponse struct {
	Orders   []domain.Order `json:"orders"`
	Total    int32          `json:"total"`
	Page     int32          `json:"page"`
	PageSize int32          `json:"page_size"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())

	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), shopID, req.CustomerName, req.CustomerPhone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse{Order: order})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, bookings, err := h.orders.GetOrder(r.Context(), shopID, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Order: order, Bookings: bookings})
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())

	page := queryIntDefault(r, "page", 1)
	pageSize := queryIntDefault(r, "page_size", 20)

	orders, total, err := h.orders.ListOrders(r.Context(), shopID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listOrdersResponse{Orders: orders, Total: total, Page: page, PageSize: pageSize})
}

func (h *OrderHandler) AddBooking(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req addBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	from, err := time.Parse(time.RFC3339, req.FromDateTime)
	if err != nil {
		badRequest(w, "from_datetime must be an RFC3339 datetime")
		return
	}
	to, err := time.Parse(time.RFC3339, req.ToDateTime)
	if err != nil {
		badRequest(w, "to_datetime must be an RFC3339 datetime")
		return
	}

	booking, err := h.bookings.AddBookingToOrder(r.Context(), shopID, orderID, service.AddBookingInput{
		ProductID:         req.ProductID,
		FromDateTime:      from,
		ToDateTime:        to,
		DecidedRentCents:  req.DecidedRentCents,
		AdvanceCents:      req.AdvanceCents,
		Notes:             req.Notes,
		OverrideConflicts: req.OverrideConflicts,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingResponse{Booking: booking})
}

func (h *OrderHandler) CollectPayment(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, shares, err := h.orders.CollectPayment(r.Context(), shopID, orderID, req.AmountCents, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order, "distribution": shares})
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req cancelOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, shares, err := h.cancellation.CancelOrder(r.Context(), shopID, orderID, req.RefundCents, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order, "refunds": shares})
}

func (h *OrderHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	invoice, err := h.orders.GenerateInvoice(r.Context(), shopID, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func queryIntDefault(r *http.Request, name string, def int32) int32 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v <= 0 {
		return def
	}
	return int32(v)
}
