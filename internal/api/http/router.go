package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentdesk-backend/internal/security"
	"rentdesk-backend/internal/service"
)

// NewRouter wires all API routes under /api/v1 behind the auth middleware.
func NewRouter(
	tokenManager security.TokenManager,
	bookings service.BookingService,
	cancellation service.CancellationService,
	orders service.OrderService,
	products service.ProductService,
) *mux.Router {
	root := mux.NewRouter()
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := root.PathPrefix("/api/v1").Subrouter()
	api.Use(NewAuthMiddleware(tokenManager).Handler)

	bookingHandler := NewBookingHandler(bookings, cancellation)
	orderHandler := NewOrderHandler(orders, bookings, cancellation)
	productHandler := NewProductHandler(products)

	api.HandleFunc("/bookings/conflicts", bookingHandler.CheckConflicts).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", bookingHandler.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", bookingHandler.UpdateBooking).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{id}/issue", bookingHandler.IssueBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/return", bookingHandler.ReturnBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/payments", bookingHandler.AddPayment).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/refunds", bookingHandler.RecordRefund).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/cancel-preview", bookingHandler.PreviewCancel).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/cancel", bookingHandler.CancelBooking).Methods(http.MethodPost)

	api.HandleFunc("/orders", orderHandler.CreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", orderHandler.ListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/bookings", orderHandler.AddBooking).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/payments", orderHandler.CollectPayment).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/cancel", orderHandler.CancelOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/invoice", orderHandler.GetInvoice).Methods(http.MethodGet)

	api.HandleFunc("/products", productHandler.CreateProduct).Methods(http.MethodPost)
	api.HandleFunc("/products", productHandler.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", productHandler.GetProduct).Methods(http.MethodGet)

	return root
}
