package http

import (
	"net/http"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

// ProductHandler exposes the thin product catalog.
type ProductHandler struct {
	products service.ProductService
}

func NewProductHandler(products service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type createProductRequest struct {
	Name             string `json:"name"`
	Category         string `json:"category,omitempty"`
	DefaultRentCents int32  `json:"default_rent_cents"`
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())

	var req createProductRequest
	if !decodeBody(w, r, &req) {
		return
	}

	product := &domain.Product{
		ShopID:           shopID,
		Name:             req.Name,
		Category:         req.Category,
		DefaultRentCents: req.DefaultRentCents,
	}
	if err := h.products.CreateProduct(r.Context(), product); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), shopID, productID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	shopID, _ := ShopIDFromContext(r.Context())

	products, err := h.products.ListProducts(r.Context(), shopID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}
