package service

import (
	"context"
	"strings"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type productService struct {
	store repository.Store
}

func NewProductService(store repository.Store) ProductService {
	return &productService{store: store}
}

func (s *productService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.Invalidf("product name is required")
	}
	if p.DefaultRentCents < 0 {
		return domain.Invalidf("default rent must not be negative")
	}
	return s.store.Products().Create(ctx, p)
}

func (s *productService) GetProduct(ctx context.Context, shopID, productID int32) (*domain.Product, error) {
	return s.store.Products().GetByID(ctx, shopID, productID)
}

func (s *productService) ListProducts(ctx context.Context, shopID int32) ([]domain.Product, error) {
	return s.store.Products().ListByShop(ctx, shopID)
}
