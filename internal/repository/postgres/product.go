package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
)

type productRepository struct {
	q querier
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (shop_id, name, category, default_rent_cents, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now()
	p.CreatedOn = now
	p.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query, p.ShopID, p.Name, p.Category, p.DefaultRentCents, now, now).Scan(&p.ID)
}

func (r *productRepository) GetByID(ctx context.Context, shopID, id int32) (*domain.Product, error) {
	p := &domain.Product{}
	query := `SELECT id, shop_id, name, COALESCE(category, ''), default_rent_cents, created_on, updated_on
	          FROM products WHERE id = $1 AND shop_id = $2`
	err := r.q.QueryRowContext(ctx, query, id, shopID).
		Scan(&p.ID, &p.ShopID, &p.Name, &p.Category, &p.DefaultRentCents, &p.CreatedOn, &p.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "product", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) ListByShop(ctx context.Context, shopID int32) ([]domain.Product, error) {
	query := `SELECT id, shop_id, name, COALESCE(category, ''), default_rent_cents, created_on, updated_on
	          FROM products WHERE shop_id = $1 ORDER BY name`
	rows, err := r.q.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.Name, &p.Category, &p.DefaultRentCents, &p.CreatedOn, &p.UpdatedOn); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
