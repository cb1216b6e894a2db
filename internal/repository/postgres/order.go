package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
)

type orderRepository struct {
	q querier
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (shop_id, customer_name, customer_phone, total_cents, received_cents, remaining_cents, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now()
	o.CreatedOn = now
	o.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query,
		o.ShopID, o.CustomerName, o.CustomerPhone,
		o.TotalCents, o.ReceivedCents, o.RemainingCents, o.Status, now, now).Scan(&o.ID)
}

func (r *orderRepository) GetByID(ctx context.Context, shopID, id int32) (*domain.Order, error) {
	o := &domain.Order{}
	query := `SELECT id, shop_id, customer_name, COALESCE(customer_phone, ''), total_cents, received_cents, remaining_cents, status, created_on, updated_on
	          FROM orders WHERE id = $1 AND shop_id = $2`
	err := r.q.QueryRowContext(ctx, query, id, shopID).Scan(
		&o.ID, &o.ShopID, &o.CustomerName, &o.CustomerPhone,
		&o.TotalCents, &o.ReceivedCents, &o.RemainingCents, &o.Status, &o.CreatedOn, &o.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) Update(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET customer_name=$1, customer_phone=$2, total_cents=$3, received_cents=$4, remaining_cents=$5, status=$6, updated_on=$7
	          WHERE id=$8 AND shop_id=$9`
	o.UpdatedOn = time.Now()
	_, err := r.q.ExecContext(ctx, query,
		o.CustomerName, o.CustomerPhone, o.TotalCents, o.ReceivedCents, o.RemainingCents, o.Status, o.UpdatedOn,
		o.ID, o.ShopID)
	return err
}

func (r *orderRepository) ListByShop(ctx context.Context, shopID int32, page, pageSize int32) ([]domain.Order, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var count int32
	countQuery := `SELECT count(*) FROM orders WHERE shop_id = $1`
	if err := r.q.QueryRowContext(ctx, countQuery, shopID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, shop_id, customer_name, COALESCE(customer_phone, ''), total_cents, received_cents, remaining_cents, status, created_on, updated_on
	          FROM orders WHERE shop_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, shopID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.ShopID, &o.CustomerName, &o.CustomerPhone,
			&o.TotalCents, &o.ReceivedCents, &o.RemainingCents, &o.Status, &o.CreatedOn, &o.UpdatedOn); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, count, rows.Err()
}

func (r *orderRepository) ListActiveIDs(ctx context.Context, shopID int32) ([]int32, error) {
	query := `SELECT id FROM orders WHERE shop_id = $1 AND status <> $2 ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, shopID, domain.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
