package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"
)

type orderService struct {
	store repository.Store
}

func NewOrderService(store repository.Store) OrderService {
	return &orderService{store: store}
}

func (s *orderService) CreateOrder(ctx context.Context, shopID int32, customerName, customerPhone string) (*domain.Order, error) {
	logger.EnterMethod("orderService.CreateOrder", "shop_id", shopID, "customer", customerName)

	if strings.TrimSpace(customerName) == "" {
		return nil, domain.Invalidf("customer name is required")
	}

	order := &domain.Order{
		ShopID:        shopID,
		CustomerName:  strings.TrimSpace(customerName),
		CustomerPhone: strings.TrimSpace(customerPhone),
		Status:        domain.OrderStatusInitiated,
	}
	if err := s.store.Orders().Create(ctx, order); err != nil {
		logger.ExitMethodWithError("orderService.CreateOrder", err, "shop_id", shopID)
		return nil, err
	}

	logger.ExitMethod("orderService.CreateOrder", "order_id", order.ID)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, shopID, orderID int32) (*domain.Order, []domain.Booking, error) {
	order, err := s.store.Orders().GetByID(ctx, shopID, orderID)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := s.store.Bookings().ListByOrder(ctx, shopID, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, bookings, nil
}

func (s *orderService) ListOrders(ctx context.Context, shopID int32, page, pageSize int32) ([]domain.Order, int32, error) {
	return s.store.Orders().ListByShop(ctx, shopID, page, pageSize)
}

// CollectPayment splits an order-level payment across the underpaid active
// bookings, weighted by decided rent, and posts each share as an ADVANCE
// entry. The last share absorbs the rounding remainder; no booking receives
// more than its own remaining amount.
func (s *orderService) CollectPayment(ctx context.Context, shopID, orderID int32, amountCents int32, note string) (*domain.Order, []domain.PaymentShare, error) {
	logger.EnterMethod("orderService.CollectPayment", "shop_id", shopID, "order_id", orderID, "amount_cents", amountCents)

	if amountCents <= 0 {
		return nil, nil, domain.Invalidf("payment amount must be positive")
	}

	var (
		order  *domain.Order
		shares []domain.PaymentShare
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().GetByID(ctx, shopID, orderID)
		if err != nil {
			return err
		}
		if o.Status == domain.OrderStatusCancelled {
			return domain.ErrOrderCancelled
		}

		bookings, err := tx.Bookings().ListByOrder(ctx, shopID, orderID)
		if err != nil {
			return err
		}

		// Select the underpaid subset, balances straight from the ledgers.
		type target struct {
			booking   domain.Booking
			remaining int32
		}
		var targets []target
		for _, b := range bookings {
			if b.Status == domain.BookingStatusCancelled {
				continue
			}
			entries, err := tx.Bookings().ListPayments(ctx, shopID, b.ID)
			if err != nil {
				return err
			}
			bal := domain.ComputeBalance(b.DecidedRentCents, entries)
			if bal.RemainingCents > 0 {
				targets = append(targets, target{booking: b, remaining: bal.RemainingCents})
			}
		}
		if len(targets) == 0 {
			return &domain.AllBookingsFullyPaidError{OrderID: orderID}
		}

		weights := make([]int32, len(targets))
		for i, t := range targets {
			weights[i] = t.booking.DecidedRentCents
		}
		split := utils.SplitProportionally(amountCents, weights)

		amountLeft := amountCents
		for i, t := range targets {
			give := split[i]
			if give > t.remaining {
				give = t.remaining
			}
			if give > amountLeft {
				give = amountLeft
			}
			if give <= 0 {
				continue
			}

			entry := &domain.PaymentEntry{
				ShopID:      shopID,
				BookingID:   t.booking.ID,
				Type:        domain.PaymentTypeAdvance,
				AmountCents: give,
				Note:        note,
			}
			if err := tx.Bookings().AppendPayment(ctx, entry); err != nil {
				return err
			}
			if err := refreshBookingBalance(ctx, tx, &targets[i].booking); err != nil {
				return err
			}
			shares = append(shares, domain.PaymentShare{BookingID: t.booking.ID, AmountCents: give})
			amountLeft -= give
		}

		order, err = refreshOrder(ctx, tx, shopID, orderID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("orderService.CollectPayment", err, "order_id", orderID)
		return nil, nil, err
	}

	logger.ExitMethod("orderService.CollectPayment", "order_id", orderID, "shares", len(shares))
	return order, shares, nil
}

func (s *orderService) GenerateInvoice(ctx context.Context, shopID, orderID int32) (*domain.Invoice, error) {
	order, err := s.store.Orders().GetByID(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.store.Bookings().ListByOrder(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Bookings().ListPaymentsByOrder(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}

	// Ledger entries grouped per booking so each line reflects its own paid
	// amount, not the cached columns.
	byBooking := make(map[int32][]domain.PaymentEntry)
	for _, p := range payments {
		byBooking[p.BookingID] = append(byBooking[p.BookingID], p)
	}

	lines := make([]domain.InvoiceLine, 0, len(bookings))
	for _, b := range bookings {
		product, err := s.store.Products().GetByID(ctx, shopID, b.ProductID)
		if err != nil {
			return nil, err
		}
		bal := domain.ComputeBalance(b.DecidedRentCents, byBooking[b.ID])
		lines = append(lines, domain.InvoiceLine{
			BookingID:      b.ID,
			ProductName:    product.Name,
			FromDateTime:   b.FromDateTime,
			ToDateTime:     b.ToDateTime,
			Status:         b.Status,
			RentCents:      b.DecidedRentCents,
			PaidCents:      bal.TotalPaidCents,
			RemainingCents: bal.RemainingCents,
		})
	}

	return &domain.Invoice{
		InvoiceNumber: fmt.Sprintf("INV-%d-%s", orderID, uuid.NewString()[:8]),
		GeneratedOn:   time.Now(),
		Order:         *order,
		Lines:         lines,
		Payments:      payments,
	}, nil
}

func (s *orderService) RecomputeOrder(ctx context.Context, shopID, orderID int32) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		bookings, err := tx.Bookings().ListByOrder(ctx, shopID, orderID)
		if err != nil {
			return err
		}
		for i := range bookings {
			if err := refreshBookingBalance(ctx, tx, &bookings[i]); err != nil {
				return err
			}
		}
		order, err = refreshOrder(ctx, tx, shopID, orderID)
		return err
	})
	return order, err
}

// refreshBookingBalance recomputes the booking's cached advance/remaining
// columns from its ledger and persists them when they drifted.
func refreshBookingBalance(ctx context.Context, s repository.Store, b *domain.Booking) error {
	entries, err := s.Bookings().ListPayments(ctx, b.ShopID, b.ID)
	if err != nil {
		return err
	}
	bal := domain.ComputeBalance(b.DecidedRentCents, entries)
	if b.AdvanceCents == bal.TotalAdvanceCents && b.RemainingCents == bal.RemainingCents {
		return nil
	}
	b.AdvanceCents = bal.TotalAdvanceCents
	b.RemainingCents = bal.RemainingCents
	return s.Bookings().Update(ctx, b)
}

// refreshOrder recomputes the order's cached totals from the non-cancelled
// bookings' ledgers and re-derives its status. CANCELLED is terminal and is
// never overwritten here.
func refreshOrder(ctx context.Context, s repository.Store, shopID, orderID int32) (*domain.Order, error) {
	order, err := s.Orders().GetByID(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.Bookings().ListByOrder(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}

	var total, received int32
	for _, b := range bookings {
		if b.Status == domain.BookingStatusCancelled {
			continue
		}
		entries, err := s.Bookings().ListPayments(ctx, shopID, b.ID)
		if err != nil {
			return nil, err
		}
		bal := domain.ComputeBalance(b.DecidedRentCents, entries)
		total += b.DecidedRentCents
		received += bal.TotalPaidCents
	}

	order.TotalCents = total
	order.ReceivedCents = received
	order.RemainingCents = total - received
	if order.Status != domain.OrderStatusCancelled && len(bookings) > 0 {
		order.Status = domain.DeriveOrderStatus(bookings, total, received)
	}

	if err := s.Orders().Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
