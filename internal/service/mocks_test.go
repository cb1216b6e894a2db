package service

import (
	"context"
	"sort"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

// fakeStore is an in-memory repository.Store. The multi-step ledger flows
// (cancel with transfers, order-level collection) are much easier to assert
// against real state than against call expectations, so the service tests
// run on this instead of a call-recording mock. WithinTx runs the function
// directly; transactional semantics are the postgres package's concern.
type fakeStore struct {
	products map[int32]domain.Product
	orders   map[int32]domain.Order
	bookings map[int32]domain.Booking
	payments []domain.PaymentEntry
	nextID   int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[int32]domain.Product),
		orders:   make(map[int32]domain.Order),
		bookings: make(map[int32]domain.Booking),
	}
}

func (f *fakeStore) id() int32 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) Products() repository.ProductRepository { return &fakeProducts{f} }
func (f *fakeStore) Orders() repository.OrderRepository     { return &fakeOrders{f} }
func (f *fakeStore) Bookings() repository.BookingRepository { return &fakeBookings{f} }

func (f *fakeStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(f)
}

// seed helpers

func (f *fakeStore) addProduct(shopID int32, name string, defaultRent int32) int32 {
	id := f.id()
	f.products[id] = domain.Product{ID: id, ShopID: shopID, Name: name, DefaultRentCents: defaultRent}
	return id
}

func (f *fakeStore) addOrder(shopID int32, customer string) int32 {
	id := f.id()
	f.orders[id] = domain.Order{ID: id, ShopID: shopID, CustomerName: customer, Status: domain.OrderStatusInitiated}
	return id
}

func (f *fakeStore) addBooking(b domain.Booking) int32 {
	id := f.id()
	b.ID = id
	if b.Status == "" {
		b.Status = domain.BookingStatusBooked
	}
	if b.RemainingCents == 0 {
		b.RemainingCents = b.DecidedRentCents
	}
	f.bookings[id] = b
	return id
}

func (f *fakeStore) addPayment(shopID, bookingID int32, typ domain.PaymentType, amount int32) {
	f.payments = append(f.payments, domain.PaymentEntry{
		ID: f.id(), ShopID: shopID, BookingID: bookingID, Type: typ, AmountCents: amount, RecordedOn: time.Now(),
	})
}

func (f *fakeStore) paymentsFor(bookingID int32) []domain.PaymentEntry {
	var out []domain.PaymentEntry
	for _, p := range f.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out
}

type fakeProducts struct{ s *fakeStore }

func (r *fakeProducts) Create(ctx context.Context, p *domain.Product) error {
	p.ID = r.s.id()
	r.s.products[p.ID] = *p
	return nil
}

func (r *fakeProducts) GetByID(ctx context.Context, shopID, id int32) (*domain.Product, error) {
	p, ok := r.s.products[id]
	if !ok || p.ShopID != shopID {
		return nil, &domain.NotFoundError{Entity: "product", ID: id}
	}
	cp := p
	return &cp, nil
}

func (r *fakeProducts) ListByShop(ctx context.Context, shopID int32) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range r.s.products {
		if p.ShopID == shopID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeOrders struct{ s *fakeStore }

func (r *fakeOrders) Create(ctx context.Context, o *domain.Order) error {
	o.ID = r.s.id()
	o.CreatedOn = time.Now()
	o.UpdatedOn = o.CreatedOn
	r.s.orders[o.ID] = *o
	return nil
}

func (r *fakeOrders) GetByID(ctx context.Context, shopID, id int32) (*domain.Order, error) {
	o, ok := r.s.orders[id]
	if !ok || o.ShopID != shopID {
		return nil, &domain.NotFoundError{Entity: "order", ID: id}
	}
	cp := o
	return &cp, nil
}

func (r *fakeOrders) Update(ctx context.Context, o *domain.Order) error {
	if _, ok := r.s.orders[o.ID]; !ok {
		return &domain.NotFoundError{Entity: "order", ID: o.ID}
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r *fakeOrders) ListByShop(ctx context.Context, shopID int32, page, pageSize int32) ([]domain.Order, int32, error) {
	var out []domain.Order
	for _, o := range r.s.orders {
		if o.ShopID == shopID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int32(len(out)), nil
}

func (r *fakeOrders) ListActiveIDs(ctx context.Context, shopID int32) ([]int32, error) {
	var ids []int32
	for _, o := range r.s.orders {
		if o.ShopID == shopID && o.Status != domain.OrderStatusCancelled {
			ids = append(ids, o.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeBookings struct{ s *fakeStore }

func (r *fakeBookings) Create(ctx context.Context, b *domain.Booking) error {
	b.ID = r.s.id()
	b.CreatedOn = time.Now()
	b.UpdatedOn = b.CreatedOn
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *fakeBookings) GetByID(ctx context.Context, shopID, id int32) (*domain.Booking, error) {
	b, ok := r.s.bookings[id]
	if !ok || b.ShopID != shopID {
		return nil, &domain.NotFoundError{Entity: "booking", ID: id}
	}
	cp := b
	return &cp, nil
}

func (r *fakeBookings) Update(ctx context.Context, b *domain.Booking) error {
	if _, ok := r.s.bookings[b.ID]; !ok {
		return &domain.NotFoundError{Entity: "booking", ID: b.ID}
	}
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *fakeBookings) ListByOrder(ctx context.Context, shopID, orderID int32) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range r.s.bookings {
		if b.ShopID == shopID && b.OrderID == orderID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBookings) FindOverlapping(ctx context.Context, shopID, productID int32, from, to time.Time, excludeID int32) ([]domain.ConflictingBooking, error) {
	var out []domain.ConflictingBooking
	for _, b := range r.s.bookings {
		if b.ShopID != shopID || b.ProductID != productID || b.ID == excludeID {
			continue
		}
		if b.Status == domain.BookingStatusCancelled {
			continue
		}
		if !b.Overlaps(from, to) {
			continue
		}
		customer := ""
		if o, ok := r.s.orders[b.OrderID]; ok {
			customer = o.CustomerName
		}
		out = append(out, domain.ConflictingBooking{
			BookingID:    b.ID,
			OrderID:      b.OrderID,
			CustomerName: customer,
			FromDateTime: b.FromDateTime,
			ToDateTime:   b.ToDateTime,
			Status:       b.Status,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID < out[j].BookingID })
	return out, nil
}

func (r *fakeBookings) ListIssuedPastDue(ctx context.Context, shopID int32, cutoff time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range r.s.bookings {
		if b.ShopID == shopID && b.Status == domain.BookingStatusIssued && b.ToDateTime.Before(cutoff) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBookings) AppendPayment(ctx context.Context, e *domain.PaymentEntry) error {
	e.ID = r.s.id()
	if e.RecordedOn.IsZero() {
		e.RecordedOn = time.Now()
	}
	r.s.payments = append(r.s.payments, *e)
	return nil
}

func (r *fakeBookings) UpdatePaymentAmount(ctx context.Context, shopID, entryID, amountCents int32, note string) error {
	for i, p := range r.s.payments {
		if p.ID == entryID && p.ShopID == shopID {
			r.s.payments[i].AmountCents = amountCents
			r.s.payments[i].Note = note
			return nil
		}
	}
	return &domain.NotFoundError{Entity: "payment entry", ID: entryID}
}

func (r *fakeBookings) ListPayments(ctx context.Context, shopID, bookingID int32) ([]domain.PaymentEntry, error) {
	var out []domain.PaymentEntry
	for _, p := range r.s.payments {
		if p.ShopID == shopID && p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeBookings) ListPaymentsByOrder(ctx context.Context, shopID, orderID int32) ([]domain.PaymentEntry, error) {
	var out []domain.PaymentEntry
	for _, p := range r.s.payments {
		b, ok := r.s.bookings[p.BookingID]
		if ok && p.ShopID == shopID && b.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}
