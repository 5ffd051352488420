package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/events"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lanchecard/canteen-api/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fakeLedger keeps orders in memory and mirrors the store's observable rules.
type fakeLedger struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]*models.Order
	prices   map[int64]decimal.Decimal
	calls    int
	failWith error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		orders: make(map[int64]*models.Order),
		prices: make(map[int64]decimal.Decimal),
	}
}

func (f *fakeLedger) CreateOrder(_ context.Context, req store.CreateOrderRequest) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}

	order := &models.Order{
		UserID:        req.UserID,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Notes:         req.Notes,
		CreatedAt:     time.Now(),
	}
	for _, item := range req.Items {
		price, ok := f.prices[item.ProductID]
		if !ok {
			return nil, apperror.Validation("product %d is not available or does not exist", item.ProductID)
		}
		total := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		order.TotalAmount = order.TotalAmount.Add(total)
		order.Items = append(order.Items, models.OrderLine{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  price,
			TotalPrice: total,
		})
	}

	f.nextID++
	order.ID = f.nextID
	f.orders[order.ID] = order
	copied := *order
	return &copied, nil
}

func (f *fakeLedger) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, apperror.NotFound("order %d not found", id)
	}
	copied := *order
	return &copied, nil
}

func (f *fakeLedger) ListOrders(_ context.Context, filter store.OrderFilter) (*store.OrderPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	page := &store.OrderPage{}
	for _, o := range f.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		page.Orders = append(page.Orders, *o)
	}
	return page, nil
}

func (f *fakeLedger) UpdateOrderStatus(_ context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	order, ok := f.orders[id]
	if !ok {
		return nil, apperror.NotFound("order %d not found", id)
	}
	order.Status = status
	copied := *order
	return &copied, nil
}

func (f *fakeLedger) UpdatePayment(_ context.Context, id int64, req store.UpdatePaymentRequest) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	order, ok := f.orders[id]
	if !ok {
		return nil, apperror.NotFound("order %d not found", id)
	}
	method := req.Method
	order.PaymentMethod = &method
	order.PaymentStatus = req.Status
	order.PaymentID = req.PaymentID
	copied := *order
	return &copied, nil
}

func (f *fakeLedger) GetOrderByPaymentID(_ context.Context, paymentID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order := f.byPaymentID(paymentID); order != nil {
		copied := *order
		return &copied, nil
	}
	return nil, apperror.NotFound("payment %s not found", paymentID)
}

func (f *fakeLedger) SetPaymentReference(_ context.Context, id int64, method, paymentID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	order, ok := f.orders[id]
	if !ok {
		return nil, apperror.NotFound("order %d not found", id)
	}
	if order.PaymentStatus == models.PaymentStatusConfirmed {
		return nil, apperror.Conflict("order %d payment is already confirmed", id)
	}
	order.PaymentMethod = &method
	order.PaymentStatus = models.PaymentStatusPending
	order.PaymentID = &paymentID
	copied := *order
	return &copied, nil
}

func (f *fakeLedger) ApplyPaymentStatus(_ context.Context, paymentID string, status models.PaymentStatus) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	order := f.byPaymentID(paymentID)
	if order == nil {
		return nil, apperror.NotFound("payment %s not found", paymentID)
	}
	order.PaymentStatus = status
	if status == models.PaymentStatusConfirmed {
		order.Status = models.OrderStatusPreparing
	}
	copied := *order
	return &copied, nil
}

func (f *fakeLedger) byPaymentID(paymentID string) *models.Order {
	for _, o := range f.orders {
		if o.PaymentID != nil && *o.PaymentID == paymentID {
			return o
		}
	}
	return nil
}

func (f *fakeLedger) seedOrder(status models.OrderStatus, paymentStatus models.PaymentStatus, total string) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	order := &models.Order{
		ID:            f.nextID,
		UserID:        1,
		Status:        status,
		PaymentStatus: paymentStatus,
		TotalAmount:   decimal.RequireFromString(total),
	}
	f.orders[order.ID] = order
	return order
}

type fakeUsers struct {
	byEmail map[string]*models.User
	nextID  int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]*models.User)}
}

func (f *fakeUsers) CreateUser(_ context.Context, name, email, passwordHash, role string) (*models.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, apperror.Conflict("email %s is already in use", email)
	}
	f.nextID++
	user := &models.User{ID: f.nextID, Name: name, Email: email, PasswordHash: passwordHash, Role: role}
	f.byEmail[email] = user
	return user, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id int64) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user %d not found", id)
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user not found")
}

type fakeCatalog struct {
	categories map[int64]*models.Category
	created    []store.CreateProductRequest
	updated    []store.UpdateProductRequest
}

func (f *fakeCatalog) ListCategories(context.Context) ([]models.Category, error) {
	return nil, nil
}

func (f *fakeCatalog) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, apperror.NotFound("category %d not found", id)
}

func (f *fakeCatalog) CreateCategory(_ context.Context, name string, description *string) (*models.Category, error) {
	return &models.Category{ID: 99, Name: name, Description: description}, nil
}

func (f *fakeCatalog) ListProducts(context.Context, *int64) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	return nil, apperror.NotFound("product %d not found", id)
}

func (f *fakeCatalog) CreateProduct(_ context.Context, req store.CreateProductRequest) (*models.Product, error) {
	f.created = append(f.created, req)
	return &models.Product{ID: int64(len(f.created)), Name: req.Name, Price: req.Price, Available: req.Available, NutritionalInfo: req.NutritionalInfo}, nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, id int64, req store.UpdateProductRequest) (*models.Product, error) {
	f.updated = append(f.updated, req)
	return &models.Product{ID: id}, nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id int64) (bool, error) {
	if id == 1 {
		return true, nil
	}
	return false, errors.New("unexpected delete")
}
