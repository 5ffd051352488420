package api_test

import (
	"context"
	"errors"
	"io"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/auth"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lanchecard/canteen-api/internal/service"
	"github.com/lanchecard/canteen-api/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	adminToken    = "admin-token"
	customerToken = "customer-token"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeOrders struct {
	order     *models.Order
	page      *store.OrderPage
	err       error
	created   service.CreateOrderInput
	listed    service.ListOrdersInput
	status    string
	payment   service.UpdatePaymentInput
	panicOnID int64
}

func (f *fakeOrders) CreateOrder(_ context.Context, in service.CreateOrderInput) (*models.Order, error) {
	f.created = in
	return f.order, f.err
}

func (f *fakeOrders) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	if f.panicOnID != 0 && id == f.panicOnID {
		panic("ledger exploded")
	}
	return f.order, f.err
}

func (f *fakeOrders) ListOrders(_ context.Context, in service.ListOrdersInput) (*store.OrderPage, error) {
	f.listed = in
	return f.page, f.err
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, _ int64, status string) (*models.Order, error) {
	f.status = status
	return f.order, f.err
}

func (f *fakeOrders) UpdatePayment(_ context.Context, _ int64, in service.UpdatePaymentInput) (*models.Order, error) {
	f.payment = in
	return f.order, f.err
}

type fakePayments struct {
	charge       *service.PaymentCharge
	view         *service.PaymentStatusView
	confirmation *service.PaymentConfirmation
	err          error
	webhook      [2]string
}

func (f *fakePayments) Generate(context.Context, int64, string) (*service.PaymentCharge, error) {
	return f.charge, f.err
}

func (f *fakePayments) Status(context.Context, string) (*service.PaymentStatusView, error) {
	return f.view, f.err
}

func (f *fakePayments) Confirm(context.Context, string) (*service.PaymentConfirmation, error) {
	return f.confirmation, f.err
}

func (f *fakePayments) ApplyWebhook(_ context.Context, paymentID, externalStatus string) (*models.Order, error) {
	f.webhook = [2]string{paymentID, externalStatus}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{}, nil
}

type fakeCatalog struct {
	products    []models.Product
	product     *models.Product
	category    *models.Category
	softDeleted bool
	err         error
	categoryID  *int64
}

func (f *fakeCatalog) ListCategories(context.Context) ([]models.Category, error) {
	if f.category == nil {
		return nil, f.err
	}
	return []models.Category{*f.category}, f.err
}

func (f *fakeCatalog) GetCategory(context.Context, int64) (*models.Category, error) {
	return f.category, f.err
}

func (f *fakeCatalog) CreateCategory(context.Context, string, *string) (*models.Category, error) {
	return f.category, f.err
}

func (f *fakeCatalog) ListProducts(_ context.Context, categoryID *int64) ([]models.Product, error) {
	f.categoryID = categoryID
	return f.products, f.err
}

func (f *fakeCatalog) GetProduct(context.Context, int64) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeCatalog) CreateProduct(context.Context, service.ProductInput) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeCatalog) UpdateProduct(context.Context, int64, service.ProductInput) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeCatalog) DeleteProduct(context.Context, int64) (bool, error) {
	return f.softDeleted, f.err
}

type fakeAuth struct {
	result *service.AuthResult
	user   *models.User
	err    error
}

func (f *fakeAuth) Register(context.Context, string, string, string) (*service.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeAuth) Login(context.Context, string, string) (*service.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeAuth) Profile(_ context.Context, userID int64) (*models.User, error) {
	if f.user == nil || f.user.ID != userID {
		return nil, apperror.NotFound("user not found")
	}
	return f.user, nil
}

func (f *fakeAuth) VerifyToken(token string) (*auth.Claims, error) {
	switch token {
	case adminToken:
		return &auth.Claims{UserID: 1, Name: "Admin", Role: models.RoleAdmin}, nil
	case customerToken:
		return &auth.Claims{UserID: 42, Name: "Ana", Role: models.RoleCustomer}, nil
	default:
		return nil, apperror.Auth("invalid token")
	}
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) Ping(context.Context) error {
	return f.err
}

var errBoom = errors.New("connection reset by peer")
