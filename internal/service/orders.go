// Package service holds the ledger, payment, catalog and account workflows.
// Each service owns its validation and talks to the store through a narrow
// interface.
package service

import (
	"context"
	"strings"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/events"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lanchecard/canteen-api/internal/store"
	"github.com/sirupsen/logrus"
)

const MaxPageSize = 100

type OrderStore interface {
	CreateOrder(ctx context.Context, req store.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filter store.OrderFilter) (*store.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)
	UpdatePayment(ctx context.Context, id int64, req store.UpdatePaymentRequest) (*models.Order, error)
}

type CreateOrderInput struct {
	UserID int64
	Items  []OrderItemInput
	Notes  *string
}

type OrderItemInput struct {
	ProductID int64
	Quantity  int
	Notes     *string
}

type ListOrdersInput struct {
	UserID *int64
	Status *string
	Limit  int
	Cursor string
}

type UpdatePaymentInput struct {
	Method    string
	Status    string
	PaymentID *string
}

type OrderService struct {
	store     OrderStore
	publisher events.Publisher
	log       *logrus.Logger
}

func NewOrderService(s OrderStore, publisher events.Publisher, logger *logrus.Logger) *OrderService {
	return &OrderService{
		store:     s,
		publisher: publisher,
		log:       logger,
	}
}

// CreateOrder validates the shape of the request; product existence and
// availability are checked inside the store transaction.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.UserID <= 0 || len(in.Items) == 0 {
		return nil, apperror.Validation("user_id and a non-empty items list are required")
	}

	items := make([]store.OrderLineRequest, len(in.Items))
	for i, item := range in.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return nil, apperror.Validation("each item needs a product_id and a quantity greater than zero")
		}
		items[i] = store.OrderLineRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		}
	}

	order, err := s.store.CreateOrder(ctx, store.CreateOrderRequest{
		UserID: in.UserID,
		Items:  items,
		Notes:  in.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount.String(),
		"lines":        len(order.Items),
	}).Info("Order created")

	s.publish(ctx, events.TypeOrderCreated, order)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	if id <= 0 {
		return nil, apperror.Validation("invalid order id")
	}
	return s.store.GetOrder(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, in ListOrdersInput) (*store.OrderPage, error) {
	if in.Limit < 0 {
		return nil, apperror.Validation("limit must not be negative")
	}

	filter := store.OrderFilter{
		UserID: in.UserID,
		Limit:  in.Limit,
		Cursor: in.Cursor,
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	if in.Status != nil {
		status := models.OrderStatus(*in.Status)
		filter.Status = &status
	}

	return s.store.ListOrders(ctx, filter)
}

// UpdateOrderStatus writes any status from the known set. Transitions are
// not checked against the lifecycle graph.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	next := models.OrderStatus(status)
	if !next.Valid() {
		return nil, apperror.Validation("status must be one of: %s", joinStatuses(models.OrderStatuses))
	}
	if id <= 0 {
		return nil, apperror.Validation("invalid order id")
	}

	order, err := s.store.UpdateOrderStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("Order status updated")

	s.publish(ctx, events.TypeOrderStatusChanged, order)
	return order, nil
}

func (s *OrderService) UpdatePayment(ctx context.Context, id int64, in UpdatePaymentInput) (*models.Order, error) {
	if in.Method == "" || in.Status == "" {
		return nil, apperror.Validation("payment_method and payment_status are required")
	}

	status := models.PaymentStatus(in.Status)
	if !status.Valid() {
		return nil, apperror.Validation("payment_status must be one of: %s", joinStatuses(models.PaymentStatuses))
	}
	if id <= 0 {
		return nil, apperror.Validation("invalid order id")
	}

	order, err := s.store.UpdatePayment(ctx, id, store.UpdatePaymentRequest{
		Method:    in.Method,
		Status:    status,
		PaymentID: in.PaymentID,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
	}).Info("Order payment updated")

	s.publish(ctx, events.TypePaymentUpdated, order)
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	publishEvent(ctx, s.publisher, s.log, eventType, order)
}

func publishEvent(ctx context.Context, publisher events.Publisher, logger *logrus.Logger, eventType string, order *models.Order) {
	if err := publisher.Publish(ctx, events.FromOrder(eventType, order)); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"event":    eventType,
			"order_id": order.ID,
		}).Warn("Failed to publish event")
	}
}

func joinStatuses[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
