package service

import (
	"context"
	"time"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/events"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lanchecard/canteen-api/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PaymentStore interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	SetPaymentReference(ctx context.Context, id int64, method, paymentID string) (*models.Order, error)
	ApplyPaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus) (*models.Order, error)
}

type PaymentCharge struct {
	OrderID       int64                `json:"order_id"`
	PaymentID     string               `json:"payment_id"`
	PaymentMethod string               `json:"payment_method"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	PixCode       string               `json:"pix_code"`
	QRCodeImage   string               `json:"qrcode_image"`
	Expiration    time.Time            `json:"expiration"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
}

type PaymentStatusView struct {
	OrderID       int64                `json:"order_id"`
	PaymentID     string               `json:"payment_id"`
	PaymentMethod *string              `json:"payment_method"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type PaymentConfirmation struct {
	OrderID       int64                `json:"order_id"`
	PaymentID     string               `json:"payment_id"`
	PaymentMethod *string              `json:"payment_method"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	OrderStatus   models.OrderStatus   `json:"order_status"`
}

type PaymentService struct {
	store     PaymentStore
	pix       *payment.Generator
	publisher events.Publisher
	log       *logrus.Logger
}

func NewPaymentService(s PaymentStore, pix *payment.Generator, publisher events.Publisher, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		store:     s,
		pix:       pix,
		publisher: publisher,
		log:       logger,
	}
}

// Generate issues a new PIX charge for the order and resets its payment to
// pending. Orders with a confirmed payment are refused.
func (s *PaymentService) Generate(ctx context.Context, orderID int64, method string) (*PaymentCharge, error) {
	if orderID <= 0 || method == "" {
		return nil, apperror.Validation("order_id and method are required")
	}
	if method != models.PaymentMethodPix {
		return nil, apperror.Validation("payment method %q is not supported, use %q", method, models.PaymentMethodPix)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == models.PaymentStatusConfirmed {
		return nil, apperror.Conflict("order %d already has a confirmed payment", orderID)
	}

	paymentID := s.pix.NewReference()
	charge, err := s.pix.Charge(paymentID, order.TotalAmount)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "generate pix charge")
	}

	updated, err := s.store.SetPaymentReference(ctx, orderID, method, paymentID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":   updated.ID,
		"payment_id": paymentID,
	}).Info("PIX charge generated")

	publishEvent(ctx, s.publisher, s.log, events.TypePaymentUpdated, updated)

	return &PaymentCharge{
		OrderID:       updated.ID,
		PaymentID:     paymentID,
		PaymentMethod: method,
		PaymentStatus: updated.PaymentStatus,
		PixCode:       charge.PixCode,
		QRCodeImage:   charge.QRCodeImage,
		Expiration:    charge.Expiration,
		TotalAmount:   updated.TotalAmount,
	}, nil
}

func (s *PaymentService) Status(ctx context.Context, paymentID string) (*PaymentStatusView, error) {
	if paymentID == "" {
		return nil, apperror.Validation("payment_id is required")
	}

	order, err := s.store.GetOrderByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	return &PaymentStatusView{
		OrderID:       order.ID,
		PaymentID:     paymentID,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		UpdatedAt:     order.UpdatedAt,
	}, nil
}

// Confirm marks the payment confirmed and moves the order to preparing,
// whatever state either was in. Repeating it is harmless.
func (s *PaymentService) Confirm(ctx context.Context, paymentID string) (*PaymentConfirmation, error) {
	if paymentID == "" {
		return nil, apperror.Validation("payment_id is required")
	}

	order, err := s.apply(ctx, paymentID, models.PaymentStatusConfirmed)
	if err != nil {
		return nil, err
	}

	return &PaymentConfirmation{
		OrderID:       order.ID,
		PaymentID:     paymentID,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.Status,
	}, nil
}

// ApplyWebhook records a provider notification. Only a confirmation touches
// the order status; failures and refunds leave it alone.
func (s *PaymentService) ApplyWebhook(ctx context.Context, paymentID, externalStatus string) (*models.Order, error) {
	if paymentID == "" || externalStatus == "" {
		return nil, apperror.Validation("payment_id and status are required")
	}

	return s.apply(ctx, paymentID, payment.MapExternalStatus(externalStatus))
}

func (s *PaymentService) apply(ctx context.Context, paymentID string, status models.PaymentStatus) (*models.Order, error) {
	order, err := s.store.ApplyPaymentStatus(ctx, paymentID, status)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":       order.ID,
		"payment_id":     paymentID,
		"payment_status": order.PaymentStatus,
		"status":         order.Status,
	}).Info("Payment status updated")

	publishEvent(ctx, s.publisher, s.log, events.TypePaymentUpdated, order)
	return order, nil
}
