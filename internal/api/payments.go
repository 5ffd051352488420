package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lanchecard/canteen-api/internal/service"
)

type PaymentService interface {
	Generate(ctx context.Context, orderID int64, method string) (*service.PaymentCharge, error)
	Status(ctx context.Context, paymentID string) (*service.PaymentStatusView, error)
	Confirm(ctx context.Context, paymentID string) (*service.PaymentConfirmation, error)
	ApplyWebhook(ctx context.Context, paymentID, externalStatus string) (*models.Order, error)
}

type PaymentHandler struct {
	payments PaymentService
	responder
}

func NewPaymentHandler(payments PaymentService, r responder) *PaymentHandler {
	return &PaymentHandler{payments: payments, responder: r}
}

func (h *PaymentHandler) RegisterRoutes(router gin.IRouter) {
	payments := router.Group("/payments")
	{
		payments.POST("/generate", h.Generate)
		payments.POST("/webhook", h.Webhook)
		payments.GET("/:payment_id/status", h.Status)
		payments.POST("/:payment_id/confirm", h.Confirm)
	}
}

func (h *PaymentHandler) Generate(c *gin.Context) {
	var req struct {
		OrderID int64  `json:"order_id"`
		Method  string `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	charge, err := h.payments.Generate(c.Request.Context(), req.OrderID, req.Method)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "pix payment generated", charge)
}

func (h *PaymentHandler) Status(c *gin.Context) {
	view, err := h.payments.Status(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "", view)
}

// Confirm force-confirms a charge without the provider. Used by the demo
// storefront and in manual testing.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	confirmation, err := h.payments.Confirm(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "payment confirmed", confirmation)
}

func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req struct {
		PaymentID string `json:"payment_id"`
		Status    string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	if _, err := h.payments.ApplyWebhook(c.Request.Context(), req.PaymentID, req.Status); err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "webhook processed", nil)
}
