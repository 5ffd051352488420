package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lanchecard/canteen-api/internal/service"
	"github.com/lanchecard/canteen-api/internal/store"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, in service.ListOrdersInput) (*store.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error)
	UpdatePayment(ctx context.Context, id int64, in service.UpdatePaymentInput) (*models.Order, error)
}

type OrderHandler struct {
	orders OrderService
	responder
}

func NewOrderHandler(orders OrderService, r responder) *OrderHandler {
	return &OrderHandler{orders: orders, responder: r}
}

func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	orders := router.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("", h.CreateOrder)
		orders.PATCH("/:id/status", h.UpdateStatus)
		orders.PATCH("/:id/payment", h.UpdatePayment)
	}
}

type createOrderRequest struct {
	UserID int64              `json:"user_id"`
	Notes  *string            `json:"notes"`
	Items  []orderLineRequest `json:"items"`
}

type orderLineRequest struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Notes     *string `json:"notes"`
}

// CreateOrder takes the owner from the body, falling back to the bearer
// token when the body leaves it out.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	if req.UserID == 0 {
		if claims, ok := claimsFrom(c); ok {
			req.UserID = claims.UserID
		}
	}

	in := service.CreateOrderInput{
		UserID: req.UserID,
		Notes:  req.Notes,
		Items:  make([]service.OrderItemInput, len(req.Items)),
	}
	for i, item := range req.Items {
		in.Items[i] = service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		}
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusCreated, "order created", order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var in service.ListOrdersInput

	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.fail(c, apperror.Validation("user_id must be a number"))
			return
		}
		in.UserID = &userID
	}

	if status := c.Query("status"); status != "" {
		in.Status = &status
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, apperror.Validation("limit must be a number"))
			return
		}
		in.Limit = limit
	}
	in.Cursor = c.Query("cursor")

	page, err := h.orders.ListOrders(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.list(c, page.Orders, len(page.Orders), page.NextCursor)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "", order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, fmt.Sprintf("order status updated to '%s'", order.Status), order)
}

func (h *OrderHandler) UpdatePayment(c *gin.Context) {
	id, ok := h.pathID(c, "id", "order")
	if !ok {
		return
	}

	var req struct {
		PaymentMethod string  `json:"payment_method"`
		PaymentStatus string  `json:"payment_status"`
		PaymentID     *string `json:"payment_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	order, err := h.orders.UpdatePayment(c.Request.Context(), id, service.UpdatePaymentInput{
		Method:    req.PaymentMethod,
		Status:    req.PaymentStatus,
		PaymentID: req.PaymentID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, fmt.Sprintf("order payment updated to '%s'", order.PaymentStatus), order)
}

func (r responder) pathID(c *gin.Context, param, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		r.fail(c, apperror.Validation("invalid %s id", resource))
		return 0, false
	}
	return id, true
}
