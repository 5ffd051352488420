package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/database"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	UserID int64
	Items  []OrderLineRequest
	Notes  *string
}

type OrderLineRequest struct {
	ProductID int64
	Quantity  int
	Notes     *string
}

type OrderFilter struct {
	UserID *int64
	Status *models.OrderStatus
	Limit  int
	Cursor string
}

type UpdatePaymentRequest struct {
	Method    string
	Status    models.PaymentStatus
	PaymentID *string
}

const orderColumns = `id, user_id, status, total_amount, payment_method, payment_status,
	payment_id, notes, created_at, updated_at`

const orderLinesQuery = `
	SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.total_price,
	       oi.notes, oi.created_at, p.name AS product_name, p.price AS product_price, p.image_url
	FROM order_items oi
	JOIN products p ON p.id = oi.product_id
	WHERE oi.order_id = ANY($1)
	ORDER BY oi.order_id, oi.id`

// CreateOrder prices every line from the product's current price and writes
// the order with all of its lines in one transaction. The product rows stay
// share-locked until commit so their price and availability cannot move
// underneath the snapshot.
func (s *Store) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var order *models.Order

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		totalAmount := decimal.Zero
		unitPrices := make([]decimal.Decimal, len(req.Items))

		for i, item := range req.Items {
			var price decimal.Decimal
			err := tx.GetContext(ctx, &price,
				`SELECT price
				 FROM products
				 WHERE id = $1 AND available = true
				 FOR SHARE`,
				item.ProductID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperror.Validation("product %d is not available or does not exist", item.ProductID)
				}
				return fmt.Errorf("lock product %d: %w", item.ProductID, err)
			}

			unitPrices[i] = price
			totalAmount = totalAmount.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		order = &models.Order{}
		err := tx.GetContext(ctx, order,
			`INSERT INTO orders (user_id, status, total_amount, payment_status, notes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			 RETURNING `+orderColumns,
			req.UserID, models.OrderStatusPending, totalAmount, models.PaymentStatusPending, req.Notes)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i, item := range req.Items {
			lineTotal := unitPrices[i].Mul(decimal.NewFromInt(int64(item.Quantity)))

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, notes, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
				order.ID, item.ProductID, item.Quantity, unitPrices[i], lineTotal, item.Notes)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		return s.attachLines(ctx, tx, []*models.Order{order})
	})
	if err != nil {
		if !apperror.Is(err, apperror.KindValidation) {
			s.log.WithError(err).WithField("user_id", req.UserID).Error("Failed to create order")
		}
		return nil, database.Translate(err, "create order")
	}

	return order, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	order := &models.Order{}

	err := s.db.GetContext(ctx, order, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("order %d not found", id)
		}
		return nil, database.Translate(err, "get order")
	}

	if err := s.attachLines(ctx, s.db, []*models.Order{order}); err != nil {
		return nil, database.Translate(err, "get order items")
	}

	return order, nil
}

func (s *Store) GetOrderByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	order := &models.Order{}

	err := s.db.GetContext(ctx, order, `SELECT `+orderColumns+` FROM orders WHERE payment_id = $1`, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("payment %s not found", paymentID)
		}
		return nil, database.Translate(err, "get order by payment")
	}

	return order, nil
}

// ListOrders returns matching orders newest first. A zero Limit returns
// every match in a single page.
func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var (
		conditions []string
		args       []interface{}
	)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Cursor != "" {
		cursor, err := DecodeCursor(filter.Cursor)
		if err != nil {
			return nil, err
		}
		args = append(args, cursor.CreatedAt, cursor.ID)
		conditions = append(conditions, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit+1)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	orders := []models.Order{}
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, database.Translate(err, "list orders")
	}

	hasMore := filter.Limit > 0 && len(orders) > filter.Limit
	if hasMore {
		orders = orders[:filter.Limit]
	}

	refs := make([]*models.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := s.attachLines(ctx, s.db, refs); err != nil {
		return nil, database.Translate(err, "list order items")
	}

	page := &OrderPage{Orders: orders, HasMore: hasMore}
	if hasMore {
		last := orders[len(orders)-1]
		page.NextCursor = EncodeCursor(OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return page, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	order := &models.Order{}

	err := s.db.GetContext(ctx, order,
		`UPDATE orders
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+orderColumns,
		status, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("order %d not found", id)
		}
		s.log.WithError(err).WithField("order_id", id).Error("Failed to update order status")
		return nil, database.Translate(err, "update order status")
	}

	return order, nil
}

// UpdatePayment writes the payment fields as given, including clearing the
// payment reference when PaymentID is nil.
func (s *Store) UpdatePayment(ctx context.Context, id int64, req UpdatePaymentRequest) (*models.Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	order := &models.Order{}

	err := s.db.GetContext(ctx, order,
		`UPDATE orders
		 SET payment_method = $1, payment_status = $2, payment_id = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+orderColumns,
		req.Method, req.Status, req.PaymentID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("order %d not found", id)
		}
		if database.ClassifyError(err) == database.ErrorClassDuplicate {
			return nil, apperror.Conflict("payment id is already assigned to another order")
		}
		s.log.WithError(err).WithField("order_id", id).Error("Failed to update order payment")
		return nil, database.Translate(err, "update order payment")
	}

	return order, nil
}

// SetPaymentReference attaches a fresh pending charge to the order. Orders
// whose payment is already confirmed are left untouched.
func (s *Store) SetPaymentReference(ctx context.Context, id int64, method, paymentID string) (*models.Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	order := &models.Order{}

	err := s.db.GetContext(ctx, order,
		`UPDATE orders
		 SET payment_method = $1, payment_status = $2, payment_id = $3, updated_at = NOW()
		 WHERE id = $4 AND payment_status <> $5
		 RETURNING `+orderColumns,
		method, models.PaymentStatusPending, paymentID, id, models.PaymentStatusConfirmed)
	if err == nil {
		return order, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		s.log.WithError(err).WithField("order_id", id).Error("Failed to set payment reference")
		return nil, database.Translate(err, "set payment reference")
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id); err != nil {
		return nil, database.Translate(err, "check order exists")
	}
	if !exists {
		return nil, apperror.NotFound("order %d not found", id)
	}
	return nil, apperror.Conflict("order %d payment is already confirmed", id)
}

// ApplyPaymentStatus sets the payment status of the order holding paymentID
// in a single statement. A confirmed payment moves the order to preparing
// whatever its current status is.
func (s *Store) ApplyPaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus) (*models.Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	order := &models.Order{}

	err := s.db.GetContext(ctx, order,
		`UPDATE orders
		 SET payment_status = $1,
		     status = CASE WHEN $2::boolean THEN $3 ELSE status END,
		     updated_at = NOW()
		 WHERE payment_id = $4
		 RETURNING `+orderColumns,
		status, status == models.PaymentStatusConfirmed, models.OrderStatusPreparing, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("payment %s not found", paymentID)
		}
		s.log.WithError(err).WithField("payment_id", paymentID).Error("Failed to apply payment status")
		return nil, database.Translate(err, "apply payment status")
	}

	return order, nil
}

func (s *Store) attachLines(ctx context.Context, q sqlx.QueryerContext, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Items = []models.OrderLine{}
	}

	var lines []models.OrderLine
	if err := sqlx.SelectContext(ctx, q, &lines, orderLinesQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("get order items: %w", err)
	}

	for _, line := range lines {
		if o, ok := byID[line.OrderID]; ok {
			o.Items = append(o.Items, line)
		}
	}

	return nil
}
