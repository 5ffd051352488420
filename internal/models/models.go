package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Product struct {
	ID              int64           `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Description     *string         `db:"description" json:"description,omitempty"`
	Price           decimal.Decimal `db:"price" json:"price"`
	ImageURL        *string         `db:"image_url" json:"image_url,omitempty"`
	CategoryID      int64           `db:"category_id" json:"category_id"`
	CategoryName    *string         `db:"category_name" json:"category_name,omitempty"`
	Available       bool            `db:"available" json:"available"`
	NutritionalInfo types.JSONText  `db:"nutritional_info" json:"nutritional_info"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Order is the ledger header. TotalAmount is fixed when the lines are
// written and never recomputed.
type Order struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Status        OrderStatus     `db:"status" json:"status"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaymentMethod *string         `db:"payment_method" json:"payment_method"`
	PaymentStatus PaymentStatus   `db:"payment_status" json:"payment_status"`
	PaymentID     *string         `db:"payment_id" json:"payment_id"`
	Notes         *string         `db:"notes" json:"notes"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
	Items         []OrderLine     `db:"-" json:"items,omitempty"`
}

// OrderLine snapshots UnitPrice and TotalPrice at creation. ProductPrice is
// the product's current price, joined for display only.
type OrderLine struct {
	ID           int64           `db:"id" json:"id"`
	OrderID      int64           `db:"order_id" json:"order_id"`
	ProductID    int64           `db:"product_id" json:"product_id"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	Notes        *string         `db:"notes" json:"notes"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProductName  string          `db:"product_name" json:"product_name"`
	ProductPrice decimal.Decimal `db:"product_price" json:"product_price"`
	ImageURL     *string         `db:"image_url" json:"image_url,omitempty"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusConfirmed,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

func (s PaymentStatus) Valid() bool {
	for _, v := range PaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

const PaymentMethodPix = "pix"
