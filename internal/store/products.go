package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/database"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name            string
	Description     *string
	Price           decimal.Decimal
	ImageURL        *string
	CategoryID      int64
	Available       bool
	NutritionalInfo types.JSONText
}

// UpdateProductRequest holds a partial update; nil fields are left alone.
type UpdateProductRequest struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	ImageURL        *string
	CategoryID      *int64
	Available       *bool
	NutritionalInfo *types.JSONText
}

func (r UpdateProductRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil && r.ImageURL == nil &&
		r.CategoryID == nil && r.Available == nil && r.NutritionalInfo == nil
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.price, p.image_url, p.category_id,
	       c.name AS category_name, p.available, p.nutritional_info, p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

func (s *Store) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	info := req.NutritionalInfo
	if len(info) == 0 {
		info = types.JSONText(`{}`)
	}

	var id int64
	err := s.db.GetContext(ctx, &id,
		`INSERT INTO products
			(name, description, price, image_url, category_id, available, nutritional_info, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING id`,
		req.Name, req.Description, req.Price, req.ImageURL, req.CategoryID, req.Available, info)
	if err != nil {
		s.log.WithError(err).WithField("name", req.Name).Error("Failed to create product")
		return nil, database.Translate(err, "create product")
	}

	return s.getProduct(ctx, s.db, id)
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.getProduct(ctx, s.db, id)
}

func (s *Store) getProduct(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Product, error) {
	product := &models.Product{}

	err := sqlx.GetContext(ctx, q, product, productSelect+` WHERE p.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("product %d not found", id)
		}
		return nil, database.Translate(err, "get product")
	}

	return product, nil
}

// ListProducts returns the catalog ordered by name, optionally narrowed to
// one category.
func (s *Store) ListProducts(ctx context.Context, categoryID *int64) ([]models.Product, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query := productSelect
	var args []interface{}
	if categoryID != nil {
		query += ` WHERE p.category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY p.name`

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, database.Translate(err, "list products")
	}

	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*models.Product, error) {
	if req.Empty() {
		return nil, apperror.Validation("no fields to update")
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	var (
		fields []string
		args   []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		fields = append(fields, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.Price != nil {
		set("price", *req.Price)
	}
	if req.ImageURL != nil {
		set("image_url", *req.ImageURL)
	}
	if req.CategoryID != nil {
		set("category_id", *req.CategoryID)
	}
	if req.Available != nil {
		set("available", *req.Available)
	}
	if req.NutritionalInfo != nil {
		set("nutritional_info", *req.NutritionalInfo)
	}
	fields = append(fields, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`, strings.Join(fields, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.log.WithError(err).WithField("product_id", id).Error("Failed to update product")
		return nil, database.Translate(err, "update product")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, database.Translate(err, "update product")
	}
	if rows == 0 {
		return nil, apperror.NotFound("product %d not found", id)
	}

	return s.getProduct(ctx, s.db, id)
}

// DeleteProduct removes a product that no order references. A product that
// already appears on an order line is marked unavailable instead, and
// softDeleted reports which of the two happened.
func (s *Store) DeleteProduct(ctx context.Context, id int64) (softDeleted bool, err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err = database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return apperror.NotFound("product %d not found", id)
		}

		var referenced bool
		if err := tx.GetContext(ctx, &referenced,
			`SELECT EXISTS(SELECT 1 FROM order_items WHERE product_id = $1)`, id); err != nil {
			return fmt.Errorf("check product references: %w", err)
		}

		if referenced {
			softDeleted = true
			_, err := tx.ExecContext(ctx,
				`UPDATE products SET available = false, updated_at = NOW() WHERE id = $1`, id)
			return err
		}

		_, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		return err
	})
	if err != nil {
		if !apperror.Is(err, apperror.KindNotFound) {
			s.log.WithError(err).WithField("product_id", id).Error("Failed to delete product")
		}
		return false, database.Translate(err, "delete product")
	}

	return softDeleted, nil
}
