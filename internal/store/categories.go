package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/database"
	"github.com/lanchecard/canteen-api/internal/models"
)

func (s *Store) CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	category := &models.Category{}

	query := `
		INSERT INTO categories (name, description, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name, description, created_at`

	if err := s.db.GetContext(ctx, category, query, name, description); err != nil {
		if database.ClassifyError(err) == database.ErrorClassDuplicate {
			return nil, apperror.Conflict("category %q already exists", name)
		}
		return nil, database.Translate(err, "create category")
	}

	return category, nil
}

// GetCategory returns NotFound when the category does not exist.
func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	category := &models.Category{}

	err := s.db.GetContext(ctx, category,
		`SELECT id, name, description, created_at FROM categories WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("category %d not found", id)
		}
		return nil, database.Translate(err, "get category")
	}

	return category, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	categories := []models.Category{}

	err := s.db.SelectContext(ctx, &categories,
		`SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, database.Translate(err, "list categories")
	}

	return categories, nil
}
