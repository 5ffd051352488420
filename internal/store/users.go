package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/database"
	"github.com/lanchecard/canteen-api/internal/models"
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, role string) (*models.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	user := &models.User{}

	query := `
		INSERT INTO users (name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + userColumns

	err := s.db.GetContext(ctx, user, query, name, strings.ToLower(email), passwordHash, role)
	if err != nil {
		if database.ClassifyError(err) == database.ErrorClassDuplicate {
			return nil, apperror.Conflict("email %s is already in use", email)
		}
		s.log.WithError(err).WithField("email", email).Error("Failed to create user")
		return nil, database.Translate(err, "create user")
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	user := &models.User{}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := s.db.GetContext(ctx, user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user %d not found", id)
		}
		return nil, database.Translate(err, "get user")
	}

	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	user := &models.User{}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := s.db.GetContext(ctx, user, query, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, database.Translate(err, "get user by email")
	}

	return user, nil
}
