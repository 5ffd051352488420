package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/auth"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash, role string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	store  UserStore
	issuer *auth.Issuer
	cost   int
	log    *logrus.Logger
}

func NewAuthService(s UserStore, issuer *auth.Issuer, logger *logrus.Logger) *AuthService {
	return &AuthService{
		store:  s,
		issuer: issuer,
		cost:   bcrypt.DefaultCost,
		log:    logger,
	}
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" {
		return nil, apperror.Validation("name, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.Validation("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperror.Validation("password must have at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "hash password")
	}

	user, err := s.store.CreateUser(ctx, name, email, string(hash), models.RoleCustomer)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("User registered")
	return s.signIn(user)
}

// Login never reveals whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Auth("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperror.Auth("invalid credentials")
		}
		return nil, apperror.Wrap(apperror.KindInternal, err, "compare password")
	}

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return s.signIn(user)
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *AuthService) VerifyToken(token string) (*auth.Claims, error) {
	return s.issuer.Verify(token)
}

func (s *AuthService) signIn(user *models.User) (*AuthResult, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
