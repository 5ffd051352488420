// Package auth issues and verifies the bearer tokens handed out at login.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/models"
)

const issuer = "canteen-api"

type Claims struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

type Issuer struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewIssuer(secret string, expiresIn time.Duration) *Issuer {
	return &Issuer{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (i *Issuer) Issue(user *models.User) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiresIn)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, err, "sign token")
	}
	return token, nil
}

// Verify parses an HS256 token and returns its claims. Every failure is an
// Auth error; expired tokens get their own message.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Wrap(apperror.KindAuth, err, "token expired")
		}
		return nil, apperror.Wrap(apperror.KindAuth, err, "invalid token")
	}

	return claims, nil
}
