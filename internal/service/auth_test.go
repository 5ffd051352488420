package service

import (
	"context"
	"testing"
	"time"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/auth"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService() *AuthService {
	svc := NewAuthService(newFakeUsers(), auth.NewIssuer("test-secret", time.Hour), quietLogger())
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, " Caio ", "caio@example.com", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, "Caio", registered.User.Name)
	assert.Equal(t, models.RoleCustomer, registered.User.Role)
	assert.NotEqual(t, "pa55word", registered.User.PasswordHash)
	assert.NotEmpty(t, registered.Token)

	claims, err := svc.VerifyToken(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	loggedIn, err := svc.Login(ctx, "caio@example.com", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	profile, err := svc.Profile(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "caio@example.com", profile.Email)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	cases := []struct{ name, email, password string }{
		{"", "a@example.com", "secret1"},
		{"Ana", "", "secret1"},
		{"Ana", "not-an-email", "secret1"},
		{"Ana", "a@example.com", "123"},
	}
	for _, tc := range cases {
		_, err := svc.Register(ctx, tc.name, tc.email, tc.password)
		assert.True(t, apperror.Is(err, apperror.KindValidation), "%+v: %v", tc, err)
	}

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Ana 2", "ana@example.com", "secret2")
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestLoginRejects(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Rui", "rui@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "rui@example.com", "wrong")
	assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))

	_, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))
	assert.Equal(t, "invalid credentials", apperror.Message(err))

	_, err = svc.Login(ctx, "", "")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
