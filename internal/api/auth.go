package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/auth"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lanchecard/canteen-api/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Profile(ctx context.Context, userID int64) (*models.User, error)
	VerifyToken(token string) (*auth.Claims, error)
}

type AuthHandler struct {
	auth AuthService
	responder
}

func NewAuthHandler(svc AuthService, r responder) *AuthHandler {
	return &AuthHandler{auth: svc, responder: r}
}

func (h *AuthHandler) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/auth")
	{
		group.POST("/register", h.Register)
		group.POST("/login", h.Login)
		group.GET("/profile", RequireAuth(h.auth, h.responder), h.Profile)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusCreated, "user registered", result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "logged in", result)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	claims, _ := claimsFrom(c)

	user, err := h.auth.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "", user)
}
