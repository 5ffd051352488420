package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lanchecard/canteen-api/internal/config"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/sirupsen/logrus"
)

const Version = "1.0.0"

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Orders   OrderService
	Payments PaymentService
	Catalog  CatalogService
	Auth     AuthService
	Health   HealthChecker
}

type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	engine     *gin.Engine
	httpServer *http.Server
	health     HealthChecker
}

func NewServer(cfg *config.Config, svc Services, logger *logrus.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := responder{log: logger, production: cfg.IsProduction()}

	engine := gin.New()
	engine.Use(RequestID(), RequestLogger(logger), Recovery(r), CORS())

	s := &Server{
		cfg:    cfg,
		log:    logger,
		engine: engine,
		health: svc.Health,
		httpServer: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}

	api := engine.Group("/api")
	api.GET("/status", s.status)

	NewAuthHandler(svc.Auth, r).RegisterRoutes(api)

	admin := api.Group("", RequireAuth(svc.Auth, r), RequireRole(models.RoleAdmin, r))
	NewCatalogHandler(svc.Catalog, r).RegisterRoutes(api, admin)

	public := api.Group("", OptionalAuth(svc.Auth))
	NewOrderHandler(svc.Orders, r).RegisterRoutes(public)
	NewPaymentHandler(svc.Payments, r).RegisterRoutes(public)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type statusResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Database    string `json:"database"`
	Timestamp   string `json:"timestamp"`
}

func (s *Server) status(c *gin.Context) {
	resp := statusResponse{
		Status:      "online",
		Version:     Version,
		Environment: s.cfg.Env,
		Database:    "up",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK
	if err := s.health.Ping(c.Request.Context()); err != nil {
		s.log.WithError(err).Warn("Database ping failed")
		resp.Status = "degraded"
		resp.Database = "down"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, Response{Success: code == http.StatusOK, Data: resp})
}
