package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lanchecard/canteen-api/internal/service"
)

type CatalogService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error)
	ListProducts(ctx context.Context, categoryID *int64) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in service.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
}

type CatalogHandler struct {
	catalog CatalogService
	responder
}

func NewCatalogHandler(catalog CatalogService, r responder) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, responder: r}
}

// RegisterRoutes mounts the public reads on router and the writes on admin.
func (h *CatalogHandler) RegisterRoutes(router, admin gin.IRouter) {
	router.GET("/products", h.ListProducts)
	router.GET("/products/:id", h.GetProduct)
	router.GET("/categories", h.ListCategories)
	router.GET("/categories/:id", h.GetCategory)

	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.POST("/categories", h.CreateCategory)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var categoryID *int64
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.fail(c, apperror.Validation("category_id must be a number"))
			return
		}
		categoryID = &id
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), categoryID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.list(c, products, len(products), "")
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "", product)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusCreated, "product created", product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id", "product")
	if !ok {
		return
	}

	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "product updated", product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id", "product")
	if !ok {
		return
	}

	soft, err := h.catalog.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	message := "product deleted"
	if soft {
		message = "product marked unavailable because it is referenced by orders"
	}
	h.ok(c, http.StatusOK, message, gin.H{"soft_deleted": soft})
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	h.list(c, categories, len(categories), "")
}

func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := h.pathID(c, "id", "category")
	if !ok {
		return
	}

	category, err := h.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, "", category)
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusCreated, "category created", category)
}
