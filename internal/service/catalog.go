package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx/types"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/lanchecard/canteen-api/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error)
	ListProducts(ctx context.Context, categoryID *int64) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, req store.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, req store.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
}

type ProductInput struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	ImageURL        *string          `json:"image_url"`
	CategoryID      *int64           `json:"category_id"`
	Available       *bool            `json:"available"`
	NutritionalInfo *json.RawMessage `json:"nutritional_info"`
}

type CatalogService struct {
	store CatalogStore
	log   *logrus.Logger
}

func NewCatalogService(s CatalogStore, logger *logrus.Logger) *CatalogService {
	return &CatalogService{store: s, log: logger}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	return s.store.CreateCategory(ctx, name, description)
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID *int64) ([]models.Product, error) {
	return s.store.ListProducts(ctx, categoryID)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Price == nil || in.CategoryID == nil {
		return nil, apperror.Validation("name, price and category_id are required")
	}
	if !in.Price.IsPositive() {
		return nil, apperror.Validation("price must be greater than zero")
	}

	if err := s.checkCategory(ctx, *in.CategoryID); err != nil {
		return nil, err
	}

	info, err := nutritionalInfo(in.NutritionalInfo)
	if err != nil {
		return nil, err
	}

	available := true
	if in.Available != nil {
		available = *in.Available
	}

	product, err := s.store.CreateProduct(ctx, store.CreateProductRequest{
		Name:            strings.TrimSpace(*in.Name),
		Description:     in.Description,
		Price:           *in.Price,
		ImageURL:        in.ImageURL,
		CategoryID:      *in.CategoryID,
		Available:       available,
		NutritionalInfo: info,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("product_id", product.ID).Info("Product created")
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	req := store.UpdateProductRequest{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		CategoryID:  in.CategoryID,
		Available:   in.Available,
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperror.Validation("name must not be empty")
	}
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, apperror.Validation("price must be greater than zero")
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}
	if in.NutritionalInfo != nil {
		info, err := nutritionalInfo(in.NutritionalInfo)
		if err != nil {
			return nil, err
		}
		req.NutritionalInfo = &info
	}

	product, err := s.store.UpdateProduct(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.log.WithField("product_id", product.ID).Info("Product updated")
	return product, nil
}

// DeleteProduct reports true when the product was only marked unavailable
// because orders still reference it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	soft, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return false, err
	}

	s.log.WithFields(logrus.Fields{
		"product_id":   id,
		"soft_deleted": soft,
	}).Info("Product deleted")
	return soft, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id int64) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.Validation("category %d not found", id)
		}
		return err
	}
	return nil
}

func nutritionalInfo(raw *json.RawMessage) (types.JSONText, error) {
	if raw == nil || len(*raw) == 0 || string(*raw) == "null" {
		return types.JSONText(`{}`), nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(*raw, &obj); err != nil {
		return nil, apperror.Validation("nutritional_info must be a JSON object")
	}
	return types.JSONText(*raw), nil
}
