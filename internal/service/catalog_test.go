package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newCatalogService() (*CatalogService, *fakeCatalog) {
	catalog := &fakeCatalog{categories: map[int64]*models.Category{3: {ID: 3, Name: "Bebidas"}}}
	return NewCatalogService(catalog, quietLogger()), catalog
}

func TestCreateProduct(t *testing.T) {
	svc, catalog := newCatalogService()

	info := json.RawMessage(`{"calories": 120}`)
	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:            strPtr("Suco"),
		Price:           decPtr("5.00"),
		CategoryID:      int64Ptr(3),
		NutritionalInfo: &info,
	})
	require.NoError(t, err)
	assert.True(t, product.Available)
	assert.JSONEq(t, `{"calories": 120}`, string(catalog.created[0].NutritionalInfo))

	_, err = svc.CreateProduct(context.Background(), ProductInput{Name: strPtr("Água"), Price: decPtr("2.00"), CategoryID: int64Ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(catalog.created[1].NutritionalInfo))
}

func TestCreateProductValidation(t *testing.T) {
	notObject := json.RawMessage(`[1,2]`)

	cases := map[string]ProductInput{
		"missing name":     {Price: decPtr("1.00"), CategoryID: int64Ptr(3)},
		"missing price":    {Name: strPtr("X"), CategoryID: int64Ptr(3)},
		"missing category": {Name: strPtr("X"), Price: decPtr("1.00")},
		"zero price":       {Name: strPtr("X"), Price: decPtr("0"), CategoryID: int64Ptr(3)},
		"unknown category": {Name: strPtr("X"), Price: decPtr("1.00"), CategoryID: int64Ptr(8)},
		"bad nutrition":    {Name: strPtr("X"), Price: decPtr("1.00"), CategoryID: int64Ptr(3), NutritionalInfo: &notObject},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			svc, catalog := newCatalogService()
			_, err := svc.CreateProduct(context.Background(), in)
			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
			assert.Empty(t, catalog.created)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	svc, catalog := newCatalogService()

	_, err := svc.UpdateProduct(context.Background(), 1, ProductInput{Price: decPtr("-1")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.UpdateProduct(context.Background(), 1, ProductInput{CategoryID: int64Ptr(77)})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	available := false
	_, err = svc.UpdateProduct(context.Background(), 1, ProductInput{Available: &available})
	require.NoError(t, err)
	require.Len(t, catalog.updated, 1)
	assert.False(t, *catalog.updated[0].Available)
	assert.Nil(t, catalog.updated[0].Name)
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := newCatalogService()

	soft, err := svc.DeleteProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, soft)
}

func TestCreateCategory(t *testing.T) {
	svc, _ := newCatalogService()

	_, err := svc.CreateCategory(context.Background(), "  ", nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	category, err := svc.CreateCategory(context.Background(), " Doces ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Doces", category.Name)
}
