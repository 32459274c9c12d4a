package products

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
)

type memoryRepo struct {
	items  map[int64]Product
	codes  map[string]int64
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Product), codes: make(map[string]int64)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	result := []Product{}
	for _, p := range r.items {
		if filters.Search != "" && !strings.Contains(p.Name, filters.Search) && !strings.Contains(p.Code, filters.Search) {
			continue
		}
		if filters.IsActive != nil && p.IsActive != *filters.IsActive {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.items[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) Create(ctx context.Context, product Product) (Product, error) {
	if _, exists := r.codes[product.Code]; exists {
		return Product{}, shared.ErrDuplicate
	}
	r.nextID++
	product.ID = r.nextID
	r.items[product.ID] = product
	r.codes[product.Code] = product.ID
	return product, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, product Product) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	r.items[id] = product
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func TestCreateProduct(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Product{
		Code:     "SKU-1",
		Name:     "Keyboard",
		Price:    decimal.RequireFromString("19990.00"),
		IsActive: true,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Keyboard", got.Name)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Name: "No code"})
	require.ErrorIs(t, err, shared.ErrRequiredField)

	_, err = svc.Create(ctx, Product{Code: "SKU-2"})
	require.ErrorIs(t, err, shared.ErrRequiredField)

	_, err = svc.Create(ctx, Product{Code: "SKU-3", Name: "Bad price", Price: decimal.RequireFromString("-1")})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateProductDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Code: "SKU-1", Name: "First"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Product{Code: "SKU-1", Name: "Second"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{Code: "SKU-1", Name: "Mouse"})
	require.NoError(t, err)

	err = svc.Update(ctx, created.ID, Product{Code: "SKU-1", Name: "Gaming Mouse"})
	require.NoError(t, err)
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Gaming Mouse", got.Name)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.Delete(ctx, 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetProductInvalidID(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrInvalidID)
}
