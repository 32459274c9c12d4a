package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	stocks map[string]Stock
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stocks: make(map[string]Stock)}
}

func key(productID, branchID int64) string {
	return fmt.Sprintf("%d:%d", productID, branchID)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxLedger) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetQuantity(ctx context.Context, productID, branchID int64) (Stock, error) {
	stock, ok := r.stocks[key(productID, branchID)]
	if !ok {
		return Stock{}, ErrRecordNotFound
	}
	return stock, nil
}

func (r *memoryRepo) ListByBranch(ctx context.Context, branchID int64) ([]Stock, error) {
	result := []Stock{}
	for _, s := range r.stocks {
		if s.BranchID == branchID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *memoryRepo) ListBelow(ctx context.Context, threshold int64) ([]Stock, error) {
	result := []Stock{}
	for _, s := range r.stocks {
		if s.Quantity <= threshold {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *memoryRepo) Upsert(ctx context.Context, stock Stock) error {
	r.stocks[key(stock.ProductID, stock.BranchID)] = stock
	return nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) GetForUpdate(ctx context.Context, productID, branchID int64) (Stock, error) {
	return t.repo.GetQuantity(ctx, productID, branchID)
}

func (t *memoryTx) Decrement(ctx context.Context, productID, branchID, qty int64) error {
	stock, ok := t.repo.stocks[key(productID, branchID)]
	if !ok {
		return ErrRecordNotFound
	}
	if stock.Quantity < qty {
		return &InsufficientStockError{ProductID: productID, BranchID: branchID, Requested: qty, Available: stock.Quantity}
	}
	stock.Quantity -= qty
	t.repo.stocks[key(productID, branchID)] = stock
	return nil
}

func (t *memoryTx) Increment(ctx context.Context, productID, branchID, qty int64) error {
	stock, ok := t.repo.stocks[key(productID, branchID)]
	if !ok {
		return ErrRecordNotFound
	}
	stock.Quantity += qty
	t.repo.stocks[key(productID, branchID)] = stock
	return nil
}

func TestSetStockAndGetQuantity(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	stock, err := svc.SetStock(ctx, 1, Stock{ProductID: 1, BranchID: 2, Quantity: 15})
	require.NoError(t, err)
	require.Equal(t, int64(15), stock.Quantity)

	got, err := svc.GetQuantity(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(15), got.Quantity)

	_, err = svc.GetQuantity(ctx, 1, 99)
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSetStockRejectsNegative(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.SetStock(context.Background(), 1, Stock{ProductID: 1, BranchID: 1, Quantity: -3})
	require.Error(t, err)
}

func TestLedgerDecrementGuards(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[key(1, 1)] = Stock{ProductID: 1, BranchID: 1, Quantity: 3}
	ctx := context.Background()

	err := repo.WithTx(ctx, func(ctx context.Context, tx TxLedger) error {
		if err := tx.Decrement(ctx, 1, 1, 2); err != nil {
			return err
		}
		return tx.Decrement(ctx, 1, 1, 5)
	})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(5), insufficient.Requested)
	require.Equal(t, int64(1), insufficient.Available)

	err = repo.WithTx(ctx, func(ctx context.Context, tx TxLedger) error {
		return tx.Decrement(ctx, 9, 9, 1)
	})
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestLedgerIncrement(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[key(1, 1)] = Stock{ProductID: 1, BranchID: 1, Quantity: 3}
	ctx := context.Background()

	err := repo.WithTx(ctx, func(ctx context.Context, tx TxLedger) error {
		return tx.Increment(ctx, 1, 1, 4)
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), repo.stocks[key(1, 1)].Quantity)

	err = repo.WithTx(ctx, func(ctx context.Context, tx TxLedger) error {
		return tx.Increment(ctx, 9, 9, 1)
	})
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestListBelow(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[key(1, 1)] = Stock{ProductID: 1, BranchID: 1, Quantity: 2}
	repo.stocks[key(2, 1)] = Stock{ProductID: 2, BranchID: 1, Quantity: 50}
	svc := NewService(repo, nil, nil)

	low, err := svc.ListBelow(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, int64(1), low[0].ProductID)
}
