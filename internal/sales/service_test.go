package sales

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/austral-pos/austral-pos/internal/inventory"
)

// memoryStore backs the service with map-based tables. WithTx holds a single
// mutex for the whole callback, which models row locking closely enough to
// exercise the concurrent-create path, and snapshots state so a failing
// callback rolls everything back.
type memoryStore struct {
	mu         sync.Mutex
	stocks     map[string]int64
	sales      map[int64]Sale
	lines      map[int64][]SaleLine
	receipts   map[string]int64
	nextSaleID int64
	nextLineID int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		stocks:   make(map[string]int64),
		sales:    make(map[int64]Sale),
		lines:    make(map[int64][]SaleLine),
		receipts: make(map[string]int64),
	}
}

func stockKey(productID, branchID int64) string {
	return fmt.Sprintf("%d:%d", productID, branchID)
}

func (s *memoryStore) setStock(productID, branchID, qty int64) {
	s.stocks[stockKey(productID, branchID)] = qty
}

func (s *memoryStore) stockOf(productID, branchID int64) int64 {
	return s.stocks[stockKey(productID, branchID)]
}

type snapshot struct {
	stocks     map[string]int64
	sales      map[int64]Sale
	lines      map[int64][]SaleLine
	receipts   map[string]int64
	nextSaleID int64
	nextLineID int64
}

func (s *memoryStore) snapshot() snapshot {
	snap := snapshot{
		stocks:     make(map[string]int64, len(s.stocks)),
		sales:      make(map[int64]Sale, len(s.sales)),
		lines:      make(map[int64][]SaleLine, len(s.lines)),
		receipts:   make(map[string]int64, len(s.receipts)),
		nextSaleID: s.nextSaleID,
		nextLineID: s.nextLineID,
	}
	for k, v := range s.stocks {
		snap.stocks[k] = v
	}
	for k, v := range s.sales {
		snap.sales[k] = v
	}
	for k, v := range s.lines {
		snap.lines[k] = append([]SaleLine(nil), v...)
	}
	for k, v := range s.receipts {
		snap.receipts[k] = v
	}
	return snap
}

func (s *memoryStore) restore(snap snapshot) {
	s.stocks = snap.stocks
	s.sales = snap.sales
	s.lines = snap.lines
	s.receipts = snap.receipts
	s.nextSaleID = snap.nextSaleID
	s.nextLineID = snap.nextLineID
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx, &memoryTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id int64) (Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return Sale{}, ErrSaleNotFound
	}
	sale.Lines = append([]SaleLine(nil), s.lines[id]...)
	return sale, nil
}

func (s *memoryStore) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		result = append(result, sale)
	}
	return result, len(result), nil
}

type memoryTx struct {
	store *memoryStore
}

func (t *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	if _, exists := t.store.receipts[sale.ReceiptNumber]; exists {
		return 0, ErrDuplicateReceipt
	}
	t.store.nextSaleID++
	sale.ID = t.store.nextSaleID
	sale.Lines = nil
	t.store.sales[sale.ID] = sale
	t.store.receipts[sale.ReceiptNumber] = sale.ID
	return sale.ID, nil
}

func (t *memoryTx) InsertLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	for _, line := range lines {
		t.store.nextLineID++
		line.ID = t.store.nextLineID
		line.SaleID = saleID
		t.store.lines[saleID] = append(t.store.lines[saleID], line)
	}
	return nil
}

func (t *memoryTx) GetSale(ctx context.Context, id int64) (Sale, error) {
	sale, ok := t.store.sales[id]
	if !ok {
		return Sale{}, ErrSaleNotFound
	}
	return sale, nil
}

func (t *memoryTx) ListLines(ctx context.Context, saleID int64) ([]SaleLine, error) {
	return append([]SaleLine(nil), t.store.lines[saleID]...), nil
}

func (t *memoryTx) DeleteLines(ctx context.Context, saleID int64) error {
	delete(t.store.lines, saleID)
	return nil
}

func (t *memoryTx) DeleteSale(ctx context.Context, id int64) error {
	sale, ok := t.store.sales[id]
	if !ok {
		return ErrSaleNotFound
	}
	delete(t.store.receipts, sale.ReceiptNumber)
	delete(t.store.sales, id)
	return nil
}

func (t *memoryTx) Ledger() inventory.TxLedger {
	return &memoryLedger{store: t.store}
}

type memoryLedger struct {
	store *memoryStore
}

func (l *memoryLedger) GetForUpdate(ctx context.Context, productID, branchID int64) (inventory.Stock, error) {
	qty, ok := l.store.stocks[stockKey(productID, branchID)]
	if !ok {
		return inventory.Stock{}, inventory.ErrRecordNotFound
	}
	return inventory.Stock{ProductID: productID, BranchID: branchID, Quantity: qty}, nil
}

func (l *memoryLedger) Decrement(ctx context.Context, productID, branchID, qty int64) error {
	key := stockKey(productID, branchID)
	current, ok := l.store.stocks[key]
	if !ok {
		return inventory.ErrRecordNotFound
	}
	if current < qty {
		return &inventory.InsufficientStockError{ProductID: productID, BranchID: branchID, Requested: qty, Available: current}
	}
	l.store.stocks[key] = current - qty
	return nil
}

func (l *memoryLedger) Increment(ctx context.Context, productID, branchID, qty int64) error {
	key := stockKey(productID, branchID)
	if _, ok := l.store.stocks[key]; !ok {
		return inventory.ErrRecordNotFound
	}
	l.store.stocks[key] += qty
	return nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateSale(t *testing.T) {
	store := newMemoryStore()
	store.setStock(1, 1, 10)
	svc := NewService(store, nil, nil, nil)

	sale, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0001",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 4, UnitPrice: price("25.00")},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, sale.ID)
	require.True(t, sale.Total.Equal(price("100.00")), "total was %s", sale.Total)
	require.Len(t, sale.Lines, 1)
	require.Equal(t, int64(1), sale.Lines[0].BranchID)
	require.Equal(t, int64(6), store.stockOf(1, 1))

	stored, err := svc.Get(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Equal(t, "B-0001", stored.ReceiptNumber)
	require.Len(t, stored.Lines, 1)
}

func TestCreateSaleMultiLineTotal(t *testing.T) {
	store := newMemoryStore()
	store.setStock(1, 1, 10)
	store.setStock(2, 1, 10)
	svc := NewService(store, nil, nil, nil)

	sale, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0002",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 3, UnitPrice: price("19.90")},
			{ProductID: 2, Quantity: 2, UnitPrice: price("5.05")},
		},
	})
	require.NoError(t, err)
	require.True(t, sale.Total.Equal(price("69.80")), "total was %s", sale.Total)
	require.Equal(t, int64(7), store.stockOf(1, 1))
	require.Equal(t, int64(8), store.stockOf(2, 1))
}

func TestCreateSaleEmpty(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0003",
		UserID:        7,
		BranchID:      1,
	})
	require.ErrorIs(t, err, ErrEmptySale)
}

func TestCreateSaleNotStocked(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0004",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 9, Quantity: 1, UnitPrice: price("1.00")},
		},
	})
	var notStocked *inventory.NotStockedError
	require.ErrorAs(t, err, &notStocked)
	require.Equal(t, int64(9), notStocked.ProductID)
	require.Equal(t, int64(1), notStocked.BranchID)
}

func TestCreateSaleInsufficientStockReportsLine(t *testing.T) {
	store := newMemoryStore()
	store.setStock(1, 1, 10)
	store.setStock(2, 1, 3)
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0005",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 5, UnitPrice: price("10.00")},
			{ProductID: 2, Quantity: 4, UnitPrice: price("10.00")},
		},
	})
	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(2), insufficient.ProductID)
	require.Equal(t, int64(4), insufficient.Requested)
	require.Equal(t, int64(3), insufficient.Available)

	// Nothing committed: the first line's stock is untouched and no sale exists.
	require.Equal(t, int64(10), store.stockOf(1, 1))
	require.Equal(t, int64(3), store.stockOf(2, 1))
	require.Empty(t, store.sales)
	require.Empty(t, store.receipts)
}

func TestCreateSaleFirstFailingLineWins(t *testing.T) {
	store := newMemoryStore()
	store.setStock(2, 1, 1)
	svc := NewService(store, nil, nil, nil)

	// Line one is not stocked at all, line two is insufficient. Validation
	// walks lines in input order, so the not-stocked error must surface.
	_, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0006",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 1, UnitPrice: price("10.00")},
			{ProductID: 2, Quantity: 5, UnitPrice: price("10.00")},
		},
	})
	var notStocked *inventory.NotStockedError
	require.ErrorAs(t, err, &notStocked)
	require.Equal(t, int64(1), notStocked.ProductID)
}

func TestCreateSaleDuplicateReceipt(t *testing.T) {
	store := newMemoryStore()
	store.setStock(1, 1, 10)
	svc := NewService(store, nil, nil, nil)

	input := CreateSaleInput{
		ReceiptNumber: "B-0007",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 2, UnitPrice: price("10.00")},
		},
	}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, ErrDuplicateReceipt)

	// Only the first sale decremented stock.
	require.Equal(t, int64(8), store.stockOf(1, 1))
	require.Len(t, store.sales, 1)
}

func TestCancelSaleRestoresStock(t *testing.T) {
	store := newMemoryStore()
	store.setStock(1, 1, 10)
	store.setStock(2, 2, 5)
	svc := NewService(store, nil, nil, nil)

	sale, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0008",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 4, UnitPrice: price("25.00")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(6), store.stockOf(1, 1))

	require.NoError(t, svc.Cancel(context.Background(), 7, sale.ID))
	require.Equal(t, int64(10), store.stockOf(1, 1))

	_, err = svc.Get(context.Background(), sale.ID)
	require.ErrorIs(t, err, ErrSaleNotFound)

	// The receipt number is free again after cancellation.
	_, err = svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0008",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 1, UnitPrice: price("25.00")},
		},
	})
	require.NoError(t, err)
}

func TestCreateSalePerLineBranchOverride(t *testing.T) {
	store := newMemoryStore()
	store.setStock(1, 1, 10)
	store.setStock(2, 3, 10)
	svc := NewService(store, nil, nil, nil)

	// The second line names its own branch; the first falls back to the
	// sale-level one.
	sale, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0011",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 2, UnitPrice: price("10.00")},
			{ProductID: 2, BranchID: 3, Quantity: 5, UnitPrice: price("4.00")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), sale.Lines[0].BranchID)
	require.Equal(t, int64(3), sale.Lines[1].BranchID)
	require.Equal(t, int64(8), store.stockOf(1, 1))
	require.Equal(t, int64(5), store.stockOf(2, 3))

	require.NoError(t, svc.Cancel(context.Background(), 7, sale.ID))
	require.Equal(t, int64(10), store.stockOf(1, 1))
	require.Equal(t, int64(10), store.stockOf(2, 3))
}

func TestCancelSaleUsesLineBranch(t *testing.T) {
	store := newMemoryStore()
	store.setStock(1, 2, 10)
	svc := NewService(store, nil, nil, nil)

	// Sold at branch 2; the cancelling user works elsewhere, which must not
	// matter because the branch lives on the line.
	sale, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0009",
		UserID:        7,
		BranchID:      2,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 3, UnitPrice: price("10.00")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), store.stockOf(1, 2))

	require.NoError(t, svc.Cancel(context.Background(), 99, sale.ID))
	require.Equal(t, int64(10), store.stockOf(1, 2))
}

func TestCancelSaleNotFound(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil, nil)

	err := svc.Cancel(context.Background(), 7, 12345)
	require.ErrorIs(t, err, ErrSaleNotFound)
}

func TestCancelSaleMissingLedgerRowAborts(t *testing.T) {
	store := newMemoryStore()
	store.setStock(1, 1, 10)
	svc := NewService(store, nil, nil, nil)

	sale, err := svc.Create(context.Background(), CreateSaleInput{
		ReceiptNumber: "B-0010",
		UserID:        7,
		BranchID:      1,
		Lines: []CreateSaleLine{
			{ProductID: 1, Quantity: 2, UnitPrice: price("10.00")},
		},
	})
	require.NoError(t, err)

	// Simulate the ledger row disappearing between sale and cancellation.
	delete(store.stocks, stockKey(1, 1))

	err = svc.Cancel(context.Background(), 7, sale.ID)
	require.ErrorIs(t, err, inventory.ErrRecordNotFound)

	// The sale survives the failed cancellation.
	_, err = svc.Get(context.Background(), sale.ID)
	require.NoError(t, err)
}

func TestConcurrentCreatesSerialize(t *testing.T) {
	store := newMemoryStore()
	store.setStock(1, 1, 5)
	svc := NewService(store, nil, nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), CreateSaleInput{
				ReceiptNumber: fmt.Sprintf("B-R%d", i),
				UserID:        7,
				BranchID:      1,
				Lines: []CreateSaleLine{
					{ProductID: 1, Quantity: 4, UnitPrice: price("10.00")},
				},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var insufficient *inventory.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		require.Equal(t, int64(1), insufficient.Available)
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, failed)
	require.Equal(t, int64(1), store.stockOf(1, 1))
}
