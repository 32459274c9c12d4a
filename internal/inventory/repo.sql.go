package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/austral-pos/austral-pos/internal/platform/db"
)

// Repository persists stock levels in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxLedger exposes the transactional operations a sale needs: lock a row,
// then move quantity. All three run against the same transaction.
type TxLedger interface {
	GetForUpdate(ctx context.Context, productID, branchID int64) (Stock, error)
	Decrement(ctx context.Context, productID, branchID, qty int64) error
	Increment(ctx context.Context, productID, branchID, qty int64) error
}

type txLedger struct {
	tx pgx.Tx
}

// NewTxLedger binds ledger operations to an already-open transaction, letting
// another module mutate stock atomically with its own writes.
func NewTxLedger(tx pgx.Tx) TxLedger {
	return &txLedger{tx: tx}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxLedger) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txLedger{tx: tx})
	})
}

func (r *Repository) GetQuantity(ctx context.Context, productID, branchID int64) (Stock, error) {
	var s Stock
	err := r.pool.QueryRow(ctx, `SELECT id_producto, id_sucursal, cantidad, updated_at FROM inventario WHERE id_producto=$1 AND id_sucursal=$2`,
		productID, branchID).Scan(&s.ProductID, &s.BranchID, &s.Quantity, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stock{}, ErrRecordNotFound
	}
	return s, err
}

func (r *Repository) ListByBranch(ctx context.Context, branchID int64) ([]Stock, error) {
	rows, err := r.pool.Query(ctx, `SELECT id_producto, id_sucursal, cantidad, updated_at FROM inventario WHERE id_sucursal=$1 ORDER BY id_producto ASC`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stocks := []Stock{}
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ProductID, &s.BranchID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// ListBelow returns rows at or under the threshold across all branches,
// feeding the low-stock scan job.
func (r *Repository) ListBelow(ctx context.Context, threshold int64) ([]Stock, error) {
	rows, err := r.pool.Query(ctx, `SELECT id_producto, id_sucursal, cantidad, updated_at FROM inventario WHERE cantidad <= $1 ORDER BY id_sucursal ASC, id_producto ASC`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stocks := []Stock{}
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ProductID, &s.BranchID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

func (r *Repository) Upsert(ctx context.Context, stock Stock) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO inventario (id_producto, id_sucursal, cantidad, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (id_producto, id_sucursal) DO UPDATE SET cantidad=EXCLUDED.cantidad, updated_at=NOW()`,
		stock.ProductID, stock.BranchID, stock.Quantity)
	return err
}

func (l *txLedger) GetForUpdate(ctx context.Context, productID, branchID int64) (Stock, error) {
	var s Stock
	err := l.tx.QueryRow(ctx, `SELECT id_producto, id_sucursal, cantidad, updated_at FROM inventario WHERE id_producto=$1 AND id_sucursal=$2 FOR UPDATE`,
		productID, branchID).Scan(&s.ProductID, &s.BranchID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stock{}, ErrRecordNotFound
		}
		return Stock{}, err
	}
	return s, nil
}

// Decrement subtracts qty, guarded so the row can never go negative even if
// the caller skipped the validating read.
func (l *txLedger) Decrement(ctx context.Context, productID, branchID, qty int64) error {
	tag, err := l.tx.Exec(ctx, `UPDATE inventario SET cantidad = cantidad - $3, updated_at = NOW() WHERE id_producto=$1 AND id_sucursal=$2 AND cantidad >= $3`,
		productID, branchID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		current, err := l.GetForUpdate(ctx, productID, branchID)
		if err != nil {
			return err
		}
		return &InsufficientStockError{ProductID: productID, BranchID: branchID, Requested: qty, Available: current.Quantity}
	}
	return nil
}

func (l *txLedger) Increment(ctx context.Context, productID, branchID, qty int64) error {
	tag, err := l.tx.Exec(ctx, `UPDATE inventario SET cantidad = cantidad + $3, updated_at = NOW() WHERE id_producto=$1 AND id_sucursal=$2`,
		productID, branchID, qty)
	if err == nil && tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return err
}
