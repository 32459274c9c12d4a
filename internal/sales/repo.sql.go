package sales

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/austral-pos/austral-pos/internal/inventory"
	"github.com/austral-pos/austral-pos/internal/platform/db"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations a sale transaction needs: header and
// line writes plus the stock ledger, all bound to the same transaction.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertLines(ctx context.Context, saleID int64, lines []SaleLine) error
	GetSale(ctx context.Context, id int64) (Sale, error)
	ListLines(ctx context.Context, saleID int64) ([]SaleLine, error)
	DeleteLines(ctx context.Context, saleID int64) error
	DeleteSale(ctx context.Context, id int64) error
	Ledger() inventory.TxLedger
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO ventas (numero_boleta, id_cliente, id_usuario, fecha_venta, total_venta)
VALUES ($1,$2,$3,$4,$5) RETURNING id_venta`,
		sale.ReceiptNumber, sale.ClientID, sale.UserID, sale.SoldAt, sale.Total).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrDuplicateReceipt
	}
	return id, err
}

func (r *txRepository) InsertLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO detalle_venta (id_venta, id_producto, id_sucursal, cantidad, precio_venta)
VALUES ($1,$2,$3,$4,$5)`, saleID, line.ProductID, line.BranchID, line.Quantity, line.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetSale(ctx context.Context, id int64) (Sale, error) {
	var s Sale
	err := r.tx.QueryRow(ctx, `SELECT id_venta, numero_boleta, id_cliente, id_usuario, fecha_venta, total_venta FROM ventas WHERE id_venta=$1 FOR UPDATE`, id).
		Scan(&s.ID, &s.ReceiptNumber, &s.ClientID, &s.UserID, &s.SoldAt, &s.Total)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	return s, err
}

func (r *txRepository) ListLines(ctx context.Context, saleID int64) ([]SaleLine, error) {
	return scanLines(r.tx.Query(ctx, `SELECT id_detalle_venta, id_venta, id_producto, id_sucursal, cantidad, precio_venta FROM detalle_venta WHERE id_venta=$1 ORDER BY id_detalle_venta ASC`, saleID))
}

func (r *txRepository) DeleteLines(ctx context.Context, saleID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM detalle_venta WHERE id_venta=$1`, saleID)
	return err
}

func (r *txRepository) DeleteSale(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM ventas WHERE id_venta=$1`, id)
	if err == nil && tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return err
}

func (r *txRepository) Ledger() inventory.TxLedger {
	return inventory.NewTxLedger(r.tx)
}

// Get loads a sale with its lines outside any transaction.
func (r *Repository) Get(ctx context.Context, id int64) (Sale, error) {
	var s Sale
	err := r.pool.QueryRow(ctx, `SELECT id_venta, numero_boleta, id_cliente, id_usuario, fecha_venta, total_venta FROM ventas WHERE id_venta=$1`, id).
		Scan(&s.ID, &s.ReceiptNumber, &s.ClientID, &s.UserID, &s.SoldAt, &s.Total)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	lines, err := scanLines(r.pool.Query(ctx, `SELECT id_detalle_venta, id_venta, id_producto, id_sucursal, cantidad, precio_venta FROM detalle_venta WHERE id_venta=$1 ORDER BY id_detalle_venta ASC`, id))
	if err != nil {
		return Sale{}, err
	}
	s.Lines = lines
	return s, nil
}

// List returns paginated sale headers, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	query := `SELECT id_venta, numero_boleta, id_cliente, id_usuario, fecha_venta, total_venta FROM ventas WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM ventas WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		countArgs = append(countArgs, *filter.ClientID)
		n := strconv.Itoa(len(args))
		query += ` AND id_cliente = $` + n
		countQuery += ` AND id_cliente = $` + n
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		countArgs = append(countArgs, filter.From)
		n := strconv.Itoa(len(args))
		query += ` AND fecha_venta >= $` + n
		countQuery += ` AND fecha_venta >= $` + n
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		countArgs = append(countArgs, filter.To)
		n := strconv.Itoa(len(args))
		query += ` AND fecha_venta < $` + n
		countQuery += ` AND fecha_venta < $` + n
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY fecha_venta DESC, id_venta DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (filter.Page - 1) * filter.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var salesList []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.ReceiptNumber, &s.ClientID, &s.UserID, &s.SoldAt, &s.Total); err != nil {
			return nil, 0, err
		}
		salesList = append(salesList, s)
	}
	return salesList, total, rows.Err()
}

func scanLines(rows pgx.Rows, err error) ([]SaleLine, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []SaleLine{}
	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.BranchID, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
