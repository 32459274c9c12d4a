package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id_producto, codigo, nombre, descripcion, id_categoria, precio, activo, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM productos WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM productos WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (nombre ILIKE $` + n + ` OR codigo ILIKE $` + n + `)`
		countQuery += ` AND (nombre ILIKE $` + n + ` OR codigo ILIKE $` + n + `)`
	}
	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		countArgs = append(countArgs, *filters.CategoryID)
		n := strconv.Itoa(len(args))
		query += ` AND id_categoria = $` + n
		countQuery += ` AND id_categoria = $` + n
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		countArgs = append(countArgs, *filters.IsActive)
		n := strconv.Itoa(len(args))
		query += ` AND activo = $` + n
		countQuery += ` AND activo = $` + n
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var productsList []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.CategoryID, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		productsList = append(productsList, p)
	}
	return productsList, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM productos WHERE id_producto = $1`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.CategoryID, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO productos (codigo, nombre, descripcion, id_categoria, precio, activo) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id_producto`,
		product.Code, product.Name, product.Description, product.CategoryID, product.Price, product.IsActive).Scan(&product.ID)
	if isUniqueViolation(err) {
		return Product{}, shared.ErrDuplicate
	}
	return product, err
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	tag, err := r.db.Exec(ctx, `UPDATE productos SET codigo = $1, nombre = $2, descripcion = $3, id_categoria = $4, precio = $5, activo = $6, updated_at = NOW() WHERE id_producto = $7`,
		product.Code, product.Name, product.Description, product.CategoryID, product.Price, product.IsActive, id)
	if isUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err == nil && tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM productos WHERE id_producto = $1`, id)
	if err == nil && tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "codigo " + dir
	case "price":
		return "precio " + dir
	default:
		return "nombre " + dir
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
