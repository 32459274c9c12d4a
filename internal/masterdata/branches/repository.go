package branches

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
	List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error)
	Get(ctx context.Context, id int64) (Branch, error)
	Create(ctx context.Context, branch Branch) (Branch, error)
	Update(ctx context.Context, id int64, branch Branch) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	query := `SELECT id_sucursal, codigo, nombre, direccion, created_at, updated_at FROM sucursales WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sucursales WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
		query += ` AND (nombre ILIKE $1 OR codigo ILIKE $1)`
		countQuery += ` AND (nombre ILIKE $1 OR codigo ILIKE $1)`
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

	var branches []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		branches = append(branches, b)
	}
	return branches, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Branch, error) {
	query := `SELECT id_sucursal, codigo, nombre, direccion, created_at, updated_at FROM sucursales WHERE id_sucursal = $1`
	var b Branch
	err := r.db.QueryRow(ctx, query, id).Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Branch{}, shared.ErrNotFound
	}
	return b, err
}

func (r *repository) Create(ctx context.Context, branch Branch) (Branch, error) {
	query := `INSERT INTO sucursales (codigo, nombre, direccion) VALUES ($1, $2, $3) RETURNING id_sucursal`
	err := r.db.QueryRow(ctx, query, branch.Code, branch.Name, branch.Address).Scan(&branch.ID)
	if isUniqueViolation(err) {
		return Branch{}, shared.ErrDuplicate
	}
	return branch, err
}

func (r *repository) Update(ctx context.Context, id int64, branch Branch) error {
	query := `UPDATE sucursales SET codigo = $1, nombre = $2, direccion = $3, updated_at = NOW() WHERE id_sucursal = $4`
	tag, err := r.db.Exec(ctx, query, branch.Code, branch.Name, branch.Address, id)
	if isUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err == nil && tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sucursales WHERE id_sucursal = $1`, id)
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
	case "name":
		return "nombre " + dir
	default:
		return "nombre " + dir
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
