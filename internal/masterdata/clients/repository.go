package clients

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
	List(ctx context.Context, filters shared.ListFilters) ([]Client, int, error)
	Get(ctx context.Context, id int64) (Client, error)
	Create(ctx context.Context, client Client) (Client, error)
	Update(ctx context.Context, id int64, client Client) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const clientColumns = `id_cliente, rut, nombre, correo, telefono, direccion, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Client, int, error) {
	query := `SELECT ` + clientColumns + ` FROM clientes WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM clientes WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
		query += ` AND (nombre ILIKE $1 OR rut ILIKE $1 OR correo ILIKE $1)`
		countQuery += ` AND (nombre ILIKE $1 OR rut ILIKE $1 OR correo ILIKE $1)`
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if filters.SortDir == shared.SortDesc {
		dir = "DESC"
	}
	query += " ORDER BY nombre " + dir

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

	var clientsList []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.TaxID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		clientsList = append(clientsList, c)
	}
	return clientsList, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Client, error) {
	var c Client
	err := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clientes WHERE id_cliente = $1`, id).
		Scan(&c.ID, &c.TaxID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, client Client) (Client, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO clientes (rut, nombre, correo, telefono, direccion) VALUES ($1, $2, $3, $4, $5) RETURNING id_cliente`,
		client.TaxID, client.Name, client.Email, client.Phone, client.Address).Scan(&client.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Client{}, shared.ErrDuplicate
	}
	return client, err
}

func (r *repository) Update(ctx context.Context, id int64, client Client) error {
	tag, err := r.db.Exec(ctx, `UPDATE clientes SET rut = $1, nombre = $2, correo = $3, telefono = $4, direccion = $5, updated_at = NOW() WHERE id_cliente = $6`,
		client.TaxID, client.Name, client.Email, client.Phone, client.Address, id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	if err == nil && tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clientes WHERE id_cliente = $1`, id)
	if err == nil && tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return err
}
