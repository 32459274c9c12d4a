package users

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
	List(ctx context.Context, filters shared.ListFilters) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id int64, user User) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const userColumns = `id_usuario, correo, nombre, password_hash, id_sucursal, activo, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	query := `SELECT ` + userColumns + ` FROM usuarios WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM usuarios WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (nombre ILIKE $` + n + ` OR correo ILIKE $` + n + `)`
		countQuery += ` AND (nombre ILIKE $` + n + ` OR correo ILIKE $` + n + `)`
	}
	if filters.BranchID != nil {
		args = append(args, *filters.BranchID)
		countArgs = append(countArgs, *filters.BranchID)
		n := strconv.Itoa(len(args))
		query += ` AND id_sucursal = $` + n
		countQuery += ` AND id_sucursal = $` + n
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY nombre ASC`
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

	var userList []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.BranchID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		userList = append(userList, u)
	}
	return userList, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id_usuario = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.BranchID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.ErrNotFound
	}
	return u, err
}

func (r *repository) Create(ctx context.Context, user User) (User, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO usuarios (correo, nombre, password_hash, id_sucursal, activo) VALUES ($1, $2, $3, $4, $5) RETURNING id_usuario`,
		user.Email, user.Name, user.PasswordHash, user.BranchID, user.IsActive).Scan(&user.ID)
	if isUniqueViolation(err) {
		return User{}, shared.ErrDuplicate
	}
	return user, err
}

func (r *repository) Update(ctx context.Context, id int64, user User) error {
	tag, err := r.db.Exec(ctx, `UPDATE usuarios SET correo = $1, nombre = $2, id_sucursal = $3, updated_at = NOW() WHERE id_usuario = $4`,
		user.Email, user.Name, user.BranchID, id)
	if isUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err == nil && tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return err
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE usuarios SET activo = $1, updated_at = NOW() WHERE id_usuario = $2`, active, id)
	if err == nil && tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
