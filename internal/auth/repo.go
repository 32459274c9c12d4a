package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/austral-pos/austral-pos/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	var branchID *int64
	err := r.pool.QueryRow(ctx, `SELECT id_usuario, correo, nombre, password_hash, id_sucursal, activo, created_at, updated_at
FROM usuarios WHERE correo = $1`, email).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &branchID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if branchID != nil {
		user.BranchID = *branchID
	}
	return &user, nil
}

var _ Repository = (*PGRepository)(nil)
