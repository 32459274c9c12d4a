package servicedesk

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, status string) ([]Ticket, int, error)
	Get(ctx context.Context, id int64) (Ticket, error)
	Create(ctx context.Context, ticket Ticket) (Ticket, error)
	Update(ctx context.Context, id int64, ticket Ticket) error
	UpdateStatus(ctx context.Context, id int64, status string, deliveredAt any) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const ticketColumns = `id_servicio, id_cliente, id_sucursal, equipo, numero_serie, problema, diagnostico, costo_estimado, estado, fecha_recepcion, fecha_entrega, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters, status string) ([]Ticket, int, error) {
	query := `SELECT ` + ticketColumns + ` FROM servicios_tecnicos WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM servicios_tecnicos WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	if status != "" {
		args = append(args, status)
		countArgs = append(countArgs, status)
		n := strconv.Itoa(len(args))
		query += ` AND estado = $` + n
		countQuery += ` AND estado = $` + n
	}
	if filters.BranchID != nil {
		args = append(args, *filters.BranchID)
		countArgs = append(countArgs, *filters.BranchID)
		n := strconv.Itoa(len(args))
		query += ` AND id_sucursal = $` + n
		countQuery += ` AND id_sucursal = $` + n
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (equipo ILIKE $` + n + ` OR numero_serie ILIKE $` + n + `)`
		countQuery += ` AND (equipo ILIKE $` + n + ` OR numero_serie ILIKE $` + n + `)`
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "DESC"
	if filters.SortDir == shared.SortAsc {
		dir = "ASC"
	}
	query += ` ORDER BY fecha_recepcion ` + dir

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

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.ClientID, &t.BranchID, &t.Device, &t.SerialNumber, &t.Issue, &t.Diagnosis, &t.EstimatedCost, &t.Status, &t.ReceivedAt, &t.DeliveredAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, t)
	}
	return tickets, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Ticket, error) {
	var t Ticket
	err := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM servicios_tecnicos WHERE id_servicio = $1`, id).
		Scan(&t.ID, &t.ClientID, &t.BranchID, &t.Device, &t.SerialNumber, &t.Issue, &t.Diagnosis, &t.EstimatedCost, &t.Status, &t.ReceivedAt, &t.DeliveredAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ticket{}, shared.ErrNotFound
	}
	return t, err
}

func (r *repository) Create(ctx context.Context, ticket Ticket) (Ticket, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO servicios_tecnicos (id_cliente, id_sucursal, equipo, numero_serie, problema, diagnostico, costo_estimado, estado, fecha_recepcion) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id_servicio, fecha_recepcion`,
		ticket.ClientID, ticket.BranchID, ticket.Device, ticket.SerialNumber, ticket.Issue, ticket.Diagnosis, ticket.EstimatedCost, ticket.Status, ticket.ReceivedAt).
		Scan(&ticket.ID, &ticket.ReceivedAt)
	return ticket, err
}

func (r *repository) Update(ctx context.Context, id int64, ticket Ticket) error {
	tag, err := r.db.Exec(ctx, `UPDATE servicios_tecnicos SET equipo = $1, numero_serie = $2, problema = $3, diagnostico = $4, costo_estimado = $5, updated_at = NOW() WHERE id_servicio = $6`,
		ticket.Device, ticket.SerialNumber, ticket.Issue, ticket.Diagnosis, ticket.EstimatedCost, id)
	if err == nil && tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status string, deliveredAt any) error {
	tag, err := r.db.Exec(ctx, `UPDATE servicios_tecnicos SET estado = $1, fecha_entrega = $2, updated_at = NOW() WHERE id_servicio = $3`,
		status, deliveredAt, id)
	if err == nil && tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return err
}
