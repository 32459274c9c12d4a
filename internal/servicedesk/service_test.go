package servicedesk

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
)

type memoryRepo struct {
	items  map[int64]Ticket
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Ticket)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters, status string) ([]Ticket, int, error) {
	result := []Ticket{}
	for _, t := range r.items {
		if status != "" && t.Status != status {
			continue
		}
		result = append(result, t)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Ticket, error) {
	t, ok := r.items[id]
	if !ok {
		return Ticket{}, shared.ErrNotFound
	}
	return t, nil
}

func (r *memoryRepo) Create(ctx context.Context, ticket Ticket) (Ticket, error) {
	r.nextID++
	ticket.ID = r.nextID
	r.items[ticket.ID] = ticket
	return ticket, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, ticket Ticket) error {
	stored, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Device = ticket.Device
	stored.SerialNumber = ticket.SerialNumber
	stored.Issue = ticket.Issue
	stored.Diagnosis = ticket.Diagnosis
	stored.EstimatedCost = ticket.EstimatedCost
	r.items[id] = stored
	return nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id int64, status string, deliveredAt any) error {
	stored, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Status = status
	r.items[id] = stored
	return nil
}

func validTicket() Ticket {
	return Ticket{
		ClientID: 1,
		BranchID: 1,
		Device:   "Notebook",
		Issue:    "No enciende",
	}
}

func TestCreateTicket(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), validTicket())
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, StatusReceived, created.Status)
	require.False(t, created.ReceivedAt.IsZero())
}

func TestCreateTicketValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	ticket := validTicket()
	ticket.ClientID = 0
	_, err := svc.Create(ctx, ticket)
	require.ErrorIs(t, err, shared.ErrRequiredField)

	ticket = validTicket()
	ticket.Device = " "
	_, err = svc.Create(ctx, ticket)
	require.ErrorIs(t, err, shared.ErrRequiredField)

	ticket = validTicket()
	ticket.EstimatedCost = decimal.RequireFromString("-100")
	_, err = svc.Create(ctx, ticket)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestTicketStatusFlow(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, validTicket())
	require.NoError(t, err)

	updated, err := svc.ChangeStatus(ctx, created.ID, StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, updated.Status)

	updated, err = svc.ChangeStatus(ctx, created.ID, StatusReady)
	require.NoError(t, err)
	require.Equal(t, StatusReady, updated.Status)

	updated, err = svc.ChangeStatus(ctx, created.ID, StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)
}

func TestTicketStatusInvalidTransition(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, validTicket())
	require.NoError(t, err)

	// Cannot deliver a ticket still in RECEIVED.
	_, err = svc.ChangeStatus(ctx, created.ID, StatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Delivered is terminal.
	_, err = svc.ChangeStatus(ctx, created.ID, StatusInProgress)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, created.ID, StatusReady)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, created.ID, StatusDelivered)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, created.ID, StatusReceived)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTicketStatusUnknown(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, validTicket())
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, created.ID, "LOST")
	require.ErrorIs(t, err, shared.ErrValidation)
}
