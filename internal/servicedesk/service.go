package servicedesk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
)

// ErrInvalidTransition is returned when a status change does not follow the
// workshop flow (for example delivering a ticket that is not ready yet).
var ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", shared.ErrValidation)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters, status string) ([]Ticket, int, error) {
	filters.Normalize()
	if status != "" && !isKnownStatus(status) {
		return nil, 0, fmt.Errorf("%w: status", shared.ErrValidation)
	}
	return s.repo.List(ctx, filters, status)
}

func (s *Service) Get(ctx context.Context, id int64) (Ticket, error) {
	if id <= 0 {
		return Ticket{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, ticket Ticket) (Ticket, error) {
	if ticket.ClientID <= 0 {
		return Ticket{}, fmt.Errorf("%w: client_id", shared.ErrRequiredField)
	}
	if ticket.BranchID <= 0 {
		return Ticket{}, fmt.Errorf("%w: branch_id", shared.ErrRequiredField)
	}
	if strings.TrimSpace(ticket.Device) == "" {
		return Ticket{}, fmt.Errorf("%w: device", shared.ErrRequiredField)
	}
	if strings.TrimSpace(ticket.Issue) == "" {
		return Ticket{}, fmt.Errorf("%w: issue", shared.ErrRequiredField)
	}
	if ticket.EstimatedCost.IsNegative() {
		return Ticket{}, fmt.Errorf("%w: estimated_cost must be >= 0", shared.ErrValidation)
	}

	ticket.Status = StatusReceived
	if ticket.ReceivedAt.IsZero() {
		ticket.ReceivedAt = time.Now()
	}
	return s.repo.Create(ctx, ticket)
}

func (s *Service) Update(ctx context.Context, id int64, ticket Ticket) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if strings.TrimSpace(ticket.Device) == "" {
		return fmt.Errorf("%w: device", shared.ErrRequiredField)
	}
	if ticket.EstimatedCost.IsNegative() {
		return fmt.Errorf("%w: estimated_cost must be >= 0", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, ticket)
}

// ChangeStatus moves a ticket through the workshop flow, stamping the
// delivery time when it reaches DELIVERED.
func (s *Service) ChangeStatus(ctx context.Context, id int64, status string) (Ticket, error) {
	if id <= 0 {
		return Ticket{}, shared.ErrInvalidID
	}
	if !isKnownStatus(status) {
		return Ticket{}, fmt.Errorf("%w: status", shared.ErrValidation)
	}

	ticket, err := s.repo.Get(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	if !canTransition(ticket.Status, status) {
		return Ticket{}, ErrInvalidTransition
	}

	var deliveredAt any
	if status == StatusDelivered {
		now := time.Now()
		deliveredAt = now
		ticket.DeliveredAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, status, deliveredAt); err != nil {
		return Ticket{}, err
	}
	ticket.Status = status
	return ticket, nil
}

func isKnownStatus(status string) bool {
	switch status {
	case StatusReceived, StatusInProgress, StatusReady, StatusDelivered:
		return true
	}
	return false
}
