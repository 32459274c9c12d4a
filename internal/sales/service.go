package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/austral-pos/austral-pos/internal/inventory"
	"github.com/austral-pos/austral-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Sale, error)
	List(ctx context.Context, filter ListFilter) ([]Sale, int, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts sale operations by outcome.
type MetricsPort interface {
	ObserveSale(operation, outcome string)
}

// StockInvalidator drops cached stock rows touched by a sale.
type StockInvalidator interface {
	InvalidateQuantities(ctx context.Context, pairs ...[2]int64)
}

// Service posts and cancels sales. Posting validates every line against the
// stock ledger before mutating anything; both paths run inside a single
// transaction so a failure leaves stock and sale rows untouched.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	metrics     MetricsPort
	invalidator StockInvalidator
}

// NewService builds Service. Audit, metrics and invalidator may be nil.
func NewService(repo RepositoryPort, audit AuditPort, metrics MetricsPort, invalidator StockInvalidator) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, invalidator: invalidator}
}

// Create posts a sale: lock and validate every line in input order, compute
// the total, write header and lines, then decrement stock. The first failing
// line aborts the whole transaction.
func (s *Service) Create(ctx context.Context, input CreateSaleInput) (Sale, error) {
	if len(input.Lines) == 0 {
		s.observe("create", "empty")
		return Sale{}, ErrEmptySale
	}
	if strings.TrimSpace(input.ReceiptNumber) == "" {
		return Sale{}, errors.New("sales: receipt number required")
	}
	if input.UserID <= 0 {
		return Sale{}, errors.New("sales: user required")
	}
	for _, line := range input.Lines {
		if line.ProductID <= 0 || line.Quantity <= 0 {
			return Sale{}, errors.New("sales: every line needs a product and a positive quantity")
		}
		if line.UnitPrice.IsNegative() {
			return Sale{}, errors.New("sales: unit price must be >= 0")
		}
		if branchFor(line, input) <= 0 {
			return Sale{}, errors.New("sales: every line needs a branch")
		}
	}

	sale := Sale{
		ReceiptNumber: input.ReceiptNumber,
		ClientID:      input.ClientID,
		UserID:        input.UserID,
		SoldAt:        time.Now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ledger := tx.Ledger()
		total := decimal.Zero
		for _, line := range input.Lines {
			branchID := branchFor(line, input)
			stock, err := ledger.GetForUpdate(ctx, line.ProductID, branchID)
			if errors.Is(err, inventory.ErrRecordNotFound) {
				return &inventory.NotStockedError{ProductID: line.ProductID, BranchID: branchID}
			}
			if err != nil {
				return err
			}
			if stock.Quantity < line.Quantity {
				return &inventory.InsufficientStockError{
					ProductID: line.ProductID,
					BranchID:  branchID,
					Requested: line.Quantity,
					Available: stock.Quantity,
				}
			}
			total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
		}
		sale.Total = total

		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = saleID

		lines := make([]SaleLine, 0, len(input.Lines))
		for _, line := range input.Lines {
			lines = append(lines, SaleLine{
				SaleID:    saleID,
				ProductID: line.ProductID,
				BranchID:  branchFor(line, input),
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}
		if err := tx.InsertLines(ctx, saleID, lines); err != nil {
			return err
		}
		sale.Lines = lines

		for _, line := range input.Lines {
			if err := ledger.Decrement(ctx, line.ProductID, branchFor(line, input), line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.observe("create", outcomeFor(err))
		return Sale{}, err
	}

	s.observe("create", "ok")
	s.invalidate(ctx, sale.Lines)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.UserID,
			Action:   "sales:create",
			Entity:   "ventas",
			EntityID: fmt.Sprintf("%d", sale.ID),
			Meta: map[string]any{
				"receipt_number": sale.ReceiptNumber,
				"branch_id":      input.BranchID,
				"total":          sale.Total.String(),
				"line_count":     len(sale.Lines),
			},
		})
	}
	return sale, nil
}

// Cancel reverses a posted sale: restore every line's quantity to the branch
// stored on the line, then remove lines and header.
func (s *Service) Cancel(ctx context.Context, actorID, saleID int64) error {
	if saleID <= 0 {
		return ErrSaleNotFound
	}
	var restored []SaleLine
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSale(ctx, saleID)
		if err != nil {
			return err
		}
		lines, err := tx.ListLines(ctx, sale.ID)
		if err != nil {
			return err
		}
		ledger := tx.Ledger()
		for _, line := range lines {
			if err := ledger.Increment(ctx, line.ProductID, line.BranchID, line.Quantity); err != nil {
				return err
			}
		}
		if err := tx.DeleteLines(ctx, sale.ID); err != nil {
			return err
		}
		if err := tx.DeleteSale(ctx, sale.ID); err != nil {
			return err
		}
		restored = lines
		return nil
	})
	if err != nil {
		s.observe("cancel", outcomeFor(err))
		return err
	}

	s.observe("cancel", "ok")
	s.invalidate(ctx, restored)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "sales:cancel",
			Entity:   "ventas",
			EntityID: fmt.Sprintf("%d", saleID),
			Meta:     map[string]any{"line_count": len(restored)},
		})
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (Sale, error) {
	if id <= 0 {
		return Sale{}, ErrSaleNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) observe(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveSale(operation, outcome)
	}
}

func (s *Service) invalidate(ctx context.Context, lines []SaleLine) {
	if s.invalidator == nil || len(lines) == 0 {
		return
	}
	pairs := make([][2]int64, 0, len(lines))
	for _, line := range lines {
		pairs = append(pairs, [2]int64{line.ProductID, line.BranchID})
	}
	s.invalidator.InvalidateQuantities(ctx, pairs...)
}

func branchFor(line CreateSaleLine, input CreateSaleInput) int64 {
	if line.BranchID > 0 {
		return line.BranchID
	}
	return input.BranchID
}

func outcomeFor(err error) string {
	var insufficient *inventory.InsufficientStockError
	var notStocked *inventory.NotStockedError
	switch {
	case errors.Is(err, ErrEmptySale):
		return "empty"
	case errors.Is(err, ErrDuplicateReceipt):
		return "duplicate_receipt"
	case errors.Is(err, ErrSaleNotFound):
		return "not_found"
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case errors.As(err, &notStocked):
		return "not_stocked"
	case errors.Is(err, inventory.ErrRecordNotFound):
		return "record_not_found"
	default:
		return "error"
	}
}
