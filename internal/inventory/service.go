package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/austral-pos/austral-pos/internal/platform/cache"
	"github.com/austral-pos/austral-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxLedger) error) error
	GetQuantity(ctx context.Context, productID, branchID int64) (Stock, error)
	ListByBranch(ctx context.Context, branchID int64) ([]Stock, error)
	ListBelow(ctx context.Context, threshold int64) ([]Stock, error)
	Upsert(ctx context.Context, stock Stock) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock reads and adjustments.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache *cache.Cache
}

// NewService builds Service. The cache may be nil.
func NewService(repo RepositoryPort, audit AuditPort, c *cache.Cache) *Service {
	return &Service{repo: repo, audit: audit, cache: c}
}

func stockKey(productID, branchID int64) string {
	return fmt.Sprintf("stock:%d:%d", branchID, productID)
}

// GetQuantity reads one stock row, served from cache when warm.
func (s *Service) GetQuantity(ctx context.Context, productID, branchID int64) (Stock, error) {
	if productID <= 0 || branchID <= 0 {
		return Stock{}, errors.New("inventory: product and branch required")
	}
	var stock Stock
	err := s.cache.FetchJSON(ctx, stockKey(productID, branchID), &stock, func(ctx context.Context) (interface{}, error) {
		return s.repo.GetQuantity(ctx, productID, branchID)
	})
	return stock, err
}

func (s *Service) ListByBranch(ctx context.Context, branchID int64) ([]Stock, error) {
	if branchID <= 0 {
		return nil, errors.New("inventory: branch required")
	}
	return s.repo.ListByBranch(ctx, branchID)
}

func (s *Service) ListBelow(ctx context.Context, threshold int64) ([]Stock, error) {
	if threshold < 0 {
		threshold = 0
	}
	return s.repo.ListBelow(ctx, threshold)
}

// SetStock replaces the absolute quantity of a product at a branch. Used for
// receiving goods and stocktake corrections, never by sale posting.
func (s *Service) SetStock(ctx context.Context, actorID int64, stock Stock) (Stock, error) {
	if stock.ProductID <= 0 || stock.BranchID <= 0 {
		return Stock{}, errors.New("inventory: product and branch required")
	}
	if stock.Quantity < 0 {
		return Stock{}, errors.New("inventory: quantity must be >= 0")
	}
	if err := s.repo.Upsert(ctx, stock); err != nil {
		return Stock{}, err
	}
	_ = s.cache.Invalidate(ctx, stockKey(stock.ProductID, stock.BranchID))
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "inventory:set",
			Entity:   "inventario",
			EntityID: fmt.Sprintf("%d:%d", stock.ProductID, stock.BranchID),
			Meta: map[string]any{
				"product_id": stock.ProductID,
				"branch_id":  stock.BranchID,
				"quantity":   stock.Quantity,
			},
		})
	}
	return s.repo.GetQuantity(ctx, stock.ProductID, stock.BranchID)
}

// InvalidateQuantities drops cached stock rows after a mutation performed
// outside this service, such as sale posting.
func (s *Service) InvalidateQuantities(ctx context.Context, pairs ...[2]int64) {
	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		keys = append(keys, stockKey(pair[0], pair[1]))
	}
	_ = s.cache.Invalidate(ctx, keys...)
}
