package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/austral-pos/austral-pos/internal/inventory"
	"github.com/austral-pos/austral-pos/internal/shared"
)

// StockLister reads inventory rows under a threshold.
type StockLister interface {
	ListBelow(ctx context.Context, threshold int64) ([]inventory.Stock, error)
}

// AuditPort abstracts audit logging for jobs.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// LowStockScanJob walks the inventory and records rows running low so branch
// staff can reorder before the shelf empties.
type LowStockScanJob struct {
	stocks    StockLister
	logger    *slog.Logger
	audit     AuditPort
	threshold int64
}

// NewLowStockScanJob constructs the job. The threshold is the default when the
// task payload carries none.
func NewLowStockScanJob(stocks StockLister, audit AuditPort, logger *slog.Logger, threshold int64) *LowStockScanJob {
	return &LowStockScanJob{stocks: stocks, logger: logger, audit: audit, threshold: threshold}
}

// Handle processes TaskLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	threshold := payload.Threshold
	if threshold <= 0 {
		threshold = j.threshold
	}

	stocks, err := j.stocks.ListBelow(ctx, threshold)
	if err != nil {
		return err
	}
	for _, s := range stocks {
		j.logger.Warn("low stock",
			"product_id", s.ProductID,
			"branch_id", s.BranchID,
			"quantity", s.Quantity,
			"threshold", threshold)
	}
	if j.audit != nil && len(stocks) > 0 {
		_ = j.audit.Record(ctx, shared.AuditLog{
			Action:   "jobs:low_stock_scan",
			Entity:   "inventario",
			EntityID: fmt.Sprintf("threshold:%d", threshold),
			Meta:     map[string]any{"flagged": len(stocks)},
		})
	}
	j.logger.Info("low stock scan complete", "flagged", len(stocks), "threshold", threshold)
	return nil
}
