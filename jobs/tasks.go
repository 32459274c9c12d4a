package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan flags inventory rows at or under a threshold.
	TaskLowStockScan = "stock:low_scan"
	// TaskDailySalesSummary aggregates the previous day's sales.
	TaskDailySalesSummary = "sales:daily_summary"
)

// LowStockScanPayload configures a low-stock scan run.
type LowStockScanPayload struct {
	Threshold int64 `json:"threshold"`
}

// NewLowStockScanTask constructs the scan task.
func NewLowStockScanTask(threshold int64) (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}

// DailySalesSummaryPayload configures a summary run. Day is an RFC3339 date;
// empty means yesterday.
type DailySalesSummaryPayload struct {
	Day string `json:"day"`
}

// NewDailySalesSummaryTask constructs the summary task.
func NewDailySalesSummaryTask(day string) (*asynq.Task, error) {
	data, err := json.Marshal(DailySalesSummaryPayload{Day: day})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailySalesSummary, data), nil
}
