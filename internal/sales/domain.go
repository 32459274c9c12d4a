package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the persisted sale header plus its line items. Total is always the
// sum of line quantity times unit price, computed at posting time.
type Sale struct {
	ID            int64           `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	ClientID      *int64          `json:"client_id,omitempty"`
	UserID        int64           `json:"user_id"`
	SoldAt        time.Time       `json:"sold_at"`
	Total         decimal.Decimal `json:"total"`
	Lines         []SaleLine      `json:"lines,omitempty"`
}

// SaleLine records one product sold. BranchID is stamped at posting time so
// cancellation restores stock to the branch it was taken from, regardless of
// where the cancelling user works now.
type SaleLine struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	BranchID  int64           `json:"branch_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

var (
	// ErrEmptySale rejects a sale with no line items.
	ErrEmptySale = errors.New("sale must contain at least one line")
	// ErrSaleNotFound indicates a missing sale row.
	ErrSaleNotFound = errors.New("sale not found")
	// ErrDuplicateReceipt indicates the receipt number is already taken.
	ErrDuplicateReceipt = errors.New("receipt number already exists")
)
