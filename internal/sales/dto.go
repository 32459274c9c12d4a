package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleInput is the posting request. BranchID is the default branch for
// lines that do not name their own.
type CreateSaleInput struct {
	ReceiptNumber string           `json:"receipt_number" validate:"required"`
	ClientID      *int64           `json:"client_id" validate:"omitempty,gt=0"`
	UserID        int64            `json:"-"`
	BranchID      int64            `json:"branch_id" validate:"omitempty,gt=0"`
	Lines         []CreateSaleLine `json:"lines" validate:"dive"`
}

// CreateSaleLine is one requested line item. A zero BranchID falls back to
// the sale-level branch.
type CreateSaleLine struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	BranchID  int64           `json:"branch_id" validate:"omitempty,gt=0"`
	Quantity  int64           `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ListFilter narrows the sale listing.
type ListFilter struct {
	ClientID *int64
	From     time.Time
	To       time.Time
	Page     int
	Limit    int
}
