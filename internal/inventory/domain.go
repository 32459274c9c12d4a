package inventory

import (
	"errors"
	"fmt"
	"time"
)

// Stock is the on-hand quantity of one product at one branch. The pair
// (ProductID, BranchID) identifies the row; quantities never go negative.
type Stock struct {
	ProductID int64     `json:"product_id"`
	BranchID  int64     `json:"branch_id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrRecordNotFound indicates a missing stock row.
var ErrRecordNotFound = errors.New("inventory record not found")

// NotStockedError is returned when a product has never been stocked at the
// branch, which is distinct from having zero on hand.
type NotStockedError struct {
	ProductID int64
	BranchID  int64
}

func (e *NotStockedError) Error() string {
	return fmt.Sprintf("product %d not stocked at branch %d", e.ProductID, e.BranchID)
}

// InsufficientStockError carries enough detail for the caller to report
// exactly which line of a sale cannot be fulfilled.
type InsufficientStockError struct {
	ProductID int64
	BranchID  int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d at branch %d: requested %d, available %d",
		e.ProductID, e.BranchID, e.Requested, e.Available)
}
