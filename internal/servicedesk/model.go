package servicedesk

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket states follow the workshop flow: a device is received, worked on,
// marked ready for pickup and finally delivered back to the client.
const (
	StatusReceived   = "RECEIVED"
	StatusInProgress = "IN_PROGRESS"
	StatusReady      = "READY"
	StatusDelivered  = "DELIVERED"
)

type Ticket struct {
	ID            int64           `json:"id"`
	ClientID      int64           `json:"client_id"`
	BranchID      int64           `json:"branch_id"`
	Device        string          `json:"device"`
	SerialNumber  string          `json:"serial_number"`
	Issue         string          `json:"issue"`
	Diagnosis     string          `json:"diagnosis"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	Status        string          `json:"status"`
	ReceivedAt    time.Time       `json:"received_at"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// validTransitions maps a status to the set of statuses a ticket may move to.
var validTransitions = map[string][]string{
	StatusReceived:   {StatusInProgress, StatusReady},
	StatusInProgress: {StatusReady},
	StatusReady:      {StatusDelivered},
	StatusDelivered:  {},
}

func canTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
