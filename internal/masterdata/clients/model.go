package clients

import "time"

// Client represents a customer of the shop.
type Client struct {
	ID        int64     `json:"id"`
	TaxID     string    `json:"tax_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
