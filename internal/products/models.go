package products

import "time"

// Product represents a catalog entry. Price is in the smallest currency
// unit. PartnerID points at the fulfillment partner responsible for the
// product; orders cannot be placed against products without one.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	PartnerID *int64    `json:"partner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
