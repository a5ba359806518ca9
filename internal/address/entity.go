// AngelaMos | 2026
// entity.go

package address

import (
	"time"
)

type Address struct {
	ID           string    `db:"id"             json:"id"`
	UserID       string    `db:"user_id"        json:"-"`
	AddressLine1 string    `db:"address_line_1" json:"address_line_1"`
	AddressLine2 *string   `db:"address_line_2" json:"address_line_2,omitempty"`
	City         string    `db:"city"           json:"city"`
	State        string    `db:"state"          json:"state"`
	PostalCode   string    `db:"postal_code"    json:"postal_code"`
	Country      string    `db:"country"        json:"country"`
	IsDefault    bool      `db:"is_default"     json:"is_default"`
	CreatedAt    time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"     json:"updated_at"`
}
