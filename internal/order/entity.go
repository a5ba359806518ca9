// AngelaMos | 2026
// entity.go

package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/catalog"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

const (
	PaymentCOD  = "cod"
	PaymentCard = "card"
)

type Order struct {
	ID                string          `db:"id"                  json:"id"`
	UserID            string          `db:"user_id"             json:"user_id"`
	TotalAmount       decimal.Decimal `db:"total_amount"        json:"total_amount"`
	Status            Status          `db:"status"              json:"status"`
	ShippingAddressID *string         `db:"shipping_address_id" json:"shipping_address_id"`
	PaymentMethod     string          `db:"payment_method"      json:"payment_method"`
	IdempotencyKey    *string         `db:"idempotency_key"     json:"-"`
	CustomerName      *string         `db:"customer_name"       json:"customer_name,omitempty"`
	CreatedAt         time.Time       `db:"created_at"          json:"created_at"`
}

// Item is an order line. Price is the unit price at the time of the order.
type Item struct {
	ID          string            `db:"id"           json:"id"`
	OrderID     string            `db:"order_id"     json:"order_id"`
	ProductID   string            `db:"product_id"   json:"product_id"`
	Quantity    int               `db:"quantity"     json:"quantity"`
	Price       decimal.Decimal   `db:"price"        json:"price"`
	ProductName *string           `db:"product_name" json:"product_name,omitempty"`
	ImageURLs   catalog.ImageURLs `db:"image_urls"   json:"image_urls,omitempty"`
}

// ShippingAddress is the address snapshot shown on an order's detail view.
type ShippingAddress struct {
	AddressLine1 string  `db:"address_line_1" json:"address_line_1"`
	AddressLine2 *string `db:"address_line_2" json:"address_line_2"`
	City         string  `db:"city"           json:"city"`
	State        string  `db:"state"          json:"state"`
	PostalCode   string  `db:"postal_code"    json:"postal_code"`
	Country      string  `db:"country"        json:"country"`
}
