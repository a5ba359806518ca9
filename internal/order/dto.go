// AngelaMos | 2026
// dto.go

package order

import (
	"github.com/shopspring/decimal"
)

const (
	OrdersPerPage = 20

	IdempotencyHeader = "Idempotency-Key"

	PlacedMessage = "Your order has been placed successfully!"
)

// LineInput is one cart line submitted for checkout. Price, when present,
// is the unit price the client showed and must still match the catalog.
type LineInput struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  int              `json:"quantity"   validate:"min=1,max=99"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type PlaceOrderInput struct {
	Items          []LineInput `json:"items"          validate:"dive"`
	AddressID      string      `json:"address_id"     validate:"required,uuid"`
	PaymentMethod  string      `json:"payment_method" validate:"required,oneof=cod card"`
	IdempotencyKey string      `json:"-"              validate:"omitempty,max=128"`
}

type PlaceOrderResult struct {
	OrderID      string          `json:"order_id"`
	Total        decimal.Decimal `json:"total"`
	Message      string          `json:"message"`
	ClientSecret string          `json:"payment_client_secret,omitempty"`
	Replayed     bool            `json:"replayed,omitempty"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=pending shipped delivered cancelled"`
}

type Detail struct {
	Order   *Order           `json:"order"`
	Items   []Item           `json:"items"`
	Address *ShippingAddress `json:"address,omitempty"`
}

type ListPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}
