// AngelaMos | 2026
// dto.go

package profile

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToProfileResponse(p *Profile, email string) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Email:     email,
		Role:      p.Role,
		FullName:  deref(p.FullName),
		AvatarURL: deref(p.AvatarURL),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type UpdateSettingsRequest struct {
	FullName  *string `json:"full_name"  validate:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=2048"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// OrderStats summarises a user's purchase history for the home page.
type OrderStats struct {
	TotalSpent    decimal.Decimal `json:"total_spent"    db:"total_spent"`
	TotalOrders   int             `json:"total_orders"   db:"total_orders"`
	PendingOrders int             `json:"pending_orders" db:"pending_orders"`
}

type HomeResponse struct {
	Profile ProfileResponse `json:"profile"`
	Stats   OrderStats      `json:"stats"`
}
