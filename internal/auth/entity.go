// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsValid() bool {
	return !t.IsExpired() && !t.IsRevoked() && !t.IsUsed
}

// UsedWithin reports whether the token was rotated less than d ago. Two
// browser requests racing on one expired access token both present the same
// refresh token, and the loser lands here.
func (t *RefreshToken) UsedWithin(d time.Duration) bool {
	return t.IsUsed && t.UsedAt != nil && time.Since(*t.UsedAt) < d
}

// confirmation is what a one-time email confirmation code resolves to.
type confirmation struct {
	UserID string `json:"user_id"`
	Next   string `json:"next"`
}
