// AngelaMos | 2026
// entity.go

package profile

import (
	"time"
)

// Profile holds the authorization role of an identity. Its id is the
// identity's id.
type Profile struct {
	ID        string    `db:"id"`
	Role      string    `db:"role"`
	FullName  *string   `db:"full_name"`
	AvatarURL *string   `db:"avatar_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Member is a profile joined with the identity's email for admin listings.
type Member struct {
	Profile
	Email string `db:"email"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
