// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is the credential-bearing identity. Roles are not stored here; they
// belong to the profile.
type User struct {
	ID               string     `db:"id"`
	Email            string     `db:"email"`
	PasswordHash     string     `db:"password_hash"`
	FullName         *string    `db:"full_name"`
	AvatarURL        *string    `db:"avatar_url"`
	EmailConfirmedAt *time.Time `db:"email_confirmed_at"`
	TokenVersion     int        `db:"token_version"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (u *User) IsConfirmed() bool {
	return u.EmailConfirmedAt != nil
}

func (u *User) DisplayName() string {
	if u.FullName != nil {
		return *u.FullName
	}
	return ""
}

func (u *User) Avatar() string {
	if u.AvatarURL != nil {
		return *u.AvatarURL
	}
	return ""
}
