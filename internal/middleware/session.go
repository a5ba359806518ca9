// AngelaMos | 2026
// session.go

package middleware

import (
	"net/http"
	"time"

	"github.com/carterperez-dev/storefront/internal/config"
)

// SessionCookies writes and reads the access/refresh token pair.
type SessionCookies struct {
	cfg config.SessionConfig
}

func NewSessionCookies(cfg config.SessionConfig) *SessionCookies {
	return &SessionCookies{cfg: cfg}
}

func (c *SessionCookies) Read(r *http.Request) (access, refresh string) {
	access = ExtractToken(r, c.cfg.AccessCookie)
	if rc, err := r.Cookie(c.cfg.RefreshCookie); err == nil {
		refresh = rc.Value
	}
	return access, refresh
}

func (c *SessionCookies) Set(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, c.cookie(c.cfg.AccessCookie, s.AccessToken, s.AccessExpiresAt))
	http.SetCookie(w, c.cookie(c.cfg.RefreshCookie, s.RefreshToken, s.RefreshExpiresAt))
}

func (c *SessionCookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{c.cfg.AccessCookie, c.cfg.RefreshCookie} {
		ck := c.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
}

func (c *SessionCookies) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.cfg.Domain,
		Expires:  expires,
		Secure:   c.cfg.Secure,
		HttpOnly: true,
		SameSite: c.cfg.SameSiteMode(),
	}
}
