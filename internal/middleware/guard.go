// AngelaMos | 2026
// guard.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/metrics"
)

const (
	LoginPath     = "/login"
	SignupPath    = "/signup"
	UserHomePath  = "/user/home"
	AdminHomePath = "/admin/dashboard"

	ProfileMissingMessage = "Could not find user profile."
)

// RoleHome is where a signed-in user of the given role lands.
func RoleHome(role string) string {
	if role == RoleAdmin {
		return AdminHomePath
	}
	return UserHomePath
}

type PathClass int

const (
	ClassStatic PathClass = iota
	ClassPublic
	ClassAuth
	ClassAdmin
	ClassUser
)

func (c PathClass) String() string {
	switch c {
	case ClassStatic:
		return "static"
	case ClassPublic:
		return "public"
	case ClassAuth:
		return "auth"
	case ClassAdmin:
		return "admin"
	default:
		return "user"
	}
}

var (
	staticPrefixes = []string{"/static/"}
	staticExact    = []string{"/favicon.ico", "/robots.txt"}

	authExact = []string{LoginPath, SignupPath}

	publicExact = []string{
		"/",
		"/hero",
		"/logout",
		"/healthz",
		"/livez",
		"/readyz",
		"/metrics",
	}
	publicPrefixes = []string{
		"/products",
		"/categories",
		"/auth/",
		"/newsletter",
		"/.well-known/",
	}
)

// Classify maps a request path onto the guard's route classes. Anything not
// listed as static, auth, public or admin is user scoped.
func Classify(path string) PathClass {
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}

	if matchExact(path, staticExact) || matchPrefix(path, staticPrefixes) {
		return ClassStatic
	}
	if matchExact(path, authExact) {
		return ClassAuth
	}
	if path == "/admin" || strings.HasPrefix(path, "/admin/") {
		return ClassAdmin
	}
	if matchExact(path, publicExact) || matchPrefix(path, publicPrefixes) {
		return ClassPublic
	}
	return ClassUser
}

func matchExact(path string, list []string) bool {
	for _, p := range list {
		if path == p {
			return true
		}
	}
	return false
}

// matchPrefix treats "/products" as matching "/products" and "/products/..."
// but not "/productsfoo".
func matchPrefix(path string, list []string) bool {
	for _, p := range list {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) || path == strings.TrimSuffix(p, "/") {
				return true
			}
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

type Action int

const (
	Allow Action = iota
	Redirect
)

type Decision struct {
	Action Action
	Target string
	Reason string
}

// Decide is the guard's decision table. It performs no I/O.
func Decide(class PathClass, authenticated bool, role string) Decision {
	if class == ClassStatic {
		return Decision{Action: Allow, Reason: "allow"}
	}

	if !authenticated {
		switch class {
		case ClassAdmin, ClassUser:
			return Decision{Action: Redirect, Target: LoginPath, Reason: "login"}
		default:
			return Decision{Action: Allow, Reason: "allow"}
		}
	}

	switch class {
	case ClassAuth:
		return Decision{
			Action: Redirect,
			Target: RoleHome(role),
			Reason: "role_home",
		}
	case ClassAdmin:
		if role != RoleAdmin {
			return Decision{
				Action: Redirect,
				Target: UserHomePath,
				Reason: "demote",
			}
		}
	}

	return Decision{Action: Allow, Reason: "allow"}
}

type SessionStore interface {
	CurrentUser(ctx context.Context, accessToken string) (*Identity, error)
	Refresh(
		ctx context.Context,
		refreshToken, userAgent, ipAddress string,
	) (*Session, error)
	SignOut(ctx context.Context, accessToken, refreshToken string) error
}

type RoleResolver interface {
	ResolveRole(ctx context.Context, identity Identity) (string, error)
}

type GuardConfig struct {
	Sessions SessionStore
	Roles    RoleResolver
	Cookies  *SessionCookies
	Logger   *slog.Logger
}

type Guard struct {
	sessions SessionStore
	roles    RoleResolver
	cookies  *SessionCookies
	logger   *slog.Logger
}

func NewGuard(cfg GuardConfig) *Guard {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		sessions: cfg.Sessions,
		roles:    cfg.Roles,
		cookies:  cfg.Cookies,
		logger:   logger,
	}
}

func (g *Guard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := Classify(r.URL.Path)
		if class == ClassStatic {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		identity, access, refresh := g.authenticate(w, r)

		if identity == nil {
			d := Decide(class, false, "")
			if !g.apply(w, r, d) {
				next.ServeHTTP(w, r)
			}
			return
		}

		role, err := g.roles.ResolveRole(ctx, *identity)
		if err != nil {
			g.logger.Error("role resolution failed, signing out",
				"user_id", identity.ID,
				"path", r.URL.Path,
				"error", err,
			)
			if soErr := g.sessions.SignOut(ctx, access, refresh); soErr != nil {
				g.logger.Warn("sign out after role failure", "error", soErr)
			}
			g.cookies.Clear(w)
			metrics.GuardDecisions.WithLabelValues("sign_out").Inc()
			core.RedirectWithMessage(w, r, LoginPath, ProfileMissingMessage)
			return
		}

		if g.apply(w, r, Decide(class, true, role)) {
			return
		}

		ctx = WithActingUser(ctx, &ActingUser{
			ID:       identity.ID,
			Email:    identity.Email,
			FullName: identity.FullName,
			Role:     role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// apply records d and writes the redirect if there is one. It reports
// whether the response has been written.
func (g *Guard) apply(w http.ResponseWriter, r *http.Request, d Decision) bool {
	metrics.GuardDecisions.WithLabelValues(d.Reason).Inc()

	if d.Action != Redirect {
		return false
	}

	g.logger.Debug("guard redirect",
		"path", r.URL.Path,
		"target", d.Target,
		"reason", d.Reason,
	)
	core.SeeOther(w, r, d.Target)
	return true
}

// authenticate returns the identity behind the request's session, refreshing
// the token pair when the access token is missing or no longer valid. Cookies
// for a dead session are cleared.
func (g *Guard) authenticate(
	w http.ResponseWriter,
	r *http.Request,
) (*Identity, string, string) {
	ctx := r.Context()
	access, refresh := g.cookies.Read(r)

	if access != "" {
		identity, err := g.sessions.CurrentUser(ctx, access)
		if err == nil {
			return identity, access, refresh
		}
	}

	if refresh == "" {
		if access != "" {
			g.cookies.Clear(w)
		}
		return nil, "", ""
	}

	session, err := g.sessions.Refresh(ctx, refresh, r.UserAgent(), ClientIP(r))
	if err != nil {
		g.logger.Debug("session refresh failed", "error", err)
		// a sibling request rotated this token and is setting new cookies
		if !errors.Is(err, core.ErrConflict) {
			g.cookies.Clear(w)
		}
		return nil, "", ""
	}

	g.cookies.Set(w, session)
	return &session.Identity, session.AccessToken, session.RefreshToken
}
