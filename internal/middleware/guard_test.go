// AngelaMos | 2026
// guard_test.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want PathClass
	}{
		{"/static/app.css", ClassStatic},
		{"/favicon.ico", ClassStatic},
		{"/", ClassPublic},
		{"", ClassPublic},
		{"/products", ClassPublic},
		{"/products/", ClassPublic},
		{"/products/8b0e7c1e-4a55-4c41-9d1a-6e3b8f1f2a10", ClassPublic},
		{"/productsfoo", ClassUser},
		{"/categories", ClassPublic},
		{"/auth/callback", ClassPublic},
		{"/newsletter", ClassPublic},
		{"/.well-known/jwks.json", ClassPublic},
		{"/healthz", ClassPublic},
		{"/login", ClassAuth},
		{"/login/", ClassAuth},
		{"/signup", ClassAuth},
		{"/admin", ClassAdmin},
		{"/admin/dashboard", ClassAdmin},
		{"/admin/orders/123/status", ClassAdmin},
		{"/administrator", ClassUser},
		{"/user/home", ClassUser},
		{"/user/checkout", ClassUser},
		{"/settings", ClassUser},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		class         PathClass
		authenticated bool
		role          string
		wantAction    Action
		wantTarget    string
	}{
		{"anonymous public", ClassPublic, false, "", Allow, ""},
		{"anonymous auth page", ClassAuth, false, "", Allow, ""},
		{"anonymous admin", ClassAdmin, false, "", Redirect, LoginPath},
		{"anonymous user area", ClassUser, false, "", Redirect, LoginPath},
		{"user on login", ClassAuth, true, RoleUser, Redirect, UserHomePath},
		{"admin on login", ClassAuth, true, RoleAdmin, Redirect, AdminHomePath},
		{"user on admin", ClassAdmin, true, RoleUser, Redirect, UserHomePath},
		{"admin on admin", ClassAdmin, true, RoleAdmin, Allow, ""},
		{"user on user area", ClassUser, true, RoleUser, Allow, ""},
		{"admin on user area", ClassUser, true, RoleAdmin, Allow, ""},
		{"user on public", ClassPublic, true, RoleUser, Allow, ""},
		{"static", ClassStatic, false, "", Allow, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.class, tt.authenticated, tt.role)
			assert.Equal(t, tt.wantAction, d.Action)
			assert.Equal(t, tt.wantTarget, d.Target)
		})
	}
}

func TestDecideAdminScopedCompleteness(t *testing.T) {
	paths := []string{
		"/admin",
		"/admin/dashboard",
		"/admin/users",
		"/admin/users/1/role",
		"/admin/sql",
		"/admin/products/new",
	}

	for _, p := range paths {
		class := Classify(p)
		require.Equal(t, ClassAdmin, class, p)

		anon := Decide(class, false, "")
		assert.Equal(t, Redirect, anon.Action, p)
		assert.Equal(t, LoginPath, anon.Target, p)

		user := Decide(class, true, RoleUser)
		assert.Equal(t, Redirect, user.Action, p)
		assert.Equal(t, UserHomePath, user.Target, p)

		for i := 0; i < 3; i++ {
			assert.Equal(t, user, Decide(class, true, RoleUser), p)
		}
	}
}

type fakeSessions struct {
	identities map[string]*Identity
	refreshed  *Session
	refreshErr error
	signOuts   int
}

func (f *fakeSessions) CurrentUser(
	_ context.Context,
	token string,
) (*Identity, error) {
	if id, ok := f.identities[token]; ok {
		return id, nil
	}
	return nil, core.ErrTokenExpired
}

func (f *fakeSessions) Refresh(
	_ context.Context,
	_, _, _ string,
) (*Session, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.refreshed == nil {
		return nil, core.ErrTokenInvalid
	}
	return f.refreshed, nil
}

func (f *fakeSessions) SignOut(_ context.Context, _, _ string) error {
	f.signOuts++
	return nil
}

type fakeRoles struct {
	roles map[string]string
	err   error
	calls int
}

func (f *fakeRoles) ResolveRole(_ context.Context, id Identity) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.roles[id.ID], nil
}

var testSession = config.SessionConfig{
	AccessCookie:  "sf_access",
	RefreshCookie: "sf_refresh",
	SameSite:      "lax",
}

type guardHarness struct {
	sessions *fakeSessions
	roles    *fakeRoles
	handler  http.Handler
	seen     *ActingUser
	reached  bool
}

func newGuardHarness() *guardHarness {
	h := &guardHarness{
		sessions: &fakeSessions{identities: map[string]*Identity{
			"user-token":  {ID: "u1", Email: "user@example.com"},
			"admin-token": {ID: "a1", Email: "admin@example.com"},
		}},
		roles: &fakeRoles{roles: map[string]string{
			"u1": RoleUser,
			"a1": RoleAdmin,
		}},
	}

	guard := NewGuard(GuardConfig{
		Sessions: h.sessions,
		Roles:    h.roles,
		Cookies:  NewSessionCookies(testSession),
	})

	h.handler = guard.Handler(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			h.reached = true
			h.seen = GetActingUser(r.Context())
			w.WriteHeader(http.StatusOK)
		},
	))
	return h
}

func (h *guardHarness) do(path, accessToken, refreshToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: "sf_access", Value: accessToken})
	}
	if refreshToken != "" {
		req.AddCookie(&http.Cookie{Name: "sf_refresh", Value: refreshToken})
	}
	rec := httptest.NewRecorder()
	h.reached = false
	h.seen = nil
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestGuardAnonymous(t *testing.T) {
	h := newGuardHarness()

	rec := h.do("/products", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.reached)
	assert.Nil(t, h.seen)

	rec = h.do("/admin/dashboard", "", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	assert.False(t, h.reached)

	rec = h.do("/user/orders", "", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	assert.Zero(t, h.roles.calls)
}

func TestGuardAuthenticated(t *testing.T) {
	h := newGuardHarness()

	rec := h.do("/login", "user-token", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, UserHomePath, rec.Header().Get("Location"))

	rec = h.do("/signup", "admin-token", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, AdminHomePath, rec.Header().Get("Location"))

	rec = h.do("/admin/dashboard", "user-token", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, UserHomePath, rec.Header().Get("Location"))

	rec = h.do("/admin/dashboard", "admin-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, h.seen)
	assert.Equal(t, "a1", h.seen.ID)
	assert.Equal(t, RoleAdmin, h.seen.Role)

	rec = h.do("/user/home", "user-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, h.seen)
	assert.Equal(t, RoleUser, h.seen.Role)
}

func TestGuardResolvesRoleOnEveryRequest(t *testing.T) {
	h := newGuardHarness()

	h.do("/user/home", "user-token", "")
	h.do("/user/home", "user-token", "")
	assert.Equal(t, 2, h.roles.calls)

	h.roles.roles["u1"] = RoleAdmin
	rec := h.do("/admin/dashboard", "user-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRoleFailureSignsOut(t *testing.T) {
	h := newGuardHarness()
	h.roles.err = errors.New("profile lookup failed")

	rec := h.do("/products", "user-token", "refresh")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, h.reached)
	assert.Equal(t, 1, h.sessions.signOuts)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, LoginPath, loc.Path)
	assert.Equal(t, ProfileMissingMessage, loc.Query().Get("message"))

	cleared := 0
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared++
		}
	}
	assert.Equal(t, 2, cleared)

	h.roles.err = nil
	rec = h.do("/login", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRefreshesExpiredSession(t *testing.T) {
	h := newGuardHarness()
	h.sessions.refreshed = &Session{
		Identity:         Identity{ID: "u1", Email: "user@example.com"},
		AccessToken:      "new-access",
		RefreshToken:     "new-refresh",
		AccessExpiresAt:  time.Now().Add(time.Minute),
		RefreshExpiresAt: time.Now().Add(time.Hour),
	}

	rec := h.do("/user/home", "expired", "refresh")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, h.seen)
	assert.Equal(t, "u1", h.seen.ID)

	values := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		values[c.Name] = c.Value
	}
	assert.Equal(t, "new-access", values["sf_access"])
	assert.Equal(t, "new-refresh", values["sf_refresh"])
}

func TestGuardFailedRefreshIsAnonymous(t *testing.T) {
	h := newGuardHarness()
	h.sessions.refreshErr = core.ErrTokenRevoked

	rec := h.do("/user/home", "expired", "stale")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))

	rec = h.do("/", "expired", "stale")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, h.seen)
}

func TestGuardSkipsStatic(t *testing.T) {
	h := newGuardHarness()
	h.roles.err = errors.New("should not be called")

	rec := h.do("/static/logo.png", "user-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, h.roles.calls)
}
