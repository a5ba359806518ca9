// AngelaMos | 2026
// routes_test.go

package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/auth"
	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/health"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/profile"
	"github.com/carterperez-dev/storefront/internal/user"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return core.ErrDuplicateKey
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PasswordHash = hash
	return nil
}

func (m *memUsers) UpdateMetadata(_ context.Context, id string, fullName, avatarURL *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fullName != nil {
		m.users[id].FullName = fullName
	}
	if avatarURL != nil {
		m.users[id].AvatarURL = avatarURL
	}
	return nil
}

func (m *memUsers) ConfirmEmail(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	u.EmailConfirmedAt = &now
	return nil
}

func (m *memUsers) IncrementTokenVersion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].TokenVersion++
	return nil
}

func (m *memUsers) idFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u.ID
		}
	}
	return ""
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*auth.RefreshToken
}

func (m *memTokens) Create(_ context.Context, t *auth.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	cp.CreatedAt = time.Now()
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (*auth.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memTokens) FindByID(_ context.Context, id string) (*auth.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) Rotate(_ context.Context, usedID string, next *auth.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	used, ok := m.tokens[usedID]
	if !ok || used.IsUsed {
		return core.ErrConflict
	}
	now := time.Now()
	used.IsUsed = true
	used.UsedAt = &now
	cp := *next
	cp.CreatedAt = now
	m.tokens[next.ID] = &cp
	return nil
}

func (m *memTokens) RevokeByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memTokens) RevokeByFamilyID(_ context.Context, familyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.FamilyID == familyID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memTokens) GetActiveSessionsForUser(
	_ context.Context,
	userID string,
) ([]auth.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []auth.RefreshToken{}
	for _, t := range m.tokens {
		if t.UserID == userID && t.IsValid() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTokens) DeleteExpired(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) Insert(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return core.ErrDuplicateKey
	}
	cp := *p
	cp.CreatedAt = time.Now()
	m.profiles[p.ID] = &cp
	return nil
}

func (m *memProfiles) UpdateRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return core.ErrNotFound
	}
	p.Role = role
	return nil
}

func (m *memProfiles) Update(context.Context, string, *string, *string) error {
	return nil
}

func (m *memProfiles) GetMember(context.Context, string) (*profile.Member, error) {
	return nil, core.ErrNotFound
}

func (m *memProfiles) ListMembers(context.Context, int, int) ([]profile.Member, error) {
	return nil, nil
}

func (m *memProfiles) Count(context.Context) (int, error) {
	return len(m.profiles), nil
}

type outbox struct {
	mu    sync.Mutex
	links []string
}

func (o *outbox) SendConfirmation(_ context.Context, _ string, link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links = append(o.links, link)
	return nil
}

func (o *outbox) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.links) == 0 {
		return ""
	}
	return o.links[len(o.links)-1]
}

type nopStore struct{}

func (nopStore) Upload(context.Context, string, string, string, io.Reader) (string, error) {
	return "", nil
}
func (nopStore) Delete(context.Context, string) error { return nil }
func (nopStore) URL(key string) string { return "https://cdn.test/" + key }
func (nopStore) KeyFromURL(string) (string, bool) { return "", false }
func (nopStore) Ping(context.Context) error { return nil }

type storefront struct {
	server   *httptest.Server
	mock     sqlmock.Sqlmock
	users    *memUsers
	profiles *memProfiles
	mail     *outbox
}

func newStorefront(t *testing.T) *storefront {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "storefront",
			Environment: "test",
			BaseURL:     "http://storefront.test",
		},
		JWT: config.JWTConfig{
			AccessTokenExpire:  15 * time.Minute,
			RefreshTokenExpire: 24 * time.Hour,
			Issuer:             "storefront",
			Audience:           "storefront",
		},
		Session: config.SessionConfig{
			AccessCookie:  "sf_access",
			RefreshCookie: "sf_refresh",
			SameSite:      "lax",
			CodeTTL:       time.Hour,
		},
		RateLimit:     config.RateLimitConfig{Requests: 1000, Burst: 1000, Window: time.Minute},
		AuthRateLimit: config.RateLimitConfig{Requests: 1000, Burst: 1000, Window: time.Minute},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://storefront.test"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		},
		Cache:   config.CacheConfig{OrderListTTL: time.Minute},
		Cart:    config.CartConfig{TTL: time.Hour},
		Storage: config.StorageConfig{MaxUploadBytes: 5 << 20},
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	jwtManager, err := auth.NewJWTManagerFromKey(key, cfg.JWT)
	require.NoError(t, err)

	sf := &storefront{
		mock:     mock,
		users:    &memUsers{users: map[string]*user.User{}},
		profiles: &memProfiles{profiles: map[string]*profile.Profile{}},
		mail:     &outbox{},
	}

	router := chi.NewRouter()
	mountRoutes(router, deps{
		Config:   cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		DB:       &core.Database{DB: sqlx.NewDb(db, "pgx")},
		Redis:    &core.Redis{Client: client},
		JWT:      jwtManager,
		Store:    nopStore{},
		Mailer:   sf.mail,
		Users:    sf.users,
		Tokens:   &memTokens{tokens: map[string]*auth.RefreshToken{}},
		Profiles: sf.profiles,
		Health:   health.NewHandler(),
		SendMail: func(fn func()) { fn() },
	})

	sf.server = httptest.NewServer(router)
	t.Cleanup(sf.server.Close)
	return sf
}

// browser keeps cookies and does not follow redirects.
func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (sf *storefront) do(
	t *testing.T,
	c *http.Client,
	method, path, body string,
) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, sf.server.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func location(t *testing.T, resp *http.Response) string {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	u, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	return u.Path
}

func TestSignupToAdminDashboard(t *testing.T) {
	sf := newStorefront(t)
	ctx := context.Background()
	const email = "sam@example.com"
	credentials := `{"email":"sam@example.com","password":"correct-horse"}`

	anon := browser(t)
	assert.Equal(t, middleware.LoginPath,
		location(t, sf.do(t, anon, http.MethodGet, "/user/home", "")),
		"signed out shoppers are sent to login")

	resp := sf.do(t, anon, http.MethodPost, "/signup",
		`{"email":"sam@example.com","password":"correct-horse","full_name":"Sam"}`)
	assert.Equal(t, middleware.LoginPath, location(t, resp))

	link, err := url.Parse(sf.mail.last())
	require.NoError(t, err, "confirmation mail sent")
	require.NotEmpty(t, link.Query().Get("code"))

	shopper := browser(t)
	resp = sf.do(t, shopper, http.MethodGet, "/auth/callback?"+link.RawQuery, "")
	assert.Equal(t, middleware.UserHomePath, location(t, resp))

	userID := sf.users.idFor(email)
	require.NotEmpty(t, userID)
	p, err := sf.profiles.GetByID(ctx, userID)
	require.NoError(t, err, "callback creates the profile")
	assert.Equal(t, middleware.RoleUser, p.Role)

	resp = sf.do(t, browser(t), http.MethodPost, "/login", credentials)
	assert.Equal(t, middleware.UserHomePath, location(t, resp))

	resp = sf.do(t, shopper, http.MethodGet, middleware.AdminHomePath, "")
	assert.Equal(t, middleware.UserHomePath, location(t, resp), "non-admins are demoted")

	resp = sf.do(t, shopper, http.MethodGet, "/login", "")
	assert.Equal(t, middleware.UserHomePath, location(t, resp), "signed in users skip the login form")

	require.NoError(t, sf.profiles.UpdateRole(ctx, userID, middleware.RoleAdmin))

	operator := browser(t)
	resp = sf.do(t, operator, http.MethodPost, "/login", credentials)
	assert.Equal(t, middleware.AdminHomePath, location(t, resp))

	sf.expectDashboard()
	resp = sf.do(t, operator, http.MethodGet, middleware.AdminHomePath, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	sf.expectDashboard()
	resp = sf.do(t, shopper, http.MethodGet, middleware.AdminHomePath, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "role is read fresh on every request")

	assert.NoError(t, sf.mock.ExpectationsWereMet())
}

func (sf *storefront) expectDashboard() {
	sf.mock.ExpectQuery(regexp.QuoteMeta("AS revenue,")).
		WillReturnRows(sqlmock.NewRows([]string{"revenue", "orders", "pending"}).AddRow("0", 0, 0))
	sf.mock.ExpectQuery(regexp.QuoteMeta("FROM newsletter_subscribers")).
		WillReturnRows(sqlmock.NewRows([]string{"products", "users", "subscribers"}).AddRow(0, 1, 0))
	sf.mock.ExpectQuery(regexp.QuoteMeta("GROUP BY 1")).
		WillReturnRows(sqlmock.NewRows([]string{"month", "revenue"}))
	sf.mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
}

func TestPublicRoutesNeedNoSession(t *testing.T) {
	sf := newStorefront(t)

	resp := sf.do(t, browser(t), http.MethodGet, "/livez", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = sf.do(t, browser(t), http.MethodGet, "/.well-known/jwks.json", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = sf.do(t, browser(t), http.MethodGet, "/admin/stats", "")
	assert.Equal(t, middleware.LoginPath, location(t, resp))
}
