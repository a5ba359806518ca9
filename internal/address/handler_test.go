// AngelaMos | 2026
// handler_test.go

package address

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type fakeRepo struct {
	calls     int
	createErr error
}

func (f *fakeRepo) ListForUser(context.Context, string) ([]Address, error) {
	f.calls++
	return []Address{}, nil
}

func (f *fakeRepo) GetForUser(context.Context, string, string) (*Address, error) {
	f.calls++
	return nil, core.ErrNotFound
}

func (f *fakeRepo) Create(context.Context, *Address) error {
	f.calls++
	return f.createErr
}

func (f *fakeRepo) Update(context.Context, *Address) error {
	f.calls++
	return nil
}

func (f *fakeRepo) Delete(context.Context, string, string) error {
	f.calls++
	return nil
}

func (f *fakeRepo) SetDefault(context.Context, string, string) error {
	f.calls++
	return nil
}

func newRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithActingUser(req.Context(), &middleware.ActingUser{
				ID:   "8d1c3f0a-1b2c-4d5e-8f90-0a1b2c3d4e5f",
				Role: middleware.RoleUser,
			})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(repo).RegisterRoutes(r)
	return r
}

const validBody = `{"address_line_1":"1 Main St","city":"Springfield","state":"IL","postal_code":"62701","country":"US"}`

func TestMalformedAddressIDIsNotFound(t *testing.T) {
	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPut, "/addresses/not-a-uuid", validBody},
		{http.MethodDelete, "/addresses/not-a-uuid", ""},
		{http.MethodPost, "/addresses/42/default", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			repo := &fakeRepo{}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))

			newRouter(repo).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Zero(t, repo.calls, "malformed ids never reach the store")
		})
	}
}

func TestWellFormedAddressIDReachesStore(t *testing.T) {
	repo := &fakeRepo{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/addresses/0f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a", nil)

	newRouter(repo).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, repo.calls)
}

func TestCreateConflictIsReported(t *testing.T) {
	repo := &fakeRepo{createErr: fmt.Errorf("create address: %w", core.ErrConflict)}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/addresses", strings.NewReader(validBody))

	newRouter(repo).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
