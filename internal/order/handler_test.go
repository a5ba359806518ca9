// AngelaMos | 2026
// handler_test.go

package order

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMalformedOrderIDIsNotFound(t *testing.T) {
	h := NewHandler(HandlerConfig{})

	r := chi.NewRouter()
	r.Route("/user", h.RegisterRoutes)
	r.Route("/admin", h.RegisterAdminRoutes)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/user/orders/not-a-uuid", ""},
		{http.MethodGet, "/admin/orders/123", ""},
		{http.MethodPut, "/admin/orders/123/status", `{"status":"shipped"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}
