// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	healthy   = pingFunc(func(context.Context) error { return nil })
	unhealthy = pingFunc(func(context.Context) error { return errors.New("down") })
)

func readiness(t *testing.T, h *Handler) (int, ReadinessResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		code, body := readiness(t, NewHandler(
			Dependency{Name: "database", Checker: healthy},
			Dependency{Name: "redis", Checker: healthy},
		))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
		assert.Len(t, body.Checks, 2)
	})

	t.Run("required dependency down", func(t *testing.T) {
		code, body := readiness(t, NewHandler(
			Dependency{Name: "database", Checker: unhealthy},
			Dependency{Name: "redis", Checker: healthy},
		))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unavailable", body.Status)
		assert.False(t, body.Checks[0].Healthy)
	})

	t.Run("optional dependency down", func(t *testing.T) {
		code, body := readiness(t, NewHandler(
			Dependency{Name: "database", Checker: healthy},
			Dependency{Name: "storage", Checker: unhealthy, Optional: true},
		))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", body.Status)
	})
}

func TestLivenessDuringShutdown(t *testing.T) {
	h := NewHandler()
	h.SetShutdown(true)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
