// AngelaMos | 2026
// handler_test.go

package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

const (
	mugID   = "5b0f4c1e-8a57-4c55-9a40-6a1c7d3e2f01"
	teaID   = "5b0f4c1e-8a57-4c55-9a40-6a1c7d3e2f02"
	ghostID = "5b0f4c1e-8a57-4c55-9a40-6a1c7d3e2f03"
)

type fakeCatalog map[string]catalog.Product

func (f fakeCatalog) ProductsByID(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Hour), mr
}

func newTestRouter(store *Store, products ProductLookup) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithActingUser(r.Context(), &middleware.ActingUser{
				ID:   "u1",
				Role: middleware.RoleUser,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	NewHandler(store, products).RegisterRoutes(r)
	return r
}

func TestStoreSetQuantity(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetQuantity(ctx, "u1", "p2", 1))
	require.NoError(t, store.SetQuantity(ctx, "u1", "p1", 3))
	require.NoError(t, store.SetQuantity(ctx, "u1", "p2", 0))

	items, err := store.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []Item{{ProductID: "p1", Quantity: 3}}, items)
	assert.Equal(t, time.Hour, mr.TTL("storefront:cart:u1"))

	assert.Error(t, store.SetQuantity(ctx, "u1", "p1", 100))

	require.NoError(t, store.Clear(ctx, "u1"))
	items, err = store.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartViewUsesCatalogPrices(t *testing.T) {
	store, _ := newTestStore(t)
	products := fakeCatalog{
		mugID: {ID: mugID, Name: "Mug", Price: decimal.RequireFromString("10.00"), ImageURLs: catalog.ImageURLs{"https://cdn/mug.png"}},
		teaID: {ID: teaID, Name: "Tea", Price: decimal.RequireFromString("2.75")},
	}
	router := newTestRouter(store, products)

	for _, body := range []struct{ id, qty string }{{mugID, "2"}, {teaID, "2"}} {
		req := httptest.NewRequest(http.MethodPut, "/cart/items/"+body.id, strings.NewReader(`{"quantity":`+body.qty+`}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Lines, 2)
	assert.Equal(t, 4, resp.Data.Count)
	assert.True(t, resp.Data.Total.Equal(decimal.RequireFromString("25.50")), resp.Data.Total.String())
	assert.Equal(t, "https://cdn/mug.png", resp.Data.Lines[0].ImageURL)
}

func TestCartRejectsUnknownProduct(t *testing.T) {
	store, _ := newTestStore(t)
	router := newTestRouter(store, fakeCatalog{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/cart/items/"+ghostID, strings.NewReader(`{"quantity":1}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	items, err := store.Items(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRejectsBadQuantity(t *testing.T) {
	store, _ := newTestStore(t)
	router := newTestRouter(store, fakeCatalog{mugID: {ID: mugID}})

	for _, body := range []string{`{}`, `{"quantity":-1}`, `{"quantity":100}`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/cart/items/"+mugID, strings.NewReader(body)))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestCartRejectsMalformedProductID(t *testing.T) {
	store, _ := newTestStore(t)
	router := newTestRouter(store, fakeCatalog{mugID: {ID: mugID}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/cart/items/not-an-id", strings.NewReader(`{"quantity":1}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
