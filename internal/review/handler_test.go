// AngelaMos | 2026
// handler_test.go

package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

const productID = "5c2e1d90-3333-4a1b-9f0e-00000000000a"

type fakeRepo struct {
	saved map[string]*Review
}

func (f *fakeRepo) Upsert(_ context.Context, r *Review) (bool, error) {
	key := r.UserID + "/" + r.ProductID
	_, existed := f.saved[key]
	f.saved[key] = r
	return !existed, nil
}

func (f *fakeRepo) ListForProduct(context.Context, string) ([]catalog.ProductReview, error) {
	return nil, nil
}

func (f *fakeRepo) ListForUser(context.Context, string) ([]Review, error) {
	return nil, nil
}

type fakePurchases map[string]bool

func (f fakePurchases) HasPurchased(_ context.Context, userID, productID string) (bool, error) {
	return f[userID+"/"+productID], nil
}

func newRouter(repo Repository, purchases PurchaseChecker, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(middleware.WithActingUser(req.Context(), &middleware.ActingUser{
					ID:   userID,
					Role: middleware.RoleUser,
				}))
			}
			next.ServeHTTP(w, req)
		})
	})
	NewHandler(repo, purchases, nil).RegisterRoutes(r)
	return r
}

func submit(router http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products/"+productID+"/reviews", strings.NewReader(body))
	router.ServeHTTP(rec, req)
	return rec
}

const goodReview = `{"rating":5,"comment":"Holds heat for hours."}`

func TestSubmitRequiresPurchase(t *testing.T) {
	repo := &fakeRepo{saved: map[string]*Review{}}
	router := newRouter(repo, fakePurchases{}, "u1")

	rec := submit(router, goodReview)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), msgNotPurchased)
	assert.Empty(t, repo.saved)
}

func TestSubmitUpsertsOneReviewPerProduct(t *testing.T) {
	repo := &fakeRepo{saved: map[string]*Review{}}
	router := newRouter(repo, fakePurchases{"u1/" + productID: true}, "u1")

	first := submit(router, goodReview)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := submit(router, `{"rating":3,"comment":"Handle got loose after a month."}`)
	require.Equal(t, http.StatusOK, second.Code)

	var resp struct {
		Data struct {
			Message string `json:"message"`
			Review  Review `json:"review"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, msgUpdated, resp.Data.Message)
	assert.Equal(t, 3, resp.Data.Review.Rating)
	assert.Len(t, repo.saved, 1)
}

func TestSubmitValidation(t *testing.T) {
	repo := &fakeRepo{saved: map[string]*Review{}}
	router := newRouter(repo, fakePurchases{"u1/" + productID: true}, "u1")

	for _, body := range []string{
		`{"rating":0,"comment":"Holds heat for hours."}`,
		`{"rating":6,"comment":"Holds heat for hours."}`,
		`{"rating":4,"comment":"short"}`,
	} {
		rec := submit(router, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
	assert.Empty(t, repo.saved)
}

func TestSubmitRequiresSignedInUser(t *testing.T) {
	repo := &fakeRepo{saved: map[string]*Review{}}
	router := newRouter(repo, fakePurchases{}, "")

	rec := submit(router, goodReview)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
