// AngelaMos | 2026
// handler.go

package wishlist

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type Handler struct {
	repo      Repository
	validator *validator.Validate
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo, validator: core.NewValidator()}
}

// RegisterRoutes expects r to be the signed-in /user subrouter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/wishlist", h.List)
	r.Post("/wishlist/{productID}", h.Toggle)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, products)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if err := h.validator.Var(productID, "uuid"); err != nil {
		core.NotFound(w, "product")
		return
	}

	added, err := h.repo.Toggle(r.Context(), middleware.GetUserID(r.Context()), productID)
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "product")
		return
	}
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	msg := "Removed from wishlist."
	if added {
		msg = "Added to wishlist!"
	}
	core.OK(w, map[string]any{
		"product_id": productID,
		"wishlisted": added,
		"message":    msg,
	})
}
