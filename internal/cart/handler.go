// AngelaMos | 2026
// handler.go

package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type ProductLookup interface {
	ProductsByID(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

type Handler struct {
	store     *Store
	products  ProductLookup
	validator *validator.Validate
}

func NewHandler(store *Store, products ProductLookup) *Handler {
	return &Handler{
		store:     store,
		products:  products,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes expects r to be the signed-in /user subrouter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Put("/items/{productID}", h.SetQuantity)
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.view(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, view)
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "productID")
	if err := h.validator.Var(productID, "uuid"); err != nil {
		core.NotFound(w, "product")
		return
	}

	var req SetQuantityRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.Validation(w, err)
		return
	}

	if *req.Quantity > 0 {
		known, err := h.products.ProductsByID(ctx, []string{productID})
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		if _, ok := known[productID]; !ok {
			core.NotFound(w, "product")
			return
		}
	}

	userID := middleware.GetUserID(ctx)
	if err := h.store.SetQuantity(ctx, userID, productID, *req.Quantity); err != nil {
		core.InternalServerError(w, err)
		return
	}

	view, err := h.view(ctx, userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, view)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

// view prices the stored items at current catalog prices. Lines whose
// product no longer exists are dropped.
func (h *Handler) view(ctx context.Context, userID string) (*View, error) {
	items, err := h.store.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &View{Lines: []Line{}, Total: decimal.Zero}
	if len(items) == 0 {
		return view, nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}

	products, err := h.products.ProductsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		view.Lines = append(view.Lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			ImageURL:  p.ImageURLs.Primary(),
			Price:     p.Price,
			Quantity:  it.Quantity,
			Subtotal:  subtotal,
		})
		view.Total = view.Total.Add(subtotal)
		view.Count += it.Quantity
	}

	view.Total = view.Total.Round(2)
	return view, nil
}
