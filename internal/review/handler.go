// AngelaMos | 2026
// handler.go

package review

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

const (
	msgThanks       = "Thank you for your review!"
	msgUpdated      = "Your review has been updated."
	msgNotPurchased = "You can only review products you have purchased."
)

type PurchaseChecker interface {
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}

type Handler struct {
	repo      Repository
	purchases PurchaseChecker
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(repo Repository, purchases PurchaseChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:      repo,
		purchases: purchases,
		validator: core.NewValidator(),
		logger:    logger,
	}
}

// RegisterRoutes mounts review submission on the public product pages.
// Submitting still needs a signed in user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireUser).Post("/products/{productID}/reviews", h.Submit)
}

// RegisterUserRoutes expects r to be the signed-in /user subrouter.
func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Get("/reviews", h.ListMine)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	productID := chi.URLParam(r, "productID")

	if err := h.validator.Var(productID, "uuid"); err != nil {
		core.NotFound(w, "product")
		return
	}

	var req SubmitRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.Validation(w, err)
		return
	}

	bought, err := h.purchases.HasPurchased(ctx, userID, productID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	if !bought {
		core.Forbidden(w, msgNotPurchased)
		return
	}

	rv := &Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Rating:    req.Rating,
		Comment:   &req.Comment,
	}

	inserted, err := h.repo.Upsert(ctx, rv)
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "product")
		return
	}
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.logger.Info("review saved", "user_id", userID, "product_id", productID, "new", inserted)

	msg := msgThanks
	status := http.StatusCreated
	if !inserted {
		msg = msgUpdated
		status = http.StatusOK
	}
	core.JSON(w, status, core.Response{
		Success: true,
		Data: map[string]any{
			"review":  rv,
			"message": msg,
		},
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.repo.ListForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, reviews)
}
