// AngelaMos | 2026
// newsletter.go

package newsletter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/core"
)

const (
	msgSubscribed   = "Thank you for subscribing!"
	msgAlready      = "This email is already subscribed."
	msgInvalidEmail = "Please enter a valid email address."
)

type Repository interface {
	Subscribe(ctx context.Context, email string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Subscribe(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO newsletter_subscribers (id, email) VALUES ($1, $2)`,
		uuid.New().String(), email,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("subscribe: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type Handler struct {
	repo      Repository
	validator *validator.Validate
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo, validator: core.NewValidator()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/newsletter", h.Subscribe)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.validator.Struct(req); err != nil {
		appErr := core.ValidationError(core.ValidationFields(err))
		appErr.Message = msgInvalidEmail
		core.JSONError(w, appErr)
		return
	}

	err := h.repo.Subscribe(r.Context(), req.Email)
	if errors.Is(err, core.ErrDuplicateKey) {
		core.JSONError(w, core.ConflictError(msgAlready))
		return
	}
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, map[string]string{"message": msgSubscribed})
}
