// AngelaMos | 2026
// handler.go

package address

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type Handler struct {
	repo      Repository
	validator *validator.Validate
}

func NewHandler(repo Repository) *Handler {
	return &Handler{
		repo:      repo,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes expects r to be the signed-in /user subrouter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/addresses", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{addressID}", h.Update)
		r.Delete("/{addressID}", h.Delete)
		r.Post("/{addressID}/default", h.SetDefault)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.repo.ListForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, addresses)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	a := &Address{
		ID:     uuid.New().String(),
		UserID: middleware.GetUserID(r.Context()),
	}
	req.apply(a)

	if err := h.repo.Create(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, a)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	a := &Address{
		ID:     id,
		UserID: middleware.GetUserID(r.Context()),
	}
	req.apply(a)

	if err := h.repo.Update(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, a)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	err := h.repo.Delete(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	err := h.repo.SetDefault(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

// pathID rejects malformed ids as not found so they never reach postgres.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "addressID")
	if err := h.validator.Var(id, "uuid"); err != nil {
		core.NotFound(w, "address")
		return "", false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (AddressRequest, bool) {
	var req AddressRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.Validation(w, err)
		return req, false
	}

	return req, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "address")
	case errors.Is(err, core.ErrConflict):
		core.JSONError(w, core.ConflictError("Your addresses changed while saving. Please try again."))
	default:
		core.InternalServerError(w, err)
	}
}
