// AngelaMos | 2026
// handler.go

package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

const membersPerPage = 20

// MetadataUpdater keeps the identity's display fields in step with the
// profile.
type MetadataUpdater interface {
	UpdateMetadata(ctx context.Context, userID string, fullName, avatarURL *string) error
}

type OrderStatsReader interface {
	StatsForUser(ctx context.Context, userID string) (OrderStats, error)
}

type HandlerConfig struct {
	Repo     Repository
	Identity MetadataUpdater
	Orders   OrderStatsReader
	Logger   *slog.Logger
}

type Handler struct {
	repo      Repository
	identity  MetadataUpdater
	orders    OrderStatsReader
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:      cfg.Repo,
		identity:  cfg.Identity,
		orders:    cfg.Orders,
		validator: core.NewValidator(),
		logger:    logger,
	}
}

// RegisterRoutes expects r to be the signed-in /user subrouter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/home", h.Home)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
}

// RegisterAdminRoutes expects r to be the admin-only subrouter.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}/role", h.UpdateRole)
	})
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetActingUser(ctx)

	p, err := h.repo.GetByID(ctx, user.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	stats, err := h.orders.StatsForUser(ctx, user.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, HomeResponse{
		Profile: ToProfileResponse(p, user.Email),
		Stats:   stats,
	})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetActingUser(ctx)

	p, err := h.repo.GetByID(ctx, user.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p, user.Email))
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetActingUser(ctx)

	var req UpdateSettingsRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.Validation(w, err)
		return
	}

	if err := h.repo.Update(ctx, user.ID, req.FullName, req.AvatarURL); err != nil {
		core.InternalServerError(w, err)
		return
	}

	if err := h.identity.UpdateMetadata(ctx, user.ID, req.FullName, req.AvatarURL); err != nil {
		h.logger.Warn("sync identity metadata", "user_id", user.ID, "error", err)
	}

	p, err := h.repo.GetByID(ctx, user.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p, user.Email))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	members, err := h.repo.ListMembers(ctx, membersPerPage, (page-1)*membersPerPage)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	total, err := h.repo.Count(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]ProfileResponse, 0, len(members))
	for i := range members {
		out = append(out, ToProfileResponse(&members[i].Profile, members[i].Email))
	}

	core.Paginated(w, out, page, membersPerPage, total)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.validator.Var(userID, "uuid"); err != nil {
		core.NotFound(w, "user")
		return
	}

	m, err := h.repo.GetMember(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(&m.Profile, m.Email))
}

// UpdateRole changes a user's role. It takes effect on that user's next
// request since roles are resolved per request.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")
	if err := h.validator.Var(userID, "uuid"); err != nil {
		core.NotFound(w, "user")
		return
	}

	var req UpdateRoleRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.Validation(w, err)
		return
	}

	if err := h.repo.UpdateRole(ctx, userID, req.Role); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.logger.Info("user role changed",
		"user_id", userID,
		"role", req.Role,
		"changed_by", middleware.GetUserID(ctx),
	)

	core.NoContent(w)
}
