// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

const (
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgEmailNotConfirmed  = "Please check your email to confirm your account before logging in."
	msgCouldNotAuth       = "Could not authenticate user."
	msgProfileCritical    = "A critical error occurred: Could not retrieve user profile."
	msgCheckEmail         = "Check your email to confirm your account"
	msgCouldNotCreateUser = "Could not create user."
	msgCallbackFailed     = "Authentication failed. Please try again."
	msgCallbackProfile    = "Error creating your user profile."
)

type HandlerConfig struct {
	Service *Service
	Cookies *middleware.SessionCookies
	// LoginRoles resolves the role after a password sign-in.
	LoginRoles middleware.RoleResolver
	// CallbackRoles ensures a profile exists after email confirmation.
	CallbackRoles middleware.RoleResolver
	Logger        *slog.Logger
}

type Handler struct {
	service       *Service
	cookies       *middleware.SessionCookies
	loginRoles    middleware.RoleResolver
	callbackRoles middleware.RoleResolver
	validator     *validator.Validate
	logger        *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:       cfg.Service,
		cookies:       cfg.Cookies,
		loginRoles:    cfg.LoginRoles,
		callbackRoles: cfg.CallbackRoles,
		validator:     core.NewValidator(),
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post(middleware.LoginPath, h.Login)
	r.Post(middleware.SignupPath, h.SignUp)
	r.Post("/logout", h.Logout)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/callback", h.Callback)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/me", h.GetMe)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.Validation(w, err)
		return
	}

	ctx := r.Context()
	session, err := h.service.SignIn(
		ctx,
		req.Email,
		req.Password,
		r.UserAgent(),
		middleware.ClientIP(r),
	)
	if err != nil {
		msg := msgCouldNotAuth
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			msg = msgInvalidCredentials
		case errors.Is(err, ErrEmailNotConfirmed):
			msg = msgEmailNotConfirmed
		default:
			h.logger.Error("sign in", "error", err)
		}
		core.RedirectWithMessage(w, r, middleware.LoginPath, msg)
		return
	}

	role, err := h.loginRoles.ResolveRole(ctx, session.Identity)
	if err != nil {
		h.abandon(w, r, session, err, msgProfileCritical)
		return
	}

	h.cookies.Set(w, session)
	core.SeeOther(w, r, middleware.RoleHome(role))
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.Validation(w, err)
		return
	}

	if err := h.service.SignUp(r.Context(), req); err != nil {
		if !errors.Is(err, ErrEmailExists) {
			h.logger.Error("sign up", "error", err)
		}
		core.RedirectWithMessage(w, r, middleware.SignupPath, msgCouldNotCreateUser)
		return
	}

	core.RedirectWithMessage(w, r, middleware.LoginPath, msgCheckEmail)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	access, refresh := h.cookies.Read(r)

	if err := h.service.SignOut(r.Context(), access, refresh); err != nil {
		h.logger.Warn("sign out", "error", err)
	}

	h.cookies.Clear(w)
	core.SeeOther(w, r, middleware.LoginPath)
}

// Callback completes email confirmation: it exchanges the code for a
// session, makes sure a profile exists and sends the user on.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	next := core.SafeRedirectPath(r.URL.Query().Get("next"), "/")

	if code == "" {
		core.SeeOther(w, r, next)
		return
	}

	ctx := r.Context()
	session, storedNext, err := h.service.ExchangeAuthCode(
		ctx,
		code,
		r.UserAgent(),
		middleware.ClientIP(r),
	)
	if err != nil {
		if !errors.Is(err, ErrInvalidCode) {
			h.logger.Error("exchange auth code", "error", err)
		}
		core.RedirectWithMessage(w, r, middleware.LoginPath, msgCallbackFailed)
		return
	}

	if _, err := h.callbackRoles.ResolveRole(ctx, session.Identity); err != nil {
		h.abandon(w, r, session, err, msgCallbackProfile)
		return
	}

	if r.URL.Query().Get("next") == "" && storedNext != "" {
		next = core.SafeRedirectPath(storedNext, "/")
	}

	h.cookies.Set(w, session)
	core.SeeOther(w, r, next)
}

// abandon signs out a session that must not be used and sends the user
// back to the login form.
func (h *Handler) abandon(
	w http.ResponseWriter,
	r *http.Request,
	session *middleware.Session,
	cause error,
	message string,
) {
	h.logger.Error("profile unavailable after sign in, signing out",
		"user_id", session.Identity.ID,
		"error", cause,
	)

	if err := h.service.SignOut(
		r.Context(),
		session.AccessToken,
		session.RefreshToken,
	); err != nil {
		h.logger.Warn("sign out", "error", err)
	}

	h.cookies.Clear(w)
	core.RedirectWithMessage(w, r, middleware.LoginPath, message)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetActingUser(r.Context())

	core.OK(w, MeResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	})
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.cookies.Clear(w)
	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessions, err := h.service.GetActiveSessions(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID := chi.URLParam(r, "sessionID")
	if err := h.validator.Var(sessionID, "uuid"); err != nil {
		core.NotFound(w, "session")
		return
	}

	if err := h.service.RevokeSession(r.Context(), userID, sessionID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "session")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req ChangePasswordRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.Validation(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.UnauthorizedError("current password is incorrect"),
			)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.cookies.Clear(w)
	core.NoContent(w)
}
