// AngelaMos | 2026
// handler.go

package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/cart"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

const (
	CodeEmptyCart           = "EMPTY_CART"
	CodeInvalidAddress      = "INVALID_ADDRESS"
	CodePriceChanged        = "PRICE_CHANGED"
	CodeOrderCreationFailed = "ORDER_CREATION_FAILED"
	CodeOrderItemsFailed    = "ORDER_ITEMS_FAILED"
)

// CartSource is the stored cart checkout falls back to when the request
// carries no items.
type CartSource interface {
	Items(ctx context.Context, userID string) ([]cart.Item, error)
	Clear(ctx context.Context, userID string) error
}

type HandlerConfig struct {
	Repo     Repository
	Checkout *Checkout
	Cache    *ListCache
	Cart     CartSource
	Logger   *slog.Logger
}

type Handler struct {
	repo      Repository
	checkout  *Checkout
	cache     *ListCache
	cart      CartSource
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
		checkout:  cfg.Checkout,
		cache:     cfg.Cache,
		cart:      cfg.Cart,
		validator: core.NewValidator(),
		logger:    logger,
	}
}

// RegisterRoutes expects r to be the signed-in /user subrouter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.PlaceOrder)
	r.Get("/orders", h.ListMine)
	r.Get("/orders/{orderID}", h.GetMine)
}

// RegisterAdminRoutes expects r to be the admin subrouter.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListAll)
		r.Get("/{orderID}", h.GetAny)
		r.Put("/{orderID}/status", h.UpdateStatus)
	})
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActingUser(ctx)

	var in PlaceOrderInput
	if err := core.DecodeJSON(w, r, &in); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	in.IdempotencyKey = r.Header.Get(IdempotencyHeader)

	fromCart := false
	if len(in.Items) == 0 && actor != nil && h.cart != nil {
		stored, err := h.cart.Items(ctx, actor.ID)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		for _, it := range stored {
			in.Items = append(in.Items, LineInput{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
			})
		}
		fromCart = len(stored) > 0
	}

	res, err := h.checkout.PlaceOrder(ctx, actor, in)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}

	if fromCart {
		if err := h.cart.Clear(ctx, actor.ID); err != nil {
			h.logger.Warn("clear cart after checkout", "user_id", actor.ID, "error", err)
		}
	}

	if res.Replayed {
		core.OK(w, res)
		return
	}
	core.Created(w, res)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	scope := userScope(userID)

	orders := []Order{}
	key, hit := h.cache.Load(ctx, scope, "all", &orders)
	if !hit {
		var err error
		orders, err = h.repo.ListForUser(ctx, userID)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		h.cache.Store(ctx, key, orders)
	}

	core.OK(w, orders)
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	o, err := h.repo.GetForUser(ctx, id, middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeDetail(w, r, o)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageKey := strconv.Itoa(page)

	var lp ListPage
	key, hit := h.cache.Load(ctx, adminScope, pageKey, &lp)
	if !hit {
		orders, err := h.repo.ListAll(ctx, OrdersPerPage, (page-1)*OrdersPerPage)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		total, err := h.repo.CountAll(ctx)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		lp = ListPage{Orders: orders, Total: total}
		h.cache.Store(ctx, key, lp)
	}

	core.Paginated(w, lp.Orders, page, OrdersPerPage, lp.Total)
}

func (h *Handler) GetAny(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	o, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeDetail(w, r, o)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.NewAppError(
			core.ErrInvalidInput,
			"Invalid order status provided.",
			http.StatusUnprocessableEntity,
			core.CodeValidation,
		))
		return
	}

	userID, err := h.repo.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.cache.Invalidate(ctx, userID); err != nil {
		h.logger.Warn("order list invalidation failed", "order_id", orderID, "error", err)
	}

	core.OK(w, map[string]string{
		"id":      orderID,
		"status":  string(req.Status),
		"message": fmt.Sprintf("Order status updated to %s.", req.Status),
	})
}

// pathID rejects malformed ids as not found so they never reach postgres.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "orderID")
	if err := h.validator.Var(id, "uuid"); err != nil {
		core.NotFound(w, "order")
		return "", false
	}
	return id, true
}

func (h *Handler) writeDetail(w http.ResponseWriter, r *http.Request, o *Order) {
	ctx := r.Context()

	items, err := h.repo.Items(ctx, o.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	detail := &Detail{Order: o, Items: items}
	if o.ShippingAddressID != nil {
		addr, err := h.repo.ShippingAddress(ctx, *o.ShippingAddressID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			core.InternalServerError(w, err)
			return
		}
		detail.Address = addr
	}

	core.OK(w, detail)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "order")
		return
	}
	core.InternalServerError(w, err)
}

// writeCheckoutError renders each checkout failure with its own code and a
// message safe to show the shopper.
func writeCheckoutError(w http.ResponseWriter, err error) {
	if appErr, ok := core.AsAppError(err); ok {
		core.JSONError(w, appErr)
		return
	}

	var appErr *core.AppError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		appErr = core.NewAppError(err,
			"You must be logged in to place an order.",
			http.StatusUnauthorized, core.CodeUnauthenticated)
	case errors.Is(err, ErrEmptyCart):
		appErr = core.NewAppError(err,
			"Your cart is empty.",
			http.StatusUnprocessableEntity, CodeEmptyCart)
	case errors.Is(err, ErrInvalidAddress):
		appErr = core.NewAppError(err,
			"Please choose a valid shipping address.",
			http.StatusUnprocessableEntity, CodeInvalidAddress)
	case errors.Is(err, ErrPriceChanged):
		appErr = core.NewAppError(err,
			"Some prices in your cart have changed. Please review your order.",
			http.StatusConflict, CodePriceChanged)
	case errors.Is(err, ErrOrderItemsFailed):
		appErr = core.NewAppError(err,
			"Could not save order details. Please try again.",
			http.StatusInternalServerError, CodeOrderItemsFailed)
	case errors.Is(err, ErrOrderCreationFailed):
		appErr = core.NewAppError(err,
			"Could not create order. Please try again.",
			http.StatusInternalServerError, CodeOrderCreationFailed)
	default:
		core.InternalServerError(w, err)
		return
	}

	core.JSONError(w, appErr)
}
