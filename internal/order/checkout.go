// AngelaMos | 2026
// checkout.go

package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/storefront/internal/address"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/metrics"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

var (
	ErrUnauthenticated     = errors.New("checkout requires a signed in user")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidAddress      = errors.New("invalid shipping address")
	ErrPriceChanged        = errors.New("price changed since it was quoted")
	ErrOrderCreationFailed = errors.New("order creation failed")
	ErrOrderItemsFailed    = errors.New("order items failed")
)

type AddressLookup interface {
	GetForUser(ctx context.Context, id, userID string) (*address.Address, error)
}

type Pricer interface {
	Prices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error)
}

// PaymentIntents starts a card payment for a placed order and returns the
// client secret the browser confirms it with.
type PaymentIntents interface {
	CreateIntent(
		ctx context.Context,
		orderID, userID string,
		amount decimal.Decimal,
	) (string, error)
}

type CheckoutConfig struct {
	DB        core.TxBeginner
	Repo      Repository
	Addresses AddressLookup
	Prices    Pricer
	Payments  PaymentIntents
	Cache     *ListCache
	Logger    *slog.Logger
}

// Checkout turns a cart, a shipping address and a payment method into a
// persisted order. Header and items are written in one transaction, so an
// order never exists without its lines.
type Checkout struct {
	db        core.TxBeginner
	repo      Repository
	addresses AddressLookup
	prices    Pricer
	payments  PaymentIntents
	cache     *ListCache
	validator *validator.Validate
	logger    *slog.Logger
}

func NewCheckout(cfg CheckoutConfig) *Checkout {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkout{
		db:        cfg.DB,
		repo:      cfg.Repo,
		addresses: cfg.Addresses,
		prices:    cfg.Prices,
		payments:  cfg.Payments,
		cache:     cfg.Cache,
		validator: core.NewValidator(),
		logger:    logger,
	}
}

// PlaceOrder checks, in order: a signed in user, a non-empty cart, well
// formed input, and an address owned by the user. Nothing is written unless
// all of them hold.
func (c *Checkout) PlaceOrder(
	ctx context.Context,
	actor *middleware.ActingUser,
	in PlaceOrderInput,
) (*PlaceOrderResult, error) {
	ctx, span := core.StartSpan(ctx, "checkout.place_order",
		attribute.Int("checkout.lines", len(in.Items)),
		attribute.String("checkout.payment_method", in.PaymentMethod),
	)
	defer span.End()

	res, err := c.placeOrder(ctx, actor, in)
	metrics.CheckoutTotal.WithLabelValues(outcome(res, err)).Inc()
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", res.OrderID))
	return res, nil
}

func (c *Checkout) placeOrder(
	ctx context.Context,
	actor *middleware.ActingUser,
	in PlaceOrderInput,
) (*PlaceOrderResult, error) {
	if actor == nil || actor.ID == "" {
		return nil, ErrUnauthenticated
	}

	if in.IdempotencyKey != "" {
		if res, ok, err := c.replay(ctx, actor.ID, in.IdempotencyKey); err != nil || ok {
			return res, err
		}
	}

	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := c.validator.Struct(in); err != nil {
		return nil, core.ValidationError(core.ValidationFields(err))
	}

	if _, err := c.addresses.GetForUser(ctx, in.AddressID, actor.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidAddress
		}
		return nil, fmt.Errorf("check address: %w", err)
	}

	o := &Order{
		ID:                uuid.New().String(),
		UserID:            actor.ID,
		Status:            StatusPending,
		ShippingAddressID: &in.AddressID,
		PaymentMethod:     in.PaymentMethod,
	}
	if in.IdempotencyKey != "" {
		o.IdempotencyKey = &in.IdempotencyKey
	}

	items, total, err := c.price(ctx, o.ID, in.Items)
	if err != nil {
		return nil, err
	}
	o.TotalAmount = total

	err = core.InTx(ctx, c.db, func(tx *sqlx.Tx) error {
		if err := c.repo.InsertHeader(ctx, tx, o); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
		}
		if err := c.repo.InsertItems(ctx, tx, items); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderItemsFailed, err)
		}
		return nil
	})
	if err != nil {
		if in.IdempotencyKey != "" && errors.Is(err, core.ErrDuplicateKey) {
			if res, ok, rerr := c.replay(ctx, actor.ID, in.IdempotencyKey); rerr == nil && ok {
				return res, nil
			}
		}
		if !errors.Is(err, ErrOrderCreationFailed) && !errors.Is(err, ErrOrderItemsFailed) {
			err = fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
		}
		c.logger.Error("order write failed",
			"user_id", actor.ID,
			"order_id", o.ID,
			"error", err,
		)
		return nil, err
	}

	if err := c.cache.Invalidate(ctx, actor.ID); err != nil {
		c.logger.Warn("order list invalidation failed", "user_id", actor.ID, "error", err)
	}

	res := &PlaceOrderResult{
		OrderID: o.ID,
		Total:   o.TotalAmount,
		Message: PlacedMessage,
	}

	if o.PaymentMethod == PaymentCard && c.payments != nil {
		secret, err := c.payments.CreateIntent(ctx, o.ID, actor.ID, o.TotalAmount)
		if err != nil {
			c.logger.Error("payment intent failed, order left pending",
				"user_id", actor.ID,
				"order_id", o.ID,
				"error", err,
			)
		} else {
			res.ClientSecret = secret
		}
	}

	c.logger.Info("order placed",
		"user_id", actor.ID,
		"order_id", o.ID,
		"total", o.TotalAmount.StringFixed(2),
	)
	return res, nil
}

// price builds the order lines from current catalog prices.
func (c *Checkout) price(
	ctx context.Context,
	orderID string,
	lines []LineInput,
) ([]Item, decimal.Decimal, error) {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	prices, err := c.prices.Prices(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load prices: %w", err)
	}

	items := make([]Item, 0, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		price, ok := prices[l.ProductID]
		if !ok {
			return nil, decimal.Zero, core.ValidationError(map[string]string{
				"items[" + strconv.Itoa(i) + "].product_id": "is no longer available",
			})
		}
		if l.Price != nil && !l.Price.Equal(price) {
			return nil, decimal.Zero, fmt.Errorf("%w: product %s", ErrPriceChanged, l.ProductID)
		}

		items = append(items, Item{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	return items, total.Round(2), nil
}

// replay returns the order already placed under key, if any.
func (c *Checkout) replay(
	ctx context.Context,
	userID, key string,
) (*PlaceOrderResult, bool, error) {
	o, err := c.repo.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, core.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}

	core.AddSpanEvent(ctx, "checkout.replayed", attribute.String("order.id", o.ID))
	return &PlaceOrderResult{
		OrderID:  o.ID,
		Total:    o.TotalAmount,
		Message:  PlacedMessage,
		Replayed: true,
	}, true, nil
}

func outcome(res *PlaceOrderResult, err error) string {
	if err == nil {
		if res.Replayed {
			return "replayed"
		}
		return "placed"
	}

	var appErr *core.AppError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &appErr) && appErr.Code == core.CodeValidation:
		return "validation"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrPriceChanged):
		return "price_changed"
	case errors.Is(err, ErrOrderItemsFailed):
		return "items_failed"
	case errors.Is(err, ErrOrderCreationFailed):
		return "creation_failed"
	default:
		return "error"
	}
}
