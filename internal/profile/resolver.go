// AngelaMos | 2026
// resolver.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/metrics"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

// ErrProfileIntegrity means the role of an authenticated identity could not
// be established. Callers must end the session.
var ErrProfileIntegrity = errors.New("profile integrity")

type State int

const (
	Found State = iota
	Missing
	Failed
)

// Lookup is the outcome of reading a profile. A missing profile is a normal
// outcome; Failed carries the storage error.
type Lookup struct {
	State   State
	Profile *Profile
	Err     error
}

type Resolution struct {
	Role           string
	ProfileExisted bool
}

// Resolver maps an identity to its role, creating a default profile the
// first time the identity is seen. Results are never cached.
type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

func (r *Resolver) lookup(ctx context.Context, id string) Lookup {
	p, err := r.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return Lookup{State: Found, Profile: p}
	case errors.Is(err, core.ErrNotFound):
		return Lookup{State: Missing}
	default:
		return Lookup{State: Failed, Err: err}
	}
}

// Resolve returns the identity's role. path labels the caller for the
// profiles-created metric.
func (r *Resolver) Resolve(
	ctx context.Context,
	identity middleware.Identity,
	path string,
) (Resolution, error) {
	ctx, span := core.StartSpan(ctx, "profile.resolve",
		attribute.String("user.id", identity.ID),
		attribute.String("resolve.path", path),
	)
	defer span.End()

	res, err := r.resolve(ctx, identity, path)
	if err != nil {
		core.SetSpanError(ctx, err)
		r.logger.Error("profile integrity failure",
			"user_id", identity.ID,
			"path", path,
			"error", err,
		)
	}
	return res, err
}

func (r *Resolver) resolve(
	ctx context.Context,
	identity middleware.Identity,
	path string,
) (Resolution, error) {
	l := r.lookup(ctx, identity.ID)
	switch l.State {
	case Found:
		return Resolution{Role: l.Profile.Role, ProfileExisted: true}, nil
	case Failed:
		return Resolution{}, fmt.Errorf("%w: lookup: %w", ErrProfileIntegrity, l.Err)
	}

	p := &Profile{
		ID:        identity.ID,
		Role:      middleware.RoleUser,
		FullName:  nullable(identity.FullName),
		AvatarURL: nullable(identity.AvatarURL),
	}

	err := r.repo.Insert(ctx, p)
	if err == nil {
		metrics.ProfilesCreated.WithLabelValues(path).Inc()
		return Resolution{Role: p.Role}, nil
	}

	if !errors.Is(err, core.ErrDuplicateKey) {
		return Resolution{}, fmt.Errorf("%w: insert: %w", ErrProfileIntegrity, err)
	}

	// a concurrent request created it first
	again := r.lookup(ctx, identity.ID)
	if again.State != Found {
		cause := again.Err
		if cause == nil {
			cause = core.ErrNotFound
		}
		return Resolution{}, fmt.Errorf("%w: reread: %w", ErrProfileIntegrity, cause)
	}

	return Resolution{Role: again.Profile.Role}, nil
}

// For adapts the resolver to the guard and the sign-in handlers.
func (r *Resolver) For(path string) middleware.RoleResolver {
	return pathResolver{resolver: r, path: path}
}

type pathResolver struct {
	resolver *Resolver
	path     string
}

func (p pathResolver) ResolveRole(
	ctx context.Context,
	identity middleware.Identity,
) (string, error) {
	res, err := p.resolver.Resolve(ctx, identity, p.path)
	if err != nil {
		return "", err
	}
	return res.Role, nil
}
