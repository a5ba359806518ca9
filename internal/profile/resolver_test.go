// AngelaMos | 2026
// resolver_test.go

package profile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type fakeRepo struct {
	mu        sync.Mutex
	profiles  map[string]*Profile
	inserts   int
	getErr    error
	insertErr error
	// hideOnce makes the first GetByID miss, as if another request inserted
	// between our read and our write.
	hideOnce bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: map[string]*Profile{}}
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.hideOnce {
		f.hideOnce = false
		return nil, core.ErrNotFound
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) Insert(_ context.Context, p *Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.profiles[p.ID]; ok {
		return core.ErrDuplicateKey
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateRole(_ context.Context, id, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return core.ErrNotFound
	}
	p.Role = role
	return nil
}

func (f *fakeRepo) Update(_ context.Context, id string, fullName, avatarURL *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return core.ErrNotFound
	}
	if fullName != nil {
		p.FullName = fullName
	}
	if avatarURL != nil {
		p.AvatarURL = avatarURL
	}
	return nil
}

func (f *fakeRepo) GetMember(ctx context.Context, id string) (*Member, error) {
	p, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Member{Profile: *p, Email: id + "@example.com"}, nil
}

func (f *fakeRepo) ListMembers(_ context.Context, _, _ int) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Member, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, Member{Profile: *p, Email: p.ID + "@example.com"})
	}
	return out, nil
}

func (f *fakeRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.profiles), nil
}

var alice = middleware.Identity{
	ID:       "11111111-1111-1111-1111-111111111111",
	Email:    "alice@example.com",
	FullName: "Alice",
}

func TestResolveExistingProfile(t *testing.T) {
	repo := newFakeRepo()
	repo.profiles[alice.ID] = &Profile{ID: alice.ID, Role: middleware.RoleAdmin}

	res, err := NewResolver(repo, nil).Resolve(context.Background(), alice, "guard")
	require.NoError(t, err)

	assert.Equal(t, middleware.RoleAdmin, res.Role)
	assert.True(t, res.ProfileExisted)
	assert.Zero(t, repo.inserts)
}

func TestResolveCreatesDefaultProfileOnce(t *testing.T) {
	repo := newFakeRepo()
	r := NewResolver(repo, nil)
	ctx := context.Background()

	first, err := r.Resolve(ctx, alice, "login")
	require.NoError(t, err)
	assert.Equal(t, middleware.RoleUser, first.Role)
	assert.False(t, first.ProfileExisted)

	second, err := r.Resolve(ctx, alice, "guard")
	require.NoError(t, err)
	assert.Equal(t, middleware.RoleUser, second.Role)
	assert.True(t, second.ProfileExisted)

	assert.Equal(t, 1, repo.inserts)
	require.Contains(t, repo.profiles, alice.ID)
	assert.Equal(t, "Alice", deref(repo.profiles[alice.ID].FullName))
	assert.Nil(t, repo.profiles[alice.ID].AvatarURL)
}

func TestResolveConcurrentFirstSight(t *testing.T) {
	repo := newFakeRepo()
	r := NewResolver(repo, nil)

	const n = 16
	roles := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			roles[i], errs[i] = r.For("guard").ResolveRole(context.Background(), alice)
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, middleware.RoleUser, roles[i])
	}
	assert.Len(t, repo.profiles, 1)
}

func TestResolveLosesInsertRace(t *testing.T) {
	repo := newFakeRepo()
	repo.profiles[alice.ID] = &Profile{ID: alice.ID, Role: middleware.RoleAdmin}
	repo.hideOnce = true

	res, err := NewResolver(repo, nil).Resolve(context.Background(), alice, "callback")
	require.NoError(t, err)

	assert.Equal(t, middleware.RoleAdmin, res.Role, "winner's role is returned")
	assert.Equal(t, 1, repo.inserts)
}

func TestResolveLookupFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.getErr = errors.New("connection reset")

	_, err := NewResolver(repo, nil).Resolve(context.Background(), alice, "guard")

	assert.ErrorIs(t, err, ErrProfileIntegrity)
	assert.Zero(t, repo.inserts, "no write after a failed read")
}

func TestResolveInsertFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErr = errors.New("permission denied")

	role, err := NewResolver(repo, nil).For("login").ResolveRole(context.Background(), alice)

	assert.ErrorIs(t, err, ErrProfileIntegrity)
	assert.Empty(t, role)
	assert.Equal(t, 1, repo.inserts)
}
