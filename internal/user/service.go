// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, fullName string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
	}
	if name := strings.TrimSpace(fullName); name != "" {
		user.FullName = &name
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) ConfirmEmail(ctx context.Context, userID string) error {
	return s.repo.ConfirmEmail(ctx, userID)
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// UpdateMetadata changes the display fields carried on the identity. Nil
// leaves a field unchanged.
func (s *Service) UpdateMetadata(
	ctx context.Context,
	userID string,
	fullName, avatarURL *string,
) error {
	return s.repo.UpdateMetadata(ctx, userID, fullName, avatarURL)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.DisplayName(),
		AvatarURL:      u.Avatar(),
		PasswordHash:   u.PasswordHash,
		TokenVersion:   u.TokenVersion,
		EmailConfirmed: u.IsConfirmed(),
	}
}

var _ auth.UserProvider = (*Service)(nil)
