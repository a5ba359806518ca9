// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCode        = errors.New("invalid or expired confirmation code")
)

const (
	// rotationGrace tolerates parallel requests refreshing the same token.
	rotationGrace = 10 * time.Second
	mailTimeout   = 30 * time.Second
)

type UserInfo struct {
	ID             string
	Email          string
	FullName       string
	AvatarURL      string
	PasswordHash   string
	TokenVersion   int
	EmailConfirmed bool
}

func (u *UserInfo) identity() middleware.Identity {
	return middleware.Identity{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, fullName string,
	) (*UserInfo, error)
	ConfirmEmail(ctx context.Context, userID string) error
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Mailer delivers the confirmation link.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, link string) error
}

type ServiceConfig struct {
	Repo     Repository
	JWT      *JWTManager
	Users    UserProvider
	Redis    *redis.Client
	Mailer   Mailer
	BaseURL  string
	CodeTTL  time.Duration
	Logger   *slog.Logger
	SendMail func(func())
}

type Service struct {
	repo     Repository
	jwt      *JWTManager
	users    UserProvider
	redis    *redis.Client
	mailer   Mailer
	baseURL  string
	codeTTL  time.Duration
	logger   *slog.Logger
	sendMail func(func())
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	codeTTL := cfg.CodeTTL
	if codeTTL <= 0 {
		codeTTL = 24 * time.Hour
	}
	sendMail := cfg.SendMail
	if sendMail == nil {
		sendMail = func(fn func()) { go fn() }
	}

	return &Service{
		repo:     cfg.Repo,
		jwt:      cfg.JWT,
		users:    cfg.Users,
		redis:    cfg.Redis,
		mailer:   cfg.Mailer,
		baseURL:  cfg.BaseURL,
		codeTTL:  codeTTL,
		logger:   logger,
		sendMail: sendMail,
	}
}

// SignUp creates an unconfirmed identity and mails a one-time confirmation
// link. Signing up again with an address that was never confirmed mails a
// fresh link for the existing identity; its password is left unchanged.
// Delivery failures are logged, not returned.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) error {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, passwordHash, req.FullName)
	switch {
	case errors.Is(err, core.ErrDuplicateKey):
		user, err = s.unconfirmedUser(ctx, req.Email)
		if err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("create user: %w", err)
	}

	next := core.SafeRedirectPath(req.Next, middleware.UserHomePath)
	code, err := s.issueCode(ctx, user.ID, next)
	if err != nil {
		return err
	}

	link := s.confirmationLink(code, next)
	to := user.Email
	userID := user.ID

	s.sendMail(func() {
		mailCtx, cancel := context.WithTimeout(
			context.WithoutCancel(ctx),
			mailTimeout,
		)
		defer cancel()

		if err := s.mailer.SendConfirmation(mailCtx, to, link); err != nil {
			s.logger.Error("send confirmation email",
				"user_id", userID,
				"error", err,
			)
		}
	})

	return nil
}

func (s *Service) unconfirmedUser(ctx context.Context, email string) (*UserInfo, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.EmailConfirmed {
		return nil, ErrEmailExists
	}

	s.logger.Info("resending confirmation email", "user_id", user.ID)
	return user, nil
}

func (s *Service) SignIn(
	ctx context.Context,
	email, password, userAgent, ipAddress string,
) (*middleware.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.users.UpdatePassword(ctx, user.ID, newHash)
	}

	return s.issueSession(ctx, user, userAgent, ipAddress, "", "")
}

// SignOut revokes the refresh token and blacklists the access token until
// it would have expired. Unknown or already invalid tokens are ignored.
func (s *Service) SignOut(
	ctx context.Context,
	accessToken, refreshToken string,
) error {
	var errs []error

	if refreshToken != "" {
		stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
		switch {
		case err == nil:
			if err := s.repo.RevokeByID(ctx, stored.ID); err != nil &&
				!errors.Is(err, core.ErrNotFound) {
				errs = append(errs, fmt.Errorf("revoke refresh token: %w", err))
			}
		case !errors.Is(err, core.ErrNotFound):
			errs = append(errs, fmt.Errorf("find refresh token: %w", err))
		}
	}

	if accessToken != "" {
		claims, err := s.jwt.VerifyAccessToken(ctx, accessToken)
		if err == nil {
			if err := s.revokeAccessToken(ctx, claims.ID, claims.ExpiresAt); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// CurrentUser returns the identity behind a valid access token.
func (s *Service) CurrentUser(
	ctx context.Context,
	accessToken string,
) (*middleware.Identity, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	blacklisted, err := s.isAccessTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, fmt.Errorf("current user: %w", core.ErrTokenRevoked)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("current user: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("current user: %w", core.ErrTokenRevoked)
	}

	identity := user.identity()
	return &identity, nil
}

// ExchangeAuthCode consumes a confirmation code, confirms the email and
// opens a session. It also returns where the user asked to land.
func (s *Service) ExchangeAuthCode(
	ctx context.Context,
	code, userAgent, ipAddress string,
) (*middleware.Session, string, error) {
	if code == "" {
		return nil, "", ErrInvalidCode
	}

	raw, err := s.redis.GetDel(ctx, codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, "", ErrInvalidCode
	}
	if err != nil {
		return nil, "", fmt.Errorf("consume code: %w", err)
	}

	var c confirmation
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, "", fmt.Errorf("decode code: %w", ErrInvalidCode)
	}

	if err := s.users.ConfirmEmail(ctx, c.UserID); err != nil {
		return nil, "", fmt.Errorf("confirm email: %w", err)
	}

	user, err := s.users.GetByID(ctx, c.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	session, err := s.issueSession(ctx, user, userAgent, ipAddress, "", "")
	if err != nil {
		return nil, "", err
	}

	return session, c.Next, nil
}

// Refresh rotates a refresh token. Presenting an already rotated token
// outside the grace window revokes the whole token family.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*middleware.Session, error) {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.UsedWithin(rotationGrace) {
		return nil, fmt.Errorf("refresh: %w", core.ErrConflict)
	}

	if storedToken.IsUsed {
		if err := s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID); err != nil {
			s.logger.Error("revoke token family after reuse",
				"family_id", storedToken.FamilyID,
				"error", err,
			)
		}
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid() {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issueSession(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		storedToken.ID,
	)
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.LogoutAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

// PruneExpired removes refresh tokens that expired more than grace ago.
func (s *Service) PruneExpired(
	ctx context.Context,
	grace time.Duration,
) (int64, error) {
	return s.repo.DeleteExpired(ctx, grace)
}

func (s *Service) revokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) isAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	exists, err := s.redis.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (s *Service) issueCode(
	ctx context.Context,
	userID, next string,
) (string, error) {
	code, err := core.GenerateAuthCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	payload, err := json.Marshal(confirmation{UserID: userID, Next: next})
	if err != nil {
		return "", fmt.Errorf("encode code: %w", err)
	}

	if err := s.redis.Set(ctx, codeKey(code), payload, s.codeTTL).Err(); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}

	return code, nil
}

func (s *Service) confirmationLink(code, next string) string {
	q := url.Values{}
	q.Set("code", code)
	q.Set("next", next)
	return s.baseURL + "/auth/callback?" + q.Encode()
}

func (s *Service) issueSession(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID, rotatedID string,
) (*middleware.Session, error) {
	accessToken, accessExpiresAt, err := s.jwt.CreateAccessToken(
		AccessTokenClaims{
			UserID:       user.ID,
			Email:        user.Email,
			TokenVersion: user.TokenVersion,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	entity := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if rotatedID == "" {
		err = s.repo.Create(ctx, entity)
	} else {
		err = s.repo.Rotate(ctx, rotatedID, entity)
	}
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &middleware.Session{
		Identity:         user.identity(),
		AccessToken:      accessToken,
		RefreshToken:     refreshData.Token,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshData.ExpiresAt,
	}, nil
}

func blacklistKey(jti string) string {
	return core.RedisKey("blacklist", jti)
}

func codeKey(code string) string {
	return core.RedisKey("authcode", core.HashToken(code))
}

var _ middleware.SessionStore = (*Service)(nil)
