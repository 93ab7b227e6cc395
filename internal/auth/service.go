package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/secrets"
)

// Sentinel errors for the auth package.
var (
	ErrUnknownProvider = errors.New("auth: unknown identity provider")
	ErrInvalidState    = errors.New("auth: invalid oauth state")
	ErrEmailRequired   = errors.New("auth: identity provider returned no email")
	ErrExchangeFailed  = errors.New("auth: authorization code exchange failed")
	ErrUserNotFound    = errors.New("auth: user not found")
)

const stateTTL = 10 * time.Minute

// Session is the result of a successful sign-in.
type Session struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// Service provides sign-in and token operations.
type Service struct {
	userRepo    domain.UserRepository
	vault       *secrets.Vault
	providers   map[string]IdentityProvider
	jwtSecret   string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	defaultRole domain.Role
	now         func() time.Time
}

// NewService creates a new auth service. Provider tokens are persisted only
// when vault is non-nil.
func NewService(
	userRepo domain.UserRepository,
	vault *secrets.Vault,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
	defaultRole domain.Role,
	providers ...IdentityProvider,
) *Service {
	byName := make(map[string]IdentityProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	if !defaultRole.Valid() {
		defaultRole = domain.RoleMember
	}

	return &Service{
		userRepo:    userRepo,
		vault:       vault,
		providers:   byName,
		jwtSecret:   jwtSecret,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		defaultRole: defaultRole,
		now:         time.Now,
	}
}

// Providers returns the names of the configured identity providers, sorted.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AuthorizationURL returns the provider's consent URL together with the
// signed state the callback must echo back.
func (s *Service) AuthorizationURL(provider string) (authURL, state string, err error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", "", fmt.Errorf("auth.AuthorizationURL: %q: %w", provider, ErrUnknownProvider)
	}

	state, err = IssueStateToken(s.jwtSecret, provider, stateTTL)
	if err != nil {
		return "", "", fmt.Errorf("auth.AuthorizationURL: %w", err)
	}

	return p.AuthorizationURL(state), state, nil
}

// SignIn completes the OAuth2 callback: it verifies state, exchanges the
// code, upserts the user by email and issues a session. New users get the
// default role; existing users keep theirs.
func (s *Service) SignIn(ctx context.Context, provider, code, state string) (*Session, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("auth.SignIn: %q: %w", provider, ErrUnknownProvider)
	}

	if err := VerifyStateToken(s.jwtSecret, state, provider); err != nil {
		return nil, fmt.Errorf("auth.SignIn: %w", ErrInvalidState)
	}

	identity, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth.SignIn: %w: %w", ErrExchangeFailed, err)
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("auth.SignIn: %w", ErrEmailRequired)
	}

	name := identity.Name
	if name == "" {
		name = identity.Email
	}

	now := s.now()
	user, err := s.userRepo.UpsertByEmail(ctx, &domain.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     identity.Email,
		Role:      s.defaultRole,
		AvatarURL: identity.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("auth.SignIn: %w", err)
	}

	if err := s.saveProviderToken(ctx, user.ID, provider, identity, now); err != nil {
		return nil, fmt.Errorf("auth.SignIn: %w", err)
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, fmt.Errorf("auth.SignIn: %w", err)
	}

	return session, nil
}

func (s *Service) saveProviderToken(ctx context.Context, userID uuid.UUID, provider string, identity *Identity, now time.Time) error {
	if s.vault == nil || identity.Token == nil {
		return nil
	}

	access, err := s.vault.Encrypt(identity.Token.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	var refresh string
	if identity.Token.RefreshToken != "" {
		refresh, err = s.vault.Encrypt(identity.Token.RefreshToken)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
	}

	var expiresAt *time.Time
	if !identity.Token.Expiry.IsZero() {
		exp := identity.Token.Expiry
		expiresAt = &exp
	}

	return s.userRepo.SaveProviderToken(ctx, &domain.ProviderToken{
		UserID:       userID,
		Provider:     provider,
		ProviderID:   identity.ProviderID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		UpdatedAt:    now,
	})
}

func (s *Service) issueSession(user *domain.User) (*Session, error) {
	accessToken, err := IssueAccessToken(s.jwtSecret, user.ID, string(user.Role), s.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := IssueRefreshToken(s.jwtSecret, user.ID, string(user.Role), s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &Session{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RefreshToken validates a refresh token and issues a new access token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	if claims.TokenType != tokenTypeRefresh {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidToken)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: invalid user id: %w", ErrInvalidToken)
	}

	// Verify the user still exists and fetch current role.
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("auth.RefreshToken: %w", ErrUserNotFound)
		}
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	newAccess, err := IssueAccessToken(s.jwtSecret, user.ID, string(user.Role), s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	return newAccess, nil
}

// GetUser returns a user by ID (for middleware use).
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.GetUser: %w", err)
	}

	return user, nil
}
