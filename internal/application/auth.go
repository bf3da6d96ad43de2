package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pagemarket/marketplace/internal/domain"
	"github.com/pagemarket/marketplace/internal/ports"
	"github.com/pagemarket/marketplace/internal/schema"
)

// AuthService is the gateway's account layer. Registering an account also
// announces it on user-created so the directory services can build their
// entries; like every publish in this system that announcement is
// best-effort.
type AuthService struct {
	logger    *slog.Logger
	users     ports.AuthUserRepository
	hasher    ports.PasswordHasher
	tokens    ports.TokenManager
	revoked   ports.RevocationStore
	publisher ports.EventPublisher
}

func NewAuthService(
	logger *slog.Logger,
	users ports.AuthUserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenManager,
	revoked ports.RevocationStore,
	publisher ports.EventPublisher,
) *AuthService {
	return &AuthService{
		logger:    logger,
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		revoked:   revoked,
		publisher: publisher,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password, name, email string) (string, error) {
	if err := domain.ValidateCredentials(username, password); err != nil {
		return "", err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}
	err = s.users.Create(ctx, domain.AuthUser{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Email:        email,
		Roles:        []string{"USER"},
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return "", fmt.Errorf("%w: username already taken", domain.ErrInvalidInput)
		}
		return "", err
	}

	payload, err := json.Marshal(schema.SellerDto{
		Username: schema.Ptr(username),
		Name:     schema.Ptr(name),
		Email:    schema.Ptr(email),
	})
	if err == nil {
		err = s.publisher.Publish(ctx, schema.TopicUserCreated, payload)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			"module", "application.auth",
			"operation", "publish",
			"outcome", "dropped",
			"topic", schema.TopicUserCreated,
			"username", username,
			"error", err,
		)
	}

	return s.tokens.Issue(ports.AuthClaims{Username: username, Roles: []string{"USER"}})
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", domain.ErrUnauthorized
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", domain.ErrUnauthorized
	}
	return s.tokens.Issue(ports.AuthClaims{Username: user.Username, Roles: user.Roles})
}

func (s *AuthService) Logout(ctx context.Context, claims ports.AuthClaims) error {
	return s.revoked.Revoke(ctx, claims.TokenID)
}

// ValidateToken parses the bearer token and rejects revoked sessions.
func (s *AuthService) ValidateToken(ctx context.Context, raw string) (ports.AuthClaims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return ports.AuthClaims{}, err
	}
	if revoked {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return claims, nil
}
