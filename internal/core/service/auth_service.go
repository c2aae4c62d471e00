package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/userdesk/admin-console/internal/api/metrics"
	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

// AuthService implements registration, sign-in and the session lifecycle.
type AuthService struct {
	repo      ports.AccountRepository
	denylist  ports.TokenDenylist
	events    ports.SessionPublisher
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

func NewAuthService(
	repo ports.AccountRepository,
	denylist ports.TokenDenylist,
	events ports.SessionPublisher,
	jwtSecret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		denylist:  denylist,
		events:    events,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Register creates a plain user account. The role is never taken from the
// caller.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.Actor, error) {
	created, err := s.create(ctx, email, password, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("account_id", created.ID).Msg("account registered")
	return created.Actor(), nil
}

// EnsureAdmin seeds the bootstrap administrator. An existing account with the
// same email is promoted instead.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role == domain.RoleAdmin {
			return nil
		}
		role := domain.RoleAdmin
		if _, err := s.repo.Update(ctx, existing.ID, domain.AccountUpdate{Role: &role}); err != nil {
			return fmt.Errorf("promote bootstrap admin: %w", err)
		}
		s.logger.Info().Str("account_id", existing.ID).Msg("bootstrap admin promoted")
		return nil
	case errors.Is(err, domain.ErrAccountNotFound):
		created, err := s.create(ctx, email, password, domain.RoleAdmin)
		if err != nil {
			return fmt.Errorf("create bootstrap admin: %w", err)
		}
		s.logger.Info().Str("account_id", created.ID).Msg("bootstrap admin created")
		return nil
	default:
		return fmt.Errorf("find bootstrap admin: %w", err)
	}
}

func (s *AuthService) create(ctx context.Context, email, password string, role domain.Role) (*domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return s.repo.Create(ctx, &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Login verifies the password and issues an access token. Banned accounts
// may still sign in; privileged endpoints deny them individually.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Actor, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.TouchSignIn(ctx, account.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("failed to record sign-in time")
	}

	token, err := s.generateToken(account.ID, account.Role)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()

	actor := account.Actor()
	s.publish(ctx, domain.EventSignedIn, actor.ID, actor)
	return token, actor, nil
}

// Refresh swaps the presented token for a new one and revokes the old one.
func (s *AuthService) Refresh(ctx context.Context, claims ports.TokenClaims) (string, *domain.Actor, error) {
	actor, err := s.CurrentActor(ctx, claims.UserID)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(actor.ID, actor.Role)
	if err != nil {
		return "", nil, err
	}
	if err := s.revoke(ctx, claims.TokenID); err != nil {
		return "", nil, err
	}

	s.publish(ctx, domain.EventTokenRefreshed, actor.ID, actor)
	return token, actor, nil
}

// Logout revokes the presented token and announces the end of the session.
func (s *AuthService) Logout(ctx context.Context, claims ports.TokenClaims) error {
	if err := s.revoke(ctx, claims.TokenID); err != nil {
		return err
	}
	s.publish(ctx, domain.EventSignedOut, claims.UserID, nil)
	return nil
}

// CurrentActor reads role and ban state from the store, not from the token.
func (s *AuthService) CurrentActor(ctx context.Context, userID string) (*domain.Actor, error) {
	if userID == "" {
		return nil, domain.ErrAuthenticationMissing
	}
	account, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAuthenticationMissing
		}
		return nil, fmt.Errorf("current actor: %w", err)
	}
	return account.Actor(), nil
}

func (s *AuthService) revoke(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, tokenID, s.tokenTTL); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, kind domain.SessionEventKind, userID string, actor *domain.Actor) {
	if s.events == nil {
		return
	}
	event := domain.SessionEvent{Kind: kind, UserID: userID, Actor: actor, OccurredAt: s.now()}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(kind)).Str("account_id", userID).Msg("failed to publish session event")
	}
}

func (s *AuthService) generateToken(userID string, role domain.Role) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
