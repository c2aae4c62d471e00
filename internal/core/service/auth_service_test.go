package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rs/zerolog"

	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	accounts  map[string]*domain.Account
	updateErr error
	listErr   error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.BannedUntil != nil {
		t := *a.BannedUntil
		clone.BannedUntil = &t
	}
	if a.LastSignInAt != nil {
		t := *a.LastSignInAt
		clone.LastSignInAt = &t
	}
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return nil, domain.ErrAccountExists
		}
	}
	r.accounts[account.ID] = cloneAccount(account)
	return cloneAccount(account), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) List(_ context.Context) ([]*domain.Account, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, cloneAccount(a))
	}
	return out, nil
}

func (r *stubAccountRepo) Update(_ context.Context, id string, update domain.AccountUpdate) (*domain.Account, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if update.Role != nil {
		a.Role = *update.Role
	}
	if update.Ban != nil {
		if update.Ban.Banned {
			t := *update.Ban.Until
			a.BannedUntil = &t
		} else {
			a.BannedUntil = nil
		}
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) TouchSignIn(_ context.Context, id string, at time.Time) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.LastSignInAt = &at
	return nil
}

type stubDenylist struct {
	revoked map[string]time.Duration
}

func newStubDenylist() *stubDenylist {
	return &stubDenylist{revoked: make(map[string]time.Duration)}
}

func (d *stubDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	d.revoked[tokenID] = ttl
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := d.revoked[tokenID]
	return ok, nil
}

type recordingPublisher struct {
	events []domain.SessionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.SessionEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func newTestAuthService() (*AuthService, *stubAccountRepo, *stubDenylist, *recordingPublisher) {
	repo := newStubAccountRepo()
	deny := newStubDenylist()
	pub := &recordingPublisher{}
	return NewAuthService(repo, deny, pub, "secret", time.Hour, zerolog.Nop()), repo, deny, pub
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	return claims
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	svc, repo, _, _ := newTestAuthService()

	actor, err := svc.Register(context.Background(), " Alice@Example.com ", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if actor == nil || actor.ID == "" {
		t.Fatalf("expected actor with id, got %+v", actor)
	}
	if actor.Email != "alice@example.com" {
		t.Fatalf("expected normalised email, got %q", actor.Email)
	}
	if actor.Role != domain.RoleUser {
		t.Fatalf("expected role user, got %s", actor.Role)
	}

	stored := repo.accounts[actor.ID]
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	if _, err := svc.Register(context.Background(), "", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob@example.com", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	_, _ = svc.Register(context.Background(), "bob@example.com", "pass")
	if _, err := svc.Register(context.Background(), "bob@example.com", "pass2"); err != domain.ErrAccountExists {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, repo, _, pub := newTestAuthService()

	registered, err := svc.Register(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, actor, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if actor == nil || actor.ID != registered.ID {
		t.Fatalf("unexpected actor: %+v", actor)
	}

	claims := parseClaims(t, token)
	if claims["sub"] != registered.ID {
		t.Fatalf("expected sub %s, got %v", registered.ID, claims["sub"])
	}
	if jti, _ := claims["jti"].(string); jti == "" {
		t.Fatalf("expected jti claim")
	}

	if repo.accounts[registered.ID].LastSignInAt == nil {
		t.Fatalf("expected last sign-in to be recorded")
	}
	if len(pub.events) != 1 || pub.events[0].Kind != domain.EventSignedIn {
		t.Fatalf("expected one signed_in event, got %+v", pub.events)
	}
	if pub.events[0].Actor == nil || pub.events[0].Actor.ID != registered.ID {
		t.Fatalf("signed_in event carries wrong actor: %+v", pub.events[0].Actor)
	}
}

func TestAuthService_Login_BannedAccountCanSignIn(t *testing.T) {
	svc, repo, _, _ := newTestAuthService()

	registered, _ := svc.Register(context.Background(), "dan@example.com", "pw")
	until := time.Now().Add(time.Hour)
	repo.accounts[registered.ID].BannedUntil = &until

	_, actor, err := svc.Login(context.Background(), "dan@example.com", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !actor.IsBanned() {
		t.Fatalf("expected banned actor")
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, _, _, pub := newTestAuthService()

	_, _ = svc.Register(context.Background(), "dave@example.com", "goodpass")
	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events on failed login, got %d", len(pub.events))
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Refresh_RevokesOldToken(t *testing.T) {
	svc, _, deny, pub := newTestAuthService()

	registered, _ := svc.Register(context.Background(), "erin@example.com", "pw")
	token, actor, err := svc.Refresh(context.Background(), ports.TokenClaims{UserID: registered.ID, TokenID: "old-jti"})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if token == "" || actor.ID != registered.ID {
		t.Fatalf("unexpected refresh result: %q %+v", token, actor)
	}
	if ttl, ok := deny.revoked["old-jti"]; !ok || ttl != time.Hour {
		t.Fatalf("expected old token revoked for token ttl, got %v %v", ok, ttl)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != domain.EventTokenRefreshed {
		t.Fatalf("expected token_refreshed event, got %+v", pub.events)
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, deny, pub := newTestAuthService()

	if err := svc.Logout(context.Background(), ports.TokenClaims{UserID: "u1", TokenID: "jti-1"}); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok := deny.revoked["jti-1"]; !ok {
		t.Fatalf("expected token revoked")
	}
	if len(pub.events) != 1 || pub.events[0].Kind != domain.EventSignedOut || pub.events[0].Actor != nil {
		t.Fatalf("expected signed_out event without actor, got %+v", pub.events)
	}
}

func TestAuthService_CurrentActor_ReadsStore(t *testing.T) {
	svc, repo, _, _ := newTestAuthService()

	registered, _ := svc.Register(context.Background(), "fay@example.com", "pw")
	repo.accounts[registered.ID].Role = domain.RoleAdmin

	actor, err := svc.CurrentActor(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("current actor failed: %v", err)
	}
	if !actor.IsAdmin() {
		t.Fatalf("expected role from store, got %s", actor.Role)
	}

	if _, err := svc.CurrentActor(context.Background(), "missing"); !errors.Is(err, domain.ErrAuthenticationMissing) {
		t.Fatalf("expected ErrAuthenticationMissing, got %v", err)
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	svc, repo, _, _ := newTestAuthService()

	if err := svc.EnsureAdmin(context.Background(), "root@example.com", "pw"); err != nil {
		t.Fatalf("ensure admin failed: %v", err)
	}
	a, _ := repo.FindByEmail(context.Background(), "root@example.com")
	if a == nil || a.Role != domain.RoleAdmin {
		t.Fatalf("expected admin account, got %+v", a)
	}

	user, _ := svc.Register(context.Background(), "promote@example.com", "pw")
	if err := svc.EnsureAdmin(context.Background(), "promote@example.com", "ignored"); err != nil {
		t.Fatalf("ensure admin on existing failed: %v", err)
	}
	if repo.accounts[user.ID].Role != domain.RoleAdmin {
		t.Fatalf("expected existing account promoted")
	}
}
