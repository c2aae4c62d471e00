package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/userdesk/admin-console/internal/api/metrics"
	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

// AccountService implements the privileged directory operations behind the
// admin endpoints.
type AccountService struct {
	repo   ports.AccountRepository
	events ports.SessionPublisher
	now    func() time.Time
	logger zerolog.Logger
}

func NewAccountService(repo ports.AccountRepository, events ports.SessionPublisher, logger zerolog.Logger) *AccountService {
	return &AccountService{
		repo:   repo,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// authorize re-derives the privilege check from the caller record; client
// flags are never consulted.
func authorize(caller *domain.Actor) error {
	if caller == nil {
		return domain.ErrAuthenticationMissing
	}
	if !caller.IsAdmin() || caller.IsBanned() {
		return domain.ErrAuthorizationDenied
	}
	return nil
}

// ListAccounts returns the full directory.
func (s *AccountService) ListAccounts(ctx context.Context, caller *domain.Actor) ([]domain.AccountRecord, error) {
	if err := authorize(caller); err != nil {
		metrics.AccountListingsTotal.WithLabelValues("denied").Inc()
		return nil, err
	}

	accounts, err := s.repo.List(ctx)
	if err != nil {
		metrics.AccountListingsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Msg("failed to list accounts")
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	records := make([]domain.AccountRecord, 0, len(accounts))
	for _, a := range accounts {
		records = append(records, a.Record())
	}
	metrics.AccountListingsTotal.WithLabelValues("ok").Inc()
	return records, nil
}

// UpdateAccount applies a role change and/or a ban change to one account.
// A ban without an explicit end lasts DefaultBanDuration from the time of this
// call, so repeating the same ban moves the end forward.
func (s *AccountService) UpdateAccount(ctx context.Context, caller *domain.Actor, in ports.UpdateAccountInput) (domain.AccountRecord, error) {
	op := mutationOp(in)

	if err := authorize(caller); err != nil {
		metrics.AccountMutationsTotal.WithLabelValues(op, "denied").Inc()
		return domain.AccountRecord{}, err
	}
	if in.AccountID == "" {
		metrics.AccountMutationsTotal.WithLabelValues(op, "invalid").Inc()
		return domain.AccountRecord{}, fmt.Errorf("%w: accountId is required", domain.ErrValidation)
	}

	var update domain.AccountUpdate
	if in.Role != nil {
		role := *in.Role
		update.Role = &role
	}
	if in.Banned != nil {
		change := &domain.BanChange{Banned: *in.Banned}
		if change.Banned {
			until := s.now().Add(domain.DefaultBanDuration)
			if in.BannedUntil != nil {
				until = in.BannedUntil.UTC()
			}
			change.Until = &until
		}
		update.Ban = change
	}

	updated, err := s.repo.Update(ctx, in.AccountID, update)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			metrics.AccountMutationsTotal.WithLabelValues(op, "not_found").Inc()
			return domain.AccountRecord{}, err
		}
		metrics.AccountMutationsTotal.WithLabelValues(op, "error").Inc()
		s.logger.Error().Err(err).Str("account_id", in.AccountID).Str("op", op).Msg("failed to update account")
		return domain.AccountRecord{}, fmt.Errorf("update account: %w", err)
	}

	metrics.AccountMutationsTotal.WithLabelValues(op, "ok").Inc()
	s.logger.Info().
		Str("account_id", updated.ID).
		Str("caller_id", caller.ID).
		Str("op", op).
		Msg("account updated")

	s.announce(ctx, updated)
	return updated.Record(), nil
}

// announce pushes the new actor value to any live session of the account.
func (s *AccountService) announce(ctx context.Context, account *domain.Account) {
	if s.events == nil {
		return
	}
	event := domain.SessionEvent{
		Kind:       domain.EventUserUpdated,
		UserID:     account.ID,
		Actor:      account.Actor(),
		OccurredAt: s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("failed to publish account update")
	}
}

func mutationOp(in ports.UpdateAccountInput) string {
	switch {
	case in.Banned != nil && *in.Banned:
		return "ban"
	case in.Banned != nil:
		return "unban"
	case in.Role != nil:
		return "set_role"
	default:
		return "noop"
	}
}
