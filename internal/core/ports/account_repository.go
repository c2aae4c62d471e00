package ports

import (
	"context"
	"time"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// AccountRepository is the Account Record Store: the authoritative directory.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// List returns every account. Order is not significant.
	List(ctx context.Context) ([]*domain.Account, error)
	// Update applies the mutation atomically and returns the stored result.
	Update(ctx context.Context, id string, update domain.AccountUpdate) (*domain.Account, error)
	TouchSignIn(ctx context.Context, id string, at time.Time) error
}
