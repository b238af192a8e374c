package application

import (
	"context"
	"errors"

	"github.com/ipede/account-trust-service/internal/domain"
)

const maxUpdateAttempts = 3

// mutation changes an account in place. persist tells updateAccount whether
// the change must be saved; err is returned to the caller after the save.
type mutation func(account *domain.Account) (persist bool, err error)

// updateAccount applies mutate to a copy of account and saves it. When the
// stored record changed since it was read, the account is re-read and the
// mutation applied again to the fresh state.
func updateAccount(ctx context.Context, repo domain.AccountRepository, account *domain.Account, mutate mutation) (*domain.Account, error) {
	current := account
	for attempt := 1; ; attempt++ {
		working := current.Clone()
		persist, outcome := mutate(working)
		if !persist {
			return working, outcome
		}

		err := repo.Save(ctx, working)
		if err == nil {
			return working, outcome
		}
		if !errors.Is(err, domain.ErrConcurrentUpdate) || attempt >= maxUpdateAttempts {
			return nil, err
		}

		current, err = repo.FindByID(ctx, account.ID)
		if err != nil {
			return nil, err
		}
	}
}
