package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// MemoryAccountRepository keeps accounts in process memory. It applies the
// same uniqueness and version checks as the PostgreSQL repository and hands
// out copies, so callers never share a record.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[ulid.ULID]*domain.Account
	logger   *zap.Logger
}

func NewMemoryAccountRepository(logger *zap.Logger) *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[ulid.ULID]*domain.Account),
		logger:   logger,
	}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; ok {
		return domain.ErrAccountConflict
	}
	if r.collides(account.ID, account.Email, account.Username, account.Phone) {
		return domain.ErrAccountConflict
	}

	account.Version = 1
	r.accounts[account.ID] = account.Clone()
	r.logger.Debug("account created", zap.String("account_id", account.ID.String()))
	return nil
}

func (r *MemoryAccountRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Account, error) {
	return r.find(ctx, func(a *domain.Account) bool { return a.ID == id })
}

func (r *MemoryAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.find(ctx, func(a *domain.Account) bool { return a.Email == email })
}

func (r *MemoryAccountRepository) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	if phone == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.find(ctx, func(a *domain.Account) bool { return a.Phone == phone })
}

func (r *MemoryAccountRepository) FindByEmailOrUsernameOrPhone(ctx context.Context, emailOrUsername, phone string) (*domain.Account, error) {
	if account, err := r.find(ctx, func(a *domain.Account) bool { return a.Email == emailOrUsername }); err != domain.ErrAccountNotFound {
		return account, err
	}
	if account, err := r.find(ctx, func(a *domain.Account) bool { return a.Username == emailOrUsername }); err != domain.ErrAccountNotFound {
		return account, err
	}
	return r.FindByPhone(ctx, phone)
}

func (r *MemoryAccountRepository) ExistsByAnyOf(ctx context.Context, email, username, phone string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collides(ulid.ULID{}, email, username, phone), nil
}

func (r *MemoryAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.ID]
	if !ok || stored.Version != account.Version {
		return domain.ErrConcurrentUpdate
	}
	if r.collides(account.ID, account.Email, account.Username, account.Phone) {
		return domain.ErrAccountConflict
	}

	account.Version++
	account.UpdatedAt = time.Now().UTC()
	r.accounts[account.ID] = account.Clone()
	return nil
}

func (r *MemoryAccountRepository) find(ctx context.Context, match func(*domain.Account) bool) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if match(account) {
			return account.Clone(), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

// collides reports whether an account other than self uses one of the identities.
func (r *MemoryAccountRepository) collides(self ulid.ULID, email, username, phone string) bool {
	for id, a := range r.accounts {
		if id == self {
			continue
		}
		if (email != "" && a.Email == email) ||
			(username != "" && a.Username == username) ||
			(phone != "" && a.Phone == phone) {
			return true
		}
	}
	return false
}
