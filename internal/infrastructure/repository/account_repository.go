package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/ipede/account-trust-service/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const accountColumns = `id, email, username, phone, role, password_hash,
	is_email_verified, is_phone_verified, is_verified,
	email_otp_hash, email_otp_expires_at, email_otp_window_start, email_otp_request_count,
	phone_otp_hash, phone_otp_expires_at, phone_otp_window_start, phone_otp_request_count,
	reset_password_token_hash, reset_password_expires_at,
	devices, last_login_at, version, created_at, updated_at`

// AccountRepository stores accounts in PostgreSQL, one row per account.
type AccountRepository struct {
	logger *zap.Logger
	db     *database.Postgres
}

func NewAccountRepository(db *database.Postgres, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	devices, err := json.Marshal(account.Devices)
	if err != nil {
		return fmt.Errorf("marshal devices: %w", err)
	}
	account.Version = 1

	err = r.db.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`,
		account.ID.String(), account.Email, account.Username, account.Phone, string(account.Role), account.PasswordHash,
		account.IsEmailVerified, account.IsPhoneVerified, account.IsVerified,
		nullString(account.EmailOtp.CodeHash), account.EmailOtp.ExpiresAt, account.EmailOtp.RequestWindowStart, account.EmailOtp.RequestCount,
		nullString(account.PhoneOtp.CodeHash), account.PhoneOtp.ExpiresAt, account.PhoneOtp.RequestWindowStart, account.PhoneOtp.RequestCount,
		nullString(account.ResetPasswordTokenHash), account.ResetPasswordExpiresAt,
		devices, account.LastLoginAt, account.Version, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrAccountConflict
		}
		r.logger.Error("failed to create account", zap.String("account_id", account.ID.String()), zap.Error(err))
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Account, error) {
	return r.findOne(ctx, "find by id",
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "find by email",
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *AccountRepository) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	if phone == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, "find by phone",
		`SELECT `+accountColumns+` FROM accounts WHERE phone = $1`, phone)
}

func (r *AccountRepository) FindByEmailOrUsernameOrPhone(ctx context.Context, emailOrUsername, phone string) (*domain.Account, error) {
	return r.findOne(ctx, "find by identifier", `
		SELECT `+accountColumns+` FROM accounts
		WHERE email = $1 OR username = $1 OR ($2 <> '' AND phone = $2)
		ORDER BY CASE WHEN email = $1 THEN 0 WHEN username = $1 THEN 1 ELSE 2 END
		LIMIT 1
	`, emailOrUsername, phone)
}

func (r *AccountRepository) ExistsByAnyOf(ctx context.Context, email, username, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1 OR username = $2 OR phone = $3)
	`, email, username, phone).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check account existence", zap.Error(err))
		return false, fmt.Errorf("check account existence: %w", err)
	}
	return exists, nil
}

func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	devices, err := json.Marshal(account.Devices)
	if err != nil {
		return fmt.Errorf("marshal devices: %w", err)
	}
	updatedAt := time.Now().UTC()

	tag, err := r.db.ExecRaw(ctx, `
		UPDATE accounts SET
			email = $3, username = $4, phone = $5, role = $6, password_hash = $7,
			is_email_verified = $8, is_phone_verified = $9, is_verified = $10,
			email_otp_hash = $11, email_otp_expires_at = $12, email_otp_window_start = $13, email_otp_request_count = $14,
			phone_otp_hash = $15, phone_otp_expires_at = $16, phone_otp_window_start = $17, phone_otp_request_count = $18,
			reset_password_token_hash = $19, reset_password_expires_at = $20,
			devices = $21, last_login_at = $22, updated_at = $23,
			version = version + 1
		WHERE id = $1 AND version = $2
	`,
		account.ID.String(), account.Version,
		account.Email, account.Username, account.Phone, string(account.Role), account.PasswordHash,
		account.IsEmailVerified, account.IsPhoneVerified, account.IsVerified,
		nullString(account.EmailOtp.CodeHash), account.EmailOtp.ExpiresAt, account.EmailOtp.RequestWindowStart, account.EmailOtp.RequestCount,
		nullString(account.PhoneOtp.CodeHash), account.PhoneOtp.ExpiresAt, account.PhoneOtp.RequestWindowStart, account.PhoneOtp.RequestCount,
		nullString(account.ResetPasswordTokenHash), account.ResetPasswordExpiresAt,
		devices, account.LastLoginAt, updatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrAccountConflict
		}
		r.logger.Error("failed to save account", zap.String("account_id", account.ID.String()), zap.Error(err))
		return fmt.Errorf("save account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}

	account.Version++
	account.UpdatedAt = updatedAt
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, op, query string, args ...interface{}) (*domain.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		r.logger.Error("failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account                domain.Account
		id, role               string
		emailHash, phoneHash   *string
		resetHash              *string
		devices                []byte
		emailCount, phoneCount int
	)

	err := row.Scan(
		&id, &account.Email, &account.Username, &account.Phone, &role, &account.PasswordHash,
		&account.IsEmailVerified, &account.IsPhoneVerified, &account.IsVerified,
		&emailHash, &account.EmailOtp.ExpiresAt, &account.EmailOtp.RequestWindowStart, &emailCount,
		&phoneHash, &account.PhoneOtp.ExpiresAt, &account.PhoneOtp.RequestWindowStart, &phoneCount,
		&resetHash, &account.ResetPasswordExpiresAt,
		&devices, &account.LastLoginAt, &account.Version, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.ID, err = ulid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse account id: %w", err)
	}
	account.Role = domain.Role(role)
	account.EmailOtp.CodeHash = derefString(emailHash)
	account.EmailOtp.RequestCount = emailCount
	account.PhoneOtp.CodeHash = derefString(phoneHash)
	account.PhoneOtp.RequestCount = phoneCount
	account.ResetPasswordTokenHash = derefString(resetHash)

	account.Devices = []domain.DeviceRecord{}
	if len(devices) > 0 {
		if err := json.Unmarshal(devices, &account.Devices); err != nil {
			return nil, fmt.Errorf("unmarshal devices: %w", err)
		}
	}
	return &account, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
