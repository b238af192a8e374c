package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(username, email, phone string) *domain.Account {
	return domain.NewAccount(username, email, phone, "hash", domain.RoleUser, time.Now().UTC().Truncate(time.Microsecond))
}

// testAccountRepository runs the behaviour every AccountRepository must share.
func testAccountRepository(t *testing.T, newRepo func(t *testing.T) domain.AccountRepository) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		repo := newRepo(t)
		account := newTestAccount("alice", "a@x.com", "+919990001111")
		require.NoError(t, repo.Create(ctx, account))
		assert.Equal(t, int64(1), account.Version)

		byID, err := repo.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, account.ID, byID.ID)
		assert.Equal(t, "alice", byID.Username)
		assert.Equal(t, domain.RoleUser, byID.Role)
		assert.False(t, byID.IsVerified)
		assert.Empty(t, byID.Devices)

		byEmail, err := repo.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, account.ID, byEmail.ID)

		byPhone, err := repo.FindByPhone(ctx, "+919990001111")
		require.NoError(t, err)
		assert.Equal(t, account.ID, byPhone.ID)
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.FindByID(ctx, ulid.Make())
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		_, err = repo.FindByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		_, err = repo.FindByPhone(ctx, "")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		_, err = repo.FindByEmailOrUsernameOrPhone(ctx, "nobody", "")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("duplicate identity conflicts", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newTestAccount("alice", "a@x.com", "+911")))

		assert.ErrorIs(t, repo.Create(ctx, newTestAccount("bob", "a@x.com", "+912")), domain.ErrAccountConflict)
		assert.ErrorIs(t, repo.Create(ctx, newTestAccount("alice", "b@x.com", "+913")), domain.ErrAccountConflict)
		assert.ErrorIs(t, repo.Create(ctx, newTestAccount("carol", "c@x.com", "+911")), domain.ErrAccountConflict)
	})

	t.Run("exists by any of", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newTestAccount("alice", "a@x.com", "+911")))

		tests := []struct {
			name                   string
			email, username, phone string
			want                   bool
		}{
			{"email", "a@x.com", "zed", "+999", true},
			{"username", "z@x.com", "alice", "+999", true},
			{"phone", "z@x.com", "zed", "+911", true},
			{"none", "z@x.com", "zed", "+999", false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				exists, err := repo.ExistsByAnyOf(ctx, tt.email, tt.username, tt.phone)
				require.NoError(t, err)
				assert.Equal(t, tt.want, exists)
			})
		}
	})

	t.Run("identifier lookup prefers email then username then phone", func(t *testing.T) {
		repo := newRepo(t)
		byEmail := newTestAccount("first", "shared", "+911")
		byUsername := newTestAccount("shared", "second@x.com", "+912")
		require.NoError(t, repo.Create(ctx, byUsername))
		require.NoError(t, repo.Create(ctx, byEmail))

		found, err := repo.FindByEmailOrUsernameOrPhone(ctx, "shared", "+912")
		require.NoError(t, err)
		assert.Equal(t, byEmail.ID, found.ID)

		found, err = repo.FindByEmailOrUsernameOrPhone(ctx, "second", "+912")
		require.NoError(t, err)
		assert.Equal(t, byUsername.ID, found.ID)

		found, err = repo.FindByEmailOrUsernameOrPhone(ctx, "first", "")
		require.NoError(t, err)
		assert.Equal(t, byEmail.ID, found.ID)
	})

	t.Run("save round trips every field", func(t *testing.T) {
		repo := newRepo(t)
		account := newTestAccount("alice", "a@x.com", "+911")
		require.NoError(t, repo.Create(ctx, account))

		now := time.Now().UTC().Truncate(time.Microsecond)
		account.EmailOtp.Set("digest", now.Add(5*time.Minute))
		account.EmailOtp.RequestWindowStart = &now
		account.EmailOtp.RequestCount = 2
		account.SetChannelVerified(domain.ChannelPhone, true)
		account.Devices = append(account.Devices, domain.DeviceRecord{
			DeviceID: "dev-1", UserAgent: "ua", IP: "10.0.0.1", IsTrusted: true,
			FirstLoginAt: now, LastLoginAt: now,
		})
		account.LastLoginAt = &now
		require.NoError(t, repo.Save(ctx, account))
		assert.Equal(t, int64(2), account.Version)

		stored, err := repo.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.Version)
		assert.Equal(t, "digest", stored.EmailOtp.CodeHash)
		require.NotNil(t, stored.EmailOtp.ExpiresAt)
		assert.True(t, now.Add(5*time.Minute).Equal(*stored.EmailOtp.ExpiresAt))
		assert.Equal(t, 2, stored.EmailOtp.RequestCount)
		assert.False(t, stored.PhoneOtp.Pending())
		assert.True(t, stored.IsPhoneVerified)
		assert.True(t, stored.IsVerified)
		require.Len(t, stored.Devices, 1)
		assert.Equal(t, "dev-1", stored.Devices[0].DeviceID)
		assert.True(t, stored.Devices[0].IsTrusted)
		require.NotNil(t, stored.LastLoginAt)
		assert.True(t, now.Equal(*stored.LastLoginAt))
	})

	t.Run("stale save is rejected", func(t *testing.T) {
		repo := newRepo(t)
		account := newTestAccount("alice", "a@x.com", "+911")
		require.NoError(t, repo.Create(ctx, account))

		first, err := repo.FindByID(ctx, account.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, account.ID)
		require.NoError(t, err)

		first.SetChannelVerified(domain.ChannelEmail, true)
		require.NoError(t, repo.Save(ctx, first))

		second.Devices = append(second.Devices, domain.DeviceRecord{DeviceID: "dev-1"})
		assert.ErrorIs(t, repo.Save(ctx, second), domain.ErrConcurrentUpdate)

		stored, err := repo.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsEmailVerified)
		assert.Empty(t, stored.Devices)
	})
}
