package application

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/ipede/account-trust-service/internal/infrastructure/jwt"
	"github.com/ipede/account-trust-service/internal/infrastructure/otp"
	"github.com/ipede/account-trust-service/internal/infrastructure/password"
	"github.com/ipede/account-trust-service/internal/infrastructure/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var codePattern = regexp.MustCompile(`\b[0-9]{6}\b`)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockNotificationGateway records the codes it is asked to deliver.
type MockNotificationGateway struct {
	mock.Mock
	mu    sync.Mutex
	codes map[string][]string
}

func newMockNotificationGateway() *MockNotificationGateway {
	return &MockNotificationGateway{codes: make(map[string][]string)}
}

func (m *MockNotificationGateway) SendEmail(ctx context.Context, msg domain.EmailMessage) error {
	m.record(msg.To, msg.Text)
	return m.Called(ctx, msg).Error(0)
}

func (m *MockNotificationGateway) SendSms(ctx context.Context, msg domain.SmsMessage) error {
	m.record(msg.To, msg.Text)
	return m.Called(ctx, msg).Error(0)
}

func (m *MockNotificationGateway) record(to, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code := codePattern.FindString(text); code != "" {
		m.codes[to] = append(m.codes[to], code)
	}
}

// lastCode returns the most recent code sent to a recipient.
func (m *MockNotificationGateway) lastCode(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := m.codes[to]
	require.NotEmpty(t, codes, "no code sent to %s", to)
	return codes[len(codes)-1]
}

func (m *MockNotificationGateway) acceptAll() *MockNotificationGateway {
	m.On("SendEmail", mock.Anything, mock.Anything).Return(nil)
	m.On("SendSms", mock.Anything, mock.Anything).Return(nil)
	return m
}

type testEnv struct {
	repo         *repository.MemoryAccountRepository
	notifier     *MockNotificationGateway
	clock        *fakeClock
	issuer       *jwt.Issuer
	hasher       *password.Hasher
	verification *VerificationService
	devices      *DeviceTrustTracker
	auth         *AuthService
}

func newTestEnv(t *testing.T, notifier *MockNotificationGateway) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	clock := newFakeClock()

	repo := repository.NewMemoryAccountRepository(logger)
	issuer, err := jwt.NewIssuer(jwt.Config{AccessSecret: "access", RefreshSecret: "refresh"}, logger)
	require.NoError(t, err)
	hasher := password.NewHasher(bcrypt.MinCost)

	cfg := DefaultOtpConfig()
	cfg.AppName = "Acme"
	verification := NewVerificationService(repo, notifier, otp.NewCodec(logger), cfg, logger)
	verification.now = clock.Now
	devices := NewDeviceTrustTracker(repo, logger)
	devices.now = clock.Now
	auth := NewAuthService(repo, verification, devices, issuer, hasher, domain.DefaultCountryCode, logger)
	auth.now = clock.Now

	return &testEnv{
		repo:         repo,
		notifier:     notifier,
		clock:        clock,
		issuer:       issuer,
		hasher:       hasher,
		verification: verification,
		devices:      devices,
		auth:         auth,
	}
}

// seedAccount stores an unverified account with password "P@ssw0rd1".
func (e *testEnv) seedAccount(t *testing.T, username, email, phone string) *domain.Account {
	t.Helper()
	hash, err := e.hasher.HashPassword("P@ssw0rd1")
	require.NoError(t, err)
	account := domain.NewAccount(username, email, phone, hash, domain.RoleUser, e.clock.Now())
	require.NoError(t, e.repo.Create(context.Background(), account))
	return account
}

func (e *testEnv) reload(t *testing.T, account *domain.Account) *domain.Account {
	t.Helper()
	stored, err := e.repo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	return stored
}

func assertVerifiedFlag(t *testing.T, account *domain.Account) {
	t.Helper()
	require.Equal(t, account.IsEmailVerified || account.IsPhoneVerified, account.IsVerified)
}
