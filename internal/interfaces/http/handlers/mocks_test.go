package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ipede/account-trust-service/internal/application"
	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, in application.RegisterInput) (*application.RegisterResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.RegisterResult), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, in application.LoginInput) (*application.LoginResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.LoginResult), args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

func (m *mockAuthService) Me(ctx context.Context, accountID ulid.ULID) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

type mockOtpService struct {
	mock.Mock
}

func (m *mockOtpService) RequestOtp(ctx context.Context, channel domain.Channel, identifier string) error {
	return m.Called(ctx, channel, identifier).Error(0)
}

func (m *mockOtpService) VerifyOtp(ctx context.Context, channel domain.Channel, identifier, code string) (*domain.Account, error) {
	args := m.Called(ctx, channel, identifier, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

type mockDeviceService struct {
	mock.Mock
}

func (m *mockDeviceService) ListDevices(ctx context.Context, accountID ulid.ULID) ([]domain.DeviceRecord, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DeviceRecord), args.Error(1)
}

func (m *mockDeviceService) SetTrust(ctx context.Context, accountID ulid.ULID, deviceID string, isTrusted bool) (*domain.DeviceRecord, error) {
	args := m.Called(ctx, accountID, deviceID, isTrusted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeviceRecord), args.Error(1)
}

func (m *mockDeviceService) RemoveDevice(ctx context.Context, accountID ulid.ULID, deviceID string) error {
	return m.Called(ctx, accountID, deviceID).Error(0)
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	if s, ok := v.(string); ok {
		return bytes.NewBufferString(s)
	}
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

// withURLParams attaches chi route parameters to a request.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withPrincipal(r *http.Request, id ulid.ULID) *http.Request {
	return r.WithContext(domain.WithPrincipal(r.Context(), &domain.AuthenticatedPrincipal{AccountID: id, Role: domain.RoleUser}))
}
