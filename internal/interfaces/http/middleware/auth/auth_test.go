package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ipede/account-trust-service/internal/domain"
	httperrors "github.com/ipede/account-trust-service/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) IssuePair(accountID ulid.ULID, role domain.Role) (*domain.TokenPair, error) {
	args := m.Called(accountID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

func (m *MockIssuer) Verify(token string, kind domain.TokenKind) domain.VerifyResult {
	return m.Called(token, kind).Get(0).(domain.VerifyResult)
}

func TestAuthMiddleware_Authenticator(t *testing.T) {
	accountID := ulid.Make()

	tests := []struct {
		name           string
		header         string
		mockSetup      func(*MockIssuer)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "missing token",
			mockSetup:      func(m *MockIssuer) {},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   domain.ErrUnauthorized.Code,
		},
		{
			name:           "not a bearer header",
			header:         "Basic abc",
			mockSetup:      func(m *MockIssuer) {},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   domain.ErrUnauthorized.Code,
		},
		{
			name:   "invalid token",
			header: "Bearer invalid-token",
			mockSetup: func(m *MockIssuer) {
				m.On("Verify", "invalid-token", domain.TokenKindAccess).Return(domain.VerifyResult{Err: domain.ErrInvalidToken})
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   domain.ErrInvalidToken.Code,
		},
		{
			name:   "malformed subject",
			header: "Bearer odd-token",
			mockSetup: func(m *MockIssuer) {
				m.On("Verify", "odd-token", domain.TokenKindAccess).Return(domain.VerifyResult{
					OK:     true,
					Claims: &domain.Claims{AccountID: "not-a-ulid", Role: domain.RoleUser},
				})
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   domain.ErrInvalidToken.Code,
		},
		{
			name:   "valid token",
			header: "Bearer valid-token",
			mockSetup: func(m *MockIssuer) {
				m.On("Verify", "valid-token", domain.TokenKindAccess).Return(domain.VerifyResult{
					OK:     true,
					Claims: &domain.Claims{AccountID: accountID.String(), Role: domain.RoleAdmin},
				})
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := new(MockIssuer)
			tt.mockSetup(issuer)
			middleware := NewAuthMiddleware(issuer, zap.NewNop())

			var seen *domain.AuthenticatedPrincipal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = domain.GetPrincipal(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			middleware.Authenticator(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, accountID, seen.AccountID)
				assert.Equal(t, domain.RoleAdmin, seen.Role)
			} else {
				var response httperrors.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, tt.expectedCode, response.Code)
			}
			issuer.AssertExpectations(t)
		})
	}
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	middleware := NewAuthMiddleware(new(MockIssuer), zap.NewNop())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequireRole(domain.RoleAdmin)(next)

	tests := []struct {
		name           string
		principal      *domain.AuthenticatedPrincipal
		expectedStatus int
	}{
		{"no principal", nil, http.StatusUnauthorized},
		{"wrong role", &domain.AuthenticatedPrincipal{AccountID: ulid.Make(), Role: domain.RoleUser}, http.StatusForbidden},
		{"matching role", &domain.AuthenticatedPrincipal{AccountID: ulid.Make(), Role: domain.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.principal != nil {
				req = req.WithContext(domain.WithPrincipal(req.Context(), tt.principal))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
