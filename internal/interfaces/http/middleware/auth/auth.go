package auth

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/ipede/account-trust-service/internal/domain"
	httperrors "github.com/ipede/account-trust-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	issuer domain.CredentialIssuer
	logger *zap.Logger
}

func NewAuthMiddleware(issuer domain.CredentialIssuer, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, logger: logger}
}

// Authenticator resolves the bearer access credential into an
// AuthenticatedPrincipal stored on the request context.
func (m *AuthMiddleware) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := jwtauth.TokenFromHeader(r)
		if token == "" {
			httperrors.RespondWithError(w, domain.ErrUnauthorized)
			return
		}

		result := m.issuer.Verify(token, domain.TokenKindAccess)
		if !result.OK {
			m.logger.Debug("access credential rejected", zap.Error(result.Err))
			httperrors.RespondWithError(w, domain.ErrInvalidToken)
			return
		}

		accountID, err := domain.ParseAccountID(result.Claims.AccountID)
		if err != nil {
			m.logger.Warn("access credential carries a malformed subject", zap.Error(err))
			httperrors.RespondWithError(w, domain.ErrInvalidToken)
			return
		}

		ctx := domain.WithPrincipal(r.Context(), &domain.AuthenticatedPrincipal{
			AccountID: accountID,
			Role:      result.Claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := domain.GetPrincipal(r.Context())
			if !ok {
				httperrors.RespondWithError(w, domain.ErrUnauthorized)
				return
			}
			if !principal.HasRole(role) {
				httperrors.RespondWithError(w, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
