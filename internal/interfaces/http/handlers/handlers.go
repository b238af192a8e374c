package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ipede/account-trust-service/internal/domain"
	httperrors "github.com/ipede/account-trust-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest reads and validates a JSON body. It writes the error
// response itself and reports whether the handler may continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httperrors.RespondWithError(w, domain.ErrInvalidRequestBody)
		return false
	}

	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			details := make([]httperrors.ErrorDetail, 0, len(validationErrors))
			for _, fe := range validationErrors {
				details = append(details, httperrors.ErrorDetail{
					Field:   fe.Field(),
					Message: validationMessage(fe),
				})
			}
			httperrors.RespondErrorWithDetails(w, domain.ErrInvalidField, details)
			return false
		}
		httperrors.RespondWithError(w, domain.ErrInvalidField)
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", fe.Field())
	}
	return fmt.Sprintf("%s failed on '%s' validation", fe.Field(), fe.Tag())
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondError renders err and logs anything that is not a caller mistake.
func respondError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	if httperrors.StatusOf(err) >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Debug(msg, zap.Error(err))
	}
	httperrors.RespondWithError(w, err)
}

// clientIP returns the caller address. The router's RealIP middleware has
// already replaced RemoteAddr with forwarded headers when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func principalFrom(r *http.Request) (*domain.AuthenticatedPrincipal, bool) {
	return domain.GetPrincipal(r.Context())
}
