package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	httperrors "github.com/ipede/account-trust-service/internal/interfaces/http/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const otpThrottlePrefix = "otp:ip:"

// OtpThrottle limits OTP requests per client IP across instances with a
// fixed Redis window. Redis errors let the request through; the per-account
// limit still applies.
type OtpThrottle struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	logger *zap.Logger
}

func NewOtpThrottle(client redis.Cmdable, limit int, window time.Duration, logger *zap.Logger) *OtpThrottle {
	return &OtpThrottle{
		client: client,
		limit:  int64(limit),
		window: window,
		logger: logger,
	}
}

// Allow counts one request for ip and reports whether it is within the limit.
func (t *OtpThrottle) Allow(ctx context.Context, ip string) (bool, error) {
	key := otpThrottlePrefix + ip
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return true, err
		}
	}
	return count <= t.limit, nil
}

func (t *OtpThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		allowed, err := t.Allow(r.Context(), ip)
		if err != nil {
			t.logger.Warn("otp throttle unavailable, allowing request", zap.String("ip", ip), zap.Error(err))
		}
		if !allowed {
			t.logger.Info("otp request throttled", zap.String("ip", ip))
			httperrors.RespondWithError(w, domain.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
