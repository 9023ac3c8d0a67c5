package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/loginauth/internal/metrics"
	"github.com/iudanet/loginauth/internal/server/handlers"
	"github.com/iudanet/loginauth/internal/server/jwt"
)

// TokenValidator проверяет bearer токен
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// AuthMiddleware создает middleware для проверки JWT токена.
// Без валидного токена обработчик не вызывается.
func AuthMiddleware(logger *slog.Logger, validator TokenValidator, bm metrics.BusinessMetrics) func(http.Handler) http.Handler {
	if bm == nil {
		bm = metrics.NoOp{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Извлекаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(ctx, "missing Authorization header")
				unauthorized(w, "missing token")
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				// Сам заголовок не логируем, в нем может быть секрет
				logger.WarnContext(ctx, "invalid Authorization header format")
				unauthorized(w, "invalid token format")
				return
			}

			claims, err := validator.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				reason := string(jwt.ReasonMalformed)
				var rejection *jwt.RejectionError
				if errors.As(err, &rejection) {
					reason = string(rejection.Reason)
				}

				logger.WarnContext(ctx, "invalid access token", slog.String("reason", reason))
				bm.RecordTokenRejection(ctx, reason)
				unauthorized(w, reason)
				return
			}

			logger.DebugContext(ctx, "user authenticated", slog.String("subject", claims.Subject))

			// Передаем запрос дальше с claims в контексте
			next.ServeHTTP(w, r.WithContext(handlers.WithClaims(ctx, claims)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeJSONError(w, http.StatusUnauthorized, message)
}
