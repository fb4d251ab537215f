package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/utafrali/reviewmod/pkg/errors"
	"github.com/utafrali/reviewmod/pkg/httputil"
)

// BearerActor takes caller identity from an HS256 bearer token. The user id is
// read from the "user_id" claim, falling back to "sub". ActorHeader is never
// consulted, so mount it instead of Actor. Requests without an Authorization
// header pass through anonymous; an invalid token is rejected with 401. An
// empty secret disables it.
func BearerActor(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	if secret == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid authorization header format"), logger)
				return
			}

			claims := jwt.MapClaims{}
			_, err := parser.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(*jwt.Token) (any, error) {
				return key, nil
			})
			if err != nil {
				logger.WarnContext(r.Context(), "invalid bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), logger)
				return
			}

			id, err := actorFromClaims(claims)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized(err.Error()), logger)
				return
			}
			next.ServeHTTP(w, withActor(r, id))
		})
	}
}

func actorFromClaims(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims["user_id"]
	if !ok {
		raw, ok = claims["sub"]
	}
	if !ok {
		return 0, fmt.Errorf("token carries no user id")
	}

	var id int64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("token user id %q is not numeric", v)
		}
		id = parsed
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("token user id is not an integer")
		}
		id = int64(v)
	default:
		return 0, fmt.Errorf("token user id has unsupported type %T", raw)
	}
	if id <= 0 {
		return 0, fmt.Errorf("token user id must be positive")
	}
	return id, nil
}
