package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/utafrali/reviewmod/pkg/errors"
	"github.com/utafrali/reviewmod/pkg/httputil"
	"github.com/utafrali/reviewmod/pkg/logger"
)

// ActorHeader carries the id of the already-authenticated caller. It is set
// by the gateway in front of this service.
const ActorHeader = "X-User-ID"

type actorKey struct{}

// Actor parses ActorHeader into an int64 and stores it in the request
// context. Requests without the header pass through untouched; a malformed
// header is rejected with 401.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(ActorHeader))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httputil.WriteError(w, r, apperrors.Unauthorized("invalid "+ActorHeader+" header"), nil)
			return
		}
		next.ServeHTTP(w, withActor(r, id))
	})
}

func withActor(r *http.Request, id int64) *http.Request {
	ctx := context.WithValue(r.Context(), actorKey{}, id)
	ctx = logger.WithActorID(ctx, id)
	return r.WithContext(ctx)
}

// RequireActor rejects requests that carry no caller identity with 401.
// Mount it after Actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorIDFromContext(r.Context()); !ok {
			httputil.WriteError(w, r, apperrors.Unauthorized(ActorHeader+" header is required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorIDFromContext returns the caller id parsed by Actor.
func ActorIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actorKey{}).(int64)
	return id, ok
}
