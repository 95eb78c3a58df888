package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/store"
)

// PrincipalHeader carries the username authenticated by the gateway in
// front of the service.
const PrincipalHeader = "X-Principal"

type actorKey struct{}

// identify resolves the principal header to an Actor and stores it in the
// request context. Requests without a known principal get 401.
func identify(customers *store.CustomerDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := strings.TrimSpace(r.Header.Get(PrincipalHeader))
			if username == "" {
				WriteError(w, http.StatusUnauthorized, "unauthorized", PrincipalHeader+" header is required")
				return
			}
			c, err := customers.GetByUsername(username)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "unknown principal")
				return
			}
			ctx := context.WithValue(r.Context(), actorKey{}, domain.ActorFor(c))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAdmin rejects non-admin actors with 403.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !actorFrom(r).Admin {
			WriteError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// actorFrom returns the Actor set by identify. It is the zero Actor when
// the request did not pass through identify.
func actorFrom(r *http.Request) domain.Actor {
	a, _ := r.Context().Value(actorKey{}).(domain.Actor)
	return a
}
