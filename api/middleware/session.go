package middleware

import (
	"errors"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Session resolves the session cookie into a user id. Requests without a
// live session are rejected with 401 when required is true and passed through
// anonymously otherwise.
func Session(cookieName string, resolver session.Resolver, required bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				if required {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.Resolve(ctx, cookie.Value)
			switch {
			case errors.Is(err, session.ErrInvalidSession):
				if required {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
					return
				}
				next.ServeHTTP(w, r)
				return
			case err != nil:
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
				return
			}

			ctx = WithUserID(ctx, userID)
			ctx = withSessionToken(ctx, cookie.Value)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
