package middleware

import (
	"context"
	"errors"
	"net/http"

	"quizgen/internal/app/service"
	"quizgen/internal/common"
	"quizgen/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const CurrentUserCtxKey contextKey = "currentUser"

// Authenticator resolves the verified bearer token (stashed in the request
// context by jwtauth.Verifier) into a full account record and gates on its
// status. Downstream handlers always see either a complete *model.User in
// the context or an error response, never a partial identity.
func Authenticator(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				switch {
				case errors.Is(err, jwtauth.ErrNoTokenFound):
					common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				case errors.Is(err, jwtauth.ErrExpired):
					common.RespondWithError(w, http.StatusUnauthorized, common.ErrTokenExpired.Error())
				default:
					common.RespondWithError(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
				}
				return
			}
			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
				return
			}

			user, err := authService.ResolveAccount(r.Context(), claims)
			if err != nil {
				common.RespondWithDomainError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), CurrentUserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUserFromContext(r.Context())
		if !ok || user.Role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ModOrAdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUserFromContext(r.Context())
		if !ok || !user.IsPrivileged() {
			common.RespondWithError(w, http.StatusForbidden, "Admin or moderator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUserFromContext returns the resolved account for the request.
func CurrentUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(CurrentUserCtxKey).(*model.User)
	return user, ok
}
