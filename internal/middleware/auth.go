package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/anirudhnegi03/tarunet/internal/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth validates the session cookie and stores the user id in the
// request context. Requests without a valid token get a 401 and never reach
// the wrapped handler.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			http.Error(w, "Unauthorized - No token provided", http.StatusUnauthorized)
			return
		}

		userID, err := auth.VerifySessionToken(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized - Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user id placed by RequireAuth.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// WithUserID injects a user id into the context the way RequireAuth does.
// Exposed for handler tests.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}
