package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"ipvgo_bridge/internal/errors"
)

// Authorization rejects requests whose Authorization header is not token.
func Authorization(token string, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != token {
				log.Debugw("rejected request", "path", r.URL.Path, "error", errors.ErrUnauthorized)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
