package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/contentpulse/pkg/config"
	"github.com/wonny/contentpulse/pkg/logger"
)

// presentedSecret extracts the caller's secret from Authorization: Bearer,
// X-Cron-Secret or X-Admin-Secret, in that order
func presentedSecret(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if s := r.Header.Get("X-Cron-Secret"); s != "" {
		return s
	}
	return r.Header.Get("X-Admin-Secret")
}

func secretMatches(presented, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}

// authMiddleware rejects requests that do not carry a configured secret.
// With no secret configured at all the surface is open (local development only;
// config validation refuses that in production).
func authMiddleware(auth config.AuthConfig, log *logger.Logger) mux.MiddlewareFunc {
	open := auth.CronSecret == "" && auth.AdminSecret == ""
	if open {
		log.Warn("No trigger secret configured, API is unauthenticated")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open {
				next.ServeHTTP(w, r)
				return
			}

			secret := presentedSecret(r)
			if secret == "" || !(secretMatches(secret, auth.CronSecret) || secretMatches(secret, auth.AdminSecret)) {
				log.WithFields(map[string]interface{}{
					"method": r.Method,
					"path":   r.URL.Path,
				}).Warn("Unauthorized request")
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
