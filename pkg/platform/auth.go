package platform

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyMiddleware enforces the X-API-Key header when API_KEY is set in
// the environment. With no key configured the check is skipped, which
// keeps local single-analyst runs friction-free.
func APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := GetEnv("API_KEY", "")
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		given := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
