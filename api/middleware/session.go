package middleware

import (
	"net/http"
	"strings"
)

// Session lifts the shopper's backend session from the Authorization header,
// falling back to the session cookie on top-level navigations. A missing
// session is not rejected here; the saga steps that need one report
// SESSION_MISSING themselves.
func Session(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := bearerToken(r.Header.Get("Authorization"))
			if session == "" && cookieName != "" {
				if c, err := r.Cookie(cookieName); err == nil {
					session = strings.TrimSpace(c.Value)
				}
			}
			if session == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
