package middleware

import (
	"net/http"

	"github.com/angelmondragon/cafe-storefront/api/responses"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
)

// ActionLinks points error actions at the public storefront pages.
func ActionLinks(cfg config.StorefrontConfig) func(http.Handler) http.Handler {
	links := responses.LinksFromConfig(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(responses.WithLinks(r.Context(), links)))
		})
	}
}
