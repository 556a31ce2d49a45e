package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/cafe-storefront/api/responses"
	pkgAuth "github.com/angelmondragon/cafe-storefront/pkg/auth"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
)

// HandoffScope binds the browser to a handoff scope carried in a signed
// cookie. The cookie is SameSite=Lax so it rides along on the provider's
// top-level redirect back to the callback. A missing, expired or tampered
// cookie gets a fresh scope; whatever the old scope held is unreachable.
func HandoffScope(cfg config.HandoffConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	now := time.Now
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil && c.Value != "" {
				claims, err := pkgAuth.ParseScopeToken(cfg, c.Value)
				if err == nil {
					scope = claims.Scope
				} else if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "handoff.scope_cookie_rejected")
				}
			}

			if scope == "" {
				scope = pkgAuth.NewScope()
				token, err := pkgAuth.MintScopeToken(cfg, now(), scope)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue handoff scope"))
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.ScopeTTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx = WithHandoffScope(ctx, scope)
			if logg != nil {
				ctx = logg.WithHandoffScope(ctx, scope)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
