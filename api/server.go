package api

import (
	"net"
	"net/http"
	"time"

	"github.com/angelmondragon/cafe-storefront/pkg/config"
)

// NewServer wraps the router with the storefront's listener timeouts. The
// write timeout covers the confirm call made while handling the callback.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Backend.ConfirmTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
