package controllers

import (
	"net/http"

	"github.com/angelmondragon/cafe-storefront/api/middleware"
	"github.com/angelmondragon/cafe-storefront/api/responses"
	"github.com/angelmondragon/cafe-storefront/api/validators"
	checkoutsvc "github.com/angelmondragon/cafe-storefront/internal/checkout"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
)

// Checkout handles the "Pay" button: it runs the saga up to the redirect and
// returns the instruction the browser must follow.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		payload, err := validators.DecodeCheckoutRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Begin(ctx, middleware.HandoffScopeFromContext(ctx), middleware.SessionFromContext(ctx), checkoutsvc.BeginInput{
			Provider:  enums.PaymentProvider(payload.Provider),
			Device:    enums.Device(payload.Device),
			UserAgent: r.UserAgent(),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
