package controllers

import (
	"net/http"

	"github.com/angelmondragon/cafe-storefront/api/middleware"
	"github.com/angelmondragon/cafe-storefront/api/responses"
	checkoutsvc "github.com/angelmondragon/cafe-storefront/internal/checkout"
	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/internal/redirect"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
	"github.com/angelmondragon/cafe-storefront/pkg/types"
)

// PaymentsCallback is where the provider sends the browser back. It either
// redirects onwards or renders the failure with its forward action.
func PaymentsCallback(resolver checkoutsvc.CallbackResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if resolver == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "callback resolver unavailable"))
			return
		}

		params := checkoutsvc.ParseCallbackParams(r.URL.Query())
		outcome := resolver.Resolve(ctx, middleware.HandoffScopeFromContext(ctx), middleware.SessionFromContext(ctx), params)
		if outcome.Err != nil {
			responses.WriteError(ctx, logg, w, outcome.Err)
			return
		}
		responses.Redirect(w, r, outcome.Redirect)
	}
}

type completionResponse struct {
	State  checkoutsvc.CompletionState `json:"state"`
	Order  *orders.Order               `json:"order,omitempty"`
	Action *types.Action               `json:"action,omitempty"`
}

// PaymentsSuccess renders the completed order exactly once per confirmation.
func PaymentsSuccess(reconciler checkoutsvc.CompletionReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reconciler == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "completion reconciler unavailable"))
			return
		}

		outcome := reconciler.Reconcile(ctx, middleware.HandoffScopeFromContext(ctx), middleware.SessionFromContext(ctx), r.URL.Query().Get(redirect.OrderIDParam))
		switch {
		case outcome.Redirect != "":
			responses.Redirect(w, r, outcome.Redirect)
		case outcome.Err != nil:
			responses.WriteError(ctx, logg, w, outcome.Err)
		case outcome.State == checkoutsvc.CompletionNotFound:
			responses.WriteSuccess(w, completionResponse{
				State:  outcome.State,
				Action: responses.Navigate(ctx, pkgerrors.ActionViewOrders),
			})
		default:
			responses.WriteSuccess(w, completionResponse{State: outcome.State, Order: outcome.Order})
		}
	}
}
