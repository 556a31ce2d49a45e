package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/angelmondragon/cafe-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
	"github.com/angelmondragon/cafe-storefront/pkg/types"
)

// Links are the storefront destinations behind each forward action.
type Links struct {
	RetryCheckout string
	ViewOrders    string
	GoToMenu      string
	SignIn        string
}

// LinksFromConfig resolves action destinations against the public storefront URL.
func LinksFromConfig(cfg config.StorefrontConfig) Links {
	return Links{
		RetryCheckout: cfg.URL(cfg.CheckoutPath),
		ViewOrders:    cfg.URL(cfg.OrdersPath),
		GoToMenu:      cfg.URL(cfg.MenuPath),
		SignIn:        cfg.URL(cfg.LoginPath),
	}
}

var defaultLinks = Links{
	RetryCheckout: "/checkout",
	ViewOrders:    "/orders",
	GoToMenu:      "/menu",
	SignIn:        "/login",
}

type linksKey struct{}

// WithLinks attaches the action destinations used by WriteError.
func WithLinks(ctx context.Context, links Links) context.Context {
	return context.WithValue(ctx, linksKey{}, links)
}

func linksFrom(ctx context.Context) Links {
	if ctx != nil {
		if links, ok := ctx.Value(linksKey{}).(Links); ok {
			return links
		}
	}
	return defaultLinks
}

var actionLabels = map[pkgerrors.Action]string{
	pkgerrors.ActionRetryCheckout: "Retry checkout",
	pkgerrors.ActionViewOrders:    "View orders",
	pkgerrors.ActionGoToMenu:      "Go to menu",
	pkgerrors.ActionSignIn:        "Sign in",
}

// ActionFor returns the forward action offered with code, or nil.
func ActionFor(ctx context.Context, code pkgerrors.Code) *types.Action {
	return Navigate(ctx, pkgerrors.MetadataFor(code).Action)
}

// Navigate resolves action against the storefront links in ctx.
func Navigate(ctx context.Context, action pkgerrors.Action) *types.Action {
	if action == pkgerrors.ActionNone {
		return nil
	}
	links := linksFrom(ctx)
	href := ""
	switch action {
	case pkgerrors.ActionRetryCheckout:
		href = links.RetryCheckout
	case pkgerrors.ActionViewOrders:
		href = links.ViewOrders
	case pkgerrors.ActionGoToMenu:
		href = links.GoToMenu
	case pkgerrors.ActionSignIn:
		href = links.SignIn
	}
	return &types.Action{Kind: string(action), Label: actionLabels[action], Href: href}
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// Redirect sends a 303 so the browser follows with a GET.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeIntentCreation,
		pkgerrors.CodePaymentConfirmation,
		pkgerrors.CodeInvalidAccess,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeStateConflict:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:      string(typed.Code()),
			Message:   msg,
			Retryable: meta.Retryable,
			Action:    ActionFor(ctx, typed.Code()),
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)

		fields := map[string]any{
			"error":       dump.TopMessage,
			"error_code":  dump.Code,
			"error_chain": dump.Chain,
		}
		if dump.UpstreamStatus != 0 {
			fields["upstream_status"] = dump.UpstreamStatus
			fields["upstream_reason"] = dump.UpstreamReason
		}
		if dump.PGCode != "" {
			fields["pg_code"] = dump.PGCode
			fields["pg_message"] = dump.PGMessage
			fields["pg_table"] = dump.PGTable
			fields["pg_constraint"] = dump.PGConstraint
		}

		ctx = logg.WithFields(ctx, fields)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.error")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
