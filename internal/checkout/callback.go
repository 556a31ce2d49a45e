package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/angelmondragon/cafe-storefront/internal/handoff"
	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/internal/payments"
	"github.com/angelmondragon/cafe-storefront/internal/redirect"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
	"github.com/angelmondragon/cafe-storefront/pkg/metrics"
)

const resultCodeSuccess = "Success"

// CallbackParams are the query parameters a provider returns with.
type CallbackParams struct {
	PgToken       string
	PaymentID     string
	PaymentKey    string
	ResultCode    string
	ResultMessage string
	OrderID       orders.OrderID
}

func ParseCallbackParams(q url.Values) CallbackParams {
	get := func(key string) string { return strings.TrimSpace(q.Get(key)) }
	return CallbackParams{
		PgToken:       get("pg_token"),
		PaymentID:     get("paymentId"),
		PaymentKey:    get("paymentKey"),
		ResultCode:    get("resultCode"),
		ResultMessage: get("resultMessage"),
		OrderID:       orders.OrderID(get(redirect.OrderIDParam)),
	}
}

// ProviderFailed reports an explicit failure or cancel from the provider.
func (p CallbackParams) ProviderFailed() bool {
	return p.ResultCode != "" && !strings.EqualFold(p.ResultCode, resultCodeSuccess)
}

// HasToken reports whether the callback carries a token this storefront can
// confirm with. paymentKey is recognised but not supported.
func (p CallbackParams) HasToken() bool {
	return p.PgToken != "" || p.PaymentID != ""
}

// CallbackResolver finishes the provider round trip: it consumes the pending
// payment, confirms it with the backend and records the completed order.
type CallbackResolver interface {
	Resolve(ctx context.Context, scope, session string, params CallbackParams) CallbackOutcome
}

type CallbackDeps struct {
	Handoff    handoff.Store
	Confirmer  payments.Confirmer
	Storefront config.StorefrontConfig
	Logger     *logger.Logger
	Metrics    *metrics.SagaMetrics
}

type callbackResolver struct {
	handoff    handoff.Store
	confirmer  payments.Confirmer
	storefront config.StorefrontConfig
	logg       *logger.Logger
	metrics    *metrics.SagaMetrics
}

func NewCallbackResolver(deps CallbackDeps) (CallbackResolver, error) {
	if deps.Handoff == nil {
		return nil, fmt.Errorf("handoff store required")
	}
	if deps.Confirmer == nil {
		return nil, fmt.Errorf("payment confirmer required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &callbackResolver{
		handoff:    deps.Handoff,
		confirmer:  deps.Confirmer,
		storefront: deps.Storefront,
		logg:       deps.Logger,
		metrics:    deps.Metrics,
	}, nil
}

func (r *callbackResolver) Resolve(ctx context.Context, scope, session string, params CallbackParams) CallbackOutcome {
	ctx = r.logg.WithHandoffScope(ctx, scope)
	if !params.OrderID.IsZero() {
		ctx = r.logg.WithField(ctx, "url_order_id", params.OrderID.String())
	}

	// A failure code alone is not enough to cancel: it must carry a token or
	// name the order it is about.
	if params.ProviderFailed() && (params.HasToken() || !params.OrderID.IsZero()) {
		return r.providerFailed(ctx, scope, params)
	}

	if !params.HasToken() {
		if params.PaymentKey != "" {
			r.logg.Warn(ctx, "callback.unsupported_token")
		} else {
			r.logg.Info(ctx, "callback.no_token")
		}
		r.metrics.Step("callback", metrics.OutcomeSkipped)
		return CallbackOutcome{Phase: enums.SagaPhaseIdle, Redirect: r.storefront.URL(r.storefront.MenuPath)}
	}

	pending, err := r.handoff.ReadAndClearPending(ctx, scope)
	if err != nil {
		r.metrics.Step("callback", metrics.OutcomeFailure)
		r.logg.Error(ctx, "callback.pending_read_failed", err)
		return CallbackOutcome{Phase: enums.SagaPhaseFailed, Err: err}
	}
	if pending == nil {
		r.metrics.Step("callback", metrics.OutcomeSkipped)
		r.logg.Info(ctx, "callback.already_processed")
		return CallbackOutcome{
			Phase:    enums.SagaPhaseIdle,
			Redirect: withQuery(r.storefront.URL(r.storefront.OrdersPath), "notice", NoticeAlreadyProcessed),
		}
	}

	received := Resume(*pending).CallbackReceived(params)
	ctx = r.logg.WithProvider(r.logg.WithOrderID(ctx, pending.OrderID.String()), pending.Provider.String())
	if !params.OrderID.IsZero() && params.OrderID != pending.OrderID {
		r.logg.Warn(ctx, "callback.order_id_mismatch")
	}

	order, err := r.confirm(ctx, session, received)
	if err != nil {
		return r.confirmFailed(ctx, scope, received, err)
	}

	confirmed := received.Confirmed(order)
	// The payment is captured; record it even if the browser has gone.
	commitCtx := context.WithoutCancel(ctx)
	if err := r.handoff.WriteCompleted(commitCtx, scope, confirmed.Order); err != nil {
		r.logg.Error(commitCtx, "callback.completed_write_failed", err)
	}
	r.metrics.Step("callback", metrics.OutcomeSuccess)
	r.logg.Info(commitCtx, "callback.committed")

	successURL, err := redirect.AppendOrderID(r.storefront.URL(r.storefront.SuccessPath), pending.OrderID)
	if err != nil {
		return CallbackOutcome{Phase: confirmed.Phase(), Err: pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building success url")}
	}
	return CallbackOutcome{Phase: confirmed.Phase(), Redirect: successURL}
}

func (r *callbackResolver) confirm(ctx context.Context, session string, s CallbackReceived) (orders.Order, error) {
	switch s.Pending.Provider {
	case enums.PaymentProviderKakao:
		if s.Params.PgToken == "" {
			return orders.Order{}, pkgerrors.New(pkgerrors.CodePaymentConfirmation, "kakao callback has no pg_token")
		}
		return r.confirmer.ConfirmKakao(ctx, session, payments.KakaoConfirmation{
			TID:     s.Pending.TID,
			PgToken: s.Params.PgToken,
			OrderID: s.Pending.OrderID,
		})
	case enums.PaymentProviderNaver:
		if s.Params.PaymentID == "" {
			return orders.Order{}, pkgerrors.New(pkgerrors.CodePaymentConfirmation, "naver callback has no paymentId")
		}
		return r.confirmer.ConfirmNaver(ctx, session, payments.NaverConfirmation{
			PaymentID:      s.Params.PaymentID,
			MerchantPayKey: s.Pending.MerchantPayKey,
			OrderID:        s.Pending.OrderID,
		})
	default:
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("pending payment has unknown provider %q", s.Pending.Provider))
	}
}

func (r *callbackResolver) confirmFailed(ctx context.Context, scope string, s CallbackReceived, err error) CallbackOutcome {
	failed := s.Fail(err)
	r.metrics.Step("callback", metrics.OutcomeFailure)

	// The shopper navigated away mid-confirmation. Put the pending record back
	// so a later visit with the same token can still resolve it.
	if errors.Is(ctx.Err(), context.Canceled) {
		restoreCtx := context.WithoutCancel(ctx)
		if werr := r.handoff.WritePending(restoreCtx, scope, s.Pending); werr != nil {
			r.logg.Error(restoreCtx, "callback.pending_restore_failed", werr)
		} else {
			r.logg.Warn(restoreCtx, "callback.pending_restored")
		}
	}

	r.logg.Error(ctx, "callback.confirm_failed", err)
	return CallbackOutcome{Phase: failed.Phase(), Err: failed.Err}
}

func (r *callbackResolver) providerFailed(ctx context.Context, scope string, params CallbackParams) CallbackOutcome {
	details := map[string]any{"result_code": params.ResultCode}
	pending, err := r.handoff.ReadAndClearPending(ctx, scope)
	if err != nil {
		r.logg.Error(ctx, "callback.pending_read_failed", err)
	}
	if pending != nil && !params.HasToken() && pending.OrderID != params.OrderID {
		if werr := r.handoff.WritePending(ctx, scope, *pending); werr != nil {
			r.logg.Error(ctx, "callback.pending_restore_failed", werr)
		}
		r.logg.Warn(r.logg.WithField(ctx, "result_code", params.ResultCode), "callback.failure_for_other_order")
		r.metrics.Step("callback", metrics.OutcomeSkipped)
		return CallbackOutcome{Phase: enums.SagaPhaseIdle, Redirect: r.storefront.URL(r.storefront.MenuPath)}
	}
	if pending != nil {
		ctx = r.logg.WithOrderID(ctx, pending.OrderID.String())
		details["order_id"] = pending.OrderID.String()
	}

	message := params.ResultMessage
	if message == "" {
		message = "the payment was cancelled or declined by the provider"
	}
	details["reason"] = message

	r.metrics.Step("callback", metrics.OutcomeFailure)
	r.logg.Warn(r.logg.WithField(ctx, "result_code", params.ResultCode), "callback.provider_failed")
	return CallbackOutcome{
		Phase: enums.SagaPhaseFailed,
		Err:   pkgerrors.New(pkgerrors.CodePaymentConfirmation, message).WithDetails(details),
	}
}
