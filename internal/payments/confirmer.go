package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/pkg/backend"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/metrics"
)

const (
	kakaoCompletePath = "/payment/kakao/complete"
	naverCompletePath = "/payment/naver/complete"

	defaultConfirmTimeout = 15 * time.Second
)

// Confirmer captures an authorized provider payment. Every call runs under
// its own deadline; running out of time is a PAYMENT_CONFIRMATION_FAILED.
type Confirmer interface {
	ConfirmKakao(ctx context.Context, session string, in KakaoConfirmation) (orders.Order, error)
	ConfirmNaver(ctx context.Context, session string, in NaverConfirmation) (orders.Order, error)
}

type KakaoConfirmation struct {
	TID     string
	PgToken string
	OrderID orders.OrderID
}

type NaverConfirmation struct {
	PaymentID      string         `json:"paymentId"`
	MerchantPayKey string         `json:"merchantPayKey"`
	OrderID        orders.OrderID `json:"order_id"`
}

type confirmer struct {
	api     backendAPI
	timeout time.Duration
	metrics *metrics.SagaMetrics
}

// NewConfirmer builds a Confirmer. A non-positive timeout falls back to 15s.
func NewConfirmer(api backendAPI, timeout time.Duration, m *metrics.SagaMetrics) (Confirmer, error) {
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}
	return &confirmer{api: api, timeout: timeout, metrics: m}, nil
}

type confirmResponse struct {
	Order *orders.Order `json:"order"`
}

func (c *confirmer) ConfirmKakao(ctx context.Context, session string, in KakaoConfirmation) (orders.Order, error) {
	if in.TID == "" || in.PgToken == "" || in.OrderID.IsZero() {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodePaymentConfirmation, "tid, pg_token and order_id are required")
	}
	query := url.Values{
		"tid":      {in.TID},
		"pg_token": {in.PgToken},
		"order_id": {in.OrderID.String()},
	}
	return c.confirm(ctx, enums.PaymentProviderKakao, in.OrderID, func(ctx context.Context, out *confirmResponse) error {
		return c.api.Post(ctx, kakaoCompletePath, query, session, nil, out)
	})
}

func (c *confirmer) ConfirmNaver(ctx context.Context, session string, in NaverConfirmation) (orders.Order, error) {
	if in.PaymentID == "" || in.MerchantPayKey == "" || in.OrderID.IsZero() {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodePaymentConfirmation, "paymentId, merchantPayKey and order_id are required")
	}
	return c.confirm(ctx, enums.PaymentProviderNaver, in.OrderID, func(ctx context.Context, out *confirmResponse) error {
		return c.api.Post(ctx, naverCompletePath, nil, session, in, out)
	})
}

func (c *confirmer) confirm(ctx context.Context, provider enums.PaymentProvider, orderID orders.OrderID, call func(context.Context, *confirmResponse) error) (orders.Order, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	var resp confirmResponse
	err := call(callCtx, &resp)
	c.metrics.ObserveConfirm(provider.String(), time.Since(started))

	if err != nil {
		return orders.Order{}, confirmFailed(callCtx, err)
	}
	if resp.Order == nil {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodePaymentConfirmation, "backend confirmed without returning the order")
	}

	order := *resp.Order
	if order.ID.IsZero() {
		order.ID = orderID
	}
	if order.Status == "" {
		order.Status = enums.OrderStatusPaid
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = provider.PaymentMethod()
	}
	return order, nil
}

func confirmFailed(callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || backend.Timeout(err) {
		return pkgerrors.Wrap(pkgerrors.CodePaymentConfirmation, err, "payment confirmation timed out").
			WithDetails(map[string]any{"reason": "timeout"})
	}
	reason := strings.TrimSpace(backend.Reason(err))
	return pkgerrors.Wrap(pkgerrors.CodePaymentConfirmation, err, reason).
		WithDetails(map[string]any{"reason": reason, "status": backend.Status(err)})
}
