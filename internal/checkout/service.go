package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/cafe-storefront/internal/cart"
	"github.com/angelmondragon/cafe-storefront/internal/handoff"
	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/internal/payments"
	"github.com/angelmondragon/cafe-storefront/internal/redirect"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
	"github.com/angelmondragon/cafe-storefront/pkg/metrics"
)

// Service starts the saga: it turns the shopper's cart into an order, opens a
// provider payment for it, records the pending payment and tells the browser
// where to go next.
type Service interface {
	Begin(ctx context.Context, scope, session string, input BeginInput) (BeginResult, error)
}

// BeginInput captures the shopper's choice on the checkout page.
type BeginInput struct {
	Provider  enums.PaymentProvider
	Device    enums.Device
	UserAgent string
}

type BeginResult struct {
	OrderID     orders.OrderID        `json:"order_id"`
	Provider    enums.PaymentProvider `json:"provider"`
	Phase       enums.SagaPhase       `json:"phase"`
	Instruction redirect.Instruction  `json:"instruction"`
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Cart      cart.Reader
	Orders    orders.Initiator
	Payments  payments.Preparer
	Handoff   handoff.Store
	Redirects redirect.Driver
	Logger    *logger.Logger
	Metrics   *metrics.SagaMetrics
	Now       func() time.Time
}

type service struct {
	cart      cart.Reader
	orders    orders.Initiator
	payments  payments.Preparer
	handoff   handoff.Store
	redirects redirect.Driver
	logg      *logger.Logger
	metrics   *metrics.SagaMetrics
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Cart == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order initiator required")
	}
	if deps.Payments == nil {
		return nil, fmt.Errorf("payment preparer required")
	}
	if deps.Handoff == nil {
		return nil, fmt.Errorf("handoff store required")
	}
	if deps.Redirects == nil {
		return nil, fmt.Errorf("redirect driver required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		cart:      deps.Cart,
		orders:    deps.Orders,
		payments:  deps.Payments,
		handoff:   deps.Handoff,
		redirects: deps.Redirects,
		logg:      deps.Logger,
		metrics:   deps.Metrics,
		now:       deps.Now,
	}, nil
}

func (s *service) Begin(ctx context.Context, scope, session string, input BeginInput) (BeginResult, error) {
	if !input.Provider.IsValid() {
		return BeginResult{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment provider").
			WithDetails(map[string]any{"provider": input.Provider.String()})
	}
	ctx = s.logg.WithProvider(s.logg.WithHandoffScope(ctx, scope), input.Provider.String())

	snap, err := s.cart.Snapshot(ctx, session)
	if err != nil {
		return BeginResult{}, s.failed(ctx, Idle{}.Fail(err), "cart_snapshot")
	}
	if snap.Empty() {
		return BeginResult{}, s.failed(ctx, Idle{}.Fail(pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")), "cart_snapshot")
	}

	draft := orders.DraftFromSnapshot(snap, input.Provider.PaymentMethod())
	order, err := s.orders.Submit(ctx, session, draft)
	if err != nil {
		return BeginResult{}, s.failed(ctx, Idle{}.Fail(err), "order_create")
	}
	created, err := Idle{}.OrderCreated(order)
	if err != nil {
		return BeginResult{}, s.failed(ctx, Idle{}.Fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order service returned no order id")), "order_create")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.metrics.Step("order_create", metrics.OutcomeSuccess)
	s.logg.Info(ctx, "checkout.order_created")

	req, err := payments.NewIntentRequest(input.Provider, created.Order)
	if err != nil {
		return BeginResult{}, s.failed(ctx, created.Fail(err), "intent_prepare")
	}
	intent, err := s.payments.Prepare(ctx, session, req)
	if err != nil {
		return BeginResult{}, s.failed(ctx, created.Fail(err), "intent_prepare")
	}
	prepared, err := created.IntentPrepared(intent)
	if err != nil {
		return BeginResult{}, s.failed(ctx, created.Fail(pkgerrors.Wrap(pkgerrors.CodeIntentCreation, err, "payment intent does not match the order")), "intent_prepare")
	}
	s.metrics.Step("intent_prepare", metrics.OutcomeSuccess)
	s.logg.Info(ctx, "checkout.intent_prepared")

	device := redirect.ResolveDevice(input.Device, input.UserAgent)
	instruction, err := s.redirects.Drive(prepared.Intent, device)
	if err != nil {
		return BeginResult{}, s.failed(ctx, prepared.Fail(err), "redirect")
	}

	// The pending record is only stored for an instruction that carries this
	// order back, otherwise a later callback could confirm an abandoned order.
	pending := prepared.Pending(s.now())
	redirected, err := prepared.Redirected(instruction, pending)
	if err != nil {
		return BeginResult{}, s.failed(ctx, prepared.Fail(pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redirect lost the order id")), "redirect")
	}
	if err := s.handoff.WritePending(ctx, scope, pending); err != nil {
		return BeginResult{}, s.failed(ctx, prepared.Fail(err), "pending_write")
	}
	s.metrics.Step("redirect", metrics.OutcomeSuccess)
	s.logg.Info(s.logg.WithField(ctx, "instruction", string(instruction.Kind)), "checkout.redirect_issued")

	return BeginResult{
		OrderID:     redirected.Pending.OrderID,
		Provider:    redirected.Pending.Provider,
		Phase:       redirected.Phase(),
		Instruction: redirected.Instruction,
	}, nil
}

func (s *service) failed(ctx context.Context, f Failed, step string) error {
	s.metrics.Step(step, metrics.OutcomeFailure)
	ctx = s.logg.WithFields(ctx, map[string]any{"step": step, "from_phase": f.From.String()})
	if shopperError(f.Err) {
		s.logg.Warn(s.logg.WithField(ctx, "error", f.Err.Error()), "checkout.failed")
	} else {
		s.logg.Error(ctx, "checkout.failed", f.Err)
	}
	return f.Err
}

// shopperError reports failures caused by the shopper's input or session.
func shopperError(err error) bool {
	return pkgerrors.HasCode(err, pkgerrors.CodeValidation) || pkgerrors.HasCode(err, pkgerrors.CodeSessionMissing)
}
