package checkout

import (
	"fmt"
	"time"

	"github.com/angelmondragon/cafe-storefront/internal/handoff"
	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/internal/payments"
	"github.com/angelmondragon/cafe-storefront/internal/redirect"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
)

// The saga is modelled as one Go type per phase. A transition is a method on
// its source phase only, so confirming without a prepared intent, or
// reconciling an unconfirmed order, does not compile.

type Idle struct{}

func (Idle) Phase() enums.SagaPhase { return enums.SagaPhaseIdle }

func (Idle) OrderCreated(order orders.Order) (OrderCreated, error) {
	if order.ID.IsZero() {
		return OrderCreated{}, fmt.Errorf("created order has no id")
	}
	return OrderCreated{Order: order}, nil
}

func (Idle) Fail(err error) Failed { return fail(enums.SagaPhaseIdle, err) }

type OrderCreated struct {
	Order orders.Order
}

func (OrderCreated) Phase() enums.SagaPhase { return enums.SagaPhaseOrderCreated }

// IntentPrepared binds the intent to the created order. An intent issued for a
// different order is rejected.
func (s OrderCreated) IntentPrepared(intent payments.Intent) (IntentPrepared, error) {
	if intent == nil {
		return IntentPrepared{}, fmt.Errorf("intent required")
	}
	if intent.ForOrder() != s.Order.ID {
		return IntentPrepared{}, fmt.Errorf("intent for order %s does not belong to order %s", intent.ForOrder(), s.Order.ID)
	}
	return IntentPrepared{Order: s.Order, Intent: intent}, nil
}

func (s OrderCreated) Fail(err error) Failed { return fail(enums.SagaPhaseOrderCreated, err) }

type IntentPrepared struct {
	Order  orders.Order
	Intent payments.Intent
}

func (IntentPrepared) Phase() enums.SagaPhase { return enums.SagaPhaseIntentPrepared }

// Pending is the record that must be stored before the shopper leaves.
func (s IntentPrepared) Pending(now time.Time) handoff.PendingPayment {
	p := handoff.PendingPayment{
		Provider:  s.Intent.Provider(),
		OrderID:   s.Order.ID,
		CreatedAt: now.UTC(),
	}
	switch in := s.Intent.(type) {
	case payments.KakaoIntent:
		p.TID = in.TID
	case payments.NaverIntent:
		p.MerchantPayKey = in.MerchantPayKey
	}
	return p
}

// Redirected requires the instruction to carry this order's id back through
// the provider.
func (s IntentPrepared) Redirected(ins redirect.Instruction, pending handoff.PendingPayment) (Redirected, error) {
	if got := ins.ReturnOrderID(); got != s.Order.ID.String() {
		return Redirected{}, fmt.Errorf("redirect carries order_id %q, expected %q", got, s.Order.ID)
	}
	return Redirected{Pending: pending, Instruction: ins}, nil
}

func (s IntentPrepared) Fail(err error) Failed { return fail(enums.SagaPhaseIntentPrepared, err) }

type Redirected struct {
	Pending     handoff.PendingPayment
	Instruction redirect.Instruction
}

func (Redirected) Phase() enums.SagaPhase { return enums.SagaPhaseRedirected }

// Resume re-enters the saga on the provider's return from the stored pending
// record alone.
func Resume(pending handoff.PendingPayment) Redirected {
	return Redirected{Pending: pending}
}

func (s Redirected) CallbackReceived(params CallbackParams) CallbackReceived {
	return CallbackReceived{Pending: s.Pending, Params: params}
}

type CallbackReceived struct {
	Pending handoff.PendingPayment
	Params  CallbackParams
}

func (CallbackReceived) Phase() enums.SagaPhase { return enums.SagaPhaseCallbackReceived }

func (s CallbackReceived) Confirmed(order orders.Order) Confirmed {
	if order.ID.IsZero() {
		order.ID = s.Pending.OrderID
	}
	return Confirmed{Order: order}
}

func (s CallbackReceived) Fail(err error) Failed { return fail(enums.SagaPhaseCallbackReceived, err) }

type Confirmed struct {
	Order orders.Order
}

func (Confirmed) Phase() enums.SagaPhase { return enums.SagaPhaseConfirmed }

// ConfirmedFromRecord re-enters the saga from a stored completed order.
func ConfirmedFromRecord(order orders.Order) Confirmed {
	return Confirmed{Order: order}
}

func (s Confirmed) Reconciled() Reconciled {
	return Reconciled{Order: s.Order}
}

type Reconciled struct {
	Order orders.Order
}

func (Reconciled) Phase() enums.SagaPhase { return enums.SagaPhaseReconciled }

type Failed struct {
	From enums.SagaPhase
	Err  error
}

func (Failed) Phase() enums.SagaPhase { return enums.SagaPhaseFailed }

func fail(from enums.SagaPhase, err error) Failed {
	return Failed{From: from, Err: err}
}

var transitions = map[enums.SagaPhase][]enums.SagaPhase{
	enums.SagaPhaseIdle:             {enums.SagaPhaseOrderCreated, enums.SagaPhaseFailed},
	enums.SagaPhaseOrderCreated:     {enums.SagaPhaseIntentPrepared, enums.SagaPhaseFailed},
	enums.SagaPhaseIntentPrepared:   {enums.SagaPhaseRedirected, enums.SagaPhaseFailed},
	enums.SagaPhaseRedirected:       {enums.SagaPhaseCallbackReceived},
	enums.SagaPhaseCallbackReceived: {enums.SagaPhaseConfirmed, enums.SagaPhaseFailed},
	enums.SagaPhaseConfirmed:        {enums.SagaPhaseReconciled},
}

// CanTransition is the runtime view of the phase graph above, for logs and
// metrics that only see phase names.
func CanTransition(from, to enums.SagaPhase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
