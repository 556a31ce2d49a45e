package enums

// SagaPhase names a step of the checkout-to-payment saga.
type SagaPhase string

const (
	SagaPhaseIdle             SagaPhase = "idle"
	SagaPhaseOrderCreated     SagaPhase = "order_created"
	SagaPhaseIntentPrepared   SagaPhase = "intent_prepared"
	SagaPhaseRedirected       SagaPhase = "redirected"
	SagaPhaseCallbackReceived SagaPhase = "callback_received"
	SagaPhaseConfirmed        SagaPhase = "confirmed"
	SagaPhaseFailed           SagaPhase = "failed"
	SagaPhaseReconciled       SagaPhase = "reconciled"
)

// String implements fmt.Stringer.
func (s SagaPhase) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition leaves the phase.
func (s SagaPhase) IsTerminal() bool {
	return s == SagaPhaseFailed || s == SagaPhaseReconciled
}
