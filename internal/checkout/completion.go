package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/cafe-storefront/internal/cart"
	"github.com/angelmondragon/cafe-storefront/internal/handoff"
	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
	"github.com/angelmondragon/cafe-storefront/pkg/metrics"
)

// CompletionReconciler backs the success view. It shows a completed order at
// most once, and only under the order_id it was confirmed for.
type CompletionReconciler interface {
	Reconcile(ctx context.Context, scope, session, rawOrderID string) CompletionOutcome
}

type CompletionDeps struct {
	Handoff    handoff.Store
	Cart       cart.Reader
	Storefront config.StorefrontConfig
	Logger     *logger.Logger
	Metrics    *metrics.SagaMetrics
}

type completionReconciler struct {
	handoff    handoff.Store
	cart       cart.Reader
	storefront config.StorefrontConfig
	logg       *logger.Logger
	metrics    *metrics.SagaMetrics
}

func NewCompletionReconciler(deps CompletionDeps) (CompletionReconciler, error) {
	if deps.Handoff == nil {
		return nil, fmt.Errorf("handoff store required")
	}
	if deps.Cart == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &completionReconciler{
		handoff:    deps.Handoff,
		cart:       deps.Cart,
		storefront: deps.Storefront,
		logg:       deps.Logger,
		metrics:    deps.Metrics,
	}, nil
}

func (c *completionReconciler) Reconcile(ctx context.Context, scope, session, rawOrderID string) CompletionOutcome {
	ctx = c.logg.WithHandoffScope(ctx, scope)
	urlOrderID := orders.OrderID(strings.TrimSpace(rawOrderID))
	if urlOrderID.IsZero() {
		c.metrics.Step("completion", metrics.OutcomeFailure)
		c.logg.Warn(ctx, "completion.invalid_access")
		return CompletionOutcome{
			Phase:    enums.SagaPhaseIdle,
			Redirect: c.storefront.URL(c.storefront.MenuPath),
			Err:      pkgerrors.New(pkgerrors.CodeInvalidAccess, "order_id is missing from the success url"),
		}
	}
	ctx = c.logg.WithOrderID(ctx, urlOrderID.String())

	completed, err := c.handoff.ReadAndClearCompleted(ctx, scope)
	if err != nil {
		c.logg.Error(ctx, "completion.completed_read_failed", err)
	}
	if completed == nil {
		c.metrics.Step("completion", metrics.OutcomeSkipped)
		c.logg.Info(ctx, "completion.not_found")
		return CompletionOutcome{Phase: enums.SagaPhaseIdle, State: CompletionNotFound}
	}

	c.clearPending(ctx, scope)

	if completed.ID != urlOrderID {
		c.metrics.Step("completion", metrics.OutcomeFailure)
		c.logg.Warn(c.logg.WithField(ctx, "stored_order_id", completed.ID.String()), "completion.order_mismatch")
		return CompletionOutcome{
			Phase: enums.SagaPhaseFailed,
			Err: pkgerrors.New(pkgerrors.CodeOrderMismatch, "the completed order does not match this page").
				WithDetails(map[string]any{"order_id": urlOrderID.String()}),
		}
	}

	reconciled := ConfirmedFromRecord(*completed).Reconciled()
	if err := c.cart.Clear(ctx, session); err != nil {
		c.logg.Error(ctx, "completion.cart_clear_failed", err)
	}
	c.metrics.Step("completion", metrics.OutcomeSuccess)
	c.logg.Info(ctx, "completion.displayed")
	return CompletionOutcome{
		Phase: reconciled.Phase(),
		State: CompletionDisplayed,
		Order: &reconciled.Order,
	}
}

// clearPending drops any pending record left over from an earlier attempt.
func (c *completionReconciler) clearPending(ctx context.Context, scope string) {
	leftover, err := c.handoff.ReadAndClearPending(ctx, scope)
	if err != nil {
		c.logg.Error(ctx, "completion.pending_clear_failed", err)
		return
	}
	if leftover != nil {
		c.logg.Info(c.logg.WithField(ctx, "pending_order_id", leftover.OrderID.String()), "completion.pending_cleared")
	}
}
