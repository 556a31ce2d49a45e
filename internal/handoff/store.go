package handoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/cafe-storefront/internal/orders"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
	"github.com/angelmondragon/cafe-storefront/pkg/metrics"
)

// Store holds the state that crosses the provider redirect. It is best-effort:
// a record may be missing at any time and callers must treat nil as a normal
// answer. ReadAndClear hands a value to at most one caller.
type Store interface {
	WritePending(ctx context.Context, scope string, p PendingPayment) error
	ReadAndClearPending(ctx context.Context, scope string) (*PendingPayment, error)
	WriteCompleted(ctx context.Context, scope string, order orders.Order) error
	ReadAndClearCompleted(ctx context.Context, scope string) (*orders.Order, error)
}

// ErrAbsent is returned by a Substrate when a key holds no live value.
var ErrAbsent = errors.New("handoff record absent")

// Key addresses one slot of one scope.
type Key struct {
	Scope string
	Slot  string
}

// Substrate is the raw storage behind a SlotStore. Take must be atomic: of
// any number of concurrent Takes on one key, at most one returns the payload.
type Substrate interface {
	Put(ctx context.Context, key Key, payload []byte, ttl time.Duration) error
	Take(ctx context.Context, key Key) ([]byte, error)
}

// SlotStore implements Store over a Substrate with versioned JSON payloads.
type SlotStore struct {
	sub     Substrate
	ttl     time.Duration
	logg    *logger.Logger
	metrics *metrics.SagaMetrics
}

// NewSlotStore wraps sub. Records expire after ttl.
func NewSlotStore(sub Substrate, ttl time.Duration, logg *logger.Logger, m *metrics.SagaMetrics) (*SlotStore, error) {
	if sub == nil {
		return nil, fmt.Errorf("handoff substrate required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("handoff ttl must be positive")
	}
	return &SlotStore{sub: sub, ttl: ttl, logg: logg, metrics: m}, nil
}

func (s *SlotStore) WritePending(ctx context.Context, scope string, p PendingPayment) error {
	if err := p.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid pending payment")
	}
	return s.write(ctx, scope, SlotPendingPayment, p)
}

func (s *SlotStore) ReadAndClearPending(ctx context.Context, scope string) (*PendingPayment, error) {
	var p PendingPayment
	found, err := s.take(ctx, scope, SlotPendingPayment, &p)
	if err != nil || !found {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		s.dropUndecodable(ctx, scope, SlotPendingPayment, err)
		return nil, nil
	}
	return &p, nil
}

func (s *SlotStore) WriteCompleted(ctx context.Context, scope string, order orders.Order) error {
	if order.ID.IsZero() {
		return pkgerrors.New(pkgerrors.CodeInternal, "completed order requires an id")
	}
	return s.write(ctx, scope, SlotLastCompletedOrder, order)
}

func (s *SlotStore) ReadAndClearCompleted(ctx context.Context, scope string) (*orders.Order, error) {
	var order orders.Order
	found, err := s.take(ctx, scope, SlotLastCompletedOrder, &order)
	if err != nil || !found {
		return nil, err
	}
	return &order, nil
}

func (s *SlotStore) write(ctx context.Context, scope, slot string, v any) error {
	key, err := newKey(scope, slot)
	if err != nil {
		return err
	}
	payload, err := encode(v)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding handoff record")
	}
	if err := s.sub.Put(ctx, key, payload, s.ttl); err != nil {
		s.metrics.Handoff(slot, "write", "error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing handoff record")
	}
	s.metrics.Handoff(slot, "write", "ok")
	return nil
}

func (s *SlotStore) take(ctx context.Context, scope, slot string, dest any) (bool, error) {
	key, err := newKey(scope, slot)
	if err != nil {
		return false, err
	}
	payload, err := s.sub.Take(ctx, key)
	if errors.Is(err, ErrAbsent) {
		s.metrics.Handoff(slot, "consume", "miss")
		return false, nil
	}
	if err != nil {
		s.metrics.Handoff(slot, "consume", "error")
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading handoff record")
	}
	if err := decode(payload, dest); err != nil {
		s.dropUndecodable(ctx, scope, slot, err)
		return false, nil
	}
	s.metrics.Handoff(slot, "consume", "hit")
	return true, nil
}

// dropUndecodable treats an unreadable record as lost. It has already been
// removed by Take.
func (s *SlotStore) dropUndecodable(ctx context.Context, scope, slot string, err error) {
	s.metrics.Handoff(slot, "consume", "undecodable")
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(s.logg.WithHandoffScope(ctx, scope), map[string]any{"slot": slot, "error": err.Error()})
	s.logg.Warn(ctx, "handoff.record_undecodable")
}

func newKey(scope, slot string) (Key, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return Key{}, pkgerrors.New(pkgerrors.CodeInternal, "handoff scope required")
	}
	return Key{Scope: scope, Slot: slot}, nil
}
