package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/cafe-storefront/pkg/logger"
)

const defaultSweepInterval = 5 * time.Minute

// Sweepable is a substrate that does not expire rows on its own.
type Sweepable interface {
	Sweep(ctx context.Context) (int64, error)
}

// SweeperParams configure the sweeper.
type SweeperParams struct {
	Logger    *logger.Logger
	Substrate Sweepable
	Interval  time.Duration
}

// Sweeper deletes expired handoff rows on a fixed cadence. Reads already treat
// expired rows as absent; sweeping only bounds table growth. Concurrent
// sweepers on several instances are safe.
type Sweeper struct {
	logg     *logger.Logger
	sub      Sweepable
	interval time.Duration
}

func NewSweeper(params SweeperParams) (*Sweeper, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Substrate == nil {
		return nil, fmt.Errorf("sweepable substrate required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{logg: params.Logger, sub: params.Substrate, interval: interval}, nil
}

// Run sweeps once immediately, then every interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "event", "handoff.sweep")
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "handoff sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	removed, err := s.sub.Sweep(ctx)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"removed":     removed,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		s.logg.Error(ctx, "handoff sweep failed", err)
		return
	}
	if removed > 0 {
		s.logg.Info(ctx, "handoff sweep removed expired slots")
	}
}
