package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"financeflow/internal/core"
)

// DriftChecker recomputes balances from movements and reports mismatches.
type DriftChecker interface {
	BalanceDrift(ctx context.Context) ([]core.BalanceDrift, error)
}

// CatchUpScheduler triggers recurring catch-up passes on a cron schedule.
type CatchUpScheduler struct {
	processor *RecurringProcessor
	drift     DriftChecker
	spec      string
	now       func() time.Time
}

// NewCatchUpScheduler validates spec (standard five fields or @descriptors).
// drift may be nil.
func NewCatchUpScheduler(processor *RecurringProcessor, drift DriftChecker, spec string) (*CatchUpScheduler, error) {
	if processor == nil {
		return nil, fmt.Errorf("recurring processor is required")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid recurring schedule %q: %w", spec, err)
	}
	return &CatchUpScheduler{
		processor: processor,
		drift:     drift,
		spec:      spec,
		now:       time.Now,
	}, nil
}

// RunOnce runs a single pass and then checks balances for drift.
func (s *CatchUpScheduler) RunOnce(ctx context.Context) (int, error) {
	started := s.now()
	count, err := s.processor.ProcessDue(ctx, started)
	if err != nil {
		slog.ErrorContext(ctx, "Recurring catch-up pass failed", "processed", count, "error", err)
		return count, err
	}
	slog.InfoContext(ctx, "Recurring catch-up pass complete",
		"processed", count,
		"duration_ms", s.now().Sub(started).Milliseconds())

	if s.drift != nil {
		drifts, err := s.drift.BalanceDrift(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Balance drift check failed", "error", err)
			return count, nil
		}
		for _, d := range drifts {
			slog.ErrorContext(ctx, "Account balance drift detected",
				"account_id", d.AccountID,
				"account", d.Name,
				"cached_cents", d.Cached.Cents,
				"computed_cents", d.Computed.Cents)
		}
	}
	return count, nil
}

// Run schedules passes until ctx is cancelled, then waits for a running pass
// to finish. A pass that is still running when the next tick fires is skipped.
func (s *CatchUpScheduler) Run(ctx context.Context) error {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(logger)), cron.WithLogger(logger))

	if _, err := c.AddFunc(s.spec, func() {
		_, _ = s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule recurring catch-up: %w", err)
	}

	slog.InfoContext(ctx, "Recurring catch-up scheduled", "schedule", s.spec)
	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	slog.Info("Recurring catch-up scheduler stopped")
	return nil
}
