package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweepable is implemented by usecase.SessionRegistry.
type Sweepable interface {
	Sweep() int
}

// Pruner is implemented by the transition journals.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// SessionSweeper closes idle progress sessions and prunes old journal
// entries on a fixed tick.
type SessionSweeper struct {
	sessions     Sweepable
	journal      Pruner
	retention    time.Duration
	tickInterval time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewSessionSweeper(sessions Sweepable, journal Pruner, retention time.Duration, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions:     sessions,
		journal:      journal,
		retention:    retention,
		tickInterval: time.Minute,
		now:          time.Now,
		logger:       logger.Named("sweeper"),
	}
}

func (w *SessionSweeper) Start(ctx context.Context) {
	w.logger.Info("session sweeper started", zap.Duration("retention", w.retention))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SessionSweeper) sweep(ctx context.Context) {
	if closed := w.sessions.Sweep(); closed > 0 {
		w.logger.Info("idle sessions closed", zap.Int("count", closed))
	}

	if w.journal == nil || w.retention <= 0 {
		return
	}
	removed, err := w.journal.Prune(ctx, w.now().Add(-w.retention))
	if err != nil {
		w.logger.Warn("journal prune failed", zap.Error(err))
		return
	}
	if removed > 0 {
		w.logger.Info("journal entries pruned", zap.Int64("count", removed))
	}
}
