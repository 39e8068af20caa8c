package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/entity"
)

// Sequence runs the remote steps of a transition in order. Steps already
// recorded for the transition, in memory or in the journal, are skipped, so
// running a failed sequence again resumes where it stopped.
type Sequence struct {
	transition *Transition
	leadID     int
	journal    entity.TransitionJournal
	logger     *zap.Logger
	now        func() time.Time
	steps      []Step
}

type Step struct {
	Name entity.TransitionStep
	Fn   func(context.Context) error
}

func newSequence(t *Transition, leadID int, journal entity.TransitionJournal, logger *zap.Logger, now func() time.Time) *Sequence {
	if t.Done == nil {
		t.Done = make(map[entity.TransitionStep]bool)
	}
	return &Sequence{transition: t, leadID: leadID, journal: journal, logger: logger, now: now}
}

func (s *Sequence) Then(name entity.TransitionStep, fn func(context.Context) error) *Sequence {
	s.steps = append(s.steps, Step{name, fn})
	return s
}

// Execute stops at the first failing step and returns its error wrapped
// with the step name.
func (s *Sequence) Execute(ctx context.Context) error {
	s.loadJournal(ctx)

	for _, step := range s.steps {
		if s.transition.Done[step.Name] {
			s.logger.Debug("step already applied, skipping",
				zap.String("transition_id", s.transition.ID),
				zap.String("step", string(step.Name)))
			continue
		}
		if err := step.Fn(ctx); err != nil {
			return fmt.Errorf("step '%s' failed: %w", step.Name, err)
		}
		s.transition.Done[step.Name] = true
		s.record(ctx, step.Name)
	}
	return nil
}

func (s *Sequence) loadJournal(ctx context.Context) {
	if s.journal == nil {
		return
	}
	done, err := s.journal.Completed(ctx, s.transition.ID)
	if err != nil {
		s.logger.Warn("journal lookup failed, relying on session state",
			zap.String("transition_id", s.transition.ID), zap.Error(err))
		return
	}
	for step, ok := range done {
		if ok {
			s.transition.Done[step] = true
		}
	}
}

// A journal write failure after a successful remote call is only logged:
// the in-memory Done set still prevents a repeat within the session.
func (s *Sequence) record(ctx context.Context, step entity.TransitionStep) {
	if s.journal == nil {
		return
	}
	rec := entity.TransitionStepRecord{
		TransitionID: s.transition.ID,
		LeadID:       s.leadID,
		StageID:      s.transition.Stage.ID,
		Step:         step,
		CompletedAt:  s.now(),
	}
	if err := s.journal.Record(ctx, rec); err != nil {
		s.logger.Warn("journal write failed",
			zap.String("transition_id", s.transition.ID),
			zap.String("step", string(step)),
			zap.Error(err))
	}
}
