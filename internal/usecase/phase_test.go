package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/entity"
)

func TestCanEnter(t *testing.T) {
	assert.True(t, canEnter(PhaseIdle, PhaseAwaitingDemoInput))
	assert.True(t, canEnter(PhaseIdle, PhaseAwaitingAmountInput))
	assert.True(t, canEnter(PhaseIdle, PhaseAwaitingRemark))
	assert.True(t, canEnter(PhaseAwaitingDemoInput, PhaseAwaitingRemark))
	assert.True(t, canEnter(PhaseAwaitingAmountInput, PhaseAwaitingRemark))
	assert.True(t, canEnter(PhaseAwaitingRemark, PhaseIdle))

	assert.False(t, canEnter(PhaseIdle, PhaseIdle))
	assert.False(t, canEnter(PhaseAwaitingRemark, PhaseAwaitingAmountInput))
	assert.False(t, canEnter(PhaseAwaitingDemoInput, PhaseAwaitingAmountInput))
	assert.False(t, canEnter(PhaseAwaitingAmountInput, PhaseAwaitingDemoInput))
}

func TestPhaseFor(t *testing.T) {
	tests := map[string]PhaseKind{
		"Demo Scheduled": PhaseAwaitingDemoInput,
		"Product DEMO":   PhaseAwaitingDemoInput,
		"Proposal":       PhaseAwaitingAmountInput,
		"won":            PhaseAwaitingAmountInput,
		"WON":            PhaseAwaitingAmountInput,
		"Proposal Sent":  PhaseAwaitingRemark,
		"Contacted":      PhaseAwaitingRemark,
		"Lost":           PhaseAwaitingRemark,
	}
	for name, want := range tests {
		assert.Equal(t, want, phaseFor(entity.Stage{Name: name}), name)
	}
}

func TestSequence_StopsAtFirstFailureAndResumes(t *testing.T) {
	journal := NewMemoryJournal()
	clock := newFakeClock()
	tr := &Transition{ID: "tr-seq", Stage: entity.Stage{ID: 4}}

	var calls []string
	failCommit := true
	run := func() error {
		return newSequence(tr, testLeadID, journal, zap.NewNop(), clock.Now).
			Then(entity.StepRemark, func(context.Context) error {
				calls = append(calls, "remark")
				return nil
			}).
			Then(entity.StepCommit, func(context.Context) error {
				calls = append(calls, "commit")
				if failCommit {
					return errors.New("503")
				}
				return nil
			}).
			Execute(context.Background())
	}

	err := run()
	require.Error(t, err)
	assert.Equal(t, "step 'commit' failed: 503", err.Error())
	assert.True(t, tr.Done[entity.StepRemark])
	assert.False(t, tr.Done[entity.StepCommit])

	failCommit = false
	require.NoError(t, run())
	assert.Equal(t, []string{"remark", "commit", "commit"}, calls)

	done, err := journal.Completed(context.Background(), "tr-seq")
	require.NoError(t, err)
	assert.Equal(t, map[entity.TransitionStep]bool{entity.StepRemark: true, entity.StepCommit: true}, done)
}

type failingJournal struct{}

func (failingJournal) Record(context.Context, entity.TransitionStepRecord) error {
	return errors.New("disk full")
}

func (failingJournal) Completed(context.Context, string) (map[entity.TransitionStep]bool, error) {
	return nil, errors.New("disk full")
}

func (failingJournal) Prune(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestSequence_JournalFailuresDoNotRepeatSteps(t *testing.T) {
	tr := &Transition{ID: "tr-j"}
	count := 0
	run := func() error {
		return newSequence(tr, testLeadID, failingJournal{}, zap.NewNop(), time.Now).
			Then(entity.StepAction, func(context.Context) error {
				count++
				return nil
			}).
			Execute(context.Background())
	}

	require.NoError(t, run())
	require.NoError(t, run())
	assert.Equal(t, 1, count)
}

func TestMemoryJournal_Prune(t *testing.T) {
	j := NewMemoryJournal()
	base := newFakeClock().Now()
	ctx := context.Background()

	for i, age := range []time.Duration{48 * time.Hour, 2 * time.Hour, 0} {
		require.NoError(t, j.Record(ctx, entity.TransitionStepRecord{
			TransitionID: "tr",
			Step:         []entity.TransitionStep{entity.StepAction, entity.StepRemark, entity.StepCommit}[i],
			CompletedAt:  base.Add(-age),
		}))
	}

	removed, err := j.Prune(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Len(t, j.Records(), 2)
}

func TestCelebration(t *testing.T) {
	now := newFakeClock().Now()
	var c Celebration

	assert.False(t, c.Active(now))
	assert.Equal(t, time.Duration(0), c.Remaining(now))

	c.start(now)
	assert.True(t, c.Active(now))
	assert.Equal(t, 2*time.Second, c.Remaining(now.Add(3*time.Second)))
	assert.False(t, c.Active(now.Add(CelebrationDuration)))

	// A second Won in the same session restarts the window.
	c.start(now.Add(10 * time.Second))
	assert.True(t, c.Active(now.Add(14*time.Second)))
	assert.Equal(t, 2, c.Count())
}
