package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

// MemoryJournal keeps transition steps in process memory. It backs the
// terminal client and tests; the API uses the Postgres journal.
type MemoryJournal struct {
	mu      sync.Mutex
	records []entity.TransitionStepRecord
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Record(_ context.Context, rec entity.TransitionStepRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *MemoryJournal) Completed(_ context.Context, transitionID string) (map[entity.TransitionStep]bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	done := make(map[entity.TransitionStep]bool)
	for _, r := range j.records {
		if r.TransitionID == transitionID {
			done[r.Step] = true
		}
	}
	return done, nil
}

func (j *MemoryJournal) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	kept := j.records[:0]
	var removed int64
	for _, r := range j.records {
		if r.CompletedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	j.records = kept
	return removed, nil
}

func (j *MemoryJournal) Records() []entity.TransitionStepRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]entity.TransitionStepRecord, len(j.records))
	copy(out, j.records)
	return out
}
