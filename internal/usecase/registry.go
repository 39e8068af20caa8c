package usecase

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/leadflow/internal/entity"
)

// StageRegistry holds the ordered stage list and the user directory. Both
// are fetched once; Reload forces another fetch.
type StageRegistry struct {
	gateway CRMGateway
	logger  *zap.Logger

	loaded bool
	stages entity.StageList
	users  []entity.UserRef
}

func NewStageRegistry(gateway CRMGateway, logger *zap.Logger) *StageRegistry {
	return &StageRegistry{gateway: gateway, logger: logger}
}

func (r *StageRegistry) Load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	return r.Reload(ctx)
}

// Reload fetches stages and users in parallel. Without stages the status
// bar cannot work, so that failure is returned; a user-list failure only
// leaves the attendee pickers empty.
func (r *StageRegistry) Reload(ctx context.Context) error {
	var (
		stages entity.StageList
		users  []entity.UserRef
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := r.gateway.ListStages(gctx)
		if err != nil {
			return err
		}
		stages = s
		return nil
	})
	g.Go(func() error {
		u, err := r.gateway.ListUsers(gctx)
		if err != nil {
			r.logger.Warn("fetching users failed", zap.Error(err))
			return nil
		}
		users = u
		return nil
	})

	if err := g.Wait(); err != nil {
		msg := "Unable to fetch stage data"
		if te := remoteError(err); te.Message != genericRemoteMessage {
			msg = te.Message
		}
		return &TechnicalError{Code: CodeStagesUnavailable, Message: msg, Err: err}
	}

	r.stages = stages.Sorted()
	r.users = users
	r.loaded = true
	r.logger.Debug("stage registry loaded", zap.Int("stages", len(r.stages)), zap.Int("users", len(r.users)))
	return nil
}

func (r *StageRegistry) Stages() entity.StageList {
	return r.stages
}

// SelectableUsers lists the users that may be picked as attendees or
// presenters.
func (r *StageRegistry) SelectableUsers() []entity.UserRef {
	return entity.ActiveUsers(r.users)
}

// ResolveUsers maps ids to active users, dropping unknown or inactive ones.
func (r *StageRegistry) ResolveUsers(ids []int) []entity.UserRef {
	byID := make(map[int]entity.UserRef, len(r.users))
	for _, u := range r.SelectableUsers() {
		byID[u.ID] = u
	}
	out := make([]entity.UserRef, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, u)
		}
	}
	return out
}
