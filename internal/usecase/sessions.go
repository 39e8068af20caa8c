package usecase

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/entity"
)

const DefaultSessionTTL = 30 * time.Minute

// ControllerFactory builds a controller bound to the caller's credential.
type ControllerFactory func(lead entity.LeadSnapshot, credential string, actorID int) *ProgressionController

// Caller is who drives a session: the CRM credential of the request and the
// acting user.
type Caller struct {
	Credential string
	ActorID    int
}

func (c Caller) is(other Caller) bool {
	return c.ActorID == other.ActorID &&
		subtle.ConstantTimeCompare([]byte(c.Credential), []byte(other.Credential)) == 1
}

// SessionRegistry hosts one progression controller per lead for the HTTP
// API. Access to a lead is single-flight: a request arriving while another
// one is running for the same lead is refused instead of queued. A session
// only serves the caller that opened it.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[int]*hostedSession
	factory  ControllerFactory
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

type hostedSession struct {
	ctrl     *ProgressionController
	owner    Caller
	busy     bool
	lastUsed time.Time
}

func NewSessionRegistry(factory ControllerFactory, ttl time.Duration, logger *zap.Logger) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRegistry{
		sessions: make(map[int]*hostedSession),
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Open (re)starts the session of a lead for caller, loading its stages and
// remarks. An open dialog of a previous session is discarded.
func (r *SessionRegistry) Open(ctx context.Context, lead entity.LeadSnapshot, caller Caller) (View, error) {
	ctrl := r.factory(lead, caller.Credential, caller.ActorID)

	s, err := r.acquireNew(lead.LeadID, ctrl, caller)
	if err != nil {
		return View{}, err
	}
	defer r.release(lead.LeadID, s)

	if err := ctrl.Load(ctx); err != nil {
		r.drop(lead.LeadID, s)
		return View{}, err
	}
	r.logger.Info("progress session opened", zap.Int("lead_id", lead.LeadID), zap.Int("actor_id", caller.ActorID))
	return ctrl.Snapshot(), nil
}

// With runs fn on the lead's controller while holding the lead. A caller
// other than the one that opened the session gets ErrSessionForbidden.
func (r *SessionRegistry) With(leadID int, caller Caller, fn func(*ProgressionController) error) error {
	s, err := r.acquire(leadID, caller)
	if err != nil {
		return err
	}
	defer r.release(leadID, s)
	return fn(s.ctrl)
}

func (r *SessionRegistry) acquireNew(leadID int, ctrl *ProgressionController, caller Caller) (*hostedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[leadID]; ok {
		if old.busy {
			return nil, ErrTransitionInFlight
		}
		if !old.owner.is(caller) {
			r.logger.Info("progress session taken over",
				zap.Int("lead_id", leadID),
				zap.Int("previous_actor_id", old.owner.ActorID),
				zap.Int("actor_id", caller.ActorID))
		}
	}
	s := &hostedSession{ctrl: ctrl, owner: caller, busy: true, lastUsed: r.now()}
	r.sessions[leadID] = s
	return s, nil
}

func (r *SessionRegistry) acquire(leadID int, caller Caller) (*hostedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[leadID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.owner.is(caller) {
		return nil, ErrSessionForbidden
	}
	if s.busy {
		return nil, ErrTransitionInFlight
	}
	s.busy = true
	return s, nil
}

func (r *SessionRegistry) release(leadID int, s *hostedSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.busy = false
	s.lastUsed = r.now()
}

func (r *SessionRegistry) drop(leadID int, s *hostedSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[leadID] == s {
		delete(r.sessions, leadID)
	}
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed. Busy sessions are never swept.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	closed := 0
	for id, s := range r.sessions {
		if s.busy || s.lastUsed.After(cutoff) {
			continue
		}
		if t := transitionOf(s.ctrl.Phase()); t != nil && t.Done[entity.StepAction] {
			r.logger.Warn("expiring session with a half-applied transition",
				zap.Int("lead_id", id), zap.String("transition_id", t.ID))
		}
		delete(r.sessions, id)
		closed++
	}
	return closed
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
