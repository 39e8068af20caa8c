package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/integration/crm"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

type ProgressionDeps struct {
	Gateway CRMGateway
	Journal entity.TransitionJournal
	Queue   QueueProducerInterface
	Logger  *zap.Logger
	Now     func() time.Time
	NewID   func() string
}

// ProgressionController drives one lead through its status stages. It is
// owned by a single caller at a time and holds no locks; the HTTP layer
// serialises requests per lead and the terminal client runs it on its
// update loop.
type ProgressionController struct {
	gateway CRMGateway
	journal entity.TransitionJournal
	queue   QueueProducerInterface
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	lead    entity.LeadSnapshot
	actorID int

	registry    *StageRegistry
	ledger      *RemarkLedger
	progress    entity.LeadProgressState
	phase       Phase
	celebration Celebration
	notice      string
}

func NewProgressionController(deps ProgressionDeps, lead entity.LeadSnapshot, actorID int) *ProgressionController {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	logger := deps.Logger.With(zap.Int("lead_id", lead.LeadID), zap.Int("actor_id", actorID))
	return &ProgressionController{
		gateway:  deps.Gateway,
		journal:  deps.Journal,
		queue:    deps.Queue,
		logger:   logger,
		now:      deps.Now,
		newID:    deps.NewID,
		lead:     lead,
		actorID:  actorID,
		registry: NewStageRegistry(deps.Gateway, logger),
		ledger:   NewRemarkLedger(deps.Gateway, lead.LeadID),
		progress: entity.LeadProgressState{IsLost: lead.IsLost, IsWon: lead.IsWon},
		phase:    Idle{},
	}
}

// Load fetches the stage registry and the remark ledger. Only a stage
// failure is returned.
func (c *ProgressionController) Load(ctx context.Context) error {
	if err := c.registry.Load(ctx); err != nil {
		return err
	}
	c.progress = entity.DeriveProgress(c.registry.Stages(), c.lead)
	if err := c.ledger.Refresh(ctx); err != nil {
		c.logger.Warn("fetching remarks failed", zap.Error(err))
	}
	return nil
}

// Reload refetches stages, users and remarks and recomputes the current
// stage index, which moves when the stage order changed on the server. Only
// a stage failure is returned; the previous stages stay in place.
func (c *ProgressionController) Reload(ctx context.Context) error {
	if c.phase.Kind() != PhaseIdle {
		return errDialogOpen
	}
	if err := c.registry.Reload(ctx); err != nil {
		return err
	}
	c.progress = entity.DeriveProgress(c.registry.Stages(), c.lead)
	if err := c.ledger.Refresh(ctx); err != nil {
		c.logger.Warn("fetching remarks failed", zap.Error(err))
	}
	return nil
}

// UpdateLead recomputes progress after the lead changed outside this
// controller.
func (c *ProgressionController) UpdateLead(lead entity.LeadSnapshot) {
	lead.LeadID = c.lead.LeadID
	c.lead = lead
	c.progress = entity.DeriveProgress(c.registry.Stages(), lead)
}

// AttemptAdvance checks whether the lead may move to the target stage and
// opens the matching dialog. Nothing is sent to the CRM yet.
func (c *ProgressionController) AttemptAdvance(targetIndex, targetStageID int) (Phase, error) {
	if c.phase.Kind() != PhaseIdle {
		return c.phase, errDialogOpen
	}

	stage, ok := c.registry.Stages().At(targetIndex)
	if !ok || stage.ID != targetStageID {
		return c.phase, errUnknownStage
	}
	if !stage.Active {
		return c.phase, errInactiveStatus
	}
	if c.progress.Terminal() {
		return c.phase, errTerminalState
	}
	if targetIndex <= c.progress.CurrentStageIndex {
		return c.phase, errBackwardTransition
	}

	t := &Transition{ID: c.newID(), TargetIndex: targetIndex, Stage: stage}

	var next Phase
	switch phaseFor(stage) {
	case PhaseAwaitingDemoInput:
		next = AwaitingDemoInput{Transition: t, Draft: entity.NewDemoSessionDraft(c.now())}
	case PhaseAwaitingAmountInput:
		next = AwaitingAmountInput{Transition: t}
	default:
		next = AwaitingRemark{Transition: t}
	}
	if err := c.enter(next); err != nil {
		return c.phase, err
	}

	c.notice = ""
	c.logger.Info("transition opened",
		zap.String("transition_id", t.ID),
		zap.String("stage", stage.Name),
		zap.String("phase", string(next.Kind())))
	return next, nil
}

// ValidateDemoSession checks a draft against the controller's clock without
// submitting it.
func (c *ProgressionController) ValidateDemoSession(draft entity.DemoSessionDraft) ValidationErrors {
	return ValidateDemoSessionDraft(draft, c.now())
}

func (c *ProgressionController) SubmitDemoSession(ctx context.Context, draft entity.DemoSessionDraft) error {
	p, ok := c.phase.(AwaitingDemoInput)
	if !ok {
		return invalidState("No demo session dialog is open")
	}
	p.Draft = draft
	c.phase = p

	if errs := ValidateDemoSessionDraft(draft, c.now()); len(errs) > 0 {
		return errs
	}

	err := c.sequence(p.Transition).
		Then(entity.StepAction, func(ctx context.Context) error {
			return c.gateway.CreateDemoSession(ctx, c.lead.LeadID, draft)
		}).
		Execute(ctx)
	if err != nil {
		return c.remoteFailure(p.Transition, err)
	}

	c.notice = "Demo session details saved!"
	return c.enter(AwaitingRemark{Transition: p.Transition})
}

func (c *ProgressionController) SubmitAmount(ctx context.Context, raw string) error {
	p, ok := c.phase.(AwaitingAmountInput)
	if !ok {
		return invalidState("No amount dialog is open")
	}

	amount, errs := ParseAmount(raw)
	if len(errs) > 0 {
		return errs
	}

	t := p.Transition
	err := c.sequence(t).
		Then(entity.StepAction, func(ctx context.Context) error {
			return c.gateway.SubmitStageAction(ctx, crm.StageAction{
				Action:  t.Stage.Name,
				ActorID: c.actorID,
				Amount:  amount,
				LeadID:  c.lead.LeadID,
			})
		}).
		Execute(ctx)
	if err != nil {
		return c.remoteFailure(t, err)
	}

	t.Amount = &amount
	c.notice = t.Stage.Name + " details saved!"
	return c.enter(AwaitingRemark{Transition: t})
}

// SubmitRemark writes the closing remark and then commits the new status.
// The stage index moves only after both calls succeed. A retry after a
// failed commit does not write the remark again.
func (c *ProgressionController) SubmitRemark(ctx context.Context, in RemarkInput) error {
	p, ok := c.phase.(AwaitingRemark)
	if !ok {
		return invalidState("No remark dialog is open")
	}

	text, projectValue, errs := ValidateRemark(in)
	if len(errs) > 0 {
		return errs
	}

	t := p.Transition
	err := c.sequence(t).
		Then(entity.StepRemark, func(ctx context.Context) error {
			return c.gateway.CreateRemark(ctx, entity.NewRemark{
				LeadID:       c.lead.LeadID,
				StageID:      t.Stage.ID,
				ActorID:      c.actorID,
				Text:         text,
				ProjectValue: projectValue,
			})
		}).
		Then(entity.StepCommit, func(ctx context.Context) error {
			return c.gateway.UpdateLeadStatus(ctx, c.lead.LeadID, t.Stage.ID)
		}).
		Execute(ctx)
	if err != nil {
		return c.remoteFailure(t, err)
	}

	c.commit(t)
	if err := c.enter(Idle{}); err != nil {
		return err
	}

	if err := c.ledger.Refresh(ctx); err != nil {
		c.logger.Warn("refreshing remarks after commit failed", zap.Error(err))
	}
	c.publish(ctx, t, text, projectValue)
	return nil
}

// Cancel closes the open dialog without touching the CRM.
func (c *ProgressionController) Cancel() {
	t := transitionOf(c.phase)
	if t == nil {
		return
	}
	if t.Done[entity.StepAction] {
		c.logger.Warn("transition abandoned after its action was applied",
			zap.String("transition_id", t.ID),
			zap.String("stage", t.Stage.Name))
	}
	c.phase = Idle{}
	c.notice = ""
}

func (c *ProgressionController) commit(t *Transition) {
	c.progress.CurrentStageIndex = t.TargetIndex
	c.lead.StatusID = t.Stage.ID
	c.notice = "Remark submitted!"

	if t.Stage.Is("won") {
		c.progress.IsWon = true
		c.lead.IsWon = true
		c.celebration.start(c.now())
	}

	c.logger.Info("stage committed",
		zap.String("transition_id", t.ID),
		zap.String("stage", t.Stage.Name),
		zap.Int("stage_index", t.TargetIndex))
}

func (c *ProgressionController) publish(ctx context.Context, t *Transition, remark string, projectValue *float64) {
	if c.queue == nil {
		return
	}
	event := queue.StageCommittedEvent{
		TransitionID: t.ID,
		LeadID:       c.lead.LeadID,
		StageID:      t.Stage.ID,
		StageName:    t.Stage.Name,
		ActorID:      c.actorID,
		Amount:       t.Amount,
		Remark:       remark,
		ProjectValue: projectValue,
		CommittedAt:  c.now(),
	}
	if err := c.queue.PublishStageCommitted(ctx, event); err != nil {
		c.logger.Warn("publishing stage event failed", zap.String("transition_id", t.ID), zap.Error(err))
	}
}

func (c *ProgressionController) enter(next Phase) error {
	if !canEnter(c.phase.Kind(), next.Kind()) {
		return invalidState("Cannot move from " + string(c.phase.Kind()) + " to " + string(next.Kind()))
	}
	c.phase = next
	return nil
}

func (c *ProgressionController) sequence(t *Transition) *Sequence {
	return newSequence(t, c.lead.LeadID, c.journal, c.logger, c.now)
}

func (c *ProgressionController) remoteFailure(t *Transition, err error) error {
	c.logger.Warn("transition step failed",
		zap.String("transition_id", t.ID),
		zap.String("phase", string(c.phase.Kind())),
		zap.Error(err))
	return remoteError(err)
}

func (c *ProgressionController) LeadID() int                        { return c.lead.LeadID }
func (c *ProgressionController) Phase() Phase                       { return c.phase }
func (c *ProgressionController) Progress() entity.LeadProgressState { return c.progress }
func (c *ProgressionController) Registry() *StageRegistry           { return c.registry }
func (c *ProgressionController) Ledger() *RemarkLedger              { return c.ledger }
func (c *ProgressionController) Celebration() Celebration           { return c.celebration }

// Celebrating reports whether the Won effect is currently showing.
func (c *ProgressionController) Celebrating() bool {
	return c.celebration.Active(c.now())
}

// DemoSessions lists the sessions already scheduled for the lead.
func (c *ProgressionController) DemoSessions(ctx context.Context) ([]entity.DemoSession, error) {
	sessions, err := c.gateway.ListDemoSessions(ctx, c.lead.LeadID)
	if err != nil {
		return nil, remoteError(err)
	}
	return sessions, nil
}
