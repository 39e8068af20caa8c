package usecase

import (
	"github.com/xavierca1/leadflow/internal/entity"
)

type PhaseKind string

const (
	PhaseIdle                PhaseKind = "idle"
	PhaseAwaitingDemoInput   PhaseKind = "awaiting_demo_input"
	PhaseAwaitingAmountInput PhaseKind = "awaiting_amount_input"
	PhaseAwaitingRemark      PhaseKind = "awaiting_remark"
)

// phaseTransitions is the only place that says which phase may follow
// which.
var phaseTransitions = map[PhaseKind]map[PhaseKind]bool{
	PhaseIdle:                {PhaseAwaitingDemoInput: true, PhaseAwaitingAmountInput: true, PhaseAwaitingRemark: true},
	PhaseAwaitingDemoInput:   {PhaseAwaitingRemark: true, PhaseIdle: true},
	PhaseAwaitingAmountInput: {PhaseAwaitingRemark: true, PhaseIdle: true},
	PhaseAwaitingRemark:      {PhaseIdle: true},
}

func canEnter(from, to PhaseKind) bool {
	return phaseTransitions[from][to]
}

// Stages whose transition has to capture an amount before the remark.
var mandatoryInputStages = []string{"Proposal", "Won"}

// phaseFor picks the data-collection flow for a target stage.
func phaseFor(stage entity.Stage) PhaseKind {
	if stage.Mentions("demo") {
		return PhaseAwaitingDemoInput
	}
	for _, name := range mandatoryInputStages {
		if stage.Is(name) {
			return PhaseAwaitingAmountInput
		}
	}
	return PhaseAwaitingRemark
}

// Transition is one accepted move towards a later stage. Done tracks the
// remote steps already applied.
type Transition struct {
	ID          string                         `json:"id"`
	TargetIndex int                            `json:"target_index"`
	Stage       entity.Stage                   `json:"stage"`
	Amount      *float64                       `json:"amount,omitempty"`
	Done        map[entity.TransitionStep]bool `json:"done,omitempty"`
}

// clone returns a copy that shares no memory with t.
func (t *Transition) clone() *Transition {
	if t == nil {
		return nil
	}
	out := *t
	if t.Amount != nil {
		amount := *t.Amount
		out.Amount = &amount
	}
	if t.Done != nil {
		out.Done = make(map[entity.TransitionStep]bool, len(t.Done))
		for step, done := range t.Done {
			out.Done[step] = done
		}
	}
	return &out
}

// Phase is the dialog the lead's status bar is in. The concrete types are
// Idle, AwaitingDemoInput, AwaitingAmountInput and AwaitingRemark.
type Phase interface {
	Kind() PhaseKind
	isPhase()
}

type Idle struct{}

type AwaitingDemoInput struct {
	Transition *Transition
	Draft      entity.DemoSessionDraft
}

type AwaitingAmountInput struct {
	Transition *Transition
}

type AwaitingRemark struct {
	Transition *Transition
}

func (Idle) Kind() PhaseKind                { return PhaseIdle }
func (AwaitingDemoInput) Kind() PhaseKind   { return PhaseAwaitingDemoInput }
func (AwaitingAmountInput) Kind() PhaseKind { return PhaseAwaitingAmountInput }
func (AwaitingRemark) Kind() PhaseKind      { return PhaseAwaitingRemark }

func (Idle) isPhase()                {}
func (AwaitingDemoInput) isPhase()   {}
func (AwaitingAmountInput) isPhase() {}
func (AwaitingRemark) isPhase()      {}

// transitionOf returns the transition being collected, nil when idle.
func transitionOf(p Phase) *Transition {
	switch p := p.(type) {
	case AwaitingDemoInput:
		return p.Transition
	case AwaitingAmountInput:
		return p.Transition
	case AwaitingRemark:
		return p.Transition
	}
	return nil
}
