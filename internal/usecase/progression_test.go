package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/integration/crm"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

func TestLoad_DerivesCurrentStageFromStatus(t *testing.T) {
	h := newHarness(t, leadOn(4))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	assert.Equal(t, 3, h.ctrl.Progress().CurrentStageIndex)
	assert.Equal(t, PhaseIdle, h.ctrl.Phase().Kind())

	names := make([]string, 0)
	for _, s := range h.ctrl.Registry().Stages() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"New", "Contacted", "Demo Scheduled", "Proposal", "Negotiation", "Won"}, names)
}

func TestLoad_RemarkFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, leadOn(2))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return(nil, errors.New("timeout"))

	require.NoError(t, h.ctrl.Load(context.Background()))
	assert.Equal(t, 0, h.ctrl.Ledger().Len())
}

func TestAttemptAdvance_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		lead    entity.LeadSnapshot
		index   int
		stageID int
		code    string
	}{
		{"backward", leadOn(4), 1, 2, CodeBackwardTransition},
		{"current stage", leadOn(4), 3, 4, CodeBackwardTransition},
		{"inactive stage", leadOn(2), 4, 5, CodeInactiveStatus},
		{"inactive stage behind current", leadOn(6), 4, 5, CodeInactiveStatus},
		{"inactive stage is current", leadOn(5), 4, 5, CodeInactiveStatus},
		{"index out of range", leadOn(2), 99, 1, CodeUnknownStage},
		{"stage id mismatch", leadOn(2), 2, 4, CodeUnknownStage},
		{"lost lead", entity.LeadSnapshot{LeadID: testLeadID, StatusID: 2, IsLost: true}, 2, 3, CodeTerminalState},
		{"won lead", entity.LeadSnapshot{LeadID: testLeadID, StatusID: 6, IsWon: true}, 5, 6, CodeTerminalState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.lead)
			h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
			h.load(t)
			before := h.ctrl.Progress()

			phase, err := h.ctrl.AttemptAdvance(tt.index, tt.stageID)

			require.Error(t, err)
			assert.Equal(t, tt.code, DomainCode(err))
			assert.Equal(t, PhaseIdle, phase.Kind())
			assert.Equal(t, before, h.ctrl.Progress())
			h.gw.AssertNotCalled(t, "UpdateLeadStatus", mock.Anything, mock.Anything, mock.Anything)
			h.gw.AssertNotCalled(t, "CreateRemark", mock.Anything, mock.Anything)
		})
	}
}

func TestAttemptAdvance_RoutesToDialog(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		stageID int
		want    PhaseKind
	}{
		{"plain stage asks for a remark", 1, 2, PhaseAwaitingRemark},
		{"demo stage asks for a session", 2, 3, PhaseAwaitingDemoInput},
		{"proposal asks for an amount", 3, 4, PhaseAwaitingAmountInput},
		{"won asks for an amount", 5, 6, PhaseAwaitingAmountInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, leadOn(1))
			h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
			h.load(t)

			phase, err := h.ctrl.AttemptAdvance(tt.index, tt.stageID)

			require.NoError(t, err)
			assert.Equal(t, tt.want, phase.Kind())
			assert.Equal(t, 0, h.ctrl.Progress().CurrentStageIndex)

			tr := transitionOf(phase)
			require.NotNil(t, tr)
			assert.Equal(t, tt.index, tr.TargetIndex)
			assert.Equal(t, tt.stageID, tr.Stage.ID)
		})
	}
}

func TestAttemptAdvance_DemoDraftStartsNow(t *testing.T) {
	h := newHarness(t, leadOn(2))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	phase, err := h.ctrl.AttemptAdvance(2, 3)
	require.NoError(t, err)

	demo, ok := phase.(AwaitingDemoInput)
	require.True(t, ok)
	assert.Equal(t, h.clock.Now(), demo.Draft.StartTime)
	assert.True(t, demo.Draft.EndTime.IsZero())
}

func TestAttemptAdvance_RefusedWhileDialogOpen(t *testing.T) {
	h := newHarness(t, leadOn(1))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	_, err := h.ctrl.AttemptAdvance(1, 2)
	require.NoError(t, err)

	phase, err := h.ctrl.AttemptAdvance(3, 4)
	assert.Equal(t, CodeDialogOpen, DomainCode(err))
	assert.Equal(t, PhaseAwaitingRemark, phase.Kind())
	assert.Equal(t, 2, transitionOf(phase).Stage.ID)
}

// TestDemoFlow_EndToEnd - Contacted to Demo Scheduled through the demo
// dialog and the remark dialog.
func TestDemoFlow_EndToEnd(t *testing.T) {
	h := newHarness(t, leadOn(2))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil).Once()
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{
		{ID: 90, LeadID: testLeadID, StageID: 3, StatusName: "Demo Scheduled", Text: "Demo booked with the buyer"},
	}, nil).Once()
	h.load(t)

	_, err := h.ctrl.AttemptAdvance(2, 3)
	require.NoError(t, err)

	start := h.clock.Now().Add(time.Hour)
	invalid := entity.DemoSessionDraft{
		Type:       entity.DemoSessionOnline,
		StartTime:  start,
		EndTime:    start,
		Notes:      "Walk through the reporting module",
		Place:      "Google Meet",
		Attendees:  []entity.UserRef{{ID: 8, DisplayName: "Bruno Lima", Active: true}},
		Presenters: []entity.UserRef{{ID: 7, DisplayName: "Ana Souza", Active: true}},
	}

	err = h.ctrl.SubmitDemoSession(context.Background(), invalid)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("end_time"))
	h.gw.AssertNotCalled(t, "CreateDemoSession", mock.Anything, mock.Anything, mock.Anything)

	retained, ok := h.ctrl.Phase().(AwaitingDemoInput)
	require.True(t, ok)
	assert.Equal(t, "Google Meet", retained.Draft.Place)

	valid := invalid
	valid.EndTime = start.Add(time.Hour)
	h.gw.On("CreateDemoSession", mock.Anything, testLeadID, mock.MatchedBy(func(d entity.DemoSessionDraft) bool {
		return d.Type == entity.DemoSessionOnline && d.EndTime.Equal(start.Add(time.Hour))
	})).Return(nil).Once()

	require.NoError(t, h.ctrl.SubmitDemoSession(context.Background(), valid))
	assert.Equal(t, PhaseAwaitingRemark, h.ctrl.Phase().Kind())
	assert.Equal(t, "Demo session details saved!", h.ctrl.Snapshot().Notice)
	assert.Equal(t, 1, h.ctrl.Progress().CurrentStageIndex)

	h.gw.On("CreateRemark", mock.Anything, entity.NewRemark{
		LeadID:  testLeadID,
		StageID: 3,
		ActorID: testActorID,
		Text:    "Demo booked with the buyer",
	}).Return(nil).Once()
	h.gw.On("UpdateLeadStatus", mock.Anything, testLeadID, 3).Return(nil).Once()
	h.queue.On("PublishStageCommitted", mock.Anything, mock.MatchedBy(func(e queue.StageCommittedEvent) bool {
		return e.TransitionID == "tr-1" && e.StageName == "Demo Scheduled" && e.Amount == nil
	})).Return(nil).Once()

	err = h.ctrl.SubmitRemark(context.Background(), RemarkInput{Remark: "  Demo booked with the buyer  "})
	require.NoError(t, err)

	assert.Equal(t, PhaseIdle, h.ctrl.Phase().Kind())
	assert.Equal(t, 2, h.ctrl.Progress().CurrentStageIndex)
	assert.False(t, h.ctrl.Celebrating())
	assert.Equal(t, 1, h.ctrl.Ledger().Len())

	steps := make([]entity.TransitionStep, 0)
	for _, r := range h.journal.Records() {
		assert.Equal(t, "tr-1", r.TransitionID)
		steps = append(steps, r.Step)
	}
	assert.Equal(t, []entity.TransitionStep{entity.StepAction, entity.StepRemark, entity.StepCommit}, steps)

	h.gw.AssertExpectations(t)
	h.queue.AssertExpectations(t)
}

// TestWonFlow_CelebrationClearsAfterFiveSeconds - Proposal to Won with the
// amount dialog, then the celebration window on the fake clock.
func TestWonFlow_CelebrationClearsAfterFiveSeconds(t *testing.T) {
	h := newHarness(t, leadOn(4))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	_, err := h.ctrl.AttemptAdvance(5, 6)
	require.NoError(t, err)

	for _, raw := range []string{"", "0", "-5", "abc"} {
		err := h.ctrl.SubmitAmount(context.Background(), raw)
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs, "amount %q", raw)
		assert.True(t, verrs.Has("amount"))
	}
	h.gw.AssertNotCalled(t, "SubmitStageAction", mock.Anything, mock.Anything)

	h.gw.On("SubmitStageAction", mock.Anything, crm.StageAction{
		Action:  "Won",
		ActorID: testActorID,
		Amount:  100.50,
		LeadID:  testLeadID,
	}).Return(nil).Once()
	require.NoError(t, h.ctrl.SubmitAmount(context.Background(), "100.50"))
	assert.Equal(t, "Won details saved!", h.ctrl.Snapshot().Notice)

	h.gw.On("CreateRemark", mock.Anything, mock.Anything).Return(nil).Once()
	h.gw.On("UpdateLeadStatus", mock.Anything, testLeadID, 6).Return(nil).Once()
	h.queue.On("PublishStageCommitted", mock.Anything, mock.MatchedBy(func(e queue.StageCommittedEvent) bool {
		return e.StageID == 6 && e.Amount != nil && *e.Amount == 100.50
	})).Return(nil).Once()

	require.NoError(t, h.ctrl.SubmitRemark(context.Background(), RemarkInput{Remark: "Signed"}))

	assert.True(t, h.ctrl.Progress().IsWon)
	assert.Equal(t, 5, h.ctrl.Progress().CurrentStageIndex)
	assert.True(t, h.ctrl.Celebrating())
	assert.Equal(t, CelebrationDuration, h.ctrl.Snapshot().CelebrateFor)

	h.clock.Advance(4999 * time.Millisecond)
	assert.True(t, h.ctrl.Celebrating())

	h.clock.Advance(time.Millisecond)
	assert.False(t, h.ctrl.Celebrating())
	assert.Equal(t, 1, h.ctrl.Celebration().Count())

	_, err = h.ctrl.AttemptAdvance(5, 6)
	assert.Equal(t, CodeTerminalState, DomainCode(err))
}

func TestSubmitRemark_RetryAfterCommitFailureSkipsRemark(t *testing.T) {
	h := newHarness(t, leadOn(1))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	_, err := h.ctrl.AttemptAdvance(1, 2)
	require.NoError(t, err)

	h.gw.On("CreateRemark", mock.Anything, mock.Anything).Return(nil).Once()
	h.gw.On("UpdateLeadStatus", mock.Anything, testLeadID, 2).
		Return(&crm.APIError{StatusCode: 500, Message: "Status update failed"}).Once()

	err = h.ctrl.SubmitRemark(context.Background(), RemarkInput{Remark: "Called, interested"})
	var te *TechnicalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Status update failed", te.Message)
	assert.Equal(t, PhaseAwaitingRemark, h.ctrl.Phase().Kind())
	assert.Equal(t, 0, h.ctrl.Progress().CurrentStageIndex)

	h.gw.On("UpdateLeadStatus", mock.Anything, testLeadID, 2).Return(nil).Once()
	h.queue.On("PublishStageCommitted", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, h.ctrl.SubmitRemark(context.Background(), RemarkInput{Remark: "Called, interested"}))
	assert.Equal(t, 1, h.ctrl.Progress().CurrentStageIndex)
	h.gw.AssertNumberOfCalls(t, "CreateRemark", 1)
	h.gw.AssertNumberOfCalls(t, "UpdateLeadStatus", 2)
}

func TestSubmitRemark_ResumesFromJournal(t *testing.T) {
	h := newHarness(t, leadOn(1))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	require.NoError(t, h.journal.Record(context.Background(), entity.TransitionStepRecord{
		TransitionID: "tr-1",
		LeadID:       testLeadID,
		StageID:      2,
		Step:         entity.StepRemark,
		CompletedAt:  h.clock.Now(),
	}))

	_, err := h.ctrl.AttemptAdvance(1, 2)
	require.NoError(t, err)

	h.gw.On("UpdateLeadStatus", mock.Anything, testLeadID, 2).Return(nil).Once()
	h.queue.On("PublishStageCommitted", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, h.ctrl.SubmitRemark(context.Background(), RemarkInput{Remark: "Already logged"}))
	h.gw.AssertNotCalled(t, "CreateRemark", mock.Anything, mock.Anything)
	assert.Equal(t, 1, h.ctrl.Progress().CurrentStageIndex)
}

func TestSubmitRemark_Validation(t *testing.T) {
	h := newHarness(t, leadOn(1))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	_, err := h.ctrl.AttemptAdvance(1, 2)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input RemarkInput
		field string
	}{
		{"empty", RemarkInput{Remark: ""}, "remark"},
		{"whitespace only", RemarkInput{Remark: "   \n\t"}, "remark"},
		{"too long", RemarkInput{Remark: strings.Repeat("a", 501)}, "remark"},
		{"negative project value", RemarkInput{Remark: "ok", ProjectValue: "-1"}, "project_value"},
		{"invalid project value", RemarkInput{Remark: "ok", ProjectValue: "lots"}, "project_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.ctrl.SubmitRemark(context.Background(), tt.input)
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.True(t, verrs.Has(tt.field))
		})
	}
	h.gw.AssertNotCalled(t, "CreateRemark", mock.Anything, mock.Anything)

	value := 2500.0
	h.gw.On("CreateRemark", mock.Anything, mock.MatchedBy(func(r entity.NewRemark) bool {
		return len(r.Text) == 500 && r.ProjectValue != nil && *r.ProjectValue == value
	})).Return(nil).Once()
	h.gw.On("UpdateLeadStatus", mock.Anything, testLeadID, 2).Return(nil).Once()
	h.queue.On("PublishStageCommitted", mock.Anything, mock.Anything).Return(nil).Once()

	err = h.ctrl.SubmitRemark(context.Background(), RemarkInput{Remark: strings.Repeat("a", 500), ProjectValue: "2500"})
	require.NoError(t, err)
}

func TestSubmitRemark_PublishFailureDoesNotUndoCommit(t *testing.T) {
	h := newHarness(t, leadOn(1))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	_, err := h.ctrl.AttemptAdvance(1, 2)
	require.NoError(t, err)

	h.gw.On("CreateRemark", mock.Anything, mock.Anything).Return(nil)
	h.gw.On("UpdateLeadStatus", mock.Anything, testLeadID, 2).Return(nil)
	h.queue.On("PublishStageCommitted", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	require.NoError(t, h.ctrl.SubmitRemark(context.Background(), RemarkInput{Remark: "Reached out"}))
	assert.Equal(t, 1, h.ctrl.Progress().CurrentStageIndex)
	assert.Equal(t, PhaseIdle, h.ctrl.Phase().Kind())
}

func TestSubmitAmount_RemoteFailureKeepsDialog(t *testing.T) {
	h := newHarness(t, leadOn(3))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	_, err := h.ctrl.AttemptAdvance(3, 4)
	require.NoError(t, err)

	h.gw.On("SubmitStageAction", mock.Anything, mock.Anything).
		Return(&crm.APIError{StatusCode: 400, Message: "Amount rejected"}).Once()

	err = h.ctrl.SubmitAmount(context.Background(), "1200")
	var te *TechnicalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Amount rejected", te.Message)
	assert.Equal(t, PhaseAwaitingAmountInput, h.ctrl.Phase().Kind())

	h.gw.On("SubmitStageAction", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	err = h.ctrl.SubmitAmount(context.Background(), "1200")
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Something went wrong", te.Message)

	h.gw.On("SubmitStageAction", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, h.ctrl.SubmitAmount(context.Background(), "1200"))
	assert.Equal(t, PhaseAwaitingRemark, h.ctrl.Phase().Kind())
}

func TestCancel_ReturnsToIdleWithoutRemoteCalls(t *testing.T) {
	h := newHarness(t, leadOn(3))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	_, err := h.ctrl.AttemptAdvance(3, 4)
	require.NoError(t, err)

	h.ctrl.Cancel()

	assert.Equal(t, PhaseIdle, h.ctrl.Phase().Kind())
	assert.Equal(t, 2, h.ctrl.Progress().CurrentStageIndex)
	h.gw.AssertNotCalled(t, "SubmitStageAction", mock.Anything, mock.Anything)
	h.gw.AssertNotCalled(t, "UpdateLeadStatus", mock.Anything, mock.Anything, mock.Anything)

	phase, err := h.ctrl.AttemptAdvance(3, 4)
	require.NoError(t, err)
	assert.Equal(t, "tr-2", transitionOf(phase).ID)
}

func TestSubmit_OutsideItsDialog(t *testing.T) {
	h := newHarness(t, leadOn(1))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	assert.Equal(t, CodeInvalidState, DomainCode(h.ctrl.SubmitRemark(context.Background(), RemarkInput{Remark: "x"})))
	assert.Equal(t, CodeInvalidState, DomainCode(h.ctrl.SubmitAmount(context.Background(), "10")))
	assert.Equal(t, CodeInvalidState, DomainCode(h.ctrl.SubmitDemoSession(context.Background(), entity.DemoSessionDraft{})))

	_, err := h.ctrl.AttemptAdvance(1, 2)
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidState, DomainCode(h.ctrl.SubmitAmount(context.Background(), "10")))
}

func TestReload_RederivesCurrentStage(t *testing.T) {
	h := new(MockGateway)
	reordered := entity.StageList{
		{ID: 1, Name: "New", Order: 1, Active: true},
		{ID: 3, Name: "Demo Scheduled", Order: 2, Active: true},
		{ID: 4, Name: "Proposal", Order: 3, Active: true},
		{ID: 2, Name: "Contacted", Order: 4, Active: true},
		{ID: 6, Name: "Won", Order: 5, Active: true},
	}
	h.On("ListStages", mock.Anything).Return(testStages(), nil).Once()
	h.On("ListStages", mock.Anything).Return(reordered, nil).Once()
	h.On("ListUsers", mock.Anything).Return(testUsers(), nil)
	h.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	ctrl := NewProgressionController(ProgressionDeps{Gateway: h, Journal: NewMemoryJournal()}, leadOn(2), testActorID)
	require.NoError(t, ctrl.Load(context.Background()))
	require.Equal(t, 1, ctrl.Progress().CurrentStageIndex)

	require.NoError(t, ctrl.Reload(context.Background()))

	assert.Equal(t, 3, ctrl.Progress().CurrentStageIndex)
	assert.Equal(t, 3, ctrl.Snapshot().Progress.CurrentStageIndex)
	assert.True(t, ctrl.Snapshot().Stages[3].Current)
	_, err := ctrl.AttemptAdvance(2, 4)
	assert.Equal(t, CodeBackwardTransition, DomainCode(err))
}

func TestReload_RefusedWhileDialogOpen(t *testing.T) {
	h := newHarness(t, leadOn(2))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)
	_, err := h.ctrl.AttemptAdvance(2, 3)
	require.NoError(t, err)

	err = h.ctrl.Reload(context.Background())

	assert.Equal(t, CodeDialogOpen, DomainCode(err))
	assert.Equal(t, PhaseAwaitingDemoInput, h.ctrl.Phase().Kind())
	h.gw.AssertNumberOfCalls(t, "ListStages", 1)
}

func TestUpdateLead_RecomputesProgress(t *testing.T) {
	h := newHarness(t, leadOn(1))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	h.ctrl.UpdateLead(entity.LeadSnapshot{LeadID: 999, StatusID: 4, IsLost: true})

	assert.Equal(t, testLeadID, h.ctrl.LeadID())
	assert.Equal(t, 3, h.ctrl.Progress().CurrentStageIndex)
	assert.True(t, h.ctrl.Progress().Terminal())
}

func TestSnapshot_StageFlagsAndHints(t *testing.T) {
	h := newHarness(t, leadOn(2))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{
		{ID: 11, StageID: 2, StatusName: "Contacted", Text: "Called the client"},
	}, nil)
	h.load(t)

	v := h.ctrl.Snapshot()
	require.Len(t, v.Stages, 6)

	assert.True(t, v.Stages[0].Completed)
	assert.False(t, v.Stages[0].Clickable)

	assert.True(t, v.Stages[1].Current)
	assert.Equal(t, "Called the client", v.Stages[1].Hint)

	assert.True(t, v.Stages[2].Clickable)
	assert.False(t, v.Stages[4].Clickable)
	assert.Equal(t, "This status is inactive", v.Stages[4].Hint)
	assert.True(t, v.Stages[5].Clickable)

	assert.Len(t, v.Users, 2)
	assert.Len(t, v.Timeline, 1)
	assert.Nil(t, v.Transition)
	assert.Nil(t, v.DemoDraft)
}

func TestDemoSessions_MapsRemoteFailure(t *testing.T) {
	h := newHarness(t, leadOn(1))
	h.gw.On("ListRemarks", mock.Anything, testLeadID).Return([]entity.Remark{}, nil)
	h.load(t)

	h.gw.On("ListDemoSessions", mock.Anything, testLeadID).
		Return(nil, &crm.APIError{StatusCode: 403, Message: "Forbidden lead"}).Once()
	_, err := h.ctrl.DemoSessions(context.Background())
	var te *TechnicalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Forbidden lead", te.Message)

	h.gw.On("ListDemoSessions", mock.Anything, testLeadID).
		Return([]entity.DemoSession{{ID: 1, LeadID: testLeadID, Type: entity.DemoSessionOffline}}, nil).Once()
	sessions, err := h.ctrl.DemoSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
