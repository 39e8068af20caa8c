package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/integration/crm"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

var (
	_ CRMGateway             = (*MockGateway)(nil)
	_ QueueProducerInterface = (*MockQueueProducer)(nil)
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListStages(ctx context.Context) (entity.StageList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.StageList), args.Error(1)
}

func (m *MockGateway) ListUsers(ctx context.Context) ([]entity.UserRef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserRef), args.Error(1)
}

func (m *MockGateway) ListDemoSessions(ctx context.Context, leadID int) ([]entity.DemoSession, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DemoSession), args.Error(1)
}

func (m *MockGateway) CreateDemoSession(ctx context.Context, leadID int, draft entity.DemoSessionDraft) error {
	args := m.Called(ctx, leadID, draft)
	return args.Error(0)
}

func (m *MockGateway) SubmitStageAction(ctx context.Context, action crm.StageAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *MockGateway) UpdateLeadStatus(ctx context.Context, leadID, statusID int) error {
	args := m.Called(ctx, leadID, statusID)
	return args.Error(0)
}

func (m *MockGateway) CreateRemark(ctx context.Context, remark entity.NewRemark) error {
	args := m.Called(ctx, remark)
	return args.Error(0)
}

func (m *MockGateway) ListRemarks(ctx context.Context, leadID int) ([]entity.Remark, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Remark), args.Error(1)
}

type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishStageCommitted(ctx context.Context, event queue.StageCommittedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const (
	testLeadID  = 42
	testActorID = 7
)

// testStages is returned out of order on purpose; sorted it reads
// New, Contacted, Demo Scheduled, Proposal, Negotiation (inactive), Won.
func testStages() entity.StageList {
	return entity.StageList{
		{ID: 6, Name: "Won", Order: 6, Active: true},
		{ID: 1, Name: "New", Order: 1, Active: true},
		{ID: 3, Name: "Demo Scheduled", Order: 3, Active: true},
		{ID: 2, Name: "Contacted", Order: 2, Active: true},
		{ID: 5, Name: "Negotiation", Order: 5, Active: false},
		{ID: 4, Name: "Proposal", Order: 4, Active: true},
	}
}

func testUsers() []entity.UserRef {
	return []entity.UserRef{
		{ID: 7, DisplayName: "Ana Souza", Active: true},
		{ID: 8, DisplayName: "Bruno Lima", Active: true},
		{ID: 9, DisplayName: "Carla Dias", Active: false},
	}
}

type harness struct {
	gw      *MockGateway
	queue   *MockQueueProducer
	clock   *fakeClock
	journal *MemoryJournal
	ctrl    *ProgressionController
}

// newHarness builds a controller for lead on a fake clock. The caller sets
// up ListRemarks before calling load.
func newHarness(t *testing.T, lead entity.LeadSnapshot) *harness {
	t.Helper()
	h := &harness{
		gw:      new(MockGateway),
		queue:   new(MockQueueProducer),
		clock:   newFakeClock(),
		journal: NewMemoryJournal(),
	}
	h.gw.On("ListStages", mock.Anything).Return(testStages(), nil)
	h.gw.On("ListUsers", mock.Anything).Return(testUsers(), nil)

	ids := 0
	h.ctrl = NewProgressionController(ProgressionDeps{
		Gateway: h.gw,
		Journal: h.journal,
		Queue:   h.queue,
		Now:     h.clock.Now,
		NewID: func() string {
			ids++
			return fmt.Sprintf("tr-%d", ids)
		},
	}, lead, testActorID)
	return h
}

func (h *harness) load(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.Load(context.Background()))
}

func leadOn(statusID int) entity.LeadSnapshot {
	return entity.LeadSnapshot{LeadID: testLeadID, StatusID: statusID}
}
