package usecase

import (
	"context"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/integration/crm"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

// CRMGateway is the remote lead-status service. *crm.Client implements it.
type CRMGateway interface {
	ListStages(ctx context.Context) (entity.StageList, error)
	ListUsers(ctx context.Context) ([]entity.UserRef, error)
	ListDemoSessions(ctx context.Context, leadID int) ([]entity.DemoSession, error)
	CreateDemoSession(ctx context.Context, leadID int, draft entity.DemoSessionDraft) error
	SubmitStageAction(ctx context.Context, action crm.StageAction) error
	UpdateLeadStatus(ctx context.Context, leadID, statusID int) error
	CreateRemark(ctx context.Context, remark entity.NewRemark) error
	ListRemarks(ctx context.Context, leadID int) ([]entity.Remark, error)
}

type QueueProducerInterface interface {
	PublishStageCommitted(ctx context.Context, event queue.StageCommittedEvent) error
}
