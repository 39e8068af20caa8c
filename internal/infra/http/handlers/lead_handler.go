package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/export"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// GatewayFactory binds a CRM gateway to the caller's credential.
type GatewayFactory func(credential string) usecase.CRMGateway

// JournalReader reads the transition journal for support inspection.
type JournalReader interface {
	StepsForLeads(ctx context.Context, leadIDs []int) ([]entity.TransitionStepRecord, error)
}

// LeadHandler serves read-only lead data that does not need a session.
type LeadHandler struct {
	gateways GatewayFactory
	journal  JournalReader
	logger   *zap.Logger
}

func NewLeadHandler(gateways GatewayFactory, journal JournalReader, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{gateways: gateways, journal: journal, logger: logger}
}

func (h *LeadHandler) Remarks(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	preview, _ := strconv.Atoi(r.URL.Query().Get("preview"))
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    ledger.Len(),
		"timeline": ledger.Timeline(preview),
	})
}

func (h *LeadHandler) ExportRemarks(w http.ResponseWriter, r *http.Request) {
	leadID, _ := leadIDParam(r)
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRemarks(&buf, leadID, ledger.Entries()); err != nil {
		h.logger.Error("exporting remarks failed", zap.Int("lead_id", leadID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Unable to export remarks")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="lead_%d_remarks.xlsx"`, leadID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *LeadHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	leadID, ok := leadIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid lead id")
		return
	}
	if h.journal == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Transition journal is not configured")
		return
	}

	steps, err := h.journal.StepsForLeads(r.Context(), []int{leadID})
	if err != nil {
		h.logger.Error("reading transition journal failed", zap.Int("lead_id", leadID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if steps == nil {
		steps = []entity.TransitionStepRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": steps})
}

func (h *LeadHandler) ActiveUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.gateways(credential(r)).ListUsers(r.Context())
	if err != nil {
		writeError(w, &usecase.TechnicalError{
			Code:    usecase.CodeRemoteFailure,
			Message: "Unable to fetch users",
			Err:     err,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entity.ActiveUsers(users)})
}

func (h *LeadHandler) ledger(w http.ResponseWriter, r *http.Request) (*usecase.RemarkLedger, bool) {
	leadID, ok := leadIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid lead id")
		return nil, false
	}

	ledger := usecase.NewRemarkLedger(h.gateways(credential(r)), leadID)
	if err := ledger.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return nil, false
	}
	return ledger, true
}
