package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// ProgressHandler exposes the status-progression workflow of a lead.
type ProgressHandler struct {
	sessions *usecase.SessionRegistry
	logger   *zap.Logger
}

func NewProgressHandler(sessions *usecase.SessionRegistry, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{sessions: sessions, logger: logger}
}

type OpenProgressRequest struct {
	StatusID int  `json:"status_id"`
	IsLost   bool `json:"is_lost"`
	IsWon    bool `json:"is_won"`
}

type AdvanceRequest struct {
	TargetIndex   int `json:"target_index"`
	TargetStageID int `json:"target_stage_id"`
}

type DemoSessionRequest struct {
	Type         string `json:"type"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Notes        string `json:"notes"`
	Place        string `json:"place"`
	AttendeeIDs  []int  `json:"attendee_ids"`
	PresenterIDs []int  `json:"presenter_ids"`
}

type AmountRequest struct {
	Amount rawNumber `json:"amount"`
}

type RemarkRequest struct {
	Remark       string    `json:"remark"`
	ProjectValue rawNumber `json:"project_value"`
}

func (h *ProgressHandler) Open(w http.ResponseWriter, r *http.Request) {
	leadID, ok := leadIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid lead id")
		return
	}

	if _, ok := actorID(r); !ok {
		writeMessage(w, http.StatusBadRequest, "X-User-Id header is required")
		return
	}

	var req OpenProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	lead := entity.LeadSnapshot{LeadID: leadID, StatusID: req.StatusID, IsLost: req.IsLost, IsWon: req.IsWon}
	view, err := h.sessions.Open(r.Context(), lead, callerOf(r))
	if err != nil {
		h.logger.Warn("opening progress session failed", zap.Int("lead_id", leadID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(c *usecase.ProgressionController) error { return nil })
}

func (h *ProgressHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.run(w, r, func(c *usecase.ProgressionController) error {
		_, err := c.AttemptAdvance(req.TargetIndex, req.TargetStageID)
		if code := usecase.DomainCode(err); code != "" {
			middleware.RecordTransitionRejected(code)
		}
		return err
	})
}

func (h *ProgressHandler) SubmitDemoSession(w http.ResponseWriter, r *http.Request) {
	var req DemoSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.run(w, r, func(c *usecase.ProgressionController) error {
		draft, errs := req.draft(c.Registry())
		if len(errs) > 0 {
			return errs.Merge(c.ValidateDemoSession(draft))
		}
		return c.SubmitDemoSession(r.Context(), draft)
	})
}

func (h *ProgressHandler) SubmitAmount(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.run(w, r, func(c *usecase.ProgressionController) error {
		return c.SubmitAmount(r.Context(), string(req.Amount))
	})
}

func (h *ProgressHandler) SubmitRemark(w http.ResponseWriter, r *http.Request) {
	var req RemarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.run(w, r, func(c *usecase.ProgressionController) error {
		var stage string
		if t, ok := c.Phase().(usecase.AwaitingRemark); ok {
			stage = t.Transition.Stage.Name
		}
		err := c.SubmitRemark(r.Context(), usecase.RemarkInput{
			Remark:       req.Remark,
			ProjectValue: string(req.ProjectValue),
		})
		if err == nil {
			middleware.RecordTransitionCommitted(stage)
		}
		return err
	})
}

func (h *ProgressHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(c *usecase.ProgressionController) error {
		c.Cancel()
		return nil
	})
}

func (h *ProgressHandler) DemoSessions(w http.ResponseWriter, r *http.Request) {
	leadID, ok := leadIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid lead id")
		return
	}

	var sessions []entity.DemoSession
	err := h.sessions.With(leadID, callerOf(r), func(c *usecase.ProgressionController) error {
		var err error
		sessions, err = c.DemoSessions(r.Context())
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": sessions})
}

// run executes fn on the lead's session and answers with the resulting
// view. Errors still answer with the error body; the session keeps its
// state for a retry.
func (h *ProgressHandler) run(w http.ResponseWriter, r *http.Request, fn func(*usecase.ProgressionController) error) {
	leadID, ok := leadIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid lead id")
		return
	}

	var view usecase.View
	err := h.sessions.With(leadID, callerOf(r), func(c *usecase.ProgressionController) error {
		err := fn(c)
		view = c.Snapshot()
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// draft converts the request into a demo session draft. Unknown or
// inactive user ids are dropped, which surfaces as an empty attendee or
// presenter list.
func (req DemoSessionRequest) draft(reg *usecase.StageRegistry) (entity.DemoSessionDraft, usecase.ValidationErrors) {
	var errs usecase.ValidationErrors
	d := entity.DemoSessionDraft{
		Type:       entity.DemoSessionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Notes:      req.Notes,
		Place:      req.Place,
		Attendees:  reg.ResolveUsers(req.AttendeeIDs),
		Presenters: reg.ResolveUsers(req.PresenterIDs),
	}

	if req.StartTime != "" {
		t, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			errs = append(errs, usecase.ValidationError{Field: "start_time", Message: "must be an ISO-8601 timestamp"})
		}
		d.StartTime = t
	}
	if req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			errs = append(errs, usecase.ValidationError{Field: "end_time", Message: "must be an ISO-8601 timestamp"})
		}
		d.EndTime = t
	}
	return d, errs
}
