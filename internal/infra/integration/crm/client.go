package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/entity"
)

const genericErrorMessage = "Something went wrong"

// APIError is a non-2xx answer from the CRM.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm: %d %s", e.StatusCode, e.Message)
}

// Client talks to the CRM REST backend. A Client is bound to one bearer
// credential; use WithToken to derive a client for another caller.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("crm"),
	}
}

// WithToken returns a copy of the client sending the given credential. An
// empty token sends requests without an Authorization header.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	return &cp
}

func (c *Client) Configured() bool {
	return c.baseURL != ""
}

func (c *Client) ListStages(ctx context.Context) (entity.StageList, error) {
	var out stagesResponse
	if err := c.do(ctx, http.MethodGet, "/lead-status", nil, &out); err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}

	stages := make(entity.StageList, 0, len(out.Response))
	for _, s := range out.Response {
		order := entity.DefaultStageOrder
		if s.Order != nil && *s.Order != 0 {
			order = *s.Order
		}
		stages = append(stages, entity.Stage{
			ID:     s.ID,
			Name:   s.Name,
			Order:  order,
			Active: s.Active == nil || *s.Active,
		})
	}
	return stages, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]entity.UserRef, error) {
	var out []userDTO
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]entity.UserRef, 0, len(out))
	for _, u := range out {
		users = append(users, entity.UserRef{
			ID:          u.ID,
			DisplayName: u.FullName,
			Active:      u.Active == nil || *u.Active,
		})
	}
	return users, nil
}

func (c *Client) ListDemoSessions(ctx context.Context, leadID int) ([]entity.DemoSession, error) {
	var out demoSessionsResponse
	path := "/demo-session?leadId=" + url.QueryEscape(strconv.Itoa(leadID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list demo sessions: %w", err)
	}

	sessions := make([]entity.DemoSession, 0, len(out.Data))
	for _, s := range out.Data {
		sessions = append(sessions, entity.DemoSession{
			ID:         s.ID,
			LeadID:     s.LeadID,
			Type:       entity.DemoSessionType(strings.ToLower(s.Type)),
			StartTime:  parseTime(s.StartTime),
			EndTime:    parseTime(s.EndTime),
			Notes:      s.Notes,
			Place:      s.Place,
			Attendees:  uniqueAttendees(s.Attendees),
			Presenters: uniquePresenters(s.Presenters),
		})
	}
	return sessions, nil
}

// The CRM may list a user more than once per session; the first entry wins.
func uniqueAttendees(in []attendeeDTO) []entity.UserRef {
	seen := make(map[int]bool, len(in))
	out := make([]entity.UserRef, 0, len(in))
	for _, a := range in {
		if seen[a.AttendeeID] {
			continue
		}
		seen[a.AttendeeID] = true
		out = append(out, entity.UserRef{ID: a.AttendeeID, DisplayName: userLabel(a.AttendeeID, a.User), Active: true})
	}
	return out
}

func uniquePresenters(in []presenterDTO) []entity.UserRef {
	seen := make(map[int]bool, len(in))
	out := make([]entity.UserRef, 0, len(in))
	for _, p := range in {
		if seen[p.PresentedBy] {
			continue
		}
		seen[p.PresentedBy] = true
		out = append(out, entity.UserRef{ID: p.PresentedBy, DisplayName: userLabel(p.PresentedBy, p.User), Active: true})
	}
	return out
}

func (c *Client) CreateDemoSession(ctx context.Context, leadID int, draft entity.DemoSessionDraft) error {
	body := createDemoSessionRequest{
		Type:      string(draft.Type),
		StartTime: draft.StartTime.UTC().Format(time.RFC3339Nano),
		EndTime:   draft.EndTime.UTC().Format(time.RFC3339Nano),
		Notes:     draft.Notes,
		Place:     draft.Place,
		LeadID:    leadID,
	}
	for _, id := range entity.UserIDs(draft.Attendees) {
		body.Attendees = append(body.Attendees, attendeeRef{AttendeeID: id})
	}
	for _, id := range entity.UserIDs(draft.Presenters) {
		body.Presenters = append(body.Presenters, presenterRef{PresentedByID: id})
	}

	if err := c.do(ctx, http.MethodPost, "/demo-session", body, nil); err != nil {
		return fmt.Errorf("create demo session: %w", err)
	}
	c.logger.Info("demo session created", zap.Int("lead_id", leadID), zap.String("type", body.Type))
	return nil
}

func (c *Client) SubmitStageAction(ctx context.Context, action StageAction) error {
	if err := c.do(ctx, http.MethodPost, "/lead-status/action", action, nil); err != nil {
		return fmt.Errorf("submit stage action: %w", err)
	}
	c.logger.Info("stage action submitted", zap.Int("lead_id", action.LeadID), zap.String("action", action.Action))
	return nil
}

func (c *Client) UpdateLeadStatus(ctx context.Context, leadID, statusID int) error {
	path := fmt.Sprintf("/lead/%d/status/%d", leadID, statusID)
	if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	c.logger.Info("lead status updated", zap.Int("lead_id", leadID), zap.Int("status_id", statusID))
	return nil
}

func (c *Client) CreateRemark(ctx context.Context, remark entity.NewRemark) error {
	body := createRemarkRequest{
		Remark:       remark.Text,
		LeadID:       remark.LeadID,
		LeadStatusID: remark.StageID,
		CreateBy:     remark.ActorID,
		ProjectValue: remark.ProjectValue,
	}
	if err := c.do(ctx, http.MethodPost, "/status-remarks", body, nil); err != nil {
		return fmt.Errorf("create remark: %w", err)
	}
	return nil
}

func (c *Client) ListRemarks(ctx context.Context, leadID int) ([]entity.Remark, error) {
	var out remarksResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/status-remarks/%d", leadID), nil, &out); err != nil {
		return nil, fmt.Errorf("list remarks: %w", err)
	}

	remarks := make([]entity.Remark, 0, len(out.Response))
	for _, r := range out.Response {
		leadRef := r.LeadID
		if leadRef == 0 {
			leadRef = leadID
		}
		remarks = append(remarks, entity.Remark{
			ID:           r.ID,
			LeadID:       leadRef,
			StageID:      r.StatusID,
			StatusName:   r.StatusName,
			Text:         r.Remark,
			ProjectValue: r.ProjectValue,
			CreatedBy:    string(r.CreatedBy),
			CreatedAt:    parseTime(r.CreatedAt),
		})
	}
	return remarks, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: genericErrorMessage}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			if msg := eb.text(); msg != "" {
				apiErr.Message = msg
			}
		}
		c.logger.Warn("crm rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) addAuthHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// Message extracts the user-facing message of a CRM failure, or "" when err
// did not come from the CRM.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
