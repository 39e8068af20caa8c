package crm

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type stageDTO struct {
	ID     int    `json:"ilead_status_id"`
	Name   string `json:"clead_name"`
	Order  *int   `json:"orderId"`
	Active *bool  `json:"bactive"`
}

type stagesResponse struct {
	Response []stageDTO `json:"response"`
}

type userDTO struct {
	ID       int    `json:"iUser_id"`
	FullName string `json:"cFull_name"`
	Active   *bool  `json:"bactive"`
}

type sessionUserDTO struct {
	FullName string `json:"cFull_name"`
}

type attendeeDTO struct {
	ID         int             `json:"idemoSessionAttendeesId"`
	AttendeeID int             `json:"attendeeId"`
	User       *sessionUserDTO `json:"user"`
}

type presenterDTO struct {
	ID          int             `json:"idemo_session_presented_by"`
	PresentedBy int             `json:"presented_by"`
	User        *sessionUserDTO `json:"user"`
}

type demoSessionDTO struct {
	ID         int            `json:"idemo_session_id"`
	LeadID     int            `json:"ilead_id"`
	Type       string         `json:"demo_session_type"`
	StartTime  string         `json:"demo_session_start_time"`
	EndTime    string         `json:"demo_session_end_time"`
	Notes      string         `json:"notes"`
	Place      string         `json:"place"`
	Attendees  []attendeeDTO  `json:"attendees"`
	Presenters []presenterDTO `json:"presenters"`
}

type demoSessionsResponse struct {
	Data []demoSessionDTO `json:"data"`
}

type attendeeRef struct {
	AttendeeID int `json:"attendeeId"`
}

type presenterRef struct {
	PresentedByID int `json:"presentedById"`
}

type createDemoSessionRequest struct {
	Type       string         `json:"demoSessionType"`
	StartTime  string         `json:"demoSessionStartTime"`
	EndTime    string         `json:"demoSessionEndTime"`
	Notes      string         `json:"notes"`
	Place      string         `json:"place"`
	LeadID     int            `json:"leadId"`
	Attendees  []attendeeRef  `json:"demoSessionAttendees"`
	Presenters []presenterRef `json:"demoSessionPresenters"`
}

// StageAction is the amount capture sent for mandatory-input stages.
type StageAction struct {
	Action  string  `json:"caction"`
	ActorID int     `json:"iaction_doneby"`
	Amount  float64 `json:"iamount"`
	LeadID  int     `json:"ilead_id"`
}

type createRemarkRequest struct {
	Remark       string   `json:"remark"`
	LeadID       int      `json:"leadId"`
	LeadStatusID int      `json:"leadStatusId"`
	CreateBy     int      `json:"createBy"`
	ProjectValue *float64 `json:"projectValue,omitempty"`
}

type remarkDTO struct {
	ID           int        `json:"ilead_status_remarks_id"`
	LeadID       int        `json:"ilead_id"`
	StatusID     int        `json:"lead_status_id"`
	Remark       string     `json:"lead_status_remarks"`
	ProjectValue *float64   `json:"project_value"`
	CreatedBy    flexString `json:"createdBy"`
	CreatedAt    string     `json:"dcreated_dt"`
	StatusName   string     `json:"status_name"`
}

type remarksResponse struct {
	Response []remarkDTO `json:"Response"`
}

// errorBody covers the error shapes the CRM returns: a plain message, or a
// capitalised Message object with either a message or a list of issues.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Upper   *struct {
		Message string   `json:"message"`
		Issues  []string `json:"issues"`
	} `json:"Message"`
}

func (b errorBody) text() string {
	if b.Upper != nil {
		if len(b.Upper.Issues) > 0 {
			return strings.Join(b.Upper.Issues, ", ")
		}
		if b.Upper.Message != "" {
			return b.Upper.Message
		}
	}
	var s string
	if len(b.Message) > 0 && json.Unmarshal(b.Message, &s) == nil {
		return s
	}
	return ""
}

// flexString accepts either a JSON string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

func parseTime(raw string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func userLabel(id int, u *sessionUserDTO) string {
	if u != nil && u.FullName != "" {
		return u.FullName
	}
	return "User ID " + strconv.Itoa(id)
}
