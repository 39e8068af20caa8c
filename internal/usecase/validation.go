package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xavierca1/leadflow/internal/entity"
)

const (
	maxNotesLength  = 200
	maxPlaceLength  = 200
	maxRemarkLength = 500

	// A draft is seeded with the current time when the dialog opens, so the
	// start is allowed to lag the clock by this much at submission.
	demoStartGrace = time.Minute
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors reports every invalid field of a draft at once.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field failed validation.
func (v ValidationErrors) Has(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Merge appends the errors of other for fields v does not report yet. Input
// parsing errors take precedence over the checks run on the zero value left
// behind.
func (v ValidationErrors) Merge(other ValidationErrors) ValidationErrors {
	out := append(ValidationErrors(nil), v...)
	for _, e := range other {
		if !out.Has(e.Field) {
			out = append(out, e)
		}
	}
	return out
}

func ValidateDemoSessionDraft(d entity.DemoSessionDraft, now time.Time) ValidationErrors {
	var errors ValidationErrors

	if d.Type == "" {
		errors = append(errors, ValidationError{"type", "is required"})
	} else if !d.Type.Valid() {
		errors = append(errors, ValidationError{"type", "must be online or offline"})
	}

	if d.StartTime.IsZero() {
		errors = append(errors, ValidationError{"start_time", "is required"})
	} else if d.StartTime.Before(now.Add(-demoStartGrace)) {
		errors = append(errors, ValidationError{"start_time", "must not be in the past"})
	}

	if d.EndTime.IsZero() {
		errors = append(errors, ValidationError{"end_time", "is required"})
	} else if !d.StartTime.IsZero() && !d.EndTime.After(d.StartTime) {
		errors = append(errors, ValidationError{"end_time", "must be after the start time"})
	}

	if strings.TrimSpace(d.Notes) == "" {
		errors = append(errors, ValidationError{"notes", "is required"})
	} else if utf8.RuneCountInString(d.Notes) > maxNotesLength {
		errors = append(errors, ValidationError{"notes", fmt.Sprintf("must not exceed %d characters", maxNotesLength)})
	}

	if strings.TrimSpace(d.Place) == "" {
		errors = append(errors, ValidationError{"place", "is required"})
	} else if utf8.RuneCountInString(d.Place) > maxPlaceLength {
		errors = append(errors, ValidationError{"place", fmt.Sprintf("must not exceed %d characters", maxPlaceLength)})
	}

	if len(d.Attendees) == 0 {
		errors = append(errors, ValidationError{"attendees", "at least one attendee is required"})
	}
	if len(d.Presenters) == 0 {
		errors = append(errors, ValidationError{"presenters", "at least one presenter is required"})
	}

	return errors
}

// ParseAmount validates the amount typed for a mandatory-input stage.
func ParseAmount(raw string) (float64, ValidationErrors) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ValidationErrors{{"amount", "is required"}}
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ValidationErrors{{"amount", "must be a valid number"}}
	}
	if amount <= 0 {
		return 0, ValidationErrors{{"amount", "must be greater than zero"}}
	}
	return amount, nil
}

type RemarkInput struct {
	Remark       string `json:"remark"`
	ProjectValue string `json:"project_value"`
}

// ValidateRemark returns the trimmed remark text and the parsed project
// value, nil when none was supplied.
func ValidateRemark(in RemarkInput) (string, *float64, ValidationErrors) {
	var errors ValidationErrors

	text := strings.TrimSpace(in.Remark)
	if text == "" {
		errors = append(errors, ValidationError{"remark", "is required"})
	} else if utf8.RuneCountInString(text) > maxRemarkLength {
		errors = append(errors, ValidationError{"remark", fmt.Sprintf("must not exceed %d characters", maxRemarkLength)})
	}

	var projectValue *float64
	if raw := strings.TrimSpace(in.ProjectValue); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		switch {
		case err != nil || math.IsNaN(v) || math.IsInf(v, 0):
			errors = append(errors, ValidationError{"project_value", "must be a valid number"})
		case v < 0:
			errors = append(errors, ValidationError{"project_value", "must not be negative"})
		default:
			projectValue = &v
		}
	}

	return text, projectValue, errors
}
