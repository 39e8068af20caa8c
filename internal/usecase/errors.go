package usecase

import (
	"errors"

	"github.com/xavierca1/leadflow/internal/infra/integration/crm"
)

// Transition-precondition codes.
const (
	CodeInactiveStatus     = "inactive_status"
	CodeTerminalState      = "terminal_state"
	CodeBackwardTransition = "backward_transition"
	CodeUnknownStage       = "unknown_stage"
	CodeDialogOpen         = "dialog_open"
	CodeInvalidState       = "invalid_state"
	CodeTransitionInFlight = "transition_in_flight"
	CodeSessionNotFound    = "session_not_found"
	CodeSessionForbidden   = "session_forbidden"
)

// Remote failure codes.
const (
	CodeRemoteFailure     = "remote_failure"
	CodeStagesUnavailable = "stages_unavailable"
)

const genericRemoteMessage = "Something went wrong"

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// DomainCode returns the code of a DomainError in err's chain, or "".
func DomainCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// TechnicalError is a remote failure. Message is safe to show to the user;
// Err keeps the underlying cause for logs.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

var (
	errInactiveStatus     = &DomainError{CodeInactiveStatus, "This status is currently inactive and cannot be selected"}
	errTerminalState      = &DomainError{CodeTerminalState, "Cannot change status for a lost or won lead."}
	errBackwardTransition = &DomainError{CodeBackwardTransition, "Cannot go back or re-select current stage."}
	errUnknownStage       = &DomainError{CodeUnknownStage, "Unknown status"}
	errDialogOpen         = &DomainError{CodeDialogOpen, "Finish or cancel the open dialog first"}

	ErrTransitionInFlight = &DomainError{CodeTransitionInFlight, "Another update for this lead is still in progress"}
	ErrSessionNotFound    = &DomainError{CodeSessionNotFound, "No status session is open for this lead"}
	ErrSessionForbidden   = &DomainError{CodeSessionForbidden, "This status session was opened by another user"}
)

func invalidState(msg string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: msg}
}

// remoteError converts a gateway failure into the message shown to the
// user, preferring the one the CRM sent.
func remoteError(err error) *TechnicalError {
	msg := crm.Message(err)
	if msg == "" {
		msg = genericRemoteMessage
	}
	return &TechnicalError{Code: CodeRemoteFailure, Message: msg, Err: err}
}
