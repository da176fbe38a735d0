package engine

import (
	"errors"
	"fmt"
)

// Decline reasons reported to callers when a business precondition fails.
// These are part of the API contract: the server forwards them verbatim so a
// UI can explain why an action was refused.
const (
	ReasonNotPending            = "not_pending"
	ReasonAlreadyBusy           = "already_busy"
	ReasonInsufficientSeniority = "insufficient_seniority"
	ReasonNotInProgress         = "not_in_progress"
	ReasonAlreadyTerminal       = "already_terminal"
	ReasonGameOver              = "game_over"
	ReasonGamePaused            = "game_paused"
	ReasonAlreadyPaused         = "already_paused"
	ReasonNotPaused             = "not_paused"
	ReasonGenerationActive      = "generation_active"
	ReasonWrongGame             = "wrong_game"
)

// DeclineError is a rejected business precondition. It is an expected outcome,
// not a fault: callers branch on Reason rather than treating it as fatal.
type DeclineError struct {
	Reason  string
	Message string
}

func (e DeclineError) Error() string { return e.Message }

func declined(reason, format string, args ...any) DeclineError {
	return DeclineError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// IsDeclined reports whether err is a DeclineError, optionally with the given reason.
func IsDeclined(err error, reason string) bool {
	var de DeclineError
	if !errors.As(err, &de) {
		return false
	}
	return reason == "" || de.Reason == reason
}
