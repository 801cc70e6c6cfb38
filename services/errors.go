package services

import (
	"errors"
	"fmt"

	"calendrunAPI/internal/types/challenge"
)

var (
	// ErrForbidden means the caller tried to act on another user's
	// instance or run. Checked before any mutation.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited means the invite-token attempt budget is exhausted.
	ErrRateLimited = errors.New("too many attempts")

	// ErrEventWrite means the ingestion write failed after all retries.
	// The state the caller already holds is NOT rolled back here; the
	// client must retry or reload.
	ErrEventWrite = errors.New("event write failed")
)

// ValidationError is a synchronous rejection of bad input: unknown variant,
// non-positive distance, distance below the day's planned minimum, and so
// on. Handlers map it to a 400 with the plain message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SwitchRejectedError rejects a variant switch atomically and carries every
// violating run, so the UI can show all of them at once rather than just
// the first.
type SwitchRejectedError struct {
	InvalidRuns []challenge.InvalidRun
}

func (e *SwitchRejectedError) Error() string {
	return fmt.Sprintf("variant switch rejected: %d runs no longer satisfy their day's requirement", len(e.InvalidRuns))
}
