package runner

import (
	"errors"
	"fmt"
)

// RunnerErrorCode categorizes runner misuse.
type RunnerErrorCode string

const (
	// ErrCodeInvalidInterval indicates a non-positive polling interval.
	ErrCodeInvalidInterval RunnerErrorCode = "INVALID_INTERVAL"

	// ErrCodeNotBound indicates an operation that needs a graded task.
	ErrCodeNotBound RunnerErrorCode = "NOT_BOUND"
)

// RunnerError reports misuse of a Runner.
type RunnerError struct {
	Code    RunnerErrorCode
	Message string

	// TaskID is the bound task, zero when none.
	TaskID int
}

func (e *RunnerError) Error() string {
	if e.TaskID != 0 {
		return fmt.Sprintf("%s: %s (task=%d)", e.Code, e.Message, e.TaskID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotBound reports whether err is a NOT_BOUND runner error.
func IsNotBound(err error) bool {
	var re *RunnerError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNotBound
	}
	return false
}
