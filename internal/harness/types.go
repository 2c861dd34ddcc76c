package harness

import (
	"fmt"
	"runtime/debug"

	"github.com/roach88/taskbench/internal/record"
)

// Reserved verdict messages.
const (
	MessageExecutionError = "Test execution error"
	MessageStateNotFound  = "App state not found."
)

// Indicator values rendered in the viewer chrome for automation drivers.
const (
	IndicatorPass = "code#1"
	IndicatorFail = "code#0"
)

// Verdict is the outcome of one predicate evaluation.
type Verdict struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Pass returns a successful verdict.
func Pass(message string) Verdict {
	return Verdict{Success: true, Message: message}
}

// Fail returns a failing verdict.
func Fail(message string) Verdict {
	return Verdict{Success: false, Message: message}
}

// Failf returns a failing verdict with a formatted message.
func Failf(format string, args ...any) Verdict {
	return Verdict{Success: false, Message: fmt.Sprintf(format, args...)}
}

// StateNotFound is the conventional verdict for a predicate that finds
// nothing published yet.
func StateNotFound() Verdict {
	return Fail(MessageStateNotFound)
}

// ExecutionError is the verdict substituted for a predicate that errors
// or panics.
func ExecutionError() Verdict {
	return Fail(MessageExecutionError)
}

// Equal reports whether two verdicts carry the same (success, message) pair.
func (v Verdict) Equal(other Verdict) bool {
	return v.Success == other.Success && v.Message == other.Message
}

// Indicator returns the machine-parseable success marker.
func (v Verdict) Indicator() string {
	if v.Success {
		return IndicatorPass
	}
	return IndicatorFail
}

func (v Verdict) String() string {
	if v.Message == "" {
		return v.Indicator()
	}
	return v.Indicator() + " " + v.Message
}

// Predicate grades the inspection record for one task.
type Predicate func(snap record.Snapshot) (Verdict, error)

// PredicateError describes a contained predicate failure.
type PredicateError struct {
	TaskID int
	Cause  error  // set when the predicate returned an error
	Panic  any    // set when the predicate panicked
	Stack  []byte // stack captured at the panic site
}

func (e *PredicateError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("task %d: predicate panicked: %v", e.TaskID, e.Panic)
	}
	return fmt.Sprintf("task %d: predicate failed: %v", e.TaskID, e.Cause)
}

func (e *PredicateError) Unwrap() error {
	return e.Cause
}

// SafeEvaluate calls pred and contains any error or panic. On failure it
// returns ExecutionError() together with a *PredicateError describing what
// happened; the verdict is always usable.
func SafeEvaluate(taskID int, pred Predicate, snap record.Snapshot) (v Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = ExecutionError()
			err = &PredicateError{TaskID: taskID, Panic: r, Stack: debug.Stack()}
		}
	}()

	v, perr := pred(snap)
	if perr != nil {
		return ExecutionError(), &PredicateError{TaskID: taskID, Cause: perr}
	}
	return v, nil
}
