// Package check provides composable predicate building blocks and the
// structured mismatch report used to explain failing verdicts.
package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/taskbench/internal/harness"
	"github.com/roach88/taskbench/internal/record"
)

// Missing is rendered for values absent from the record.
const Missing = "<missing>"

// Mismatch describes one field that did not meet expectations.
type Mismatch struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`

	// Detail is a structural diff for nested values or the validator message.
	Detail string `json:"detail,omitempty"`
}

func (m Mismatch) String() string {
	path := m.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s: expected %s, got %s", path, m.Expected, m.Actual)
}

// Report is the ordered list of mismatches for one check. An empty report
// means the value matched.
type Report []Mismatch

// OK reports whether there are no mismatches.
func (r Report) OK() bool {
	return len(r) == 0
}

// Sorted returns the report ordered by path for stable messages.
func (r Report) Sorted() Report {
	out := make(Report, len(r))
	copy(out, r)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Verdict converts the report into a verdict. A failing verdict lists
// each mismatch on its own line.
func (r Report) Verdict() harness.Verdict {
	if r.OK() {
		return harness.Pass("")
	}
	lines := make([]string, len(r))
	for i, m := range r {
		lines[i] = m.String()
	}
	return harness.Fail(strings.Join(lines, "\n"))
}

// Checker validates an arbitrary value, typically a submission payload.
type Checker interface {
	Check(value any) Report
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(value any) Report

// Check implements Checker.
func (f CheckerFunc) Check(value any) Report {
	return f(value)
}

// describe renders a value for a mismatch message.
func describe(v any) string {
	data, err := record.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
