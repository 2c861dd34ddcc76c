package check

import (
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/taskbench/internal/harness"
	"github.com/roach88/taskbench/internal/record"
)

// SubmissionKey is the reserved record key written by the submission channel.
const SubmissionKey = "submission"

// MessageNoSubmission is returned by Submission before anything is submitted.
const MessageNoSubmission = "No submission yet."

// Pure adapts an infallible grading function to a harness.Predicate.
func Pure(fn func(record.Snapshot) harness.Verdict) harness.Predicate {
	return func(s record.Snapshot) (harness.Verdict, error) {
		return fn(s), nil
	}
}

// Requires fails with the state-not-found verdict unless every key has
// been published.
func Requires(keys ...string) harness.Predicate {
	return func(s record.Snapshot) (harness.Verdict, error) {
		for _, k := range keys {
			if _, ok := s.Lookup(k); !ok {
				return harness.StateNotFound(), nil
			}
		}
		return harness.Pass(""), nil
	}
}

// All evaluates predicates in order and returns the first failing verdict.
// Errors stop evaluation and are returned to the caller.
func All(preds ...harness.Predicate) harness.Predicate {
	return func(s record.Snapshot) (harness.Verdict, error) {
		last := harness.Pass("")
		for _, p := range preds {
			v, err := p(s)
			if err != nil {
				return harness.Verdict{}, err
			}
			if !v.Success {
				return v, nil
			}
			last = v
		}
		return last, nil
	}
}

// StateEquals passes when every expected dotted path holds an equal value
// (subset match; other keys are ignored).
func StateEquals(expected map[string]any) harness.Predicate {
	return func(s record.Snapshot) (harness.Verdict, error) {
		return CompareFields(s.Lookup, expected).Verdict(), nil
	}
}

// Submission applies checker to the submitted value.
func Submission(checker Checker) harness.Predicate {
	return func(s record.Snapshot) (harness.Verdict, error) {
		v, ok := s[SubmissionKey]
		if !ok {
			return harness.Fail(MessageNoSubmission), nil
		}
		return checker.Check(v).Verdict(), nil
	}
}

// Fields returns a Checker matching an object value against expected
// fields with subset semantics.
func Fields(expected map[string]any) Checker {
	return CheckerFunc(func(value any) Report {
		obj, ok := value.(map[string]any)
		if !ok {
			return Report{{Expected: "object", Actual: describe(value)}}
		}
		return CompareFields(record.Snapshot(obj).Lookup, expected)
	})
}

// CompareFields checks each expected path against lookup. Paths are
// visited in sorted order so reports are deterministic.
func CompareFields(lookup func(string) (any, bool), expected map[string]any) Report {
	paths := make([]string, 0, len(expected))
	for p := range expected {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var report Report
	for _, p := range paths {
		want := expected[p]
		got, ok := lookup(p)
		if !ok {
			report = append(report, Mismatch{Path: p, Expected: describe(want), Actual: Missing})
			continue
		}
		if !Equal(want, got) {
			m := Mismatch{Path: p, Expected: describe(want), Actual: describe(got)}
			if isContainer(want) && isContainer(got) {
				m.Detail = Diff(want, got)
			}
			report = append(report, m)
		}
	}
	return report
}

// Equal compares JSON-like values. Numbers compare by value regardless of
// their Go type, so 5, int64(5) and 5.0 are equal.
func Equal(a, b any) bool {
	return cmp.Equal(normalize(a), normalize(b))
}

// Diff returns a human-readable difference between two JSON-like values.
func Diff(want, got any) string {
	return cmp.Diff(normalize(want), normalize(got))
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

// normalize rewrites numbers as float64 throughout nested containers.
func normalize(v any) any {
	if f, ok := record.ToFloat(v); ok {
		return f
	}
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalize(elem)
		}
		return out
	case record.Snapshot:
		return normalize(map[string]any(val))
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalize(elem)
		}
		return out
	default:
		return v
	}
}
