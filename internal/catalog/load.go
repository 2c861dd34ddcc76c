// Package catalog loads task catalogs from YAML and binds each task to its
// predicate, either a registered Go predicate or a declarative expect
// block compiled into one.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/taskbench/internal/check"
	"github.com/roach88/taskbench/internal/harness"
	"github.com/roach88/taskbench/internal/schema"
)

//go:embed builtin.yaml
var builtinYAML []byte

// File is the on-disk catalog format.
type File struct {
	Tasks []TaskSpec `yaml:"tasks"`
}

// TaskSpec describes one task in a catalog file.
type TaskSpec struct {
	ID                 int         `yaml:"id"`
	Name               string      `yaml:"name"`
	Instructions       string      `yaml:"instructions"`
	Hint               string      `yaml:"hint,omitempty"`
	Component          string      `yaml:"component"`
	Layout             string      `yaml:"layout,omitempty"`
	RequiresSubmission bool        `yaml:"requires_submission,omitempty"`
	Predicate          string      `yaml:"predicate,omitempty"`
	Expect             *ExpectSpec `yaml:"expect,omitempty"`
}

// ExpectSpec is a declarative predicate. Checks run in the order
// requires, state, submission; the first failure is the verdict.
type ExpectSpec struct {
	// Requires lists record keys that must be present.
	Requires []string `yaml:"requires,omitempty"`

	// State is a subset match of dotted record paths to values.
	State map[string]any `yaml:"state,omitempty"`

	// Submission is CUE source the submitted value must satisfy.
	Submission string `yaml:"submission,omitempty"`
}

// Error reports an invalid task entry.
type Error struct {
	Index   int
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tasks[%d]: %s", e.Index, e.Message)
	}
	return fmt.Sprintf("tasks[%d].%s: %s", e.Index, e.Field, e.Message)
}

// Loader resolves predicates while building catalogs.
type Loader struct {
	Registry *Registry
	Compiler *schema.Compiler
}

// LoadFile reads and builds the catalog at path.
func (l *Loader) LoadFile(path string) (*harness.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return l.Load(bytes.NewReader(data))
}

// LoadBuiltin builds the catalog shipped with taskbench.
func (l *Loader) LoadBuiltin() (*harness.Catalog, error) {
	return l.Load(bytes.NewReader(builtinYAML))
}

// Load parses a catalog document. Unknown fields are rejected.
func (l *Loader) Load(r io.Reader) (*harness.Catalog, error) {
	f, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return l.Build(f)
}

// Parse decodes and validates a catalog document without binding
// predicates.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateFile(&f); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &f, nil
}

func validateFile(f *File) error {
	if len(f.Tasks) == 0 {
		return fmt.Errorf("tasks: at least one task is required")
	}
	for i, t := range f.Tasks {
		if t.ID <= 0 {
			return &Error{Index: i, Field: "id", Message: "must be a positive integer"}
		}
		if strings.TrimSpace(t.Name) == "" {
			return &Error{Index: i, Field: "name", Message: "is required"}
		}
		if t.Predicate != "" && t.Expect != nil {
			return &Error{Index: i, Message: "predicate and expect are mutually exclusive"}
		}
		if t.Expect != nil && len(t.Expect.Requires) == 0 && len(t.Expect.State) == 0 && t.Expect.Submission == "" {
			return &Error{Index: i, Field: "expect", Message: "needs at least one of requires, state, submission"}
		}
		if t.Expect != nil && t.Expect.Submission != "" && !t.RequiresSubmission {
			return &Error{Index: i, Field: "expect.submission", Message: "requires requires_submission: true"}
		}
		if t.Expect == nil {
			continue
		}
		for j, k := range t.Expect.Requires {
			if k == "" {
				return &Error{Index: i, Field: fmt.Sprintf("expect.requires[%d]", j), Message: "empty key"}
			}
		}
	}
	return nil
}

// Build binds predicates and returns the immutable catalog.
func (l *Loader) Build(f *File) (*harness.Catalog, error) {
	tasks := make([]harness.Descriptor, len(f.Tasks))
	for i, t := range f.Tasks {
		pred, err := l.predicate(i, t)
		if err != nil {
			return nil, err
		}
		tasks[i] = harness.Descriptor{
			ID:                 t.ID,
			Name:               t.Name,
			Instructions:       strings.TrimSpace(t.Instructions),
			Hint:               strings.TrimSpace(t.Hint),
			Component:          t.Component,
			Predicate:          pred,
			RequiresSubmission: t.RequiresSubmission,
			Layout:             t.Layout,
		}
	}
	return harness.NewCatalog(tasks)
}

func (l *Loader) predicate(i int, t TaskSpec) (harness.Predicate, error) {
	if t.Predicate != "" {
		if l.Registry == nil {
			return nil, &Error{Index: i, Field: "predicate", Message: "no predicate registry configured"}
		}
		p, ok := l.Registry.LookupPredicate(t.Predicate)
		if !ok {
			return nil, &Error{Index: i, Field: "predicate", Message: fmt.Sprintf("unknown predicate %q", t.Predicate)}
		}
		return p, nil
	}
	if t.Expect == nil {
		return nil, nil
	}

	var preds []harness.Predicate
	if len(t.Expect.Requires) > 0 {
		preds = append(preds, check.Requires(t.Expect.Requires...))
	}
	if len(t.Expect.State) > 0 {
		preds = append(preds, check.StateEquals(t.Expect.State))
	}
	if t.Expect.Submission != "" {
		if l.Compiler == nil {
			return nil, &Error{Index: i, Field: "expect.submission", Message: "no schema compiler configured"}
		}
		s, err := l.Compiler.Compile(t.Expect.Submission)
		if err != nil {
			return nil, &Error{Index: i, Field: "expect.submission", Message: err.Error()}
		}
		preds = append(preds, check.Submission(s))
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return check.All(preds...), nil
}
