// Package schema checks submission payloads against per-task CUE schemas.
//
// A task declares the shape it expects as CUE source, for example
//
//	vendor_zip: 94103
//
// or
//
//	manufacturer: string
//	model:        string & != ""
//
// Checking unifies the schema with the submitted value and requires the
// result to be concrete. Every CUE error becomes one check.Mismatch keyed
// by its field path. Struct schemas are open: extra submitted fields are
// allowed.
package schema

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/taskbench/internal/check"
	"github.com/roach88/taskbench/internal/record"
)

// DefaultCacheSize bounds the number of compiled schemas kept in memory.
const DefaultCacheSize = 128

// CompileError reports invalid schema source with its CUE position.
type CompileError struct {
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: schema: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return "schema: " + e.Message
}

// Compiler compiles and caches schemas. CUE values are not safe for
// concurrent use, so every operation on values created by one Compiler is
// serialized through its lock.
type Compiler struct {
	mu    sync.Mutex
	ctx   *cue.Context
	cache *lru.Cache[string, *Schema]
}

// NewCompiler creates a compiler whose cache holds up to size schemas.
// A non-positive size selects DefaultCacheSize.
func NewCompiler(size int) (*Compiler, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Schema](size)
	if err != nil {
		return nil, fmt.Errorf("create schema cache: %w", err)
	}
	return &Compiler{ctx: cuecontext.New(), cache: cache}, nil
}

// Schema is a compiled submission shape.
type Schema struct {
	owner  *Compiler
	value  cue.Value
	source string
}

// Source returns the CUE text the schema was compiled from.
func (s *Schema) Source() string {
	return s.source
}

// Compile compiles src, returning a cached schema when the same source was
// compiled before.
func (c *Compiler) Compile(src string) (*Schema, error) {
	if s, ok := c.cache.Get(src); ok {
		return s, nil
	}

	c.mu.Lock()
	v := c.ctx.CompileString(src, cue.Filename("schema.cue"))
	err := v.Err()
	c.mu.Unlock()
	if err != nil {
		return nil, formatCUEError(err)
	}

	s := &Schema{owner: c, value: v, source: src}
	c.cache.Add(src, s)
	return s, nil
}

// Len returns the number of cached schemas.
func (c *Compiler) Len() int {
	return c.cache.Len()
}

// Check implements check.Checker.
func (s *Schema) Check(value any) check.Report {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()

	input := s.owner.ctx.Encode(integralNumbers(value, s.value))
	if err := input.Err(); err != nil {
		return check.Report{{Expected: "encodable value", Actual: err.Error()}}
	}

	err := s.value.Unify(input).Validate(cue.Concrete(true), cue.Final())
	if err == nil {
		return nil
	}

	var report check.Report
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		path := strings.Join(e.Path(), ".")
		if seen[path] {
			continue
		}
		seen[path] = true

		format, args := e.Msg()
		report = append(report, check.Mismatch{
			Path:     path,
			Expected: s.expectedAt(path),
			Actual:   actualAt(value, path),
			Detail:   fmt.Sprintf(format, args...),
		})
	}
	return report.Sorted()
}

// expectedAt renders the schema constraint at path.
func (s *Schema) expectedAt(path string) string {
	v := s.value
	if path != "" {
		v = s.value.LookupPath(cue.ParsePath(path))
		if !v.Exists() {
			return "no constraint"
		}
	}
	if v.IncompleteKind() == cue.StructKind {
		return "object"
	}
	return fmt.Sprint(v)
}

// actualAt renders the submitted value at path.
func actualAt(value any, path string) string {
	if path == "" {
		return describe(value)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return check.Missing
	}
	v, ok := record.Snapshot(obj).Lookup(path)
	if !ok {
		return check.Missing
	}
	return describe(v)
}

func describe(v any) string {
	data, err := record.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// integralNumbers rewrites integral float64 values as int64 where the
// schema admits int but not float, so that decoded JSON numbers unify with
// int constraints. Values under number, float or unconstrained paths keep
// their float form.
func integralNumbers(v any, sv cue.Value) any {
	switch val := v.(type) {
	case float64:
		if wantsInt(sv) && val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = integralNumbers(elem, lookupAny(sv, cue.Str(k), cue.Str(k).Optional(), cue.AnyString))
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = integralNumbers(elem, lookupAny(sv, cue.Index(i), cue.AnyIndex))
		}
		return out
	default:
		return v
	}
}

func wantsInt(sv cue.Value) bool {
	if !sv.Exists() {
		return false
	}
	k := sv.IncompleteKind()
	return k&cue.IntKind != 0 && k&cue.FloatKind == 0
}

// lookupAny returns the first constraint found under sels.
func lookupAny(sv cue.Value, sels ...cue.Selector) cue.Value {
	if !sv.Exists() {
		return sv
	}
	for _, sel := range sels {
		if f := sv.LookupPath(cue.MakePath(sel)); f.Exists() {
			return f
		}
	}
	return cue.Value{}
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Message: err.Error()}
	}
	first := errs[0]
	ce := &CompileError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
