package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompiler(t *testing.T) *Compiler {
	t.Helper()
	c, err := NewCompiler(4)
	require.NoError(t, err)
	return c
}

func TestCheck_ConcreteValueMatches(t *testing.T) {
	s, err := newCompiler(t).Compile(`vendor_zip: 94103`)
	require.NoError(t, err)

	report := s.Check(map[string]any{"vendor_zip": 94103.0})
	assert.True(t, report.OK(), "unexpected mismatches: %v", report)
}

func TestCheck_ExtraFieldsAllowed(t *testing.T) {
	s, err := newCompiler(t).Compile(`vendor_zip: 94103`)
	require.NoError(t, err)

	report := s.Check(map[string]any{"vendor_zip": 94103.0, "note": "x"})
	assert.True(t, report.OK())
}

func TestCheck_WrongType(t *testing.T) {
	s, err := newCompiler(t).Compile(`vendor_zip: 94103`)
	require.NoError(t, err)

	report := s.Check(map[string]any{"vendor_zip": "94103"})
	require.Len(t, report, 1)
	assert.Equal(t, "vendor_zip", report[0].Path)
	assert.Contains(t, report[0].Expected, "94103")
	assert.Equal(t, `"94103"`, report[0].Actual)
	assert.NotEmpty(t, report[0].Detail)
}

func TestCheck_MissingField(t *testing.T) {
	s, err := newCompiler(t).Compile("manufacturer: string\nmodel: string")
	require.NoError(t, err)

	report := s.Check(map[string]any{"manufacturer": "Acme"})
	require.Len(t, report, 1)
	assert.Equal(t, "model", report[0].Path)
	assert.Equal(t, "<missing>", report[0].Actual)
	assert.Contains(t, report[0].Expected, "string")
}

func TestCheck_NonObjectSubmission(t *testing.T) {
	s, err := newCompiler(t).Compile(`vendor_zip: 94103`)
	require.NoError(t, err)

	report := s.Check("94103")
	require.NotEmpty(t, report)
	assert.Equal(t, "", report[0].Path)
	assert.Equal(t, "object", report[0].Expected)
	assert.Equal(t, `"94103"`, report[0].Actual)
	assert.False(t, report.Verdict().Success)
}

func TestCheck_Constraint(t *testing.T) {
	s, err := newCompiler(t).Compile(`volume: >=0 & <=100`)
	require.NoError(t, err)

	assert.True(t, s.Check(map[string]any{"volume": 40.0}).OK())
	assert.False(t, s.Check(map[string]any{"volume": 140.0}).OK())
}

func TestCompile_ReportsPosition(t *testing.T) {
	_, err := newCompiler(t).Compile("a: {\n")

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, ce.Error(), "schema.cue")
}

func TestCompile_Caches(t *testing.T) {
	c := newCompiler(t)

	a, err := c.Compile(`x: int`)
	require.NoError(t, err)
	b, err := c.Compile(`x: int`)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "x: int", a.Source())
}

func TestCompile_CacheEvicts(t *testing.T) {
	c := newCompiler(t)
	for _, src := range []string{"a: 1", "b: 1", "c: 1", "d: 1", "e: 1"} {
		_, err := c.Compile(src)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, c.Len())
}

func TestIntegralNumbers(t *testing.T) {
	s, err := newCompiler(t).Compile("a: int\nb: int\nc: [...int]\nd: float\ne: number")
	require.NoError(t, err)

	got := integralNumbers(map[string]any{
		"a": 5.0,
		"b": 2.5,
		"c": []any{1.0, "x"},
		"d": 3.0,
		"e": 4.0,
		"f": 6.0,
	}, s.value)
	assert.Equal(t, map[string]any{
		"a": int64(5),
		"b": 2.5,
		"c": []any{int64(1), "x"},
		"d": 3.0,
		"e": 4.0,
		"f": 6.0,
	}, got)
}

func TestCheck_FloatFieldAcceptsIntegralJSON(t *testing.T) {
	s, err := newCompiler(t).Compile("amount: float\ncount: int")
	require.NoError(t, err)

	report := s.Check(map[string]any{"amount": 12.0, "count": 3.0})
	assert.True(t, report.OK(), "unexpected mismatches: %v", report)

	report = s.Check(map[string]any{"amount": 12.5, "count": 3.5})
	require.Len(t, report, 1)
	assert.Equal(t, "count", report[0].Path)
}

func TestCheck_OptionalIntField(t *testing.T) {
	s, err := newCompiler(t).Compile(`qty?: int`)
	require.NoError(t, err)

	assert.True(t, s.Check(map[string]any{"qty": 2.0}).OK())
	assert.True(t, s.Check(map[string]any{}).OK())
}
