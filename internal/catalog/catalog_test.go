package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskbench/internal/harness"
	"github.com/roach88/taskbench/internal/record"
	"github.com/roach88/taskbench/internal/schema"
)

func newLoader(t *testing.T) *Loader {
	t.Helper()
	c, err := schema.NewCompiler(16)
	require.NoError(t, err)
	return &Loader{Registry: Builtins(), Compiler: c}
}

func eval(t *testing.T, d *harness.Descriptor, s record.Snapshot) harness.Verdict {
	t.Helper()
	v, err := d.Predicate(s)
	require.NoError(t, err)
	return v
}

func TestLoadFile(t *testing.T) {
	cat, err := newLoader(t).LoadFile("testdata/catalog.yaml")
	require.NoError(t, err)
	require.Equal(t, 3, cat.Len())

	cart, ok := cat.Lookup(10)
	require.True(t, ok)
	assert.Equal(t, harness.StateNotFound(), eval(t, cart, record.Snapshot{}))
	assert.False(t, eval(t, cart, record.Snapshot{"cart": map[string]any{"items": 2.0}}).Success)
	assert.True(t, eval(t, cart, record.Snapshot{"cart": map[string]any{"items": 3.0}}).Success)

	form, _ := cat.Lookup(11)
	assert.True(t, form.RequiresSubmission)
	assert.False(t, eval(t, form, record.Snapshot{"submission": map[string]any{"name": "Ada"}}).Success)
	assert.True(t, eval(t, form, record.Snapshot{
		"submission": map[string]any{"name": "Ada", "email": "ada@example.com"},
	}).Success)

	free, _ := cat.Lookup(12)
	assert.False(t, free.Graded())
	assert.Equal(t, harness.LayoutDefault, free.Layout)
}

func TestLoadBuiltin(t *testing.T) {
	cat, err := newLoader(t).LoadBuiltin()
	require.NoError(t, err)

	for _, d := range cat.All() {
		assert.True(t, d.Graded(), "task %d should be graded", d.ID)
		assert.NotEmpty(t, d.Instructions, "task %d", d.ID)
	}

	demo, ok := cat.Lookup(1)
	require.True(t, ok)
	assert.False(t, eval(t, demo, record.Snapshot{"x": 0.0}).Success)
	assert.True(t, eval(t, demo, record.Snapshot{"x": 5.0}).Success)

	zip, _ := cat.Lookup(3)
	assert.True(t, eval(t, zip, record.Snapshot{"submission": map[string]any{"vendor_zip": 94103.0}}).Success)
	v := eval(t, zip, record.Snapshot{"submission": map[string]any{"vendor_zip": 94107.0}})
	assert.False(t, v.Success)
	assert.Contains(t, v.Message, "vendor_zip")

	product, _ := cat.Lookup(4)
	assert.True(t, eval(t, product, record.Snapshot{
		"submission": map[string]any{"manufacturer": "Acme", "model": "RX-200"},
	}).Success)

	dark, _ := cat.Lookup(6)
	assert.Equal(t, harness.LayoutFull, dark.Layout)
	assert.True(t, eval(t, dark, record.Snapshot{"settings": map[string]any{"dark_mode": true}}).Success)
}

func TestBuiltinPredicates(t *testing.T) {
	r := Builtins()

	counter, ok := r.LookupPredicate(PredicateCounterTen)
	require.True(t, ok)
	v, err := counter(record.Snapshot{"counter": 7.0})
	require.NoError(t, err)
	assert.Equal(t, harness.Fail("counter is 7, want 10"), v)

	slider, _ := r.LookupPredicate(PredicateSliderWindow)
	v, err = slider(record.Snapshot{"slider": map[string]any{"value": 75.5}})
	require.NoError(t, err)
	assert.Equal(t, "slider at 75.5, want between 40 and 60", v.Message)

	v, err = slider(record.Snapshot{"slider.value": 50})
	require.NoError(t, err)
	assert.True(t, v.Success)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	pred := func(record.Snapshot) (harness.Verdict, error) { return harness.Pass(""), nil }

	require.NoError(t, r.Register("custom.ok", pred))
	assert.ErrorContains(t, r.Register("custom.ok", pred), "already registered")
	assert.Error(t, r.Register("", pred))
	assert.Error(t, r.Register("custom.nil", nil))
	assert.Equal(t, []string{"custom.ok"}, r.Names())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown field",
			doc:  "tasks:\n  - id: 1\n    name: a\n    predicat: demo.x_equals_5\n",
			want: "field predicat not found",
		},
		{
			name: "empty",
			doc:  "tasks: []\n",
			want: "at least one task",
		},
		{
			name: "bad id",
			doc:  "tasks:\n  - id: 0\n    name: a\n",
			want: "tasks[0].id",
		},
		{
			name: "missing name",
			doc:  "tasks:\n  - id: 1\n  - id: 2\n    name: \"\"\n",
			want: "tasks[0].name",
		},
		{
			name: "both predicate and expect",
			doc:  "tasks:\n  - id: 1\n    name: a\n    predicate: demo.x_equals_5\n    expect:\n      requires: [x]\n",
			want: "mutually exclusive",
		},
		{
			name: "unknown predicate",
			doc:  "tasks:\n  - id: 1\n    name: a\n    predicate: demo.nope\n",
			want: `unknown predicate "demo.nope"`,
		},
		{
			name: "submission without surface",
			doc:  "tasks:\n  - id: 1\n    name: a\n    expect:\n      submission: \"a: 1\"\n",
			want: "tasks[0].expect.submission",
		},
		{
			name: "bad schema",
			doc:  "tasks:\n  - id: 1\n    name: a\n    requires_submission: true\n    expect:\n      submission: \"a: {\"\n",
			want: "tasks[0].expect.submission",
		},
		{
			name: "duplicate id",
			doc:  "tasks:\n  - id: 1\n    name: a\n  - id: 1\n    name: b\n",
			want: "duplicate task id 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newLoader(t).Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ErrorType(t *testing.T) {
	_, err := newLoader(t).Load(strings.NewReader("tasks:\n  - id: 1\n    name: a\n    predicate: missing\n"))

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 0, cerr.Index)
	assert.Equal(t, "predicate", cerr.Field)
}
