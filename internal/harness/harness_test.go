package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskbench/internal/record"
)

func TestVerdict_Indicator(t *testing.T) {
	assert.Equal(t, "code#1", Pass("").Indicator())
	assert.Equal(t, "code#0", Fail("nope").Indicator())
	assert.Equal(t, "code#0 nope", Fail("nope").String())
	assert.Equal(t, "code#1", Pass("").String())
}

func TestVerdict_Equal(t *testing.T) {
	assert.True(t, Fail("a").Equal(Fail("a")))
	assert.False(t, Fail("a").Equal(Fail("b")))
	assert.False(t, Pass("a").Equal(Fail("a")))
}

func TestSafeEvaluate_ReturnsVerdict(t *testing.T) {
	pred := func(s record.Snapshot) (Verdict, error) {
		x, _ := s.Int("x")
		return Verdict{Success: x == 5}, nil
	}

	v, err := SafeEvaluate(1, pred, record.Snapshot{"x": 5})
	require.NoError(t, err)
	assert.True(t, v.Success)
}

func TestSafeEvaluate_ContainsError(t *testing.T) {
	cause := errors.New("boom")
	pred := func(record.Snapshot) (Verdict, error) {
		return Pass("ignored"), cause
	}

	v, err := SafeEvaluate(7, pred, record.Snapshot{})
	assert.Equal(t, ExecutionError(), v)

	var perr *PredicateError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 7, perr.TaskID)
	assert.ErrorIs(t, err, cause)
}

func TestSafeEvaluate_ContainsPanic(t *testing.T) {
	pred := func(s record.Snapshot) (Verdict, error) {
		var m map[string]int
		m["boom"]++ // nil map write panics
		return Pass(""), nil
	}

	v, err := SafeEvaluate(3, pred, record.Snapshot{})
	assert.Equal(t, Verdict{Success: false, Message: "Test execution error"}, v)

	var perr *PredicateError
	require.ErrorAs(t, err, &perr)
	assert.NotNil(t, perr.Panic)
	assert.NotEmpty(t, perr.Stack)
	assert.Contains(t, perr.Error(), "panicked")
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Descriptor{
		{ID: 1, Name: "first"},
		{ID: 5, Name: "second", Layout: LayoutWide},
		{ID: 9, Name: "third"},
	})
	require.NoError(t, err)
	return c
}

func TestCatalog_Lookup(t *testing.T) {
	c := testCatalog(t)

	d, ok := c.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, "second", d.Name)
	assert.Equal(t, LayoutWide, d.Layout)

	d, ok = c.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, LayoutDefault, d.Layout)

	_, ok = c.Lookup(2)
	assert.False(t, ok)
}

func TestCatalog_NeighborsNoWraparound(t *testing.T) {
	c := testCatalog(t)

	prev, next := c.Neighbors(1)
	assert.Nil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, 5, next.ID)

	prev, next = c.Neighbors(5)
	assert.Equal(t, 1, prev.ID)
	assert.Equal(t, 9, next.ID)

	prev, next = c.Neighbors(9)
	assert.Equal(t, 5, prev.ID)
	assert.Nil(t, next)

	prev, next = c.Neighbors(42)
	assert.Nil(t, prev)
	assert.Nil(t, next)
}

func TestCatalog_RejectsDuplicatesAndBadLayout(t *testing.T) {
	_, err := NewCatalog([]Descriptor{{ID: 1}, {ID: 1}})
	assert.ErrorContains(t, err, "duplicate task id 1")

	_, err = NewCatalog([]Descriptor{{ID: 1, Layout: "sideways"}})
	assert.ErrorContains(t, err, "unknown layout")
}

func TestCatalog_AllIsCopy(t *testing.T) {
	c := testCatalog(t)
	all := c.All()
	all[0].Name = "changed"

	d, _ := c.Lookup(1)
	assert.Equal(t, "first", d.Name)
	assert.Equal(t, 3, c.Len())
}
