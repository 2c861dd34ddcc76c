package record

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_DottedPaths(t *testing.T) {
	snap := Snapshot{
		"cart":      map[string]any{"items": map[string]any{"count": 3.0}},
		"form.name": "flat key",
	}

	v, ok := snap.Lookup("cart.items.count")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	s, ok := snap.String("form.name")
	require.True(t, ok)
	assert.Equal(t, "flat key", s)

	_, ok = snap.Lookup("cart.missing")
	assert.False(t, ok)

	_, ok = snap.Lookup("form.name.deeper")
	assert.False(t, ok)
}

func TestTypedAccessors(t *testing.T) {
	snap := Snapshot{
		"i":    5,
		"f":    5.0,
		"frac": 2.5,
		"n":    json.Number("7"),
		"b":    true,
		"s":    "text",
	}

	i, ok := snap.Int("i")
	assert.True(t, ok)
	assert.Equal(t, int64(5), i)

	i, ok = snap.Int("f")
	assert.True(t, ok)
	assert.Equal(t, int64(5), i)

	_, ok = snap.Int("frac")
	assert.False(t, ok)

	f, ok := snap.Float("n")
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	b, ok := snap.Bool("b")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = snap.Bool("s")
	assert.False(t, ok)

	_, ok = snap.Float("s")
	assert.False(t, ok)
}

func TestCanonical_Golden(t *testing.T) {
	snap := Snapshot{
		"zeta":   true,
		"alpha":  []any{1, 2.5, "<tag>"},
		"count":  5.0,
		"note":   nil,
		"nested": map[string]any{"b": false, "a": "x"},
	}

	data, err := snap.Canonical()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "widget_state", data)
}

func TestCanonical_IntAndFloatAgree(t *testing.T) {
	a, err := Snapshot{"x": 5}.Canonical()
	require.NoError(t, err)
	b, err := Snapshot{"x": 5.0}.Canonical()
	require.NoError(t, err)
	c, err := Snapshot{"x": json.Number("5")}.Canonical()
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
	assert.Equal(t, string(a), string(c))
}

func TestCanonical_KeyOrderIndependent(t *testing.T) {
	a := Snapshot{"a": 1, "b": 2, "c": map[string]any{"y": 1, "x": 2}}
	b := Snapshot{"c": map[string]any{"x": 2, "y": 1}, "b": 2, "a": 1}

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 64)
}

func TestCanonical_NFCNormalization(t *testing.T) {
	composed := Snapshot{"name": "caf\u00e9"}
	decomposed := Snapshot{"name": "cafe\u0301"}

	a, err := composed.Canonical()
	require.NoError(t, err)
	b, err := decomposed.Canonical()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	fa, err := composed.Fingerprint()
	require.NoError(t, err)
	fb, err := decomposed.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestExact_KeepsCodePoints(t *testing.T) {
	composed := Snapshot{"name": "caf\u00e9"}
	decomposed := Snapshot{"name": "cafe\u0301"}

	a, err := composed.Exact()
	require.NoError(t, err)
	b, err := decomposed.Exact()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, `{"name":"cafe\u0301"}`, string(b))

	// Key order and number form still follow the canonical rules.
	c, err := Snapshot{"b": 1.0, "a": "x"}.Exact()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1}`, string(c))
}

func TestCanonical_RejectsNonFinite(t *testing.T) {
	var zero float64
	_, err := Snapshot{"x": 1 / zero}.Canonical()
	assert.Error(t, err)
}

func TestCanonical_StructValues(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	data, err := MarshalCanonical(map[string]any{"p": point{X: 1, Y: 2}})
	require.NoError(t, err)
	assert.Equal(t, `{"p":{"x":1,"y":2}}`, string(data))
}

func TestCompareUTF16(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 but after it in UTF-16.
	keys := Snapshot{"｡": 1, "\U0001F600": 2}
	data, err := keys.Canonical()
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"｡\":1}", string(data))
}
