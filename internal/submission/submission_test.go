package submission

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskbench/internal/record"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{"object", `{"a":1}`, map[string]any{"a": 1.0}},
		{"array", `[1, "b"]`, []any{1.0, "b"}},
		{"number", `42`, 42.0},
		{"bool", `true`, true},
		{"null", `null`, nil},
		{"json string", `"quoted"`, "quoted"},
		{"padded object", "  {\"zip\": 94103}\n", map[string]any{"zip": 94103.0}},
		{"plain text", `hello`, "hello"},
		{"text keeps whitespace", "  hello ", "  hello "},
		{"broken json", `{"a":`, `{"a":`},
		{"empty", ``, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChannel_SubmitRoundTrip(t *testing.T) {
	rec := record.New()
	ch := NewChannel(rec, WithLogger(quietLogger()))

	got := ch.Submit(`{"a":1}`)
	assert.Equal(t, map[string]any{"a": 1.0}, got)
	v, ok := rec.Get(Key)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1.0}, v)

	ch.Submit("hello")
	v, _ = rec.Get(Key)
	assert.Equal(t, "hello", v)
}

func TestChannel_PreservesOtherKeys(t *testing.T) {
	rec := record.New()
	rec.Publish(map[string]any{"x": 5})
	NewChannel(rec, WithLogger(quietLogger())).Submit("42")

	snap := rec.Snapshot()
	assert.Equal(t, 5, snap["x"])
	assert.Equal(t, 42.0, snap[Key])
}

func TestChannel_NotifiesListeners(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ch := NewChannel(record.New(),
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return at }),
	)

	var got []Submission
	ch.AddListener(ListenerFunc(func(s Submission) { got = append(got, s) }))
	ch.Submit(`[1]`)

	require.Len(t, got, 1)
	assert.Equal(t, `[1]`, got[0].Raw)
	assert.Equal(t, []any{1.0}, got[0].Value)
	assert.Equal(t, at, got[0].At)
}

func TestChannel_SignalsSubscribers(t *testing.T) {
	rec := record.New()
	sig, cancel := rec.Subscribe()
	defer cancel()

	NewChannel(rec, WithLogger(quietLogger())).Submit("x")

	select {
	case <-sig:
	default:
		t.Fatal("expected change notification")
	}
}
