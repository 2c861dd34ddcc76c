package store

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskbench/internal/testutil"
)

func TestBeginSession(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithIDGenerator(testutil.NewSequentialIDs("")))

	first, err := s.BeginSession(ctx, "builtin", testutil.Epoch)
	require.NoError(t, err)
	assert.Equal(t, "session-0001", first.ID)

	second, err := s.BeginSession(ctx, "tasks.yaml", testutil.Epoch.Add(time.Minute))
	require.NoError(t, err)

	got, err := s.GetSession(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	all, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Session{first, second}, all)

	latest, err := s.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = s.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBeginSession_UUIDv7(t *testing.T) {
	s := createTestStore(t)
	sess, err := s.BeginSession(context.Background(), "builtin", time.Now())
	require.NoError(t, err)
	assert.Len(t, sess.ID, 36)
	assert.Equal(t, byte('7'), sess.ID[14])
}

func TestListSessions_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	all, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	_, err = s.LatestSession(context.Background())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestVerdicts_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	sess, err := s.BeginSession(ctx, "builtin", testutil.Epoch)
	require.NoError(t, err)

	rows := []VerdictRow{
		{SessionID: sess.ID, Seq: 3, TaskID: 2, Success: true, Fingerprint: "c", CreatedAt: testutil.Epoch},
		{SessionID: sess.ID, Seq: 1, TaskID: 1, Success: false, Fingerprint: "a", CreatedAt: testutil.Epoch},
		{SessionID: sess.ID, Seq: 2, TaskID: 1, Success: true, Message: "done", Fingerprint: "b", CreatedAt: testutil.Epoch},
	}
	for _, r := range rows {
		require.NoError(t, s.WriteVerdict(ctx, r))
	}

	all, err := s.ReadVerdicts(ctx, sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].Seq, all[1].Seq, all[2].Seq})

	task1, err := s.ReadVerdicts(ctx, sess.ID, 1)
	require.NoError(t, err)
	assert.Len(t, task1, 2)

	latest, err := s.LatestVerdict(ctx, sess.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, rows[2], latest)

	maxSeq, err := s.MaxVerdictSeq(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), maxSeq)
}

func TestVerdicts_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	sess, err := s.BeginSession(ctx, "builtin", testutil.Epoch)
	require.NoError(t, err)

	v := VerdictRow{SessionID: sess.ID, Seq: 1, TaskID: 1, Message: "first", CreatedAt: testutil.Epoch}
	require.NoError(t, s.WriteVerdict(ctx, v))
	v.Message = "second"
	require.NoError(t, s.WriteVerdict(ctx, v))

	all, err := s.ReadVerdicts(ctx, sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "first", all[0].Message)
}

func TestVerdicts_Missing(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	sess, err := s.BeginSession(ctx, "builtin", testutil.Epoch)
	require.NoError(t, err)

	_, err = s.LatestVerdict(ctx, sess.ID, 1)
	assert.ErrorIs(t, err, ErrNoVerdict)

	maxSeq, err := s.MaxVerdictSeq(ctx, sess.ID)
	require.NoError(t, err)
	assert.Zero(t, maxSeq)
}

func TestSubmissions_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	sess, err := s.BeginSession(ctx, "builtin", testutil.Epoch)
	require.NoError(t, err)

	seq, err := s.WriteSubmission(ctx, sess.ID, 3, `{"vendor_zip": 94103}`, map[string]any{"vendor_zip": 94103.0}, testutil.Epoch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = s.WriteSubmission(ctx, sess.ID, 3, "hello", "hello", testutil.Epoch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	subs, err := s.ReadSubmissions(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, `{"vendor_zip":94103}`, subs[0].Value)
	assert.Equal(t, `"hello"`, subs[1].Value)
	assert.Equal(t, "hello", subs[1].Raw)
	assert.Equal(t, testutil.Epoch, subs[1].CreatedAt)
}

func TestSubmissions_RejectsNonFinite(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	sess, err := s.BeginSession(ctx, "builtin", testutil.Epoch)
	require.NoError(t, err)

	_, err = s.WriteSubmission(ctx, sess.ID, 1, "", map[string]any{"x": math.Inf(1)}, testutil.Epoch)
	assert.Error(t, err)
}
