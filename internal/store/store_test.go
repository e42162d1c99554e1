package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/apply4me/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	id, err := s.StartRun(start)
	require.NoError(t, err)

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Finished())

	result := &types.RunResult{
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Minute),
		Attempts: []types.Attempt{
			{Status: types.StatusSubmitted},
			{Status: types.StatusSubmitted},
			{Status: types.StatusFailed},
		},
		Error: "no apply button found",
	}
	require.NoError(t, s.FinishRun(id, result))

	runs, err = s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, id, r.ID)
	assert.True(t, r.Finished())
	assert.True(t, r.StartedAt.Equal(start))
	assert.True(t, r.FinishedAt.Equal(start.Add(2*time.Minute)))
	assert.Equal(t, 2, r.Submitted)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, "no apply button found", r.Error)
}

func TestFinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.FinishRun(42, &types.RunResult{FinishedAt: time.Now()}))
}

func TestAttemptsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	id, err := s.StartRun(start)
	require.NoError(t, err)

	first := types.Attempt{
		Listing:    "Internship: Backend (Remote)",
		URL:        "https://example.test/internship/detail/backend",
		Status:     types.StatusSubmitted,
		Answered:   []string{"What is your availability?"},
		Skipped:    []string{"Portfolio link"},
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
	}
	second := types.Attempt{
		Listing:    "Internship: Frontend",
		Status:     types.StatusFailed,
		Error:      "Success message not found. Submission might have failed",
		StartedAt:  start.Add(time.Minute),
		FinishedAt: start.Add(2 * time.Minute),
	}
	require.NoError(t, s.SaveAttempt(id, first))
	require.NoError(t, s.SaveAttempt(id, second))

	got, err := s.RunAttempts(id)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, first.Listing, got[0].Listing)
	assert.Equal(t, first.URL, got[0].URL)
	assert.Equal(t, types.StatusSubmitted, got[0].Status)
	assert.Equal(t, first.Answered, got[0].Answered)
	assert.Equal(t, first.Skipped, got[0].Skipped)
	assert.True(t, got[0].StartedAt.Equal(start))

	assert.Equal(t, types.StatusFailed, got[1].Status)
	assert.Equal(t, second.Error, got[1].Error)
	assert.Empty(t, got[1].Answered)

	other, err := s.RunAttempts(id + 1)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.StartRun(base.Add(time.Duration(i) * 24 * time.Hour))
		require.NoError(t, err)
	}

	runs, err := s.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.Equal(base.Add(48*time.Hour)))
	assert.True(t, runs[1].StartedAt.Equal(base.Add(24*time.Hour)))
}

func TestSubmittedSince(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	id, err := s.StartRun(base)
	require.NoError(t, err)

	require.NoError(t, s.SaveAttempt(id, types.Attempt{Listing: "old", Status: types.StatusSubmitted, StartedAt: base.Add(-48 * time.Hour), FinishedAt: base}))
	require.NoError(t, s.SaveAttempt(id, types.Attempt{Listing: "new", Status: types.StatusSubmitted, StartedAt: base, FinishedAt: base}))
	require.NoError(t, s.SaveAttempt(id, types.Attempt{Listing: "failed", Status: types.StatusFailed, StartedAt: base, FinishedAt: base}))

	n, err := s.SubmittedSince(base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunAttemptsRejectsCorruptAnswers(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	id, err := s.StartRun(at)
	require.NoError(t, err)

	_, err = s.db.Exec(`
		INSERT INTO applications (run_id, listing, url, status, answered, skipped,
			error, started_at, finished_at)
		VALUES (?, 'broken', '', ?, 'not json', '[]', '', ?, ?)
	`, id, string(types.StatusSubmitted), at, at)
	require.NoError(t, err)

	_, err = s.RunAttempts(id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to decode answered questions of "broken"`)
}
