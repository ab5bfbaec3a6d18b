package runlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactionlab/kinfer/internal/report"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(id string) *report.Report {
	r := &report.Report{
		RunID:      id,
		Mode:       report.ModeSampling,
		ModelName:  "rxn_ord",
		CodeHash:   "abc123",
		Seed:       42,
		CacheHit:   true,
		RuntimeMin: 0.5,
	}
	r.AddWarning("test warning")
	r.Summary = report.EstimateTable([]string{"rxn_ord"}, map[string]float64{"rxn_ord": 1.0})
	return r
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, sampleReport("run-1"), []byte(`{"Iters":50}`)))

	e, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "mcmc", e.Mode)
	assert.Equal(t, "rxn_ord", e.ModelName)
	assert.Equal(t, int64(42), e.Seed)
	assert.True(t, e.CacheHit)
	assert.Equal(t, `{"Iters":50}`, e.Config)
	assert.Equal(t, []string{"test warning"}, e.Warnings)
	assert.Contains(t, e.Summary, "rxn_ord")
	assert.NotEmpty(t, e.CreatedAt)
}

func TestRecordDuplicateRunIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, sampleReport("run-1"), []byte(`{}`)))
	assert.Error(t, s.Record(ctx, sampleReport("run-1"), []byte(`{}`)))
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, s.Record(ctx, sampleReport(id), []byte(`{}`)))
	}

	entries, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetMissingRun(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "absent")
	assert.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Record(context.Background(), sampleReport("run-1"), []byte(`{}`)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	e, err := s2.Get(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", e.RunID)
}
