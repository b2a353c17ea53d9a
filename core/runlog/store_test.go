package runlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/powermatch/core/aggregate"
	"github.com/kilianp07/powermatch/core/encoder"
	"github.com/kilianp07/powermatch/core/metrics"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	j, err := NewJSONLStore(filepath.Join(dir, "runs.jsonl"), 1, 2, 0)
	require.NoError(t, err)
	s, err := NewSQLiteStore(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = j.Close()
		_ = s.Close()
	})
	return map[string]Store{"jsonl": j, "sqlite": s}
}

func records(base time.Time) []Record {
	return []Record{
		{ID: "a", Kind: metrics.KindPowermatch, Timestamp: base, Summary: aggregate.Summary{Totals: aggregate.Totals{LCOE: aggregate.Of(90)}}},
		{ID: "b", Kind: metrics.KindOptimise, Timestamp: base.Add(time.Minute), Optimise: &Optimise{
			Seed: 3, Fitness: 72.5, Capacities: encoder.Capacities{{Name: "Gas", Capacity: 50}},
		}},
		{ID: "c", Kind: metrics.KindPowermatch, Timestamp: base.Add(2 * time.Minute), Elapsed: JSONDuration(1500 * time.Millisecond)},
	}
}

func TestStores_AppendQuery(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, r := range records(base) {
				require.NoError(t, st.Append(ctx, r))
			}

			all, err := st.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "a", all[0].ID)
			assert.Equal(t, 90.0, all[0].Summary.Totals.LCOE.V)
			assert.False(t, all[1].Summary.Totals.LCOE.OK)
			assert.Equal(t, JSONDuration(1500*time.Millisecond), all[2].Elapsed)

			opt, err := st.Query(ctx, Query{Kind: metrics.KindOptimise})
			require.NoError(t, err)
			require.Len(t, opt, 1)
			require.NotNil(t, opt[0].Optimise)
			assert.Equal(t, 50.0, opt[0].Optimise.Capacities.Map()["Gas"])

			recent, err := st.Query(ctx, Query{Start: base.Add(30 * time.Second)})
			require.NoError(t, err)
			assert.Len(t, recent, 2)

			last, err := st.Query(ctx, Query{Limit: 1})
			require.NoError(t, err)
			require.Len(t, last, 1)
			assert.Equal(t, "c", last[0].ID)
		})
	}
}

func TestStores_Get(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, r := range records(time.Now().UTC()) {
				require.NoError(t, st.Append(ctx, r))
			}
			r, err := st.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, int64(3), r.Optimise.Seed)
			if _, err := st.Get(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound got %v", err)
			}
		})
	}
}

func TestJSONLStore_ReadsRotatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.jsonl")
	st, err := NewJSONLStore(path, 1, 2, 0)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	ctx := context.Background()
	require.NoError(t, st.Append(ctx, Record{ID: "old", Timestamp: time.Now().Add(-time.Hour)}))
	require.NoError(t, st.logger.Rotate())
	require.NoError(t, st.Append(ctx, Record{ID: "new", Timestamp: time.Now()}))

	files, err := st.files()
	require.NoError(t, err)
	assert.Len(t, files, 2)
	all, err := st.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "old", all[0].ID)
}

func TestJSONLStore_EmptyFile(t *testing.T) {
	st, err := NewJSONLStore(filepath.Join(t.TempDir(), "none.jsonl"), 0, 0, 0)
	require.NoError(t, err)
	out, err := st.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
