package archive

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/vai-go/vai"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "vai.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	run, err := store.NewRun(ctx, []int{2, 4, 1}, 1<<63+5)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	loaded, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
	assert.Equal(t, []int{2, 4, 1}, loaded.Layers)
	assert.Equal(t, uint64(1<<63+5), loaded.Seed)
	assert.True(t, run.CreatedAt.Equal(loaded.CreatedAt))

	_, err = store.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSnapshotsAndBest(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	run, err := store.NewRun(ctx, []int{2, 3, 1}, 0)
	require.NoError(t, err)

	_, err = store.Best(ctx, run.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	net := vai.NewDynamicDeterministic(0, 2, 3, 1)
	var saved []*vai.Dynamic
	for i, score := range []float64{5, 3, 3, 4} {
		net = net.CreateVariant(2)
		saved = append(saved, net)
		require.NoError(t, store.SaveSnapshot(ctx, run.ID, i+1, score, net))
	}

	snapshots, err := store.Snapshots(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 4)
	for i, snap := range snapshots {
		assert.Equal(t, i+1, snap.Iteration)
	}

	best, err := store.Best(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, best.Iteration)
	assert.Equal(t, 3.0, best.Score)

	restored, err := vai.ReadDynamic(bytes.NewReader(best.Network))
	require.NoError(t, err)
	assert.Equal(t, saved[1].Layers(), restored.Layers())
}

func TestSaveSnapshotOverwritesIteration(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	run, err := store.NewRun(ctx, []int{1, 1}, 0)
	require.NoError(t, err)

	net := vai.NewDynamicDeterministic(0, 1, 1)
	require.NoError(t, store.SaveSnapshot(ctx, run.ID, 1, 9, net))
	require.NoError(t, store.SaveSnapshot(ctx, run.ID, 1, 2, net))

	snapshots, err := store.Snapshots(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 2.0, snapshots[0].Score)
}

func TestClosedStore(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.NewRun(context.Background(), nil, 0)
	assert.Error(t, err)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
