package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yegors/flightboard/internal/stands"
	"github.com/yegors/flightboard/pkg/logger"
)

func newStore(t *testing.T) *StandStore {
	t.Helper()
	store, err := NewStandStore(filepath.Join(t.TempDir(), "db", "stands.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStandStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	zrh := []stands.Stand{
		{Name: "B34", Lat: 47.4521, Lon: 8.5610, Radius: 45, Type: stands.TypeContact},
		{Name: "A12", Lat: 47.4600, Lon: 8.5500, Type: stands.TypeRemote},
	}
	require.NoError(t, store.Save(ctx, "lszh", zrh))
	require.NoError(t, store.Save(ctx, "LSGG", []stands.Stand{{Name: "1", Lat: 46.23, Lon: 6.10, Type: stands.TypeContact}}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, zrh, got["LSZH"], "stored order is preserved")
	assert.Equal(t, "1", got["LSGG"][0].Name)
}

func TestStandStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Save(ctx, "LSZH", []stands.Stand{
		{Name: "A1", Lat: 47.1, Lon: 8.1, Type: stands.TypeContact},
		{Name: "A2", Lat: 47.2, Lon: 8.2, Type: stands.TypeContact},
	}))
	require.NoError(t, store.Save(ctx, "LSZH", []stands.Stand{
		{Name: "Z9", Lat: 47.3, Lon: 8.3, Type: stands.TypeRemote},
	}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got["LSZH"], 1)
	assert.Equal(t, "Z9", got["LSZH"][0].Name)

	require.NoError(t, store.Save(ctx, "LSZH", nil))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, got, "LSZH")
}

func TestStandStoreRejectsDuplicateNames(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Save(ctx, "LSZH", []stands.Stand{{Name: "A1", Lat: 47.1, Lon: 8.1, Type: stands.TypeContact}}))

	err := store.Save(ctx, "LSZH", []stands.Stand{
		{Name: "B1", Lat: 47.1, Lon: 8.1, Type: stands.TypeContact},
		{Name: "B1", Lat: 47.2, Lon: 8.2, Type: stands.TypeContact},
	})
	require.Error(t, err)

	// The failed transaction leaves the previous list intact
	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got["LSZH"], 1)
	assert.Equal(t, "A1", got["LSZH"][0].Name)
}

func TestStandStoreBacksDirectory(t *testing.T) {
	ctx := context.Background()
	dir := stands.NewDirectory(newStore(t), 0, logger.NewNop())

	require.NoError(t, dir.Replace(ctx, "LSZH", []stands.Stand{{Name: "E17", Lat: 47.455, Lon: 8.565}}))

	list := dir.Stands("LSZH")
	require.Len(t, list, 1)
	assert.Equal(t, stands.TypeContact, list[0].Type)
	assert.True(t, dir.Snapshot().HasStands("lszh"))
}
