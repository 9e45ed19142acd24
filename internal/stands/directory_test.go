package stands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yegors/flightboard/pkg/logger"
)

type flakyStore struct {
	data map[string][]Stand
	err  error
}

func (f *flakyStore) Load(ctx context.Context) (map[string][]Stand, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][]Stand, len(f.data))
	for k, v := range f.data {
		out[k] = append([]Stand(nil), v...)
	}
	return out, nil
}

func (f *flakyStore) Save(ctx context.Context, icao string, list []Stand) error {
	if f.err != nil {
		return f.err
	}
	f.data[icao] = list
	return nil
}

func TestDirectoryInitialFailureIsEmpty(t *testing.T) {
	store := &flakyStore{err: errors.New("disk on fire")}
	dir := NewDirectory(store, 0, logger.NewNop())

	assert.Error(t, dir.Reload(context.Background()))
	assert.Empty(t, dir.Stands("LSZH"))
	assert.False(t, dir.Snapshot().HasStands("LSZH"))
}

func TestDirectoryKeepsLastKnownGood(t *testing.T) {
	store := &flakyStore{data: map[string][]Stand{
		"lszh": {{Name: "A1", Lat: 47.45, Lon: 8.56}},
	}}
	dir := NewDirectory(store, 0, logger.NewNop())
	require.NoError(t, dir.Reload(context.Background()))

	store.err = errors.New("corrupt")
	assert.Error(t, dir.Reload(context.Background()))

	list := dir.Stands("LSZH")
	require.Len(t, list, 1)
	assert.Equal(t, "A1", list[0].Name)
	assert.Equal(t, TypeContact, list[0].Type)
}

func TestDirectorySnapshotUnaffectedByReload(t *testing.T) {
	store := &flakyStore{data: map[string][]Stand{
		"LSZH": {{Name: "A1", Lat: 47.45, Lon: 8.56}},
	}}
	dir := NewDirectory(store, 0, logger.NewNop())
	require.NoError(t, dir.Reload(context.Background()))

	snap := dir.Snapshot()
	require.NoError(t, dir.Replace(context.Background(), "LSZH", []Stand{{Name: "B7", Lat: 47.46, Lon: 8.55}}))

	assert.Equal(t, "A1", snap.Stands("LSZH")[0].Name)
	assert.Equal(t, "B7", dir.Snapshot().Stands("LSZH")[0].Name)
}

func TestDirectoryStandsReturnsCopy(t *testing.T) {
	store := &flakyStore{data: map[string][]Stand{
		"LSGG": {{Name: "10", Lat: 46.23, Lon: 6.10}},
	}}
	dir := NewDirectory(store, 0, logger.NewNop())
	require.NoError(t, dir.Reload(context.Background()))

	list := dir.Stands("LSGG")
	list[0].Name = "changed"

	assert.Equal(t, "10", dir.Stands("LSGG")[0].Name)
}

func TestDirectorySkipsInvalidAirport(t *testing.T) {
	store := &flakyStore{data: map[string][]Stand{
		"LSZH": {{Name: "A1", Lat: 47.45, Lon: 8.56}},
		"LSGG": {{Name: "", Lat: 46.23, Lon: 6.10}},
	}}
	dir := NewDirectory(store, 0, logger.NewNop())
	require.NoError(t, dir.Reload(context.Background()))

	assert.Equal(t, []string{"LSZH"}, dir.Airports())
}

func TestReplaceRejectsInvalid(t *testing.T) {
	store := &flakyStore{data: map[string][]Stand{}}
	dir := NewDirectory(store, 0, logger.NewNop())

	tests := []struct {
		name string
		icao string
		list []Stand
	}{
		{"bad airport code", "ZRH", []Stand{{Name: "A1"}}},
		{"duplicate names", "LSZH", []Stand{{Name: "A1"}, {Name: "A1"}}},
		{"latitude out of range", "LSZH", []Stand{{Name: "A1", Lat: 91}}},
		{"negative radius", "LSZH", []Stand{{Name: "A1", Radius: -1}}},
		{"unknown type", "LSZH", []Stand{{Name: "A1", Type: "hangar"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dir.Replace(context.Background(), tt.icao, tt.list)
			assert.ErrorIs(t, err, ErrInvalidStand)
		})
	}
	assert.Empty(t, store.data)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "stands.json")
	store := NewFileStore(path)
	ctx := context.Background()

	all, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, store.Save(ctx, "lszh", []Stand{{Name: "A1", Lat: 47.45, Lon: 8.56, Radius: 35, Type: TypeContact}}))
	require.NoError(t, store.Save(ctx, "LSGG", []Stand{{Name: "10", Lat: 46.23, Lon: 6.10, Type: TypeRemote}}))

	all, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 35.0, all["LSZH"][0].Radius)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = store.Load(ctx)
	assert.Error(t, err)
}
