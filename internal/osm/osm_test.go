package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yegors/flightboard/internal/stands"
	"github.com/yegors/flightboard/pkg/logger"
)

func ptr(v float64) *float64 { return &v }

func TestStandName(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
		ok   bool
	}{
		{"ref wins", map[string]string{"ref": "a 12", "name": "Gate A12"}, "A12", true},
		{"falls back to name", map[string]string{"name": " b34 "}, "B34", true},
		{"falls back to local_ref", map[string]string{"local_ref": "e\t7"}, "E7", true},
		{"zero placeholder skipped", map[string]string{"ref": "0", "name": "F1"}, "F1", true},
		{"double zero rejected", map[string]string{"ref": "00"}, "", false},
		{"blank", map[string]string{"ref": "   "}, "", false},
		{"no tags", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StandName(tt.tags)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandType(t *testing.T) {
	assert.Equal(t, stands.TypeRemote, StandType(map[string]string{"description": "Remote apron"}))
	assert.Equal(t, stands.TypeRemote, StandType(map[string]string{"aeroway": "parking_position", "cargo": "yes"}))
	assert.Equal(t, stands.TypeRemote, StandType(map[string]string{"usage": "general_aviation"}))
	assert.Equal(t, stands.TypeRemote, StandType(map[string]string{"apron": "GA"}))
	assert.Equal(t, stands.TypeContact, StandType(map[string]string{"name": "Gate 5", "aeroway": "parking_position"}))
	assert.Equal(t, stands.TypeContact, StandType(nil))
}

func TestConvert(t *testing.T) {
	elements := []Element{
		{Type: "node", ID: 1, Lat: ptr(52.3001234567), Lon: ptr(4.7601), Tags: map[string]string{"ref": "D7"}},
		{Type: "way", ID: 2, Center: &Point{Lat: 52.31, Lon: 4.77}, Tags: map[string]string{"ref": "B12", "cargo": "yes"}},
		{Type: "node", ID: 3, Lat: ptr(52.0), Lon: ptr(4.0), Tags: map[string]string{"ref": "D7"}},
		{Type: "node", ID: 4, Lat: ptr(52.0), Lon: ptr(4.0), Tags: map[string]string{"ref": "00"}},
		{Type: "way", ID: 5, Tags: map[string]string{"ref": "C1"}},
	}

	list, skipped := Convert(elements)
	assert.Equal(t, 2, skipped)
	require.Len(t, list, 2)

	assert.Equal(t, "B12", list[0].Name)
	assert.Equal(t, stands.TypeRemote, list[0].Type)
	assert.Equal(t, 52.31, list[0].Lat)

	assert.Equal(t, "D7", list[1].Name)
	assert.Equal(t, 52.300123, list[1].Lat, "coordinates rounded to 6 decimals")
	assert.Equal(t, 4.7601, list[1].Lon, "first occurrence kept")
	assert.Equal(t, ImportRadiusMeters, list[1].Radius)
	assert.Equal(t, stands.TypeContact, list[1].Type)

	require.NoError(t, stands.Validate(list))
}

func TestFilterPrefixes(t *testing.T) {
	list := []stands.Stand{{Name: "A1"}, {Name: "G2"}, {Name: "H3"}}
	assert.Equal(t, []stands.Stand{{Name: "A1"}, {Name: "H3"}}, FilterPrefixes(list, "ah"))
	assert.Len(t, FilterPrefixes(list, ""), 3)
}

func TestMerge(t *testing.T) {
	existing := []stands.Stand{{Name: "Z9", Lat: 1}, {Name: "A1", Lat: 1}}
	imported := []stands.Stand{{Name: "A1", Lat: 2}, {Name: "B2", Lat: 2}}

	got := Merge(existing, imported)
	require.Len(t, got, 3)
	assert.Equal(t, "A1", got[0].Name)
	assert.Equal(t, 2.0, got[0].Lat)
	assert.Equal(t, "B2", got[1].Name)
	assert.Equal(t, "Z9", got[2].Name)
}

func TestFetchParkingPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "flightboard-test", r.Header.Get("User-Agent"))
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), `area["icao"="EHAM"]`)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":52.3,"lon":4.76,"tags":{"ref":"D7"}},
			{"type":"way","id":2,"center":{"lat":52.31,"lon":4.77},"tags":{"ref":"B12"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, "flightboard-test", logger.NewNop())
	elements, err := c.FetchParkingPositions(context.Background(), "EHAM")
	require.NoError(t, err)
	require.Len(t, elements, 2)

	lat, lon, ok := elements[1].Position()
	require.True(t, ok)
	assert.Equal(t, 52.31, lat)
	assert.Equal(t, 4.77, lon)
}

func TestFetchParkingPositionsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, "", logger.NewNop())
	_, err := c.FetchParkingPositions(context.Background(), "EHAM")
	assert.Error(t, err)
}
