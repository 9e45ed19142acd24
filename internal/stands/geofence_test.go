package stands

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yegors/flightboard/internal/physics"
)

// northOf returns a point the given number of meters due north
func northOf(lat, lon, meters float64) *physics.LatLon {
	return &physics.LatLon{Lat: lat + meters/(physics.EarthRadiusM*math.Pi/180), Lon: lon}
}

func TestMatch(t *testing.T) {
	a := Stand{Name: "A1", Lat: 47.4500, Lon: 8.5600, Radius: 40, Type: TypeContact}
	b := Stand{Name: "B2", Lat: 47.4510, Lon: 8.5600, Radius: 30, Type: TypeRemote}
	list := []Stand{a, b}

	tests := []struct {
		name     string
		pos      *physics.LatLon
		gs, alt  float64
		wantName string
		wantOK   bool
	}{
		{"exactly at center", &physics.LatLon{Lat: a.Lat, Lon: a.Lon}, 0, 0, "A1", true},
		{"inside radius", northOf(a.Lat, a.Lon, 39), 0, 1400, "A1", true},
		{"one meter outside radius", northOf(a.Lat, a.Lon, 41), 0, 0, "", false},
		{"too fast", &physics.LatLon{Lat: a.Lat, Lon: a.Lon}, 16, 0, "", false},
		{"gate speed boundary", &physics.LatLon{Lat: a.Lat, Lon: a.Lon}, 15, 0, "A1", true},
		{"too high", &physics.LatLon{Lat: a.Lat, Lon: a.Lon}, 0, 10001, "", false},
		{"no position", nil, 0, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(list, tt.pos, tt.gs, tt.alt, DefaultGate, DefaultRadiusMeters)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, got.Name)
		})
	}
}

func TestMatchNearestCenterWins(t *testing.T) {
	big := Stand{Name: "BIG", Lat: 47.0, Lon: 8.0, Radius: 200}
	small := Stand{Name: "SMALL", Lat: 47.0005, Lon: 8.0, Radius: 50}

	// 10 m from SMALL and about 46 m from BIG, inside both
	pos := northOf(small.Lat, small.Lon, -10)

	got, ok := Match([]Stand{big, small}, pos, 0, 0, DefaultGate, DefaultRadiusMeters)
	assert.True(t, ok)
	assert.Equal(t, "SMALL", got.Name)

	// Order of the list does not matter
	got, ok = Match([]Stand{small, big}, pos, 0, 0, DefaultGate, DefaultRadiusMeters)
	assert.True(t, ok)
	assert.Equal(t, "SMALL", got.Name)
}

func TestMatchOverlappingLargerStandStillContains(t *testing.T) {
	inner := Stand{Name: "12", Lat: 47.0, Lon: 8.0, Radius: 20}
	outer := Stand{Name: "12R", Lat: 47.0, Lon: 8.0003, Radius: 100}

	// 21 m north of inner: outside inner, inside outer
	pos := northOf(inner.Lat, inner.Lon, 21)

	got, ok := Match([]Stand{inner, outer}, pos, 0, 0, DefaultGate, DefaultRadiusMeters)
	assert.True(t, ok)
	assert.Equal(t, "12R", got.Name)
}

func TestMatchDefaultRadius(t *testing.T) {
	s := Stand{Name: "E5", Lat: 47.0, Lon: 8.0}

	_, ok := Match([]Stand{s}, northOf(47.0, 8.0, 39), 0, 0, DefaultGate, 0)
	assert.True(t, ok)

	_, ok = Match([]Stand{s}, northOf(47.0, 8.0, 41), 0, 0, DefaultGate, 0)
	assert.False(t, ok)
}
