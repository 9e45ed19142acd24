package stands

import (
	"github.com/yegors/flightboard/internal/physics"
)

// Gate limits geofencing to aircraft that are slow and low enough to be parked
type Gate struct {
	MaxGroundspeedKts float64
	MaxAltitudeFt     float64
}

// DefaultGate accepts anything at or below 15 kt and 10,000 ft
var DefaultGate = Gate{MaxGroundspeedKts: 15, MaxAltitudeFt: 10000}

// Allows reports whether the telemetry passes the gate
func (g Gate) Allows(groundspeed, altitude float64) bool {
	return groundspeed <= g.MaxGroundspeedKts && altitude <= g.MaxAltitudeFt
}

// Match returns the nearest stand whose circle contains the position.
// It returns false when the gate rejects the telemetry or nothing contains the aircraft.
func Match(list []Stand, pos *physics.LatLon, groundspeed, altitude float64, gate Gate, defaultRadius float64) (Stand, bool) {
	if pos == nil || len(list) == 0 || !gate.Allows(groundspeed, altitude) {
		return Stand{}, false
	}
	if defaultRadius <= 0 {
		defaultRadius = DefaultRadiusMeters
	}

	var (
		best     Stand
		bestDist float64
		found    bool
	)
	for _, s := range list {
		radius := s.Radius
		if radius <= 0 {
			radius = defaultRadius
		}

		d := physics.Haversine(pos.Lat, pos.Lon, s.Lat, s.Lon)
		if d > radius {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = s, d, true
		}
	}
	return best, found
}
