package physics

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Constants
const (
	EarthRadiusM = 6371000.0 // Mean Earth radius (m)
	FeetToMeters = 0.3048
	KnotsToKmh   = 1.852 // Conversion factor from knots to km/h

	// UnknownDistanceMeters is returned when either coordinate is missing.
	// Every finite threshold in the board compares false against it.
	UnknownDistanceMeters = 1e8
)

// LatLon is a geographic coordinate in decimal degrees
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewLatLon builds a coordinate from nullable parts, returning nil if either is missing
func NewLatLon(lat, lon *float64) *LatLon {
	if lat == nil || lon == nil {
		return nil
	}
	return &LatLon{Lat: *lat, Lon: *lon}
}

// Haversine returns the great-circle distance between two points in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// DistanceMeters returns the distance between two optional coordinates.
// A nil coordinate yields UnknownDistanceMeters.
func DistanceMeters(a, b *LatLon) float64 {
	if a == nil || b == nil {
		return UnknownDistanceMeters
	}
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// DistanceKM is DistanceMeters in kilometers
func DistanceKM(a, b *LatLon) float64 {
	return DistanceMeters(a, b) / 1000
}

// CalculateMagneticVariation calculates the magnetic declination for a given position and time
// Returns declination in degrees (+East, -West)
func CalculateMagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, altFt*FeetToMeters)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		// Outside the model's validity window
		return 0.0
	}

	return mag.D()
}
