package board

import "strings"

// Inputs is everything the classifier looks at for one flight
type Inputs struct {
	Direction         Direction
	Altitude          float64 // ft MSL
	Groundspeed       float64 // kt
	Transponder       string
	MinutesSinceLogon float64
	GateFound         bool
	DistanceKM        float64
	CeilingFt         float64
}

// Classifier thresholds
const (
	stationaryKts   = 1.0
	pushbackKts     = 5.0
	taxiKts         = 45.0
	checkInMinutes  = 5.0
	landedAltFt     = 2000.0
	landedKts       = 40.0
	landedRangeKM   = 50.0
	landingAltFt    = 4000.0
	landingRangeKM  = 25.0
	approachRangeKM = 250.0
	atGateKts       = 5.0
)

var defaultSquawks = map[string]bool{
	"2000": true,
	"2200": true,
	"1200": true,
	"7000": true,
	"0000": true,
}

// IsDefaultSquawk reports whether the code is a VFR/standby/unassigned convention.
// A missing code counts as 0000.
func IsDefaultSquawk(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return true
	}
	return defaultSquawks[code]
}

// Classify derives the operational phase from current telemetry only.
// An unknown direction yields PhaseUnknown.
func Classify(in Inputs) Phase {
	switch in.Direction {
	case Departure:
		return classifyDeparture(in)
	case Arrival:
		return classifyArrival(in)
	default:
		return PhaseUnknown
	}
}

func classifyDeparture(in Inputs) Phase {
	if in.Altitude >= in.CeilingFt {
		return PhaseEnRoute
	}

	switch {
	case in.Groundspeed < stationaryKts:
		if in.MinutesSinceLogon < checkInMinutes {
			return PhaseCheckIn
		}
		return PhaseBoarding
	case in.Groundspeed < pushbackKts:
		// A discrete squawk means ATC is working the flight
		if in.GateFound || !IsDefaultSquawk(in.Transponder) {
			return PhasePushback
		}
		return PhaseTaxiing
	case in.Groundspeed < taxiKts:
		return PhaseTaxiing
	default:
		return PhaseDeparting
	}
}

func classifyArrival(in Inputs) Phase {
	switch {
	case in.Altitude < landedAltFt && in.Groundspeed < landedKts:
		// Low and slow far away means still on the ground at the origin
		if in.DistanceKM < landedRangeKM {
			return PhaseLanded
		}
		return PhaseScheduled
	case in.Altitude < landingAltFt && in.DistanceKM < landingRangeKM:
		return PhaseLanding
	case in.DistanceKM < approachRangeKM:
		return PhaseApproaching
	default:
		return PhaseEnRoute
	}
}

// AtGate reports whether an arrival should display as parked
func AtGate(dir Direction, gateFound bool, groundspeed float64) bool {
	return dir == Arrival && gateFound && groundspeed < atGateKts
}

var arrivalPriority = map[Phase]int{
	PhaseLanded:      0,
	PhaseLanding:     1,
	PhaseApproaching: 2,
	PhaseEnRoute:     3,
}

// ShowDeparture applies the board inclusion rule for departures
func ShowDeparture(phase Phase, distanceKM, groundRangeKM, cleanupKM float64) bool {
	switch phase {
	case PhaseCheckIn, PhaseBoarding, PhasePushback, PhaseTaxiing:
		return distanceKM < groundRangeKM
	case PhaseDeparting:
		return distanceKM < cleanupKM
	default:
		return false
	}
}

// ShowArrival applies the board inclusion rule for arrivals
func ShowArrival(phase Phase) bool {
	_, ok := arrivalPriority[phase]
	return ok
}
