package board

import (
	"time"
)

// Direction is a flight's relation to the tracked airport
type Direction string

const (
	Departure Direction = "DEP"
	Arrival   Direction = "ARR"
)

// Phase is the operational state shown on the board
type Phase string

const (
	PhaseUnknown     Phase = ""
	PhaseCheckIn     Phase = "Check-in"
	PhaseBoarding    Phase = "Boarding"
	PhasePushback    Phase = "Pushback"
	PhaseTaxiing     Phase = "Taxiing"
	PhaseDeparting   Phase = "Departing"
	PhaseEnRoute     Phase = "En Route"
	PhaseApproaching Phase = "Approaching"
	PhaseLanding     Phase = "Landing"
	PhaseLanded      Phase = "Landed"
	PhaseScheduled   Phase = "Scheduled"
	PhaseAtGate      Phase = "At Gate" // display only, raw phase stays Landed
)

// Placeholders
const (
	GatePlaceholder    = "TBA"
	TimePlaceholder    = "--:--"
	CheckinClosed      = "CLOSED"
	LateArrivalText    = "LATE ARRIVAL"
	UnknownAircraftStr = "N/A"
)

// StandSource records which resolver produced a gate
type StandSource string

const (
	StandSourceNone       StandSource = ""
	StandSourceAssignment StandSource = "ukcp"
	StandSourceGeofence   StandSource = "geofence"
)

// FlightRecord is one row on the departures or arrivals board
type FlightRecord struct {
	Callsign    string      `json:"callsign"`
	Aircraft    string      `json:"aircraft"`
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	Altitude    int         `json:"altitude"`
	Groundspeed int         `json:"groundspeed"`
	Status      string      `json:"status"`
	StatusRaw   Phase       `json:"status_raw"`
	DelayText   string      `json:"delay_text"`
	Gate        string      `json:"gate"`
	GateSource  StandSource `json:"gate_source,omitempty"`
	Checkin     string      `json:"checkin"`
	TimeDisplay string      `json:"time_display"`
	Direction   Direction   `json:"direction"`
	Route       string      `json:"route"`
	Distance    float64     `json:"distance"` // km

	// sortMinutes is the scheduled time relative to now, nil when unknown
	sortMinutes *int
}

// ControllerRecord is an ATC position online at the airport
type ControllerRecord struct {
	Callsign  string `json:"callsign"`
	Frequency string `json:"frequency"`
	Position  string `json:"position"`
}

// AirportBoard is the complete display payload for one airport
type AirportBoard struct {
	ICAO              string             `json:"icao"`
	AirportName       string             `json:"airport_name"`
	Country           string             `json:"country"`
	HasStands         bool               `json:"has_stands"`
	METAR             string             `json:"metar"`
	MagneticVariation float64            `json:"magnetic_variation"`
	Departures        []FlightRecord     `json:"departures"`
	Arrivals          []FlightRecord     `json:"arrivals"`
	Controllers       []ControllerRecord `json:"controllers"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
