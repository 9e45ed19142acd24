package vatsim

import (
	"time"
)

// General is the feed header
type General struct {
	Version          int    `json:"version"`
	Reload           int    `json:"reload"`
	Update           string `json:"update"`
	UpdateTimestamp  string `json:"update_timestamp"`
	ConnectedClients int    `json:"connected_clients"`
	UniqueUsers      int    `json:"unique_users"`
}

// Pilot is one connected aircraft with its telemetry
type Pilot struct {
	CID         int            `json:"cid"`
	Name        string         `json:"name"`
	Callsign    string         `json:"callsign"`
	Latitude    FlexibleNumber `json:"latitude"`
	Longitude   FlexibleNumber `json:"longitude"`
	Altitude    FlexibleNumber `json:"altitude"`
	Groundspeed FlexibleNumber `json:"groundspeed"`
	Transponder string         `json:"transponder"`
	Heading     FlexibleNumber `json:"heading"`
	FlightPlan  *FlightPlan    `json:"flight_plan"`
	LogonTime   string         `json:"logon_time"`
	LastUpdated string         `json:"last_updated"`
}

// FlightPlan is the filed plan attached to a pilot
type FlightPlan struct {
	FlightRules   string `json:"flight_rules"`
	Aircraft      string `json:"aircraft"`
	AircraftShort string `json:"aircraft_short"`
	Departure     string `json:"departure"`
	Arrival       string `json:"arrival"`
	Alternate     string `json:"alternate"`
	CruiseTAS     string `json:"cruise_tas"`
	Altitude      string `json:"altitude"`
	DepTime       string `json:"deptime"`
	EnrouteTime   string `json:"enroute_time"`
	Route         string `json:"route"`
	Remarks       string `json:"remarks"`
}

// Controller is one connected ATC session
type Controller struct {
	CID       int    `json:"cid"`
	Name      string `json:"name"`
	Callsign  string `json:"callsign"`
	Frequency string `json:"frequency"`
	Facility  int    `json:"facility"`
	Rating    int    `json:"rating"`
	LogonTime string `json:"logon_time"`
}

// Snapshot is one consistent read of the feed
type Snapshot struct {
	General     General      `json:"general"`
	Pilots      []Pilot      `json:"pilots"`
	Controllers []Controller `json:"controllers"`
	FetchedAt   time.Time    `json:"-"`
}

// Empty returns a snapshot with no traffic, used when a fetch fails
func Empty(at time.Time) *Snapshot {
	return &Snapshot{Pilots: []Pilot{}, Controllers: []Controller{}, FetchedAt: at}
}

// ParseLogon parses the session start timestamp
func (p *Pilot) ParseLogon() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, p.LogonTime)
}
