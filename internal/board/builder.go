package board

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yegors/flightboard/internal/airports"
	"github.com/yegors/flightboard/internal/checkin"
	"github.com/yegors/flightboard/internal/physics"
	"github.com/yegors/flightboard/internal/stands"
	"github.com/yegors/flightboard/internal/vatsim"
	"github.com/yegors/flightboard/pkg/logger"
)

// AssignmentSource answers authoritative stand lookups for one cycle
type AssignmentSource interface {
	Covers(icao string) bool
	Lookup(callsign, icao string) (string, bool)
}

// Settings are the board inclusion thresholds
type Settings struct {
	GroundRangeKM     float64
	CleanupDistanceKM float64
	Gate              stands.Gate
}

// DefaultSettings returns the standard thresholds
func DefaultSettings() Settings {
	return Settings{
		GroundRangeKM:     15,
		CleanupDistanceKM: 80,
		Gate:              stands.DefaultGate,
	}
}

// Environment is the consistent input set for one cycle
type Environment struct {
	Feed        *vatsim.Snapshot
	Stands      stands.Snapshot
	Assignments AssignmentSource // nil when no authoritative source is configured
	Now         time.Time
}

// Builder turns a feed snapshot into per-airport boards.
// Build has no side effects, so identical inputs give identical boards.
type Builder struct {
	settings Settings
	desks    *checkin.Resolver
	logger   *logger.Logger
}

// NewBuilder creates a board builder
func NewBuilder(settings Settings, desks *checkin.Resolver, log *logger.Logger) *Builder {
	return &Builder{
		settings: settings,
		desks:    desks,
		logger:   log.Named("board-builder"),
	}
}

// flight is the per-direction working state for one pilot
type flight struct {
	pilot       *vatsim.Pilot
	plan        *vatsim.FlightPlan
	direction   Direction
	position    *physics.LatLon
	altitude    float64
	groundspeed float64
	distanceKM  float64
}

// Build assembles the board for one airport
func (b *Builder) Build(airport airports.Airport, env Environment, metar string) *AirportBoard {
	icao := strings.ToUpper(airport.ICAO)
	now := env.Now.UTC()

	board := &AirportBoard{
		ICAO:              icao,
		AirportName:       airport.Name,
		Country:           airport.Country,
		HasStands:         airport.Stands && (env.Stands.HasStands(icao) || (env.Assignments != nil && env.Assignments.Covers(icao))),
		METAR:             metar,
		MagneticVariation: round1(physics.CalculateMagneticVariation(airport.Lat, airport.Lon, airport.ElevationFt, now)),
		Departures:        []FlightRecord{},
		Arrivals:          []FlightRecord{},
		Controllers:       []ControllerRecord{},
		UpdatedAt:         now,
	}

	if env.Feed == nil {
		return board
	}

	ref := airport.Position()
	for i := range env.Feed.Pilots {
		p := &env.Feed.Pilots[i]
		if p.FlightPlan == nil {
			continue
		}

		var dir Direction
		switch {
		case strings.EqualFold(p.FlightPlan.Departure, icao):
			dir = Departure
		case strings.EqualFold(p.FlightPlan.Arrival, icao):
			dir = Arrival
		default:
			continue
		}

		f := &flight{
			pilot:       p,
			plan:        p.FlightPlan,
			direction:   dir,
			position:    physics.NewLatLon(p.Latitude.Ptr(), p.Longitude.Ptr()),
			altitude:    p.Altitude.Float64(),
			groundspeed: p.Groundspeed.Float64(),
		}
		f.distanceKM = physics.DistanceKM(f.position, ref)

		rec, ok := b.evaluate(f, airport, env, now)
		if !ok {
			continue
		}
		if dir == Departure {
			board.Departures = append(board.Departures, rec)
		} else {
			board.Arrivals = append(board.Arrivals, rec)
		}
	}

	sortDepartures(board.Departures)
	sortArrivals(board.Arrivals)
	board.Controllers = Controllers(env.Feed.Controllers, icao, airport.ControllerPrefixes)
	return board
}

// evaluate runs stand resolution, classification, filtering and text derivation for one flight
func (b *Builder) evaluate(f *flight, airport airports.Airport, env Environment, now time.Time) (FlightRecord, bool) {
	icao := strings.ToUpper(airport.ICAO)

	var stand standResult
	if airport.Stands {
		stand = b.resolveStand(f, icao, env, false)
	}

	phase := Classify(Inputs{
		Direction:         f.direction,
		Altitude:          f.altitude,
		Groundspeed:       f.groundspeed,
		Transponder:       f.pilot.Transponder,
		MinutesSinceLogon: b.minutesSinceLogon(f.pilot, now),
		GateFound:         stand.found(),
		DistanceKM:        f.distanceKM,
		CeilingFt:         airport.CeilingFt,
	})

	if f.direction == Departure {
		if !ShowDeparture(phase, f.distanceKM, b.settings.GroundRangeKM, b.settings.CleanupDistanceKM) {
			return FlightRecord{}, false
		}
	} else if !ShowArrival(phase) {
		return FlightRecord{}, false
	}

	display := string(phase)
	if AtGate(f.direction, stand.found(), f.groundspeed) {
		display = string(PhaseAtGate)
		// The aircraft's own position beats a possibly stale controller assignment
		if fenced := b.resolveStand(f, icao, env, true); fenced.found() {
			stand = fenced
		}
	}

	rec := FlightRecord{
		Callsign:    f.pilot.Callsign,
		Aircraft:    orDefault(f.plan.AircraftShort, UnknownAircraftStr),
		Origin:      orDefault(f.plan.Departure, UnknownAircraftStr),
		Destination: orDefault(f.plan.Arrival, UnknownAircraftStr),
		Altitude:    int(math.Round(f.altitude)),
		Groundspeed: int(math.Round(f.groundspeed)),
		Status:      display,
		StatusRaw:   phase,
		Gate:        GatePlaceholder,
		GateSource:  stand.source,
		Direction:   f.direction,
		Route:       f.plan.Route,
		Distance:    round1(math.Min(f.distanceKM, physics.UnknownDistanceMeters/1000)),
	}
	if stand.found() {
		rec.Gate = stand.label
	}

	sched, err := ScheduledTime(f.plan.DepTime, f.plan.EnrouteTime, f.direction)
	if err != nil {
		rec.TimeDisplay = TimePlaceholder
		b.logger.Debug("Unparseable schedule",
			logger.String("callsign", rec.Callsign),
			logger.String("deptime", f.plan.DepTime),
			logger.String("enroute", f.plan.EnrouteTime),
			logger.Error(err))
	} else {
		rec.TimeDisplay = sched.String()
		rel := relativeMinutes(sched, MinutesOfDay(now))
		rec.sortMinutes = &rel
	}

	switch f.direction {
	case Departure:
		rec.Checkin = CheckinClosed
		if phase == PhaseCheckIn || phase == PhaseBoarding {
			rec.Checkin = b.desks.Resolve(f.pilot.Callsign, icao)
			logon, _ := f.pilot.ParseLogon()
			if late, err := MinutesLate(f.plan.DepTime, logon, now); err == nil {
				rec.DelayText = DelayText(late)
			}
		}
	case Arrival:
		switch phase {
		case PhaseApproaching, PhaseLanding, PhaseEnRoute:
			rec.DelayText = LateArrival(f.plan.DepTime, f.plan.EnrouteTime, f.distanceKM, f.groundspeed, now)
		}
	}

	return rec, true
}

type standResult struct {
	label  string
	source StandSource
}

func (s standResult) found() bool {
	return s.source != StandSourceNone
}

// resolveStand tries the authoritative source, then geofencing.
// geofenceOnly skips the authoritative source.
func (b *Builder) resolveStand(f *flight, icao string, env Environment, geofenceOnly bool) standResult {
	if !geofenceOnly && env.Assignments != nil && env.Assignments.Covers(icao) {
		if label, ok := env.Assignments.Lookup(f.pilot.Callsign, icao); ok {
			return standResult{label: label, source: StandSourceAssignment}
		}
	}

	list := env.Stands.Stands(icao)
	if s, ok := stands.Match(list, f.position, f.groundspeed, f.altitude, b.settings.Gate, env.Stands.DefaultRadius()); ok {
		return standResult{label: s.Name, source: StandSourceGeofence}
	}
	return standResult{}
}

// minutesSinceLogon treats an unknown logon as long connected
func (b *Builder) minutesSinceLogon(p *vatsim.Pilot, now time.Time) float64 {
	logon, err := p.ParseLogon()
	if err != nil {
		return math.Inf(1)
	}
	m := now.Sub(logon).Minutes()
	if m < 0 {
		return 0
	}
	return m
}

// Controllers lists ATC positions for the airport, sorted by callsign
func Controllers(all []vatsim.Controller, icao string, extraPrefixes []string) []ControllerRecord {
	prefixes := append([]string{icao}, extraPrefixes...)

	out := []ControllerRecord{}
	for _, c := range all {
		callsign := strings.ToUpper(c.Callsign)
		for _, prefix := range prefixes {
			if strings.HasPrefix(callsign, strings.ToUpper(prefix)+"_") {
				out = append(out, ControllerRecord{
					Callsign:  c.Callsign,
					Frequency: c.Frequency,
					Position:  callsign[strings.LastIndex(callsign, "_")+1:],
				})
				break
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Callsign < out[j].Callsign })
	return out
}

// sortDepartures orders by scheduled time relative to now, unknown times last
func sortDepartures(list []FlightRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		return lessBySchedule(list[i], list[j])
	})
}

// sortArrivals orders by phase priority, then scheduled time
func sortArrivals(list []FlightRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		pi, pj := arrivalPriority[list[i].StatusRaw], arrivalPriority[list[j].StatusRaw]
		if pi != pj {
			return pi < pj
		}
		return lessBySchedule(list[i], list[j])
	})
}

func lessBySchedule(a, b FlightRecord) bool {
	switch {
	case a.sortMinutes == nil && b.sortMinutes == nil:
		return a.Callsign < b.Callsign
	case a.sortMinutes == nil:
		return false
	case b.sortMinutes == nil:
		return true
	case *a.sortMinutes != *b.sortMinutes:
		return *a.sortMinutes < *b.sortMinutes
	default:
		return a.Callsign < b.Callsign
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
