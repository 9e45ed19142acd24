package board

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/flightboard/internal/physics"
)

// Parse failures for filed times
var (
	ErrEmptyTime     = errors.New("empty time")
	ErrMalformedTime = errors.New("malformed time")
)

const (
	minutesPerDay = 1440

	// A difference beyond this is taken to straddle midnight
	dayWrapThreshold = 1000

	delayMinMinutes     = 15
	delayMaxMinutes     = 300
	lateLogonMinutes    = 15
	lateArrivalMinutes  = 15
	lateArrivalMinSpeed = 50.0
)

// TimeOfDay is minutes since 00:00 UTC
type TimeOfDay int

// String formats as HH:MM
func (t TimeOfDay) String() string {
	m := mod(int(t), minutesPerDay)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Add returns the time of day after d minutes, wrapping at midnight
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return TimeOfDay(mod(int(t)+minutes, minutesPerDay))
}

// MinutesOfDay converts a wall clock time to UTC minutes since midnight
func MinutesOfDay(t time.Time) TimeOfDay {
	t = t.UTC()
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func splitHHMM(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, ErrEmptyTime
	}
	if len(s) > 4 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
		}
	}

	s = strings.Repeat("0", 4-len(s)) + s
	hh, _ := strconv.Atoi(s[:2])
	mm, _ := strconv.Atoi(s[2:])
	if mm > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	return hh, mm, nil
}

// ParseHHMM parses a filed departure time such as "0930" or "930"
func ParseHHMM(s string) (TimeOfDay, error) {
	hh, mm, err := splitHHMM(s)
	if err != nil {
		return 0, err
	}
	if hh > 23 {
		return 0, fmt.Errorf("%w: hour %d", ErrMalformedTime, hh)
	}
	return TimeOfDay(hh*60 + mm), nil
}

// ParseEnroute parses a filed HHMM duration into minutes
func ParseEnroute(s string) (int, error) {
	hh, mm, err := splitHHMM(s)
	if err != nil {
		return 0, err
	}
	return hh*60 + mm, nil
}

// closestOccurrence shifts a minute difference across midnight when it is implausibly large
func closestOccurrence(diff int) int {
	if diff > dayWrapThreshold {
		return diff - minutesPerDay
	}
	if diff < -dayWrapThreshold {
		return diff + minutesPerDay
	}
	return diff
}

// relativeMinutes places t in [-720, 720) around now
func relativeMinutes(t, now TimeOfDay) int {
	return mod(int(t)-int(now)+minutesPerDay/2, minutesPerDay) - minutesPerDay/2
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}

// ScheduledTime returns the time shown on the board for a direction
func ScheduledTime(deptime, enroute string, dir Direction) (TimeOfDay, error) {
	dep, err := ParseHHMM(deptime)
	if err != nil {
		return 0, err
	}
	switch dir {
	case Departure:
		return dep, nil
	case Arrival:
		minutes, err := ParseEnroute(enroute)
		if err != nil {
			return 0, err
		}
		return dep.Add(minutes), nil
	default:
		return 0, fmt.Errorf("unknown direction %q", dir)
	}
}

// ScheduledDisplay formats the scheduled time or returns the placeholder
func ScheduledDisplay(deptime, enroute string, dir Direction) string {
	t, err := ScheduledTime(deptime, enroute, dir)
	if err != nil {
		return TimePlaceholder
	}
	return t.String()
}

// MinutesLate returns how long past the filed departure time now is, never negative.
// A pilot who connected well after the filed time is not counted as late.
// A zero logon time skips that check.
func MinutesLate(scheduled string, logon, now time.Time) (int, error) {
	sched, err := ParseHHMM(scheduled)
	if err != nil {
		return 0, err
	}

	if !logon.IsZero() {
		if closestOccurrence(int(MinutesOfDay(logon))-int(sched)) > lateLogonMinutes {
			return 0, nil
		}
	}

	diff := closestOccurrence(int(MinutesOfDay(now)) - int(sched))
	if diff < 0 {
		return 0, nil
	}
	return diff, nil
}

// DelayText renders a delay, or "" outside the (15, 300) minute window
func DelayText(minutes int) string {
	if minutes <= delayMinMinutes || minutes >= delayMaxMinutes {
		return ""
	}
	if minutes < 60 {
		return fmt.Sprintf("Delayed %d min", minutes)
	}
	return fmt.Sprintf("Delayed %dh %02dm", minutes/60, minutes%60)
}

// LateArrival compares a projected ETA against the filed arrival time.
// It returns LateArrivalText when more than 15 minutes behind, otherwise "".
func LateArrival(deptime, enroute string, distanceKM, groundspeed float64, now time.Time) string {
	if groundspeed < lateArrivalMinSpeed || distanceKM < 0 || distanceKM*1000 >= physics.UnknownDistanceMeters {
		return ""
	}

	planned, err := ScheduledTime(deptime, enroute, Arrival)
	if err != nil {
		return ""
	}

	hours := distanceKM / (groundspeed * physics.KnotsToKmh)
	eta := MinutesOfDay(now).Add(int(math.Round(hours * 60)))

	if closestOccurrence(int(eta)-int(planned)) > lateArrivalMinutes {
		return LateArrivalText
	}
	return ""
}
