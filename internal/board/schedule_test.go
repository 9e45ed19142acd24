package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 10, hh, mm, 0, 0, time.UTC)
}

func TestParseHHMM(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr error
	}{
		{"0930", 570, nil},
		{"930", 570, nil},
		{"5", 5, nil},
		{" 2359 ", 1439, nil},
		{"0000", 0, nil},
		{"", 0, ErrEmptyTime},
		{"2400", 0, ErrMalformedTime},
		{"1260", 0, ErrMalformedTime},
		{"12:30", 0, ErrMalformedTime},
		{"abcd", 0, ErrMalformedTime},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHHMM(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnrouteAllowsLongFlights(t *testing.T) {
	m, err := ParseEnroute("2630")
	require.NoError(t, err)
	assert.Equal(t, 26*60+30, m)
}

func TestScheduledDisplay(t *testing.T) {
	assert.Equal(t, "09:30", ScheduledDisplay("930", "", Departure))
	assert.Equal(t, "13:15", ScheduledDisplay("1200", "0115", Arrival))
	assert.Equal(t, "01:15", ScheduledDisplay("2330", "0145", Arrival))
	assert.Equal(t, TimePlaceholder, ScheduledDisplay("", "0100", Departure))
	assert.Equal(t, TimePlaceholder, ScheduledDisplay("2460", "0100", Departure))
	assert.Equal(t, TimePlaceholder, ScheduledDisplay("1200", "", Arrival))
	assert.Equal(t, TimePlaceholder, ScheduledDisplay("1200", "0100", "XYZ"))
}

func TestRelativeMinutes(t *testing.T) {
	assert.Equal(t, 30, relativeMinutes(780, 750))
	assert.Equal(t, -30, relativeMinutes(720, 750))
	assert.Equal(t, 20, relativeMinutes(10, 1430))
	assert.Equal(t, -720, relativeMinutes(0, 720))
}

func TestMinutesLate(t *testing.T) {
	var noLogon time.Time

	tests := []struct {
		name      string
		scheduled string
		logon     time.Time
		now       time.Time
		want      int
	}{
		{"on time", "1200", noLogon, at(12, 0), 0},
		{"early", "1200", noLogon, at(11, 30), 0},
		{"late", "1200", noLogon, at(12, 45), 45},
		{"across midnight", "2350", noLogon, at(0, 10), 20},
		{"early across midnight", "0010", noLogon, at(23, 50), 0},
		{"connected before schedule", "1145", at(11, 30), at(12, 30), 45},
		{"connected at the limit", "1200", at(12, 15), at(13, 0), 60},
		{"connected well after schedule", "1000", at(10, 30), at(11, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinutesLate(tt.scheduled, tt.logon, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := MinutesLate("nope", noLogon, at(12, 0))
	assert.ErrorIs(t, err, ErrMalformedTime)
}

func TestDelayText(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, ""},
		{14, ""},
		{15, ""},
		{16, "Delayed 16 min"},
		{59, "Delayed 59 min"},
		{60, "Delayed 1h 00m"},
		{125, "Delayed 2h 05m"},
		{299, "Delayed 4h 59m"},
		{300, ""},
		{1000, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DelayText(tt.minutes), "minutes=%d", tt.minutes)
	}
}

func TestLateArrival(t *testing.T) {
	now := at(12, 0)
	// 300 kt covers 555.6 km in one hour, so the ETA is 13:00
	const dist = 300 * 1.852

	assert.Equal(t, LateArrivalText, LateArrival("1000", "0130", dist, 300, now))
	assert.Equal(t, "", LateArrival("1200", "0100", dist, 300, now))
	assert.Equal(t, "", LateArrival("1150", "0055", dist, 300, now), "15 minutes behind is tolerated")
	assert.Equal(t, "", LateArrival("1000", "0130", dist, 40, now), "too slow to project")
	assert.Equal(t, "", LateArrival("1000", "0130", 1e5, 300, now), "unknown distance")
	assert.Equal(t, "", LateArrival("", "0130", dist, 300, now))
}

func TestLateArrivalAcrossMidnight(t *testing.T) {
	// Filed 23:30 + 00:20 = 23:50, projected 00:30
	now := at(0, 0)
	dist := 0.5 * 300 * 1.852
	assert.Equal(t, LateArrivalText, LateArrival("2330", "0020", dist, 300, now))
}
