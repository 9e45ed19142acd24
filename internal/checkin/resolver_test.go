package checkin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	assert.Equal(t, 402, Seed("SWR123"))
	assert.Equal(t, 0, Seed(""))
	assert.Equal(t, Seed("AFR1"), Seed("AFR1"))
}

func TestAirlinePrefix(t *testing.T) {
	assert.Equal(t, "SWR", AirlinePrefix("swr123"))
	assert.Equal(t, "LX", AirlinePrefix("LX"))
	assert.Equal(t, "", AirlinePrefix(""))
}

func TestResolve(t *testing.T) {
	r, err := NewDefaultResolver()
	require.NoError(t, err)

	tests := []struct {
		callsign string
		airport  string
		want     string
	}{
		{"SWR123", "LSZH", "1"},
		{"EZY1", "LSZH", "3"},
		{"KLM1", "LSZH", "2"},
		{"AFR123", "LSGG", "F77"},
		{"BAW123", "EGLL", "509"},
		{"EZY1", "EGKK", "N128"},
		{"VIR1", "KJFK", "T4-6"},
		{"DAL1", "KJFK", "T4-2"},
		{"EWG1", "KJFK", "T7-C"},
		{"QTR1", "KJFK", "T8-5"},
		{"ABC1", "EDDF", "08"},
		{"ABC1", "eddf", "08"},
		{"", "LSZH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.airport+"/"+tt.callsign, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.callsign, tt.airport))
		})
	}
}

func TestResolveTotalAndDeterministic(t *testing.T) {
	r, err := NewDefaultResolver()
	require.NoError(t, err)

	callsigns := []string{"A", "SWR1", "N123AB", "ÄÖÜ42", "jbu7", "LH400", "X", "RYR9KP", "UAE17"}
	airports := []string{"LSZH", "LSGG", "LFSB", "EGLL", "EGKK", "EGSS", "EGLC", "KJFK", "ZZZZ", ""}

	for _, a := range airports {
		for _, c := range callsigns {
			first := r.Resolve(c, a)
			assert.NotEmpty(t, first, "%s at %s", c, a)
			assert.Equal(t, first, r.Resolve(c, a))
		}
	}
}

func TestParseRejectsBrokenDesk(t *testing.T) {
	_, err := Parse([]byte(`
airports:
  XXXX:
    zones:
      - name: broken
        airlines: [ABC]
        desk: { modulo: 0 }
`))
	assert.Error(t, err)
}

func TestLoadResolverFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generic: { modulo: 5, offset: 100, format: "G%d" }
airports:
  EDDF:
    zones:
      - name: lufthansa
        airlines: [dlh]
        desk: { rows: ["A", "B"], format: "Hall %s" }
`), 0o644))

	r, err := LoadResolver(path)
	require.NoError(t, err)

	// DLH1: 68+76+72+49 = 265
	assert.Equal(t, "Hall B", r.Resolve("DLH1", "EDDF"))
	// Airport table without a default uses the generic desk
	assert.Equal(t, "G101", r.Resolve("AFR1", "EDDF"))
	assert.True(t, r.HasRules("eddf"))
	assert.False(t, r.HasRules("LSZH"))
}
