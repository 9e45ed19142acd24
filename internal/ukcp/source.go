package ukcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultAirports are the airports with controller-issued stand coverage
var DefaultAirports = []string{
	"EGLL", "EGKK", "EGGW", "EGSS", "EGLC",
	"EGCC", "EGBB", "EGNX", "EGNM",
	"EGPH", "EGPF", "EGAA", "EGGP",
	"EGNT", "EGNR", "EGSH", "EGGD",
}

// Source answers stand lookups for covered airports
type Source struct {
	cache    *Cache
	airports map[string]bool
}

// NewSource restricts a cache to a set of covered airports
func NewSource(cache *Cache, airports []string) *Source {
	if len(airports) == 0 {
		airports = DefaultAirports
	}
	covered := make(map[string]bool, len(airports))
	for _, a := range airports {
		covered[strings.ToUpper(a)] = true
	}
	return &Source{cache: cache, airports: covered}
}

// Covers reports whether the airport is in the coverage list
func (s *Source) Covers(icao string) bool {
	return s.airports[strings.ToUpper(icao)]
}

// Snapshot refreshes the cache if needed and returns a lookup view for one cycle
func (s *Source) Snapshot(ctx context.Context) *View {
	return &View{snapshot: s.cache.GetOrRefresh(ctx), airports: s.airports}
}

// View is a per-cycle lookup restricted to covered airports
type View struct {
	snapshot Snapshot
	airports map[string]bool
}

// Covers reports whether the airport is in the coverage list
func (v *View) Covers(icao string) bool {
	return v.airports[strings.ToUpper(icao)]
}

// Lookup returns the stand label assigned to a callsign at an airport
func (v *View) Lookup(callsign, icao string) (string, bool) {
	if !v.Covers(icao) {
		return "", false
	}
	return v.snapshot.Lookup(callsign, icao)
}

// LoadLabels reads a JSON object mapping stand IDs to labels.
// A missing path or file gives an empty table.
func LoadLabels(path string) (Labels, error) {
	labels := Labels{}
	if path == "" {
		return labels, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return labels, nil
	}
	if err != nil {
		return labels, fmt.Errorf("failed to read stand labels: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return labels, fmt.Errorf("failed to parse stand labels: %w", err)
	}

	for k, v := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		labels[id] = v
	}
	return labels, nil
}
