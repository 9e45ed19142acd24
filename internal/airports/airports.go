package airports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/yegors/flightboard/internal/physics"
)

// ErrNotFound is returned when an airport code is not in the reference database
var ErrNotFound = errors.New("airport not found")

// Airport describes one tracked airport
type Airport struct {
	ICAO               string   `json:"icao"`
	Name               string   `json:"name"`
	Lat                float64  `json:"lat"`
	Lon                float64  `json:"lon"`
	ElevationFt        float64  `json:"elevation_ft"`
	Country            string   `json:"country"`
	CeilingFt          float64  `json:"ceiling_ft"`
	Stands             bool     `json:"stands"`
	ControllerPrefixes []string `json:"controller_prefixes,omitempty"`
	Dynamic            bool     `json:"dynamic"`
}

// Position returns the airport reference point
func (a Airport) Position() *physics.LatLon {
	return &physics.LatLon{Lat: a.Lat, Lon: a.Lon}
}

// Reference is one row of the reference database
type Reference struct {
	ICAO        string
	Name        string
	Lat         float64
	Lon         float64
	ElevationFt float64
	Country     string
}

// Database is an in-memory index of an OurAirports style airports.csv
type Database struct {
	byICAO map[string]Reference
}

// LoadDatabase reads the CSV file at path
func LoadDatabase(path string) (*Database, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open airports database: %w", err)
	}
	defer file.Close()
	return ReadDatabase(file)
}

// ReadDatabase parses airports CSV data.
// Columns used: ident (1), name (3), latitude (4), longitude (5), elevation (6), iso_country (8).
func ReadDatabase(r io.Reader) (*Database, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read airports header: %w", err)
	}

	db := &Database{byICAO: make(map[string]Reference)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read airports database: %w", err)
		}
		if len(record) < 9 {
			continue
		}

		ident := strings.ToUpper(strings.TrimSpace(record[1]))
		if ident == "" {
			continue
		}
		lat, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			continue
		}
		// Elevation might be empty
		elev, _ := strconv.ParseFloat(record[6], 64)

		db.byICAO[ident] = Reference{
			ICAO:        ident,
			Name:        record[3],
			Lat:         lat,
			Lon:         lon,
			ElevationFt: elev,
			Country:     record[8],
		}
	}
	return db, nil
}

// Lookup returns the reference data for an ICAO code
func (d *Database) Lookup(icao string) (Reference, error) {
	if d == nil {
		return Reference{}, ErrNotFound
	}
	ref, ok := d.byICAO[strings.ToUpper(strings.TrimSpace(icao))]
	if !ok {
		return Reference{}, fmt.Errorf("%w: %s", ErrNotFound, icao)
	}
	return ref, nil
}

// Len returns the number of airports in the database
func (d *Database) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byICAO)
}

// Registry is the set of airports the board tracks, including ones added at runtime
type Registry struct {
	mu       sync.RWMutex
	airports map[string]Airport
}

// NewRegistry creates a registry with the configured airports
func NewRegistry(initial []Airport) *Registry {
	r := &Registry{airports: make(map[string]Airport, len(initial))}
	for _, a := range initial {
		a.ICAO = strings.ToUpper(a.ICAO)
		r.airports[a.ICAO] = a
	}
	return r
}

// Get returns a tracked airport
func (r *Registry) Get(icao string) (Airport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.airports[strings.ToUpper(icao)]
	return a, ok
}

// List returns all tracked airports sorted by code
func (r *Registry) List() []Airport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Airport, 0, len(r.airports))
	for _, a := range r.airports {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ICAO < list[j].ICAO })
	return list
}

// Add tracks a new airport. It returns false if the code was already tracked.
func (r *Registry) Add(a Airport) (Airport, bool) {
	a.ICAO = strings.ToUpper(a.ICAO)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.airports[a.ICAO]; ok {
		return existing, false
	}
	r.airports[a.ICAO] = a
	return a, true
}

// AddFromDatabase tracks an airport resolved from the reference database
func (r *Registry) AddFromDatabase(db *Database, icao string, ceilingFt float64) (Airport, bool, error) {
	if a, ok := r.Get(icao); ok {
		return a, false, nil
	}
	ref, err := db.Lookup(icao)
	if err != nil {
		return Airport{}, false, err
	}
	a, added := r.Add(Airport{
		ICAO:        ref.ICAO,
		Name:        ref.Name,
		Lat:         ref.Lat,
		Lon:         ref.Lon,
		ElevationFt: ref.ElevationFt,
		Country:     ref.Country,
		CeilingFt:   ceilingFt,
		Stands:      true,
		Dynamic:     true,
	})
	return a, added, nil
}
