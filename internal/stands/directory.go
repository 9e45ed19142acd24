package stands

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mohae/deepcopy"
	"github.com/yegors/flightboard/pkg/logger"
)

// Snapshot is an immutable view of the directory taken at the start of a cycle
type Snapshot struct {
	stands        map[string][]Stand
	defaultRadius float64
}

// Stands returns the stand list for an airport. Callers must not modify it.
func (s Snapshot) Stands(icao string) []Stand {
	return s.stands[Normalize(icao)]
}

// HasStands reports whether the airport has any stand data
func (s Snapshot) HasStands(icao string) bool {
	return len(s.stands[Normalize(icao)]) > 0
}

// DefaultRadius is the radius applied to stands without one
func (s Snapshot) DefaultRadius() float64 {
	return s.defaultRadius
}

// Directory holds the per-airport stand lists and reloads them from a Store
type Directory struct {
	store         Store
	defaultRadius float64
	logger        *logger.Logger

	mu     sync.RWMutex
	stands map[string][]Stand
	loaded bool
}

// NewDirectory creates an empty directory. Call Reload to populate it.
func NewDirectory(store Store, defaultRadius float64, log *logger.Logger) *Directory {
	if defaultRadius <= 0 {
		defaultRadius = DefaultRadiusMeters
	}
	return &Directory{
		store:         store,
		defaultRadius: defaultRadius,
		logger:        log.Named("stands"),
		stands:        make(map[string][]Stand),
	}
}

// Reload reads the store and swaps in the new mapping.
// On failure the previous mapping stays in place (empty before the first success).
func (d *Directory) Reload(ctx context.Context) error {
	raw, err := d.store.Load(ctx)
	if err != nil {
		d.mu.RLock()
		loaded := d.loaded
		d.mu.RUnlock()
		if loaded {
			d.logger.Error("Stand reload failed, keeping last known good data", logger.Error(err))
		} else {
			d.logger.Error("Stand load failed, starting with no stands", logger.Error(err))
		}
		return fmt.Errorf("failed to load stands: %w", err)
	}

	next := make(map[string][]Stand, len(raw))
	total := 0
	for icao, list := range raw {
		// A single bad airport must not take down the others
		if err := Validate(list); err != nil {
			d.logger.Warn("Skipping invalid stand list",
				logger.String("airport", icao),
				logger.Error(err))
			continue
		}
		next[Normalize(icao)] = list
		total += len(list)
	}

	d.mu.Lock()
	d.stands = next
	d.loaded = true
	d.mu.Unlock()

	d.logger.Info("Stand directory loaded",
		logger.Int("airports", len(next)),
		logger.Int("stands", total))
	return nil
}

// Snapshot returns the current mapping. The mapping is never mutated in place,
// so the snapshot stays consistent across later reloads.
func (d *Directory) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{stands: d.stands, defaultRadius: d.defaultRadius}
}

// Stands returns a copy of the stand list for an airport
func (d *Directory) Stands(icao string) []Stand {
	d.mu.RLock()
	list := d.stands[Normalize(icao)]
	d.mu.RUnlock()

	if len(list) == 0 {
		return []Stand{}
	}
	return deepcopy.Copy(list).([]Stand)
}

// Airports lists the airports with stand data
func (d *Directory) Airports() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	codes := make([]string, 0, len(d.stands))
	for icao := range d.stands {
		codes = append(codes, icao)
	}
	sort.Strings(codes)
	return codes
}

// Replace validates and stores a new stand list for an airport, then reloads
func (d *Directory) Replace(ctx context.Context, icao string, list []Stand) error {
	icao = Normalize(icao)
	if len(icao) != 4 {
		return fmt.Errorf("%w: airport code %q", ErrInvalidStand, icao)
	}

	list = deepcopy.Copy(list).([]Stand)
	if list == nil {
		list = []Stand{}
	}
	if err := Validate(list); err != nil {
		return err
	}

	if err := d.store.Save(ctx, icao, list); err != nil {
		return fmt.Errorf("failed to save stands for %s: %w", icao, err)
	}

	d.logger.Info("Stand list replaced",
		logger.String("airport", icao),
		logger.Int("stands", len(list)))

	return d.Reload(ctx)
}
