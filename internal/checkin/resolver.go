package checkin

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Desk describes how a zone turns a seed into a label
type Desk struct {
	Fixed  string   `yaml:"fixed"`
	Modulo int      `yaml:"modulo"`
	Offset int      `yaml:"offset"`
	Rows   []string `yaml:"rows"`
	Format string   `yaml:"format"`
}

// Zone groups airlines that share a desk rule
type Zone struct {
	Name     string   `yaml:"name"`
	Airlines []string `yaml:"airlines"`
	Desk     Desk     `yaml:"desk"`
}

// AirportRules is the ordered zone list for one airport
type AirportRules struct {
	Zones   []Zone `yaml:"zones"`
	Default Desk   `yaml:"default"`
}

// Rules is the whole rule document
type Rules struct {
	Generic  Desk                    `yaml:"generic"`
	Airports map[string]AirportRules `yaml:"airports"`
}

var genericDesk = Desk{Modulo: 20, Offset: 1, Format: "%02d"}

// Resolver maps (callsign, airport) to a display desk label.
// It is a pure function of its inputs and holds no mutable state after construction.
type Resolver struct {
	generic  Desk
	airports map[string]compiledAirport
}

type compiledAirport struct {
	zones []compiledZone
	def   Desk
}

type compiledZone struct {
	airlines map[string]bool
	desk     Desk
}

// NewDefaultResolver builds a resolver from the embedded rule table
func NewDefaultResolver() (*Resolver, error) {
	return Parse(defaultRules)
}

// LoadResolver reads a rule file from disk. An empty path selects the embedded rules.
func LoadResolver(path string) (*Resolver, error) {
	if path == "" {
		return NewDefaultResolver()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read check-in rules: %w", err)
	}
	return Parse(data)
}

// Parse compiles a YAML rule document
func Parse(data []byte) (*Resolver, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse check-in rules: %w", err)
	}
	return Compile(rules)
}

// Compile validates rules and indexes the airline lists
func Compile(rules Rules) (*Resolver, error) {
	r := &Resolver{
		generic:  genericDesk,
		airports: make(map[string]compiledAirport, len(rules.Airports)),
	}
	if !rules.Generic.empty() {
		if err := rules.Generic.validate(); err != nil {
			return nil, fmt.Errorf("generic desk: %w", err)
		}
		r.generic = rules.Generic
	}

	for code, ar := range rules.Airports {
		code = strings.ToUpper(code)
		compiled := compiledAirport{def: r.generic}
		if !ar.Default.empty() {
			if err := ar.Default.validate(); err != nil {
				return nil, fmt.Errorf("%s default desk: %w", code, err)
			}
			compiled.def = ar.Default
		}

		for i, z := range ar.Zones {
			if err := z.Desk.validate(); err != nil {
				return nil, fmt.Errorf("%s zone %d (%s): %w", code, i, z.Name, err)
			}
			cz := compiledZone{airlines: make(map[string]bool, len(z.Airlines)), desk: z.Desk}
			for _, a := range z.Airlines {
				cz.airlines[strings.ToUpper(a)] = true
			}
			compiled.zones = append(compiled.zones, cz)
		}
		r.airports[code] = compiled
	}
	return r, nil
}

// Seed is the sum of the callsign's character codes
func Seed(callsign string) int {
	seed := 0
	for _, c := range callsign {
		seed += int(c)
	}
	return seed
}

// AirlinePrefix returns the upper-cased first three characters of a callsign
func AirlinePrefix(callsign string) string {
	runes := []rune(callsign)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return strings.ToUpper(string(runes))
}

// Resolve returns the desk label for a flight. An empty callsign yields "".
func (r *Resolver) Resolve(callsign, airport string) string {
	if callsign == "" {
		return ""
	}
	seed := Seed(callsign)

	ar, ok := r.airports[strings.ToUpper(airport)]
	if !ok {
		return r.label(r.generic, seed)
	}

	airline := AirlinePrefix(callsign)
	for _, z := range ar.zones {
		if z.airlines[airline] {
			return r.label(z.desk, seed)
		}
	}
	return r.label(ar.def, seed)
}

// HasRules reports whether the airport has its own rule table
func (r *Resolver) HasRules(airport string) bool {
	_, ok := r.airports[strings.ToUpper(airport)]
	return ok
}

func (r *Resolver) label(d Desk, seed int) string {
	if s, ok := d.render(seed); ok {
		return s
	}
	s, _ := genericDesk.render(seed)
	return s
}

func (d Desk) empty() bool {
	return d.Fixed == "" && d.Modulo == 0 && len(d.Rows) == 0
}

func (d Desk) validate() error {
	switch {
	case d.Fixed != "":
		return nil
	case len(d.Rows) > 0:
		return nil
	case d.Modulo > 0:
		return nil
	default:
		return fmt.Errorf("desk needs fixed, rows or a positive modulo")
	}
}

func (d Desk) render(seed int) (string, bool) {
	format := d.Format
	switch {
	case d.Fixed != "":
		return d.Fixed, true
	case len(d.Rows) > 0:
		if format == "" {
			format = "%s"
		}
		return fmt.Sprintf(format, d.Rows[seed%len(d.Rows)]), true
	case d.Modulo > 0:
		if format == "" {
			format = "%d"
		}
		return fmt.Sprintf(format, seed%d.Modulo+d.Offset), true
	default:
		return "", false
	}
}
