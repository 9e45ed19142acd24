package osm

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/yegors/flightboard/internal/stands"
)

// ImportRadiusMeters is the geofence radius given to every imported stand
const ImportRadiusMeters = 35.0

var nameKeys = []string{"ref", "name", "local_ref"}

var remoteMarkers = []string{"remote", "cargo", "general_aviation"}

// StandName picks the stand designator from the tags: ref, then name, then local_ref.
// Names are upper-cased with all whitespace removed. "0" and "00" are placeholders.
func StandName(tags map[string]string) (string, bool) {
	for _, key := range nameKeys {
		name := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return unicode.ToUpper(r)
		}, tags[key])
		if name != "" && name != "0" && name != "00" {
			return name, true
		}
	}
	return "", false
}

// StandType classifies a parking position from its tags
func StandType(tags map[string]string) string {
	for k, v := range tags {
		blob := strings.ToLower(k + "=" + v)
		for _, m := range remoteMarkers {
			if strings.Contains(blob, m) {
				return stands.TypeRemote
			}
		}
		// "ga" only counts as a whole word, otherwise "gate" would match
		words := strings.FieldsFunc(blob, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if w == "ga" {
				return stands.TypeRemote
			}
		}
	}
	return stands.TypeContact
}

// Convert turns Overpass elements into a stand list sorted by name. The first
// element with a given name wins. skipped counts elements without a usable
// name or position.
func Convert(elements []Element) (list []stands.Stand, skipped int) {
	byName := make(map[string]stands.Stand)
	for _, e := range elements {
		name, ok := StandName(e.Tags)
		if !ok {
			skipped++
			continue
		}
		lat, lon, ok := e.Position()
		if !ok {
			skipped++
			continue
		}
		if _, dup := byName[name]; dup {
			continue
		}
		byName[name] = stands.Stand{
			Name:   name,
			Lat:    round6(lat),
			Lon:    round6(lon),
			Radius: ImportRadiusMeters,
			Type:   StandType(e.Tags),
		}
	}

	list = make([]stands.Stand, 0, len(byName))
	for _, s := range byName {
		list = append(list, s)
	}
	sortByName(list)
	return list, skipped
}

// FilterPrefixes keeps stands whose name starts with one of the given characters.
// An empty prefix set keeps everything.
func FilterPrefixes(list []stands.Stand, prefixes string) []stands.Stand {
	prefixes = strings.ToUpper(prefixes)
	if prefixes == "" {
		return list
	}
	out := list[:0:0]
	for _, s := range list {
		if strings.ContainsRune(prefixes, []rune(s.Name)[0]) {
			out = append(out, s)
		}
	}
	return out
}

// Merge overlays imported stands on an existing list. Imported entries replace
// existing ones with the same name.
func Merge(existing, imported []stands.Stand) []stands.Stand {
	byName := make(map[string]stands.Stand, len(existing)+len(imported))
	for _, s := range existing {
		byName[s.Name] = s
	}
	for _, s := range imported {
		byName[s.Name] = s
	}

	out := make([]stands.Stand, 0, len(byName))
	for _, s := range byName {
		out = append(out, s)
	}
	sortByName(out)
	return out
}

func sortByName(list []stands.Stand) {
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
