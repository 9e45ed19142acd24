package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server     ServerConfig     `toml:"server"`      // HTTP server settings
	Logging    LoggingConfig    `toml:"logging"`     // Application logging settings
	Feed       FeedConfig       `toml:"feed"`        // VATSIM network feed settings
	Weather    WeatherConfig    `toml:"weather"`     // METAR fetching and caching settings
	Stands     StandsConfig     `toml:"stands"`      // Stand directory storage settings
	UKCP       UKCPConfig       `toml:"ukcp"`        // Authoritative stand assignment source
	Checkin    CheckinConfig    `toml:"checkin"`     // Check-in desk rules
	Board      BoardConfig      `toml:"board"`       // Classification and inclusion thresholds
	AirportsDB AirportsDBConfig `toml:"airports_db"` // Reference database for dynamic airports
	Admin      AdminConfig      `toml:"admin"`       // Admin API settings
	Airports   []AirportConfig  `toml:"airports"`    // Airports tracked from startup
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // Primary HTTP port for the server
	Host             string `toml:"host"`                  // Host address to bind to
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts  []int  `toml:"additional_ports"`      // Additional HTTP ports to listen on
	StaticFilesDir   string `toml:"static_files_dir"`      // Directory to serve the board frontend from
}

// LoggingConfig contains logging configuration settings
type LoggingConfig struct {
	Level      string `toml:"level"`        // debug, info, warn, error
	Format     string `toml:"format"`       // console or json
	File       string `toml:"file"`         // Optional log file, rotated
	MaxSizeMB  int    `toml:"max_size_mb"`  // Rotate after this size
	MaxBackups int    `toml:"max_backups"`  // Rotated files to keep
	MaxAgeDays int    `toml:"max_age_days"` // Days to keep rotated files
}

// FeedConfig contains the VATSIM data feed settings
type FeedConfig struct {
	URL                string `toml:"url"`                     // VATSIM v3 data feed URL
	FetchIntervalSecs  int    `toml:"fetch_interval_seconds"`  // How often to rebuild all boards
	RequestTimeoutSecs int    `toml:"request_timeout_seconds"` // Timeout for one feed fetch
}

// WeatherConfig contains METAR settings
type WeatherConfig struct {
	APIBaseURL         string `toml:"api_base_url"`            // METAR text endpoint
	RequestTimeoutSecs int    `toml:"request_timeout_seconds"` // Timeout per METAR request
	MaxRetries         int    `toml:"max_retries"`             // Retries after the first attempt
	CacheExpiryMinutes int    `toml:"cache_expiry_minutes"`    // How long a METAR stays cached
	CacheSize          int    `toml:"cache_size"`              // Maximum cached stations
}

// StandsConfig selects where stand lists are stored
type StandsConfig struct {
	Source         string  `toml:"source"`           // "json" or "sqlite"
	JSONPath       string  `toml:"json_path"`        // Stand file for the json source
	SQLitePath     string  `toml:"sqlite_path"`      // Database file for the sqlite source
	DefaultRadiusM float64 `toml:"default_radius_m"` // Radius for stands without one
}

// UKCPConfig contains the controller stand assignment source settings
type UKCPConfig struct {
	Enabled         bool     `toml:"enabled"`           // Query the assignment API
	URL             string   `toml:"url"`               // Assignment endpoint
	TimeoutSecs     int      `toml:"timeout_seconds"`   // Request timeout
	CacheTTLSecs    int      `toml:"cache_ttl_seconds"` // How long assignments are reused
	LabelsPath      string   `toml:"labels_path"`       // JSON map of stand id to label
	UserAgent       string   `toml:"user_agent"`        // User-Agent header
	CoveredAirports []string `toml:"airports"`          // Airports the source covers (empty = built-in list)
}

// CheckinConfig contains the check-in desk settings
type CheckinConfig struct {
	RulesPath string `toml:"rules_path"` // Optional YAML rule file, built-in rules when empty
}

// BoardConfig contains the board thresholds
type BoardConfig struct {
	GroundRangeKM         float64 `toml:"ground_range_km"`          // Ground departures shown within this range
	CleanupDistanceKM     float64 `toml:"cleanup_distance_km"`      // Departing flights dropped beyond this range
	GeofenceMaxSpeedKts   float64 `toml:"geofence_max_speed_kts"`   // Geofencing ignored above this groundspeed
	GeofenceMaxAltitudeFt float64 `toml:"geofence_max_altitude_ft"` // Geofencing ignored above this altitude
	DefaultCeilingFt      float64 `toml:"default_ceiling_ft"`       // Ceiling for airports without one
	Parallelism           int     `toml:"parallelism"`              // Boards built concurrently
}

// AirportsDBConfig points at the reference airport CSV
type AirportsDBConfig struct {
	Path string `toml:"path"` // OurAirports airports.csv
}

// AdminConfig protects the stand administration endpoints
type AdminConfig struct {
	Token string `toml:"token"` // Bearer token, empty disables the check
}

// AirportConfig describes one tracked airport
type AirportConfig struct {
	ICAO               string   `toml:"icao"`
	Name               string   `toml:"name"`
	Lat                float64  `toml:"lat"`
	Lon                float64  `toml:"lon"`
	ElevationFt        float64  `toml:"elevation_ft"`
	Country            string   `toml:"country"`
	CeilingFt          float64  `toml:"ceiling_ft"`          // Departures at or above this are en route
	DisableStands      bool     `toml:"disable_stands"`      // Skip stand resolution
	ControllerPrefixes []string `toml:"controller_prefixes"` // Extra ATC callsign prefixes
}

// DefaultAirports is the tracked set when none is configured
func DefaultAirports() []AirportConfig {
	return []AirportConfig{
		{
			ICAO:               "LSZH",
			Name:               "Zurich Airport",
			Lat:                47.4647,
			Lon:                8.5492,
			ElevationFt:        1416,
			Country:            "Switzerland",
			CeilingFt:          6000,
			ControllerPrefixes: []string{"LSAS", "LSAZ"},
		},
		{
			ICAO:        "LSGG",
			Name:        "Geneva Airport",
			Lat:         46.2370,
			Lon:         6.1091,
			ElevationFt: 1411,
			Country:     "Switzerland",
			CeilingFt:   8000,
		},
		{
			ICAO:        "LFSB",
			Name:        "EuroAirport Basel-Mulhouse-Freiburg",
			Lat:         47.5900,
			Lon:         7.5290,
			ElevationFt: 885,
			Country:     "France",
			CeilingFt:   5000,
		},
	}
}

// Load loads the configuration from a TOML file
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback attempts to load configuration from multiple locations
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate fills in defaults and checks every section
func (c *Config) Validate() error {
	if err := c.ValidateServer(); err != nil {
		return err
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Feed.URL == "" {
		c.Feed.URL = "https://data.vatsim.net/v3/vatsim-data.json"
	}
	if c.Feed.FetchIntervalSecs <= 0 {
		c.Feed.FetchIntervalSecs = 60
	}
	if c.Feed.RequestTimeoutSecs <= 0 {
		c.Feed.RequestTimeoutSecs = 10
	}

	if err := c.ValidateWeather(); err != nil {
		return err
	}
	if err := c.ValidateStands(); err != nil {
		return err
	}
	if err := c.ValidateUKCP(); err != nil {
		return err
	}
	if err := c.ValidateBoard(); err != nil {
		return err
	}

	if c.AirportsDB.Path == "" {
		c.AirportsDB.Path = "data/airports.csv"
	}

	return c.ValidateAirports()
}

// ValidateServer validates the HTTP server settings
func (c *Config) ValidateServer() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	portsSeen := map[int]bool{c.Server.Port: true}
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}

	if c.Server.IdleTimeoutSecs <= 0 {
		c.Server.IdleTimeoutSecs = 120
	}

	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	} else if _, err := os.Stat(c.Server.StaticFilesDir); os.IsNotExist(err) {
		return fmt.Errorf("static files directory does not exist: %s", c.Server.StaticFilesDir)
	}
	return nil
}

// ValidateWeather validates the METAR settings
func (c *Config) ValidateWeather() error {
	if c.Weather.APIBaseURL == "" {
		c.Weather.APIBaseURL = "https://metar.vatsim.net"
	}
	if c.Weather.RequestTimeoutSecs <= 0 {
		c.Weather.RequestTimeoutSecs = 2
	}
	if c.Weather.MaxRetries < 0 {
		return fmt.Errorf("invalid weather max_retries: %d (must be >= 0)", c.Weather.MaxRetries)
	}
	if c.Weather.CacheExpiryMinutes <= 0 {
		c.Weather.CacheExpiryMinutes = 10
	}
	if c.Weather.CacheSize <= 0 {
		c.Weather.CacheSize = 256
	}
	return nil
}

// ValidateStands validates the stand storage settings
func (c *Config) ValidateStands() error {
	c.Stands.Source = strings.ToLower(c.Stands.Source)
	switch c.Stands.Source {
	case "":
		c.Stands.Source = "json"
	case "json", "sqlite":
	default:
		return fmt.Errorf("invalid stands source: %s (must be 'json' or 'sqlite')", c.Stands.Source)
	}

	if c.Stands.JSONPath == "" {
		c.Stands.JSONPath = "data/stands.json"
	}
	if c.Stands.SQLitePath == "" {
		c.Stands.SQLitePath = "data/stands.db"
	}
	if c.Stands.DefaultRadiusM < 0 {
		return fmt.Errorf("invalid stands default_radius_m: %f", c.Stands.DefaultRadiusM)
	}
	if c.Stands.DefaultRadiusM == 0 {
		c.Stands.DefaultRadiusM = 40
	}
	return nil
}

// ValidateUKCP validates the assignment source settings
func (c *Config) ValidateUKCP() error {
	if c.UKCP.URL == "" {
		c.UKCP.URL = "https://ukcp.vatsim.uk/api/stand/assignment"
	}
	if c.UKCP.TimeoutSecs <= 0 {
		c.UKCP.TimeoutSecs = 5
	}
	if c.UKCP.CacheTTLSecs <= 0 {
		c.UKCP.CacheTTLSecs = 120
	}
	if c.UKCP.UserAgent == "" {
		c.UKCP.UserAgent = "flightboard/1.0"
	}
	for i, icao := range c.UKCP.CoveredAirports {
		c.UKCP.CoveredAirports[i] = strings.ToUpper(strings.TrimSpace(icao))
	}
	return nil
}

// ValidateBoard validates the classification thresholds
func (c *Config) ValidateBoard() error {
	b := &c.Board
	if b.GroundRangeKM == 0 {
		b.GroundRangeKM = 15
	}
	if b.CleanupDistanceKM == 0 {
		b.CleanupDistanceKM = 80
	}
	if b.GeofenceMaxSpeedKts == 0 {
		b.GeofenceMaxSpeedKts = 15
	}
	if b.GeofenceMaxAltitudeFt == 0 {
		b.GeofenceMaxAltitudeFt = 10000
	}
	if b.DefaultCeilingFt == 0 {
		b.DefaultCeilingFt = 5000
	}
	if b.Parallelism <= 0 {
		b.Parallelism = 4
	}

	if b.GroundRangeKM < 0 || b.CleanupDistanceKM < 0 {
		return fmt.Errorf("board ranges must be positive")
	}
	if b.CleanupDistanceKM < b.GroundRangeKM {
		return fmt.Errorf("cleanup_distance_km (%.1f) must not be smaller than ground_range_km (%.1f)",
			b.CleanupDistanceKM, b.GroundRangeKM)
	}
	if b.GeofenceMaxSpeedKts < 0 || b.GeofenceMaxAltitudeFt < 0 || b.DefaultCeilingFt < 0 {
		return fmt.Errorf("board geofence and ceiling limits must be positive")
	}
	return nil
}

// ValidateAirports validates the tracked airport list, using the defaults when empty
func (c *Config) ValidateAirports() error {
	if len(c.Airports) == 0 {
		c.Airports = DefaultAirports()
	}

	seen := make(map[string]bool, len(c.Airports))
	for i := range c.Airports {
		a := &c.Airports[i]
		a.ICAO = strings.ToUpper(strings.TrimSpace(a.ICAO))
		if len(a.ICAO) != 4 {
			return fmt.Errorf("invalid airport icao %q at index %d", a.ICAO, i)
		}
		if seen[a.ICAO] {
			return fmt.Errorf("duplicate airport configured: %s", a.ICAO)
		}
		seen[a.ICAO] = true

		if a.Lat < -90 || a.Lat > 90 || a.Lon < -180 || a.Lon > 180 {
			return fmt.Errorf("airport %s has coordinates out of range", a.ICAO)
		}
		if a.CeilingFt <= 0 {
			a.CeilingFt = c.Board.DefaultCeilingFt
		}
		if a.Name == "" {
			a.Name = a.ICAO
		}
		for j, p := range a.ControllerPrefixes {
			a.ControllerPrefixes[j] = strings.ToUpper(strings.TrimSpace(p))
		}
	}
	return nil
}
