package weather

import "time"

// Unavailable is shown when no METAR can be obtained
const Unavailable = "Unavailable"

// DefaultMETARURL is the network METAR text endpoint
const DefaultMETARURL = "https://metar.vatsim.net"

// WeatherConfig represents the weather client configuration
type WeatherConfig struct {
	APIBaseURL            string
	RequestTimeoutSeconds int
	MaxRetries            int
	CacheExpiryMinutes    int
	CacheSize             int
}

// Observation is a cached METAR text
type Observation struct {
	Airport   string    `json:"airport"`
	Raw       string    `json:"raw"`
	FetchedAt time.Time `json:"fetched_at"`
}
