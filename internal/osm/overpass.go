package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yegors/flightboard/pkg/logger"
)

// DefaultOverpassURL is the public Overpass API interpreter
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// Element is a node, way or relation from an Overpass response. Ways and
// relations carry their position in Center.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *Point            `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Point is a bare coordinate pair
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position returns the element coordinates, preferring the node position over the center
func (e Element) Position() (float64, float64, bool) {
	if e.Lat != nil && e.Lon != nil {
		return *e.Lat, *e.Lon, true
	}
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon, true
	}
	return 0, 0, false
}

type response struct {
	Elements []Element `json:"elements"`
}

// Client queries the Overpass API
type Client struct {
	url        string
	userAgent  string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new Overpass client
func NewClient(endpoint string, timeout time.Duration, userAgent string, log *logger.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	return &Client{
		url:       endpoint,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("overpass"),
	}
}

// ParkingQuery builds the Overpass QL query for every parking position inside an aerodrome
func ParkingQuery(icao string) string {
	return fmt.Sprintf(`[out:json][timeout:120];
area["icao"="%s"]["aeroway"="aerodrome"]->.airport;
(
  node["aeroway"="parking_position"](area.airport);
  way["aeroway"="parking_position"](area.airport);
  relation["aeroway"="parking_position"](area.airport);
);
out center tags;`, icao)
}

// FetchParkingPositions downloads the parking position elements of an aerodrome
func (c *Client) FetchParkingPositions(ctx context.Context, icao string) ([]Element, error) {
	form := url.Values{"data": {ParkingQuery(icao)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	c.logger.Debug("Fetched parking positions",
		logger.String("airport", icao),
		logger.Int("elements", len(out.Elements)),
		logger.Since(start))

	return out.Elements, nil
}
