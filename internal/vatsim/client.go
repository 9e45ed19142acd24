package vatsim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yegors/flightboard/pkg/logger"
)

// DefaultURL is the public v3 data feed
const DefaultURL = "https://data.vatsim.net/v3/vatsim-data.json"

// Client fetches the network data feed
type Client struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
	logger     *logger.Logger
}

// NewClient creates a new feed client
func NewClient(url string, timeout time.Duration, log *logger.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now:    time.Now,
		logger: log.Named("vatsim-cli"),
	}
}

// rawFeed defers record decoding so one broken record cannot fail the whole feed
type rawFeed struct {
	General     General           `json:"general"`
	Pilots      []json.RawMessage `json:"pilots"`
	Controllers []json.RawMessage `json:"controllers"`
}

// Fetch downloads and decodes the feed
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raw rawFeed
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	snap := &Snapshot{
		General:     raw.General,
		Pilots:      make([]Pilot, 0, len(raw.Pilots)),
		Controllers: make([]Controller, 0, len(raw.Controllers)),
		FetchedAt:   c.now().UTC(),
	}

	badPilots := 0
	for _, r := range raw.Pilots {
		var p Pilot
		if err := json.Unmarshal(r, &p); err != nil {
			badPilots++
			c.logger.Debug("Skipping malformed pilot record", logger.Error(err))
			continue
		}
		snap.Pilots = append(snap.Pilots, p)
	}

	badControllers := 0
	for _, r := range raw.Controllers {
		var ctl Controller
		if err := json.Unmarshal(r, &ctl); err != nil {
			badControllers++
			continue
		}
		snap.Controllers = append(snap.Controllers, ctl)
	}

	c.logger.Debug("Fetched VATSIM feed",
		logger.Int("pilots", len(snap.Pilots)),
		logger.Int("controllers", len(snap.Controllers)),
		logger.Int("skipped_pilots", badPilots),
		logger.Int("skipped_controllers", badControllers),
		logger.Since(start))

	return snap, nil
}
