package ukcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yegors/flightboard/pkg/logger"
)

// DefaultURL is the UK Controller Plugin stand assignment endpoint
const DefaultURL = "https://ukcp.vatsim.uk/api/stand/assignment"

// Assignment is one controller-issued stand assignment
type Assignment struct {
	Callsign   string `json:"callsign"`
	StandID    int    `json:"stand_id"`
	Airport    string `json:"airport"`
	Type       string `json:"type"` // arrival or departure
	AssignedAt string `json:"assigned_at"`
	Requested  bool   `json:"requested"`
}

// Fetcher retrieves the full assignment list
type Fetcher interface {
	FetchAssignments(ctx context.Context) ([]Assignment, error)
}

// Client talks to the UKCP API
type Client struct {
	url        string
	userAgent  string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new UKCP API client
func NewClient(url string, timeout time.Duration, userAgent string, log *logger.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:       url,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("ukcp-cli"),
	}
}

// FetchAssignments downloads all current stand assignments
func (c *Client) FetchAssignments(ctx context.Context) ([]Assignment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}

	// Decode records one at a time so a single odd entry is dropped, not the batch
	assignments := make([]Assignment, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		var a Assignment
		if err := json.Unmarshal(r, &a); err != nil || a.Callsign == "" {
			skipped++
			continue
		}
		assignments = append(assignments, a)
	}

	c.logger.Debug("Fetched stand assignments",
		logger.Int("count", len(assignments)),
		logger.Int("skipped", skipped))

	return assignments, nil
}
