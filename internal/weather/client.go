package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yegors/flightboard/pkg/logger"
)

// Client handles HTTP requests to the METAR text endpoint
type Client struct {
	config     WeatherConfig
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new weather API client
func NewClient(config WeatherConfig, logger *logger.Logger) *Client {
	if config.APIBaseURL == "" {
		config.APIBaseURL = DefaultMETARURL
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeoutSeconds) * time.Second,
		},
		logger: logger.Named("weather-client"),
	}
}

// FetchMETAR fetches the raw METAR text for the specified airport
func (c *Client) FetchMETAR(ctx context.Context, airportCode string) (string, error) {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(c.config.APIBaseURL, "/"), airportCode)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff between retries
			backoffDuration := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying METAR fetch",
				logger.String("airport", airportCode),
				logger.Int("attempt", attempt),
				logger.String("backoff", backoffDuration.String()))
			select {
			case <-time.After(backoffDuration):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := c.fetchOnce(ctx, url)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.logger.Warn("METAR request failed",
			logger.String("airport", airportCode),
			logger.Error(err),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", c.config.MaxRetries+1))
	}
	return "", lastErr
}

func (c *Client) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request to weather API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
	if err != nil {
		return "", fmt.Errorf("error reading weather data: %w", err)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", fmt.Errorf("empty METAR response")
	}
	return text, nil
}
