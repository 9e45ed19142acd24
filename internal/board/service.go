package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yegors/flightboard/internal/airports"
	"github.com/yegors/flightboard/internal/stands"
	"github.com/yegors/flightboard/internal/ukcp"
	"github.com/yegors/flightboard/internal/vatsim"
	"github.com/yegors/flightboard/internal/weather"
	"github.com/yegors/flightboard/internal/websocket"
	"github.com/yegors/flightboard/pkg/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrUnknownAirport is returned for airports that are not tracked
var ErrUnknownAirport = errors.New("airport not tracked")

// MessageTypeFlightUpdate carries a full airport board to a room
const MessageTypeFlightUpdate = "flight_update"

// FeedFetcher retrieves one snapshot of the network feed
type FeedFetcher interface {
	Fetch(ctx context.Context) (*vatsim.Snapshot, error)
}

// METARSource returns raw METAR text or a placeholder
type METARSource interface {
	METAR(ctx context.Context, icao string) string
}

// AssignmentProvider hands out a per-cycle view of authoritative stand assignments
type AssignmentProvider interface {
	Snapshot(ctx context.Context) *ukcp.View
}

// WebSocketServer defines the interface for a WebSocket server
type WebSocketServer interface {
	BroadcastToRoom(room string, message *websocket.Message)
}

// ServiceConfig holds the service timing settings
type ServiceConfig struct {
	FetchInterval time.Duration
	FeedTimeout   time.Duration
	Parallelism   int
}

// Service runs the polling cycle and keeps the latest board per airport
type Service struct {
	config      ServiceConfig
	feed        FeedFetcher
	registry    *airports.Registry
	directory   *stands.Directory
	assignments AssignmentProvider
	weather     METARSource
	builder     *Builder
	wsServer    WebSocketServer
	now         func() time.Time
	logger      *logger.Logger

	mu              sync.RWMutex
	boards          map[string]*AirportBoard
	boardGen        map[string]uint64 // feed generation each published board was built from
	feedGen         uint64
	lastFeed        *vatsim.Snapshot
	lastFeedGen     uint64
	lastFetchTime   time.Time
	lastFetchStatus bool

	refreshGroup singleflight.Group
	cycleMu      sync.Mutex
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewService creates a new board service. assignments, weather and wsServer may be nil.
func NewService(
	config ServiceConfig,
	feed FeedFetcher,
	registry *airports.Registry,
	directory *stands.Directory,
	assignments AssignmentProvider,
	weather METARSource,
	builder *Builder,
	wsServer WebSocketServer,
	log *logger.Logger,
) *Service {
	if config.FetchInterval <= 0 {
		config.FetchInterval = 60 * time.Second
	}
	if config.FeedTimeout <= 0 {
		config.FeedTimeout = 10 * time.Second
	}
	if config.Parallelism <= 0 {
		config.Parallelism = 4
	}
	return &Service{
		config:      config,
		feed:        feed,
		registry:    registry,
		directory:   directory,
		assignments: assignments,
		weather:     weather,
		builder:     builder,
		wsServer:    wsServer,
		now:         time.Now,
		logger:      log.Named("board"),
		boards:      make(map[string]*AirportBoard),
		boardGen:    make(map[string]uint64),
		stopCh:      make(chan struct{}),
	}
}

// Start begins polling. The first cycle runs immediately.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting board service",
		logger.Duration("fetch_interval", s.config.FetchInterval),
		logger.Int("airports", len(s.registry.List())))

	s.wg.Add(1)
	go s.fetchLoop(ctx)

	return nil
}

// Stop stops the board service
func (s *Service) Stop() {
	s.logger.Info("Stopping board service")
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.logger.Info("Board service stopped")
}

// fetchLoop periodically rebuilds every board
func (s *Service) fetchLoop(ctx context.Context) {
	defer s.wg.Done()

	s.RunCycle(ctx)

	ticker := time.NewTicker(s.config.FetchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunCycle(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// fetchFeed returns a fresh snapshot, or an empty one if the fetch fails,
// together with its generation. Every fetch attempt gets a new generation.
func (s *Service) fetchFeed(ctx context.Context) (*vatsim.Snapshot, uint64) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FeedTimeout)
	defer cancel()

	snap, err := s.feed.Fetch(fetchCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedGen++
	s.lastFetchTime = s.now()
	if err != nil {
		s.lastFetchStatus = false
		s.logger.Warn("Failed to fetch VATSIM feed, using empty batch", logger.Error(err))
		return vatsim.Empty(s.now().UTC()), s.feedGen
	}
	s.lastFetchStatus = true
	s.lastFeed = snap
	s.lastFeedGen = s.feedGen
	return snap, s.feedGen
}

// publish stores a board unless a board built from a newer feed is already
// published. It returns the board that ends up current and whether it was replaced.
func (s *Service) publish(b *AirportBoard, gen uint64) (*AirportBoard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.boards[b.ICAO]; ok && s.boardGen[b.ICAO] > gen {
		return current, false
	}
	s.boards[b.ICAO] = b
	s.boardGen[b.ICAO] = gen
	return b, true
}

// environment captures the directory and assignment state for one cycle
func (s *Service) environment(ctx context.Context, feed *vatsim.Snapshot) Environment {
	env := Environment{
		Feed:   feed,
		Stands: s.directory.Snapshot(),
		Now:    s.now().UTC(),
	}
	if s.assignments != nil {
		if view := s.assignments.Snapshot(ctx); view != nil {
			env.Assignments = view
		}
	}
	return env
}

// RunCycle fetches the feed once and rebuilds every tracked airport
func (s *Service) RunCycle(ctx context.Context) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	start := time.Now()
	feed, gen := s.fetchFeed(ctx)
	env := s.environment(ctx, feed)
	list := s.registry.List()

	built := make([]*AirportBoard, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Parallelism)
	for i, airport := range list {
		g.Go(func() error {
			built[i] = s.build(gctx, airport, env)
			return nil
		})
	}
	_ = g.Wait()

	// Publish only complete boards
	for _, b := range built {
		if _, ok := s.publish(b, gen); ok {
			s.broadcast(b)
		}
	}

	s.logger.Info("Board cycle complete",
		logger.Int("airports", len(built)),
		logger.Int("pilots", len(feed.Pilots)),
		logger.Since(start))
}

// RefreshAirport rebuilds one airport on demand using the last good feed.
// Concurrent requests for the same airport share a single build.
func (s *Service) RefreshAirport(ctx context.Context, icao string) (*AirportBoard, error) {
	icao = strings.ToUpper(strings.TrimSpace(icao))
	airport, ok := s.registry.Get(icao)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAirport, icao)
	}

	v, err, _ := s.refreshGroup.Do(icao, func() (any, error) {
		s.mu.RLock()
		feed, gen := s.lastFeed, s.lastFeedGen
		s.mu.RUnlock()
		if feed == nil {
			feed, gen = s.fetchFeed(ctx)
		}

		b := s.build(ctx, airport, s.environment(ctx, feed))

		current, ok := s.publish(b, gen)
		if !ok {
			s.logger.Debug("Discarded stale on-demand board", logger.String("airport", icao))
			return current, nil
		}
		s.broadcast(b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*AirportBoard), nil
}

func (s *Service) build(ctx context.Context, airport airports.Airport, env Environment) *AirportBoard {
	metar := weather.Unavailable
	if s.weather != nil {
		metar = s.weather.METAR(ctx, airport.ICAO)
	}

	b := s.builder.Build(airport, env, metar)

	s.logger.Debug("Board built",
		logger.String("airport", b.ICAO),
		logger.Int("departures", len(b.Departures)),
		logger.Int("arrivals", len(b.Arrivals)),
		logger.Int("controllers", len(b.Controllers)))
	return b
}

func (s *Service) broadcast(b *AirportBoard) {
	if s.wsServer == nil {
		return
	}
	s.wsServer.BroadcastToRoom(b.ICAO, UpdateMessage(b))
}

// UpdateMessage wraps a board for websocket delivery
func UpdateMessage(b *AirportBoard) *websocket.Message {
	return &websocket.Message{
		Type: MessageTypeFlightUpdate,
		Data: map[string]any{"board": b},
	}
}

// Board returns the latest published board for an airport
func (s *Service) Board(icao string) (*AirportBoard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boards[strings.ToUpper(icao)]
	return b, ok
}

// GetStatus returns the time and result of the last feed fetch
func (s *Service) GetStatus() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetchTime, s.lastFetchStatus
}

// Registry exposes the tracked airport set
func (s *Service) Registry() *airports.Registry {
	return s.registry
}
