package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yegors/flightboard/internal/airports"
	"github.com/yegors/flightboard/internal/vatsim"
	"github.com/yegors/flightboard/internal/websocket"
	"github.com/yegors/flightboard/pkg/logger"
)

type fakeFeed struct {
	mu    sync.Mutex
	snap  *vatsim.Snapshot
	err   error
	calls int
}

func (f *fakeFeed) Fetch(ctx context.Context) (*vatsim.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type fakeMETAR struct{}

func (fakeMETAR) METAR(ctx context.Context, icao string) string {
	return icao + " 101220Z 24005KT CAVOK 12/03 Q1020"
}

// gatedMETAR blocks the first armed lookup for an airport until released
type gatedMETAR struct {
	mu      sync.Mutex
	airport string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedMETAR) arm(icao string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.airport = icao
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
}

func (g *gatedMETAR) METAR(ctx context.Context, icao string) string {
	g.mu.Lock()
	block := g.airport == icao
	entered, release := g.entered, g.release
	if block {
		g.airport = ""
	}
	g.mu.Unlock()

	if block {
		close(entered)
		<-release
	}
	return fakeMETAR{}.METAR(ctx, icao)
}

type recordingServer struct {
	mu       sync.Mutex
	messages map[string][]*websocket.Message
}

func (r *recordingServer) BroadcastToRoom(room string, message *websocket.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.messages == nil {
		r.messages = make(map[string][]*websocket.Message)
	}
	r.messages[room] = append(r.messages[room], message)
}

func (r *recordingServer) count(room string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages[room])
}

func newTestService(t *testing.T, feed *fakeFeed, ws *recordingServer) *Service {
	t.Helper()
	geneva := airports.Airport{ICAO: "LSGG", Name: "Geneva Airport", Lat: 46.2370, Lon: 6.1091, CeilingFt: 8000, Stands: true}
	registry := airports.NewRegistry([]airports.Airport{zurich, geneva})

	var server WebSocketServer
	if ws != nil {
		server = ws
	}
	svc := NewService(ServiceConfig{FetchInterval: time.Hour, FeedTimeout: time.Second, Parallelism: 2},
		feed, registry, testDirectory(t), nil, fakeMETAR{}, testBuilder(t), server, logger.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestRunCyclePublishesEveryAirport(t *testing.T) {
	feed := &fakeFeed{snap: &vatsim.Snapshot{
		Pilots: []vatsim.Pilot{
			pilot("SWR123", "LSZH", "EGLL", 47.4600, 8.5500, 1416, 0, loggedOnAgo(2*time.Minute)),
		},
	}}
	ws := &recordingServer{}
	svc := newTestService(t, feed, ws)

	svc.RunCycle(context.Background())

	zrh, ok := svc.Board("lszh")
	require.True(t, ok)
	require.Len(t, zrh.Departures, 1)
	assert.Equal(t, "A12", zrh.Departures[0].Gate)
	assert.Equal(t, "LSZH 101220Z 24005KT CAVOK 12/03 Q1020", zrh.METAR)

	gva, ok := svc.Board("LSGG")
	require.True(t, ok)
	assert.Empty(t, gva.Departures)

	assert.Equal(t, 1, ws.count("LSZH"))
	assert.Equal(t, 1, ws.count("LSGG"))
	msg := ws.messages["LSZH"][0]
	assert.Equal(t, MessageTypeFlightUpdate, msg.Type)
	assert.Same(t, zrh, msg.Data["board"])

	when, status := svc.GetStatus()
	assert.True(t, status)
	assert.Equal(t, testNow, when)
}

func TestRunCycleFeedFailureYieldsEmptyBoards(t *testing.T) {
	feed := &fakeFeed{err: errors.New("503")}
	svc := newTestService(t, feed, &recordingServer{})

	svc.RunCycle(context.Background())

	b, ok := svc.Board("LSZH")
	require.True(t, ok)
	assert.Empty(t, b.Departures)
	assert.Empty(t, b.Arrivals)

	_, status := svc.GetStatus()
	assert.False(t, status)
}

func TestRefreshAirportReusesLastFeed(t *testing.T) {
	feed := &fakeFeed{snap: &vatsim.Snapshot{
		Pilots: []vatsim.Pilot{pilot("BAW1", "EGLL", "LSGG", 46.2370, 6.1091, 1400, 10)},
	}}
	ws := &recordingServer{}
	svc := newTestService(t, feed, ws)

	svc.RunCycle(context.Background())
	require.Equal(t, 1, feed.calls)

	b, err := svc.RefreshAirport(context.Background(), " lsgg ")
	require.NoError(t, err)
	require.Len(t, b.Arrivals, 1)
	assert.Equal(t, "BAW1", b.Arrivals[0].Callsign)
	assert.Equal(t, 1, feed.calls)
	assert.Equal(t, 2, ws.count("LSGG"))
}

func TestRefreshAirportFetchesWhenNoFeedYet(t *testing.T) {
	feed := &fakeFeed{snap: &vatsim.Snapshot{}}
	svc := newTestService(t, feed, nil)

	_, err := svc.RefreshAirport(context.Background(), "LSZH")
	require.NoError(t, err)
	assert.Equal(t, 1, feed.calls)
}

func TestRefreshAirportUnknown(t *testing.T) {
	svc := newTestService(t, &fakeFeed{snap: &vatsim.Snapshot{}}, nil)

	_, err := svc.RefreshAirport(context.Background(), "KJFK")
	assert.ErrorIs(t, err, ErrUnknownAirport)
}

func TestServiceStartStop(t *testing.T) {
	feed := &fakeFeed{snap: &vatsim.Snapshot{}}
	svc := newTestService(t, feed, nil)

	require.NoError(t, svc.Start(context.Background()))
	assert.Eventually(t, func() bool {
		_, ok := svc.Board("LSZH")
		return ok
	}, time.Second, 10*time.Millisecond)
	svc.Stop()
	svc.Stop()
}

func TestRefreshAirportDoesNotOverwriteNewerCycle(t *testing.T) {
	feed := &fakeFeed{snap: &vatsim.Snapshot{
		Pilots: []vatsim.Pilot{pilot("OLD1", "LSZH", "EGLL", 47.4600, 8.5500, 1416, 0)},
	}}
	ws := &recordingServer{}
	svc := newTestService(t, feed, ws)
	metar := &gatedMETAR{}
	svc.weather = metar

	svc.RunCycle(context.Background())

	feed.mu.Lock()
	feed.snap = &vatsim.Snapshot{
		Pilots: []vatsim.Pilot{pilot("NEW1", "LSZH", "EGLL", 47.4600, 8.5500, 1416, 0)},
	}
	feed.mu.Unlock()

	// The refresh starts from the first feed and stalls mid-build
	metar.arm("LSZH")
	type result struct {
		board *AirportBoard
		err   error
	}
	done := make(chan result, 1)
	go func() {
		b, err := svc.RefreshAirport(context.Background(), "LSZH")
		done <- result{b, err}
	}()
	<-metar.entered

	svc.RunCycle(context.Background())
	b, ok := svc.Board("LSZH")
	require.True(t, ok)
	require.Len(t, b.Departures, 1)
	require.Equal(t, "NEW1", b.Departures[0].Callsign)

	close(metar.release)
	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.board.Departures, 1)
	assert.Equal(t, "NEW1", res.board.Departures[0].Callsign)

	b, ok = svc.Board("LSZH")
	require.True(t, ok)
	require.Len(t, b.Departures, 1)
	assert.Equal(t, "NEW1", b.Departures[0].Callsign)
	assert.Equal(t, 2, ws.count("LSZH"), "the stale board is not broadcast")
}
