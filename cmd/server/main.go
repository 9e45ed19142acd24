package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yegors/flightboard/internal/airports"
	"github.com/yegors/flightboard/internal/api"
	"github.com/yegors/flightboard/internal/board"
	"github.com/yegors/flightboard/internal/checkin"
	"github.com/yegors/flightboard/internal/config"
	"github.com/yegors/flightboard/internal/stands"
	"github.com/yegors/flightboard/internal/storage/sqlite"
	"github.com/yegors/flightboard/internal/ukcp"
	"github.com/yegors/flightboard/internal/vatsim"
	"github.com/yegors/flightboard/internal/weather"
	"github.com/yegors/flightboard/internal/websocket"
	"github.com/yegors/flightboard/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting flight board server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stand directory
	var store stands.Store
	switch cfg.Stands.Source {
	case "sqlite":
		sqliteStore, err := sqlite.NewStandStore(cfg.Stands.SQLitePath, log)
		if err != nil {
			log.Error("Failed to open stand database", logger.Error(err))
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	default:
		store = stands.NewFileStore(cfg.Stands.JSONPath)
	}
	log.Info("Using stand storage", logger.String("source", cfg.Stands.Source))

	directory := stands.NewDirectory(store, cfg.Stands.DefaultRadiusM, log)
	if err := directory.Reload(ctx); err != nil {
		// The directory logs the failure and starts empty
		log.Warn("Continuing without stand data")
	}

	// Check-in desks
	var desks *checkin.Resolver
	if cfg.Checkin.RulesPath != "" {
		desks, err = checkin.LoadResolver(cfg.Checkin.RulesPath)
	} else {
		desks, err = checkin.NewDefaultResolver()
	}
	if err != nil {
		log.Error("Failed to load check-in rules", logger.Error(err))
		os.Exit(1)
	}

	// Airports
	referenceDB, err := airports.LoadDatabase(cfg.AirportsDB.Path)
	if err != nil {
		log.Warn("Airport reference database unavailable, airport search disabled",
			logger.String("path", cfg.AirportsDB.Path),
			logger.Error(err))
	} else {
		log.Info("Loaded airport reference database", logger.Int("airports", referenceDB.Len()))
	}
	registry := airports.NewRegistry(configuredAirports(cfg.Airports))

	// Upstream sources
	feedClient := vatsim.NewClient(cfg.Feed.URL, time.Duration(cfg.Feed.RequestTimeoutSecs)*time.Second, log)

	weatherService := weather.NewService(weather.WeatherConfig{
		APIBaseURL:            cfg.Weather.APIBaseURL,
		RequestTimeoutSeconds: cfg.Weather.RequestTimeoutSecs,
		MaxRetries:            cfg.Weather.MaxRetries,
		CacheExpiryMinutes:    cfg.Weather.CacheExpiryMinutes,
		CacheSize:             cfg.Weather.CacheSize,
	}, log)

	// Left as a nil interface when disabled so the board skips it
	var assignments board.AssignmentProvider
	if cfg.UKCP.Enabled {
		labels, err := ukcp.LoadLabels(cfg.UKCP.LabelsPath)
		if err != nil {
			log.Warn("Failed to load stand labels, using numeric ids", logger.Error(err))
			labels = ukcp.Labels{}
		}
		client := ukcp.NewClient(cfg.UKCP.URL, time.Duration(cfg.UKCP.TimeoutSecs)*time.Second, cfg.UKCP.UserAgent, log)
		cache := ukcp.NewCache(client, labels, time.Duration(cfg.UKCP.CacheTTLSecs)*time.Second, time.Now, log)
		assignments = ukcp.NewSource(cache, cfg.UKCP.CoveredAirports)
		log.Info("Stand assignment source enabled", logger.String("url", cfg.UKCP.URL))
	}

	builder := board.NewBuilder(board.Settings{
		GroundRangeKM:     cfg.Board.GroundRangeKM,
		CleanupDistanceKM: cfg.Board.CleanupDistanceKM,
		Gate: stands.Gate{
			MaxGroundspeedKts: cfg.Board.GeofenceMaxSpeedKts,
			MaxAltitudeFt:     cfg.Board.GeofenceMaxAltitudeFt,
		},
	}, desks, log)

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	boardService := board.NewService(
		board.ServiceConfig{
			FetchInterval: time.Duration(cfg.Feed.FetchIntervalSecs) * time.Second,
			FeedTimeout:   time.Duration(cfg.Feed.RequestTimeoutSecs) * time.Second,
			Parallelism:   cfg.Board.Parallelism,
		},
		feedClient,
		registry,
		directory,
		assignments,
		weatherService,
		builder,
		wsServer,
		log,
	)

	wsServer.SetMessageHandler(board.NewWebSocketHandler(boardService, log))

	if err := boardService.Start(ctx); err != nil {
		log.Error("Failed to start board service", logger.Error(err))
		os.Exit(1)
	}

	handler := api.NewHandler(boardService, directory, api.HandlerConfig{
		ReferenceDB:      referenceDB,
		Weather:          weatherService,
		Clients:          wsServer,
		AdminToken:       cfg.Admin.Token,
		DefaultCeilingFt: cfg.Board.DefaultCeilingFt,
	}, log)
	router := api.NewRouter(handler, wsServer.HandleConnection, cfg.Server.StaticFilesDir, log)
	routes := router.Routes()

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := append([]int{cfg.Server.Port}, cfg.Server.AdditionalPorts...)

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	for _, port := range allPorts {
		server := &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, port),
			Handler:      routes,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	boardService.Stop()
	wsServer.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}

// configuredAirports converts the config entries to tracked airports
func configuredAirports(list []config.AirportConfig) []airports.Airport {
	out := make([]airports.Airport, 0, len(list))
	for _, a := range list {
		out = append(out, airports.Airport{
			ICAO:               a.ICAO,
			Name:               a.Name,
			Lat:                a.Lat,
			Lon:                a.Lon,
			ElevationFt:        a.ElevationFt,
			Country:            a.Country,
			CeilingFt:          a.CeilingFt,
			Stands:             !a.DisableStands,
			ControllerPrefixes: a.ControllerPrefixes,
		})
	}
	return out
}
