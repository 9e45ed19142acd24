// Command standimport fills the stand directory with parking positions from OpenStreetMap
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yegors/flightboard/internal/config"
	"github.com/yegors/flightboard/internal/osm"
	"github.com/yegors/flightboard/internal/stands"
	"github.com/yegors/flightboard/internal/storage/sqlite"
	"github.com/yegors/flightboard/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (selects the stand storage)")
	icao := flag.String("icao", "", "Aerodrome ICAO code to import")
	overpassURL := flag.String("overpass-url", osm.DefaultOverpassURL, "Overpass API interpreter endpoint")
	timeout := flag.Int("timeout", 60, "HTTP timeout in seconds")
	merge := flag.Bool("merge", false, "Merge with the existing stand list instead of replacing it")
	prefixes := flag.String("prefixes", "", "Only keep stands whose name starts with one of these characters")
	dryRun := flag.Bool("dry-run", false, "Print the converted stands instead of storing them")
	flag.Parse()

	airport := stands.Normalize(*icao)
	if len(airport) != 4 {
		fmt.Fprintln(os.Stderr, "a 4-letter -icao code is required")
		os.Exit(2)
	}

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeout+30)*time.Second)
	defer cancel()

	client := osm.NewClient(*overpassURL, time.Duration(*timeout)*time.Second, "flightboard-stand-importer/1.0", log)
	elements, err := client.FetchParkingPositions(ctx, airport)
	if err != nil {
		log.Error("Overpass query failed", logger.String("airport", airport), logger.Error(err))
		os.Exit(1)
	}

	list, skipped := osm.Convert(elements)
	list = osm.FilterPrefixes(list, *prefixes)
	log.Info("Converted parking positions",
		logger.String("airport", airport),
		logger.Int("stands", len(list)),
		logger.Int("skipped", skipped))

	if *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(list); err != nil {
			log.Error("Failed to write stands", logger.Error(err))
			os.Exit(1)
		}
		return
	}

	store, closeStore, err := openStore(cfg.Stands, log)
	if err != nil {
		log.Error("Failed to open stand storage", logger.Error(err))
		os.Exit(1)
	}
	defer closeStore()

	if err := importStands(ctx, store, airport, list, *merge); err != nil {
		log.Error("Failed to store stands", logger.String("airport", airport), logger.Error(err))
		os.Exit(1)
	}

	log.Info("Stands imported",
		logger.String("airport", airport),
		logger.String("source", cfg.Stands.Source),
		logger.Bool("merged", *merge))
}

func openStore(cfg config.StandsConfig, log *logger.Logger) (stands.Store, func(), error) {
	if cfg.Source == "sqlite" {
		s, err := sqlite.NewStandStore(cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	return stands.NewFileStore(cfg.JSONPath), func() {}, nil
}

// importStands writes the imported list for one airport, optionally on top of what is stored
func importStands(ctx context.Context, store stands.Store, icao string, list []stands.Stand, merge bool) error {
	if merge {
		all, err := store.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load existing stands: %w", err)
		}
		list = osm.Merge(all[icao], list)
	}
	if err := stands.Validate(list); err != nil {
		return err
	}
	return store.Save(ctx, icao, list)
}
