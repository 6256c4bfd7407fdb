// Command dwell.report analyses real-time-location tracking exports:
// it detects station zones from position clusters, segments each
// entity's trajectory into station visits, derives dwell, transition
// and production metrics, persists everything in SQLite and serves a
// dashboard over the results.
//
// Typical usage:
//
//	dwell.report -analyze Workshop1.csv,Workshop2.csv -serve
//	dwell.report -analyze Workshop1.csv -stations 6 -min-dwell 30s
//	dwell.report migrate up
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/dwell.report/internal/api"
	"github.com/banshee-data/dwell.report/internal/config"
	"github.com/banshee-data/dwell.report/internal/db"
	"github.com/banshee-data/dwell.report/internal/report"
	"github.com/banshee-data/dwell.report/internal/rtls/ingest"
	"github.com/banshee-data/dwell.report/internal/rtls/pipeline"
	"github.com/banshee-data/dwell.report/internal/rtls/segment"
	"github.com/banshee-data/dwell.report/internal/rtls/stations"
	"github.com/banshee-data/dwell.report/internal/version"
)

var (
	dbPath     = flag.String("db", "dwell.db", "Path to the results database")
	listen     = flag.String("listen", ":8080", "Listen address for -serve")
	analyze    = flag.String("analyze", "", "Comma-separated scope CSV files to analyse")
	serve      = flag.Bool("serve", false, "Serve the dashboard after analysis")
	configPath = flag.String("config", "", "Analysis config JSON (defaults to "+config.DefaultConfigPath+")")
	stationK   = flag.Int("stations", -1, "Fixed station count (overrides config; 0 = auto-select)")
	minDwell   = flag.Duration("min-dwell", -1, "Minimum visit duration (overrides config)")
	monotonic  = flag.Bool("monotonic", false, "Discard readings behind the furthest station reached")
	plotDir    = flag.String("plot-dir", "", "Directory for static station-map PNGs (empty = skip)")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("dwell.report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database %s: %v", *dbPath, err)
	}
	defer database.Close()

	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		runMigrateCommand(database, flag.Args()[1:])
		return
	}

	if *analyze == "" && !*serve {
		flag.Usage()
		os.Exit(2)
	}

	if *analyze != "" {
		params := loadParams()
		for _, path := range strings.Split(*analyze, ",") {
			if err := analyzeScope(database, strings.TrimSpace(path), params); err != nil {
				log.Fatalf("analysis failed: %v", err)
			}
		}
	}

	if *serve {
		serveDashboard(database)
	}
}

// loadParams builds run parameters from the config file, then applies
// command-line overrides.
func loadParams() pipeline.Params {
	var cfg *config.AnalysisConfig
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadAnalysisConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	} else {
		cfg = config.MustLoadDefaultConfig()
	}

	detector := stations.DefaultConfig()
	detector.Stations = cfg.GetStationCount()
	detector.RadiusPercentile = cfg.GetRadiusPercentile()
	detector.Seed = cfg.GetClusterSeed()
	detector.Restarts = cfg.GetClusterRestarts()
	detector.MaxIterations = cfg.GetMaxIterations()

	seg := segment.Config{
		MinimumDwell:      cfg.GetMinimumDwell(),
		MonotonicProgress: cfg.GetMonotonicProgress(),
	}

	if *stationK >= 0 {
		detector.Stations = *stationK
	}
	if *minDwell >= 0 {
		seg.MinimumDwell = *minDwell
	}
	if *monotonic {
		seg.MonotonicProgress = true
	}

	return pipeline.Params{Detector: detector, Segment: seg}
}

// analyzeScope ingests one scope CSV, runs the full analysis pass and
// persists the results. Detection failures abort the scope; entities
// dropped by ingestion are logged and skipped.
func analyzeScope(database *db.DB, path string, params pipeline.Params) error {
	scope, dropped, err := ingest.ReadScopeFile(path)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}
	for entity, cause := range dropped {
		log.Printf("scope %s: dropped entity %s: %v", scope.Name(), entity, cause)
	}
	log.Printf("scope %s: loaded %d samples across %d entities",
		scope.Name(), scope.SampleCount(), len(scope.Entities()))

	result, err := pipeline.Run(scope, params)
	if err != nil {
		return err
	}

	if err := database.SaveRun(context.Background(), scope, result); err != nil {
		return fmt.Errorf("persist run %s: %w", result.RunID, err)
	}
	log.Printf("scope %s: saved run %s", scope.Name(), result.RunID)

	if *plotDir != "" {
		out := filepath.Join(*plotDir, scope.Name()+"_stations.png")
		if err := report.SaveStationMap(scope.AllSamples(), result.Detection.Stations,
			scope.Name()+" detected stations", out); err != nil {
			return fmt.Errorf("render station map: %w", err)
		}
		log.Printf("scope %s: wrote %s", scope.Name(), out)
	}
	return nil
}

func serveDashboard(database *db.DB) {
	server := api.NewServer(database)

	httpServer := &http.Server{Addr: *listen, Handler: server.ServeMux()}
	go func() {
		log.Printf("dashboard listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Printf("shutting down")
	if err := httpServer.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// runMigrateCommand handles the "migrate" subcommand.
func runMigrateCommand(database *db.DB, args []string) {
	sub := "up"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "up":
		if err := database.MigrateUp(); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Printf("migrations applied")
	case "down":
		if err := database.MigrateDown(); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Printf("rolled back one migration")
	case "version":
		version, dirty, err := database.MigrateVersion()
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		log.Printf("schema version %d (dirty=%v)", version, dirty)
	default:
		log.Fatalf("unknown migrate subcommand %q (want up, down or version)", sub)
	}
}
