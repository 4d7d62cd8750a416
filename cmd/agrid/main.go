package main

import (
	"context"
	"flag"

	"agrilink/pkg/app"
	"agrilink/pkg/config"
	"agrilink/pkg/log"
	"agrilink/pkg/server"
)

func main() {
	// Initialize logger
	_ = log.Logger

	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Control server listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite state database path (overrides config)")
	primary := flag.String("primary", "", "Primary backend origin (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	restoreMode := flag.Bool("restore-mode", false, "Apply the persisted network mode at startup")
	applyBest := flag.Bool("apply-best", false, "Probe candidates at startup and use the first reachable one")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.StatePath = *dbPath
	}
	if *primary != "" {
		cfg.PrimaryOrigin = *primary
	}
	if *debug {
		cfg.Debug = true
	}

	if cfg.Debug {
		log.SetDebugMode()
		log.Debug().Msg("Debug mode enabled")
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	log.Info().
		Str("primary_origin", cfg.PrimaryOrigin).
		Strs("candidates", cfg.Candidates).
		Dur("request_timeout", cfg.RequestTimeout).
		Dur("probe_timeout", cfg.ProbeTimeout).
		Str("state_path", cfg.StatePath).
		Msg("Configured endpoint")

	ctx := context.Background()
	if *restoreMode {
		if _, err := application.Resolver.RestoreMode(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to restore network mode")
		}
	}
	if *applyBest {
		if _, err := application.Resolver.ApplyBestURL(ctx); err != nil {
			log.Warn().Err(err).Msg("Keeping configured origin")
		}
	}

	srv := server.NewServer(application.Resolver, cfg.GracefulShutdown)
	err = srv.Start(cfg.ListenAddr)

	if closeErr := application.Close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("Failed to close state store")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}

}
