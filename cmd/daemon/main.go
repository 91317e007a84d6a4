// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/chouftv/internal/api"
	"github.com/ManuGH/chouftv/internal/config"
	"github.com/ManuGH/chouftv/internal/daemon"
	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/health"
	xglog "github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/telemetry"
	"github.com/ManuGH/chouftv/internal/validation"
	"github.com/ManuGH/chouftv/internal/version"
	"github.com/ManuGH/chouftv/internal/xtream"
)

const serviceName = "chouftv"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		case "export":
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			code := runExportCLI(ctx, os.Args[2:])
			stop()
			os.Exit(code)
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML or JSON)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: serviceName, Version: version.Version})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = resolveDefaultConfigPath()
	}

	// ENV > file > defaults
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}
	xglog.Configure(xglog.Config{Level: cfg.LogLevel})

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", path).
		Int("playlist_sources", cfg.Catalog().Len()).
		Int("sports_sources", len(cfg.SportsM3U.Sources)).
		Bool("xtream", cfg.Xtream.ServerURL != "").
		Msg("configuration loaded")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: version.Version,
		Environment:    config.ParseString("CHOUFTV_ENV", "production"),
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "tracing.init_failed").Msg("failed to initialise tracing")
	}

	fetcher, err := fetch.New(cfg.Fetch.ClientConfig(version.UserAgent()))
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "fetch.init_failed").Msg("failed to build HTTP client")
	}

	var panel validation.Authenticator
	if cfg.Xtream.ServerURL != "" {
		panel = xtream.New(fetcher, cfg.Xtream.ClientConfig(cfg.Fetch.ProbeTimeout))
	}
	if err := validation.PerformStartupChecks(ctx, cfg, panel); err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "startup.check_failed").Msg("startup checks failed")
	}

	holder := config.NewHolder(cfg, loader)

	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewDirChecker("public_dir", cfg.App.PublicDir, false))
	hm.RegisterChecker(health.NewDirChecker("downloads_dir", cfg.App.DownloadsDir, false))
	hm.RegisterChecker(health.NewSourcesChecker(func() int {
		c := holder.Get()
		return c.Catalog().Len() + len(c.SportsM3U.Sources)
	}))

	tracingService := ""
	if tp.Enabled() {
		tracingService = serviceName
	}
	srv := api.New(api.Deps{
		Holder:         holder,
		Fetcher:        fetcher,
		Health:         hm,
		Version:        version.Version,
		TracingService: tracingService,
	})

	mgr, err := daemon.NewManager(daemon.DefaultServerConfig(cfg.Listen), daemon.Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "manager.creation.failed").Msg("failed to create daemon manager")
	}
	mgr.RegisterShutdownHook("tracing", tp.Shutdown)

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.Listen).
		Msg("starting chouftv")

	app := daemon.NewApp(logger, mgr, holder, func(s config.Snapshot) {
		xglog.Configure(xglog.Config{Level: s.Config.LogLevel})
		if s.Config.Listen != cfg.Listen {
			logger.Warn().
				Str(xglog.FieldEvent, "config.restart_required").
				Str("listen", s.Config.Listen).
				Msg("listen address changes apply after restart")
		}
	})
	if err := app.Run(ctx); err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("daemon failed")
	}
	logger.Info().Str(xglog.FieldEvent, "shutdown").Msg("server exiting")
}
