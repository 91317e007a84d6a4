// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ManuGH/chouftv/internal/aggregate"
	"github.com/ManuGH/chouftv/internal/config"
	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/m3u"
	"github.com/ManuGH/chouftv/internal/playlist"
	"github.com/ManuGH/chouftv/internal/reachability"
	"github.com/ManuGH/chouftv/internal/version"
)

func runExportCLI(ctx context.Context, args []string) int {
	return exportPlaylist(ctx, args, os.Stdout, os.Stderr)
}

// exportPlaylist aggregates the configured sources once and writes the
// result as an M3U file, for players that only read local playlists.
func exportPlaylist(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("chouftv export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var file string
	fs.StringVar(&file, "file", "", "path to configuration file")
	fs.StringVar(&file, "f", "", "path to configuration file (shorthand)")
	out := fs.String("o", "channels.m3u", "output playlist path")
	dimension := fs.String("dimension", "", "restrict to one source dimension (languages, categories, countries)")
	key := fs.String("key", "", "source key within -dimension")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if (*dimension == "") != (*key == "") {
		fmt.Fprintln(stderr, "Error: -dimension and -key must be given together")
		return 2
	}

	path := strings.TrimSpace(file)
	if path == "" {
		path = resolveDefaultConfigPath()
	}
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return 1
	}

	fetcher, err := fetch.New(cfg.Fetch.ClientConfig(version.UserAgent()))
	if err != nil {
		fmt.Fprintf(stderr, "Failed to build HTTP client: %v\n", err)
		return 1
	}
	agg := aggregate.New(fetcher, reachability.New(fetcher, cfg.Fetch.ProbeTimeout), aggregate.Options{
		Concurrency: cfg.Fetch.Concurrency,
		Timeout:     cfg.Fetch.Timeout,
	})

	var channels []m3u.Channel
	if *dimension != "" {
		channels, err = agg.Dimension(ctx, cfg.Catalog(), *dimension, *key)
		if err != nil {
			fmt.Fprintf(stderr, "Export failed: %v\n", err)
			return 1
		}
	} else {
		res := agg.Aggregate(ctx, cfg.Catalog())
		channels = res.Channels
	}

	if err := playlist.WriteFile(ctx, *out, channels); err != nil {
		fmt.Fprintf(stderr, "Export failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%d channels written to %s\n", len(channels), *out)
	return 0
}
