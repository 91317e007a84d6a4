// Package validation runs the pre-flight checks before the daemon listens.
package validation

import (
	"context"
	"fmt"
	"os"

	"github.com/ManuGH/chouftv/internal/config"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/xtream"
	"github.com/rs/zerolog"
)

// Authenticator is the part of the Xtream client the checks need.
type Authenticator interface {
	Authenticate(ctx context.Context) (*xtream.UserInfo, error)
}

// PerformStartupChecks fails when a static directory path exists but is not
// a directory. Missing directories and an unreachable panel are logged only:
// both can recover without a restart. panel may be nil.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig, panel Authenticator) error {
	logger := log.WithComponent("startup-check")

	for name, path := range map[string]string{
		"app.public_dir":    cfg.App.PublicDir,
		"app.downloads_dir": cfg.App.DownloadsDir,
	} {
		if err := checkDir(logger, name, path); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if cfg.Catalog().Len() == 0 && len(cfg.SportsM3U.Sources) == 0 {
		logger.Warn().
			Str(log.FieldEvent, "startup.no_sources").
			Msg("no playlist sources configured; playlist routes will return empty results")
	}

	if panel != nil {
		checkPanel(ctx, logger, panel)
	}
	return nil
}

func checkDir(logger zerolog.Logger, name, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logger.Warn().
			Str(log.FieldEvent, "startup.dir_missing").
			Str("setting", name).
			Str("path", path).
			Msg("directory does not exist; its files will answer 404")
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

func checkPanel(ctx context.Context, logger zerolog.Logger, panel Authenticator) {
	info, err := panel.Authenticate(ctx)
	if err != nil {
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "startup.panel_unreachable").
			Msg("Xtream panel authentication failed; live and VOD routes will fail until it recovers")
		return
	}
	logger.Info().
		Str(log.FieldEvent, "startup.panel_ok").
		Str("status", info.Status).
		Msg("Xtream panel reachable")
}
