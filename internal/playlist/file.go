// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"context"
	"fmt"

	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/m3u"
	"github.com/google/renameio/v2"
)

// WriteFile writes channels to path. Readers see either the previous file
// or the complete new one, never a partial write.
func WriteFile(ctx context.Context, path string, channels []m3u.Channel) error {
	logger := log.WithComponentFromContext(ctx, "playlist")

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending playlist file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending playlist file")
		}
	}()

	if err := WriteM3U(pending, channels); err != nil {
		return fmt.Errorf("write playlist data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace playlist file: %w", err)
	}
	return nil
}
