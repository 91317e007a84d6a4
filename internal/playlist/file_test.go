// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/chouftv/internal/m3u"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.m3u")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	chs := []m3u.Channel{{Name: "2M", Group: "General", URL: "http://s/2m"}}
	require.NoError(t, WriteFile(context.Background(), path, chs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := m3u.Parse(string(data))
	require.Len(t, got, 1)
	assert.Equal(t, "2M", got[0].Name)
	assert.Equal(t, "http://s/2m", got[0].URL)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "channels.m3u")
	err := WriteFile(context.Background(), path, nil)
	require.Error(t, err)
}
