// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsutil confines file lookups to a root directory.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path, or a symlink along it, leaves the
// root directory.
var ErrOutsideRoot = errors.New("path escapes root")

// ConfineRelPath joins rel onto root and returns the symlink-resolved
// result. A missing target is not an error: its parent is resolved instead
// and the caller sees the miss when opening it. A missing root is returned
// as an os.ErrNotExist error.
func ConfineRelPath(root, rel string) (string, error) {
	if strings.Contains(rel, "\\") {
		return "", fmt.Errorf("%w: backslash in %q", ErrOutsideRoot, rel)
	}
	clean := filepath.Clean(strings.TrimPrefix(filepath.ToSlash(rel), "/"))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", err
	}

	full := filepath.Join(realRoot, clean)
	real, err := filepath.EvalSymlinks(full)
	if errors.Is(err, os.ErrNotExist) {
		parent, perr := filepath.EvalSymlinks(filepath.Dir(full))
		if perr != nil {
			// Missing parent as well; the Rel check on the joined path still holds.
			real = full
		} else {
			real = filepath.Join(parent, filepath.Base(full))
		}
	} else if err != nil {
		return "", fmt.Errorf("resolve %q: %w", rel, err)
	}

	r, err := filepath.Rel(realRoot, real)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) || filepath.IsAbs(r) {
		return "", fmt.Errorf("%w: %q resolves to %s", ErrOutsideRoot, rel, real)
	}
	return real, nil
}
