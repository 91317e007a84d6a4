// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/chouftv/internal/config"
	"github.com/ManuGH/chouftv/internal/fsutil"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/metrics"
	"golang.org/x/text/unicode/norm"
)

// staticFiles serves files below the directory returned by dir for the
// current snapshot. prefix is stripped from the request path first.
// Directory paths answer 404: there is no index file and no listing.
func (s *Server) staticFiles(prefix string, dir func(config.AppConfig) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "static")

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			metrics.RecordStaticRequest("forbidden")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		reqPath := strings.TrimPrefix(r.URL.Path, prefix)
		if isPathTraversal(reqPath) {
			logger.Warn().Str(log.FieldEvent, "static.denied").Str("path", r.URL.Path).
				Str("reason", "path_escape").Msg("detected traversal sequence")
			metrics.RecordStaticRequest("forbidden")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if reqPath == "" || strings.HasSuffix(reqPath, "/") {
			metrics.RecordStaticRequest("not_found")
			http.NotFound(w, r)
			return
		}

		root := dir(s.deps.Holder.Get())
		if root == "" {
			metrics.RecordStaticRequest("not_found")
			http.NotFound(w, r)
			return
		}
		realPath, err := fsutil.ConfineRelPath(root, reqPath)
		switch {
		case errors.Is(err, fsutil.ErrOutsideRoot):
			logger.Warn().Err(err).Str(log.FieldEvent, "static.denied").
				Str("path", reqPath).Str("reason", "path_escape").Msg("path escapes static root")
			metrics.RecordStaticRequest("forbidden")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		case errors.Is(err, os.ErrNotExist):
			metrics.RecordStaticRequest("not_found")
			http.NotFound(w, r)
			return
		case err != nil:
			logger.Error().Err(err).Str(log.FieldEvent, "static.internal_error").Str("path", reqPath).Msg("could not resolve path")
			metrics.RecordStaticRequest("error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// #nosec G304 -- realPath is confined to root
		f, err := os.Open(realPath)
		if errors.Is(err, os.ErrNotExist) {
			metrics.RecordStaticRequest("not_found")
			http.NotFound(w, r)
			return
		}
		if err != nil {
			logger.Error().Err(err).Str(log.FieldEvent, "static.internal_error").Str("path", realPath).Msg("could not open file")
			metrics.RecordStaticRequest("error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			metrics.RecordStaticRequest("error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if info.IsDir() {
			metrics.RecordStaticRequest("forbidden")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if r.Header.Get("If-None-Match") == etag {
			metrics.RecordStaticRequest("not_modified")
			w.WriteHeader(http.StatusNotModified)
			return
		}

		switch strings.ToLower(filepath.Ext(info.Name())) {
		case ".m3u", ".m3u8":
			w.Header().Set("Content-Type", "audio/x-mpegurl; charset=utf-8")
		case ".apk":
			w.Header().Set("Content-Type", "application/vnd.android.package-archive")
		}

		metrics.RecordStaticRequest("served")
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

// isPathTraversal reports whether p, raw or after repeated unescaping and
// NFC normalization, contains a parent reference or a NUL byte.
func isPathTraversal(p string) bool {
	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d, err := url.QueryUnescape(decoded); err == nil {
			decoded = d
		}
		if decoded == prev {
			break
		}
	}

	for _, form := range []string{p, decoded} {
		lower := strings.ToLower(form)
		for _, pat := range []string{"..", "%00", "%c0%ae", "%e0%80%ae"} {
			if strings.Contains(lower, pat) {
				return true
			}
		}
	}
	if strings.IndexByte(decoded, 0) >= 0 {
		return true
	}
	return strings.Contains(norm.NFC.String(decoded), "..")
}
