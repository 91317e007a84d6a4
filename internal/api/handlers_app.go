// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultNotification is served when no notification is configured.
const DefaultNotification = "Please refresh the app regularly and clear cache for the best viewing experience"

const apkFileName = "chouftv-latest.apk"

type versionResponse struct {
	Version     string `json:"version"`
	DownloadURL string `json:"downloadUrl"`
	ForceUpdate bool   `json:"forceUpdate"`
}

// GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version:     s.deps.Holder.Get().App.APKVersion,
		DownloadURL: requestScheme(r) + "://" + r.Host + "/downloads/" + apkFileName,
	})
}

// GET /api/notifications
func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	notes := s.deps.Holder.Get().App.Notifications
	if notes == nil || notes.Len() == 0 {
		notes = orderedmap.New[string, string]()
		notes.Set("en", DefaultNotification)
	}
	writeSuccess(w, envelope{
		"notifications": notes,
		"timestamp":     time.Now().UnixMilli(),
	})
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if p := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); p == "https" || p == "http" {
		return p
	}
	return "http"
}
