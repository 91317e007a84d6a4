// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package xtream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockServer is a configurable player_api.php panel for tests.
type MockServer struct {
	*httptest.Server
	mu           sync.Mutex
	username     string
	password     string
	responses    map[string]string // action -> raw JSON body
	seriesInfo   map[string]string // series_id -> raw JSON body
	authFailures int
	authCalls    int
	liveFormats  map[string]bool // extension ("" for bare) answering HEAD 200
	calls        map[string]int
}

// NewMockServer starts a mock panel accepting the given credentials.
func NewMockServer(username, password string) *MockServer {
	m := &MockServer{
		username:    username,
		password:    password,
		responses:   make(map[string]string),
		seriesInfo:  make(map[string]string),
		liveFormats: make(map[string]bool),
		calls:       make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/player_api.php", m.handleAPI)
	mux.HandleFunc("/live/", m.handleLive)
	m.Server = httptest.NewServer(mux)
	return m
}

// SetResponse sets the raw JSON returned for an action.
func (m *MockServer) SetResponse(action, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[action] = body
}

// SetSeriesInfo sets the raw get_series_info body for one series.
func (m *MockServer) SetSeriesInfo(seriesID, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seriesInfo[seriesID] = body
}

// SetAuthFailures makes the next n authentication calls fail with 503.
func (m *MockServer) SetAuthFailures(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authFailures = n
}

// SetLiveFormat marks a live URL extension as playable.
func (m *MockServer) SetLiveFormat(ext string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.liveFormats[ext] = ok
}

// AuthCalls returns how many authentication requests were received.
func (m *MockServer) AuthCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authCalls
}

// Calls returns how many requests an action received.
func (m *MockServer) Calls(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[action]
}

func (m *MockServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	m.mu.Lock()
	defer m.mu.Unlock()

	if q.Get("username") != m.username || q.Get("password") != m.password {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
		return
	}

	action := q.Get("action")
	m.calls[action]++
	w.Header().Set("Content-Type", "application/json")

	switch action {
	case "":
		m.authCalls++
		if m.authFailures > 0 {
			m.authFailures--
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_info":   map[string]any{"username": m.username, "status": "Active", "auth": 1},
			"server_info": map[string]any{"url": r.Host},
		})
	case ActionSeriesInfo:
		body, ok := m.seriesInfo[q.Get("series_id")]
		if !ok {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	default:
		body, ok := m.responses[action]
		if !ok {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}
}

func (m *MockServer) handleLive(w http.ResponseWriter, r *http.Request) {
	last := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	ext := ""
	if i := strings.LastIndex(last, "."); i != -1 {
		ext = last[i+1:]
	}
	m.mu.Lock()
	ok := m.liveFormats[ext]
	m.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
}
