// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
)

var streamIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// GET /api/channels
func (s *Server) handleLiveChannels(w http.ResponseWriter, r *http.Request) {
	lib, err := s.library(s.deps.Holder.Get())
	if err != nil {
		fail(w, r, "live.failed", "Server error", err)
		return
	}
	res, err := lib.LiveChannels(r.Context())
	if err != nil {
		fail(w, r, "live.failed", "Server error", err)
		return
	}
	writeSuccess(w, envelope{"channels": res.Channels, "stats": res.Stats})
}

// GET /api/live/{stream_id}
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stream_id")
	if !streamIDPattern.MatchString(id) {
		writeFailure(w, http.StatusBadRequest, "Invalid stream id", nil)
		return
	}
	lib, err := s.library(s.deps.Holder.Get())
	if err != nil {
		fail(w, r, "stream.failed", "Stream unavailable", err)
		return
	}
	writeSuccess(w, envelope{"data": lib.Live(r.Context(), id)})
}

// GET /api/movies
func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	empty := envelope{"movies": []any{}}
	lib, err := s.library(s.deps.Holder.Get())
	if err != nil {
		fail(w, r, "movies.failed", "Failed to load movies", err, empty)
		return
	}
	cat, err := lib.Movies(r.Context())
	if err != nil {
		fail(w, r, "movies.failed", "Failed to load movies", err, empty)
		return
	}
	writeSuccess(w, envelope{
		"movies":           cat.Movies,
		"categories":       cat.Categories,
		"moviesByCategory": cat.ByCategory,
	})
}

// GET /api/films
func (s *Server) handleFilms(w http.ResponseWriter, r *http.Request) {
	lib, err := s.library(s.deps.Holder.Get())
	if err != nil {
		fail(w, r, "films.failed", "Failed to load films", err)
		return
	}
	films, err := lib.Films(r.Context())
	if err != nil {
		fail(w, r, "films.failed", "Failed to load films", err)
		return
	}
	writeSuccess(w, envelope{"channels": films})
}

// GET /api/vod
func (s *Server) handleVOD(w http.ResponseWriter, r *http.Request) {
	lib, err := s.library(s.deps.Holder.Get())
	if err != nil {
		fail(w, r, "vod.failed", "Failed to load VOD", err)
		return
	}
	vod, err := lib.VOD(r.Context())
	if err != nil {
		fail(w, r, "vod.failed", "Failed to load VOD", err)
		return
	}
	writeSuccess(w, envelope{"vod": vod})
}

// GET /api/series
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	empty := envelope{"series": []any{}}
	lib, err := s.library(s.deps.Holder.Get())
	if err != nil {
		fail(w, r, "series.failed", "Failed to load series", err, empty)
		return
	}
	cat, err := lib.Series(r.Context())
	if err != nil {
		fail(w, r, "series.failed", "Failed to load series", err, empty)
		return
	}
	writeSuccess(w, envelope{
		"series":           cat.Series,
		"categories":       cat.Categories,
		"seriesByCategory": cat.ByCategory,
	})
}
