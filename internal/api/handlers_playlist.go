// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/ManuGH/chouftv/internal/aggregate"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/m3u"
	"github.com/ManuGH/chouftv/internal/playlist"
	"github.com/ManuGH/chouftv/internal/source"
	"github.com/go-chi/chi/v5"
)

// defaultLanguage is served by /api/channels/default when configured.
const defaultLanguage = "arabic"

// GET /api/iptv-org/channels
func (s *Server) handleIPTVOrgChannels(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Holder.Get()
	res := s.aggregator(cfg).Aggregate(r.Context(), cfg.Catalog())
	writeSuccess(w, envelope{"channels": nonNil(res.Channels), "stats": res})
}

// GET /api/iptv-org/channels.m3u
func (s *Server) handleIPTVOrgPlaylist(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Holder.Get()
	res := s.aggregator(cfg).Aggregate(r.Context(), cfg.Catalog())

	w.Header().Set("Content-Type", "audio/x-mpegurl; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="channels.m3u"`)
	if err := playlist.WriteM3U(w, res.Channels); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Warn().Err(err).
			Str(log.FieldEvent, "playlist.write_failed").
			Msg("client went away while writing playlist")
	}
}

// GET /api/iptv-org/channels/{dimension}/{key}
func (s *Server) handleIPTVOrgDimension(w http.ResponseWriter, r *http.Request) {
	dimension, key := chi.URLParam(r, "dimension"), chi.URLParam(r, "key")
	cfg := s.deps.Holder.Get()

	chs, err := s.aggregator(cfg).Dimension(r.Context(), cfg.Catalog(), dimension, key)
	if err != nil {
		empty := envelope{"channels": []m3u.Channel{}}
		if errors.Is(err, aggregate.ErrUnknownKey) {
			empty["message"] = fmt.Sprintf("%s %s not found", singular(dimension), key)
		}
		fail(w, r, "dimension.failed", fmt.Sprintf("Error loading %s channels", key), err, empty)
		return
	}
	writeSuccess(w, envelope{
		"message":  fmt.Sprintf("%d channels found for %s", len(chs), key),
		"channels": nonNil(chs),
	})
}

// GET /api/channels/{type}/{category}
func (s *Server) handleChannelsByType(w http.ResponseWriter, r *http.Request) {
	typ, category := chi.URLParam(r, "type"), chi.URLParam(r, "category")
	cfg := s.deps.Holder.Get()

	chs, err := s.aggregator(cfg).Dimension(r.Context(), cfg.Catalog(), typ, category)
	if err != nil {
		msg := "Server error"
		if errors.Is(err, aggregate.ErrUnknownKey) {
			msg = "Category not found"
		}
		fail(w, r, "channels.type_failed", msg, err)
		return
	}
	writeSuccess(w, envelope{
		"type":     typ,
		"category": category,
		"count":    len(chs),
		"data":     nonNil(chs),
	})
}

// GET /api/channels/all
func (s *Server) handleAllChannels(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Holder.Get()
	res := s.aggregator(cfg).Combined(r.Context(), cfg.Catalog())
	writeSuccess(w, envelope{"count": res.UniqueChannels, "data": nonNil(res.Channels)})
}

// GET /api/channels/structure
func (s *Server) handleStructure(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, envelope{"data": s.deps.Holder.Get().Catalog().Structure()})
}

type countryEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GET /api/channels/countries
func (s *Server) handleCountries(w http.ResponseWriter, _ *http.Request) {
	out := []countryEntry{}
	if g, ok := s.deps.Holder.Get().Catalog().Group(source.Countries); ok {
		for _, d := range g.Sources {
			out = append(out, countryEntry{ID: d.Name, Name: displayName(d.Name), URL: d.URL})
		}
	}
	writeSuccess(w, envelope{"countries": out})
}

// GET /api/channels/default
func (s *Server) handleDefaultChannels(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Holder.Get()
	catalog := cfg.Catalog()

	key := defaultLanguage
	if _, ok := catalog.Lookup(source.Languages, key); !ok {
		g, ok := catalog.Group(source.Languages)
		if !ok || len(g.Sources) == 0 {
			fail(w, r, "channels.default_failed", "Error loading channels",
				fmt.Errorf("%w: no language configured", aggregate.ErrUnknownKey),
				envelope{"channels": []m3u.Channel{}})
			return
		}
		key = g.Sources[0].Name
	}

	chs, err := s.aggregator(cfg).Dimension(r.Context(), catalog, source.Languages, key)
	if err != nil {
		fail(w, r, "channels.default_failed", "Error loading channels", err, envelope{"channels": []m3u.Channel{}})
		return
	}
	writeSuccess(w, envelope{
		"message":  fmt.Sprintf("%d channels loaded", len(chs)),
		"channels": nonNil(chs),
	})
}

// GET /api/m3u/sports
func (s *Server) handleSports(w http.ResponseWriter, r *http.Request) {
	cfg := s.deps.Holder.Get()
	res, err := s.aggregator(cfg).Sports(r.Context(), cfg.SportsSet())
	if err != nil {
		fail(w, r, "sports.failed", "Failed to load sports channels", err)
		return
	}
	chs := res.Channels
	if chs == nil {
		chs = []aggregate.SportsChannel{}
	}
	writeSuccess(w, envelope{"channels": chs, "stats": res})
}

// displayName turns "united_states" into "United States": underscores become
// spaces and the first letter of each word is upper-cased.
func displayName(key string) string {
	rs := []rune(strings.ReplaceAll(key, "_", " "))
	for i, c := range rs {
		if i == 0 || !isWordRune(rs[i-1]) {
			rs[i] = unicode.ToUpper(c)
		}
	}
	return string(rs)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func singular(dimension string) string {
	switch dimension {
	case source.Languages:
		return "Language"
	case source.Categories:
		return "Category"
	case source.Countries:
		return "Country"
	}
	return "Key"
}

func nonNil(chs []m3u.Channel) []m3u.Channel {
	if chs == nil {
		return []m3u.Channel{}
	}
	return chs
}
