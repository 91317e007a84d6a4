// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package library builds the live, movie and series views served to the
// app from an Xtream panel.
package library

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/ManuGH/chouftv/internal/classify"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/xtream"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"
)

// Panel is the subset of the Xtream client the library needs.
type Panel interface {
	Authenticate(ctx context.Context) (*xtream.UserInfo, error)
	LiveCategories(ctx context.Context) (map[string]string, error)
	LiveStreams(ctx context.Context) ([]xtream.LiveStream, error)
	VODCategories(ctx context.Context) (map[string]string, error)
	VODStreams(ctx context.Context) ([]xtream.VODStream, error)
	SeriesCategories(ctx context.Context) (map[string]string, error)
	Series(ctx context.Context) ([]xtream.Series, error)
	SeriesInfo(ctx context.Context, seriesID string) (*xtream.SeriesInfo, error)
	LiveURL(streamID, ext string) string
	MovieURL(streamID, ext string) string
	EpisodeURL(episodeID, ext string) string
	LogoURL(icon string) string
	ProbeLive(ctx context.Context, streamID string) xtream.Playback
}

// Library is stateless; every call reads the panel afresh.
type Library struct {
	panel       Panel
	concurrency int
}

// New returns a Library. concurrency bounds parallel get_series_info calls.
func New(p Panel, concurrency int) *Library {
	if concurrency < 1 {
		concurrency = 8
	}
	return &Library{panel: p, concurrency: concurrency}
}

// LiveChannels authenticates, then lists live channels with their category
// names and content-type stats.
func (l *Library) LiveChannels(ctx context.Context) (LiveResult, error) {
	if _, err := l.panel.Authenticate(ctx); err != nil {
		return LiveResult{}, err
	}
	cats, err := l.panel.LiveCategories(ctx)
	if err != nil {
		return LiveResult{}, fmt.Errorf("live categories: %w", err)
	}
	streams, err := l.panel.LiveStreams(ctx)
	if err != nil {
		return LiveResult{}, fmt.Errorf("live streams: %w", err)
	}

	res := LiveResult{Channels: make([]LiveChannel, 0, len(streams))}
	for _, s := range streams {
		ch := LiveChannel{
			Name:               orDefault(s.Name, DefaultName),
			Category:           orDefault(cats[s.CategoryID.String()], DefaultCategory),
			URL:                l.panel.LiveURL(s.StreamID.String(), ""),
			Logo:               l.panel.LogoURL(s.StreamIcon),
			StreamID:           s.StreamID.String(),
			CategoryID:         s.CategoryID.String(),
			Rating:             s.Rating.Float(),
			Quality:            orDefault(s.Quality, DefaultQuality),
			ContainerExtension: orDefault(s.ContainerExtension, DefaultContainer),
		}
		kind := classify.ContentType(ch.Name, ch.Category)
		ch.Kind = string(kind)
		switch kind {
		case classify.KindMovie:
			res.Stats.Movies++
		case classify.KindSeries:
			res.Stats.Series++
		default:
			res.Stats.TV++
		}
		res.Channels = append(res.Channels, ch)
	}
	res.Stats.Total = len(res.Channels)

	logger := log.WithComponentFromContext(ctx, "library")
	logger.Info().
		Str(log.FieldEvent, "live.listed").
		Int("total", res.Stats.Total).
		Int("tv", res.Stats.TV).
		Int("movies", res.Stats.Movies).
		Int("series", res.Stats.Series).
		Msg("live channels listed")
	return res, nil
}

// Films returns the live streams classified as movies.
func (l *Library) Films(ctx context.Context) ([]xtream.LiveStream, error) {
	streams, err := l.panel.LiveStreams(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]xtream.LiveStream, 0)
	for _, s := range streams {
		if classify.ContentType(s.Name, s.CategoryName) == classify.KindMovie {
			out = append(out, s)
		}
	}
	return out, nil
}

// VOD lists movies without resolving category ids.
func (l *Library) VOD(ctx context.Context) ([]Movie, error) {
	streams, err := l.panel.VODStreams(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Movie, 0, len(streams))
	for _, s := range streams {
		m := l.movie(s, orDefault(s.CategoryName, DefaultCategory))
		if y := s.Year.Int(); y > 0 {
			m.Year = &y
		} else {
			m.Year = nil
		}
		out = append(out, m)
	}
	return out, nil
}

// Movies lists movies with resolved categories, genre and year, grouped by
// category in first-seen order.
func (l *Library) Movies(ctx context.Context) (MovieCatalog, error) {
	cats, err := l.panel.VODCategories(ctx)
	if err != nil {
		return MovieCatalog{}, fmt.Errorf("vod categories: %w", err)
	}
	streams, err := l.panel.VODStreams(ctx)
	if err != nil {
		return MovieCatalog{}, fmt.Errorf("vod streams: %w", err)
	}

	cat := MovieCatalog{
		Movies:     make([]Movie, 0, len(streams)),
		Categories: cats,
		ByCategory: orderedmap.New[string, []Movie](),
	}
	for _, s := range streams {
		m := l.movie(s, orDefault(cats[s.CategoryID.String()], DefaultCategory))
		cat.Movies = append(cat.Movies, m)
		group, _ := cat.ByCategory.Get(m.Category)
		cat.ByCategory.Set(m.Category, append(group, m))
	}
	return cat, nil
}

func (l *Library) movie(s xtream.VODStream, category string) Movie {
	id := s.StreamID.String()
	m := Movie{
		ID:          id,
		Title:       orDefault(s.Name, DefaultName),
		CoverURL:    orDefault(s.StreamIcon, PlaceholderCoverURL),
		StreamURL:   l.panel.MovieURL(id, s.ContainerExtension),
		Category:    category,
		CategoryID:  s.CategoryID.String(),
		Genre:       classify.Genre(s.Name, category),
		Quality:     orDefault(s.Quality, DefaultQuality),
		Description: s.Description,
		Duration:    s.Duration,
		Rating:      s.Rating.Float(),
	}
	if y := s.Year.Int(); y > 0 {
		m.Year = &y
	} else if y, ok := classify.Year(s.Name); ok {
		m.Year = &y
	}
	return m
}

// Series lists series with their seasons. Category and per-series detail
// failures are tolerated: the listing degrades to empty categories or
// seasons rather than failing.
func (l *Library) Series(ctx context.Context) (SeriesCatalog, error) {
	logger := log.WithComponentFromContext(ctx, "library")

	cats, err := l.panel.SeriesCategories(ctx)
	if err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "series.categories.failed").
			Msg("series categories unavailable, continuing without names")
		cats = map[string]string{}
	}
	list, err := l.panel.Series(ctx)
	if err != nil {
		return SeriesCatalog{}, fmt.Errorf("series: %w", err)
	}

	shows := make([]Show, len(list))
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, s := range list {
		g.Go(func() error {
			shows[i] = l.show(ctx, s, cats)
			return nil
		})
	}
	_ = g.Wait()

	cat := SeriesCatalog{
		Series:     shows,
		Categories: cats,
		ByCategory: orderedmap.New[string, []Show](),
	}
	for _, sh := range shows {
		group, _ := cat.ByCategory.Get(sh.Category)
		cat.ByCategory.Set(sh.Category, append(group, sh))
	}
	return cat, nil
}

func (l *Library) show(ctx context.Context, s xtream.Series, cats map[string]string) Show {
	id := s.SeriesID.String()
	cover := orDefault(s.Cover, PlaceholderCoverURL)
	sh := Show{
		ID:          id,
		Title:       orDefault(s.Name, DefaultName),
		Category:    orDefault(cats[s.CategoryID.String()], DefaultCategory),
		CategoryID:  s.CategoryID.String(),
		CoverURL:    cover,
		Overview:    s.Plot,
		Rating:      s.Rating.Float(),
		Genre:       s.Genre,
		Director:    s.Director,
		Actors:      s.Cast,
		ReleaseDate: s.ReleaseDate,
		Seasons:     []Season{},
	}

	info, err := l.panel.SeriesInfo(ctx, id)
	if err != nil {
		logger := log.WithComponentFromContext(ctx, "library")
		logger.Warn().Err(err).
			Str(log.FieldEvent, "series.info.failed").
			Str("series_id", id).
			Msg("series details unavailable")
		return sh
	}

	for seasonKey, eps := range info.Episodes {
		season := Season{Number: atoi(seasonKey), Episodes: make([]Episode, 0, len(eps))}
		for _, ep := range eps {
			num := ep.EpisodeNum.String()
			title := ep.Title
			if title == "" {
				title = "Episode " + num
			}
			season.Episodes = append(season.Episodes, Episode{
				ID:           fmt.Sprintf("%s-s%se%s", id, seasonKey, num),
				Number:       ep.EpisodeNum.Int(),
				Title:        title,
				StreamURL:    l.panel.EpisodeURL(ep.ID.String(), ep.ContainerExtension),
				ThumbnailURL: orDefault(ep.Info.MovieImage, cover),
				Duration:     ep.Info.Duration,
				Overview:     ep.Info.Plot,
				ReleaseDate:  ep.Info.ReleaseDate,
			})
		}
		sh.Seasons = append(sh.Seasons, season)
	}
	slices.SortFunc(sh.Seasons, func(a, b Season) int { return cmp.Compare(a.Number, b.Number) })
	return sh
}

// Live resolves the playable URL of a live stream.
func (l *Library) Live(ctx context.Context, streamID string) xtream.Playback {
	return l.panel.ProbeLive(ctx, streamID)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
