// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package library

import (
	"context"
	"testing"
	"time"

	"github.com/ManuGH/chouftv/internal/classify"
	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/xtream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibrary(t *testing.T) (*Library, *xtream.MockServer) {
	t.Helper()
	m := xtream.NewMockServer("u", "p")
	t.Cleanup(m.Close)

	f, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	c := xtream.New(f, xtream.Config{
		ServerURL:    m.URL,
		Username:     "u",
		Password:     "p",
		AuthAttempts: 3,
		AuthBackoff:  time.Millisecond,
	})
	return New(c, 4), m
}

func TestLiveChannels(t *testing.T) {
	lib, m := newLibrary(t)
	m.SetResponse(xtream.ActionLiveCategories, `[{"category_id":"1","category_name":"News"},{"category_id":"2","category_name":"Films VF"}]`)
	m.SetResponse(xtream.ActionLiveStreams, `[
		{"stream_id": 10, "name": "Al Jazeera", "category_id": "1", "stream_icon": "/logos/aj.png"},
		{"stream_id": 11, "name": "Cinema 1", "category_id": "2"},
		{"stream_id": 12, "name": "Series Box", "category_id": "9"},
		{"stream_id": 13, "name": "", "category_id": "1", "stream_icon": "http://cdn/x.png", "quality": "FHD"}
	]`)

	res, err := lib.LiveChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Channels, 4)

	aj := res.Channels[0]
	assert.Equal(t, "News", aj.Category)
	assert.Equal(t, m.URL+"/live/u/p/10", aj.URL)
	assert.Equal(t, m.URL+"/logos/aj.png", aj.Logo)
	assert.Equal(t, DefaultQuality, aj.Quality)
	assert.Equal(t, DefaultContainer, aj.ContainerExtension)

	assert.Equal(t, DefaultCategory, res.Channels[2].Category)
	assert.Equal(t, DefaultName, res.Channels[3].Name)
	assert.Equal(t, "FHD", res.Channels[3].Quality)

	assert.Equal(t, Stats{Total: 4, TV: 2, Movies: 1, Series: 1}, res.Stats)
}

func TestLiveChannelsAuthFailure(t *testing.T) {
	lib, m := newLibrary(t)
	m.SetAuthFailures(5)

	_, err := lib.LiveChannels(context.Background())
	require.ErrorIs(t, err, xtream.ErrAuthFailed)
	assert.Equal(t, 3, m.AuthCalls())
	assert.Zero(t, m.Calls(xtream.ActionLiveStreams))
}

func TestFilms(t *testing.T) {
	lib, m := newLibrary(t)
	m.SetResponse(xtream.ActionLiveStreams, `[
		{"stream_id": 1, "name": "Movie Channel"},
		{"stream_id": 2, "name": "Sport 1", "category_name": "Films"},
		{"stream_id": 3, "name": "News"}
	]`)

	films, err := lib.Films(context.Background())
	require.NoError(t, err)
	require.Len(t, films, 2)
	assert.Equal(t, "1", films[0].StreamID.String())
	assert.Equal(t, "2", films[1].StreamID.String())
}

func TestMovies(t *testing.T) {
	lib, m := newLibrary(t)
	m.SetResponse(xtream.ActionVODCategories, `[{"category_id":"4","category_name":"Comédie"},{"category_id":"5","category_name":"Action"}]`)
	m.SetResponse(xtream.ActionVODStreams, `[
		{"stream_id": 100, "name": "Le Dîner (1998)", "category_id": "4", "container_extension": "mkv"},
		{"stream_id": 101, "name": "Heat", "category_id": "5", "year": "1995", "rating": 8.3, "stream_icon": "http://c/heat.jpg"},
		{"stream_id": 102, "name": "Untitled", "category_id": "99", "container_extension": "mp4"},
		{"stream_id": 103, "name": "Die Hard", "category_id": "5"}
	]`)

	cat, err := lib.Movies(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Movies, 4)

	diner := cat.Movies[0]
	assert.Equal(t, "Comédie", diner.Category)
	assert.Equal(t, "Comedy", diner.Genre)
	require.NotNil(t, diner.Year)
	assert.Equal(t, 1998, *diner.Year)
	assert.Equal(t, m.URL+"/movie/u/p/100.mkv", diner.StreamURL)
	assert.Equal(t, PlaceholderCoverURL, diner.CoverURL)

	heat := cat.Movies[1]
	require.NotNil(t, heat.Year)
	assert.Equal(t, 1995, *heat.Year)
	assert.Equal(t, 8.3, heat.Rating)

	assert.Nil(t, cat.Movies[2].Year)
	assert.Equal(t, DefaultCategory, cat.Movies[2].Category)
	assert.Equal(t, classify.GenreOther, cat.Movies[2].Genre)

	keys := []string{}
	for p := cat.ByCategory.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"Comédie", "Action", DefaultCategory}, keys)
	action, _ := cat.ByCategory.Get("Action")
	assert.Len(t, action, 2)
}

func TestVOD(t *testing.T) {
	lib, m := newLibrary(t)
	m.SetResponse(xtream.ActionVODStreams, `[
		{"stream_id": 1, "name": "Film 2001", "category_name": "Drame", "container_extension": "mp4"},
		{"stream_id": 2, "name": "Other", "year": 2020}
	]`)

	vod, err := lib.VOD(context.Background())
	require.NoError(t, err)
	require.Len(t, vod, 2)
	assert.Nil(t, vod[0].Year, "vod listing only reports the upstream year")
	assert.Equal(t, "Drame", vod[0].Category)
	assert.Equal(t, DefaultCategory, vod[1].Category)
	require.NotNil(t, vod[1].Year)
	assert.Equal(t, 2020, *vod[1].Year)
}

func TestSeries(t *testing.T) {
	lib, m := newLibrary(t)
	m.SetResponse(xtream.ActionSeriesCategories, `[{"category_id":"3","category_name":"Drama"}]`)
	m.SetResponse(xtream.ActionSeries, `[
		{"series_id": 7, "name": "Show A", "category_id": "3", "cover": "http://c/a.jpg", "rating": "7.1"},
		{"series_id": 8, "name": "Show B", "category_id": "4"}
	]`)
	m.SetSeriesInfo("7", `{"episodes": {
		"2": [{"id": "902", "episode_num": 1, "container_extension": "mp4", "info": {"movie_image": "http://c/e.jpg"}}],
		"1": [{"id": "901", "episode_num": "1", "title": "Pilot", "container_extension": "mkv", "info": []},
		      {"id": "903", "episode_num": "2", "container_extension": "mkv", "info": {}}]
	}}`)

	cat, err := lib.Series(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Series, 2)

	a := cat.Series[0]
	assert.Equal(t, "Drama", a.Category)
	assert.Equal(t, 7.1, a.Rating)
	require.Len(t, a.Seasons, 2)
	assert.Equal(t, 1, a.Seasons[0].Number)
	assert.Equal(t, 2, a.Seasons[1].Number)

	pilot := a.Seasons[0].Episodes[0]
	assert.Equal(t, "7-s1e1", pilot.ID)
	assert.Equal(t, "Pilot", pilot.Title)
	assert.Equal(t, m.URL+"/series/u/p/901.mkv", pilot.StreamURL)
	assert.Equal(t, "http://c/a.jpg", pilot.ThumbnailURL)
	assert.Equal(t, "Episode 2", a.Seasons[0].Episodes[1].Title)
	assert.Equal(t, "http://c/e.jpg", a.Seasons[1].Episodes[0].ThumbnailURL)

	b := cat.Series[1]
	assert.Equal(t, DefaultCategory, b.Category)
	assert.Empty(t, b.Seasons, "missing series info degrades to no seasons")
	assert.Equal(t, PlaceholderCoverURL, b.CoverURL)
}

func TestSeriesToleratesCategoryFailure(t *testing.T) {
	lib, m := newLibrary(t)
	m.SetResponse(xtream.ActionSeries, `[{"series_id": 1, "name": "Solo"}]`)

	cat, err := lib.Series(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Series, 1)
	assert.Empty(t, cat.Categories)
}

func TestSeriesBadShape(t *testing.T) {
	lib, m := newLibrary(t)
	m.SetResponse(xtream.ActionSeries, `{"user_info": {}}`)

	_, err := lib.Series(context.Background())
	require.ErrorIs(t, err, xtream.ErrBadResponse)
}

func TestLive(t *testing.T) {
	lib, m := newLibrary(t)
	m.SetLiveFormat("m3u8", true)

	pb := lib.Live(context.Background(), "55")
	assert.Equal(t, "m3u8", pb.Format)
	assert.Equal(t, m.URL+"/live/u/p/55.m3u8", pb.StreamURL)
}
