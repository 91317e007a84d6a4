// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/chouftv/internal/config"
	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/source"
	"github.com/ManuGH/chouftv/internal/xtream"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	arabicM3U = `#EXTM3U
#EXTINF:-1 tvg-id="aj.qa" tvg-logo="http://logo/aj.png" group-title="News",Al Jazeera
http://stream/aj.m3u8
#EXTINF:-1 group-title="Sports",beIN Sports 1
http://stream/bein1.m3u8
`
	newsM3U = `#EXTM3U
#EXTINF:-1 group-title="News",Al Jazeera
http://stream/aj.m3u8
#EXTINF:-1,France 24
http://stream/f24.m3u8
`
	moroccoM3U = `#EXTM3U
#EXTINF:-1 group-title="General",2M Maroc
http://stream/2m.m3u8
`
	sportsM3U = `#EXTM3U
#EXTINF:-1 tvg-logo="http://logo/bein.png" group-title="Sports",beIN Sports 1 HD
http://stream/bein1.m3u8
#EXTINF:-1 group-title="Movies",Cinema One
http://stream/cinema.m3u8
`
)

type fixture struct {
	srv      *httptest.Server
	upstream *httptest.Server
	holder   *config.Holder
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	bodies := map[string]string{
		"/arabic.m3u":  arabicM3U,
		"/news.m3u":    newsM3U,
		"/morocco.m3u": moroccoM3U,
		"/sports.m3u":  sportsM3U,
	}
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(up.Close)
	return up
}

func testConfig(upstream string) config.AppConfig {
	cfg := config.Defaults()
	cfg.RateLimit.Enabled = false
	cfg.Fetch.ProbeTimeout = 2 * time.Second
	cfg.Fetch.Timeout = 2 * time.Second

	languages := orderedmap.New[string, string]()
	languages.Set("arabic", upstream+"/arabic.m3u")
	categories := orderedmap.New[string, string]()
	categories.Set("news", upstream+"/news.m3u")
	categories.Set("broken", upstream+"/broken.m3u")
	countries := orderedmap.New[string, string]()
	countries.Set("morocco", upstream+"/morocco.m3u")
	countries.Set("united_states", upstream+"/broken.m3u")

	dims := orderedmap.New[string, *orderedmap.OrderedMap[string, string]]()
	dims.Set(source.Languages, languages)
	dims.Set(source.Categories, categories)
	dims.Set(source.Countries, countries)
	cfg.Streaming.IPTVOrg.Channels = dims

	cfg.SportsM3U.Categories = []string{"sport", "bein"}
	cfg.SportsM3U.Sources = []source.Descriptor{
		{Name: "main", URL: upstream + "/sports.m3u"},
		{Name: "dead", URL: upstream + "/dead.m3u"},
	}
	return cfg
}

func newFixture(t *testing.T, mutate func(*config.AppConfig)) *fixture {
	t.Helper()
	up := newUpstream(t)
	cfg := testConfig(up.URL)
	if mutate != nil {
		mutate(&cfg)
	}

	f, err := fetch.New(fetch.Config{Timeout: 2 * time.Second})
	require.NoError(t, err)

	holder := config.NewHolder(cfg, nil)
	s := New(Deps{Holder: holder, Fetcher: f, Version: "test"})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, upstream: up, holder: holder}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	res, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()

	var body map[string]any
	if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	}
	return res, body
}

func names(t *testing.T, v any) []string {
	t.Helper()
	list, ok := v.([]any)
	require.True(t, ok, "expected a list, got %T", v)
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, item.(map[string]any)["name"].(string))
	}
	return out
}

func TestIPTVOrgChannels(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/iptv-org/channels")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["success"])

	want := []string{"Al Jazeera", "beIN Sports 1", "France 24", "2M Maroc"}
	if diff := cmp.Diff(want, names(t, body["channels"])); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}

	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 5, stats["totalChannels"])
	assert.EqualValues(t, 4, stats["uniqueChannels"])
	assert.EqualValues(t, 5, stats["processedSources"])
	assert.EqualValues(t, 2, stats["failedSources"])
}

func TestIPTVOrgChannelsTagsSourceKeys(t *testing.T) {
	f := newFixture(t, nil)

	_, body := f.get(t, "/api/iptv-org/channels")
	for _, item := range body["channels"].([]any) {
		ch := item.(map[string]any)
		if ch["name"] == "2M Maroc" {
			assert.Equal(t, "morocco", ch["country"])
		}
		if ch["name"] == "beIN Sports 1" {
			assert.Equal(t, "arabic", ch["language"])
		}
	}
}

func TestIPTVOrgPlaylist(t *testing.T) {
	f := newFixture(t, nil)

	res, err := http.Get(f.srv.URL + "/api/iptv-org/channels.m3u")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "audio/x-mpegurl")
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "#EXTM3U"))
	assert.Contains(t, string(raw), "http://stream/2m.m3u8")
}

func TestIPTVOrgDimension(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/iptv-org/channels/categories/news")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "2 channels found for news", body["message"])
	assert.Equal(t, []string{"Al Jazeera", "France 24"}, names(t, body["channels"]))
}

func TestIPTVOrgDimensionUnknownKey(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/iptv-org/channels/languages/klingon")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Language klingon not found", body["message"])
	assert.Empty(t, body["channels"])
}

func TestIPTVOrgDimensionUpstreamFailure(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/iptv-org/channels/categories/broken")
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["details"])
}

func TestChannelsByTypeForcesCountry(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/channels/countries/morocco")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "countries", body["type"])
	assert.Equal(t, "morocco", body["category"])
	assert.EqualValues(t, 1, body["count"])

	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "morocco", data[0].(map[string]any)["country"])
}

func TestChannelsByTypeNotFound(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/channels/categories/cooking")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Category not found", body["error"])
}

func TestAllChannels(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/channels/all")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 4, body["count"])
	assert.Len(t, body["data"], 4)
}

func TestStructure(t *testing.T) {
	f := newFixture(t, nil)

	res, err := http.Get(f.srv.URL + "/api/channels/structure")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	// Declaration order survives encoding.
	s := string(raw)
	assert.Less(t, strings.Index(s, `"languages"`), strings.Index(s, `"categories"`))
	assert.Less(t, strings.Index(s, `"categories"`), strings.Index(s, `"countries"`))
	assert.Less(t, strings.Index(s, `"news"`), strings.Index(s, `"broken"`))
}

func TestCountries(t *testing.T) {
	f := newFixture(t, nil)

	_, body := f.get(t, "/api/channels/countries")
	list := body["countries"].([]any)
	require.Len(t, list, 2)

	us := list[1].(map[string]any)
	assert.Equal(t, "united_states", us["id"])
	assert.Equal(t, "United States", us["name"])
	assert.Equal(t, f.upstream.URL+"/broken.m3u", us["url"])
}

func TestDefaultChannels(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/channels/default")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "2 channels loaded", body["message"])
	assert.Len(t, body["channels"], 2)
}

func TestDefaultChannelsFallsBackToFirstLanguage(t *testing.T) {
	f := newFixture(t, func(c *config.AppConfig) {
		langs, _ := c.Streaming.IPTVOrg.Channels.Get(source.Languages)
		url, _ := langs.Delete("arabic")
		langs.Set("french", url)
	})

	res, body := f.get(t, "/api/channels/default")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["channels"], 2)
}

func TestDefaultChannelsWithoutLanguages(t *testing.T) {
	f := newFixture(t, func(c *config.AppConfig) {
		c.Streaming.IPTVOrg.Channels.Delete(source.Languages)
	})

	res, body := f.get(t, "/api/channels/default")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestSports(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/m3u/sports")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"beIN Sports 1 HD"}, names(t, body["channels"]))

	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 2, stats["processedSources"])
	assert.EqualValues(t, 1, stats["reachableSources"])
}

func TestSportsNoReachableSource(t *testing.T) {
	f := newFixture(t, func(c *config.AppConfig) {
		c.SportsM3U.Sources = c.SportsM3U.Sources[1:]
	})

	res, body := f.get(t, "/api/m3u/sports")
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "Failed to load sports channels", body["error"])
}

func TestRoutesFollowReload(t *testing.T) {
	up := newUpstream(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	write := func(key string) {
		yaml := "streaming:\n  iptv_org:\n    channels:\n      categories:\n        " + key + ": " + up.URL + "/news.m3u\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	}
	write("news")

	loader := config.NewLoader(path, "test")
	cfg, err := loader.Load()
	require.NoError(t, err)
	holder := config.NewHolder(cfg, loader)

	fc, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	srv := httptest.NewServer(New(Deps{Holder: holder, Fetcher: fc}).Handler())
	t.Cleanup(srv.Close)
	f := &fixture{srv: srv, upstream: up, holder: holder}

	res, _ := f.get(t, "/api/channels/categories/news")
	require.Equal(t, http.StatusOK, res.StatusCode)

	write("headlines")
	require.NoError(t, holder.Reload(t.Context()))

	res, _ = f.get(t, "/api/channels/categories/news")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res, _ = f.get(t, "/api/channels/categories/headlines")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestUnknownAPIRoute(t *testing.T) {
	f := newFixture(t, nil)

	res, body := f.get(t, "/api/nope")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	f := newFixture(t, nil)

	res, _ := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = f.get(t, "/readyz")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	r, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "chouftv_http_request_duration_seconds")
}

func newPanelFixture(t *testing.T) (*fixture, *xtream.MockServer) {
	t.Helper()
	m := xtream.NewMockServer("u", "p")
	t.Cleanup(m.Close)
	f := newFixture(t, func(c *config.AppConfig) {
		c.Xtream.ServerURL = m.URL
		c.Xtream.Username = "u"
		c.Xtream.Password = "p"
		c.Xtream.AuthBackoff = time.Millisecond
	})
	return f, m
}

func TestXtreamRoutesWithoutPanel(t *testing.T) {
	f := newFixture(t, nil)

	for _, path := range []string{"/api/channels", "/api/movies", "/api/films", "/api/vod", "/api/series", "/api/live/10"} {
		res, body := f.get(t, path)
		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode, path)
		assert.Equal(t, false, body["success"], path)
	}
}

func TestLiveChannelsRoute(t *testing.T) {
	f, m := newPanelFixture(t)
	m.SetResponse(xtream.ActionLiveCategories, `[{"category_id":"1","category_name":"News"}]`)
	m.SetResponse(xtream.ActionLiveStreams, `[{"stream_id": 10, "name": "Al Jazeera", "category_id": "1"}]`)

	res, body := f.get(t, "/api/channels")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"Al Jazeera"}, names(t, body["channels"]))
	assert.Contains(t, body, "stats")
}

func TestMoviesRouteUpstreamFailure(t *testing.T) {
	f, _ := newPanelFixture(t)

	res, body := f.get(t, "/api/movies")
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "Failed to load movies", body["error"])
	assert.Empty(t, body["movies"])
}

func TestLiveRouteRejectsBadID(t *testing.T) {
	f, _ := newPanelFixture(t)

	res, body := f.get(t, "/api/live/bad%20id")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestLiveRoute(t *testing.T) {
	f, m := newPanelFixture(t)
	m.SetLiveFormat(".m3u8", true)

	res, body := f.get(t, "/api/live/10")
	require.Equal(t, http.StatusOK, res.StatusCode)
	data := body["data"].(map[string]any)
	assert.Contains(t, data["stream_url"], "/live/u/p/10")
}
