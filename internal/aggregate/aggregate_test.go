// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/m3u"
	"github.com/ManuGH/chouftv/internal/source"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type stubFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	failures map[string]error
	jitter   bool
	calls    []string
}

func (s *stubFetcher) Fetch(ctx context.Context, url string, _ ...fetch.Option) (*fetch.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	jitter := s.jitter
	s.mu.Unlock()

	if jitter {
		select {
		case <-time.After(time.Duration(rand.IntN(5)) * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := s.failures[url]; ok {
		return nil, err
	}
	body, ok := s.bodies[url]
	if !ok {
		return &fetch.Response{Status: 404}, nil
	}
	return &fetch.Response{Status: 200, Body: body}, nil
}

type stubProber struct {
	reachable map[string]bool
}

func (p stubProber) Filter(_ context.Context, in []source.Descriptor) []source.Descriptor {
	var out []source.Descriptor
	for _, d := range in {
		if p.reachable[d.URL] {
			out = append(out, d)
		}
	}
	return out
}

func playlist(entries ...string) string {
	s := "#EXTM3U\n"
	for _, e := range entries {
		s += e + "\n"
	}
	return s
}

func TestAggregateTagsAndDedups(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := &stubFetcher{bodies: map[string]string{
		"http://lang/ara": playlist(
			`#EXTINF:-1 tvg-language="Arabic;French" group-title="News",Al Jazeera`, "http://s/aj",
			`#EXTINF:-1,Shared Old`, "http://s/shared",
		),
		"http://cat/news": playlist(
			`#EXTINF:-1,No Group`, "http://s/nogroup",
			`#EXTINF:-1 group-title="Business",Has Group`, "http://s/hasgroup",
		),
		"http://country/ma": playlist(
			`#EXTINF:-1 tvg-country="FR",Shared New`, "http://s/shared",
			`#EXTINF:-1,XXX Channel`, "http://s/adult",
		),
	}}
	catalog := source.NewCatalog(
		source.Group{Dimension: source.Languages, Sources: []source.Descriptor{{Name: "arabic", URL: "http://lang/ara"}}},
		source.Group{Dimension: source.Categories, Sources: []source.Descriptor{{Name: "news", URL: "http://cat/news"}}},
		source.Group{Dimension: source.Countries, Sources: []source.Descriptor{{Name: "morocco", URL: "http://country/ma"}}},
	)

	res := New(f, nil, Options{}).Aggregate(context.Background(), catalog)

	want := []m3u.Channel{
		{Name: "Al Jazeera", Group: "News", Language: "arabic", URL: "http://s/aj", SourceType: source.Languages, SourceCategory: "arabic"},
		{Name: "Shared New", Country: "morocco", URL: "http://s/shared", SourceType: source.Countries, SourceCategory: "morocco"},
		{Name: "No Group", Group: "news", URL: "http://s/nogroup", SourceType: source.Categories, SourceCategory: "news"},
		{Name: "Has Group", Group: "Business", URL: "http://s/hasgroup", SourceType: source.Categories, SourceCategory: "news"},
	}
	if diff := cmp.Diff(want, res.Channels); diff != "" {
		t.Fatalf("channels mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, res.TotalChannels)
	assert.Equal(t, 4, res.UniqueChannels)
	assert.Equal(t, 3, res.ProcessedSources)
	assert.Zero(t, res.FailedSources)
}

func TestAggregatePartialFailure(t *testing.T) {
	f := &stubFetcher{
		bodies: map[string]string{
			"http://ok": playlist(`#EXTINF:-1,A`, "http://s/a"),
		},
		failures: map[string]error{"http://down": errors.New("connection refused")},
	}
	catalog := source.NewCatalog(source.Group{Dimension: source.Languages, Sources: []source.Descriptor{
		{Name: "down", URL: "http://down"},
		{Name: "missing", URL: "http://404"},
		{Name: "ok", URL: "http://ok"},
	}})

	res := New(f, nil, Options{}).Aggregate(context.Background(), catalog)
	require.Len(t, res.Channels, 1)
	assert.Equal(t, "A", res.Channels[0].Name)
	assert.Equal(t, 2, res.FailedSources)
	assert.Equal(t, 3, res.ProcessedSources)
}

func TestAggregateDeterministicUnderJitter(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	bodies := map[string]string{}
	var sources []source.Descriptor
	for i := range 12 {
		u := fmt.Sprintf("http://src/%d", i)
		bodies[u] = playlist(fmt.Sprintf(`#EXTINF:-1,Version %d`, i), "http://s/same")
		sources = append(sources, source.Descriptor{Name: fmt.Sprintf("k%d", i), URL: u})
	}
	catalog := source.NewCatalog(source.Group{Dimension: source.Countries, Sources: sources})

	for range 5 {
		f := &stubFetcher{bodies: bodies, jitter: true}
		res := New(f, nil, Options{Concurrency: 4}).Aggregate(context.Background(), catalog)
		require.Len(t, res.Channels, 1)
		assert.Equal(t, "Version 11", res.Channels[0].Name)
		assert.Equal(t, "k11", res.Channels[0].Country)
	}
}

func TestCombinedSkipsPolicyAndAdultFilter(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{
		"http://l": playlist(`#EXTINF:-1,Adult Night`, "http://s/1"),
	}}
	catalog := source.NewCatalog(source.Group{Dimension: source.Languages, Sources: []source.Descriptor{{Name: "french", URL: "http://l"}}})

	res := New(f, nil, Options{}).Combined(context.Background(), catalog)
	require.Len(t, res.Channels, 1)
	assert.Empty(t, res.Channels[0].Language)
	assert.Equal(t, source.Languages, res.Channels[0].SourceType)
	assert.Equal(t, "french", res.Channels[0].SourceCategory)
}

func TestDimension(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{
		"http://ma": playlist(`#EXTINF:-1 tvg-country="MA",2M`, "http://s/2m"),
		"http://ar": playlist(`#EXTINF:-1,Arryadia`, "http://s/ar"),
	}}
	catalog := source.NewCatalog(
		source.Group{Dimension: source.Countries, Sources: []source.Descriptor{{Name: "morocco", URL: "http://ma"}}},
		source.Group{Dimension: source.Languages, Sources: []source.Descriptor{{Name: "arabic", URL: "http://ar"}, {Name: "broken", URL: "http://gone"}}},
	)
	agg := New(f, nil, Options{})

	chs, err := agg.Dimension(context.Background(), catalog, source.Countries, "morocco")
	require.NoError(t, err)
	require.Len(t, chs, 1)
	assert.Equal(t, "morocco", chs[0].Country)

	chs, err = agg.Dimension(context.Background(), catalog, source.Languages, "arabic")
	require.NoError(t, err)
	require.Len(t, chs, 1)
	assert.Empty(t, chs[0].Language)

	_, err = agg.Dimension(context.Background(), catalog, source.Countries, "atlantis")
	require.ErrorIs(t, err, ErrUnknownKey)

	_, err = agg.Dimension(context.Background(), catalog, "planets", "mars")
	require.ErrorIs(t, err, ErrUnknownKey)

	_, err = agg.Dimension(context.Background(), catalog, source.Languages, "broken")
	require.ErrorIs(t, err, fetch.ErrStatus)
}

func TestSports(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := &stubFetcher{bodies: map[string]string{
		"http://s1": playlist(
			`#EXTINF:-1 tvg-logo="http://l/bein.png",beIN Sports 1`, "http://a/bein1",
			`#EXTINF:-1 group-title="Sport HD",Channel 7`, "http://a/ch7",
			`#EXTINF:-1 group-title="News",Al Jazeera`, "http://a/aj",
		),
		"http://s2": playlist(
			`#EXTINF:-1,BEIN SPORTS 1`, "http://b/bein1",
		),
	}}
	set := source.SportsSet{
		Keywords: []string{"bein"},
		Sources: []source.Descriptor{
			{Name: "one", URL: "http://s1"},
			{Name: "down", URL: "http://down"},
			{Name: "two", URL: "http://s2"},
		},
	}
	prober := stubProber{reachable: map[string]bool{"http://s1": true, "http://s2": true}}

	res, err := New(f, prober, Options{}).Sports(context.Background(), set)
	require.NoError(t, err)

	want := []SportsChannel{
		{ID: "beinsports1", Name: "BEIN SPORTS 1", URL: "http://b/bein1", Category: "Sports", Quality: "HD"},
		{ID: "channel7", Name: "Channel 7", URL: "http://a/ch7", Category: "sport hd", Quality: "HD"},
	}
	if diff := cmp.Diff(want, res.Channels); diff != "" {
		t.Fatalf("sports mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, res.TotalChannels)
	assert.Equal(t, 2, res.UniqueChannels)
	assert.Equal(t, 3, res.ProcessedSources)
	assert.Equal(t, 2, res.ReachableSources)

	for _, call := range f.calls {
		assert.NotEqual(t, "http://down", call, "unreachable source must not be fetched")
	}
}

func TestSportsNoReachableSource(t *testing.T) {
	f := &stubFetcher{}
	set := source.SportsSet{Sources: []source.Descriptor{{Name: "down", URL: "http://down"}}}

	_, err := New(f, stubProber{}, Options{}).Sports(context.Background(), set)
	require.ErrorIs(t, err, ErrNoReachableSource)
	assert.Empty(t, f.calls)
}

func TestDedupKeepsFirstPosition(t *testing.T) {
	d := newDedup[string]()
	assert.Empty(t, d.Items())
	d.Put("a", "a1")
	d.Put("b", "b1")
	d.Put("a", "a2")
	d.Put("c", "c1")
	d.Put("b", "b2")
	assert.Equal(t, []string{"a2", "b2", "c1"}, d.Items())
}

func TestAggregateLogsSummary(t *testing.T) {
	var buf bytes.Buffer
	log.Configure(log.Config{Output: &buf})
	t.Cleanup(func() { log.Configure(log.Config{Output: io.Discard}) })

	f := &stubFetcher{bodies: map[string]string{
		"http://lang/ara": playlist(`#EXTINF:-1,A`, "http://s/a"),
	}}
	catalog := source.NewCatalog(
		source.Group{Dimension: source.Languages, Sources: []source.Descriptor{{Name: "arabic", URL: "http://lang/ara"}}},
	)
	New(f, nil, Options{}).Aggregate(context.Background(), catalog)

	var done map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry[log.FieldEvent] == "aggregate.done" {
			done = entry
		}
	}
	require.NotNil(t, done, "aggregate.done not logged:\n%s", buf.String())
	assert.Equal(t, "aggregate", done[log.FieldComponent])
	assert.EqualValues(t, 1, done["unique"])
}

func TestTagPolicyTable(t *testing.T) {
	ch := m3u.Channel{Group: "Kids", Language: "x", Country: "y"}
	DefaultPolicies[source.Categories].apply(&ch, "news")
	assert.Equal(t, "Kids", ch.Group)
	DefaultPolicies[source.Languages].apply(&ch, "arabic")
	assert.Equal(t, "arabic", ch.Language)
	DefaultPolicies[source.Countries].apply(&ch, "morocco")
	assert.Equal(t, "morocco", ch.Country)
	assert.Equal(t, "Kids", ch.Group)
}
