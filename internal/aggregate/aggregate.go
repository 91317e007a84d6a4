// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package aggregate merges channels from many playlist sources into one
// deduplicated list.
//
// Sources are fetched concurrently but always merged in declaration order
// (dimension order, then key order), so "last write wins" deduplication is
// deterministic regardless of which fetch finishes first.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/chouftv/internal/classify"
	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/m3u"
	"github.com/ManuGH/chouftv/internal/metrics"
	"github.com/ManuGH/chouftv/internal/source"
	"github.com/ManuGH/chouftv/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel source fetches within one call.
const DefaultConcurrency = 8

var (
	// ErrNoReachableSource is returned by Sports when every source fails the
	// reachability check.
	ErrNoReachableSource = errors.New("aggregate: no reachable M3U source")
	// ErrUnknownKey is returned by Dimension for an unknown dimension or key.
	ErrUnknownKey = errors.New("aggregate: unknown source key")
)

// Prober filters sources down to the reachable ones, keeping order.
type Prober interface {
	Filter(ctx context.Context, sources []source.Descriptor) []source.Descriptor
}

// Options configures an Aggregator.
type Options struct {
	Concurrency int
	// Timeout bounds each content fetch; zero uses the fetcher default.
	Timeout  time.Duration
	Policies map[string]TagPolicy
}

// Aggregator fetches, parses and merges playlist sources. It holds no state
// between calls and is safe for concurrent use.
type Aggregator struct {
	fetcher     fetch.Fetcher
	prober      Prober
	concurrency int
	timeout     time.Duration
	policies    map[string]TagPolicy
}

// New creates an Aggregator.
func New(f fetch.Fetcher, p Prober, opts Options) *Aggregator {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Policies == nil {
		opts.Policies = DefaultPolicies
	}
	return &Aggregator{
		fetcher:     f,
		prober:      p,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		policies:    opts.Policies,
	}
}

// Result is the outcome of a general or combined aggregation.
type Result struct {
	TotalChannels    int           `json:"totalChannels"`
	UniqueChannels   int           `json:"uniqueChannels"`
	ProcessedSources int           `json:"processedSources"`
	FailedSources    int           `json:"failedSources"`
	Channels         []m3u.Channel `json:"-"`
}

type job struct {
	dimension string
	src       source.Descriptor
}

type outcome struct {
	channels []m3u.Channel
	err      error
}

func jobsFor(catalog source.Catalog) []job {
	jobs := make([]job, 0, catalog.Len())
	for _, g := range catalog.Groups() {
		for _, src := range g.Sources {
			jobs = append(jobs, job{dimension: g.Dimension, src: src})
		}
	}
	return jobs
}

// Aggregate runs the general path: every dimension is fetched, tagged by its
// policy, deduplicated by URL and stripped of adult channels. Source
// failures are logged and skipped.
func (a *Aggregator) Aggregate(ctx context.Context, catalog source.Catalog) Result {
	res := a.merge(ctx, jobsFor(catalog), true)

	kept := res.Channels[:0]
	for _, ch := range res.Channels {
		if !classify.IsAdult(ch.Name) {
			kept = append(kept, ch)
		}
	}
	res.Channels = kept
	res.UniqueChannels = len(kept)

	metrics.RecordAggregation("general", res.TotalChannels, res.UniqueChannels)
	logger := log.WithComponentFromContext(ctx, "aggregate")
	logger.Info().
		Str(log.FieldEvent, "aggregate.done").
		Int("total", res.TotalChannels).
		Int("unique", res.UniqueChannels).
		Int("failed_sources", res.FailedSources).
		Msg("aggregation complete")
	return res
}

// Combined lists every dimension with provenance tags only, deduplicated by
// URL, without the adult filter.
func (a *Aggregator) Combined(ctx context.Context, catalog source.Catalog) Result {
	res := a.merge(ctx, jobsFor(catalog), false)
	metrics.RecordAggregation("combined", res.TotalChannels, res.UniqueChannels)
	return res
}

func (a *Aggregator) merge(ctx context.Context, jobs []job, applyPolicy bool) Result {
	ctx, span := telemetry.Tracer("aggregate").Start(ctx, "aggregate.merge")
	defer span.End()

	logger := log.WithComponentFromContext(ctx, "aggregate")
	outcomes := a.fanout(ctx, jobs)

	res := Result{ProcessedSources: len(jobs)}
	seen := newDedup[m3u.Channel]()
	for i, j := range jobs {
		out := outcomes[i]
		metrics.RecordSource(j.dimension, out.err == nil)
		if out.err != nil {
			res.FailedSources++
			logger.Warn().Err(out.err).
				Str(log.FieldEvent, "source.failed").
				Str(log.FieldDimension, j.dimension).
				Str(log.FieldKey, j.src.Name).
				Msg("skipping source")
			continue
		}
		policy := a.policies[j.dimension]
		for _, ch := range out.channels {
			if applyPolicy {
				policy.apply(&ch, j.src.Name)
			}
			tagSource(&ch, j.dimension, j.src.Name)
			seen.Put(ch.URL, ch)
			res.TotalChannels++
		}
	}
	res.Channels = seen.Items()
	res.UniqueChannels = len(res.Channels)
	span.SetAttributes(telemetry.AggregateAttributes("merge", len(jobs), res.TotalChannels, res.UniqueChannels, res.FailedSources)...)
	return res
}

// fanout loads every job concurrently. Outcomes are indexed like jobs so the
// caller can merge in declared order.
func (a *Aggregator) fanout(ctx context.Context, jobs []job) []outcome {
	outcomes := make([]outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			chs, err := a.load(ctx, j.src)
			outcomes[i] = outcome{channels: chs, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (a *Aggregator) load(ctx context.Context, src source.Descriptor) ([]m3u.Channel, error) {
	var opts []fetch.Option
	if a.timeout > 0 {
		opts = append(opts, fetch.WithTimeout(a.timeout))
	}
	res, err := fetch.Get(ctx, a.fetcher, src.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name, err)
	}
	return m3u.Parse(res.Body), nil
}

// Dimension loads the single source registered under dimension/key. The
// country dimension forces Country to key on every record.
func (a *Aggregator) Dimension(ctx context.Context, catalog source.Catalog, dimension, key string) ([]m3u.Channel, error) {
	src, ok := catalog.Lookup(dimension, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownKey, dimension, key)
	}
	chs, err := a.load(ctx, src)
	if err != nil {
		return nil, err
	}
	if dimension == source.Countries {
		for i := range chs {
			chs[i].Country = key
		}
	}
	return chs, nil
}

// SportsChannel is one deduplicated sports channel.
type SportsChannel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Logo     string `json:"logo"`
	URL      string `json:"url"`
	Category string `json:"category"`
	Quality  string `json:"quality"`
}

// SportsResult is the outcome of Sports.
type SportsResult struct {
	TotalChannels    int             `json:"totalChannels"`
	UniqueChannels   int             `json:"uniqueChannels"`
	ProcessedSources int             `json:"processedSources"`
	ReachableSources int             `json:"reachableSources"`
	Channels         []SportsChannel `json:"-"`
}

// Sports scans the reachable sports sources for sports channels and
// deduplicates them by lower-cased name. It fails with ErrNoReachableSource
// when no source passes the reachability check.
func (a *Aggregator) Sports(ctx context.Context, set source.SportsSet) (SportsResult, error) {
	ctx, span := telemetry.Tracer("aggregate").Start(ctx, "aggregate.sports")
	defer span.End()
	logger := log.WithComponentFromContext(ctx, "aggregate")

	reachable := a.prober.Filter(ctx, set.Sources)
	if len(reachable) == 0 {
		logger.Error().
			Str(log.FieldEvent, "sports.no_source").
			Int("configured", len(set.Sources)).
			Msg("no reachable sports source")
		telemetry.RecordError(span, ErrNoReachableSource, "sports")
		return SportsResult{}, ErrNoReachableSource
	}

	jobs := make([]job, 0, len(reachable))
	for _, src := range reachable {
		jobs = append(jobs, job{dimension: "sports", src: src})
	}
	outcomes := a.fanout(ctx, jobs)

	res := SportsResult{
		ProcessedSources: len(set.Sources),
		ReachableSources: len(reachable),
	}
	seen := newDedup[SportsChannel]()
	for i, j := range jobs {
		out := outcomes[i]
		metrics.RecordSource("sports", out.err == nil)
		if out.err != nil {
			logger.Warn().Err(out.err).
				Str(log.FieldEvent, "source.failed").
				Str(log.FieldSource, j.src.Name).
				Msg("skipping sports source")
			continue
		}
		keywords := set.KeywordsFor(j.src)
		for _, ch := range out.channels {
			if !classify.IsSports(ch.Name, ch.Group, keywords) {
				continue
			}
			res.TotalChannels++
			seen.Put(strings.ToLower(ch.Name), toSports(ch))
		}
	}
	res.Channels = seen.Items()
	res.UniqueChannels = len(res.Channels)

	span.SetAttributes(telemetry.AggregateAttributes("sports", len(jobs), res.TotalChannels, res.UniqueChannels, len(jobs)-countOK(outcomes))...)
	metrics.RecordAggregation("sports", res.TotalChannels, res.UniqueChannels)
	logger.Info().
		Str(log.FieldEvent, "sports.done").
		Int("total", res.TotalChannels).
		Int("unique", res.UniqueChannels).
		Int("reachable_sources", res.ReachableSources).
		Msg("sports aggregation complete")
	return res, nil
}

func countOK(outcomes []outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.err == nil {
			n++
		}
	}
	return n
}

func toSports(ch m3u.Channel) SportsChannel {
	category := strings.ToLower(ch.Group)
	if category == "" {
		category = "Sports"
	}
	return SportsChannel{
		ID:       classify.SlugID(ch.Name),
		Name:     ch.Name,
		Logo:     ch.Logo,
		URL:      ch.URL,
		Category: category,
		Quality:  "HD",
	}
}
