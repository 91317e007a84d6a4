// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package source describes the playlist sources the aggregator reads from.
// Everything here is immutable once built and safe to share between requests.
package source

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Well-known dimensions of the public playlist catalog.
const (
	Languages  = "languages"
	Categories = "categories"
	Countries  = "countries"
)

// Descriptor identifies one playlist source.
type Descriptor struct {
	Name       string   `json:"name" yaml:"name"`
	URL        string   `json:"url" yaml:"url"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Group is one dimension and its sources in declaration order. The
// descriptor name is the dimension key (e.g. "arabic" under "languages").
type Group struct {
	Dimension string
	Sources   []Descriptor
}

// Catalog is the ordered set of dimensions used by the aggregator.
type Catalog struct {
	groups []Group
}

// NewCatalog builds a catalog from groups, copying the input.
func NewCatalog(groups ...Group) Catalog {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, Group{Dimension: g.Dimension, Sources: slices.Clone(g.Sources)})
	}
	return Catalog{groups: out}
}

// FromOrdered converts dimension → (key → url) ordered maps into a catalog,
// keeping declaration order on both levels.
func FromOrdered(dims *orderedmap.OrderedMap[string, *orderedmap.OrderedMap[string, string]]) Catalog {
	if dims == nil {
		return Catalog{}
	}
	groups := make([]Group, 0, dims.Len())
	for dim := dims.Oldest(); dim != nil; dim = dim.Next() {
		g := Group{Dimension: dim.Key}
		if dim.Value != nil {
			for kv := dim.Value.Oldest(); kv != nil; kv = kv.Next() {
				g.Sources = append(g.Sources, Descriptor{Name: kv.Key, URL: kv.Value})
			}
		}
		groups = append(groups, g)
	}
	return Catalog{groups: groups}
}

// Groups returns the dimensions in declaration order.
func (c Catalog) Groups() []Group {
	return c.groups
}

// Group returns the sources of a dimension.
func (c Catalog) Group(dimension string) (Group, bool) {
	for _, g := range c.groups {
		if g.Dimension == dimension {
			return g, true
		}
	}
	return Group{}, false
}

// Lookup returns the source registered under dimension/key.
func (c Catalog) Lookup(dimension, key string) (Descriptor, bool) {
	g, ok := c.Group(dimension)
	if !ok {
		return Descriptor{}, false
	}
	for _, d := range g.Sources {
		if d.Name == key {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Structure returns each dimension with its keys, both in declaration order.
func (c Catalog) Structure() *orderedmap.OrderedMap[string, []string] {
	out := orderedmap.New[string, []string]()
	for _, g := range c.groups {
		keys := make([]string, 0, len(g.Sources))
		for _, d := range g.Sources {
			keys = append(keys, d.Name)
		}
		out.Set(g.Dimension, keys)
	}
	return out
}

// Len returns the total number of sources across dimensions.
func (c Catalog) Len() int {
	n := 0
	for _, g := range c.groups {
		n += len(g.Sources)
	}
	return n
}

// SportsSet is the sports playlist configuration: global name keywords plus
// the sources to scan.
type SportsSet struct {
	Keywords []string
	Sources  []Descriptor
}

// KeywordsFor merges the set keywords with the per-source categories.
func (s SportsSet) KeywordsFor(d Descriptor) []string {
	if len(d.Categories) == 0 {
		return s.Keywords
	}
	out := make([]string, 0, len(s.Keywords)+len(d.Categories))
	out = append(out, s.Keywords...)
	return append(out, d.Categories...)
}
