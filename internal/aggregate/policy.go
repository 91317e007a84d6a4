// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package aggregate

import (
	"github.com/ManuGH/chouftv/internal/m3u"
	"github.com/ManuGH/chouftv/internal/source"
)

// TagPolicy decides how records from a dimension are tagged with its key.
type TagPolicy struct {
	OverwriteLanguage bool
	OverwriteCountry  bool
	BackfillCategory  bool
}

// DefaultPolicies is the tagging table for the general path. Language and
// country playlists are segmented on that field, so the key always wins;
// category playlists only fill a missing group.
var DefaultPolicies = map[string]TagPolicy{
	source.Languages:  {OverwriteLanguage: true},
	source.Categories: {BackfillCategory: true},
	source.Countries:  {OverwriteCountry: true},
}

func (p TagPolicy) apply(ch *m3u.Channel, key string) {
	if p.OverwriteLanguage {
		ch.Language = key
	}
	if p.OverwriteCountry {
		ch.Country = key
	}
	if p.BackfillCategory && ch.Group == "" {
		ch.Group = key
	}
}

func tagSource(ch *m3u.Channel, dimension, key string) {
	ch.SourceType = dimension
	ch.SourceCategory = key
}
