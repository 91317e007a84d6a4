// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package classify buckets channel and VOD titles using ordered keyword
// tables. All matching is case-insensitive substring matching on
// NFC-normalised text; the first matching row wins.
package classify

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind is the coarse content type of a live entry.
type Kind string

const (
	KindTV     Kind = "tv"
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// GenreOther is returned when no genre row matches.
const GenreOther = "Other"

// Rule is one row of a classification table.
type Rule[L any] struct {
	Label    L
	Keywords []string
}

// Table is an ordered list of rules; order decides ties.
type Table[L any] []Rule[L]

// Match returns the label of the first rule with a keyword contained in text.
// text must already be folded with Fold.
func (t Table[L]) Match(text string) (L, bool) {
	for _, r := range t {
		if containsAny(text, r.Keywords) {
			return r.Label, true
		}
	}
	var zero L
	return zero, false
}

var contentTypes = Table[Kind]{
	{Label: KindMovie, Keywords: []string{"movie", "film"}},
	{Label: KindSeries, Keywords: []string{"serie", "séries"}},
}

var genres = Table[string]{
	{Label: "Action", Keywords: []string{"action", "combat", "war", "guerre"}},
	{Label: "Animation", Keywords: []string{"animation", "cartoon", "anime", "disney", "pixar"}},
	{Label: "Comedy", Keywords: []string{"comedy", "comedie", "comédie", "humour"}},
	{Label: "Drama", Keywords: []string{"drama", "drame"}},
	{Label: "Horror", Keywords: []string{"horror", "horreur", "épouvante", "epouvante"}},
	{Label: "Sci-Fi", Keywords: []string{"sci-fi", "science fiction", "sf"}},
	{Label: "Thriller", Keywords: []string{"thriller", "suspense"}},
	{Label: "Documentary", Keywords: []string{"documentary", "documentaire", "docu"}},
	{Label: "Family", Keywords: []string{"family", "famille", "kids", "enfant"}},
	{Label: "Adventure", Keywords: []string{"adventure", "aventure"}},
	{Label: "Fantasy", Keywords: []string{"fantasy", "fantastique"}},
	{Label: "Romance", Keywords: []string{"romance", "romantic", "romantique"}},
}

var adultKeywords = []string{"adult", "xxx", "sex", "porn", "+18", "18+"}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Fold lower-cases and NFC-normalises s so decomposed accents compare equal
// to their precomposed keyword form.
func Fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// ContentType routes a live entry to movie, series or TV. A movie or series
// keyword in either the name or the category wins.
func ContentType(name, category string) Kind {
	n, c := Fold(name), Fold(category)
	for _, r := range contentTypes {
		if containsAny(n, r.Keywords) || containsAny(c, r.Keywords) {
			return r.Label
		}
	}
	return KindTV
}

// Genre checks the upstream category first, then the title.
func Genre(title, category string) string {
	if category != "" {
		if g, ok := genres.Match(Fold(category)); ok {
			return g
		}
	}
	if g, ok := genres.Match(Fold(title)); ok {
		return g
	}
	return GenreOther
}

// Year returns the first standalone 19xx or 20xx token in title.
func Year(title string) (int, bool) {
	m := yearPattern.FindString(title)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return y, true
}

// IsAdult reports whether name contains an adult keyword.
func IsAdult(name string) bool {
	return containsAny(Fold(name), adultKeywords)
}

// IsSports reports whether a channel is a sports channel: any keyword in its
// name, or "sport" anywhere in its group.
func IsSports(name, group string, keywords []string) bool {
	n := Fold(name)
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(n, Fold(k)) {
			return true
		}
	}
	return strings.Contains(Fold(group), "sport")
}

// SlugID lower-cases name and drops everything outside [a-z0-9].
func SlugID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
