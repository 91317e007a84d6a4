// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package library

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Defaults applied to incomplete upstream rows.
const (
	DefaultName         = "Unnamed"
	DefaultCategory     = "Uncategorized"
	DefaultQuality      = "HD"
	DefaultContainer    = "m3u8"
	PlaceholderCoverURL = "https://via.placeholder.com/300x450"
)

// LiveChannel is a normalised live stream.
type LiveChannel struct {
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	URL                string  `json:"url"`
	Logo               string  `json:"logo"`
	StreamID           string  `json:"stream_id"`
	CategoryID         string  `json:"category_id"`
	Rating             float64 `json:"rating"`
	Quality            string  `json:"quality"`
	ContainerExtension string  `json:"container_extension"`
	Kind               string  `json:"type"`
}

// Stats counts live channels per content type.
type Stats struct {
	Total  int `json:"total"`
	TV     int `json:"tv"`
	Movies int `json:"movies"`
	Series int `json:"series"`
}

// LiveResult is the live channel listing.
type LiveResult struct {
	Channels []LiveChannel
	Stats    Stats
}

// Movie is a normalised VOD entry.
type Movie struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	CoverURL    string  `json:"coverUrl"`
	StreamURL   string  `json:"streamUrl"`
	Category    string  `json:"category"`
	CategoryID  string  `json:"categoryId,omitempty"`
	Genre       string  `json:"genre"`
	Year        *int    `json:"year"`
	Quality     string  `json:"quality"`
	Description string  `json:"description"`
	Duration    string  `json:"duration"`
	Rating      float64 `json:"rating"`
}

// MovieCatalog is the movie listing with category views.
type MovieCatalog struct {
	Movies     []Movie
	Categories map[string]string
	ByCategory *orderedmap.OrderedMap[string, []Movie]
}

// Episode is one playable series episode.
type Episode struct {
	ID           string `json:"id"`
	Number       int    `json:"number"`
	Title        string `json:"title"`
	StreamURL    string `json:"streamUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Duration     string `json:"duration"`
	Overview     string `json:"overview"`
	ReleaseDate  string `json:"releaseDate"`
}

// Season groups episodes by season number.
type Season struct {
	Number   int       `json:"number"`
	Episodes []Episode `json:"episodes"`
}

// Show is a normalised series with its seasons.
type Show struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	CategoryID  string   `json:"categoryId,omitempty"`
	CoverURL    string   `json:"coverUrl"`
	Overview    string   `json:"overview"`
	Rating      float64  `json:"rating"`
	Genre       string   `json:"genre"`
	Director    string   `json:"director"`
	Actors      string   `json:"actors"`
	ReleaseDate string   `json:"releaseDate"`
	Seasons     []Season `json:"seasons"`
}

// SeriesCatalog is the series listing with category views.
type SeriesCatalog struct {
	Series     []Show
	Categories map[string]string
	ByCategory *orderedmap.OrderedMap[string, []Show]
}
