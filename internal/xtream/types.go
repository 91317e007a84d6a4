// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package xtream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string, number, bool or null. Panels disagree on
// whether ids, ratings and years are quoted.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

// String returns the raw value.
func (f FlexString) String() string { return string(f) }

// Float parses the value, returning 0 when it is empty or not numeric.
func (f FlexString) Float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0
	}
	return v
}

// Int parses the value, returning 0 when it is empty or not numeric.
func (f FlexString) Int() int {
	v, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil {
		return int(f.Float())
	}
	return v
}

// UserInfo is the account block returned on authentication.
type UserInfo struct {
	Username       string     `json:"username"`
	Status         string     `json:"status"`
	ExpDate        FlexString `json:"exp_date"`
	MaxConnections FlexString `json:"max_connections"`
}

// Category is a live, VOD or series category.
type Category struct {
	ID   FlexString `json:"category_id"`
	Name string     `json:"category_name"`
}

// LiveStream is one entry of get_live_streams.
type LiveStream struct {
	StreamID           FlexString `json:"stream_id"`
	Name               string     `json:"name"`
	StreamIcon         string     `json:"stream_icon"`
	CategoryID         FlexString `json:"category_id"`
	CategoryName       string     `json:"category_name"`
	Rating             FlexString `json:"rating"`
	Quality            string     `json:"quality"`
	ContainerExtension string     `json:"container_extension"`
	EpgChannelID       string     `json:"epg_channel_id"`
}

// VODStream is one entry of get_vod_streams.
type VODStream struct {
	StreamID           FlexString `json:"stream_id"`
	Name               string     `json:"name"`
	StreamIcon         string     `json:"stream_icon"`
	CategoryID         FlexString `json:"category_id"`
	CategoryName       string     `json:"category_name"`
	ContainerExtension string     `json:"container_extension"`
	Year               FlexString `json:"year"`
	Rating             FlexString `json:"rating"`
	Quality            string     `json:"quality"`
	Description        string     `json:"description"`
	Duration           string     `json:"duration"`
}

// Series is one entry of get_series.
type Series struct {
	SeriesID    FlexString `json:"series_id"`
	Name        string     `json:"name"`
	Cover       string     `json:"cover"`
	CategoryID  FlexString `json:"category_id"`
	Plot        string     `json:"plot"`
	Rating      FlexString `json:"rating"`
	Genre       string     `json:"genre"`
	Director    string     `json:"director"`
	Cast        string     `json:"cast"`
	ReleaseDate string     `json:"releaseDate"`
}

// Episode is one entry of a get_series_info season.
type Episode struct {
	ID                 FlexString  `json:"id"`
	EpisodeNum         FlexString  `json:"episode_num"`
	Title              string      `json:"title"`
	ContainerExtension string      `json:"container_extension"`
	Info               EpisodeInfo `json:"info"`
}

// EpisodeInfo carries per-episode metadata.
type EpisodeInfo struct {
	MovieImage  string     `json:"movie_image"`
	Duration    string     `json:"duration"`
	Plot        string     `json:"plot"`
	ReleaseDate string     `json:"releasedate"`
	Rating      FlexString `json:"rating"`
}

// UnmarshalJSON tolerates panels that send an empty array instead of an
// object for missing info.
func (e *EpisodeInfo) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*e = EpisodeInfo{}
		return nil
	}
	type plain EpisodeInfo
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*e = EpisodeInfo(p)
	return nil
}

// SeriesInfo is the get_series_info response. Episodes maps a season
// number to its episodes.
type SeriesInfo struct {
	Episodes map[string][]Episode `json:"episodes"`
}

// UnmarshalJSON accepts "episodes" as either an object keyed by season or
// an empty array.
func (s *SeriesInfo) UnmarshalJSON(b []byte) error {
	var raw struct {
		Episodes json.RawMessage `json:"episodes"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Episodes = nil
	eps := bytes.TrimSpace(raw.Episodes)
	if len(eps) == 0 || eps[0] != '{' {
		return nil
	}
	return json.Unmarshal(eps, &s.Episodes)
}
