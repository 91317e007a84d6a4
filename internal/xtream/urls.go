// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package xtream

import "strings"

// The URLs below embed credentials. They are handed to the player and must
// never be logged.

// LiveURL returns {server}live/{user}/{pass}/{id}[.ext].
func (c *Client) LiveURL(streamID, ext string) string {
	return c.streamURL("live", streamID, ext)
}

// MovieURL returns {server}movie/{user}/{pass}/{id}.{ext}.
func (c *Client) MovieURL(streamID, ext string) string {
	return c.streamURL("movie", streamID, ext)
}

// EpisodeURL returns {server}series/{user}/{pass}/{id}.{ext}.
func (c *Client) EpisodeURL(episodeID, ext string) string {
	return c.streamURL("series", episodeID, ext)
}

func (c *Client) streamURL(kind, id, ext string) string {
	u := c.base + kind + "/" + c.cfg.Username + "/" + c.cfg.Password + "/" + id
	if ext != "" {
		u += "." + strings.TrimPrefix(ext, ".")
	}
	return u
}

// LogoURL resolves a relative stream icon against the server URL.
func (c *Client) LogoURL(icon string) string {
	icon = strings.TrimSpace(icon)
	if icon == "" || strings.HasPrefix(icon, "http") {
		return icon
	}
	return c.base + strings.TrimPrefix(icon, "/")
}
