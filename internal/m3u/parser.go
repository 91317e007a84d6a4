// Package m3u parses Extended M3U playlists into channel records.
package m3u

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// UnknownName is used when an #EXTINF line carries no display name.
const UnknownName = "Unknown"

const (
	extinfPrefix = "#EXTINF:"
	utf8BOM      = "\ufeff"
)

// Channel represents a single channel from an M3U playlist.
type Channel struct {
	Name           string `json:"name"`
	Logo           string `json:"logo,omitempty"`
	Group          string `json:"category,omitempty"`
	Country        string `json:"country,omitempty"`
	Language       string `json:"language,omitempty"`
	URL            string `json:"url"`
	SourceType     string `json:"source_type,omitempty"`
	SourceCategory string `json:"source_category,omitempty"`
	TvgID          string `json:"tvg_id,omitempty"`
}

// Parse parses M3U content and returns the channels in playlist order.
// Malformed lines never abort parsing; an #EXTINF entry without a following
// URL line is dropped.
func Parse(content string) []Channel {
	// A strings.Reader never fails, so neither does Parse.
	channels, _ := ParseReader(strings.NewReader(content))
	return channels
}

// ParseReader parses a playlist line by line as it is read. Lines have no
// length limit; public lists carry EXTINF lines with inline base64 logos.
// It only fails when reading from r fails, and then returns the channels
// completed so far.
func ParseReader(r io.Reader) ([]Channel, error) {
	var p parser
	br := bufio.NewReaderSize(r, 64*1024)
	first := true
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if first {
				line = strings.TrimPrefix(line, utf8BOM)
				first = false
			}
			p.feed(line)
		}
		if errors.Is(err, io.EOF) {
			return p.channels, nil
		}
		if err != nil {
			return p.channels, err
		}
	}
}

type parser struct {
	pending  *Channel
	channels []Channel
}

func (p *parser) feed(raw string) {
	line := strings.TrimSpace(raw)
	switch {
	case line == "":
		return
	case strings.HasPrefix(line, extinfPrefix):
		ch := parseExtinf(line)
		p.pending = &ch
	case strings.HasPrefix(line, "#"):
		return
	case p.pending != nil:
		p.pending.URL = line
		p.channels = append(p.channels, *p.pending)
		p.pending = nil
	}
}

func parseExtinf(line string) Channel {
	ch := Channel{
		Logo:     attr(line, "tvg-logo"),
		Group:    attr(line, "group-title"),
		Country:  attr(line, "tvg-country"),
		Language: attr(line, "tvg-language"),
		TvgID:    attr(line, "tvg-id"),
	}

	// Name is after the last comma
	if idx := strings.LastIndex(line, ","); idx != -1 {
		ch.Name = strings.TrimSpace(line[idx+1:])
	}
	if ch.Name == "" {
		ch.Name = UnknownName
	}
	return ch
}

// attr returns the quoted value of key="..." or "" when the attribute is
// absent or unterminated.
func attr(line, key string) string {
	needle := key + `="`
	from := 0
	for {
		idx := strings.Index(line[from:], needle)
		if idx == -1 {
			return ""
		}
		idx += from
		// Require a word boundary so "tvg-id" does not match "xtvg-id".
		if idx == 0 || line[idx-1] == ' ' || line[idx-1] == '\t' || line[idx-1] == ':' {
			start := idx + len(needle)
			end := strings.IndexByte(line[start:], '"')
			if end == -1 {
				return ""
			}
			return strings.TrimSpace(line[start : start+end])
		}
		from = idx + len(needle)
	}
}
