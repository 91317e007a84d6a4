// SPDX-License-Identifier: MIT

// Package playlist renders aggregated channels back into Extended M3U.
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/chouftv/internal/m3u"
)

var attrEscaper = strings.NewReplacer(`"`, "'", "\n", " ", "\r", " ")
var nameEscaper = strings.NewReplacer("\n", " ", "\r", " ")

// WriteM3U writes channels as an Extended M3U playlist. Attributes that are
// empty are omitted so the output parses back to the same records.
func WriteM3U(w io.Writer, channels []m3u.Channel) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("#EXTM3U\n"); err != nil {
		return err
	}
	for _, ch := range channels {
		if strings.TrimSpace(ch.URL) == "" {
			continue
		}
		var b strings.Builder
		b.WriteString("#EXTINF:-1")
		writeAttr(&b, "tvg-id", ch.TvgID)
		writeAttr(&b, "tvg-logo", ch.Logo)
		writeAttr(&b, "tvg-country", ch.Country)
		writeAttr(&b, "tvg-language", ch.Language)
		writeAttr(&b, "group-title", ch.Group)
		fmt.Fprintf(&b, ",%s\n%s\n", nameEscaper.Replace(ch.Name), strings.TrimSpace(ch.URL))
		if _, err := bw.WriteString(b.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeAttr(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, ` %s="%s"`, key, attrEscaper.Replace(value))
}
