// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ManuGH/chouftv/internal/m3u"
)

// FuzzWriteM3U checks that the writer never panics and that every channel
// with a usable URL survives a parse of the output.
func FuzzWriteM3U(f *testing.F) {
	f.Add("Channel 1", "http://logo.png", "Group1", "http://stream1")
	f.Add("Test & <Special>", "", "Default", "http://example.com/stream")
	f.Add("", "", "", "")
	f.Add("Unicode Тест", "http://example.com/logo.png", "Интер", "rtsp://stream")

	f.Fuzz(func(t *testing.T, name, logo, group, url string) {
		channels := []m3u.Channel{{Name: name, Logo: logo, Group: group, URL: url}}

		var buf bytes.Buffer
		if err := WriteM3U(&buf, channels); err != nil {
			t.Fatalf("WriteM3U failed: %v", err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("#EXTM3U")) {
			t.Fatalf("output doesn't start with #EXTM3U")
		}

		u := strings.TrimSpace(url)
		if u == "" || strings.ContainsAny(u, "\r\n") || strings.HasPrefix(u, "#") {
			return
		}
		if got := len(m3u.Parse(buf.String())); got != 1 {
			t.Fatalf("expected 1 parsed channel, got %d\n%s", got, buf.String())
		}
	})
}
