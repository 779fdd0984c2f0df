package api

import (
	"testing"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		resource string
		id       string
		wantErr  bool
	}{
		{
			name:     "track URL",
			link:     "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			resource: "track",
			id:       "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "track URL with query parameters",
			link:     "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123&nd=1",
			resource: "track",
			id:       "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "localized track URL",
			link:     "https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC",
			resource: "track",
			id:       "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "album URL",
			link:     "https://open.spotify.com/album/0fLhefnjUhaL9FNpbimreI",
			resource: "album",
			id:       "0fLhefnjUhaL9FNpbimreI",
		},
		{
			name:     "playlist URL",
			link:     "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			resource: "playlist",
			id:       "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "artist URL",
			link:     "https://open.spotify.com/artist/0UF7XLthtbSF2Eur7559oV",
			resource: "artist",
			id:       "0UF7XLthtbSF2Eur7559oV",
		},
		{
			name:     "track URI",
			link:     "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
			resource: "track",
			id:       "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "album URI",
			link:     "spotify:album:0fLhefnjUhaL9FNpbimreI",
			resource: "album",
			id:       "0fLhefnjUhaL9FNpbimreI",
		},
		{
			name:    "URI missing ID",
			link:    "spotify:track:",
			wantErr: true,
		},
		{
			name:    "URI with unknown resource",
			link:    "spotify:episode:4uLU6hMCjMI75M1A2tKUQC",
			wantErr: true,
		},
		{
			name:    "URL missing ID",
			link:    "https://open.spotify.com/track/",
			wantErr: true,
		},
		{
			name:    "URL without resource segment",
			link:    "https://open.spotify.com/",
			wantErr: true,
		},
		{
			name:    "show URL",
			link:    "https://open.spotify.com/show/4rOoJ6Egrf8K2IrywzwOMk",
			wantErr: true,
		},
		{
			name:    "plain text",
			link:    "kavinsky nightcall",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resource, id, err := ParseLink(tt.link)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got resource=%s id=%s", tt.link, resource, id)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLink(%q) error = %v", tt.link, err)
			}
			if resource != tt.resource {
				t.Errorf("Expected resource %s, got %s", tt.resource, resource)
			}
			if id != tt.id {
				t.Errorf("Expected ID %s, got %s", tt.id, id)
			}
		})
	}
}
