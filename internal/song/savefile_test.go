package song

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mix"+Extension)

	songs := []Song{
		{
			URL:         "https://open.spotify.com/track/a",
			Name:        "First",
			Artist:      "Artist A",
			Artists:     []string{"Artist A"},
			AlbumName:   "Album",
			TrackNumber: 1,
			TracksCount: 2,
			Duration:    200,
			Year:        2019,
		},
		{
			URL:         "https://open.spotify.com/track/b",
			Name:        "Second",
			Artist:      "Artist B",
			Artists:     []string{"Artist B", "Artist C"},
			AlbumName:   "Album",
			TrackNumber: 2,
			TracksCount: 2,
			Duration:    180,
			Year:        2019,
			DownloadURL: "https://youtube.com/watch?v=xyz",
		},
	}

	if err := WriteSaveFile(path, songs); err != nil {
		t.Fatalf("Failed to write save file: %v", err)
	}

	loaded, err := LoadSaveFile(path)
	if err != nil {
		t.Fatalf("Failed to load save file: %v", err)
	}

	if len(loaded) != len(songs) {
		t.Fatalf("Expected %d songs, got %d", len(songs), len(loaded))
	}

	for i := range songs {
		if loaded[i].URL != songs[i].URL {
			t.Errorf("Song %d: expected URL %q, got %q", i, songs[i].URL, loaded[i].URL)
		}
		if loaded[i].Name != songs[i].Name {
			t.Errorf("Song %d: expected name %q, got %q", i, songs[i].Name, loaded[i].Name)
		}
		if loaded[i].HasCollection() {
			t.Errorf("Song %d: expected no collection back-reference after load", i)
		}
	}

	if loaded[1].DownloadURL != "https://youtube.com/watch?v=xyz" {
		t.Errorf("Expected download URL to round-trip, got %q", loaded[1].DownloadURL)
	}
}

func TestLoadSaveFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken"+Extension)

	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if _, err := LoadSaveFile(path); err == nil {
		t.Error("Expected error for malformed save file")
	}
}

func TestLoadSaveFileMissing(t *testing.T) {
	if _, err := LoadSaveFile(filepath.Join(t.TempDir(), "missing"+Extension)); err == nil {
		t.Error("Expected error for missing save file")
	}
}

func TestIsSaveFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"liked" + Extension, true},
		{"/music/sets/road-trip" + Extension, true},
		{"songs.json", false},
		{"https://open.spotify.com/track/abc", false},
	}

	for _, tt := range tests {
		if got := IsSaveFile(tt.path); got != tt.expected {
			t.Errorf("IsSaveFile(%q): expected %v, got %v", tt.path, tt.expected, got)
		}
	}
}
