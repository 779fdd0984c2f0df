package resolver

import (
	"context"

	"github.com/songfetch/songfetch-go/internal/song"
	"github.com/songfetch/songfetch-go/internal/store"
)

// Catalog is the remote metadata source the resolver classifies and
// refreshes against. The shipped implementation is api.SpotifyClient.
// All methods must be safe for concurrent use.
type Catalog interface {
	GetTrack(ctx context.Context, link string) (song.Song, error)
	SearchTrack(ctx context.Context, query string) (song.Song, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]song.Song, error)
	SearchAlbum(ctx context.Context, query string) (*song.Collection, error)
	GetCollection(ctx context.Context, link string, kind song.Kind) (*song.Collection, error)
	GetSavedTracks(ctx context.Context) (*song.Collection, error)
}

// TagReader reads embedded metadata from a media file. Absence of usable
// tags is reported as (nil, nil), not an error.
type TagReader interface {
	ReadSong(path string) (*song.Song, error)
}

// ScanRecorder persists library scan results. A nil recorder disables
// persistence.
type ScanRecorder interface {
	RecordScan(root string, songs []store.KnownSong) error
	RecordScanRun(run *store.ScanRun) error
}
