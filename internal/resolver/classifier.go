package resolver

import (
	"context"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/songfetch/songfetch-go/internal/errors"
	"github.com/songfetch/songfetch-go/internal/monitoring"
	"github.com/songfetch/songfetch-go/internal/song"
)

const pairedFormatError = `incorrect format used, please use "YouTubeURL|SpotifyURL"`

// ClassifyAndExpand turns raw query strings into a flat list of song
// records. Collection queries (playlist, album, artist, saved) are
// expanded into one placeholder per member; a classification failure
// aborts the whole batch.
func (r *Resolver) ClassifyAndExpand(ctx context.Context, queries []string) ([]song.Song, error) {
	var songs []song.Song
	for _, query := range queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}

		direct, list, err := r.classify(ctx, query)
		if err != nil {
			return nil, err
		}

		if list != nil {
			expanded, err := r.expand(ctx, list)
			if err != nil {
				return nil, err
			}
			songs = append(songs, expanded...)
			continue
		}
		songs = append(songs, direct...)
	}

	return songs, nil
}

// classify matches one query against the known shapes, first match wins.
// It returns either songs or a collection pending expansion.
func (r *Resolver) classify(ctx context.Context, query string) ([]song.Song, *song.Collection, error) {
	switch {
	case hasVideoLink(query) && isCatalogLink(query, "track") && strings.Contains(query, "|"):
		s, err := classifyPaired(query)
		if err != nil {
			return nil, nil, err
		}
		monitoring.RecordQueryClassified("paired")
		return []song.Song{s}, nil, nil

	case isCatalogLink(query, "track"):
		s, err := r.catalog.GetTrack(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		monitoring.RecordQueryClassified("track")
		return []song.Song{s}, nil, nil

	case isCatalogLink(query, "playlist"):
		monitoring.RecordQueryClassified("playlist")
		return nil, &song.Collection{Kind: song.KindPlaylist, URL: query}, nil

	case isCatalogLink(query, "album"):
		monitoring.RecordQueryClassified("album")
		return nil, &song.Collection{Kind: song.KindAlbum, URL: query}, nil

	case isCatalogLink(query, "artist"):
		monitoring.RecordQueryClassified("artist")
		return nil, &song.Collection{Kind: song.KindArtist, URL: query}, nil

	case strings.HasPrefix(query, "album:"):
		// The prefix stays in the search term: the catalog understands
		// its own field-filter syntax.
		list, err := r.catalog.SearchAlbum(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		monitoring.RecordQueryClassified("album_search")
		return nil, list, nil

	case query == "saved":
		monitoring.RecordQueryClassified("saved")
		return nil, &song.Collection{Kind: song.KindSaved, URL: "saved"}, nil

	case strings.HasSuffix(query, r.saveExt):
		songs, err := loadSaveFile(query)
		if err != nil {
			return nil, nil, err
		}
		monitoring.RecordQueryClassified("save_file")
		return songs, nil, nil

	default:
		s, err := r.catalog.SearchTrack(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		monitoring.RecordQueryClassified("search")
		return []song.Song{s}, nil, nil
	}
}

// classifyPaired splits a "VideoURL|CatalogURL" directive into a
// placeholder song whose download source is pinned to the video half.
func classifyPaired(query string) (song.Song, error) {
	parts := strings.Split(query, "|")
	if len(parts) != 2 {
		return song.Song{}, apperrors.NewQueryError(pairedFormatError)
	}
	if !strings.Contains(parts[0], "youtube") && !strings.Contains(parts[0], "youtu.be") {
		return song.Song{}, apperrors.NewQueryError(pairedFormatError)
	}
	if !strings.Contains(parts[1], "spotify") {
		return song.Song{}, apperrors.NewQueryError(pairedFormatError)
	}

	s := song.FromURL(parts[1])
	s.DownloadURL = parts[0]
	return s, nil
}

func loadSaveFile(path string) ([]song.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewFileSystemError(fmt.Sprintf("failed to read save file %s", path), err)
	}

	songs, err := song.ParseSaveFile(data)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("malformed save file %s: %v", path, err))
	}

	return songs, nil
}

func hasVideoLink(query string) bool {
	return strings.Contains(query, "youtube.com/watch?v=") || strings.Contains(query, "youtu.be/")
}

func isCatalogLink(query, resource string) bool {
	return strings.Contains(query, "open.spotify.com") && strings.Contains(query, resource)
}
