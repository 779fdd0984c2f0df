package api

import (
	"strconv"

	"github.com/songfetch/songfetch-go/internal/song"
)

// Track represents a catalog track object. Search results and direct
// track lookups return the full object; album track listings return a
// simplified one without Album and ExternalIDs.
type Track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Artists      []Artist     `json:"artists"`
	Album        Album        `json:"album"`
	DiscNumber   int          `json:"disc_number"`
	TrackNumber  int          `json:"track_number"`
	DurationMS   int          `json:"duration_ms"`
	Explicit     bool         `json:"explicit"`
	Popularity   int          `json:"popularity"`
	ExternalIDs  ExternalIDs  `json:"external_ids"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// Artist represents a catalog artist
type Artist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres"`
	Images       []Image      `json:"images"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// Album represents a catalog album
type Album struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	AlbumType            string       `json:"album_type"`
	Artists              []Artist     `json:"artists"`
	Images               []Image      `json:"images"`
	ReleaseDate          string       `json:"release_date"`
	ReleaseDatePrecision string       `json:"release_date_precision"`
	TotalTracks          int          `json:"total_tracks"`
	Label                string       `json:"label"`
	Genres               []string     `json:"genres"`
	Copyrights           []Copyright  `json:"copyrights"`
	Tracks               TrackPage    `json:"tracks"`
	ExternalURLs         ExternalURLs `json:"external_urls"`
	URI                  string       `json:"uri"`
}

// Playlist represents a catalog playlist
type Playlist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Owner        User              `json:"owner"`
	Images       []Image           `json:"images"`
	Tracks       PlaylistTrackPage `json:"tracks"`
	ExternalURLs ExternalURLs      `json:"external_urls"`
	URI          string            `json:"uri"`
}

// User represents a catalog user (playlist owner)
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Image represents album/playlist/artist artwork
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Copyright represents an album copyright statement
type Copyright struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// ExternalIDs holds external identifiers attached to a track
type ExternalIDs struct {
	ISRC string `json:"isrc"`
}

// ExternalURLs holds the public web links of an object
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// TrackPage is one page of track results
type TrackPage struct {
	Items []Track `json:"items"`
	Next  string  `json:"next"`
	Total int     `json:"total"`
}

// AlbumPage is one page of album results
type AlbumPage struct {
	Items []Album `json:"items"`
	Next  string  `json:"next"`
	Total int     `json:"total"`
}

// PlaylistTrackPage is one page of playlist membership
type PlaylistTrackPage struct {
	Items []PlaylistItem `json:"items"`
	Next  string         `json:"next"`
	Total int            `json:"total"`
}

// PlaylistItem wraps a track inside a playlist. Track is nil for
// entries the catalog no longer serves.
type PlaylistItem struct {
	IsLocal bool   `json:"is_local"`
	Track   *Track `json:"track"`
}

// SavedTrackPage is one page of the user's saved tracks
type SavedTrackPage struct {
	Items []SavedTrackItem `json:"items"`
	Next  string           `json:"next"`
	Total int              `json:"total"`
}

// SavedTrackItem wraps a saved track with its save timestamp
type SavedTrackItem struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// WebURL returns the public link for a track, building it from the ID
// when the external URL field is absent (simplified objects).
func (t *Track) WebURL() string {
	if t.ExternalURLs.Spotify != "" {
		return t.ExternalURLs.Spotify
	}
	return "https://open.spotify.com/track/" + t.ID
}

// PrimaryArtist returns the first listed artist name
func (a *Album) PrimaryArtist() string {
	if len(a.Artists) == 0 {
		return ""
	}
	return a.Artists[0].Name
}

// CoverURL returns the largest available cover image URL
func (a *Album) CoverURL() string {
	return largestImage(a.Images)
}

// WebURL returns the public link for an album
func (a *Album) WebURL() string {
	if a.ExternalURLs.Spotify != "" {
		return a.ExternalURLs.Spotify
	}
	return "https://open.spotify.com/album/" + a.ID
}

// ReleaseYear parses the year out of the release date, which may be
// "2006", "2006-10" or "2006-10-17" depending on precision.
func (a *Album) ReleaseYear() int {
	if len(a.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(a.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// CoverURL returns the largest available playlist image URL
func (p *Playlist) CoverURL() string {
	return largestImage(p.Images)
}

// WebURL returns the public link for a playlist
func (p *Playlist) WebURL() string {
	if p.ExternalURLs.Spotify != "" {
		return p.ExternalURLs.Spotify
	}
	return "https://open.spotify.com/playlist/" + p.ID
}

func largestImage(images []Image) string {
	best := ""
	bestArea := -1
	for _, img := range images {
		area := img.Height * img.Width
		if area > bestArea {
			bestArea = area
			best = img.URL
		}
	}
	return best
}

// SongFromTrack converts a full track object into a song record
func SongFromTrack(t *Track) song.Song {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	s := song.Song{
		Name:        t.Name,
		Artists:     artists,
		AlbumID:     t.Album.ID,
		AlbumName:   t.Album.Name,
		AlbumArtist: t.Album.PrimaryArtist(),
		Genres:      t.Album.Genres,
		DiscNumber:  t.DiscNumber,
		DiscCount:   t.DiscNumber,
		Duration:    t.DurationMS / 1000,
		Year:        t.Album.ReleaseYear(),
		Date:        t.Album.ReleaseDate,
		TrackNumber: t.TrackNumber,
		TracksCount: t.Album.TotalTracks,
		SongID:      t.ID,
		Explicit:    t.Explicit,
		Publisher:   t.Album.Label,
		URL:         t.WebURL(),
		ISRC:        t.ExternalIDs.ISRC,
		CoverURL:    t.Album.CoverURL(),
		Popularity:  t.Popularity,
	}

	if len(t.Artists) > 0 {
		s.Artist = t.Artists[0].Name
		s.ArtistID = t.Artists[0].ID
	}

	if len(t.Album.Copyrights) > 0 {
		s.CopyrightText = t.Album.Copyrights[0].Text
	}

	return s
}

// SongFromAlbumTrack converts a simplified album track, borrowing the
// album context the simplified object lacks.
func SongFromAlbumTrack(t *Track, album *Album) song.Song {
	full := *t
	full.Album = *album
	return SongFromTrack(&full)
}
