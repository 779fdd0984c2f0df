package song

// Song is a normalized track record. The JSON field set is the save-file
// contract: flat snake_case keys, one object per track, stable across
// versions. Records start as placeholders (URL only, or URL plus a
// collection snapshot) and are completed by a catalog refresh.
type Song struct {
	Name          string   `json:"name"`
	Artists       []string `json:"artists"`
	Artist        string   `json:"artist"`
	Genres        []string `json:"genres"`
	DiscNumber    int      `json:"disc_number"`
	DiscCount     int      `json:"disc_count"`
	AlbumName     string   `json:"album_name"`
	AlbumArtist   string   `json:"album_artist"`
	AlbumID       string   `json:"album_id,omitempty"`
	Duration      int      `json:"duration"`
	Year          int      `json:"year"`
	Date          string   `json:"date"`
	TrackNumber   int      `json:"track_number"`
	TracksCount   int      `json:"tracks_count"`
	SongID        string   `json:"song_id"`
	Explicit      bool     `json:"explicit"`
	Publisher     string   `json:"publisher"`
	URL           string   `json:"url"`
	ISRC          string   `json:"isrc,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	CopyrightText string   `json:"copyright_text,omitempty"`
	DownloadURL   string   `json:"download_url,omitempty"`
	Lyrics        string   `json:"lyrics,omitempty"`
	Popularity    int      `json:"popularity,omitempty"`
	ArtistID      string   `json:"artist_id,omitempty"`
	ListName      string   `json:"list_name,omitempty"`
	ListURL       string   `json:"list_url,omitempty"`
	ListPosition  int      `json:"list_position,omitempty"`
	ListLength    int      `json:"list_length,omitempty"`

	// Internal fields (not serialized)
	List *Collection `json:"-"` // Collection this song was discovered in
}

// FromURL returns a placeholder song carrying only its catalog identifier,
// pending refresh.
func FromURL(url string) Song {
	return Song{URL: url}
}

// DisplayName returns "artist - name", falling back to the URL for
// placeholders that have not been refreshed yet.
func (s *Song) DisplayName() string {
	if s.Name == "" {
		return s.URL
	}
	if s.Artist == "" {
		return s.Name
	}
	return s.Artist + " - " + s.Name
}

// PrimaryArtist returns the first credited artist.
func (s *Song) PrimaryArtist() string {
	if s.Artist != "" {
		return s.Artist
	}
	if len(s.Artists) > 0 {
		return s.Artists[0]
	}
	return ""
}

// HasCollection reports whether the song carries a collection back-reference.
func (s *Song) HasCollection() bool {
	return s.List != nil
}

// AttachCollection sets the collection back-reference and the serialized
// list snapshot fields. It never chains context: a song that already
// belongs to a collection keeps it.
func (s *Song) AttachCollection(c *Collection) {
	if s.List != nil || c == nil {
		return
	}
	s.List = c
	s.ListName = c.Name
	s.ListURL = c.URL
	s.ListLength = c.Length()
}

// Merge returns a copy of s with every populated field of fresh applied.
// Fresh data wins on conflict; zero-valued fields in fresh never overwrite
// existing data, so a refresh cannot erase a download URL or collection
// context the catalog does not know about.
func (s Song) Merge(fresh Song) Song {
	out := s
	if fresh.Name != "" {
		out.Name = fresh.Name
	}
	if len(fresh.Artists) > 0 {
		out.Artists = fresh.Artists
	}
	if fresh.Artist != "" {
		out.Artist = fresh.Artist
	}
	if len(fresh.Genres) > 0 {
		out.Genres = fresh.Genres
	}
	if fresh.DiscNumber > 0 {
		out.DiscNumber = fresh.DiscNumber
	}
	if fresh.DiscCount > 0 {
		out.DiscCount = fresh.DiscCount
	}
	if fresh.AlbumName != "" {
		out.AlbumName = fresh.AlbumName
	}
	if fresh.AlbumArtist != "" {
		out.AlbumArtist = fresh.AlbumArtist
	}
	if fresh.AlbumID != "" {
		out.AlbumID = fresh.AlbumID
	}
	if fresh.Duration > 0 {
		out.Duration = fresh.Duration
	}
	if fresh.Year > 0 {
		out.Year = fresh.Year
	}
	if fresh.Date != "" {
		out.Date = fresh.Date
	}
	if fresh.TrackNumber > 0 {
		out.TrackNumber = fresh.TrackNumber
	}
	if fresh.TracksCount > 0 {
		out.TracksCount = fresh.TracksCount
	}
	if fresh.SongID != "" {
		out.SongID = fresh.SongID
	}
	// A fresh catalog record always knows explicitness.
	out.Explicit = fresh.Explicit
	if fresh.Publisher != "" {
		out.Publisher = fresh.Publisher
	}
	if fresh.URL != "" {
		out.URL = fresh.URL
	}
	if fresh.ISRC != "" {
		out.ISRC = fresh.ISRC
	}
	if fresh.CoverURL != "" {
		out.CoverURL = fresh.CoverURL
	}
	if fresh.CopyrightText != "" {
		out.CopyrightText = fresh.CopyrightText
	}
	if fresh.DownloadURL != "" {
		out.DownloadURL = fresh.DownloadURL
	}
	if fresh.Lyrics != "" {
		out.Lyrics = fresh.Lyrics
	}
	if fresh.Popularity > 0 {
		out.Popularity = fresh.Popularity
	}
	if fresh.ArtistID != "" {
		out.ArtistID = fresh.ArtistID
	}
	if fresh.ListName != "" {
		out.ListName = fresh.ListName
	}
	if fresh.ListURL != "" {
		out.ListURL = fresh.ListURL
	}
	if fresh.ListPosition > 0 {
		out.ListPosition = fresh.ListPosition
	}
	if fresh.ListLength > 0 {
		out.ListLength = fresh.ListLength
	}
	if fresh.List != nil {
		out.List = fresh.List
	}
	return out
}
