package song

// Kind identifies the collection variant a song list came from.
type Kind string

// Collection kinds
const (
	KindAlbum    Kind = "album"
	KindPlaylist Kind = "playlist"
	KindArtist   Kind = "artist"
	KindSaved    Kind = "saved"
)

// Collection is an ordered grouping of songs: an album, a playlist, an
// artist discography, or the user's saved library. Membership may be
// deferred (URLs empty) until an expander fetches it.
type Collection struct {
	Kind       Kind     `json:"kind"`
	Name       string   `json:"name"`
	URL        string   `json:"url"`
	URLs       []string `json:"urls"`
	AuthorName string   `json:"author_name,omitempty"` // playlists only
	CoverURL   string   `json:"cover_url,omitempty"`   // playlists only

	// Songs holds member snapshots in list order. Snapshots may be
	// partial records pending refresh.
	Songs []Song `json:"-"`
}

// Length returns the reported membership size.
func (c *Collection) Length() int {
	return len(c.URLs)
}

// Fetched reports whether membership has been populated.
func (c *Collection) Fetched() bool {
	return len(c.URLs) > 0
}

// Position returns the zero-based index of url within the ordered
// membership, and whether it was found.
func (c *Collection) Position(url string) (int, bool) {
	for i, u := range c.URLs {
		if u == url {
			return i, true
		}
	}
	return 0, false
}
