package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/songfetch/songfetch-go/internal/errors"
	"github.com/songfetch/songfetch-go/internal/monitoring"
	"github.com/songfetch/songfetch-go/internal/network"
	"github.com/songfetch/songfetch-go/internal/song"
)

const (
	defaultAuthURL = "https://accounts.spotify.com/api/token"
	defaultAPIURL  = "https://api.spotify.com/v1"

	defaultCacheTTL = 10 * time.Minute
	pageLimit       = 50
)

// Config configures the catalog client
type Config struct {
	ClientID     string
	ClientSecret string
	// AuthToken is a user-authorized bearer token. When set it is used
	// for all requests instead of the client-credentials flow; saved
	// track lookups require it.
	AuthToken  string
	HTTPClient *http.Client
	CacheTTL   time.Duration
	// AuthURL and APIURL override the public endpoints in tests
	AuthURL string
	APIURL  string
}

// SpotifyClient handles all catalog API interactions
type SpotifyClient struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	userToken    string
	authURL      string
	apiURL       string
	accessToken  string
	tokenExpiry  time.Time
	rateLimiter  *rate.Limiter
	responses    *cache
	retry        apperrors.RetryConfig
	mu           sync.RWMutex
}

// NewSpotifyClient creates a new catalog API client
func NewSpotifyClient(cfg Config) (*SpotifyClient, error) {
	if cfg.AuthToken == "" && (cfg.ClientID == "" || cfg.ClientSecret == "") {
		return nil, apperrors.NewAuthError("client ID and secret are required", nil)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = network.NewClient(network.DefaultClientConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP client: %w", err)
		}
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &SpotifyClient{
		httpClient:   httpClient,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userToken:    cfg.AuthToken,
		authURL:      authURL,
		apiURL:       apiURL,
		rateLimiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 10), // 10 requests per second
		responses:    newCache(ttl),
		retry:        apperrors.DefaultRetryConfig(),
	}, nil
}

// Authenticate authenticates with the catalog using the client
// credentials flow. A no-op when a user token is configured.
func (c *SpotifyClient) Authenticate(ctx context.Context) error {
	if c.userToken != "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", c.authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		monitoring.RecordCatalogRequest("auth", "error", time.Since(start))
		return apperrors.NewNetworkError("authentication request failed", err)
	}
	defer resp.Body.Close()
	monitoring.RecordCatalogRequest("auth", strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.NewAuthError(fmt.Sprintf("authentication failed with status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)

	return nil
}

// ensureAuthenticated checks if the token is valid and refreshes it if needed
func (c *SpotifyClient) ensureAuthenticated(ctx context.Context) error {
	if c.userToken != "" {
		return nil
	}

	c.mu.RLock()
	needsRefresh := time.Now().After(c.tokenExpiry.Add(-5 * time.Minute))
	c.mu.RUnlock()

	if needsRefresh {
		return c.Authenticate(ctx)
	}

	return nil
}

// bearer returns the token to present on API requests
func (c *SpotifyClient) bearer() string {
	if c.userToken != "" {
		return c.userToken
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// Ping verifies the catalog is reachable with the configured credentials
func (c *SpotifyClient) Ping(ctx context.Context) error {
	if c.userToken != "" {
		var page SavedTrackPage
		params := url.Values{}
		params.Set("limit", "1")
		return c.getJSON(ctx, c.endpointURL("/me/tracks", params), &page)
	}
	return c.Authenticate(ctx)
}

// getJSON performs a GET against the catalog with rate limiting and
// retry, decoding the response into out.
func (c *SpotifyClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	return apperrors.RetryWithBackoff(ctx, c.retry, func() error {
		return c.fetchJSON(ctx, rawURL, out, false)
	})
}

// fetchJSON performs a single request attempt. On 401 the token is
// refreshed and the request repeated once.
func (c *SpotifyClient) fetchJSON(ctx context.Context, rawURL string, out interface{}, retried bool) error {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.bearer())
	req.Header.Set("Content-Type", "application/json")

	endpoint := endpointLabel(rawURL)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		monitoring.RecordCatalogRequest(endpoint, "error", time.Since(start))
		return apperrors.NewNetworkError("catalog request failed", err)
	}
	defer resp.Body.Close()
	monitoring.RecordCatalogRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode catalog response: %w", err)
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized:
		if retried || c.userToken != "" {
			return apperrors.NewAuthError("catalog rejected the access token", nil)
		}
		if err := c.Authenticate(ctx); err != nil {
			return fmt.Errorf("token refresh failed: %w", err)
		}
		return c.fetchJSON(ctx, rawURL, out, true)

	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NewNotFoundError(fmt.Sprintf("catalog resource not found: %s", endpoint))

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return apperrors.NewRateLimitError("catalog rate limit exceeded", retryAfter)

	default:
		body, _ := io.ReadAll(resp.Body)
		return apperrors.NewAPIError(fmt.Sprintf("catalog request failed: %s", strings.TrimSpace(string(body))), resp.StatusCode, nil)
	}
}

// endpointURL builds a full API URL from a path and query parameters
func (c *SpotifyClient) endpointURL(path string, params url.Values) string {
	full := c.apiURL + path
	if len(params) > 0 {
		full += "?" + params.Encode()
	}
	return full
}

// endpointLabel derives the metrics label from a request URL, e.g.
// "/v1/albums/xyz/tracks" -> "albums".
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	path := strings.TrimPrefix(u.Path, "/v1")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "unknown"
	}
	if segments[0] == "me" && len(segments) > 1 {
		return "me/" + segments[1]
	}
	return segments[0]
}

// GetTrack fetches a single track by its catalog link
func (c *SpotifyClient) GetTrack(ctx context.Context, link string) (song.Song, error) {
	resource, id, err := ParseLink(link)
	if err != nil {
		return song.Song{}, err
	}
	if resource != ResourceTrack {
		return song.Song{}, apperrors.NewQueryError(fmt.Sprintf("not a track link: %s", link))
	}

	cacheKey := "track_" + id
	if cached, ok := c.responses.get(cacheKey); ok {
		return cached.(song.Song), nil
	}

	var track Track
	if err := c.getJSON(ctx, c.endpointURL("/tracks/"+id, nil), &track); err != nil {
		return song.Song{}, err
	}

	s := SongFromTrack(&track)
	c.responses.set(cacheKey, s)

	return s, nil
}

// GetCollection fetches the membership of an album, playlist or artist link
func (c *SpotifyClient) GetCollection(ctx context.Context, link string, kind song.Kind) (*song.Collection, error) {
	resource, id, err := ParseLink(link)
	if err != nil {
		return nil, err
	}

	switch kind {
	case song.KindAlbum:
		if resource != ResourceAlbum {
			return nil, apperrors.NewQueryError(fmt.Sprintf("not an album link: %s", link))
		}
		album, err := c.getAlbum(ctx, id)
		if err != nil {
			return nil, err
		}
		return albumCollection(album), nil

	case song.KindPlaylist:
		if resource != ResourcePlaylist {
			return nil, apperrors.NewQueryError(fmt.Sprintf("not a playlist link: %s", link))
		}
		return c.getPlaylist(ctx, id)

	case song.KindArtist:
		if resource != ResourceArtist {
			return nil, apperrors.NewQueryError(fmt.Sprintf("not an artist link: %s", link))
		}
		return c.getArtist(ctx, id)

	default:
		return nil, apperrors.NewQueryError(fmt.Sprintf("unsupported collection kind: %s", kind))
	}
}

// getAlbum fetches a full album including all track pages
func (c *SpotifyClient) getAlbum(ctx context.Context, albumID string) (*Album, error) {
	cacheKey := "album_" + albumID
	if cached, ok := c.responses.get(cacheKey); ok {
		return cached.(*Album), nil
	}

	var album Album
	if err := c.getJSON(ctx, c.endpointURL("/albums/"+albumID, nil), &album); err != nil {
		return nil, err
	}

	for album.Tracks.Next != "" {
		var page TrackPage
		if err := c.getJSON(ctx, album.Tracks.Next, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch album tracks page: %w", err)
		}
		album.Tracks.Items = append(album.Tracks.Items, page.Items...)
		album.Tracks.Next = page.Next
	}

	c.responses.set(cacheKey, &album)

	return &album, nil
}

// albumCollection converts a full album into a collection
func albumCollection(album *Album) *song.Collection {
	collection := &song.Collection{
		Kind:       song.KindAlbum,
		Name:       album.Name,
		URL:        album.WebURL(),
		AuthorName: album.PrimaryArtist(),
		CoverURL:   album.CoverURL(),
	}

	for i := range album.Tracks.Items {
		track := &album.Tracks.Items[i]
		collection.URLs = append(collection.URLs, track.WebURL())
		collection.Songs = append(collection.Songs, SongFromAlbumTrack(track, album))
	}

	return collection
}

// getPlaylist fetches a playlist and all membership pages
func (c *SpotifyClient) getPlaylist(ctx context.Context, playlistID string) (*song.Collection, error) {
	cacheKey := "playlist_" + playlistID
	if cached, ok := c.responses.get(cacheKey); ok {
		return cached.(*song.Collection), nil
	}

	var playlist Playlist
	if err := c.getJSON(ctx, c.endpointURL("/playlists/"+playlistID, nil), &playlist); err != nil {
		return nil, err
	}

	for playlist.Tracks.Next != "" {
		var page PlaylistTrackPage
		if err := c.getJSON(ctx, playlist.Tracks.Next, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch playlist tracks page: %w", err)
		}
		playlist.Tracks.Items = append(playlist.Tracks.Items, page.Items...)
		playlist.Tracks.Next = page.Next
	}

	collection := &song.Collection{
		Kind:       song.KindPlaylist,
		Name:       playlist.Name,
		URL:        playlist.WebURL(),
		AuthorName: playlist.Owner.DisplayName,
		CoverURL:   playlist.CoverURL(),
	}

	for _, item := range playlist.Tracks.Items {
		// Local files and withdrawn tracks have no catalog identity
		if item.Track == nil || item.IsLocal || item.Track.ID == "" {
			continue
		}
		collection.URLs = append(collection.URLs, item.Track.WebURL())
		collection.Songs = append(collection.Songs, SongFromTrack(item.Track))
	}

	c.responses.set(cacheKey, collection)

	return collection, nil
}

// getArtist fetches an artist and flattens all albums and singles into
// one collection in release order.
func (c *SpotifyClient) getArtist(ctx context.Context, artistID string) (*song.Collection, error) {
	cacheKey := "artist_" + artistID
	if cached, ok := c.responses.get(cacheKey); ok {
		return cached.(*song.Collection), nil
	}

	var artist Artist
	if err := c.getJSON(ctx, c.endpointURL("/artists/"+artistID, nil), &artist); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("include_groups", "album,single")
	params.Set("limit", strconv.Itoa(pageLimit))

	var albums []Album
	next := c.endpointURL("/artists/"+artistID+"/albums", params)
	for next != "" {
		var page AlbumPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch artist albums page: %w", err)
		}
		albums = append(albums, page.Items...)
		next = page.Next
	}

	webURL := artist.ExternalURLs.Spotify
	if webURL == "" {
		webURL = "https://open.spotify.com/artist/" + artistID
	}

	collection := &song.Collection{
		Kind:       song.KindArtist,
		Name:       artist.Name,
		URL:        webURL,
		AuthorName: artist.Name,
		CoverURL:   largestImage(artist.Images),
	}

	seen := make(map[string]bool)
	for i := range albums {
		album, err := c.getAlbum(ctx, albums[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch artist album %s: %w", albums[i].ID, err)
		}
		for j := range album.Tracks.Items {
			track := &album.Tracks.Items[j]
			trackURL := track.WebURL()
			// The same recording often appears on both a single and
			// its album; keep the first occurrence only.
			if seen[trackURL] {
				continue
			}
			seen[trackURL] = true
			collection.URLs = append(collection.URLs, trackURL)
			collection.Songs = append(collection.Songs, SongFromAlbumTrack(track, album))
		}
	}

	c.responses.set(cacheKey, collection)

	return collection, nil
}

// GetSavedTracks fetches the user's saved track library. Requires a
// user-authorized token.
func (c *SpotifyClient) GetSavedTracks(ctx context.Context) (*song.Collection, error) {
	if c.userToken == "" {
		return nil, apperrors.NewAuthError("saved tracks require a user-authorized token", nil)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageLimit))

	var items []SavedTrackItem
	next := c.endpointURL("/me/tracks", params)
	for next != "" {
		var page SavedTrackPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch saved tracks page: %w", err)
		}
		items = append(items, page.Items...)
		next = page.Next
	}

	collection := &song.Collection{
		Kind: song.KindSaved,
		Name: "Saved tracks",
		URL:  "saved",
	}

	for i := range items {
		track := &items[i].Track
		if track.ID == "" {
			continue
		}
		collection.URLs = append(collection.URLs, track.WebURL())
		collection.Songs = append(collection.Songs, SongFromTrack(track))
	}

	return collection, nil
}

// SearchTracks searches the catalog for tracks
func (c *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) ([]song.Song, error) {
	if query == "" {
		return nil, apperrors.NewQueryError("search query cannot be empty")
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > pageLimit {
		limit = pageLimit
	}

	cacheKey := fmt.Sprintf("search_tracks_%s_%d", query, limit)
	if cached, ok := c.responses.get(cacheKey); ok {
		return cached.([]song.Song), nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	var result struct {
		Tracks TrackPage `json:"tracks"`
	}

	if err := c.getJSON(ctx, c.endpointURL("/search", params), &result); err != nil {
		return nil, err
	}

	songs := make([]song.Song, 0, len(result.Tracks.Items))
	for i := range result.Tracks.Items {
		songs = append(songs, SongFromTrack(&result.Tracks.Items[i]))
	}

	c.responses.set(cacheKey, songs)

	return songs, nil
}

// SearchTrack returns the best track match for a free-text query
func (c *SpotifyClient) SearchTrack(ctx context.Context, query string) (song.Song, error) {
	songs, err := c.SearchTracks(ctx, query, 1)
	if err != nil {
		return song.Song{}, err
	}
	if len(songs) == 0 {
		return song.Song{}, apperrors.NewNotFoundError(fmt.Sprintf("no results found for: %s", query))
	}
	return songs[0], nil
}

// SearchAlbum returns the collection for the best album match of a
// free-text query.
func (c *SpotifyClient) SearchAlbum(ctx context.Context, query string) (*song.Collection, error) {
	if query == "" {
		return nil, apperrors.NewQueryError("search query cannot be empty")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "album")
	params.Set("limit", "1")

	var result struct {
		Albums AlbumPage `json:"albums"`
	}

	if err := c.getJSON(ctx, c.endpointURL("/search", params), &result); err != nil {
		return nil, err
	}

	if len(result.Albums.Items) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no album found for: %s", query))
	}

	album, err := c.getAlbum(ctx, result.Albums.Items[0].ID)
	if err != nil {
		return nil, err
	}

	return albumCollection(album), nil
}
