package api

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/songfetch/songfetch-go/internal/errors"
)

// Resource types appearing in catalog links
const (
	ResourceTrack    = "track"
	ResourceAlbum    = "album"
	ResourcePlaylist = "playlist"
	ResourceArtist   = "artist"
)

// ParseLink extracts the resource type and ID from a catalog link.
// Supported forms:
//
//	https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC
//	https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC?si=abc
//	spotify:track:4uLU6hMCjMI75M1A2tKUQC
func ParseLink(link string) (resource, id string, err error) {
	if strings.HasPrefix(link, "spotify:") {
		parts := strings.Split(link, ":")
		if len(parts) != 3 || !isResource(parts[1]) || parts[2] == "" {
			return "", "", apperrors.NewQueryError(fmt.Sprintf("unsupported catalog URI: %s", link))
		}
		return parts[1], parts[2], nil
	}

	u, parseErr := url.Parse(link)
	if parseErr != nil {
		return "", "", apperrors.NewQueryError(fmt.Sprintf("malformed catalog link: %s", link))
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, segment := range segments {
		if isResource(segment) && i+1 < len(segments) && segments[i+1] != "" {
			return segment, segments[i+1], nil
		}
	}

	return "", "", apperrors.NewQueryError(fmt.Sprintf("unsupported catalog link: %s", link))
}

func isResource(s string) bool {
	switch s {
	case ResourceTrack, ResourceAlbum, ResourcePlaylist, ResourceArtist:
		return true
	}
	return false
}
