package resolver

import (
	"context"
	"fmt"

	"github.com/songfetch/songfetch-go/internal/monitoring"
	"github.com/songfetch/songfetch-go/internal/song"
)

// expand flattens a collection into placeholder songs, fetching its
// membership first when the classifier deferred it. Each flattened song
// ends up with exactly one collection back-reference: members that
// already carry their own context keep it, everything else gets the
// current collection attached.
func (r *Resolver) expand(ctx context.Context, list *song.Collection) ([]song.Song, error) {
	if !list.Fetched() {
		fetched, err := r.fetchCollection(ctx, list)
		if err != nil {
			return nil, err
		}
		list = fetched
	}

	songs := make([]song.Song, 0, list.Length())
	if len(list.Songs) > 0 {
		for i := range list.Songs {
			s := list.Songs[i]
			s.AttachCollection(list)
			songs = append(songs, s)
		}
	} else {
		// Membership known only by URL, no member snapshots
		for _, u := range list.URLs {
			s := song.FromURL(u)
			s.AttachCollection(list)
			songs = append(songs, s)
		}
	}

	r.logger.Info(fmt.Sprintf("found %d songs in %s (%s)", len(songs), list.Name, list.Kind))
	monitoring.RecordCollectionExpanded(string(list.Kind), len(songs))

	return songs, nil
}

func (r *Resolver) fetchCollection(ctx context.Context, list *song.Collection) (*song.Collection, error) {
	if list.Kind == song.KindSaved {
		return r.catalog.GetSavedTracks(ctx)
	}
	return r.catalog.GetCollection(ctx, list.URL, list.Kind)
}
