package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/songfetch/songfetch-go/internal/errors"
	"github.com/songfetch/songfetch-go/internal/monitoring"
	"github.com/songfetch/songfetch-go/internal/song"
)

// Refresh re-fetches canonical catalog data for every record on a fixed
// pool of workers and merges it field by field: fresh data wins, zero
// values never overwrite. Records carrying a collection back-reference
// get their position re-derived from the collection's membership; with
// numbering enabled the collection also dictates the track/disc fields.
//
// All workers are joined before returning. A single record's failure
// does not abort the batch: failures are collected per record and
// reported together, alongside the records that did refresh.
func (r *Resolver) Refresh(ctx context.Context, records []song.Song, workers int, numbering bool) ([]song.Song, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}

	pool := &refreshPool{
		catalog:   r.catalog,
		numbering: numbering,
		logger:    r.logger,
		jobs:      make(chan refreshJob, len(records)),
		results:   make([]refreshResult, len(records)),
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(ctx)
	}

	// The jobs channel is buffered to the batch size, so queueing and
	// closing complete before the first join.
	for i := range records {
		pool.jobs <- refreshJob{index: i, record: records[i]}
	}
	close(pool.jobs)

	pool.wg.Wait()

	songs := make([]song.Song, 0, len(records))
	var failures []error
	for _, res := range pool.results {
		if res.err != nil {
			failures = append(failures, res.err)
			continue
		}
		songs = append(songs, res.song)
	}

	r.logger.Info("refresh finished",
		zap.Int("requested", len(records)),
		zap.Int("refreshed", len(songs)),
		zap.Int("failed", len(failures)),
		zap.Int("workers", workers))

	if len(failures) > 0 {
		return songs, fmt.Errorf("refresh failed for %d of %d songs: %w",
			len(failures), len(records), errors.Join(failures...))
	}

	return songs, nil
}

type refreshJob struct {
	index  int
	record song.Song
}

type refreshResult struct {
	song song.Song
	err  error
}

// refreshPool is a one-shot bounded task pool: a fixed set of workers
// drains the job queue and each writes results only into its job's own
// slot, so no state is shared across tasks beyond the catalog client.
type refreshPool struct {
	catalog   Catalog
	numbering bool
	logger    *zap.Logger

	jobs    chan refreshJob
	results []refreshResult
	wg      sync.WaitGroup
}

func (p *refreshPool) worker(ctx context.Context) {
	defer p.wg.Done()

	for job := range p.jobs {
		select {
		case <-ctx.Done():
			// Keep draining so every queued record reports its fate
			p.results[job.index] = refreshResult{
				err: fmt.Errorf("refresh of %s cancelled: %w", job.record.DisplayName(), ctx.Err()),
			}
			continue
		default:
		}

		p.results[job.index] = p.process(ctx, job.record)
	}
}

func (p *refreshPool) process(ctx context.Context, record song.Song) refreshResult {
	start := time.Now()
	monitoring.RecordRefreshStart()

	fresh, err := p.catalog.GetTrack(ctx, record.URL)
	if err != nil {
		monitoring.RecordRefreshFailed(failureLabel(err))
		return refreshResult{err: fmt.Errorf("failed to refresh %s: %w", record.DisplayName(), err)}
	}

	merged := record.Merge(fresh)

	if merged.List != nil {
		if err := applyListContext(&merged, p.numbering); err != nil {
			monitoring.RecordRefreshFailed(failureLabel(err))
			return refreshResult{err: err}
		}
	}

	monitoring.RecordRefreshComplete(time.Since(start))
	p.logger.Debug("refreshed song",
		zap.String("song", merged.DisplayName()),
		zap.String("url", merged.URL))

	return refreshResult{song: merged}
}

// applyListContext re-derives the record's position within its collection
// and, when requested, the collection-based numbering fields. A record
// whose URL is missing from its claimed collection carries stale context
// and is surfaced as a collection error, never silently ignored.
func applyListContext(s *song.Song, numbering bool) error {
	list := s.List

	pos, ok := list.Position(s.URL)
	if !ok {
		return apperrors.NewCollectionError(fmt.Sprintf("%s not found in %s", s.URL, list.Name))
	}
	s.ListPosition = pos

	if !numbering {
		return nil
	}

	s.TrackNumber = pos + 1
	s.TracksCount = list.Length()
	s.AlbumName = list.Name
	s.DiscNumber = 1
	s.DiscCount = 1
	if list.Kind == song.KindPlaylist {
		s.AlbumArtist = list.AuthorName
		s.CoverURL = list.CoverURL
	}

	return nil
}

func failureLabel(err error) string {
	switch {
	case apperrors.IsNotFound(err):
		return "not_found"
	case apperrors.IsCollectionError(err):
		return "collection"
	case apperrors.IsRateLimitError(err):
		return "rate_limit"
	case apperrors.IsAuthError(err):
		return "auth"
	case apperrors.IsNetworkError(err):
		return "network"
	default:
		return "api"
	}
}
