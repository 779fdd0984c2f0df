package resolver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/songfetch/songfetch-go/internal/errors"
	"github.com/songfetch/songfetch-go/internal/monitoring"
	"github.com/songfetch/songfetch-go/internal/song"
	"github.com/songfetch/songfetch-go/internal/store"
)

// ScanLibrary walks the library below the output template's root and
// maps catalog URLs to the file paths holding them. Identity comes from
// embedded tags first, then from a catalog search on the filename stem;
// files yielding neither are skipped. Results are persisted through the
// scan recorder when one is configured.
func (r *Resolver) ScanLibrary(ctx context.Context, outputTemplate, extension string) (map[string][]string, error) {
	if r.tags == nil {
		return nil, apperrors.NewValidationError("library scanning requires a tag reader")
	}
	if extension == "" {
		return nil, apperrors.NewValidationError("file extension is required")
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	root := scanRoot(outputTemplate)
	start := time.Now()

	files, err := listFiles(ctx, root, extension)
	if err != nil {
		return nil, err
	}

	index := make(map[string][]string)
	var known []store.KnownSong
	skipped := 0

	for _, path := range files {
		s, source, err := r.identify(ctx, path)
		if err != nil {
			return nil, err
		}
		if s == nil {
			skipped++
			monitoring.RecordScannedFile(monitoring.ScanSourceSkipped)
			r.logger.Debug("no identity for file", zap.String("path", path))
			continue
		}

		index[s.URL] = append(index[s.URL], path)
		known = append(known, store.KnownSong{
			URL:    s.URL,
			Path:   path,
			Title:  s.Name,
			Artist: s.PrimaryArtist(),
			Source: source,
		})
		monitoring.RecordScannedFile(source)
	}

	if r.scans != nil {
		if err := r.scans.RecordScan(root, known); err != nil {
			return nil, fmt.Errorf("failed to persist scan results: %w", err)
		}
		run := &store.ScanRun{
			Root:       root,
			Extension:  extension,
			FilesSeen:  len(files),
			Identified: len(known),
			Skipped:    skipped,
			DurationMS: time.Since(start).Milliseconds(),
			StartedAt:  start,
		}
		if err := r.scans.RecordScanRun(run); err != nil {
			return nil, fmt.Errorf("failed to persist scan run: %w", err)
		}
	}

	monitoring.RecordScanComplete(time.Since(start))
	r.logger.Info(fmt.Sprintf("scanned %d files under %s: %d identified, %d skipped",
		len(files), root, len(known), skipped))

	return index, nil
}

// scanRoot derives the directory to scan: everything before the first
// placeholder marker in the output template.
func scanRoot(outputTemplate string) string {
	root := outputTemplate
	if i := strings.Index(root, "{"); i >= 0 {
		root = root[:i]
	}
	if root == "" {
		return "."
	}
	return filepath.Clean(root)
}

func listFiles(ctx context.Context, root, extension string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, apperrors.NewFileSystemError(fmt.Sprintf("failed to scan %s", root), err)
	}
	return files, nil
}

// identify resolves one library file to a song: embedded tags first,
// filename-stem search second. (nil, "", nil) means the file yields no
// identity and the scan should skip it.
func (r *Resolver) identify(ctx context.Context, path string) (*song.Song, string, error) {
	tagged, err := r.tags.ReadSong(path)
	if err != nil {
		// The file vanished mid-scan
		r.logger.Debug("failed to read tags", zap.String("path", path), zap.Error(err))
		return nil, "", nil
	}
	if tagged != nil && tagged.URL != "" {
		return tagged, store.SourceTags, nil
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	found, err := r.catalog.SearchTrack(ctx, stem)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, "", nil
		}
		return nil, "", err
	}

	return &found, store.SourceSearch, nil
}
