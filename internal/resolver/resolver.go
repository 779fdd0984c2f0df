package resolver

import (
	"go.uber.org/zap"

	apperrors "github.com/songfetch/songfetch-go/internal/errors"
	"github.com/songfetch/songfetch-go/internal/song"
)

// Config carries the resolver's collaborators. Catalog is required; the
// rest have working defaults. Lifecycle of the collaborators is owned by
// the caller.
type Config struct {
	Catalog Catalog
	Tags    TagReader
	Scans   ScanRecorder
	Logger  *zap.Logger

	// SaveExtension is the suffix that marks a query as a save file.
	// Defaults to song.Extension.
	SaveExtension string
}

// Resolver turns raw query strings into refreshed song records and
// reconciles an existing library against the catalog.
type Resolver struct {
	catalog Catalog
	tags    TagReader
	scans   ScanRecorder
	logger  *zap.Logger
	saveExt string
}

// New creates a resolver from the given collaborators.
func New(cfg Config) (*Resolver, error) {
	if cfg.Catalog == nil {
		return nil, apperrors.NewValidationError("catalog client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	saveExt := cfg.SaveExtension
	if saveExt == "" {
		saveExt = song.Extension
	}

	return &Resolver{
		catalog: cfg.Catalog,
		tags:    cfg.Tags,
		scans:   cfg.Scans,
		logger:  logger,
		saveExt: saveExt,
	}, nil
}
