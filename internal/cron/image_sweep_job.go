package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bazaar-backend/pkg/logger"
	"github.com/angelmondragon/bazaar-backend/pkg/storage"
)

const defaultOrphanGrace = 24 * time.Hour

type imageIndex interface {
	ImageURLs(ctx context.Context) ([]string, error)
}

type imageFiles interface {
	List(ctx context.Context) ([]storage.StoredFile, error)
	Delete(ctx context.Context, url string) error
}

type OrphanImageSweepParams struct {
	Logger *logger.Logger
	Index  imageIndex
	Files  imageFiles
	// Grace keeps recent files that may belong to a product still being written.
	Grace time.Duration
	Now   func() time.Time
}

// NewOrphanImageSweepJob removes stored images no product references, such as
// the files left behind when a saller and their products are deleted.
func NewOrphanImageSweepJob(params OrphanImageSweepParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Index == nil {
		return nil, fmt.Errorf("image index required")
	}
	if params.Files == nil {
		return nil, fmt.Errorf("file store required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultOrphanGrace
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &orphanImageSweep{
		logg:  params.Logger,
		index: params.Index,
		files: params.Files,
		grace: grace,
		now:   now,
	}, nil
}

type orphanImageSweep struct {
	logg  *logger.Logger
	index imageIndex
	files imageFiles
	grace time.Duration
	now   func() time.Time
}

func (j *orphanImageSweep) Name() string { return "orphan-image-sweep" }

func (j *orphanImageSweep) Run(ctx context.Context) error {
	files, err := j.files.List(ctx)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}
	urls, err := j.index.ImageURLs(ctx)
	if err != nil {
		return fmt.Errorf("load referenced images: %w", err)
	}

	// compare by file name so a changed public base url never orphans everything
	referenced := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		if name, ok := storage.NameFromURL(url); ok {
			referenced[name] = struct{}{}
		}
	}

	cutoff := j.now().Add(-j.grace)
	var (
		removed int
		errs    error
	)
	for _, file := range files {
		if _, ok := referenced[file.Name]; ok || file.ModTime.After(cutoff) {
			continue
		}
		if err := j.files.Delete(ctx, file.URL); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", file.Name, err))
			continue
		}
		removed++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"scanned":    len(files),
		"referenced": len(referenced),
		"removed":    removed,
	}), "cron.orphan_images_swept")
	return errs
}
