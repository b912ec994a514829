package process

import (
	"context"
	"errors"
	"fmt"

	"ewintr.nl/trendai/storage"
	"golang.org/x/exp/slog"
)

// Publisher copies the collected videos and their summaries into the
// catalogs. A failing video is logged and left for the next run.
type Publisher struct {
	videoRepo   storage.VideoRepository
	summaryRepo storage.SummaryRepository
	catalogs    []storage.Catalog
	logger      *slog.Logger
}

func NewPublisher(videoRepo storage.VideoRepository, summaryRepo storage.SummaryRepository, catalogs []storage.Catalog, logger *slog.Logger) *Publisher {
	return &Publisher{
		videoRepo:   videoRepo,
		summaryRepo: summaryRepo,
		catalogs:    catalogs,
		logger:      logger,
	}
}

func (p *Publisher) Run(ctx context.Context) error {
	videos, err := p.videoRepo.Load()
	if err != nil {
		return err
	}

	var published, failed int
	for _, video := range videos {
		if ctx.Err() != nil {
			break
		}
		summary, err := p.summaryRepo.Find(video.ID)
		if err != nil {
			return fmt.Errorf("could not read summary of %s: %w", video.ID, err)
		}

		var errs []error
		for _, catalog := range p.catalogs {
			if err := catalog.Publish(ctx, video, summary); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			failed++
			p.logger.Error("failed to publish video", slog.String("video", string(video.ID)), slog.String("error", err.Error()))
			continue
		}
		published++
	}

	p.logger.Info("publishing finished", slog.Int("published", published), slog.Int("failed", failed))
	return nil
}
