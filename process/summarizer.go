package process

import (
	"context"
	"fmt"

	"ewintr.nl/trendai/model"
	"ewintr.nl/trendai/storage"
	"golang.org/x/exp/slog"
)

type SummaryGenerator interface {
	GenerateSeoSummary(ctx context.Context, video *model.Video) *model.SeoSummary
}

// Summarizer writes a summary for every collected video that does not have
// one yet.
type Summarizer struct {
	videoRepo   storage.VideoRepository
	summaryRepo storage.SummaryRepository
	generator   SummaryGenerator
	logger      *slog.Logger
}

func NewSummarizer(videoRepo storage.VideoRepository, summaryRepo storage.SummaryRepository, generator SummaryGenerator, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		videoRepo:   videoRepo,
		summaryRepo: summaryRepo,
		generator:   generator,
		logger:      logger,
	}
}

// Run returns an error wrapping storage.ErrNoMetadata when there is nothing
// collected yet. Cancellation stops the loop without error, every summary
// written up to then is complete.
func (s *Summarizer) Run(ctx context.Context) error {
	videos, err := s.videoRepo.Load()
	if err != nil {
		return err
	}
	s.logger.Info("starting seo summary generation", slog.Int("count", len(videos)))

	var generated, skipped int
	for i, video := range videos {
		if ctx.Err() != nil {
			s.logger.Info("seo summary generation interrupted", slog.Int("generated", generated), slog.Int("skipped", skipped))
			return nil
		}

		has, err := s.summaryRepo.Has(video.ID)
		if err != nil {
			return fmt.Errorf("could not check summary of %s: %w", video.ID, err)
		}
		if has {
			skipped++
			continue
		}

		s.logger.Info("generating summary", slog.String("video", string(video.ID)), slog.Int("index", i+1), slog.Int("total", len(videos)))
		summary := s.generator.GenerateSeoSummary(ctx, video)
		if ctx.Err() != nil {
			// the generator gave up because of the cancellation, do not store its fallback
			s.logger.Info("seo summary generation interrupted", slog.Int("generated", generated), slog.Int("skipped", skipped))
			return nil
		}
		if err := s.summaryRepo.Save(video.ID, summary); err != nil {
			return fmt.Errorf("could not save summary of %s: %w", video.ID, err)
		}
		generated++
	}

	s.logger.Info("seo summary generation completed", slog.Int("generated", generated), slog.Int("skipped", skipped))
	return nil
}
