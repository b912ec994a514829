package storage

import (
	"context"

	"ewintr.nl/trendai/model"
)

// VideoRepository holds the collected video list.
type VideoRepository interface {
	Exists() (bool, error)
	Load() ([]*model.Video, error)
	Save(videos []*model.Video) error
}

// SummaryRepository holds one summary per video.
type SummaryRepository interface {
	Has(id model.YoutubeVideoID) (bool, error)
	Find(id model.YoutubeVideoID) (*model.SeoSummary, error)
	Save(id model.YoutubeVideoID, summary *model.SeoSummary) error
}

// Catalog receives finished videos for publication.
type Catalog interface {
	Publish(ctx context.Context, video *model.Video, summary *model.SeoSummary) error
}
