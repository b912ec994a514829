package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/trendai/model"
	"ewintr.nl/trendai/storage"
	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"
	"google.golang.org/api/youtube/v3"
)

type VideoLister interface {
	MostPopular(ctx context.Context, regionCode, pageToken string, maxResults int64) ([]*ChartVideo, string, error)
}

type CommentLister interface {
	CommentThreads(ctx context.Context, videoID model.YoutubeVideoID, pageToken string, maxResults int64) ([]string, string, error)
}

type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID model.YoutubeVideoID, languages []string) (string, error)
}

type ThumbnailFetcher interface {
	Download(ctx context.Context, videoID model.YoutubeVideoID, thumbnails map[string]model.Thumbnail) (string, error)
}

type CollectorInfo struct {
	Regions             []string
	MaxResultsPerRegion int
	MaxComments         int
	TranscriptLanguages []string
	RegionPause         time.Duration
}

// Collector gathers the trending videos of all regions, with their
// transcripts, comments and thumbnails.
type Collector struct {
	info        CollectorInfo
	videos      VideoLister
	comments    CommentLister
	transcripts TranscriptFetcher
	thumbnails  ThumbnailFetcher
	videoRepo   storage.VideoRepository
	logger      *slog.Logger
}

func NewCollector(info CollectorInfo, videos VideoLister, comments CommentLister, transcripts TranscriptFetcher, thumbnails ThumbnailFetcher, videoRepo storage.VideoRepository, logger *slog.Logger) *Collector {
	return &Collector{
		info:        info,
		videos:      videos,
		comments:    comments,
		transcripts: transcripts,
		thumbnails:  thumbnails,
		videoRepo:   videoRepo,
		logger:      logger,
	}
}

// Run collects all regions and writes the result. The list is written on
// completion, on cancellation and on failure, so finished work is never lost.
// Cancellation is not reported as an error.
func (c *Collector) Run(ctx context.Context, mode Mode) error {
	videos := []*model.Video{}
	switch mode {
	case ModeSkip:
		c.logger.Info("skipping youtube data collection")
		return nil
	case ModeAppend:
		existing, err := c.videoRepo.Load()
		switch {
		case errors.Is(err, storage.ErrNoMetadata):
			c.logger.Info("nothing to append to, starting a new list")
		case err != nil:
			return fmt.Errorf("could not load existing videos: %w", err)
		default:
			videos = existing
			c.logger.Info("appending to existing videos", slog.Int("count", len(videos)))
		}
	default:
		c.logger.Info("overwriting existing data")
	}

	videos, err := c.collect(ctx, videos)
	saveErr := c.videoRepo.Save(videos)
	if saveErr != nil {
		saveErr = fmt.Errorf("could not save videos: %w", saveErr)
	}

	switch {
	case err == nil:
		c.logger.Info("data collection complete", slog.Int("count", len(videos)))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		c.logger.Info("data collection interrupted, progress saved", slog.Int("count", len(videos)))
		err = nil
	default:
		c.logger.Error("data collection failed, progress saved", slog.Int("count", len(videos)), slog.String("error", err.Error()))
	}

	return errors.Join(err, saveErr)
}

// collect always returns the list built so far, also when it stops early.
func (c *Collector) collect(ctx context.Context, videos []*model.Video) ([]*model.Video, error) {
	seen := make(map[model.YoutubeVideoID]bool, len(videos))
	for _, v := range videos {
		seen[v.ID] = true
	}

	pacer := rate.NewLimiter(rate.Every(c.info.RegionPause), 1)
	for _, region := range c.info.Regions {
		if err := pacer.Wait(ctx); err != nil {
			return videos, err
		}

		items, err := c.ListPopularVideos(ctx, region, c.info.MaxResultsPerRegion)
		if err != nil {
			if ctx.Err() != nil {
				return videos, ctx.Err()
			}
			return videos, fmt.Errorf("could not list popular videos for %s: %w", region, err)
		}
		c.logger.Info("fetched popular videos", slog.String("region", region), slog.Int("count", len(items)))

		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return videos, err
			}
			videoID := model.YoutubeVideoID(item.Id)
			if seen[videoID] {
				continue
			}

			c.logger.Info("processing video", slog.String("region", region), slog.String("video", string(videoID)), slog.Int("index", i+1), slog.Int("total", len(items)))
			video, err := c.ExtractVideoInfo(ctx, item, region)
			if ctx.Err() != nil {
				// enrichment may have been cut short
				return videos, ctx.Err()
			}
			if err != nil {
				c.logger.Warn("failed to process video", slog.String("video", string(videoID)), slog.String("error", err.Error()))
				continue
			}
			videos = append(videos, video)
			seen[videoID] = true
		}
	}

	return videos, nil
}

// ListPopularVideos pages through the trending chart of a region until limit
// videos are found or the chart ends.
func (c *Collector) ListPopularVideos(ctx context.Context, region string, limit int) ([]*ChartVideo, error) {
	videos := []*ChartVideo{}
	token := ""
	for len(videos) < limit {
		items, next, err := c.videos.MostPopular(ctx, region, token, int64(min(maxVideosPerPage, limit-len(videos))))
		if err != nil {
			return nil, err
		}
		videos = append(videos, items...)
		if next == "" || len(items) == 0 {
			break
		}
		token = next
	}

	if len(videos) > limit {
		videos = videos[:limit]
	}

	return videos, nil
}

// FetchComments returns at most limit top level comments. A video with
// comments disabled, or any other failure, gives an empty list.
func (c *Collector) FetchComments(ctx context.Context, videoID model.YoutubeVideoID, limit int) []string {
	comments := []string{}
	token := ""
	for len(comments) < limit {
		page, next, err := c.comments.CommentThreads(ctx, videoID, token, maxCommentsPerPage)
		if err != nil {
			c.logger.Info("no comments", slog.String("video", string(videoID)), slog.String("error", err.Error()))
			return []string{}
		}
		comments = append(comments, page...)
		if next == "" || len(page) == 0 {
			break
		}
		token = next
	}

	if len(comments) > limit {
		comments = comments[:limit]
	}

	return comments
}

// FetchTranscript returns nil when the video has no usable captions.
func (c *Collector) FetchTranscript(ctx context.Context, videoID model.YoutubeVideoID) *string {
	transcript, err := c.transcripts.FetchTranscript(ctx, videoID, c.info.TranscriptLanguages)
	if err != nil {
		c.logger.Info("no transcript", slog.String("video", string(videoID)), slog.String("error", err.Error()))
		return nil
	}

	return &transcript
}

// DownloadThumbnail returns nil when no thumbnail could be stored.
func (c *Collector) DownloadThumbnail(ctx context.Context, videoID model.YoutubeVideoID, thumbnails map[string]model.Thumbnail) *string {
	file, err := c.thumbnails.Download(ctx, videoID, thumbnails)
	if err != nil {
		c.logger.Warn("failed to store thumbnail", slog.String("video", string(videoID)), slog.String("error", err.Error()))
		return nil
	}

	return &file
}

// ExtractVideoInfo combines a chart item with its enrichment. Fields the
// chart leaves out stay nil, present ones are kept as they are, empty or not.
func (c *Collector) ExtractVideoInfo(ctx context.Context, item *ChartVideo, region string) (*model.Video, error) {
	if item.Snippet == nil {
		return nil, fmt.Errorf("video %s has no snippet", item.Id)
	}
	videoID := model.YoutubeVideoID(item.Id)
	snippet := item.Snippet

	thumbnails := ThumbnailMap(snippet.Thumbnails)
	video := &model.Video{
		ID:           videoID,
		Title:        snippet.Title,
		Description:  snippet.Description,
		ChannelTitle: snippet.ChannelTitle,
		PublishedAt:  snippet.PublishedAt,
		Tags:         []string{},
		YoutubeURL:   model.YoutubeURL(videoID),
		RegionCode:   region,
		Thumbnails:   thumbnails,
	}
	if snippet.ChannelId != nil {
		channelID := model.YoutubeChannelID(*snippet.ChannelId)
		video.ChannelID = &channelID
	}
	if snippet.Tags != nil {
		video.Tags = snippet.Tags
	}
	if stats := item.Statistics; stats != nil {
		video.ViewCount = stats.ViewCount
		video.LikeCount = stats.LikeCount
		video.CommentCount = stats.CommentCount
	}
	if item.ContentDetails != nil {
		video.Duration = item.ContentDetails.Duration
	}

	video.ThumbnailFile = c.DownloadThumbnail(ctx, videoID, thumbnails)
	video.Transcript = c.FetchTranscript(ctx, videoID)
	video.Comments = c.FetchComments(ctx, videoID, c.info.MaxComments)

	return video, nil
}

// ThumbnailMap keys the thumbnails by their quality label.
func ThumbnailMap(details *youtube.ThumbnailDetails) map[string]model.Thumbnail {
	thumbnails := map[string]model.Thumbnail{}
	if details == nil {
		return thumbnails
	}
	for label, thumb := range map[string]*youtube.Thumbnail{
		"default":  details.Default,
		"medium":   details.Medium,
		"high":     details.High,
		"standard": details.Standard,
		"maxres":   details.Maxres,
	} {
		if thumb == nil {
			continue
		}
		thumbnails[label] = model.Thumbnail{
			URL:    thumb.Url,
			Width:  thumb.Width,
			Height: thumb.Height,
		}
	}

	return thumbnails
}
