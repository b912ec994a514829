package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ewintr.nl/trendai/model"
	kyoutube "github.com/kkdai/youtube/v2"
)

var ErrNoTranscript = errors.New("no transcript available")

type captionClient interface {
	GetVideoContext(ctx context.Context, id string) (*kyoutube.Video, error)
	GetTranscriptCtx(ctx context.Context, video *kyoutube.Video, lang string) (kyoutube.VideoTranscript, error)
}

// Transcripts reads the caption tracks of a video from the watch page.
type Transcripts struct {
	client captionClient
}

func NewTranscripts(client *kyoutube.Client) *Transcripts {
	return &Transcripts{client: client}
}

// FetchTranscript returns the captions in the first of the languages that
// has a track, with all segments joined by a space.
func (t *Transcripts) FetchTranscript(ctx context.Context, videoID model.YoutubeVideoID, languages []string) (string, error) {
	video, err := t.client.GetVideoContext(ctx, string(videoID))
	if err != nil {
		return "", fmt.Errorf("could not load video %s: %w", videoID, err)
	}

	var errs []error
	for _, lang := range languages {
		segments, err := t.client.GetTranscriptCtx(ctx, video, lang)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", lang, err))
			continue
		}
		texts := make([]string, 0, len(segments))
		for _, s := range segments {
			texts = append(texts, s.Text)
		}
		return strings.Join(texts, " "), nil
	}

	return "", fmt.Errorf("%w for %s in %v: %w", ErrNoTranscript, videoID, languages, errors.Join(errs...))
}
