package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"ewintr.nl/trendai/model"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
)

const maxThumbnailBytes = 10 << 20

var ErrNoThumbnail = errors.New("no usable thumbnail")

// thumbnailPreference lists the quality tiers that are downloaded, best first.
var thumbnailPreference = []string{"medium", "default"}

type ThumbnailInfo struct {
	Dir         string
	URLPrefix   string
	Width       int
	Height      int
	JPEGQuality int
}

// ThumbnailDownloader stores a resized JPEG copy of a video thumbnail.
type ThumbnailDownloader struct {
	client *http.Client
	info   ThumbnailInfo
}

func NewThumbnailDownloader(client *http.Client, info ThumbnailInfo) *ThumbnailDownloader {
	return &ThumbnailDownloader{
		client: client,
		info:   info,
	}
}

func SelectThumbnail(thumbnails map[string]model.Thumbnail) (model.Thumbnail, bool) {
	for _, quality := range thumbnailPreference {
		if thumb, ok := thumbnails[quality]; ok && thumb.URL != "" {
			return thumb, true
		}
	}

	return model.Thumbnail{}, false
}

// Download fetches the preferred thumbnail and returns the path the stored
// copy is served under.
func (td *ThumbnailDownloader) Download(ctx context.Context, videoID model.YoutubeVideoID, thumbnails map[string]model.Thumbnail) (string, error) {
	thumb, ok := SelectThumbnail(thumbnails)
	if !ok {
		return "", ErrNoThumbnail
	}

	body, err := td.fetch(ctx, thumb.URL)
	if err != nil {
		return "", err
	}
	if !filetype.IsImage(body) {
		return "", fmt.Errorf("%s did not return an image", thumb.URL)
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("could not decode %s: %w", thumb.URL, err)
	}
	resized := imaging.Resize(img, td.info.Width, td.info.Height, imaging.Lanczos)

	if err := os.MkdirAll(td.info.Dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", td.info.Dir, err)
	}
	name := fmt.Sprintf("%s.jpg", videoID)
	if err := imaging.Save(resized, filepath.Join(td.info.Dir, name), imaging.JPEGQuality(td.info.JPEGQuality)); err != nil {
		return "", fmt.Errorf("could not save thumbnail for %s: %w", videoID, err)
	}

	return path.Join(td.info.URLPrefix, name), nil
}

func (td *ThumbnailDownloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := td.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not download %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", url, err)
	}

	return body, nil
}
