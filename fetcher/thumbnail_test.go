package fetcher

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ewintr.nl/trendai/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSelectThumbnail(t *testing.T) {
	medium := model.Thumbnail{URL: "medium.jpg"}
	def := model.Thumbnail{URL: "default.jpg"}
	for _, tc := range []struct {
		name       string
		thumbnails map[string]model.Thumbnail
		exp        model.Thumbnail
		expOK      bool
	}{
		{name: "nil"},
		{name: "only high", thumbnails: map[string]model.Thumbnail{"high": {URL: "high.jpg"}}},
		{name: "medium preferred", thumbnails: map[string]model.Thumbnail{"default": def, "medium": medium}, exp: medium, expOK: true},
		{name: "default fallback", thumbnails: map[string]model.Thumbnail{"default": def, "high": {URL: "high.jpg"}}, exp: def, expOK: true},
		{name: "medium without url", thumbnails: map[string]model.Thumbnail{"default": def, "medium": {}}, exp: def, expOK: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			act, ok := SelectThumbnail(tc.thumbnails)
			assert.Equal(t, tc.expOK, ok)
			assert.Equal(t, tc.exp, act)
		})
	}
}

func TestThumbnailDownloader(t *testing.T) {
	body := pngBytes(t, 120, 90)
	requested := []string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		switch r.URL.Path {
		case "/default.png":
			w.Write(body)
		case "/text":
			w.Write([]byte("this is not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	newDownloader := func(t *testing.T) (*ThumbnailDownloader, string) {
		dir := filepath.Join(t.TempDir(), "thumbnails")
		return NewThumbnailDownloader(srv.Client(), ThumbnailInfo{
			Dir:         dir,
			URLPrefix:   "/thumbnails",
			Width:       640,
			Height:      360,
			JPEGQuality: 85,
		}), dir
	}

	t.Run("default only", func(t *testing.T) {
		requested = requested[:0]
		td, dir := newDownloader(t)

		act, err := td.Download(context.Background(), "abc", map[string]model.Thumbnail{
			"default": {URL: srv.URL + "/default.png", Width: 120, Height: 90},
		})
		require.NoError(t, err)
		assert.Equal(t, "/thumbnails/abc.jpg", act)
		assert.Equal(t, []string{"/default.png"}, requested)

		f, err := os.Open(filepath.Join(dir, "abc.jpg"))
		require.NoError(t, err)
		defer f.Close()
		cfg, err := jpeg.DecodeConfig(f)
		require.NoError(t, err)
		assert.Equal(t, 640, cfg.Width)
		assert.Equal(t, 360, cfg.Height)
	})

	t.Run("no candidates", func(t *testing.T) {
		requested = requested[:0]
		td, _ := newDownloader(t)

		_, err := td.Download(context.Background(), "abc", map[string]model.Thumbnail{
			"high": {URL: srv.URL + "/default.png"},
		})
		assert.ErrorIs(t, err, ErrNoThumbnail)
		assert.Empty(t, requested)
	})

	t.Run("not found", func(t *testing.T) {
		td, dir := newDownloader(t)

		_, err := td.Download(context.Background(), "abc", map[string]model.Thumbnail{
			"medium": {URL: srv.URL + "/missing.jpg"},
		})
		assert.Error(t, err)
		_, statErr := os.Stat(filepath.Join(dir, "abc.jpg"))
		assert.ErrorIs(t, statErr, os.ErrNotExist)
	})

	t.Run("not an image", func(t *testing.T) {
		td, _ := newDownloader(t)

		_, err := td.Download(context.Background(), "abc", map[string]model.Thumbnail{
			"medium": {URL: srv.URL + "/text"},
		})
		assert.Error(t, err)
	})
}
