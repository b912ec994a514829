package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ewintr.nl/trendai/model"
	"ewintr.nl/trendai/storage"
	"golang.org/x/exp/slog"
)

type VideoAPI struct {
	videoRepo   storage.VideoRepository
	summaryRepo storage.SummaryRepository
	logger      *slog.Logger
}

func NewVideoAPI(videoRepo storage.VideoRepository, summaryRepo storage.SummaryRepository, logger *slog.Logger) *VideoAPI {
	return &VideoAPI{
		videoRepo:   videoRepo,
		summaryRepo: summaryRepo,
		logger:      logger,
	}
}

func (v *VideoAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoID, _ := ShiftPath(r.URL.Path)

	switch {
	case r.Method == http.MethodGet && videoID == "":
		v.List(w, r)
	case r.Method == http.MethodGet:
		v.Get(w, r, videoID)
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the video api", r.Method, videoID))
	}
}

func (v *VideoAPI) List(w http.ResponseWriter, r *http.Request) {
	videos, err := v.load()
	if err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not list videos", err)
		return
	}

	type respVideo struct {
		YoutubeID      string  `json:"video_id"`
		Slug           string  `json:"slug"`
		Title          string  `json:"title"`
		RegionCode     string  `json:"region_code"`
		YoutubeURL     string  `json:"youtube_url"`
		ThumbnailFile  *string `json:"thumbnail_file"`
		SeoDescription string  `json:"seo_description"`
	}
	resp := []respVideo{}
	for _, video := range videos {
		summary, err := v.summaryRepo.Find(video.ID)
		if err != nil {
			v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not read summary", err, video.ID)
			return
		}
		rv := respVideo{
			YoutubeID:     string(video.ID),
			Slug:          model.Slug(video.TitleOr("")),
			Title:         video.TitleOr(""),
			RegionCode:    video.RegionCode,
			YoutubeURL:    video.YoutubeURL,
			ThumbnailFile: video.ThumbnailFile,
		}
		if summary != nil {
			rv.SeoDescription = summary.Description
		}
		resp = append(resp, rv)
	}

	if err := JSON(w, resp); err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
	}
}

// Get finds a video by id or by the slug of its title.
func (v *VideoAPI) Get(w http.ResponseWriter, r *http.Request, key string) {
	videos, err := v.load()
	if err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not list videos", err)
		return
	}

	var video *model.Video
	for _, candidate := range videos {
		if string(candidate.ID) == key {
			video = candidate
			break
		}
		if video == nil && model.Slug(candidate.TitleOr("")) == key {
			video = candidate
		}
	}
	if video == nil {
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("no video with id or slug %q", key))
		return
	}

	summary, err := v.summaryRepo.Find(video.ID)
	if err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not read summary", err, video.ID)
		return
	}

	resp := struct {
		*model.Video
		Slug       string            `json:"slug"`
		SeoSummary *model.SeoSummary `json:"seo_summary"`
	}{
		Video:      video,
		Slug:       model.Slug(video.TitleOr("")),
		SeoSummary: summary,
	}
	if err := JSON(w, resp); err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
	}
}

// load treats a missing metadata file as an empty collection.
func (v *VideoAPI) load() ([]*model.Video, error) {
	videos, err := v.videoRepo.Load()
	if errors.Is(err, storage.ErrNoMetadata) {
		return []*model.Video{}, nil
	}

	return videos, err
}

func (v *VideoAPI) returnErr(_ context.Context, w http.ResponseWriter, status int, message string, err error, details ...any) {
	v.logger.Error(message, slog.String("err", err.Error()), slog.String("details", fmt.Sprintf("%+v", details)))
	Error(w, status, message, err, details...)
}
