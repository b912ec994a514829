package model

import "fmt"

type YoutubeVideoID string

type YoutubeChannelID string

const youtubeWatchURL = "https://www.youtube.com/watch?v=%s"

// Thumbnail is one quality tier of the thumbnails the platform reports for a
// video. It is stored as received.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width,omitempty"`
	Height int64  `json:"height,omitempty"`
}

// Video is one trending video as collected, including the enrichment that was
// fetched for it. Optional fields are nil when the platform omitted them or
// the enrichment failed.
type Video struct {
	ID            YoutubeVideoID       `json:"video_id"`
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	ChannelTitle  *string              `json:"channel_title"`
	ChannelID     *YoutubeChannelID    `json:"channel_id"`
	PublishedAt   *string              `json:"published_at"`
	Tags          []string             `json:"tags"`
	ViewCount     *string              `json:"view_count"`
	LikeCount     *string              `json:"like_count"`
	CommentCount  *string              `json:"comment_count"`
	Duration      *string              `json:"duration"`
	YoutubeURL    string               `json:"youtube_url"`
	RegionCode    string               `json:"region_code"`
	Thumbnails    map[string]Thumbnail `json:"thumbnails"`
	ThumbnailFile *string              `json:"thumbnail_file"`
	Transcript    *string              `json:"transcript"`
	Comments      []string             `json:"comments"`
}

func YoutubeURL(id YoutubeVideoID) string {
	return fmt.Sprintf(youtubeWatchURL, id)
}

// TitleOr returns the title, or def when the video has none.
func (v *Video) TitleOr(def string) string {
	if v.Title == nil {
		return def
	}
	return *v.Title
}

func (v *Video) DescriptionOr(def string) string {
	if v.Description == nil {
		return def
	}
	return *v.Description
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
