package model

// SeoSummary is the generated marketing text for one video. It is stored as
// {video_id}.json and never regenerated once it exists.
type SeoSummary struct {
	Title       string `json:"seo_title"`
	Description string `json:"seo_description"`
}
