package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"ewintr.nl/trendai/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

const (
	maxVideosPerPage   = 50
	maxCommentsPerPage = 100
)

// ChartVideo is an item of the trending chart. Unlike youtube.Video it keeps
// text fields and counts as pointers, so a field the platform leaves out, like
// the like count of a video with hidden likes, stays apart from an empty or
// zero one.
type ChartVideo struct {
	Id             string               `json:"id"`
	Snippet        *ChartSnippet        `json:"snippet"`
	Statistics     *ChartStatistics     `json:"statistics"`
	ContentDetails *ChartContentDetails `json:"contentDetails"`
}

type ChartSnippet struct {
	Title        *string                   `json:"title"`
	Description  *string                   `json:"description"`
	ChannelTitle *string                   `json:"channelTitle"`
	ChannelId    *string                   `json:"channelId"`
	PublishedAt  *string                   `json:"publishedAt"`
	Tags         []string                  `json:"tags"`
	Thumbnails   *youtube.ThumbnailDetails `json:"thumbnails"`
}

type ChartStatistics struct {
	ViewCount    *string `json:"viewCount"`
	LikeCount    *string `json:"likeCount"`
	CommentCount *string `json:"commentCount"`
}

type ChartContentDetails struct {
	Duration *string `json:"duration"`
}

type chartResponse struct {
	Items         []*ChartVideo `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

type Youtube struct {
	Client *youtube.Service
	http   *http.Client
	apiKey string
}

func NewYoutube(client *youtube.Service, httpClient *http.Client, apiKey string) *Youtube {
	return &Youtube{
		Client: client,
		http:   httpClient,
		apiKey: apiKey,
	}
}

// MostPopular fetches one page of the trending chart of a region. The
// generated videos.list call decodes counts into plain integers, so the
// response is decoded here instead.
func (y *Youtube) MostPopular(ctx context.Context, regionCode, pageToken string, maxResults int64) ([]*ChartVideo, string, error) {
	params := url.Values{}
	params.Set("alt", "json")
	params.Set("part", "snippet,statistics,contentDetails")
	params.Set("chart", "mostPopular")
	params.Set("regionCode", regionCode)
	params.Set("maxResults", strconv.FormatInt(maxResults, 10))
	params.Set("key", y.apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	urls := googleapi.ResolveRelative(y.Client.BasePath, "youtube/v3/videos") + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urls, nil)
	if err != nil {
		return []*ChartVideo{}, "", err
	}
	res, err := y.http.Do(req)
	if err != nil {
		return []*ChartVideo{}, "", err
	}
	defer res.Body.Close()
	if err := googleapi.CheckResponse(res); err != nil {
		return []*ChartVideo{}, "", err
	}

	var response chartResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return []*ChartVideo{}, "", fmt.Errorf("could not decode chart: %w", err)
	}

	return response.Items, response.NextPageToken, nil
}

// CommentThreads fetches one page of top level comments as plain text.
func (y *Youtube) CommentThreads(ctx context.Context, videoID model.YoutubeVideoID, pageToken string, maxResults int64) ([]string, string, error) {
	call := y.Client.CommentThreads.
		List([]string{"snippet"}).
		VideoId(string(videoID)).
		MaxResults(maxResults).
		TextFormat("plainText")

	if pageToken != "" {
		call.PageToken(pageToken)
	}

	response, err := call.Context(ctx).Do()
	if err != nil {
		return []string{}, "", err
	}

	comments := make([]string, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		comments = append(comments, item.Snippet.TopLevelComment.Snippet.TextDisplay)
	}

	return comments, response.NextPageToken, nil
}
