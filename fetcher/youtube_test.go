package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func newTestYoutube(t *testing.T, handler http.HandlerFunc) *Youtube {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithAPIKey("test-key"),
	)
	require.NoError(t, err)

	return NewYoutube(svc, srv.Client(), "test-key")
}

func TestYoutubeMostPopular(t *testing.T) {
	var query map[string][]string
	yt := newTestYoutube(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/youtube/v3/videos"), r.URL.Path)
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"id": "abc",
					"snippet": {"title": "Trending", "description": "", "tags": ["música"]},
					"statistics": {"viewCount": "42", "commentCount": "0"},
					"contentDetails": {"duration": "PT1M"}
				},
				{"id": "def", "snippet": {"title": "No stats"}}
			],
			"nextPageToken": "CAEQAA"
		}`))
	})

	items, next, err := yt.MostPopular(context.Background(), "MX", "tok", 25)
	require.NoError(t, err)
	assert.Equal(t, "CAEQAA", next)
	require.Len(t, items, 2)

	act := items[0]
	assert.Equal(t, "abc", act.Id)
	assert.Equal(t, "Trending", *act.Snippet.Title)
	require.NotNil(t, act.Snippet.Description)
	assert.Equal(t, "", *act.Snippet.Description)
	assert.Nil(t, act.Snippet.ChannelTitle)
	assert.Equal(t, []string{"música"}, act.Snippet.Tags)
	assert.Equal(t, "42", *act.Statistics.ViewCount)
	assert.Nil(t, act.Statistics.LikeCount)
	assert.Equal(t, "0", *act.Statistics.CommentCount)
	assert.Equal(t, "PT1M", *act.ContentDetails.Duration)
	assert.Nil(t, items[1].Statistics)

	assert.Equal(t, []string{"mostPopular"}, query["chart"])
	assert.Equal(t, []string{"MX"}, query["regionCode"])
	assert.Equal(t, []string{"25"}, query["maxResults"])
	assert.Equal(t, []string{"tok"}, query["pageToken"])
	assert.Equal(t, []string{"test-key"}, query["key"])
	assert.Equal(t, []string{"snippet,statistics,contentDetails"}, query["part"])
}

func TestYoutubeMostPopularError(t *testing.T) {
	yt := newTestYoutube(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded","errors":[{"reason":"quotaExceeded"}]}}`))
	})

	items, _, err := yt.MostPopular(context.Background(), "MX", "", 50)
	assert.Error(t, err)
	assert.Empty(t, items)
}

func TestYoutubeCommentThreads(t *testing.T) {
	yt := newTestYoutube(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/commentThreads"), r.URL.Path)
		assert.Equal(t, "abc", r.URL.Query().Get("videoId"))
		assert.Equal(t, "plainText", r.URL.Query().Get("textFormat"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"snippet": map[string]any{"topLevelComment": map[string]any{"snippet": map[string]any{"textDisplay": "¡Qué buena!"}}}},
				{"snippet": map[string]any{}},
				{"snippet": map[string]any{"topLevelComment": map[string]any{"snippet": map[string]any{"textDisplay": "great"}}}},
			},
		})
	})

	comments, next, err := yt.CommentThreads(context.Background(), "abc", "", 100)
	require.NoError(t, err)
	assert.Equal(t, "", next)
	assert.Equal(t, []string{"¡Qué buena!", "great"}, comments)
}

func TestYoutubeError(t *testing.T) {
	yt := newTestYoutube(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"The video identified by the videoId parameter has disabled comments.","errors":[{"reason":"commentsDisabled"}]}}`))
	})

	_, _, err := yt.CommentThreads(context.Background(), "abc", "", 100)
	assert.Error(t, err)
}
