package process

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ewintr.nl/trendai/model"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testInfo = OpenAIInfo{
	Model:          "gpt-4o-mini",
	Temperature:    0.7,
	MaxTokens:      1500,
	PromptComments: 20,
	FallbackLength: 500,
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := openai.DefaultConfig("test-key")
	conf.BaseURL = srv.URL + "/v1"

	return NewOpenAI(openai.NewClientWithConfig(conf), testInfo, testLogger())
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func TestGenerateSeoSummary(t *testing.T) {
	video := &model.Video{
		ID:          "abc",
		Title:       model.StringPtr("Canción del verano"),
		Description: model.StringPtr(strings.Repeat("ñ", 800)),
		Comments:    []string{"me encanta"},
	}

	t.Run("success", func(t *testing.T) {
		var req openai.ChatCompletionRequest
		o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(completion("\n  A summer anthem.\nWith feeling.  \n"))
		})

		act := o.GenerateSeoSummary(context.Background(), video)
		assert.Equal(t, &model.SeoSummary{Title: "Canción del verano", Description: "A summer anthem.\nWith feeling."}, act)

		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, float32(0.7), req.Temperature)
		assert.Equal(t, 1500, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Title: Canción del verano")
	})

	t.Run("api error", func(t *testing.T) {
		o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"server overloaded","type":"server_error"}}`))
		})

		act := o.GenerateSeoSummary(context.Background(), video)
		assert.Equal(t, "Canción del verano", act.Title)
		assert.Equal(t, strings.Repeat("ñ", 500), act.Description)
	})

	t.Run("no choices", func(t *testing.T) {
		o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			resp := completion("")
			resp["choices"] = []map[string]any{}
			json.NewEncoder(w).Encode(resp)
		})

		act := o.GenerateSeoSummary(context.Background(), video)
		assert.Equal(t, Fallback(video, 500), act)
	})

	t.Run("malformed response", func(t *testing.T) {
		o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices": [`))
		})

		act := o.GenerateSeoSummary(context.Background(), video)
		assert.Equal(t, Fallback(video, 500), act)
	})
}

func TestFallback(t *testing.T) {
	for _, tc := range []struct {
		name  string
		video *model.Video
		exp   *model.SeoSummary
	}{
		{
			name:  "empty video",
			video: &model.Video{ID: "x"},
			exp:   &model.SeoSummary{Title: "Video Title Not Available", Description: ""},
		},
		{
			name:  "short description",
			video: &model.Video{ID: "x", Title: model.StringPtr("t"), Description: model.StringPtr("short")},
			exp:   &model.SeoSummary{Title: "t", Description: "short"},
		},
		{
			name:  "exact length",
			video: &model.Video{ID: "x", Title: model.StringPtr("t"), Description: model.StringPtr(strings.Repeat("a", 500))},
			exp:   &model.SeoSummary{Title: "t", Description: strings.Repeat("a", 500)},
		},
		{
			name:  "long description",
			video: &model.Video{ID: "x", Title: model.StringPtr("t"), Description: model.StringPtr(strings.Repeat("a", 499) + "éxyz")},
			exp:   &model.SeoSummary{Title: "t", Description: strings.Repeat("a", 499) + "é"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, Fallback(tc.video, 500))
		})
	}

	t.Run("negative length", func(t *testing.T) {
		act := Fallback(&model.Video{ID: "x", Description: model.StringPtr("abc")}, -1)
		assert.Equal(t, "", act.Description)
	})
}
