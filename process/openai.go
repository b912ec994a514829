package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ewintr.nl/trendai/model"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"
)

const titlePlaceholder = "Video Title Not Available"

type OpenAIInfo struct {
	Model             string
	Temperature       float32
	MaxTokens         int
	PromptComments    int
	FallbackLength    int
	RequestsPerMinute int
}

// OpenAI writes SEO descriptions with a chat completion model.
type OpenAI struct {
	client  *openai.Client
	info    OpenAIInfo
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewOpenAI(client *openai.Client, info OpenAIInfo, logger *slog.Logger) *OpenAI {
	limit := rate.Inf
	if info.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(info.RequestsPerMinute))
	}

	return &OpenAI{
		client:  client,
		info:    info,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// GenerateSeoSummary never fails. When the model can not be reached, the
// summary falls back to the start of the original description.
func (o *OpenAI) GenerateSeoSummary(ctx context.Context, video *model.Video) *model.SeoSummary {
	content, err := o.complete(ctx, video)
	if err != nil {
		o.logger.Error("failed to generate summary", slog.String("video", string(video.ID)), slog.String("error", err.Error()))
		return Fallback(video, o.info.FallbackLength)
	}

	return &model.SeoSummary{
		Title:       video.TitleOr(""),
		Description: content,
	}
}

func (o *OpenAI) complete(ctx context.Context, video *model.Video) (string, error) {
	prompt, err := SeoPrompt(video, o.info.PromptComments)
	if err != nil {
		return "", fmt.Errorf("could not build prompt: %w", err)
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       o.info.Model,
			Temperature: o.info.Temperature,
			MaxTokens:   o.info.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
	if err != nil {
		return "", fmt.Errorf("failed to fetch summary: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("response has no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Fallback builds a summary from the original video data: the title, or a
// placeholder, and the first length characters of the description.
func Fallback(video *model.Video, length int) *model.SeoSummary {
	desc := []rune(video.DescriptionOr(""))
	if length = max(length, 0); len(desc) > length {
		desc = desc[:length]
	}

	return &model.SeoSummary{
		Title:       video.TitleOr(titlePlaceholder),
		Description: string(desc),
	}
}
