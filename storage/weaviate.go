package storage

import (
	"context"
	"errors"
	"net/http"

	"ewintr.nl/trendai/model"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	className = "TrendingVideo"
)

// videoNamespace seeds the object ids, so a video always maps to the same
// weaviate object.
var videoNamespace = uuid.MustParse("4f0c6f52-7a53-4a43-9d4e-8d0b0f7c2a11")

type Weaviate struct {
	client *weaviate.Client
}

func NewWeaviate(host, weaviateApiKey, openaiApiKey string) (*Weaviate, error) {
	return newWeaviate(weaviate.Config{
		Scheme:     "https",
		Host:       host,
		AuthConfig: auth.ApiKey{Value: weaviateApiKey},
		Headers: map[string]string{
			"X-OpenAI-Api-Key": openaiApiKey,
		},
	})
}

func newWeaviate(config weaviate.Config) (*Weaviate, error) {
	c, err := weaviate.NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Weaviate{client: c}, nil
}

// EnsureSchema creates the class when it is not there yet. Existing objects
// are left alone, so publishing again updates them in place.
func (w *Weaviate) EnsureSchema(ctx context.Context) error {
	_, err := w.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
	if err == nil {
		return nil
	}
	var status *fault.WeaviateClientError
	if !errors.As(err, &status) || status.StatusCode != http.StatusNotFound {
		return err
	}

	return w.createClass(ctx)
}

// ResetSchema drops the class with all its objects and creates it again.
func (w *Weaviate) ResetSchema(ctx context.Context) error {

	// delete old
	if err := w.client.Schema().ClassDeleter().WithClassName(className).Do(ctx); err != nil {
		// Weaviate will return a 400 if the class does not exist, so this is allowed, only return an error if it's not a 400
		var status *fault.WeaviateClientError
		if errors.As(err, &status) && status.StatusCode != http.StatusBadRequest {
			return err
		}
	}

	return w.createClass(ctx)
}

func (w *Weaviate) createClass(ctx context.Context) error {
	classObj := &models.Class{
		Class:      className,
		Vectorizer: "text2vec-openai",
		ModuleConfig: map[string]any{
			"text2vec-openai": map[string]any{
				"model":        "ada",
				"modelVersion": "002",
				"type":         "text",
			},
		},
	}

	return w.client.Schema().ClassCreator().WithClass(classObj).Do(ctx)
}

// Publish stores the summary of a video. Videos without a summary are not
// indexed, there is nothing to search in yet.
func (w *Weaviate) Publish(ctx context.Context, video *model.Video, summary *model.SeoSummary) error {
	if summary == nil {
		return nil
	}

	vID := ObjectID(video.ID).String()
	props := weaviateProperties(video, summary)

	// check it already exists
	exists, err := w.client.Data().
		Checker().
		WithID(vID).
		WithClassName(className).
		Do(ctx)
	if err != nil {
		return err
	}

	if exists {
		return w.client.Data().
			Updater().
			WithID(vID).
			WithClassName(className).
			WithProperties(props).
			Do(ctx)
	}

	_, err = w.client.Data().
		Creator().
		WithClassName(className).
		WithID(vID).
		WithProperties(props).
		Do(ctx)

	return err
}

func ObjectID(id model.YoutubeVideoID) uuid.UUID {
	return uuid.NewSHA1(videoNamespace, []byte(id))
}

func weaviateProperties(video *model.Video, summary *model.SeoSummary) map[string]any {
	return map[string]any{
		"youtubeId":      string(video.ID),
		"youtubeUrl":     video.YoutubeURL,
		"regionCode":     video.RegionCode,
		"slug":           model.Slug(video.TitleOr("")),
		"seoTitle":       summary.Title,
		"seoDescription": summary.Description,
	}
}
