package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"ewintr.nl/trendai/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
)

type fakeWeaviate struct {
	mu          sync.Mutex
	classExists bool
	objExists   bool
	calls       []string
}

func (f *fakeWeaviate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(r.URL.Path, "/v1/.well-known"):
		return
	case r.URL.Path == "/v1/meta":
		w.Write([]byte(`{"version":"1.19.0"}`))
		return
	case strings.HasPrefix(r.URL.Path, "/v1/schema"):
		f.calls = append(f.calls, r.Method+" schema")
		switch r.Method {
		case http.MethodGet:
			if !f.classExists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(`{"class":"TrendingVideo"}`))
		case http.MethodPost:
			f.classExists = true
			w.Write([]byte(`{"class":"TrendingVideo"}`))
		case http.MethodDelete:
			f.classExists = false
		}
	case strings.HasPrefix(r.URL.Path, "/v1/objects"):
		f.calls = append(f.calls, r.Method+" objects")
		switch r.Method {
		case http.MethodHead:
			if !f.objExists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			f.objExists = true
			w.Write([]byte(`{"class":"TrendingVideo"}`))
		default:
			w.Write([]byte(`{"class":"TrendingVideo"}`))
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeWeaviate) schemaCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := []string{}
	for _, c := range f.calls {
		if strings.HasSuffix(c, " schema") {
			calls = append(calls, c)
		}
	}
	return calls
}

func (f *fakeWeaviate) objectCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := []string{}
	for _, c := range f.calls {
		if strings.HasSuffix(c, " objects") {
			calls = append(calls, c)
		}
	}
	return calls
}

func newTestWeaviate(t *testing.T, fake *fakeWeaviate) *Weaviate {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	wv, err := newWeaviate(weaviate.Config{
		Scheme: "http",
		Host:   strings.TrimPrefix(srv.URL, "http://"),
	})
	require.NoError(t, err)

	return wv
}

func TestWeaviateSchema(t *testing.T) {
	t.Run("ensure creates missing class", func(t *testing.T) {
		fake := &fakeWeaviate{}
		wv := newTestWeaviate(t, fake)

		require.NoError(t, wv.EnsureSchema(context.Background()))
		assert.Equal(t, []string{"GET schema", "POST schema"}, fake.schemaCalls())
	})

	t.Run("ensure keeps existing class", func(t *testing.T) {
		fake := &fakeWeaviate{classExists: true}
		wv := newTestWeaviate(t, fake)

		require.NoError(t, wv.EnsureSchema(context.Background()))
		assert.Equal(t, []string{"GET schema"}, fake.schemaCalls())
	})

	t.Run("reset drops class", func(t *testing.T) {
		fake := &fakeWeaviate{classExists: true}
		wv := newTestWeaviate(t, fake)

		require.NoError(t, wv.ResetSchema(context.Background()))
		assert.Equal(t, []string{"DELETE schema", "POST schema"}, fake.schemaCalls())
	})
}

func TestWeaviatePublish(t *testing.T) {
	video := &model.Video{ID: "abc", Title: model.StringPtr("Hello World"), RegionCode: "MX"}
	summary := &model.SeoSummary{Title: "Hello World", Description: "desc"}

	t.Run("second publish updates", func(t *testing.T) {
		fake := &fakeWeaviate{classExists: true}
		wv := newTestWeaviate(t, fake)

		require.NoError(t, wv.EnsureSchema(context.Background()))
		require.NoError(t, wv.Publish(context.Background(), video, summary))
		require.NoError(t, wv.EnsureSchema(context.Background()))
		require.NoError(t, wv.Publish(context.Background(), video, summary))

		assert.Equal(t, []string{"HEAD objects", "POST objects", "HEAD objects", "PUT objects"}, fake.objectCalls())
	})

	t.Run("no summary", func(t *testing.T) {
		fake := &fakeWeaviate{classExists: true}
		wv := newTestWeaviate(t, fake)

		require.NoError(t, wv.Publish(context.Background(), video, nil))
		assert.Empty(t, fake.objectCalls())
	})
}
