package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ewintr.nl/trendai/model"
)

var ErrNoMetadata = errors.New("no metadata file")

// MetadataFile stores the video list as one pretty printed JSON array.
type MetadataFile struct {
	path string
}

func NewMetadataFile(path string) *MetadataFile {
	return &MetadataFile{path: path}
}

func (m *MetadataFile) Path() string {
	return m.path
}

func (m *MetadataFile) Exists() (bool, error) {
	return fileExists(m.path)
}

func (m *MetadataFile) Load() ([]*model.Video, error) {
	body, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w at %s", ErrNoMetadata, m.path)
	case err != nil:
		return nil, fmt.Errorf("could not read %s: %w", m.path, err)
	}

	videos := []*model.Video{}
	if err := json.Unmarshal(body, &videos); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", m.path, err)
	}

	return videos, nil
}

func (m *MetadataFile) Save(videos []*model.Video) error {
	if videos == nil {
		videos = []*model.Video{}
	}

	return writeJSON(m.path, videos)
}

// SummaryDir stores each summary as {video_id}.json in one directory.
type SummaryDir struct {
	dir string
}

func NewSummaryDir(dir string) *SummaryDir {
	return &SummaryDir{dir: dir}
}

func (s *SummaryDir) Path(id model.YoutubeVideoID) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", id))
}

func (s *SummaryDir) Has(id model.YoutubeVideoID) (bool, error) {
	return fileExists(s.Path(id))
}

// Find returns nil without error when the video has no summary yet.
func (s *SummaryDir) Find(id model.YoutubeVideoID) (*model.SeoSummary, error) {
	body, err := os.ReadFile(s.Path(id))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("could not read summary for %s: %w", id, err)
	}

	summary := &model.SeoSummary{}
	if err := json.Unmarshal(body, summary); err != nil {
		return nil, fmt.Errorf("could not parse summary for %s: %w", id, err)
	}

	return summary, nil
}

func (s *SummaryDir) Save(id model.YoutubeVideoID, summary *model.SeoSummary) error {
	return writeJSON(s.Path(id), summary)
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// writeJSON writes to a temporary file next to path and renames it, so
// readers never see a half written file.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("could not encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temp file in %s: %w", dir, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("could not set mode on %s: %w", path, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("could not move %s into place: %w", path, err)
	}

	return nil
}
