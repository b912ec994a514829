// Package config holds the settings of the collector, the summarizer and the
// services around them. Values come from compiled in defaults, an optional
// TOML file, an optional .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var (
	ErrMissingKey    = errors.New("missing required api key")
	ErrInvalidConfig = errors.New("invalid config")
)

type Collector struct {
	Regions             []string `toml:"regions"`
	MaxResultsPerRegion int      `toml:"max_results_per_region"`
	MaxComments         int      `toml:"max_comments"`
	TranscriptLanguages []string `toml:"transcript_languages"`
	RegionPause         Duration `toml:"region_pause"`
	MetadataPath        string   `toml:"metadata_path"`
}

type Thumbnails struct {
	Dir         string   `toml:"dir"`
	URLPrefix   string   `toml:"url_prefix"`
	Width       int      `toml:"width"`
	Height      int      `toml:"height"`
	JPEGQuality int      `toml:"jpeg_quality"`
	Timeout     Duration `toml:"timeout"`
}

type Summarizer struct {
	OutputDir         string  `toml:"output_dir"`
	Model             string  `toml:"model"`
	Temperature       float32 `toml:"temperature"`
	MaxTokens         int     `toml:"max_tokens"`
	PromptComments    int     `toml:"prompt_comments"`
	FallbackLength    int     `toml:"fallback_length"`
	RequestsPerMinute int     `toml:"requests_per_minute"`
}

type Postgres struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

type Weaviate struct {
	Host   string `toml:"host"`
	ApiKey string `toml:"-"`
}

type Config struct {
	YoutubeApiKey string `toml:"-"`
	OpenAIApiKey  string `toml:"-"`
	ApiPort       int    `toml:"api_port"`

	Collector  Collector  `toml:"collector"`
	Thumbnails Thumbnails `toml:"thumbnails"`
	Summarizer Summarizer `toml:"summarizer"`
	Postgres   Postgres   `toml:"postgres"`
	Weaviate   Weaviate   `toml:"weaviate"`
}

// Duration lets TOML files use strings like "1s" or "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

func Default() *Config {
	return &Config{
		ApiPort: 8080,
		Collector: Collector{
			Regions:             []string{"AR", "BO", "CL", "CO", "CR", "DO", "EC", "GT", "HN", "MX", "NI", "PA", "PE", "PY", "SV", "UY", "VE", "US"},
			MaxResultsPerRegion: 50,
			MaxComments:         200,
			TranscriptLanguages: []string{"es", "en"},
			RegionPause:         Duration{time.Second},
			MetadataPath:        "src/data/videos_metadata.json",
		},
		Thumbnails: Thumbnails{
			Dir:         "public/thumbnails",
			URLPrefix:   "/thumbnails",
			Width:       640,
			Height:      360,
			JPEGQuality: 85,
			Timeout:     Duration{10 * time.Second},
		},
		Summarizer: Summarizer{
			OutputDir:      "src/data/sumarios_seo",
			Model:          "gpt-4o-mini",
			Temperature:    0.7,
			MaxTokens:      1500,
			PromptComments: 20,
			FallbackLength: 500,
		},
		Postgres: Postgres{
			Host:     "localhost",
			Port:     "5432",
			User:     "trendai",
			Password: "trendai",
			Database: "trendai",
		},
	}
}

// Load builds the configuration. An empty path skips the TOML file, a missing
// .env file is not an error.
func Load(path string) (*Config, error) {
	conf := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, conf); err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read .env file: %w", err)
	}

	conf.YoutubeApiKey = getParam("YOUTUBE_API_KEY", "")
	conf.OpenAIApiKey = getParam("OPENAI_API_KEY", "")
	conf.Postgres.Host = getParam("POSTGRES_HOST", conf.Postgres.Host)
	conf.Postgres.Port = getParam("POSTGRES_PORT", conf.Postgres.Port)
	conf.Postgres.User = getParam("POSTGRES_USER", conf.Postgres.User)
	conf.Postgres.Password = getParam("POSTGRES_PASSWORD", conf.Postgres.Password)
	conf.Postgres.Database = getParam("POSTGRES_DB", conf.Postgres.Database)
	conf.Weaviate.Host = getParam("WEAVIATE_HOST", conf.Weaviate.Host)
	conf.Weaviate.ApiKey = getParam("WEAVIATE_APIKEY", "")

	if port := getParam("API_PORT", ""); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &conf.ApiPort); err != nil {
			return nil, fmt.Errorf("invalid API_PORT %q: %w", port, err)
		}
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

// Validate rejects settings the pipeline can not work with. Counts of
// comments and characters may be zero, that just leaves them out.
func (c *Config) Validate() error {
	for _, check := range []struct {
		name string
		ok   bool
	}{
		{"api_port", c.ApiPort > 0 && c.ApiPort <= 65535},
		{"collector.max_results_per_region", c.Collector.MaxResultsPerRegion > 0},
		{"collector.max_comments", c.Collector.MaxComments >= 0},
		{"collector.region_pause", c.Collector.RegionPause.Duration >= 0},
		{"thumbnails.width", c.Thumbnails.Width > 0},
		{"thumbnails.height", c.Thumbnails.Height > 0},
		{"thumbnails.jpeg_quality", c.Thumbnails.JPEGQuality > 0 && c.Thumbnails.JPEGQuality <= 100},
		{"thumbnails.timeout", c.Thumbnails.Timeout.Duration > 0},
		{"summarizer.max_tokens", c.Summarizer.MaxTokens > 0},
		{"summarizer.prompt_comments", c.Summarizer.PromptComments >= 0},
		{"summarizer.fallback_length", c.Summarizer.FallbackLength >= 0},
		{"summarizer.requests_per_minute", c.Summarizer.RequestsPerMinute >= 0},
	} {
		if !check.ok {
			return fmt.Errorf("%w: %s out of range", ErrInvalidConfig, check.name)
		}
	}

	return nil
}

// RequireKeys fails when one of the api keys the pipeline needs is absent.
func (c *Config) RequireKeys() error {
	if c.YoutubeApiKey == "" {
		return fmt.Errorf("%w: YOUTUBE_API_KEY not found, make sure it is present in your environment or .env file", ErrMissingKey)
	}
	if c.OpenAIApiKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY not found, make sure it is present in your environment or .env file", ErrMissingKey)
	}

	return nil
}

func getParam(param, def string) string {
	if val, ok := os.LookupEnv(param); ok {
		return val
	}
	return def
}
