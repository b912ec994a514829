package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ewintr.nl/trendai/config"
	"ewintr.nl/trendai/fetcher"
	"ewintr.nl/trendai/handler"
	"ewintr.nl/trendai/process"
	"ewintr.nl/trendai/storage"
	"github.com/google/uuid"
	kyoutube "github.com/kkdai/youtube/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type app struct {
	in          io.Reader
	out         io.Writer
	configPath  string
	mode        string
	resetSchema bool
	conf        *config.Config
	logger      *slog.Logger
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out}

	rootCmd := &cobra.Command{
		Use:           "trendai",
		Short:         "Collect trending videos and write SEO summaries for them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a TOML config file")

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect the trending videos of all regions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.report(a.collect(cmd.Context()))
		},
	}
	summarizeCmd := &cobra.Command{
		Use:   "summarize",
		Short: "Generate an SEO summary for every collected video",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.report(a.summarize(cmd.Context()))
		},
	}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Collect, then summarize",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.collect(cmd.Context()); err != nil {
				return a.report(err)
			}
			if cmd.Context().Err() != nil {
				return nil
			}
			return a.report(a.summarize(cmd.Context()))
		},
	}
	for _, cmd := range []*cobra.Command{collectCmd, runCmd} {
		cmd.Flags().StringVar(&a.mode, "mode", "", "what to do with an existing metadata file: overwrite, append or skip")
	}
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Store videos and summaries in postgres and weaviate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.report(a.publish(cmd.Context()))
		},
	}
	publishCmd.Flags().BoolVar(&a.resetSchema, "reset-schema", false, "drop the weaviate class and its objects before publishing")
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collected videos and summaries over http",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.report(a.serve(cmd.Context()))
		},
	}
	rootCmd.AddCommand(collectCmd, summarizeCmd, runCmd, publishCmd, serveCmd)

	return rootCmd
}

func (a *app) setup(logOut io.Writer) error {
	a.logger = slog.New(slog.NewTextHandler(logOut, nil)).With(slog.String("run", uuid.New().String()))
	conf, err := config.Load(a.configPath)
	if err != nil {
		a.logger.Error("unable to load config", slog.String("error", err.Error()))
		return err
	}
	a.conf = conf

	return nil
}

// report logs err and hands it back for the exit code.
func (a *app) report(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNoMetadata):
		a.logger.Error("there is no metadata file, please run the collect command first to generate it", slog.String("path", a.conf.Collector.MetadataPath))
	default:
		a.logger.Error("stopped with an error", slog.String("error", err.Error()))
	}

	return err
}

func (a *app) collect(ctx context.Context) error {
	if err := a.conf.RequireKeys(); err != nil {
		return err
	}

	ytClient, err := youtube.NewService(ctx, option.WithAPIKey(a.conf.YoutubeApiKey))
	if err != nil {
		return fmt.Errorf("unable to create youtube service: %w", err)
	}
	httpClient := &http.Client{Timeout: a.conf.Thumbnails.Timeout.Duration}
	yt := fetcher.NewYoutube(ytClient, httpClient, a.conf.YoutubeApiKey)
	transcripts := fetcher.NewTranscripts(&kyoutube.Client{HTTPClient: &http.Client{}})
	thumbnails := fetcher.NewThumbnailDownloader(httpClient, fetcher.ThumbnailInfo{
		Dir:         a.conf.Thumbnails.Dir,
		URLPrefix:   a.conf.Thumbnails.URLPrefix,
		Width:       a.conf.Thumbnails.Width,
		Height:      a.conf.Thumbnails.Height,
		JPEGQuality: a.conf.Thumbnails.JPEGQuality,
	})
	videoRepo := storage.NewMetadataFile(a.conf.Collector.MetadataPath)

	mode, err := a.collectMode(videoRepo)
	if err != nil {
		return err
	}

	collector := fetcher.NewCollector(fetcher.CollectorInfo{
		Regions:             a.conf.Collector.Regions,
		MaxResultsPerRegion: a.conf.Collector.MaxResultsPerRegion,
		MaxComments:         a.conf.Collector.MaxComments,
		TranscriptLanguages: a.conf.Collector.TranscriptLanguages,
		RegionPause:         a.conf.Collector.RegionPause.Duration,
	}, yt, yt, transcripts, thumbnails, videoRepo, a.logger)

	return collector.Run(ctx, mode)
}

// collectMode only asks the operator when there is a file to lose.
func (a *app) collectMode(videoRepo storage.VideoRepository) (fetcher.Mode, error) {
	exists, err := videoRepo.Exists()
	if err != nil {
		return "", fmt.Errorf("could not check metadata file: %w", err)
	}
	if !exists {
		return fetcher.ModeOverwrite, nil
	}

	var mode fetcher.Mode
	var ok bool
	if a.mode != "" {
		mode, ok = fetcher.ParseMode(a.mode)
	} else {
		mode, ok = fetcher.AskMode(a.in, a.out, a.conf.Collector.MetadataPath)
	}
	if !ok {
		a.logger.Warn("invalid option, defaulting to overwrite")
	}

	return mode, nil
}

func (a *app) summarize(ctx context.Context) error {
	if err := a.conf.RequireKeys(); err != nil {
		return err
	}

	openAI := process.NewOpenAI(openai.NewClient(a.conf.OpenAIApiKey), process.OpenAIInfo{
		Model:             a.conf.Summarizer.Model,
		Temperature:       a.conf.Summarizer.Temperature,
		MaxTokens:         a.conf.Summarizer.MaxTokens,
		PromptComments:    a.conf.Summarizer.PromptComments,
		FallbackLength:    a.conf.Summarizer.FallbackLength,
		RequestsPerMinute: a.conf.Summarizer.RequestsPerMinute,
	}, a.logger)
	summarizer := process.NewSummarizer(
		storage.NewMetadataFile(a.conf.Collector.MetadataPath),
		storage.NewSummaryDir(a.conf.Summarizer.OutputDir),
		openAI,
		a.logger,
	)

	return summarizer.Run(ctx)
}

func (a *app) publish(ctx context.Context) error {
	postgres, err := storage.NewPostgres(storage.PostgresInfo{
		Host:     a.conf.Postgres.Host,
		Port:     a.conf.Postgres.Port,
		User:     a.conf.Postgres.User,
		Password: a.conf.Postgres.Password,
		Database: a.conf.Postgres.Database,
	})
	if err != nil {
		return fmt.Errorf("unable to connect to postgres: %w", err)
	}
	defer postgres.Close()
	catalogs := []storage.Catalog{postgres}

	if a.conf.Weaviate.Host != "" {
		wv, err := storage.NewWeaviate(a.conf.Weaviate.Host, a.conf.Weaviate.ApiKey, a.conf.OpenAIApiKey)
		if err != nil {
			return fmt.Errorf("unable to create weaviate client: %w", err)
		}
		if a.resetSchema {
			err = wv.ResetSchema(ctx)
		} else {
			err = wv.EnsureSchema(ctx)
		}
		if err != nil {
			return fmt.Errorf("unable to prepare weaviate schema: %w", err)
		}
		catalogs = append(catalogs, wv)
	}

	publisher := process.NewPublisher(
		storage.NewMetadataFile(a.conf.Collector.MetadataPath),
		storage.NewSummaryDir(a.conf.Summarizer.OutputDir),
		catalogs,
		a.logger,
	)

	return publisher.Run(ctx)
}

func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", a.conf.ApiPort),
		Handler: handler.NewServer(
			storage.NewMetadataFile(a.conf.Collector.MetadataPath),
			storage.NewSummaryDir(a.conf.Summarizer.OutputDir),
			a.logger,
		),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	a.logger.Info("http server started", slog.Int("port", a.conf.ApiPort))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("service stopped")

	return nil
}

