package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/robertmeta/vidcat/source"
	"github.com/robertmeta/vidcat/store"
	"github.com/robertmeta/vidcat/viewer"
)

const httpTimeout = 30 * time.Second

// openedSource is the data source selected by the global flags.
type openedSource struct {
	source.Source
	name  string
	store *store.Store
}

func (o *openedSource) Close() {
	if o.store != nil {
		o.store.Close()
	}
}

// openSource picks the source from the global flags: --dataset, --csv,
// --feeds, or the YouTube API when none of them is set. Returned errors
// are already cli exit errors.
func openSource(c *cli.Context, logger zerolog.Logger) (*openedSource, error) {
	csvLocation := c.String("csv")
	dataset := c.String("dataset")
	feeds := c.Bool("feeds")

	selected := 0
	for _, set := range []bool{csvLocation != "", dataset != "", feeds} {
		if set {
			selected++
		}
	}
	if selected > 1 {
		return nil, cli.Exit("--csv, --dataset and --feeds are mutually exclusive", ExitUsageError)
	}

	client := &http.Client{Timeout: httpTimeout}

	switch {
	case dataset != "":
		s, err := getStore(c)
		if err != nil {
			return nil, cli.Exit(err.Error(), ExitDataError)
		}
		return &openedSource{Source: s.Dataset(dataset), name: "dataset:" + dataset, store: s}, nil

	case csvLocation != "":
		if strings.HasPrefix(csvLocation, "http://") || strings.HasPrefix(csvLocation, "https://") {
			return &openedSource{Source: source.NewCSVURL(client, csvLocation, logger), name: "csv:" + csvLocation}, nil
		}
		return &openedSource{Source: source.NewCSVFile(csvLocation, logger), name: "csv:" + csvLocation}, nil

	case feeds:
		s, err := getStore(c)
		if err != nil {
			return nil, cli.Exit(err.Error(), ExitDataError)
		}
		defer s.Close()

		urls, err := s.FeedURLs(c.Context)
		if err != nil {
			return nil, cli.Exit(fmt.Sprintf("Failed to get subscriptions: %v", err), ExitDataError)
		}
		if len(urls) == 0 {
			return nil, cli.Exit("No subscriptions; add channels with 'vidcat subscribe'", ExitDataError)
		}
		return &openedSource{
			Source: source.NewFeed(client, urls, c.Int("feed-group"), logger),
			name:   "feeds",
		}, nil

	default:
		apiKey := c.String("api-key")
		if apiKey == "" {
			return nil, cli.Exit("No source: use --csv, --dataset, --feeds or set YOUTUBE_API_KEY", ExitUsageError)
		}
		return &openedSource{
			Source: source.NewYouTube(client, source.YouTubeConfig{
				APIKey: apiKey,
				Query:  c.String("query"),
			}, logger),
			name: "youtube:" + c.String("query"),
		}, nil
	}
}

// loadViewer loads up to pages batches into a new viewer. Running out of
// batches early is not an error.
func loadViewer(ctx context.Context, src source.Source, pages int, logger zerolog.Logger) (*viewer.Viewer, error) {
	v := viewer.New(src, logger)
	if err := v.Load(ctx); err != nil {
		return nil, err
	}

	for i := 1; i < pages; i++ {
		_, err := v.LoadMore(ctx)
		if errors.Is(err, viewer.ErrExhausted) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return v, nil
}

// withViewer opens the selected source, loads it and hands the viewer to fn.
func withViewer(c *cli.Context, fn func(v *viewer.Viewer, src *openedSource) error) error {
	logger := getLogger(c)

	src, err := openSource(c, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	v, err := loadViewer(c.Context, src, c.Int("pages"), logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to load videos: %v", err), ExitDataError)
	}

	return fn(v, src)
}
