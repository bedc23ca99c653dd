package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/robertmeta/vidcat/catalog"
	"github.com/robertmeta/vidcat/config"
	"github.com/robertmeta/vidcat/logging"
	"github.com/robertmeta/vidcat/source"
	"github.com/robertmeta/vidcat/store"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitUsageError)
	}

	if err := newApp(cfg).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:    "vidcat",
		Usage:   "A scriptable disc golf video catalog",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Value:   getDefaultDBPath(cfg),
				Usage:   "Database file path",
				EnvVars: []string{"VIDCAT_DB"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   cfg.LogLevel,
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Load videos from a CSV file or URL",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Value:   cfg.YouTubeAPIKey,
				Usage:   "YouTube Data API key",
				EnvVars: []string{"YOUTUBE_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Value:   cfg.Query,
				Usage:   "YouTube search query",
				EnvVars: []string{"VIDCAT_QUERY"},
			},
			&cli.BoolFlag{
				Name:  "feeds",
				Usage: "Load videos from the feeds of subscribed channels",
			},
			&cli.IntFlag{
				Name:  "feed-group",
				Value: source.DefaultFeedGroupSize,
				Usage: "Channel feeds fetched per batch",
			},
			&cli.StringFlag{
				Name:  "dataset",
				Usage: "Load videos from a stored dataset",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List videos (filtered, sorted, paginated)",
				Flags:  append(queryFlags(cfg), loadFlags()...),
				Action: listVideos,
			},
			{
				Name:      "show",
				Usage:     "Show video details",
				ArgsUsage: "<video-id>",
				Flags:     loadFlags(),
				Action:    showVideo,
			},
			{
				Name:   "channels",
				Usage:  "List channels of the loaded videos",
				Flags:  loadFlags(),
				Action: listChannels,
			},
			{
				Name:   "topics",
				Usage:  "List topics with video counts",
				Flags:  loadFlags(),
				Action: listTopics,
			},
			{
				Name:  "import",
				Usage: "Fetch videos from the source and store them as a dataset",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Dataset name",
						Required: true,
					},
				}, loadFlags()...),
				Action: importDataset,
			},
			{
				Name:  "export",
				Usage: "Export loaded videos as CSV",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				}, loadFlags()...),
				Action: exportCSV,
			},
			{
				Name:   "datasets",
				Usage:  "List stored datasets",
				Action: listDatasets,
			},
			{
				Name:      "remove-dataset",
				Usage:     "Remove a stored dataset",
				ArgsUsage: "<name>",
				Action:    removeDataset,
			},
			{
				Name:      "subscribe",
				Usage:     "Subscribe to a YouTube channel feed",
				ArgsUsage: "<channel-id|feed-url>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "category",
						Aliases: []string{"c"},
						Usage:   "Channel category",
					},
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Channel title (default: taken from the feed)",
					},
				},
				Action: subscribe,
			},
			{
				Name:   "subscriptions",
				Usage:  "List subscribed channels",
				Action: listSubscriptions,
			},
			{
				Name:      "unsubscribe",
				Usage:     "Remove a channel subscription",
				ArgsUsage: "<subscription-id>",
				Action:    unsubscribe,
			},
			{
				Name:      "import-opml",
				Usage:     "Import channel subscriptions from an OPML file",
				ArgsUsage: "<opml-file>",
				Action:    importOPML,
			},
			{
				Name:  "export-opml",
				Usage: "Export channel subscriptions to OPML",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
				Action: exportOPML,
			},
			{
				Name:  "serve",
				Usage: "Serve the catalog over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "listen",
						Aliases: []string{"l"},
						Value:   cfg.Listen,
						Usage:   "Listen address",
						EnvVars: []string{"VIDCAT_LISTEN"},
					},
					&cli.StringFlag{
						Name:    "cors-origins",
						Value:   cfg.CORSOrigins,
						Usage:   "Comma-separated allowed origins, or *",
						EnvVars: []string{"CORS_ORIGINS"},
					},
					&cli.IntFlag{
						Name:  "page-size",
						Value: cfg.PageSize,
						Usage: "Default videos per page",
					},
				},
				Action: serve,
			},
		},
	}
}

// queryFlags are the filter, sort and page flags of list.
func queryFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Search titles and channels",
		},
		&cli.StringSliceFlag{
			Name:    "channel",
			Aliases: []string{"c"},
			Usage:   "Only these channels (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:    "topic",
			Aliases: []string{"t"},
			Usage:   "Only videos with any of these topics (repeatable)",
		},
		&cli.StringFlag{
			Name:  "type",
			Usage: "Video type: short, long or all",
		},
		&cli.StringFlag{
			Name:  "min",
			Usage: "Minimum duration (e.g., 90s, 5m, 1h)",
		},
		&cli.StringFlag{
			Name:  "max",
			Usage: "Maximum duration (e.g., 90s, 5m, 1h)",
		},
		&cli.StringFlag{
			Name:  "length",
			Usage: "Duration preset: under5, 5to10, 10to20 or over20",
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "Sort by views, duration, title or channel",
		},
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Sort direction: asc or desc",
		},
		&cli.IntFlag{
			Name:  "page",
			Value: 1,
			Usage: "Page number",
		},
		&cli.IntFlag{
			Name:  "size",
			Value: cfg.PageSize,
			Usage: "Videos per page",
		},
	}
}

// loadFlags control how much of a paginated source is fetched.
func loadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "pages",
			Value: 1,
			Usage: "Number of source batches to load",
		},
	}
}

func getDefaultDBPath(cfg *config.Config) string {
	if cfg.DatabasePath != "" {
		return cfg.DatabasePath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "vidcat.db"
	}
	return filepath.Join(home, ".config", "vidcat", "vidcat.db")
}

func getStore(c *cli.Context) (*store.Store, error) {
	dbPath := c.String("db")

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return s, nil
}

// getLogger logs to stderr so stdout stays machine-readable.
func getLogger(c *cli.Context) zerolog.Logger {
	return logging.New(c.String("log-level"), "vidcat", os.Stderr)
}

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func buildState(c *cli.Context) (catalog.State, error) {
	criteria, err := catalog.BuildCriteria(catalog.QueryInput{
		Search:   c.String("search"),
		Channels: c.StringSlice("channel"),
		Topics:   c.StringSlice("topic"),
		Type:     c.String("type"),
		Min:      c.String("min"),
		Max:      c.String("max"),
		Length:   c.String("length"),
	})
	if err != nil {
		return catalog.State{}, err
	}

	spec, err := catalog.ParseSortSpec(c.String("sort"), c.String("dir"))
	if err != nil {
		return catalog.State{}, err
	}

	if c.Int("page") < 1 {
		return catalog.State{}, fmt.Errorf("page must be at least 1")
	}
	if c.Int("size") < 1 {
		return catalog.State{}, fmt.Errorf("size must be at least 1")
	}

	state := catalog.NewState().WithCriteria(criteria).WithSort(spec).WithPage(c.Int("page"))
	state.Page.Size = c.Int("size")
	return state, nil
}
