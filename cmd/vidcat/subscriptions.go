package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/robertmeta/vidcat/model"
	"github.com/robertmeta/vidcat/opml"
	"github.com/robertmeta/vidcat/source"
	"github.com/robertmeta/vidcat/store"
)

// channelFromArg accepts a bare channel ID or a full feed URL.
func channelFromArg(arg string) *model.Channel {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return &model.Channel{ChannelID: model.ChannelIDFromFeedURL(arg), FeedURL: arg}
	}
	return &model.Channel{ChannelID: arg, FeedURL: model.FeedURLFor(arg)}
}

func subscribe(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: vidcat subscribe <channel-id|feed-url>", ExitUsageError)
	}

	channel := channelFromArg(c.Args().Get(0))
	channel.Category = c.String("category")
	channel.Title = c.String("title")

	if err := channel.Validate(); err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	// Fetch the feed to check it and to learn the channel title.
	if channel.Title == "" {
		logger := getLogger(c)
		feed := source.NewFeed(&http.Client{Timeout: httpTimeout}, []string{channel.FeedURL}, 1, logger)
		batch, err := feed.Fetch(c.Context, "")
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to fetch feed: %v", err), ExitDataError)
		}
		if len(batch.Records) > 0 {
			channel.Title = batch.Records[0].Channel
		}
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	if err := s.SaveChannel(c.Context, channel); err != nil {
		if errors.Is(err, store.ErrExists) {
			return cli.Exit(fmt.Sprintf("Already subscribed: %s", channel.FeedURL), ExitDataError)
		}
		return cli.Exit(fmt.Sprintf("Failed to save subscription: %v", err), ExitDataError)
	}

	return outputJSON(map[string]any{
		"success": true,
		"channel": channel,
	})
}

func listSubscriptions(c *cli.Context) error {
	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	channels, err := s.GetAllChannels(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get subscriptions: %v", err), ExitDataError)
	}

	return outputJSON(channels)
}

func unsubscribe(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: vidcat unsubscribe <subscription-id>", ExitUsageError)
	}

	id, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil {
		return cli.Exit("Invalid subscription ID", ExitUsageError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	if err := s.DeleteChannel(c.Context, id); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to delete subscription: %v", err), ExitDataError)
	}

	return outputJSON(map[string]any{
		"success": true,
		"id":      id,
	})
}

func importOPML(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: vidcat import-opml <opml-file>", ExitUsageError)
	}

	file, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to open OPML file: %v", err), ExitDataError)
	}
	defer file.Close()

	channels, err := opml.Parse(file)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to parse OPML: %v", err), ExitDataError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	imported, err := s.ImportChannels(c.Context, channels)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to import subscriptions: %v", err), ExitDataError)
	}

	return outputJSON(map[string]any{
		"success":  true,
		"imported": imported,
		"skipped":  len(channels) - imported,
		"total":    len(channels),
	})
}

func exportOPML(c *cli.Context) error {
	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	channels, err := s.GetAllChannels(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get subscriptions: %v", err), ExitDataError)
	}

	outputPath := c.String("output")
	var writer io.Writer

	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to create output file: %v", err), ExitDataError)
		}
		defer file.Close()
		writer = file
	}

	if err := opml.Generate(writer, channels); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to generate OPML: %v", err), ExitDataError)
	}

	if outputPath != "" {
		return outputJSON(map[string]any{
			"success": true,
			"file":    outputPath,
			"count":   len(channels),
		})
	}

	return nil
}
