package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/robertmeta/vidcat/catalog"
	"github.com/robertmeta/vidcat/model"
	"github.com/robertmeta/vidcat/viewer"
)

func listVideos(c *cli.Context) error {
	state, err := buildState(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid query options: %v", err), ExitUsageError)
	}

	return withViewer(c, func(v *viewer.Viewer, src *openedSource) error {
		view := v.View(state)
		return outputJSON(map[string]any{
			"source":      src.name,
			"loaded":      v.Len(),
			"has_more":    v.HasMore(),
			"state":       state,
			"total_count": view.TotalCount,
			"total_pages": view.TotalPages,
			"page":        view.Page,
			"page_size":   view.PageSize,
			"videos":      view.Videos,
		})
	})
}

func showVideo(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: vidcat show <video-id>", ExitUsageError)
	}
	id := c.Args().Get(0)

	return withViewer(c, func(v *viewer.Viewer, _ *openedSource) error {
		video, ok := v.Video(id)
		if !ok {
			return cli.Exit(fmt.Sprintf("Video not found: %s", id), ExitDataError)
		}

		return outputJSON(map[string]any{
			"video":     video,
			"duration":  catalog.FormatDuration(video.DurationSeconds),
			"views":     catalog.FormatViews(video.ViewCount),
			"watch_url": catalog.WatchURL(video.ID),
			"embed_url": catalog.EmbedURL(video.ID),
		})
	})
}

func listChannels(c *cli.Context) error {
	return withViewer(c, func(v *viewer.Viewer, _ *openedSource) error {
		return outputJSON(v.Channels())
	})
}

func listTopics(c *cli.Context) error {
	return withViewer(c, func(v *viewer.Viewer, _ *openedSource) error {
		return outputJSON(map[string]any{
			"topics":  v.Topics(),
			"presets": catalog.DurationPresets,
		})
	})
}

func exportCSV(c *cli.Context) error {
	return withViewer(c, func(v *viewer.Viewer, _ *openedSource) error {
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

		videos := v.Videos()
		if err := writeCSV(writer, videos); err != nil {
			return cli.Exit(fmt.Sprintf("Failed to write CSV: %v", err), ExitDataError)
		}

		if outputPath != "" {
			return outputJSON(map[string]any{
				"success": true,
				"file":    outputPath,
				"count":   len(videos),
			})
		}
		return nil
	})
}

// writeCSV writes videos in the header format the CSV source reads back.
// Shorts link to /shorts/ so they stay shorts on reimport.
func writeCSV(w io.Writer, videos []model.Video) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"title", "channel", "duration", "views", "url", "thumbnail"}); err != nil {
		return err
	}

	for _, video := range videos {
		var duration string
		switch {
		case video.DurationSeconds > 0:
			duration = catalog.FormatDuration(video.DurationSeconds)
		case video.IsShort:
			duration = "SHORTS"
		}

		link := catalog.WatchURL(video.ID)
		if video.IsShort {
			link = "https://www.youtube.com/shorts/" + video.ID
		}

		if err := cw.Write([]string{
			video.Title,
			video.Channel,
			duration,
			strconv.FormatInt(video.ViewCount, 10),
			link,
			video.ThumbnailURL,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
