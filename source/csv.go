package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/robertmeta/vidcat/model"
)

// CSV is a static source backed by a CSV export, either a local file or an
// HTTP URL. It delivers every row in a single batch.
type CSV struct {
	location string
	read     func(ctx context.Context) ([]byte, error)
	logger   zerolog.Logger
}

// NewCSVFile creates a CSV source reading the file at path.
func NewCSVFile(path string, logger zerolog.Logger) *CSV {
	return &CSV{
		location: path,
		read: func(context.Context) ([]byte, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, unavailable("read csv", err)
			}
			return data, nil
		},
		logger: logger,
	}
}

// NewCSVURL creates a CSV source downloading the export from rawURL.
func NewCSVURL(client HTTPClient, rawURL string, logger zerolog.Logger) *CSV {
	return &CSV{
		location: rawURL,
		read: func(ctx context.Context) ([]byte, error) {
			return get(ctx, client, rawURL)
		},
		logger: logger,
	}
}

// Fetch reads the whole export. The token is ignored and the returned batch
// never has a continuation.
func (c *CSV) Fetch(ctx context.Context, _ string) (model.Batch, error) {
	data, err := c.read(ctx)
	if err != nil {
		return model.Batch{}, fmt.Errorf("fetch %s: %w", c.location, err)
	}

	records, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return model.Batch{}, fmt.Errorf("fetch %s: %w", c.location, err)
	}

	c.logger.Debug().Str("location", c.location).Int("records", len(records)).Msg("csv loaded")
	return model.Batch{Records: records}, nil
}

// csvColumns maps lower-cased header names to record fields.
var csvColumns = map[string]string{
	"title":         "title",
	"channel":       "channel",
	"channel_title": "channel",
	"duration":      "duration",
	"views":         "views",
	"view_count":    "views",
	"videoid":       "id",
	"video_id":      "id",
	"id":            "id",
	"url":           "url",
	"thumbnail":     "thumbnail",
	"thumbnailurl":  "thumbnail",
	"thumbnail_url": "thumbnail",
}

// positionalColumns is the column order of an export without a header row.
var positionalColumns = []string{"title", "channel", "duration", "views"}

// ParseCSV reads CSV records. A header row naming at least "title" selects
// columns by name; otherwise columns are read as title, channel, duration,
// views. Rows without a title are skipped.
func ParseCSV(r io.Reader) ([]model.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, unavailable("parse csv", err)
	}
	if len(rows) == 0 {
		return []model.RawRecord{}, nil
	}

	columns, hasHeader := headerColumns(rows[0])
	if hasHeader {
		rows = rows[1:]
	}

	records := make([]model.RawRecord, 0, len(rows))
	for _, row := range rows {
		record := model.RawRecord{Origin: model.OriginCSV}
		for i, value := range row {
			if i >= len(columns) {
				break
			}
			value = strings.TrimSpace(value)
			switch columns[i] {
			case "title":
				record.Title = value
			case "channel":
				record.Channel = value
			case "duration":
				record.Duration = value
			case "views":
				record.Views = value
			case "id":
				if value != "" {
					record.ID = value
				}
			case "url":
				id, short := VideoIDFromURL(value)
				if record.ID == "" {
					record.ID = id
				}
				record.Short = record.Short || short
			case "thumbnail":
				record.Thumbnail = value
			}
		}

		if record.Title == "" {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// headerColumns interprets the first row as a header when it names a title
// column.
func headerColumns(row []string) ([]string, bool) {
	columns := make([]string, len(row))
	hasTitle := false
	for i, name := range row {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[i] = csvColumns[name]
		if columns[i] == "title" {
			hasTitle = true
		}
	}
	if !hasTitle {
		return positionalColumns, false
	}
	return columns, true
}

// VideoIDFromURL extracts the video ID from a YouTube watch, youtu.be,
// embed or shorts URL. The second result reports a shorts URL.
func VideoIDFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	if id := u.Query().Get("v"); id != "" {
		return id, false
	}

	path := strings.Trim(u.Path, "/")
	switch {
	case strings.HasPrefix(path, "shorts/"):
		return firstSegment(strings.TrimPrefix(path, "shorts/")), true
	case strings.HasPrefix(path, "embed/"):
		return firstSegment(strings.TrimPrefix(path, "embed/")), false
	case u.Hostname() == "youtu.be":
		return firstSegment(path), false
	}
	return "", false
}

func firstSegment(path string) string {
	segment, _, _ := strings.Cut(path, "/")
	return segment
}
