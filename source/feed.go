package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/rs/zerolog"

	"github.com/robertmeta/vidcat/model"
)

const (
	// DefaultFeedGroupSize is the number of channel feeds fetched per batch.
	DefaultFeedGroupSize = 10

	maxConcurrentFeeds = 8
)

// Feed is a paginated source over YouTube channel Atom feeds. Each batch
// covers the next group of channels; the continuation token is the offset
// of the group that follows.
type Feed struct {
	client    HTTPClient
	urls      []string
	groupSize int
	logger    zerolog.Logger
}

// NewFeed creates a feed source over the given channel feed URLs.
// groupSize <= 0 selects DefaultFeedGroupSize.
func NewFeed(client HTTPClient, urls []string, groupSize int, logger zerolog.Logger) *Feed {
	if groupSize <= 0 {
		groupSize = DefaultFeedGroupSize
	}
	return &Feed{
		client:    client,
		urls:      urls,
		groupSize: groupSize,
		logger:    logger,
	}
}

// Fetch downloads the next group of feeds concurrently. Records keep
// channel order. If any feed fails the whole batch fails.
func (f *Feed) Fetch(ctx context.Context, token string) (model.Batch, error) {
	offset := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(f.urls) {
			return model.Batch{}, fmt.Errorf("invalid feed continuation token: %q", token)
		}
		offset = n
	}

	end := min(offset+f.groupSize, len(f.urls))
	group := f.urls[offset:end]

	results := make([][]model.RawRecord, len(group))
	errs := make([]error, len(group))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentFeeds)

	for i, feedURL := range group {
		wg.Add(1)
		go func(i int, feedURL string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i], errs[i] = f.fetchChannel(ctx, feedURL)
		}(i, feedURL)
	}
	wg.Wait()

	records := []model.RawRecord{}
	for i := range group {
		if errs[i] != nil {
			return model.Batch{}, errs[i]
		}
		records = append(records, results[i]...)
	}

	batch := model.Batch{Records: records}
	if end < len(f.urls) {
		batch.NextToken = strconv.Itoa(end)
	}

	f.logger.Debug().
		Int("channels", len(group)).
		Int("records", len(records)).
		Str("next", batch.NextToken).
		Msg("feeds fetched")

	return batch, nil
}

// fetchChannel retrieves and parses one channel feed.
func (f *Feed) fetchChannel(ctx context.Context, feedURL string) ([]model.RawRecord, error) {
	body, err := get(ctx, f.client, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed from %s: %w", feedURL, err)
	}

	records, err := ParseFeed(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed from %s: %w", feedURL, err)
	}
	return records, nil
}

// ParseFeed parses a YouTube channel Atom feed into raw records.
func ParseFeed(r io.Reader) ([]model.RawRecord, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, unavailable("parse feed", err)
	}

	records := make([]model.RawRecord, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		record := convertItem(item, parsed.Title)
		if record.ID == "" || record.Title == "" {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// convertItem converts a gofeed.Item to a model.RawRecord.
func convertItem(item *gofeed.Item, feedTitle string) model.RawRecord {
	record := model.RawRecord{
		Origin:  model.OriginFeed,
		ID:      extensionValue(item.Extensions, "yt", "videoId"),
		Title:   item.Title,
		Channel: feedTitle,
	}

	if len(item.Authors) > 0 && item.Authors[0].Name != "" {
		record.Channel = item.Authors[0].Name
	}

	linkID, short := VideoIDFromURL(item.Link)
	record.Short = short
	if record.ID == "" {
		record.ID = linkID
	}
	if record.ID == "" && strings.HasPrefix(item.GUID, "yt:video:") {
		record.ID = strings.TrimPrefix(item.GUID, "yt:video:")
	}

	if group := firstExtension(item.Extensions["media"]["group"]); group != nil {
		if thumb := firstExtension(group.Children["thumbnail"]); thumb != nil {
			record.Thumbnail = thumb.Attrs["url"]
		}
		if community := firstExtension(group.Children["community"]); community != nil {
			if stats := firstExtension(community.Children["statistics"]); stats != nil {
				record.Views = stats.Attrs["views"]
			}
		}
	}

	return record
}

func extensionValue(extensions ext.Extensions, prefix, name string) string {
	if e := firstExtension(extensions[prefix][name]); e != nil {
		return strings.TrimSpace(e.Value)
	}
	return ""
}

func firstExtension(list []ext.Extension) *ext.Extension {
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}
