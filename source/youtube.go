package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/robertmeta/vidcat/model"
)

// DefaultYouTubeBaseURL is the YouTube Data API v3 endpoint.
const DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTubePageSize is the number of search results requested per batch.
const YouTubePageSize = 24

// YouTubeConfig configures a YouTube source.
type YouTubeConfig struct {
	APIKey  string
	Query   string
	BaseURL string // defaults to DefaultYouTubeBaseURL
}

// YouTube is a paginated source backed by the YouTube Data API. Each batch
// is one search.list page enriched with a videos.list call for durations
// and statistics.
type YouTube struct {
	client HTTPClient
	cfg    YouTubeConfig
	logger zerolog.Logger
}

// NewYouTube creates a YouTube source.
func NewYouTube(client HTTPClient, cfg YouTubeConfig, logger zerolog.Logger) *YouTube {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYouTubeBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &YouTube{client: client, cfg: cfg, logger: logger}
}

type apiThumbnails struct {
	Medium struct {
		URL string `json:"url"`
	} `json:"medium"`
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
}

func (t apiThumbnails) url() string {
	if t.Medium.URL != "" {
		return t.Medium.URL
	}
	return t.Default.URL
}

type apiSnippet struct {
	Title        string        `json:"title"`
	ChannelTitle string        `json:"channelTitle"`
	Thumbnails   apiThumbnails `json:"thumbnails"`
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet apiSnippet `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID             string     `json:"id"`
		Snippet        apiSnippet `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch returns one page of search results. The token is the API's
// nextPageToken from the previous batch.
func (y *YouTube) Fetch(ctx context.Context, token string) (model.Batch, error) {
	if y.cfg.APIKey == "" {
		return model.Batch{}, fmt.Errorf("%w: youtube api key is not configured", ErrUnavailable)
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(YouTubePageSize))
	params.Set("q", y.cfg.Query)
	if token != "" {
		params.Set("pageToken", token)
	}

	var search searchResponse
	if err := y.call(ctx, "search", params, &search); err != nil {
		return model.Batch{}, err
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}

	records := make([]model.RawRecord, 0, len(ids))
	if len(ids) > 0 {
		details, err := y.details(ctx, ids)
		if err != nil {
			return model.Batch{}, err
		}

		for _, item := range search.Items {
			id := item.ID.VideoID
			if id == "" {
				continue
			}
			record, ok := details[id]
			if !ok {
				// Deleted between the two calls; keep what search returned.
				record = model.RawRecord{
					Origin:    model.OriginAPI,
					ID:        id,
					Title:     item.Snippet.Title,
					Channel:   item.Snippet.ChannelTitle,
					Thumbnail: item.Snippet.Thumbnails.url(),
				}
			}
			records = append(records, record)
		}
	}

	y.logger.Debug().
		Str("query", y.cfg.Query).
		Int("records", len(records)).
		Bool("has_more", search.NextPageToken != "").
		Msg("youtube page fetched")

	return model.Batch{Records: records, NextToken: search.NextPageToken}, nil
}

// details looks up duration and statistics for ids.
func (y *YouTube) details(ctx context.Context, ids []string) (map[string]model.RawRecord, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", strings.Join(ids, ","))

	var resp videosResponse
	if err := y.call(ctx, "videos", params, &resp); err != nil {
		return nil, err
	}

	records := make(map[string]model.RawRecord, len(resp.Items))
	for _, item := range resp.Items {
		records[item.ID] = model.RawRecord{
			Origin:    model.OriginAPI,
			ID:        item.ID,
			Title:     item.Snippet.Title,
			Channel:   item.Snippet.ChannelTitle,
			Duration:  item.ContentDetails.Duration,
			Views:     item.Statistics.ViewCount,
			Likes:     item.Statistics.LikeCount,
			Thumbnail: item.Snippet.Thumbnails.url(),
		}
	}
	return records, nil
}

// call performs a GET against an API resource and decodes the JSON body.
func (y *YouTube) call(ctx context.Context, resource string, params url.Values, out any) error {
	params.Set("key", y.cfg.APIKey)
	endpoint := y.cfg.BaseURL + "/" + resource + "?" + params.Encode()

	body, err := get(ctx, y.client, endpoint)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) {
			var apiErr apiError
			if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
				return fmt.Errorf("youtube %s: %w: %s", resource, err, apiErr.Error.Message)
			}
		}
		return fmt.Errorf("youtube %s: %w", resource, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("youtube %s: %w", resource, unavailable("decode response", err))
	}
	return nil
}
