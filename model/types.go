// Package model defines the core data structures for vidcat.
package model

import (
	"errors"
	"net/url"
	"slices"
	"time"
)

// Origin tags which data source produced a RawRecord.
type Origin string

// Supported record origins.
const (
	OriginCSV  Origin = "csv"
	OriginAPI  Origin = "api"
	OriginFeed Origin = "feed"
)

// RawRecord is a video record as handed over by a data source, before
// normalization. Which fields are meaningful depends on Origin:
//
//   - csv: Title, Channel, Duration ("12:38", "1:02:03" or "SHORTS"),
//     Views ("1.3M"), and optionally ID and Thumbnail.
//   - api: ID, Title, Channel, Duration (ISO-8601), Views and Likes
//     (integer strings), Thumbnail.
//   - feed: ID, Title, Channel, Views, Thumbnail and Short.
type RawRecord struct {
	Origin    Origin `json:"origin"`
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Duration  string `json:"duration,omitempty"`
	Views     string `json:"views,omitempty"`
	Likes     string `json:"likes,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Short     bool   `json:"short,omitempty"`
}

// Video is the canonical catalog entry. It is built once by the normalizer
// and never modified afterwards.
type Video struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Channel         string   `json:"channel"`
	DurationSeconds int      `json:"duration_seconds"`
	ViewCount       int64    `json:"view_count"`
	IsShort         bool     `json:"is_short"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	Topics          []string `json:"topics"`
	LikeCount       *int64   `json:"like_count,omitempty"`
}

// HasTopic checks if the video is tagged with the given topic.
func (v *Video) HasTopic(topic string) bool {
	return slices.Contains(v.Topics, topic)
}

// FilterCriteria selects a subset of videos. Zero values mean
// "no constraint" for every field.
type FilterCriteria struct {
	SearchText         string   `json:"search,omitempty"`
	Channels           []string `json:"channels,omitempty"`
	Short              *bool    `json:"short,omitempty"`
	MinDurationSeconds *int     `json:"min_duration,omitempty"`
	MaxDurationSeconds *int     `json:"max_duration,omitempty"`
	Topics             []string `json:"topics,omitempty"`
}

// IsEmpty reports whether the criteria match every video.
func (c FilterCriteria) IsEmpty() bool {
	return c.SearchText == "" &&
		len(c.Channels) == 0 &&
		c.Short == nil &&
		c.MinDurationSeconds == nil &&
		c.MaxDurationSeconds == nil &&
		len(c.Topics) == 0
}

// SortKey names the field videos are ordered by.
type SortKey string

// Supported sort keys.
const (
	SortByViews    SortKey = "views"
	SortByDuration SortKey = "duration"
	SortByTitle    SortKey = "title"
	SortByChannel  SortKey = "channel"
)

// SortDirection is ascending or descending.
type SortDirection string

// Supported sort directions.
const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortSpec describes how to order videos.
type SortSpec struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// PageState selects one page of a result set. Number starts at 1.
type PageState struct {
	Size   int `json:"size"`
	Number int `json:"number"`
}

// Batch is one response from a data source. An empty NextToken means the
// source is exhausted.
type Batch struct {
	Records   []RawRecord `json:"records"`
	NextToken string      `json:"next_token,omitempty"`
}

// View is the derived, paginated result handed to the presentation layer.
type View struct {
	Videos     []Video `json:"videos"`
	TotalCount int     `json:"total_count"`
	TotalPages int     `json:"total_pages"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
}

// TopicCount is the number of videos tagged with a topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Channel is a subscribed YouTube channel whose feed can be used as a
// data source.
type Channel struct {
	ID        int64  `json:"id"`
	ChannelID string `json:"channel_id,omitempty"`
	Title     string `json:"title"`
	FeedURL   string `json:"feed_url"`
	Category  string `json:"category,omitempty"`
}

// Validate checks if the channel has required fields.
func (c *Channel) Validate() error {
	if c.FeedURL == "" {
		return errors.New("channel feed URL is required")
	}
	return nil
}

// FeedURLFor returns the Atom feed URL of a YouTube channel.
func FeedURLFor(channelID string) string {
	return "https://www.youtube.com/feeds/videos.xml?channel_id=" + url.QueryEscape(channelID)
}

// ChannelIDFromFeedURL returns the channel_id query parameter of a YouTube
// feed URL, or "" when there is none.
func ChannelIDFromFeedURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("channel_id")
}

// Dataset is a named snapshot of raw records kept in the local library.
type Dataset struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
