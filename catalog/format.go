package catalog

import (
	"cmp"
	"fmt"
	"net/url"
	"slices"

	"github.com/robertmeta/vidcat/model"
)

// FormatDuration renders seconds as "m:ss" or "h:mm:ss". Zero renders as
// "SHORT", which is what SHORTS rows normalize to.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "SHORT"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatViews renders a view count like "1.3M views".
func FormatViews(views int64) string {
	switch {
	case views >= 1_000_000:
		return fmt.Sprintf("%.1fM views", float64(views)/1_000_000)
	case views >= 1_000:
		return fmt.Sprintf("%.1fK views", float64(views)/1_000)
	default:
		return fmt.Sprintf("%d views", views)
	}
}

// Channels returns the distinct channel names, sorted.
func Channels(videos []model.Video) []string {
	seen := make(map[string]struct{})
	channels := []string{}
	for _, v := range videos {
		if _, ok := seen[v.Channel]; ok {
			continue
		}
		seen[v.Channel] = struct{}{}
		channels = append(channels, v.Channel)
	}
	slices.Sort(channels)
	return channels
}

// TopicCounts counts videos per topic, most popular first. Ties keep
// vocabulary order with General last.
func TopicCounts(videos []model.Video) []model.TopicCount {
	counts := make(map[string]int)
	for _, v := range videos {
		for _, topic := range v.Topics {
			counts[topic]++
		}
	}

	result := []model.TopicCount{}
	for _, topic := range append(Topics(), General) {
		if n := counts[topic]; n > 0 {
			result = append(result, model.TopicCount{Topic: topic, Count: n})
		}
	}

	slices.SortStableFunc(result, func(a, b model.TopicCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return result
}

// WatchURL returns the YouTube watch page of a video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

// EmbedURL returns the embeddable player URL of a video.
func EmbedURL(id string) string {
	return "https://www.youtube.com/embed/" + url.PathEscape(id)
}
