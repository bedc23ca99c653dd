// Package catalog implements the pure video pipeline: normalization, topic
// classification, filtering, sorting and pagination.
//
// Every function in this package is deterministic, never mutates its input
// and never fails: malformed text degrades to zero values so partial data
// still renders.
package catalog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/robertmeta/vidcat/model"
)

// ShortsMarker is the literal duration exported for YouTube Shorts rows.
const ShortsMarker = "SHORTS"

// thumbnailTemplate is filled with a video ID to build a thumbnail URL.
const thumbnailTemplate = "https://img.youtube.com/vi/%s/mqdefault.jpg"

// isoDurationPattern matches ISO-8601 durations like "PT1H2M3S" or "P1DT2H".
var isoDurationPattern = regexp.MustCompile(`^P(?:(\d{1,9})D)?(?:T(?:(\d{1,9})H)?(?:(\d{1,9})M)?(?:(\d{1,9})S)?)?$`)

// viewsPattern matches a mantissa with an optional K/M/B unit, e.g. "1.3M views".
var viewsPattern = regexp.MustCompile(`^([\d.,]+)\s*([KkMmBb])?`)

// ParseDuration converts a duration string to seconds. It accepts "mm:ss",
// "hh:mm:ss", ISO-8601 ("PT12M38S") and the "SHORTS" literal. The second
// result reports the SHORTS literal.
//
// A SHORTS row has no real duration, so it maps to 0 seconds. API durations
// under a minute keep their real length instead; the two conventions differ
// on purpose and Normalize marks both as short.
//
// Unparseable input returns 0.
func ParseDuration(s string) (int, bool) {
	seconds, short, _ := parseDuration(s)
	return seconds, short
}

// parseDuration is ParseDuration plus whether the input was recognised.
func parseDuration(s string) (seconds int, short bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, false
	}
	if s == ShortsMarker {
		return 0, true, true
	}

	if strings.HasPrefix(s, "P") {
		matches := isoDurationPattern.FindStringSubmatch(s)
		if matches == nil {
			return 0, false, false
		}
		// Days, hours, minutes, seconds; absent parts count as zero.
		units := []int{86400, 3600, 60, 1}
		total := 0
		for i, unit := range units {
			if matches[i+1] == "" {
				continue
			}
			n, err := strconv.Atoi(matches[i+1])
			if err != nil {
				return 0, false, false
			}
			total += n * unit
		}
		return total, false, true
	}

	parts := strings.Split(s, ":")
	var units []int
	switch len(parts) {
	case 2:
		units = []int{60, 1}
	case 3:
		units = []int{3600, 60, 1}
	default:
		return 0, false, false
	}

	total := 0
	for i, part := range parts {
		n, ok := parseUint(part)
		if !ok {
			return 0, false, false
		}
		total += n * units[i]
	}
	return total, false, true
}

// parseUint parses a plain run of decimal digits.
func parseUint(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 9 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseViews converts a view count like "950", "12,345" or "1.3M views" to
// a number. Only the leading decimal number counts, so "1.2.3M" reads as
// 1.2M. Unparseable input returns 0.
//
// Supported units (case-insensitive):
//   - K: thousands
//   - M: millions
//   - B: billions
func ParseViews(s string) int64 {
	matches := viewsPattern.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return 0
	}

	num, err := strconv.ParseFloat(numericPrefix(strings.ReplaceAll(matches[1], ",", "")), 64)
	if err != nil || num < 0 {
		return 0
	}

	switch strings.ToUpper(matches[2]) {
	case "K":
		num *= 1e3
	case "M":
		num *= 1e6
	case "B":
		num *= 1e9
	}

	num = math.Round(num)
	if num >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(num)
}

// numericPrefix returns the longest prefix of s that is a decimal number
// with at most one point.
func numericPrefix(s string) string {
	end := 0
	seenPoint := false
	for i, r := range s {
		if r == '.' {
			if seenPoint {
				break
			}
			seenPoint = true
		} else if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}
	return strings.TrimSuffix(s[:end], ".")
}

// ThumbnailURL returns the medium-quality thumbnail URL for a video ID.
func ThumbnailURL(id string) string {
	return fmt.Sprintf(thumbnailTemplate, id)
}

// Normalize converts a raw record into a Video, including its topics.
func Normalize(raw model.RawRecord) model.Video {
	seconds, literal, recognised := parseDuration(raw.Duration)

	video := model.Video{
		ID:              strings.TrimSpace(raw.ID),
		Title:           raw.Title,
		Channel:         raw.Channel,
		DurationSeconds: seconds,
		ViewCount:       ParseViews(raw.Views),
		IsShort:         raw.Short || literal,
		ThumbnailURL:    strings.TrimSpace(raw.Thumbnail),
		Topics:          Classify(raw.Title),
	}

	// The API reports real durations, so anything under a minute is a Short.
	if raw.Origin == model.OriginAPI && recognised && seconds < 60 {
		video.IsShort = true
	}

	if video.ID == "" {
		video.ID = ContentID(raw.Title, raw.Channel)
	}
	if video.ThumbnailURL == "" {
		video.ThumbnailURL = ThumbnailURL(video.ID)
	}

	if strings.TrimSpace(raw.Likes) != "" {
		likes := ParseViews(raw.Likes)
		video.LikeCount = &likes
	}

	return video
}

// NormalizeAll normalizes every record, preserving order.
func NormalizeAll(raws []model.RawRecord) []model.Video {
	videos := make([]model.Video, 0, len(raws))
	for _, raw := range raws {
		videos = append(videos, Normalize(raw))
	}
	return videos
}
