package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/robertmeta/vidcat/model"
)

// boundPattern matches duration bounds like "90s", "5m", "1h" or "300".
var boundPattern = regexp.MustCompile(`^(\d+)([smh]?)$`)

// ParseDurationBound parses a duration bound like "90s", "5m" or "1h" into
// seconds. A bare number is taken as seconds.
//
// Supported units:
//   - s: seconds
//   - m: minutes
//   - h: hours
func ParseDurationBound(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("duration bound is empty")
	}

	matches := boundPattern.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return 0, fmt.Errorf("invalid duration bound: %s (expected format: <number><unit>, e.g., 90s, 5m, 1h)", s)
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number in duration bound: %s", matches[1])
	}

	switch matches[2] {
	case "h":
		return num * 3600, nil
	case "m":
		return num * 60, nil
	default:
		return num, nil
	}
}

// DurationPreset is a named duration range offered by the sidebar.
type DurationPreset struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Min   *int   `json:"min,omitempty"`
	Max   *int   `json:"max,omitempty"`
}

func seconds(n int) *int { return &n }

// DurationPresets lists the duration ranges, shortest first.
var DurationPresets = []DurationPreset{
	{Name: "under5", Label: "< 5 min", Min: seconds(0), Max: seconds(300)},
	{Name: "5to10", Label: "5-10 min", Min: seconds(300), Max: seconds(600)},
	{Name: "10to20", Label: "10-20 min", Min: seconds(600), Max: seconds(1200)},
	{Name: "over20", Label: "> 20 min", Min: seconds(1200)},
}

// Preset looks up a duration preset by name.
func Preset(name string) (DurationPreset, error) {
	for _, p := range DurationPresets {
		if p.Name == name {
			return p, nil
		}
	}
	return DurationPreset{}, fmt.Errorf("unknown duration preset: %s (expected under5, 5to10, 10to20 or over20)", name)
}

// ParseSortSpec parses a sort key and direction. Empty values fall back to
// DefaultSort.
func ParseSortSpec(key, direction string) (model.SortSpec, error) {
	spec := DefaultSort

	switch strings.ToLower(key) {
	case "":
	case "views", "viewcount":
		spec.Key = model.SortByViews
	case "duration", "durationseconds":
		spec.Key = model.SortByDuration
	case "title":
		spec.Key = model.SortByTitle
	case "channel":
		spec.Key = model.SortByChannel
	default:
		return spec, fmt.Errorf("invalid sort key: %s (expected views, duration, title or channel)", key)
	}

	switch strings.ToLower(direction) {
	case "":
	case "asc", "ascending":
		spec.Direction = model.Ascending
	case "desc", "descending":
		spec.Direction = model.Descending
	default:
		return spec, fmt.Errorf("invalid sort direction: %s (expected asc or desc)", direction)
	}

	return spec, nil
}

// ParseShortFlag parses a video type: "short", "long", or "all"/"" for no
// restriction.
func ParseShortFlag(s string) (*bool, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return nil, nil
	case "short", "shorts":
		v := true
		return &v, nil
	case "long", "regular":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf("invalid video type: %s (expected short, long or all)", s)
	}
}

// QueryInput holds unparsed filter values from CLI flags or query strings.
type QueryInput struct {
	Search   string
	Channels []string
	Topics   []string
	Type     string
	Min      string
	Max      string
	Length   string
}

// BuildCriteria constructs FilterCriteria from user input. Explicit min/max
// bounds override the bounds of a length preset.
func BuildCriteria(in QueryInput) (model.FilterCriteria, error) {
	criteria := model.FilterCriteria{
		SearchText: strings.TrimSpace(in.Search),
		Channels:   compact(in.Channels),
		Topics:     compact(in.Topics),
	}

	for _, topic := range criteria.Topics {
		if !IsTopic(topic) {
			return criteria, fmt.Errorf("unknown topic: %s", topic)
		}
	}

	short, err := ParseShortFlag(in.Type)
	if err != nil {
		return criteria, err
	}
	criteria.Short = short

	if in.Length != "" {
		p, err := Preset(in.Length)
		if err != nil {
			return criteria, err
		}
		criteria.MinDurationSeconds = clonePtr(p.Min)
		criteria.MaxDurationSeconds = clonePtr(p.Max)
	}

	if in.Min != "" {
		min, err := ParseDurationBound(in.Min)
		if err != nil {
			return criteria, fmt.Errorf("failed to parse min duration: %w", err)
		}
		criteria.MinDurationSeconds = &min
	}

	if in.Max != "" {
		max, err := ParseDurationBound(in.Max)
		if err != nil {
			return criteria, fmt.Errorf("failed to parse max duration: %w", err)
		}
		criteria.MaxDurationSeconds = &max
	}

	if criteria.MinDurationSeconds != nil && criteria.MaxDurationSeconds != nil &&
		*criteria.MinDurationSeconds > *criteria.MaxDurationSeconds {
		return criteria, fmt.Errorf("min duration %ds is greater than max duration %ds",
			*criteria.MinDurationSeconds, *criteria.MaxDurationSeconds)
	}

	return criteria, nil
}

// compact trims values and drops empty ones.
func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
