package catalog

import (
	"strings"

	"github.com/robertmeta/vidcat/model"
)

// matcher holds FilterCriteria prepared for repeated evaluation.
type matcher struct {
	search   string
	channels map[string]struct{}
	short    *bool
	min      *int
	max      *int
	topics   map[string]struct{}
}

func newMatcher(c model.FilterCriteria) matcher {
	return matcher{
		search:   strings.ToLower(c.SearchText),
		channels: toSet(c.Channels),
		short:    c.Short,
		min:      c.MinDurationSeconds,
		max:      c.MaxDurationSeconds,
		topics:   toSet(c.Topics),
	}
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (m matcher) match(v model.Video) bool {
	if m.search != "" &&
		!strings.Contains(strings.ToLower(v.Title), m.search) &&
		!strings.Contains(strings.ToLower(v.Channel), m.search) {
		return false
	}

	if m.channels != nil {
		if _, ok := m.channels[v.Channel]; !ok {
			return false
		}
	}

	if m.short != nil && v.IsShort != *m.short {
		return false
	}

	if m.min != nil && v.DurationSeconds < *m.min {
		return false
	}
	if m.max != nil && v.DurationSeconds > *m.max {
		return false
	}

	if m.topics != nil {
		for _, topic := range v.Topics {
			if _, ok := m.topics[topic]; ok {
				return true
			}
		}
		return false
	}

	return true
}

// Match checks whether a video passes the criteria.
// All criteria groups must pass (AND). Within the channel and topic groups
// a single selected value is enough (OR).
func Match(v model.Video, c model.FilterCriteria) bool {
	return newMatcher(c).match(v)
}

// Filter returns the videos that pass the criteria, in input order.
func Filter(videos []model.Video, c model.FilterCriteria) []model.Video {
	m := newMatcher(c)
	matched := make([]model.Video, 0, len(videos))
	for _, v := range videos {
		if m.match(v) {
			matched = append(matched, v)
		}
	}
	return matched
}
