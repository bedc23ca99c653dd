package catalog

import (
	"slices"

	"github.com/robertmeta/vidcat/model"
)

// State is the complete view state: filter criteria, sort order and page.
// It is a value type; every transition returns a new State and leaves the
// receiver untouched. Any change to criteria or sort order returns to the
// first page.
type State struct {
	Criteria model.FilterCriteria `json:"criteria"`
	Sort     model.SortSpec       `json:"sort"`
	Page     model.PageState      `json:"page"`
}

// NewState returns the initial state: no filters, most viewed first,
// first page.
func NewState() State {
	return State{
		Sort: DefaultSort,
		Page: model.PageState{Size: DefaultPageSize, Number: 1},
	}
}

// Apply derives the visible page from all loaded videos.
func (s State) Apply(all []model.Video) model.View {
	return Derive(all, s.Criteria, s.Sort, s.Page)
}

func (s State) firstPage() State {
	s.Page.Number = 1
	return s
}

// WithCriteria replaces all criteria.
func (s State) WithCriteria(c model.FilterCriteria) State {
	s.Criteria = model.FilterCriteria{
		SearchText:         c.SearchText,
		Channels:           slices.Clone(c.Channels),
		Short:              clonePtr(c.Short),
		MinDurationSeconds: clonePtr(c.MinDurationSeconds),
		MaxDurationSeconds: clonePtr(c.MaxDurationSeconds),
		Topics:             slices.Clone(c.Topics),
	}
	return s.firstPage()
}

// WithSearch sets the free-text search.
func (s State) WithSearch(text string) State {
	s.Criteria.SearchText = text
	return s.firstPage()
}

// ToggleChannel adds the channel to the selection, or removes it if present.
func (s State) ToggleChannel(channel string) State {
	s.Criteria.Channels = toggle(s.Criteria.Channels, channel)
	return s.firstPage()
}

// ToggleTopic adds the topic to the selection, or removes it if present.
func (s State) ToggleTopic(topic string) State {
	s.Criteria.Topics = toggle(s.Criteria.Topics, topic)
	return s.firstPage()
}

// WithShort restricts to Shorts (true), regular videos (false), or
// clears the restriction (nil).
func (s State) WithShort(short *bool) State {
	s.Criteria.Short = clonePtr(short)
	return s.firstPage()
}

// WithDurationRange sets inclusive duration bounds in seconds. Either bound
// may be nil.
func (s State) WithDurationRange(min, max *int) State {
	s.Criteria.MinDurationSeconds = clonePtr(min)
	s.Criteria.MaxDurationSeconds = clonePtr(max)
	return s.firstPage()
}

// WithPreset sets the duration bounds of a named preset.
func (s State) WithPreset(p DurationPreset) State {
	return s.WithDurationRange(p.Min, p.Max)
}

// ClearFilters drops every criterion but keeps the sort order.
func (s State) ClearFilters() State {
	s.Criteria = model.FilterCriteria{}
	return s.firstPage()
}

// WithSort changes the sort order.
func (s State) WithSort(spec model.SortSpec) State {
	s.Sort = spec
	return s.firstPage()
}

// WithPage moves to another page without touching filters or sort order.
func (s State) WithPage(number int) State {
	s.Page.Number = number
	return s
}

// toggle returns a new slice with value added or removed.
func toggle(values []string, value string) []string {
	if i := slices.Index(values, value); i >= 0 {
		return slices.Delete(slices.Clone(values), i, i+1)
	}
	return append(slices.Clone(values), value)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
