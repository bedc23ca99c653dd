package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertmeta/vidcat/model"
)

func TestNewState(t *testing.T) {
	s := NewState()

	assert.True(t, s.Criteria.IsEmpty())
	assert.Equal(t, DefaultSort, s.Sort)
	assert.Equal(t, model.PageState{Size: 24, Number: 1}, s.Page)
}

func TestState_TransitionsResetPage(t *testing.T) {
	preset, err := Preset("5to10")
	require.NoError(t, err)

	onPage3 := NewState().WithPage(3)

	tests := []struct {
		name string
		next State
	}{
		{"search", onPage3.WithSearch("putt")},
		{"toggle channel", onPage3.ToggleChannel("PDGA")},
		{"toggle topic", onPage3.ToggleTopic("grip")},
		{"short flag", onPage3.WithShort(ptr(true))},
		{"duration range", onPage3.WithDurationRange(ptr(60), nil)},
		{"preset", onPage3.WithPreset(preset)},
		{"clear filters", onPage3.ClearFilters()},
		{"sort", onPage3.WithSort(model.SortSpec{Key: model.SortByTitle, Direction: model.Ascending})},
		{"criteria", onPage3.WithCriteria(model.FilterCriteria{SearchText: "x"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 1, tt.next.Page.Number)
			assert.Equal(t, 3, onPage3.Page.Number, "receiver must not change")
		})
	}
}

func TestState_WithPageKeepsCriteria(t *testing.T) {
	s := NewState().WithSearch("putt").WithPage(2)

	assert.Equal(t, 2, s.Page.Number)
	assert.Equal(t, "putt", s.Criteria.SearchText)
}

func TestState_ToggleIsImmutable(t *testing.T) {
	base := NewState().ToggleChannel("PDGA")
	added := base.ToggleChannel("Overthrow")
	removed := added.ToggleChannel("PDGA")

	assert.Equal(t, []string{"PDGA"}, base.Criteria.Channels)
	assert.Equal(t, []string{"PDGA", "Overthrow"}, added.Criteria.Channels)
	assert.Equal(t, []string{"Overthrow"}, removed.Criteria.Channels)

	topics := NewState().ToggleTopic("grip").ToggleTopic("grip")
	assert.Empty(t, topics.Criteria.Topics)
}

func TestState_WithCriteriaCopiesInput(t *testing.T) {
	min := 60
	criteria := model.FilterCriteria{
		Channels:           []string{"PDGA"},
		MinDurationSeconds: &min,
	}

	s := NewState().WithCriteria(criteria)
	criteria.Channels[0] = "changed"
	min = 999

	assert.Equal(t, []string{"PDGA"}, s.Criteria.Channels)
	require.NotNil(t, s.Criteria.MinDurationSeconds)
	assert.Equal(t, 60, *s.Criteria.MinDurationSeconds)
}

func TestState_ClearFiltersKeepsSort(t *testing.T) {
	spec := model.SortSpec{Key: model.SortByChannel, Direction: model.Ascending}
	s := NewState().WithSort(spec).WithSearch("x").ToggleTopic("grip").ClearFilters()

	assert.True(t, s.Criteria.IsEmpty())
	assert.Equal(t, spec, s.Sort)
}

func TestState_Apply(t *testing.T) {
	s := NewState().WithSearch("putting")

	view := s.Apply(sampleVideos())

	assert.Equal(t, 1, view.TotalCount)
	assert.Equal(t, []string{"v1"}, ids(view.Videos))
}
