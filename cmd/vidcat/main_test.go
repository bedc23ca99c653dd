package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertmeta/vidcat/catalog"
	"github.com/robertmeta/vidcat/model"
	"github.com/robertmeta/vidcat/source"
)

type pagedSource struct {
	pages map[string]model.Batch
	calls []string
	err   error
}

func (p *pagedSource) Fetch(_ context.Context, token string) (model.Batch, error) {
	p.calls = append(p.calls, token)
	if p.err != nil {
		return model.Batch{}, p.err
	}
	return p.pages[token], nil
}

func threePages() *pagedSource {
	return &pagedSource{pages: map[string]model.Batch{
		"":   {Records: []model.RawRecord{{Origin: model.OriginAPI, ID: "a", Title: "A"}}, NextToken: "t2"},
		"t2": {Records: []model.RawRecord{{Origin: model.OriginAPI, ID: "b", Title: "B"}}, NextToken: "t3"},
		"t3": {Records: []model.RawRecord{{Origin: model.OriginAPI, ID: "c", Title: "C"}}},
	}}
}

func TestFetchRecords(t *testing.T) {
	tests := []struct {
		name        string
		pages       int
		wantRecords int
		wantCalls   []string
	}{
		{"zero pages fetches one", 0, 1, []string{""}},
		{"one page", 1, 1, []string{""}},
		{"two pages", 2, 2, []string{"", "t2"}},
		{"stops when exhausted", 10, 3, []string{"", "t2", "t3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := threePages()
			records, fetched, err := fetchRecords(context.Background(), src, tt.pages)
			require.NoError(t, err)
			assert.Len(t, records, tt.wantRecords)
			assert.Equal(t, len(tt.wantCalls), fetched)
			assert.Equal(t, tt.wantCalls, src.calls)
		})
	}
}

func TestFetchRecords_Error(t *testing.T) {
	src := &pagedSource{err: source.ErrUnavailable}

	_, _, err := fetchRecords(context.Background(), src, 3)
	assert.ErrorIs(t, err, source.ErrUnavailable)
}

func TestLoadViewer(t *testing.T) {
	v, err := loadViewer(context.Background(), threePages(), 2, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())
	assert.True(t, v.HasMore())

	v, err = loadViewer(context.Background(), threePages(), 5, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())
	assert.False(t, v.HasMore())

	_, err = loadViewer(context.Background(), &pagedSource{err: errors.New("boom")}, 1, zerolog.Nop())
	assert.Error(t, err)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	videos := catalog.NormalizeAll([]model.RawRecord{
		{Origin: model.OriginCSV, Title: "Backhand Basics", Channel: "DGN", Duration: "12:38", Views: "1.3M"},
		{Origin: model.OriginCSV, Title: "Quick Putt, Part 2", Channel: "PDGA", Duration: "SHORTS", Views: "950"},
		{Origin: model.OriginAPI, ID: "shrt0000001", Title: "Roller", Channel: "DGN", Duration: "PT45S", Views: "40"},
		{Origin: model.OriginFeed, ID: "abc123DEF45", Title: "Hyzer \"Flip\"", Channel: "Coach", Views: "7", Thumbnail: "https://img/x.jpg"},
	})

	var buf strings.Builder
	require.NoError(t, writeCSV(&buf, videos))

	records, err := source.ParseCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)

	if diff := cmp.Diff(videos, catalog.NormalizeAll(records)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestChannelFromArg(t *testing.T) {
	tests := []struct {
		arg  string
		want model.Channel
	}{
		{
			arg:  "UCabc",
			want: model.Channel{ChannelID: "UCabc", FeedURL: model.FeedURLFor("UCabc")},
		},
		{
			arg:  model.FeedURLFor("UCdef"),
			want: model.Channel{ChannelID: "UCdef", FeedURL: model.FeedURLFor("UCdef")},
		},
		{
			arg:  "https://example.com/feed.xml",
			want: model.Channel{FeedURL: "https://example.com/feed.xml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, *channelFromArg(tt.arg))
		})
	}
}
