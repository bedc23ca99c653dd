package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertmeta/vidcat/model"
)

// mockClient answers every request with the same response and records the
// requested URLs.
type mockClient struct {
	body       string
	statusCode int
	err        error
	urls       []string
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	m.urls = append(m.urls, req.URL.String())
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func TestParseCSV_Header(t *testing.T) {
	input := `title,channel,duration,views
Disc Golf Putting Tips for Beginners,PDGA,8:00,1.3M views
"Forehand Clinic, Part 2",Disc Golf Network,25:00,52K views
,Nobody,1:00,1
`

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	want := []model.RawRecord{
		{Origin: model.OriginCSV, Title: "Disc Golf Putting Tips for Beginners", Channel: "PDGA", Duration: "8:00", Views: "1.3M views"},
		{Origin: model.OriginCSV, Title: "Forehand Clinic, Part 2", Channel: "Disc Golf Network", Duration: "25:00", Views: "52K views"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("ParseCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSV_Positional(t *testing.T) {
	records, err := ParseCSV(strings.NewReader("Quick Grip Tip,Overthrow,SHORTS,9.1K\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Quick Grip Tip", records[0].Title)
	assert.Equal(t, "SHORTS", records[0].Duration)
	assert.Equal(t, "9.1K", records[0].Views)
}

func TestParseCSV_EnrichedColumns(t *testing.T) {
	input := "\ufeffTitle,Channel,Duration,Views,url,thumbnail\n" +
		"Hyzer Flip Control,PDGA,12:05,310K,https://www.youtube.com/watch?v=hyzer000001,https://i.ytimg.com/vi/hyzer000001/mqdefault.jpg\n" +
		"Roller Basics,Overthrow,SHORTS,4K,https://www.youtube.com/shorts/roller00001,\n"

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "hyzer000001", records[0].ID)
	assert.Equal(t, "https://i.ytimg.com/vi/hyzer000001/mqdefault.jpg", records[0].Thumbnail)
	assert.False(t, records[0].Short)

	assert.Equal(t, "roller00001", records[1].ID)
	assert.True(t, records[1].Short)
	assert.Empty(t, records[1].Thumbnail)
}

func TestParseCSV_Empty(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestVideoIDFromURL(t *testing.T) {
	tests := []struct {
		url   string
		id    string
		short bool
	}{
		{"https://www.youtube.com/watch?v=abc123DEF45", "abc123DEF45", false},
		{"https://youtu.be/abc123DEF45", "abc123DEF45", false},
		{"https://www.youtube.com/shorts/shrt0000001", "shrt0000001", true},
		{"https://www.youtube.com/embed/abc123DEF45?start=3", "abc123DEF45", false},
		{"https://example.com/video", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, short := VideoIDFromURL(tt.url)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.short, short)
		})
	}
}

func TestCSVFile_Fetch(t *testing.T) {
	src := NewCSVFile("testdata/videos.csv", zerolog.Nop())

	batch, err := src.Fetch(context.Background(), "")
	require.NoError(t, err)

	assert.Len(t, batch.Records, 3)
	assert.Empty(t, batch.NextToken)
	assert.Equal(t, "Quick Grip Tip", batch.Records[2].Title)
}

func TestCSVFile_Missing(t *testing.T) {
	src := NewCSVFile("testdata/does-not-exist.csv", zerolog.Nop())

	_, err := src.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCSVURL_Fetch(t *testing.T) {
	tests := []struct {
		name    string
		client  *mockClient
		want    int
		wantErr bool
	}{
		{
			name:   "successful fetch",
			client: &mockClient{body: "title,channel,duration,views\nA,B,1:00,5\n", statusCode: http.StatusOK},
			want:   1,
		},
		{
			name:    "http error status",
			client:  &mockClient{body: "not found", statusCode: http.StatusNotFound},
			wantErr: true,
		},
		{
			name:    "network error",
			client:  &mockClient{err: io.ErrUnexpectedEOF},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewCSVURL(tt.client, "https://example.com/videos.csv", zerolog.Nop())

			batch, err := src.Fetch(context.Background(), "")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnavailable))
				return
			}
			require.NoError(t, err)
			assert.Len(t, batch.Records, tt.want)
			assert.Equal(t, []string{"https://example.com/videos.csv"}, tt.client.urls)
		})
	}
}
