package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertmeta/vidcat/catalog"
	"github.com/robertmeta/vidcat/model"
	"github.com/robertmeta/vidcat/source"
	"github.com/robertmeta/vidcat/viewer"
)

type fakeSource struct {
	mu    sync.Mutex
	pages map[string]model.Batch
	err   error
}

func (f *fakeSource) Fetch(_ context.Context, token string) (model.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Batch{}, f.err
	}
	return f.pages[token], nil
}

func (f *fakeSource) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func apiRecord(id, title, channel, duration, views string) model.RawRecord {
	return model.RawRecord{
		Origin:   model.OriginAPI,
		ID:       id,
		Title:    title,
		Channel:  channel,
		Duration: duration,
		Views:    views,
	}
}

func newTestServer(t *testing.T, cfg Config) (*Server, *fakeSource) {
	t.Helper()

	src := &fakeSource{pages: map[string]model.Batch{
		"": {
			Records: []model.RawRecord{
				apiRecord("vid1", "Putting Drill", "DGN", "PT5M", "900"),
				apiRecord("vid2", "Forehand Power", "PDGA", "PT12M", "5000"),
				apiRecord("vid3", "Roller Shots", "DGN", "PT45S", "40"),
			},
			NextToken: "p2",
		},
		"p2": {
			Records: []model.RawRecord{
				apiRecord("vid4", "Backhand Basics", "Coach", "PT20M", "100"),
			},
		},
	}}

	v := viewer.New(src, zerolog.Nop())
	require.NoError(t, v.Load(context.Background()))

	return New(v, cfg, zerolog.Nop()), src
}

func doRequest(t *testing.T, s *Server, method, target string, out any) *http.Response {
	t.Helper()

	resp, err := s.App().Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func videoIDs(videos []model.Video) []string {
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	return ids
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	var body map[string]string
	resp := doRequest(t, s, http.MethodGet, "/health/live", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestListVideos_Default(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	var body videosResponse
	resp := doRequest(t, s, http.MethodGet, "/api/videos", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"vid2", "vid1", "vid3"}, videoIDs(body.Videos))
	assert.Equal(t, 3, body.TotalCount)
	assert.Equal(t, 1, body.TotalPages)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, catalog.DefaultPageSize, body.PageSize)
	assert.True(t, body.HasMore)
	assert.Empty(t, body.LastError)
	assert.Equal(t, catalog.DefaultSort, body.State.Sort)
}

func TestListVideos_Query(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"channel", "/api/videos?channel=DGN", []string{"vid1", "vid3"}},
		{"repeated channel", "/api/videos?channel=DGN&channel=PDGA", []string{"vid2", "vid1", "vid3"}},
		{"comma channels", "/api/videos?channel=DGN,PDGA", []string{"vid2", "vid1", "vid3"}},
		{"sort by title", "/api/videos?sort=title&dir=asc", []string{"vid2", "vid1", "vid3"}},
		{"sort by duration", "/api/videos?sort=duration&dir=desc", []string{"vid2", "vid1", "vid3"}},
		{"shorts only", "/api/videos?type=short", []string{"vid3"}},
		{"long only", "/api/videos?type=long", []string{"vid2", "vid1"}},
		{"search", "/api/videos?search=roller", []string{"vid3"}},
		{"topic", "/api/videos?topic=putting", []string{"vid1"}},
		{"duration bounds", "/api/videos?min=1m&max=10m", []string{"vid1"}},
		{"preset", "/api/videos?length=10to20", []string{"vid2"}},
		{"no match", "/api/videos?search=nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body videosResponse
			resp := doRequest(t, s, http.MethodGet, tt.target, &body)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, videoIDs(body.Videos))
			assert.Equal(t, len(tt.want), body.TotalCount)
		})
	}
}

func TestListVideos_Pagination(t *testing.T) {
	s, _ := newTestServer(t, Config{PageSize: 2})

	var body videosResponse
	doRequest(t, s, http.MethodGet, "/api/videos", &body)
	assert.Equal(t, []string{"vid2", "vid1"}, videoIDs(body.Videos))
	assert.Equal(t, 2, body.TotalPages)
	assert.Equal(t, 2, body.PageSize)

	body = videosResponse{}
	doRequest(t, s, http.MethodGet, "/api/videos?page=2", &body)
	assert.Equal(t, []string{"vid3"}, videoIDs(body.Videos))
	assert.Equal(t, 2, body.Page)

	body = videosResponse{}
	doRequest(t, s, http.MethodGet, "/api/videos?page=9&size=1", &body)
	assert.Empty(t, body.Videos)
	assert.Equal(t, 3, body.TotalPages)
}

func TestListVideos_BadRequest(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	targets := []string{
		"/api/videos?sort=likes",
		"/api/videos?dir=sideways",
		"/api/videos?type=vertical",
		"/api/videos?topic=bowling",
		"/api/videos?min=ten",
		"/api/videos?min=10m&max=1m",
		"/api/videos?length=forever",
		"/api/videos?page=0",
		"/api/videos?page=abc",
		"/api/videos?size=500",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			var body errorResponse
			resp := doRequest(t, s, http.MethodGet, target, &body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "BAD_REQUEST", body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestGetVideo(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	var body videoDetail
	resp := doRequest(t, s, http.MethodGet, "/api/videos/vid2", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "vid2", body.ID)
	assert.Equal(t, "Forehand Power", body.Title)
	assert.Equal(t, 720, body.DurationSeconds)
	assert.Equal(t, "12:00", body.Duration)
	assert.Equal(t, "5.0K views", body.Views)
	assert.Equal(t, catalog.WatchURL("vid2"), body.WatchURL)
	assert.Equal(t, catalog.EmbedURL("vid2"), body.EmbedURL)
}

func TestGetVideo_NotFound(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	var body errorResponse
	resp := doRequest(t, s, http.MethodGet, "/api/videos/nope", &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestChannelsAndTopics(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	var channels struct {
		Channels []string `json:"channels"`
	}
	doRequest(t, s, http.MethodGet, "/api/channels", &channels)
	assert.ElementsMatch(t, []string{"DGN", "PDGA"}, channels.Channels)

	var topics struct {
		Topics  []model.TopicCount       `json:"topics"`
		Presets []catalog.DurationPreset `json:"presets"`
	}
	doRequest(t, s, http.MethodGet, "/api/topics", &topics)
	assert.Contains(t, topics.Topics, model.TopicCount{Topic: "putting", Count: 1})
	assert.Len(t, topics.Presets, len(catalog.DurationPresets))
}

func TestLoadMore(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	var body loadResponse
	resp := doRequest(t, s, http.MethodPost, "/api/videos/more", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, loadResponse{Added: 1, Total: 4, HasMore: false}, body)

	body = loadResponse{}
	resp = doRequest(t, s, http.MethodPost, "/api/videos/more", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, loadResponse{Added: 0, Total: 4, HasMore: false}, body)
}

func TestLoadMore_SourceUnavailable(t *testing.T) {
	s, src := newTestServer(t, Config{})
	src.fail(errors.Join(source.ErrUnavailable, errors.New("quota exceeded")))

	var body errorResponse
	resp := doRequest(t, s, http.MethodPost, "/api/videos/more", &body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "SOURCE_UNAVAILABLE", body.Error.Code)
	assert.Contains(t, body.Error.Message, "quota exceeded")

	var list videosResponse
	doRequest(t, s, http.MethodGet, "/api/videos", &list)
	assert.Equal(t, 3, list.TotalCount, "collection survives a failed fetch")
	assert.True(t, list.HasMore)
	assert.Contains(t, list.LastError, "quota exceeded")
}

func TestReload(t *testing.T) {
	s, src := newTestServer(t, Config{})

	doRequest(t, s, http.MethodPost, "/api/videos/more", nil)

	var body loadResponse
	resp := doRequest(t, s, http.MethodPost, "/api/videos/reload", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, loadResponse{Added: 3, Total: 3, HasMore: true}, body)

	src.fail(source.ErrUnavailable)
	resp = doRequest(t, s, http.MethodPost, "/api/videos/reload", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	var body errorResponse
	resp := doRequest(t, s, http.MethodGet, "/api/nothing", &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	resp := doRequest(t, s, http.MethodGet, "/health/live", nil)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, Config{CORSOrigins: "https://discs.example, https://other.example"})

	req := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	req.Header.Set("Origin", "https://discs.example")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "https://discs.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	s, src := newTestServer(t, Config{})

	doRequest(t, s, http.MethodGet, "/api/videos/vid1", nil)
	src.fail(source.ErrUnavailable)
	doRequest(t, s, http.MethodPost, "/api/videos/more", nil)

	resp := doRequest(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, "vidcat_videos_loaded 3")
	assert.Contains(t, body, "vidcat_source_fetch_failures_total 1")
	assert.Contains(t, body, `endpoint="/api/videos/:id"`)
	assert.False(t, strings.Contains(body, `endpoint="/metrics"`))
}

func TestMetrics_UnknownPathsShareOneSeries(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	for _, path := range []string{"/x/1", "/x/2", "/x/3", "/scan/me"} {
		doRequest(t, s, http.MethodGet, path, nil)
	}

	resp := doRequest(t, s, http.MethodGet, "/metrics", nil)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, `vidcat_api_request_duration_seconds_count{endpoint="unmatched",method="GET",status="404"} 4`)
	assert.NotContains(t, body, `endpoint="/x/1"`)
	assert.Contains(t, body, "vidcat_requests_in_flight 0")
}

func TestMetrics_InFlightReleasedOnPanic(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	s.App().Get("/api/boom", func(c fiber.Ctx) error {
		panic("boom")
	})

	resp := doRequest(t, s, http.MethodGet, "/api/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = doRequest(t, s, http.MethodGet, "/metrics", nil)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "vidcat_requests_in_flight 0")
}

func TestSanitizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"/api/videos":        "/api/videos",
		"/api/videos/abc":    "/api/videos/:id",
		"/api/videos/more":   "/api/videos/more",
		"/api/videos/reload": "/api/videos/reload",
		"/api/channels":      "/api/channels",
		"/health/live":       "/health/live",
		"/api/videos/":       unmatchedEndpoint,
		"/api/videos/a/b":    unmatchedEndpoint,
		"/x/1":               unmatchedEndpoint,
		"/wp-login.php":      unmatchedEndpoint,
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeEndpoint(in), in)
	}
}
