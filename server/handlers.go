package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/robertmeta/vidcat/catalog"
	"github.com/robertmeta/vidcat/model"
	"github.com/robertmeta/vidcat/viewer"
)

type videosResponse struct {
	model.View
	State     catalog.State `json:"state"`
	HasMore   bool          `json:"has_more"`
	LastError string        `json:"last_error,omitempty"`
}

type videoDetail struct {
	model.Video
	Duration string `json:"duration"`
	Views    string `json:"views"`
	WatchURL string `json:"watch_url"`
	EmbedURL string `json:"embed_url"`
}

type loadResponse struct {
	Added   int  `json:"added"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// listVideos handles GET /api/videos.
//
// Query parameters: search, channel and topic (repeatable or
// comma-separated), type, min, max, length, sort, dir, page, size.
func (s *Server) listVideos(c fiber.Ctx) error {
	state, err := s.stateFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody("BAD_REQUEST", err.Error()))
	}

	resp := videosResponse{
		View:    s.viewer.View(state),
		State:   state,
		HasMore: s.viewer.HasMore(),
	}
	if err := s.viewer.Err(); err != nil {
		resp.LastError = err.Error()
	}
	return c.JSON(resp)
}

// getVideo handles GET /api/videos/:id.
func (s *Server) getVideo(c fiber.Ctx) error {
	id := c.Params("id")
	video, ok := s.viewer.Video(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorBody("NOT_FOUND", "video not found: "+id))
	}

	return c.JSON(videoDetail{
		Video:    video,
		Duration: catalog.FormatDuration(video.DurationSeconds),
		Views:    catalog.FormatViews(video.ViewCount),
		WatchURL: catalog.WatchURL(video.ID),
		EmbedURL: catalog.EmbedURL(video.ID),
	})
}

func (s *Server) listChannels(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"channels": s.viewer.Channels()})
}

func (s *Server) listTopics(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"topics":  s.viewer.Topics(),
		"presets": catalog.DurationPresets,
	})
}

// loadMore handles POST /api/videos/more. An exhausted source is not an
// error; the response just reports nothing added.
func (s *Server) loadMore(c fiber.Ctx) error {
	added, err := s.viewer.LoadMore(c.Context())
	switch {
	case errors.Is(err, viewer.ErrExhausted):
		added = 0
	case err != nil:
		s.metrics.fetchFailures.Inc()
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorBody("SOURCE_UNAVAILABLE", err.Error()))
	}

	s.metrics.videosAdded.Add(float64(added))
	return c.JSON(loadResponse{
		Added:   added,
		Total:   s.viewer.Len(),
		HasMore: s.viewer.HasMore(),
	})
}

// reload handles POST /api/videos/reload. It fetches the first batch again
// and replaces the collection; on failure the old collection stays.
func (s *Server) reload(c fiber.Ctx) error {
	if err := s.viewer.Load(c.Context()); err != nil {
		s.metrics.fetchFailures.Inc()
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorBody("SOURCE_UNAVAILABLE", err.Error()))
	}

	total := s.viewer.Len()
	return c.JSON(loadResponse{
		Added:   total,
		Total:   total,
		HasMore: s.viewer.HasMore(),
	})
}

func (s *Server) stateFromQuery(c fiber.Ctx) (catalog.State, error) {
	state := catalog.NewState()

	criteria, err := catalog.BuildCriteria(catalog.QueryInput{
		Search:   c.Query("search"),
		Channels: queryList(c, "channel"),
		Topics:   queryList(c, "topic"),
		Type:     c.Query("type"),
		Min:      c.Query("min"),
		Max:      c.Query("max"),
		Length:   c.Query("length"),
	})
	if err != nil {
		return state, err
	}

	spec, err := catalog.ParseSortSpec(c.Query("sort"), c.Query("dir"))
	if err != nil {
		return state, err
	}

	page, err := positiveInt(c.Query("page"), 1, 0)
	if err != nil {
		return state, fmt.Errorf("invalid page: %w", err)
	}

	size, err := positiveInt(c.Query("size"), s.cfg.PageSize, MaxPageSize)
	if err != nil {
		return state, fmt.Errorf("invalid size: %w", err)
	}

	state = state.WithCriteria(criteria).WithSort(spec).WithPage(page)
	if size > 0 {
		state.Page.Size = size
	}
	return state, nil
}

// queryList collects a repeatable query parameter. Each occurrence may
// itself be a comma-separated list.
func queryList(c fiber.Ctx, key string) []string {
	var values []string
	for _, raw := range c.RequestCtx().QueryArgs().PeekMulti(key) {
		values = append(values, strings.Split(string(raw), ",")...)
	}
	return values
}

// positiveInt parses s, returning def for an empty string. A max of zero
// means unbounded.
func positiveInt(s string, def, max int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d must be at least 1", n)
	}
	if max > 0 && n > max {
		return 0, fmt.Errorf("%d exceeds maximum of %d", n, max)
	}
	return n, nil
}
