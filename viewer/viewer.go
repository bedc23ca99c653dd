// Package viewer holds the growing in-memory video collection loaded from a
// source and derives views from it.
package viewer

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/robertmeta/vidcat/catalog"
	"github.com/robertmeta/vidcat/model"
	"github.com/robertmeta/vidcat/source"
)

// ErrExhausted is returned by LoadMore when the source has no further
// batches.
var ErrExhausted = errors.New("viewer: source exhausted")

// Viewer is the only place where the collection changes. Reads may run
// concurrently; fetches are serialised so continuation tokens never race.
type Viewer struct {
	src    source.Source
	logger zerolog.Logger

	fetchMu sync.Mutex

	mu     sync.RWMutex
	videos []model.Video
	ids    map[string]struct{}
	token  string
	err    error
}

// New creates a Viewer over src. Nothing is fetched until Load.
func New(src source.Source, logger zerolog.Logger) *Viewer {
	return &Viewer{
		src:    src,
		logger: logger,
		videos: []model.Video{},
		ids:    make(map[string]struct{}),
	}
}

// Load fetches the first batch and replaces the collection with it. On
// failure the current collection is kept and the error is recorded.
func (v *Viewer) Load(ctx context.Context) error {
	v.fetchMu.Lock()
	defer v.fetchMu.Unlock()

	batch, err := v.src.Fetch(ctx, "")
	if err != nil {
		v.fail(err, "load failed")
		return err
	}

	v.mu.Lock()
	v.videos = []model.Video{}
	v.ids = make(map[string]struct{})
	added := v.appendLocked(batch.Records)
	v.token = batch.NextToken
	v.err = nil
	total := len(v.videos)
	v.mu.Unlock()

	v.logger.Info().
		Int("added", added).
		Int("total", total).
		Bool("has_more", batch.NextToken != "").
		Msg("videos loaded")
	return nil
}

// LoadMore fetches the next batch and appends it. It returns the number
// of videos added, or ErrExhausted when there is nothing left to fetch.
func (v *Viewer) LoadMore(ctx context.Context) (int, error) {
	v.fetchMu.Lock()
	defer v.fetchMu.Unlock()

	v.mu.RLock()
	token := v.token
	v.mu.RUnlock()

	if token == "" {
		return 0, ErrExhausted
	}

	batch, err := v.src.Fetch(ctx, token)
	if err != nil {
		v.fail(err, "load more failed")
		return 0, err
	}

	v.mu.Lock()
	added := v.appendLocked(batch.Records)
	v.token = batch.NextToken
	v.err = nil
	total := len(v.videos)
	v.mu.Unlock()

	v.logger.Info().
		Int("added", added).
		Int("total", total).
		Bool("has_more", batch.NextToken != "").
		Msg("more videos loaded")
	return added, nil
}

func (v *Viewer) fail(err error, msg string) {
	v.mu.Lock()
	v.err = err
	v.mu.Unlock()
	v.logger.Error().Err(err).Msg(msg)
}

// Append normalizes records and adds them to the collection. It returns
// the number added.
//
// A record carrying a provider ID that is already loaded is dropped, since
// paginated sources may repeat a video across batches. Records without one
// get a content ID, which can collide; those are always kept and a
// colliding ID gets a "-1", "-2", ... suffix.
func (v *Viewer) Append(records []model.RawRecord) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.appendLocked(records)
}

func (v *Viewer) appendLocked(records []model.RawRecord) int {
	added := 0
	for _, raw := range records {
		video := catalog.Normalize(raw)
		if _, dup := v.ids[video.ID]; dup {
			if strings.TrimSpace(raw.ID) != "" {
				continue
			}
			video.ID = v.uniqueIDLocked(video.ID)
		}
		v.ids[video.ID] = struct{}{}
		v.videos = append(v.videos, video)
		added++
	}
	return added
}

func (v *Viewer) uniqueIDLocked(id string) string {
	for n := 1; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if _, taken := v.ids[candidate]; !taken {
			return candidate
		}
	}
}

// HasMore reports whether the source has another batch.
func (v *Viewer) HasMore() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.token != ""
}

// Err returns the error of the last failed fetch, cleared by the next
// successful one.
func (v *Viewer) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Len returns the number of loaded videos.
func (v *Viewer) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.videos)
}

// Videos returns a copy of the loaded videos in load order.
func (v *Viewer) Videos() []model.Video {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.videos)
}

// Video looks up a loaded video by ID.
func (v *Viewer) Video(id string) (model.Video, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if _, ok := v.ids[id]; !ok {
		return model.Video{}, false
	}
	i := slices.IndexFunc(v.videos, func(video model.Video) bool { return video.ID == id })
	return v.videos[i], true
}

// View derives the visible page for state.
func (v *Viewer) View(state catalog.State) model.View {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return state.Apply(v.videos)
}

// Channels returns the distinct channel names of the loaded videos.
func (v *Viewer) Channels() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return catalog.Channels(v.videos)
}

// Topics returns per-topic video counts, most popular first.
func (v *Viewer) Topics() []model.TopicCount {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return catalog.TopicCounts(v.videos)
}
