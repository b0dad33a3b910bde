package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/ratelimit"

	"tvrelay/work/client"
	"tvrelay/work/config"
	"tvrelay/work/logger"
	"tvrelay/work/metrics"
	"tvrelay/work/parser"
	"tvrelay/work/types"
	"tvrelay/work/utils"
)

// Source URL shortcuts that never touch the network.
const (
	TestDataURL       = "TEST_DATA"
	FileContentPrefix = "FILE_CONTENT:"
)

var (
	ErrNotFound       = errors.New("source not found")
	ErrEmptyURL       = errors.New("source url is empty")
	ErrUpstreamStatus = errors.New("playlist fetch returned an error status")
)

// Store persists sources. *database.DB satisfies it.
type Store interface {
	LoadSources() ([]*types.Source, error)
	SaveSource(src *types.Source) error
	DeleteSource(id string) error
}

// Registry is the in-memory view of the subscribed sources, written through
// to an optional Store. Stored *types.Source values are never mutated; every
// change replaces the whole value, so returned sources are safe to read
// concurrently but must not be modified by callers.
type Registry struct {
	Config     *config.Config
	Fetcher    *client.Fetcher
	Store      Store
	WorkerPool *ants.Pool

	sources  *xsync.MapOf[string, *types.Source]
	limiter  ratelimit.Limiter
	stopChan chan bool
}

// New creates a Registry. store may be nil for a memory-only registry and
// pool may be nil, in which case refreshes run sequentially.
func New(cfg *config.Config, fetcher *client.Fetcher, store Store, pool *ants.Pool) *Registry {
	rate := cfg.RefreshRateLimit
	if rate <= 0 {
		rate = 1
	}

	return &Registry{
		Config:     cfg,
		Fetcher:    fetcher,
		Store:      store,
		WorkerPool: pool,
		sources:    xsync.NewMapOf[string, *types.Source](),
		limiter:    ratelimit.New(rate),
		stopChan:   make(chan bool, 1),
	}
}

// Load replaces the in-memory view with the Store's contents.
func (r *Registry) Load() error {
	if r.Store == nil {
		return nil
	}

	loaded, err := r.Store.LoadSources()
	if err != nil {
		return err
	}

	r.sources.Clear()
	for _, src := range loaded {
		r.sources.Store(src.ID, src)
	}

	logger.Info("{sources/sources - Load} loaded %d sources", len(loaded))
	return nil
}

// Resolve produces the channel list for a source URL. TEST_DATA yields the
// built-in demo channels, FILE_CONTENT:<text> parses text locally, anything
// else is fetched and parsed with the URL as its source.
func (r *Registry) Resolve(ctx context.Context, sourceURL string) ([]types.Channel, error) {
	switch {
	case sourceURL == "":
		return nil, ErrEmptyURL

	case sourceURL == TestDataURL:
		logger.Debug("{sources/sources - Resolve} using built-in demo channels")
		return DemoChannels(), nil

	case strings.HasPrefix(sourceURL, FileContentPrefix):
		logger.Debug("{sources/sources - Resolve} parsing local file content")
		result, err := parser.Parse(strings.TrimPrefix(sourceURL, FileContentPrefix), sourceURL)
		if err != nil {
			return nil, err
		}
		return result.Channels, nil
	}

	logger.Debug("{sources/sources - Resolve} fetching playlist %s", utils.LogURL(r.Config, sourceURL))

	resp, err := r.Fetcher.Fetch(ctx, sourceURL, nil)
	if err != nil {
		return nil, err
	}
	if resp.Status >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %d from %s", ErrUpstreamStatus, resp.Status, utils.LogURL(r.Config, sourceURL))
	}

	text, err := resp.Text()
	if err != nil {
		return nil, err
	}

	result, err := parser.Parse(text, sourceURL)
	if err != nil {
		return nil, err
	}

	logger.Debug("{sources/sources - Resolve} parsed %d channels (%s) from %s",
		len(result.Channels), result.Kind, utils.LogURL(r.Config, sourceURL))
	return result.Channels, nil
}

// Add resolves sourceURL and stores it as a new source. Nothing is stored
// when resolution fails.
func (r *Registry) Add(ctx context.Context, name, sourceURL string) (*types.Source, error) {
	channels, err := r.Resolve(ctx, sourceURL)
	if err != nil {
		logger.Warn("{sources/sources - Add} failed to resolve source %q: %v", name, err)
		return nil, err
	}

	now := time.Now().UTC()
	src := &types.Source{
		ID:        uuid.NewString(),
		Name:      name,
		URL:       sourceURL,
		Channels:  channels,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.persist(src); err != nil {
		return nil, err
	}
	r.sources.Store(src.ID, src)

	logger.Info("{sources/sources - Add} added source %q with %d channels (total %d)", name, len(channels), r.sources.Size())
	return src, nil
}

// Update re-resolves a source under a new name and URL, keeping its id.
func (r *Registry) Update(ctx context.Context, id, name, sourceURL string) (*types.Source, error) {
	if _, ok := r.sources.Load(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	channels, err := r.Resolve(ctx, sourceURL)
	if err != nil {
		logger.Warn("{sources/sources - Update} failed to resolve source %s: %v", id, err)
		return nil, err
	}

	var persistErr error
	src, ok := r.sources.Compute(id, func(current *types.Source, loaded bool) (*types.Source, bool) {
		if !loaded {
			return nil, true
		}
		updated := &types.Source{
			ID:        id,
			Name:      name,
			URL:       sourceURL,
			Channels:  channels,
			CreatedAt: current.CreatedAt,
			UpdatedAt: time.Now().UTC(),
		}
		if persistErr = r.persist(updated); persistErr != nil {
			return current, false
		}
		return updated, false
	})
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if persistErr != nil {
		return nil, persistErr
	}

	logger.Info("{sources/sources - Update} updated source %s with %d channels", id, len(channels))
	return src, nil
}

// Delete removes a source from the registry and the store. A source whose
// store delete fails stays registered.
func (r *Registry) Delete(id string) error {
	var (
		found    bool
		storeErr error
	)
	r.sources.Compute(id, func(current *types.Source, loaded bool) (*types.Source, bool) {
		if !loaded {
			return nil, true
		}
		found = true
		if r.Store != nil {
			if storeErr = r.Store.DeleteSource(id); storeErr != nil {
				return current, false
			}
		}
		return nil, true
	})

	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if storeErr != nil {
		logger.Error("{sources/sources - Delete} failed to delete source %s from store: %v", id, storeErr)
		return storeErr
	}

	logger.Info("{sources/sources - Delete} deleted source %s", id)
	return nil
}

// Get returns one source.
func (r *Registry) Get(id string) (*types.Source, error) {
	src, ok := r.sources.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return src, nil
}

// List returns all sources in creation order.
func (r *Registry) List() []*types.Source {
	list := make([]*types.Source, 0, r.sources.Size())
	r.sources.Range(func(_ string, src *types.Source) bool {
		list = append(list, src)
		return true
	})

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// IsRemote reports whether a source URL is fetched over the network.
func IsRemote(sourceURL string) bool {
	return sourceURL != TestDataURL && !strings.HasPrefix(sourceURL, FileContentPrefix)
}

// RefreshAll re-resolves every remote source. Refreshes run on the worker
// pool, each one waiting on the shared rate limiter first. A source whose
// refresh fails keeps its previous channels.
//
// Returns the number of sources refreshed successfully.
func (r *Registry) RefreshAll(ctx context.Context) int {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		refreshed int
	)

	for _, src := range r.List() {
		if !IsRemote(src.URL) {
			continue
		}

		task := func() {
			defer wg.Done()
			if r.refreshOne(ctx, src) {
				mu.Lock()
				refreshed++
				mu.Unlock()
			}
		}

		wg.Add(1)
		if r.WorkerPool == nil {
			task()
			continue
		}
		if err := r.WorkerPool.Submit(task); err != nil {
			logger.Error("{sources/sources - RefreshAll} failed to submit refresh of %s: %v", src.ID, err)
			metrics.SourceRefreshErrors.Inc()
			wg.Done()
		}
	}

	wg.Wait()
	logger.Debug("{sources/sources - RefreshAll} refreshed %d sources", refreshed)
	return refreshed
}

func (r *Registry) refreshOne(ctx context.Context, src *types.Source) bool {
	r.limiter.Take()

	if ctx.Err() != nil {
		return false
	}

	channels, err := r.Resolve(ctx, src.URL)
	if err != nil {
		logger.Warn("{sources/sources - refreshOne} keeping previous channels of %q: %v", src.Name, err)
		metrics.SourceRefreshErrors.Inc()
		return false
	}

	// commit only onto the current entry: a source deleted or re-pointed
	// while its fetch was in flight is left as it is now
	var refreshed bool
	r.sources.Compute(src.ID, func(current *types.Source, loaded bool) (*types.Source, bool) {
		if !loaded {
			return nil, true
		}
		if current.URL != src.URL {
			logger.Debug("{sources/sources - refreshOne} source %s changed during refresh, skipping", src.ID)
			return current, false
		}

		updated := *current
		updated.Channels = channels
		updated.UpdatedAt = time.Now().UTC()
		if err := r.persist(&updated); err != nil {
			metrics.SourceRefreshErrors.Inc()
			return current, false
		}
		refreshed = true
		return &updated, false
	})
	return refreshed
}

// StartRefresh runs RefreshAll every RefreshInterval until StopRefresh is
// called. It blocks; launch it in its own goroutine. A zero interval
// disables the loop.
func (r *Registry) StartRefresh() {
	interval := r.Config.RefreshInterval
	if interval <= 0 {
		logger.Debug("{sources/sources - StartRefresh} refresh interval is zero, periodic refresh disabled")
		return
	}

	logger.Debug("{sources/sources - StartRefresh} starting refresh loop (interval: %s)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			logger.Debug("{sources/sources - StartRefresh} refresh loop stopped")
			return
		case <-ticker.C:
			r.RefreshAll(context.Background())
		}
	}
}

// StopRefresh signals the refresh loop to exit. It never blocks.
func (r *Registry) StopRefresh() {
	select {
	case r.stopChan <- true:
	default:
		logger.Warn("{sources/sources - StopRefresh} stop signal already pending")
	}
}

func (r *Registry) persist(src *types.Source) error {
	if r.Store == nil {
		return nil
	}
	if err := r.Store.SaveSource(src); err != nil {
		logger.Error("{sources/sources - persist} failed to save source %s: %v", src.ID, err)
		return err
	}
	return nil
}
