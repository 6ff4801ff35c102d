package nlp

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/observability"
)

var ErrCacheClosed = errors.New("model cache is closed")

var _ models.ModelProvider = &ModelCache{}

// ModelCache holds at most one handle per model identifier for the life of
// the process. Handles are loaded on first use. A failed load is not cached.
// Loads hold a per-identifier lock only, so cached hits never wait on a load.
type ModelCache struct {
	loader      models.InferenceLoader
	loadTimeout time.Duration

	mu      sync.RWMutex
	handles map[models.ModelIdentifier]models.InferenceHandle
	loading map[models.ModelIdentifier]*sync.Mutex
	closed  bool
}

// NewModelCache returns an empty cache. A non-zero loadTimeout bounds each
// load.
func NewModelCache(loader models.InferenceLoader, loadTimeout time.Duration) *ModelCache {
	return &ModelCache{
		loader:      loader,
		loadTimeout: loadTimeout,
		handles:     make(map[models.ModelIdentifier]models.InferenceHandle),
		loading:     make(map[models.ModelIdentifier]*sync.Mutex),
	}
}

// Get returns the cached handle for id, loading it on a miss. Concurrent
// misses for the same id load once.
func (c *ModelCache) Get(ctx context.Context, id models.ModelIdentifier) (models.InferenceHandle, error) {
	if h, err, ok := c.lookup(id); ok {
		return h, err
	}

	c.mu.Lock()
	loadMu, ok := c.loading[id]
	if !ok {
		loadMu = &sync.Mutex{}
		c.loading[id] = loadMu
	}
	c.mu.Unlock()

	loadMu.Lock()
	defer loadMu.Unlock()

	// another caller may have finished loading while we waited
	if h, err, ok := c.lookup(id); ok {
		return h, err
	}

	loadCtx := ctx
	if c.loadTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, c.loadTimeout)
		defer cancel()
	}

	h, err := c.loader.Load(loadCtx, id)
	observability.ObserveModelLoad(id.String(), err)
	if err != nil {
		log.WithError(err).Errorf("Failed to load model %s", id)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = closeHandle(h)
		return nil, ErrCacheClosed
	}
	c.handles[id] = h
	observability.ModelsCached.Set(float64(len(c.handles)))
	log.Debugf("Cached model %s version %s", id, h.Version())

	return h, nil
}

// lookup reports a cached handle, or ErrCacheClosed, under the read lock.
func (c *ModelCache) lookup(id models.ModelIdentifier) (models.InferenceHandle, error, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrCacheClosed, true
	}
	h, ok := c.handles[id]
	return h, nil, ok
}

// Invalidate drops the handle for id so the next Get reloads it, e.g. after
// the NLP server has been redeployed with a new model version.
func (c *ModelCache) Invalidate(id models.ModelIdentifier) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.handles[id]
	if !ok {
		return
	}
	delete(c.handles, id)
	observability.ModelsCached.Set(float64(len(c.handles)))
	_ = closeHandle(h)
}

// Len returns the number of cached handles.
func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}

// Close releases every handle. Get fails with ErrCacheClosed afterwards.
func (c *ModelCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for id, h := range c.handles {
		if err := closeHandle(h); err != nil {
			errs = append(errs, err)
		}
		delete(c.handles, id)
	}
	observability.ModelsCached.Set(0)

	return errors.Join(errs...)
}

func closeHandle(h models.InferenceHandle) error {
	if closer, ok := h.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warnf("Failed to close model %s", h.Model())
			return err
		}
	}
	return nil
}
