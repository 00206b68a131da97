package tsfile

import (
	"container/list"
	"os"
	"sync"

	"github.com/soltixdb/soltix/internal/config"
	"github.com/soltixdb/soltix/internal/logging"
)

var fileCacheLog = logging.Global().With("component", "tsfile.filereadercache")

// fileKey identifies one cached handle. A file that is still being
// written (closed=false) and its eventual closed, fully-indexed form
// are cached separately since their chunk-metadata lists differ.
type fileKey struct {
	path   string
	closed bool
}

// FileHandle is a ref-counted open file. Borrows pin the handle open
// even if the cache wants to evict it; eviction is deferred until the
// ref count drops to zero.
type FileHandle struct {
	path string
	f    *os.File

	mu       sync.Mutex
	refCount int
	evicted  bool
}

// File returns the underlying *os.File. Valid only between Get and
// Release.
func (h *FileHandle) File() *os.File { return h.f }

func (h *FileHandle) retain() {
	h.mu.Lock()
	h.refCount++
	h.mu.Unlock()
}

// release decrements the ref count and closes the handle immediately
// if it was marked evicted while still pinned.
func (h *FileHandle) release() {
	h.mu.Lock()
	h.refCount--
	shouldClose := h.evicted && h.refCount == 0
	h.mu.Unlock()
	if shouldClose {
		h.f.Close()
	}
}

// FileReaderCache bounds the number of concurrently open file handles
// across all queries, evicting least-recently-used handles once
// capacity is exceeded. Modeled on the per-key mutex + RWMutex-guarded
// map pattern storage.Storage uses for its metadata cache, generalized
// from "per date directory" to "per file handle".
type FileReaderCache struct {
	capacity   int
	evictBatch int

	mu      sync.Mutex
	entries map[fileKey]*list.Element // key -> node in lru (front = most recent)
	lru     *list.List

	keyLocks     map[fileKey]*sync.Mutex
	keyLocksLock sync.Mutex
}

type cacheEntry struct {
	key    fileKey
	handle *FileHandle
}

// NewFileReaderCache returns a cache that holds at most capacity
// handles, removing up to evictBatch of the least-recently-used handles
// per sweep once that bound is exceeded.
func NewFileReaderCache(capacity, evictBatch int) *FileReaderCache {
	if capacity < 1 {
		capacity = 1
	}
	if evictBatch < 1 {
		evictBatch = 1
	}
	return &FileReaderCache{
		capacity:   capacity,
		evictBatch: evictBatch,
		entries:    make(map[fileKey]*list.Element),
		lru:        list.New(),
		keyLocks:   make(map[fileKey]*sync.Mutex),
	}
}

// NewFileReaderCacheFromConfig builds a FileReaderCache sized from the
// tsfile section of the loaded configuration, so a deployment's
// file_reader_cache_capacity / lru_eviction_batch settings actually reach
// the cache rather than only being validated.
func NewFileReaderCacheFromConfig(cfg config.TSFileConfig) *FileReaderCache {
	return NewFileReaderCache(cfg.FileReaderCacheCapacity, cfg.LRUEvictionBatch)
}

func (c *FileReaderCache) keyLock(key fileKey) *sync.Mutex {
	c.keyLocksLock.Lock()
	defer c.keyLocksLock.Unlock()
	if mu, ok := c.keyLocks[key]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	c.keyLocks[key] = mu
	return mu
}

// Get returns a pinned FileHandle for (path, closed), opening it on a
// miss. The caller MUST call Release exactly once when done. Opens for
// distinct keys never block each other; opens for the same key are
// serialized to avoid duplicate os.Open calls racing on a miss.
func (c *FileReaderCache) Get(path string, closed bool) (*FileHandle, error) {
	key := fileKey{path: path, closed: closed}

	mu := c.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		c.mu.Unlock()
		entry.handle.retain()
		return entry.handle, nil
	}
	c.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		fileCacheLog.Warn("open failed", "path", path, "error", err)
		return nil, newErr(KindIO, "FileReaderCache.Get", err)
	}
	handle := &FileHandle{path: path, f: f}
	handle.retain()

	c.mu.Lock()
	elem := c.lru.PushFront(&cacheEntry{key: key, handle: handle})
	c.entries[key] = elem
	c.mu.Unlock()

	c.evictIfOverCapacity()
	return handle, nil
}

// Release returns a handle borrowed from Get. Every Get must be
// balanced by exactly one Release.
func (c *FileReaderCache) Release(h *FileHandle) {
	h.release()
}

// evictIfOverCapacity removes up to evictBatch least-recently-used
// handles from the cache once it exceeds capacity. A handle with zero
// outstanding borrows is closed immediately; a handle still pinned by
// an in-flight query is removed as well but only marked for deferred
// close, so it stays open until its last Release.
func (c *FileReaderCache) evictIfOverCapacity() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lru.Len() <= c.capacity {
		return
	}

	evicted := 0
	for elem := c.lru.Back(); elem != nil && evicted < c.evictBatch && c.lru.Len() > c.capacity; {
		prev := elem.Prev()
		entry := elem.Value.(*cacheEntry)

		entry.handle.mu.Lock()
		borrowed := entry.handle.refCount > 0
		if !borrowed {
			entry.handle.evicted = true
		} else {
			entry.handle.evicted = true // close as soon as last borrower releases
		}
		entry.handle.mu.Unlock()

		delete(c.entries, entry.key)
		c.lru.Remove(elem)
		if !borrowed {
			entry.handle.f.Close()
		}
		evicted++
		elem = prev
	}
}

// Close closes every handle with no outstanding borrows and marks the
// rest for deferred close, then empties the cache. Intended for
// shutdown; in-flight queries holding a borrow keep their handle valid
// until they call Release.
func (c *FileReaderCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, elem := range c.entries {
		entry := elem.Value.(*cacheEntry)
		entry.handle.mu.Lock()
		borrowed := entry.handle.refCount > 0
		entry.handle.evicted = true
		entry.handle.mu.Unlock()
		if !borrowed {
			entry.handle.f.Close()
		}
	}
	c.entries = make(map[fileKey]*list.Element)
	c.lru = list.New()
}
