package lfas

// ═══════════════════════════════════════════════════════════════════════════════
// WHY A SINGLE PROCESS-WIDE LOCK?
// ═══════════════════════════════════════════════════════════════════════════════
// Multi-writer concurrency is out of scope, so Handle does
// the simplest thing that is still safe for concurrent readers: one
// sync.RWMutex, held exclusively while indexing and shared while
// searching. A large batch is chunked so a long-running index doesn't
// starve searches indefinitely — each chunk releases the write lock before
// the next one is taken.
// ═══════════════════════════════════════════════════════════════════════════════

import (
	"fmt"
	"sync"
)

// DefaultChunkSize bounds how many records Handle indexes per write-lock
// acquisition in IndexBatch.
const DefaultChunkSize = 1_000

// Handle serializes access to an AddressEngine: exclusive for writes
// (IndexRecord/IndexBatch/Flush), shared for reads (Search/TotalDocs/Stats).
type Handle struct {
	mu        sync.RWMutex
	engine    *AddressEngine
	chunkSize int
}

// NewHandle wraps engine for concurrent access, chunking batch indexing at
// chunkSize records (DefaultChunkSize if chunkSize <= 0).
func NewHandle(engine *AddressEngine, chunkSize int) *Handle {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Handle{engine: engine, chunkSize: chunkSize}
}

// IndexRecord indexes one document under the exclusive lock.
func (h *Handle) IndexRecord(doc DocID, fields map[string]string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.IndexRecord(doc, fields)
}

// IndexBatch indexes records in chunks of h.chunkSize, releasing and
// reacquiring the exclusive lock between chunks so a large batch doesn't
// block searches for its entire duration.
func (h *Handle) IndexBatch(records []BatchRecord) error {
	for start := 0; start < len(records); start += h.chunkSize {
		end := start + h.chunkSize
		if end > len(records) {
			end = len(records)
		}

		h.mu.Lock()
		err := h.engine.IndexBatch(records[start:end])
		h.mu.Unlock()

		if err != nil {
			return fmt.Errorf("indexing batch chunk [%d:%d): %w", start, end, err)
		}
	}
	return nil
}

// Search runs a query under the shared lock.
func (h *Handle) Search(query map[string]string, topK int, blockingK int) ([]SearchHit, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine.Search(query, topK, blockingK)
}

// TotalDocs reports the document count under the shared lock.
func (h *Handle) TotalDocs() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine.TotalDocs()
}

// Stats reports collection statistics under the shared lock.
func (h *Handle) Stats() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine.Stats()
}

// Flush commits buffered writes under the exclusive lock.
func (h *Handle) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.Flush()
}

// SaveMetadata serializes collection statistics to path under the shared lock.
func (h *Handle) SaveMetadata(path string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine.SaveMetadata(path)
}

// LoadMetadata replaces collection statistics from path under the exclusive
// lock: it mutates engine state, so it is not safe to run alongside a Search.
func (h *Handle) LoadMetadata(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.LoadMetadata(path)
}

// Close flushes and releases the engine's storage under the exclusive lock.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.Close()
}
