// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS AN INVERTED INDEX?
// ═══════════════════════════════════════════════════════════════════════════════
// An inverted index is like the index at the back of a book: instead of
// scanning every document to see which ones mention a term, you look the
// term up once and get back the list of documents that contain it.
//
// Here the index is keyed by (field, term) rather than just term, because
// records are structured: "mauriti" in the Rua field and "mauriti" in the
// Nome field are tracked as two independent posting lists.
// ═══════════════════════════════════════════════════════════════════════════════

package lfas

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// InvertedIndex maintains (field, term) -> Postings through a pluggable
// Storage backend and exposes bitmap set-algebra helpers over it.
type InvertedIndex[F Field, S Storage[F]] struct {
	mu      sync.Mutex
	storage S
}

// NewInvertedIndex wraps storage in an InvertedIndex.
func NewInvertedIndex[F Field, S Storage[F]](storage S) *InvertedIndex[F, S] {
	return &InvertedIndex[F, S]{storage: storage}
}

// AddTerm records one occurrence of term in field for doc: fetch existing
// (or empty) postings, call AddOccurrence, put back. Not atomic across the
// read/modify/write; callers hold the engine's exclusive write lock for
// the duration.
func (idx *InvertedIndex[F, S]) AddTerm(doc DocID, field F, term string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	postings, ok, err := idx.storage.Get(field, term)
	if err != nil {
		return err
	}
	if !ok {
		postings = NewPostings()
	}
	postings.AddOccurrence(doc)
	return idx.storage.Put(field, term, postings)
}

// BatchEntry is one (doc, field, term) contribution to AddBatch.
type BatchEntry[F Field] struct {
	Doc   DocID
	Field F
	Term  string
}

// AddBatch aggregates entries into (field, term) -> Postings in memory,
// deduplicating each key's doc-id sequence before incrementing frequencies
// (a doc listed twice for the same (field, term) within one batch call
// must not double-count), then performs one Get, one Merge, and one Put
// per key. This collapses N tokens sharing a key into a single storage
// round trip.
func (idx *InvertedIndex[F, S]) AddBatch(entries []BatchEntry[F]) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	type aggKey struct {
		field F
		term  string
	}
	seen := make(map[aggKey]map[DocID]struct{})
	agg := make(map[aggKey]*Postings)
	order := make([]aggKey, 0)

	for _, e := range entries {
		k := aggKey{e.Field, e.Term}
		postings, ok := agg[k]
		if !ok {
			postings = NewPostings()
			agg[k] = postings
			seen[k] = make(map[DocID]struct{})
			order = append(order, k)
		}
		if _, already := seen[k][e.Doc]; already {
			continue
		}
		seen[k][e.Doc] = struct{}{}
		postings.AddOccurrence(e.Doc)
	}

	for _, k := range order {
		existing, ok, err := idx.storage.Get(k.field, k.term)
		if err != nil {
			return err
		}
		merged := agg[k]
		if ok {
			existing.Merge(merged)
			merged = existing
		}
		if err := idx.storage.Put(k.field, k.term, merged); err != nil {
			return err
		}
	}
	return nil
}

// GetPostings returns the postings for (field, term), or ok=false if absent.
func (idx *InvertedIndex[F, S]) GetPostings(field F, term string) (*Postings, bool, error) {
	return idx.storage.Get(field, term)
}

// GetPostingsBatch reads every key through the backend's batched read path
// — one read transaction for BadgerStorage, a per-key loop for
// MemoryStorage.
func (idx *InvertedIndex[F, S]) GetPostingsBatch(keys []PostingsKey[F]) ([]PostingsLookup, error) {
	return idx.storage.GetBatch(keys)
}

// TermBitmap returns the doc-id bitmap for (field, term), or an empty
// bitmap if the term is unknown.
func (idx *InvertedIndex[F, S]) TermBitmap(field F, term string) (*roaring.Bitmap, error) {
	postings, ok, err := idx.storage.Get(field, term)
	if err != nil {
		return nil, err
	}
	if !ok {
		return roaring.NewBitmap(), nil
	}
	return postings.Bitmap(), nil
}

// Storage exposes the underlying backend, e.g. for Flush/Close by callers
// that hold an *InvertedIndex rather than the backend directly.
func (idx *InvertedIndex[F, S]) Storage() S {
	return idx.storage
}

// Intersect returns the bitwise AND of bitmaps; Intersect(nil) is empty.
// Commutative, associative, and idempotent (repeating a bitmap in the
// input list does not change the result).
func Intersect(bitmaps []*roaring.Bitmap) *roaring.Bitmap {
	if len(bitmaps) == 0 {
		return roaring.NewBitmap()
	}
	result := bitmaps[0].Clone()
	for _, b := range bitmaps[1:] {
		result.And(b)
	}
	return result
}

// Union returns the bitwise OR of bitmaps; Union(nil) is empty. Commutative,
// associative, and idempotent.
func Union(bitmaps []*roaring.Bitmap) *roaring.Bitmap {
	result := roaring.NewBitmap()
	for _, b := range bitmaps {
		result.Or(b)
	}
	return result
}
