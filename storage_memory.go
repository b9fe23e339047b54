package lfas

import (
	"sort"
	"sync"
)

// memoryKey is the map key MemoryStorage uses internally; F must be
// comparable so (F, string) is a valid Go map key.
type memoryKey[F Field] struct {
	field F
	term  string
}

// MemoryStorage is the in-memory Storage implementation: a plain Go map
// guarded by a mutex, sorted only when iterated. It never fails.
type MemoryStorage[F Field] struct {
	mu   sync.RWMutex
	data map[memoryKey[F]]*Postings
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage[F Field]() *MemoryStorage[F] {
	return &MemoryStorage[F]{data: make(map[memoryKey[F]]*Postings)}
}

func (s *MemoryStorage[F]) Get(field F, term string) (*Postings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data[memoryKey[F]{field, term}]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (s *MemoryStorage[F]) Put(field F, term string, postings *Postings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[memoryKey[F]{field, term}] = postings.Clone()
	return nil
}

func (s *MemoryStorage[F]) Contains(field F, term string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[memoryKey[F]{field, term}]
	return ok, nil
}

func (s *MemoryStorage[F]) Iter() ([]PostingsKeyedPostings[F], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PostingsKeyedPostings[F], 0, len(s.data))
	for k, p := range s.data {
		out = append(out, PostingsKeyedPostings[F]{
			Key:      PostingsKey[F]{Field: k.field, Term: k.term},
			Postings: p.Clone(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Field != out[j].Key.Field {
			return out[i].Key.Field.String() < out[j].Key.Field.String()
		}
		return out[i].Key.Term < out[j].Key.Term
	})
	return out, nil
}

func (s *MemoryStorage[F]) Scan(callback func(field F, term string, encoded []byte) error) error {
	entries, err := s.Iter()
	if err != nil {
		return err
	}
	for _, e := range entries {
		encoded, err := e.Postings.MarshalBinary()
		if err != nil {
			return err
		}
		if err := callback(e.Key.Field, e.Key.Term, encoded); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStorage[F]) GetBatch(queries []PostingsKey[F]) ([]PostingsLookup, error) {
	results := make([]PostingsLookup, len(queries))
	for i, q := range queries {
		p, ok, err := s.Get(q.Field, q.Term)
		if err != nil {
			return nil, err
		}
		results[i] = PostingsLookup{Postings: p, Found: ok}
	}
	return results, nil
}

// Flush is a no-op: MemoryStorage has nothing buffered.
func (s *MemoryStorage[F]) Flush() error { return nil }

// Close is a no-op: MemoryStorage owns no external resources.
func (s *MemoryStorage[F]) Close() error { return nil }
