package lfas

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

// DefaultBatchSize is the default number of buffered writes before the
// on-disk backend sorts and commits a batch.
const DefaultBatchSize = 100_000

// BadgerStorage is the on-disk Storage backend, an embedded key-value
// store with buffered writes committed in sorted batches.
//
// The buffer is a map keyed by encoded storage key: Put replaces in place
// (last write wins, matching Put's replace semantics), and
// Get/Contains/GetBatch consult the buffer before the store. AddTerm and
// AddBatch read-modify-write through Get, so a buffer-blind read would
// drop every occurrence recorded for a key since the last flush.
type BadgerStorage[F Field] struct {
	db        *badger.DB
	decodeF   func([]byte) (F, error)
	batchSize int
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string][]byte
}

// BadgerOpenOptions configures OpenBadgerStorage.
type BadgerOpenOptions struct {
	BatchSize int
	Logger    *slog.Logger
}

// OpenBadgerStorage opens (creating if necessary) a Badger-backed store at
// path. decodeF reconstructs an F from the single-byte encoding
// RecordField.MarshalBinary produces; callers with a different Field type
// supply their own inverse.
func OpenBadgerStorage[F Field](path string, decodeF func([]byte) (F, error), opts BadgerOpenOptions) (*BadgerStorage[F], error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating storage directory %q: %v", ErrConfiguration, path, err)
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	badgerOpts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: opening badger environment at %q: %v", ErrStorageIO, path, err)
	}

	return &BadgerStorage[F]{
		db:        db,
		decodeF:   decodeF,
		batchSize: batchSize,
		logger:    logger,
		pending:   make(map[string][]byte, batchSize),
	}, nil
}

// encodeKey builds the storage key: hex(field bytes) + ":" + term. Hex
// keeps keys ordered by field then term.
func encodeKey[F Field](field F, term string) (string, error) {
	fieldBytes, err := field.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("%w: marshaling field: %v", ErrSerialization, err)
	}
	var b strings.Builder
	b.Grow(len(fieldBytes)*2 + 1 + len(term))
	b.WriteString(hex.EncodeToString(fieldBytes))
	b.WriteByte(':')
	b.WriteString(term)
	return b.String(), nil
}

func (s *BadgerStorage[F]) decodeKey(key string) (F, string, error) {
	var zero F
	colon := strings.IndexByte(key, ':')
	if colon < 0 {
		return zero, "", fmt.Errorf("%w: storage key %q missing ':' separator", ErrSerialization, key)
	}
	fieldBytes, err := hex.DecodeString(key[:colon])
	if err != nil {
		return zero, "", fmt.Errorf("%w: decoding field hex: %v", ErrSerialization, err)
	}
	field, err := s.decodeF(fieldBytes)
	if err != nil {
		return zero, "", fmt.Errorf("%w: decoding field: %v", ErrSerialization, err)
	}
	return field, key[colon+1:], nil
}

func (s *BadgerStorage[F]) Get(field F, term string) (*Postings, bool, error) {
	key, err := encodeKey(field, term)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	buffered, ok := s.pending[key]
	s.mu.Unlock()
	if ok {
		p := NewPostings()
		if err := p.UnmarshalBinary(buffered); err != nil {
			return nil, false, err
		}
		return p, true, nil
	}

	var postings *Postings
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			postings = NewPostings()
			return postings.UnmarshalBinary(val)
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: reading (%v,%s): %v", ErrStorageIO, field, term, err)
	}
	return postings, postings != nil, nil
}

func (s *BadgerStorage[F]) Put(field F, term string, postings *Postings) error {
	key, err := encodeKey(field, term)
	if err != nil {
		return err
	}
	encoded, err := postings.MarshalBinary()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pending[key] = encoded
	flushNeeded := len(s.pending) >= s.batchSize
	s.mu.Unlock()

	if !flushNeeded {
		return nil
	}
	return s.Flush()
}

func (s *BadgerStorage[F]) Contains(field F, term string) (bool, error) {
	key, err := encodeKey(field, term)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	_, buffered := s.pending[key]
	s.mu.Unlock()
	if buffered {
		return true, nil
	}

	found := false
	err = s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: checking (%v,%s): %v", ErrStorageIO, field, term, err)
	}
	return found, nil
}

func (s *BadgerStorage[F]) Iter() ([]PostingsKeyedPostings[F], error) {
	var out []PostingsKeyedPostings[F]
	err := s.Scan(func(field F, term string, encoded []byte) error {
		p := NewPostings()
		if err := p.UnmarshalBinary(encoded); err != nil {
			return err
		}
		out = append(out, PostingsKeyedPostings[F]{
			Key:      PostingsKey[F]{Field: field, Term: term},
			Postings: p,
		})
		return nil
	})
	return out, err
}

// Scan hands the callback each entry's still-encoded bytes within a single
// read transaction, avoiding a decode for callers that only need to
// re-serialize or forward the bytes. Scan and Iter enumerate committed
// state only; bulk passes are expected to Flush first.
func (s *BadgerStorage[F]) Scan(callback func(field F, term string, encoded []byte) error) error {
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			field, term, err := s.decodeKey(key)
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				return callback(field, term, val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: scanning storage: %v", ErrStorageIO, err)
	}
	return nil
}

// GetBatch reads every query under one Badger read transaction. Keys
// still sitting in the write buffer are answered from it first.
func (s *BadgerStorage[F]) GetBatch(queries []PostingsKey[F]) ([]PostingsLookup, error) {
	results := make([]PostingsLookup, len(queries))
	keys := make([][]byte, len(queries))

	s.mu.Lock()
	for i, q := range queries {
		key, err := encodeKey(q.Field, q.Term)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if buffered, ok := s.pending[key]; ok {
			p := NewPostings()
			if err := p.UnmarshalBinary(buffered); err != nil {
				s.mu.Unlock()
				return nil, err
			}
			results[i] = PostingsLookup{Postings: p, Found: true}
			continue
		}
		keys[i] = []byte(key)
	}
	s.mu.Unlock()

	err := s.db.View(func(txn *badger.Txn) error {
		for i := range queries {
			if keys[i] == nil {
				continue
			}
			item, err := txn.Get(keys[i])
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				p := NewPostings()
				if err := p.UnmarshalBinary(val); err != nil {
					return err
				}
				results[i] = PostingsLookup{Postings: p, Found: true}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: batch reading storage: %v", ErrStorageIO, err)
	}
	return results, nil
}

// Flush sorts the buffered writes by key (LSM-friendly insertion order)
// and commits them in one write transaction. A batch exceeding Badger's
// per-transaction cap spills into a follow-on transaction; the
// single-writer model keeps that invisible to readers.
func (s *BadgerStorage[F]) Flush() error {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return nil
	}
	pending := s.pending
	s.pending = make(map[string][]byte, s.batchSize)
	s.mu.Unlock()

	keys := make([]string, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()
	for _, key := range keys {
		err := txn.Set([]byte(key), pending[key])
		if err == badger.ErrTxnTooBig {
			if err = txn.Commit(); err != nil {
				return fmt.Errorf("%w: committing write batch: %v", ErrStorageIO, err)
			}
			txn = s.db.NewTransaction(true)
			err = txn.Set([]byte(key), pending[key])
		}
		if err != nil {
			return fmt.Errorf("%w: buffering write for commit: %v", ErrStorageIO, err)
		}
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("%w: committing write batch: %v", ErrStorageIO, err)
	}
	return nil
}

// Close flushes any buffered writes and releases the Badger handle. Errors
// during flush are logged at warn level; callers wanting guaranteed
// durability call Flush explicitly first.
func (s *BadgerStorage[F]) Close() error {
	if err := s.Flush(); err != nil {
		s.logger.Warn("flush on close failed", slog.Any("error", err))
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: closing badger environment: %v", ErrStorageIO, err)
	}
	return nil
}

// DecodeRecordField is the decodeF inverse of RecordField.MarshalBinary, for
// use with OpenBadgerStorage[RecordField].
func DecodeRecordField(b []byte) (RecordField, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("%w: record field must encode to exactly 1 byte, got %d", ErrSerialization, len(b))
	}
	return RecordField(b[0]), nil
}
