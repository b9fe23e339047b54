package lfas

// PostingsKey identifies one entry in a Storage backend: a (field, term)
// pair, unique within the store.
type PostingsKey[F Field] struct {
	Field F
	Term  string
}

// Storage is the pluggable posting-list store: Get/Put/Contains/Iter/Scan
// for single-key access and enumeration, GetBatch/Flush for the batched
// write/read paths the on-disk backend is built around. Two concrete
// implementations ship: MemoryStorage (sorted-at-iteration in-memory map)
// and BadgerStorage (on-disk, write-buffered, batch-committed).
type Storage[F Field] interface {
	// Get returns an owned copy of the postings for (field, term), or
	// ok=false if absent.
	Get(field F, term string) (postings *Postings, ok bool, err error)

	// Put replaces any existing entry for (field, term).
	Put(field F, term string, postings *Postings) error

	// Contains reports whether (field, term) has an entry.
	Contains(field F, term string) (bool, error)

	// Iter enumerates every entry in the store. MemoryStorage sorts by
	// field name, then term; BadgerStorage returns committed entries in
	// storage-key order (field encoding, then term).
	Iter() ([]PostingsKeyedPostings[F], error)

	// Scan enumerates every entry, handing the callback the still-encoded
	// bytes for backends that can avoid a decode (BadgerStorage); callers
	// that need a *Postings should decode within the callback.
	Scan(callback func(field F, term string, encoded []byte) error) error

	// GetBatch issues every read in queries under a single read
	// transaction where the backend supports it; the default
	// implementation (MemoryStorage) simply loops Get.
	GetBatch(queries []PostingsKey[F]) ([]PostingsLookup, error)

	// Flush durably commits any buffered writes; a no-op for volatile
	// backends.
	Flush() error

	// Close releases backend resources, flushing first.
	Close() error
}

// PostingsKeyedPostings pairs a PostingsKey with its stored Postings, the
// element type Iter returns.
type PostingsKeyedPostings[F Field] struct {
	Key      PostingsKey[F]
	Postings *Postings
}

// PostingsLookup is one GetBatch result slot: Postings is nil when the key
// was absent.
type PostingsLookup struct {
	Postings *Postings
	Found    bool
}
