package lfas

import (
	"fmt"
	"os"
	"strings"
)

// AddressEngine specializes Engine[RecordField] to the Brazilian postal
// address domain: it owns the tokenizer glue between raw field strings and
// Engine's per-field token sets.
type AddressEngine struct {
	engine *Engine[RecordField]
	config *engineConfig
}

// Open constructs an AddressEngine bound to an on-disk Badger store at
// path, creating directories as needed.
func Open(path string, opts ...Option) (*AddressEngine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	storage, err := OpenBadgerStorage[RecordField](path, DecodeRecordField, BadgerOpenOptions{
		BatchSize: cfg.batchSize,
		Logger:    cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening address engine at %q: %w", path, err)
	}
	return newAddressEngine(storage, cfg), nil
}

// NewAddressEngine wires an AddressEngine around an arbitrary Storage
// backend (typically MemoryStorage, for tests and benchmarks) with the
// given options applied over the defaults (k1=1.2, every field weight=1.0,
// b=0.75).
func NewAddressEngine(storage Storage[RecordField], opts ...Option) *AddressEngine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newAddressEngine(storage, cfg)
}

func newAddressEngine(storage Storage[RecordField], cfg *engineConfig) *AddressEngine {
	scorer := &BM25FScorer[RecordField]{
		K1:           cfg.k1,
		FieldWeights: cfg.fieldWeights,
		FieldB:       cfg.fieldB,
	}
	return &AddressEngine{
		engine: NewEngine[RecordField](storage, scorer, cfg.logger),
		config: cfg,
	}
}

// tokenizeFields turns {field name: raw text} into the fieldTokens slice
// Engine operates on. Field names that don't map to a RecordField are
// logged and skipped rather than rejecting the whole record.
func (ae *AddressEngine) tokenizeFields(fields map[string]string) []fieldTokens[RecordField] {
	out := make([]fieldTokens[RecordField], 0, len(fields))
	for name, text := range fields {
		field, ok := fieldFromName(name)
		if !ok {
			ae.config.logger.Warn("skipping unknown field", "field", name)
			continue
		}
		out = append(out, fieldTokens[RecordField]{field: field, tokens: TokenizeStructured(text)})
	}
	return out
}

// IndexRecord tokenizes and indexes one document's fields.
func (ae *AddressEngine) IndexRecord(doc DocID, fields map[string]string) error {
	return ae.engine.IndexFields(doc, ae.tokenizeFields(fields))
}

// IndexBatch tokenizes and indexes many documents in one pass, batching
// posting-list writes through the underlying storage's write buffer.
func (ae *AddressEngine) IndexBatch(records []BatchRecord) error {
	docs := make([]DocID, len(records))
	perDoc := make([][]fieldTokens[RecordField], len(records))
	for i, r := range records {
		docs[i] = r.DocID
		perDoc[i] = ae.tokenizeFields(r.Fields)
	}
	return ae.engine.IndexBatchFields(docs, perDoc)
}

// queryTokens splits a structured query's fields into the distinctive and
// scoring (field, term) lists the two-round executor needs: every field's
// All tokens feed the scoring list, while only Distinctive tokens feed
// round 1's candidate narrowing.
func queryTokens(fields map[string]string) (distinctive, scoring []PostingsKey[RecordField]) {
	for name, text := range fields {
		field, ok := fieldFromName(name)
		if !ok {
			continue
		}
		set := TokenizeStructured(text)
		for term := range set.All {
			scoring = append(scoring, PostingsKey[RecordField]{Field: field, Term: term})
		}
		for term := range set.Distinctive {
			distinctive = append(distinctive, PostingsKey[RecordField]{Field: field, Term: term})
		}
	}
	return distinctive, scoring
}

// Search tokenizes query's fields and runs the two-round executor,
// returning at most topK hits ordered by descending BM25F score. An empty
// query, a query whose fields are all unknown, or a query whose values are
// all whitespace yields no usable tokens; that is success with zero hits,
// not an error. blockingK is carried for forward compatibility and is
// currently unused: the fallback step's k is fixed at min(5, len(scoring)).
func (ae *AddressEngine) Search(query map[string]string, topK int, blockingK int) ([]SearchHit, error) {
	_ = blockingK
	distinctive, scoring := queryTokens(query)
	if len(scoring) == 0 {
		return nil, nil
	}
	return ae.engine.Search(distinctive, scoring, topK)
}

// TotalDocs returns the number of documents indexed so far.
func (ae *AddressEngine) TotalDocs() int {
	return ae.engine.TotalDocs()
}

// Stats reports the document count, per-field average lengths, and the
// dropped-token counter as one human-readable summary line.
func (ae *AddressEngine) Stats() string {
	var b strings.Builder
	fmt.Fprintf(&b, "docs=%d", ae.engine.TotalDocs())
	for _, f := range recordFieldOrder {
		fmt.Fprintf(&b, " avgdl[%s]=%.2f", f, ae.engine.metadata.AverageFieldLength(f))
	}
	fmt.Fprintf(&b, " dropped_tokens=%d", ae.engine.scorer.DroppedTokens())
	return b.String()
}

// Flush durably commits any buffered writes.
func (ae *AddressEngine) Flush() error {
	return ae.engine.Flush()
}

// Close flushes and releases the underlying storage.
func (ae *AddressEngine) Close() error {
	return ae.engine.Close()
}

// SaveMetadata serializes the engine's field-length and document-frequency
// statistics to path, letting a later Open/LoadMetadata skip retokenizing
// every field to rebuild avgdl/idf.
func (ae *AddressEngine) SaveMetadata(path string) error {
	data, err := SerializeMetadata[RecordField](ae.engine.metadata)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing metadata sidecar %q: %v", ErrStorageIO, path, err)
	}
	return nil
}

// LoadMetadata replaces the engine's in-memory statistics with data
// previously written by SaveMetadata. Posting lists are unaffected; they
// live in storage and are loaded by Open/NewAddressEngine reusing the same
// Storage backend.
func (ae *AddressEngine) LoadMetadata(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading metadata sidecar %q: %v", ErrStorageIO, path, err)
	}
	m, err := DeserializeMetadata[RecordField](data, DecodeRecordField)
	if err != nil {
		return err
	}
	ae.engine.metadata = m
	return nil
}
