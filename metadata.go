package lfas

// ═══════════════════════════════════════════════════════════════════════════════
// WHY DO WE NEED FIELD METADATA AT ALL?
// ═══════════════════════════════════════════════════════════════════════════════
// BM25F needs three numbers that the posting lists alone don't carry:
//
//   - how long THIS document's field is, to normalize term frequency
//     against documents of very different lengths (a one-word Bairro vs.
//     a ten-word Nome),
//   - how long fields of that kind usually are, as the normalization's
//     baseline (avgdl),
//   - how many documents in the whole collection contain a given
//     (field, term) at all, to tell a distinguishing term from a common
//     one (idf).
//
// FieldMetadata tracks exactly these three things, updated incrementally
// as records are indexed.
// ═══════════════════════════════════════════════════════════════════════════════

// FieldMetadata accumulates the document-length and document-frequency
// statistics BM25F scoring needs.
type FieldMetadata[F Field] struct {
	// lengths[doc][field] is the token count of that document's field.
	lengths map[DocID]map[F]int

	// totalFieldLengths[field] sums lengths[*][field] across every
	// document seen, the numerator of avgdl.
	totalFieldLengths map[F]int

	// termDF[(field,term)] counts documents containing that (field,term)
	// at least once. Incremented once per document per (field,term), never
	// once per occurrence: the IDF formula assumes document frequency.
	termDF map[metadataKey[F]]int
}

type metadataKey[F Field] struct {
	field F
	term  string
}

// NewFieldMetadata returns an empty FieldMetadata.
func NewFieldMetadata[F Field]() *FieldMetadata[F] {
	return &FieldMetadata[F]{
		lengths:           make(map[DocID]map[F]int),
		totalFieldLengths: make(map[F]int),
		termDF:            make(map[metadataKey[F]]int),
	}
}

// RecordFieldLength registers that doc's field has length tokens (the
// engine passes the size of the field's All token set). Calling this twice for the same
// (doc, field) overwrites the earlier length and adjusts
// totalFieldLengths by the delta, so re-indexing a document does not
// silently double-count its length contribution.
func (m *FieldMetadata[F]) RecordFieldLength(doc DocID, field F, length int) {
	perDoc, ok := m.lengths[doc]
	if !ok {
		perDoc = make(map[F]int)
		m.lengths[doc] = perDoc
	}
	previous := perDoc[field]
	perDoc[field] = length
	m.totalFieldLengths[field] += length - previous
}

// RecordDocument marks doc as present in the collection, incrementing
// totalDocs exactly once per distinct doc id regardless of how many times
// it is called for the same id.
func (m *FieldMetadata[F]) RecordDocument(doc DocID) {
	if _, ok := m.lengths[doc]; !ok {
		m.lengths[doc] = make(map[F]int)
	}
	// totalDocs is derived from len(m.lengths) at read time via TotalDocs,
	// so no separate bookkeeping is needed here beyond ensuring the doc
	// has an entry.
}

// RecordTermPresence increments the document frequency of (field, term) by
// one, intended to be called at most once per (doc, field, term) — callers
// (IndexRecord/IndexBatch) dedupe within a single document's token set
// before calling this.
func (m *FieldMetadata[F]) RecordTermPresence(field F, term string) {
	m.termDF[metadataKey[F]{field, term}]++
}

// TotalDocs returns the number of distinct documents recorded.
func (m *FieldMetadata[F]) TotalDocs() int {
	return len(m.lengths)
}

// FieldLength returns the token length doc's field was recorded with, or
// (0, false) if never recorded.
func (m *FieldMetadata[F]) FieldLength(doc DocID, field F) (int, bool) {
	perDoc, ok := m.lengths[doc]
	if !ok {
		return 0, false
	}
	length, ok := perDoc[field]
	return length, ok
}

// AverageFieldLength returns totalFieldLengths[field] / totalDocs, or 1.0
// when there are no documents yet or field has never contributed any
// length, so the BM25F length-normalization term stays finite rather than
// dividing by zero.
func (m *FieldMetadata[F]) AverageFieldLength(field F) float64 {
	total := m.TotalDocs()
	sum := m.totalFieldLengths[field]
	if total == 0 || sum == 0 {
		return 1.0
	}
	return float64(sum) / float64(total)
}

// DocumentFrequency returns how many documents contain (field, term).
func (m *FieldMetadata[F]) DocumentFrequency(field F, term string) int {
	return m.termDF[metadataKey[F]{field, term}]
}
