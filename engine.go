package lfas

// ═══════════════════════════════════════════════════════════════════════════════
// WHY TWO ROUNDS?
// ═══════════════════════════════════════════════════════════════════════════════
// Scoring every document that contains ANY query token against a short,
// noisy record (a postal address) would let a single common word like
// "rua" drag in most of the collection before BM25F gets a chance to rank
// it down. Round 1 narrows the field first, using only the query's most
// distinctive tokens (postal codes, state codes, street numbers) to build
// a small candidate set. Round 2 then scores that candidate set with every
// query token, distinctive or not, so common words still contribute to
// ranking once the set is already small.
//
// If the distinctive tokens are too strict and produce no candidates at
// all (e.g. a CEP typo), Round 1 falls back to the handful of rarest
// scoring tokens instead of returning nothing.
// ═══════════════════════════════════════════════════════════════════════════════

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// Engine is the generic, field-parameterized two-round BM25F search
// executor.
type Engine[F Field] struct {
	storage  Storage[F]
	index    *InvertedIndex[F, Storage[F]]
	metadata *FieldMetadata[F]
	scorer   *BM25FScorer[F]
	logger   *slog.Logger
}

// NewEngine wires a fresh Engine around storage.
func NewEngine[F Field](storage Storage[F], scorer *BM25FScorer[F], logger *slog.Logger) *Engine[F] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine[F]{
		storage:  storage,
		index:    NewInvertedIndex[F, Storage[F]](storage),
		metadata: NewFieldMetadata[F](),
		scorer:   scorer,
		logger:   logger,
	}
}

// fieldTokens pairs one field's query/document text with its tokenizer
// output, the unit Engine's indexing and search paths operate on; domain
// tokenization itself lives above Engine (in AddressEngine) so Engine stays
// agnostic to what "distinctive" means for a given Field type.
type fieldTokens[F Field] struct {
	field  F
	tokens TokenSet
}

// IndexFields records one document's per-field token sets: updates field
// lengths, posting lists, and document frequencies. Each (field, term) in
// a field's All set contributes at most one document-frequency increment,
// regardless of how many times the term recurs in that field.
func (e *Engine[F]) IndexFields(doc DocID, fields []fieldTokens[F]) error {
	e.metadata.RecordDocument(doc)

	for _, ft := range fields {
		e.metadata.RecordFieldLength(doc, ft.field, len(ft.tokens.All))
		for term := range ft.tokens.All {
			if err := e.index.AddTerm(doc, ft.field, term); err != nil {
				return fmt.Errorf("indexing doc %d field %v term %q: %w", doc, ft.field, term, err)
			}
			e.metadata.RecordTermPresence(ft.field, term)
		}
	}
	return nil
}

// IndexBatchFields is IndexFields for many documents at once, batching
// every document's and field's posting-list updates into a single
// InvertedIndex.AddBatch call.
func (e *Engine[F]) IndexBatchFields(docs []DocID, perDoc [][]fieldTokens[F]) error {
	if len(docs) != len(perDoc) {
		return fmt.Errorf("%w: docs and perDoc length mismatch (%d != %d)", ErrConfiguration, len(docs), len(perDoc))
	}

	entries := make([]BatchEntry[F], 0)
	for i, doc := range docs {
		e.metadata.RecordDocument(doc)
		for _, ft := range perDoc[i] {
			e.metadata.RecordFieldLength(doc, ft.field, len(ft.tokens.All))
			for term := range ft.tokens.All {
				entries = append(entries, BatchEntry[F]{Doc: doc, Field: ft.field, Term: term})
				e.metadata.RecordTermPresence(ft.field, term)
			}
		}
	}
	if len(entries) == 0 {
		return nil
	}

	tm := startTimer(e.logger, "index_batch")
	defer tm.logWithRate(len(docs))
	return e.index.AddBatch(entries)
}

// searchCandidates runs Round 1: union the distinctive tokens' bitmaps; if
// that is empty but there are scoring tokens at all, fall back to the
// union of the k=min(5,len) rarest-by-document-frequency scoring tokens.
func (e *Engine[F]) searchCandidates(distinctive, scoring []PostingsKey[F]) (*roaring.Bitmap, error) {
	bitmaps := make([]*roaring.Bitmap, 0, len(distinctive))
	for _, t := range distinctive {
		bm, err := e.index.TermBitmap(t.Field, t.Term)
		if err != nil {
			return nil, err
		}
		bitmaps = append(bitmaps, bm)
	}
	candidates := Union(bitmaps)
	if !candidates.IsEmpty() || len(scoring) == 0 {
		return candidates, nil
	}

	e.logger.Debug("[SEARCH] distinctive tokens produced no candidates, falling back to rarest scoring tokens")

	type rareToken struct {
		token PostingsKey[F]
		df    int
	}
	rare := make([]rareToken, 0, len(scoring))
	for _, t := range scoring {
		rare = append(rare, rareToken{token: t, df: e.metadata.DocumentFrequency(t.Field, t.Term)})
	}
	sort.Slice(rare, func(i, j int) bool { return rare[i].df < rare[j].df })

	k := 5
	if len(rare) < k {
		k = len(rare)
	}
	fallbackBitmaps := make([]*roaring.Bitmap, 0, k)
	for _, r := range rare[:k] {
		bm, err := e.index.TermBitmap(r.token.Field, r.token.Term)
		if err != nil {
			return nil, err
		}
		fallbackBitmaps = append(fallbackBitmaps, bm)
	}
	return Union(fallbackBitmaps), nil
}

// Search runs the two-round executor over distinctive/scoring query tokens
// and returns the top topK hits by descending score, ties broken by
// ascending doc id for determinism.
func (e *Engine[F]) Search(distinctive, scoring []PostingsKey[F], topK int) ([]SearchHit, error) {
	tm := startTimer(e.logger, "search")
	defer tm.log()

	candidates, err := e.searchCandidates(distinctive, scoring)
	if err != nil {
		return nil, err
	}
	if candidates.IsEmpty() {
		e.logger.Debug("[SEARCH] no candidates after round 1 and fallback")
		return nil, nil
	}

	e.logger.Debug("[SCORER] scoring candidates", slog.Int("candidates", int(candidates.GetCardinality())), slog.Int("scoring_tokens", len(scoring)))
	hits := e.scorer.Score(candidates, scoring, e.index, e.metadata)

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// TotalDocs returns the number of documents indexed so far.
func (e *Engine[F]) TotalDocs() int {
	return e.metadata.TotalDocs()
}

// Flush durably commits any buffered writes in the underlying storage.
func (e *Engine[F]) Flush() error {
	return e.storage.Flush()
}

// Close flushes and releases the underlying storage.
func (e *Engine[F]) Close() error {
	return e.storage.Close()
}
