package lfas

// ═══════════════════════════════════════════════════════════════════════════════
// BM25F IN ONE PARAGRAPH
// ═══════════════════════════════════════════════════════════════════════════════
// BM25F is BM25 generalized across several weighted fields. For each query
// (field, term) pair we compute an idf (how rare the term is within that
// field across the collection) and, for every candidate document, a
// length-normalized term frequency in that field. The field weight is
// applied to the frequency BEFORE the saturating k1 nonlinearity; each
// (field, term) pair is then saturated on its own and the contributions
// of all pairs are summed into the document's score.
// ═══════════════════════════════════════════════════════════════════════════════

import (
	"math"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
)

const (
	// DefaultK1 is BM25's term-frequency saturation parameter.
	DefaultK1 = float32(1.2)
	// DefaultB is BM25's length-normalization parameter, used for any
	// field absent from BM25FScorer.FieldB.
	DefaultB = float32(0.75)
	// DefaultFieldWeight is used for any field absent from
	// BM25FScorer.FieldWeights.
	DefaultFieldWeight = float32(1.0)
)

// BM25FScorer holds the tunable parameters of the ranking function.
type BM25FScorer[F Field] struct {
	K1           float32
	FieldWeights map[F]float32
	FieldB       map[F]float32

	// droppedTokens counts query tokens whose individual storage read
	// failed on the per-key fallback path; such a token scores as absent
	// rather than failing the whole query.
	droppedTokens atomic.Uint64
}

// NewBM25FScorer returns a scorer with the default k1/b and an empty
// weight table (every field falls back to DefaultFieldWeight/DefaultB).
func NewBM25FScorer[F Field]() *BM25FScorer[F] {
	return &BM25FScorer[F]{
		K1:           DefaultK1,
		FieldWeights: make(map[F]float32),
		FieldB:       make(map[F]float32),
	}
}

func (s *BM25FScorer[F]) weight(field F) float32 {
	if w, ok := s.FieldWeights[field]; ok {
		return w
	}
	return DefaultFieldWeight
}

func (s *BM25FScorer[F]) b(field F) float32 {
	if b, ok := s.FieldB[field]; ok {
		return b
	}
	return DefaultB
}

// idf computes ln(((N-df+0.5)/(df+0.5))+1). df is read from the
// metadata's per-(field, term) document frequency rather than recomputed
// from postings.
func idf(totalDocs, df int) float32 {
	n := float64(totalDocs)
	d := float64(df)
	return float32(math.Log(((n-d+0.5)/(d+0.5)) + 1))
}

// Score ranks candidates against queryTokens using term-at-a-time BM25F
// accumulation: for each (field, term) in queryTokens, for each candidate
// document holding that term, add idf * normalized_tf/(k1+normalized_tf)
// to the document's running score. Postings for every query token are
// fetched in a single batched read up front, so storage I/O is amortized
// across the whole query. candidates restricts which documents are scored
// at all (the two-round executor's round 1 output); queryTokens usually
// includes far more tokens than round 1 used.
func (s *BM25FScorer[F]) Score(
	candidates *roaring.Bitmap,
	queryTokens []PostingsKey[F],
	index *InvertedIndex[F, Storage[F]],
	metadata *FieldMetadata[F],
) []SearchHit {
	scores := make(map[DocID]float32)
	totalDocs := metadata.TotalDocs()

	// One batched read for the whole query. If the batch path itself
	// fails, fall back to per-key reads; a token whose individual read
	// fails scores as absent and is counted.
	lookups, err := index.GetPostingsBatch(queryTokens)
	if err != nil {
		lookups = make([]PostingsLookup, len(queryTokens))
		for i, qt := range queryTokens {
			p, ok, err := index.GetPostings(qt.Field, qt.Term)
			if err != nil {
				s.droppedTokens.Add(1)
				continue
			}
			lookups[i] = PostingsLookup{Postings: p, Found: ok}
		}
	}

	avgLens := make(map[F]float64, len(queryTokens))

	for i, qt := range queryTokens {
		postings := lookups[i].Postings
		if !lookups[i].Found || postings.IsEmpty() {
			continue
		}

		df := metadata.DocumentFrequency(qt.Field, qt.Term)
		termIDF := idf(totalDocs, df)
		weight := s.weight(qt.Field)
		b := s.b(qt.Field)
		avgdl, ok := avgLens[qt.Field]
		if !ok {
			avgdl = metadata.AverageFieldLength(qt.Field)
			avgLens[qt.Field] = avgdl
		}

		iter := postings.Bitmap().Iterator()
		for iter.HasNext() {
			doc := iter.Next()
			if !candidates.Contains(doc) {
				continue
			}

			tf := float32(postings.Frequency(doc))
			dl, _ := metadata.FieldLength(doc, qt.Field) // 0 when absent

			lengthNorm := 1 + b*(float32(float64(dl)/avgdl)-1)
			normalizedTF := (tf * weight) / lengthNorm
			scores[doc] += termIDF * normalizedTF/(s.K1+normalizedTF)
		}
	}

	hits := make([]SearchHit, 0, len(scores))
	for doc, score := range scores {
		hits = append(hits, SearchHit{DocID: doc, Score: score})
	}
	return hits
}

// DroppedTokens reports how many query tokens have been scored as absent
// because their individual storage read failed.
func (s *BM25FScorer[F]) DroppedTokens() uint64 {
	return s.droppedTokens.Load()
}
