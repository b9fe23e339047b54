package lfas

import (
	"maps"
	"path/filepath"
	"testing"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ADDRESS ENGINE TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func newTestEngine() *AddressEngine {
	return NewAddressEngine(NewMemoryStorage[RecordField]())
}

func TestAddressEngine_IndexAndSearch(t *testing.T) {
	engine := newTestEngine()

	records := []BatchRecord{
		{DocID: 1, Fields: map[string]string{
			"rua": "avenida paulista", "bairro": "bela vista", "cep": "01310-100",
		}},
		{DocID: 2, Fields: map[string]string{
			"rua": "rua augusta", "bairro": "consolacao", "cep": "01305-000",
		}},
	}
	if err := engine.IndexBatch(records); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}

	if engine.TotalDocs() != 2 {
		t.Errorf("TotalDocs() = %d, want 2", engine.TotalDocs())
	}

	hits, err := engine.Search(map[string]string{"cep": "01310-100"}, 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 || hits[0].DocID != 1 {
		t.Fatalf("Search by CEP = %v, want doc 1 first", hits)
	}
}

func TestAddressEngine_Search_EmptyQuery(t *testing.T) {
	engine := newTestEngine()
	hits, err := engine.Search(map[string]string{}, 10, 0)
	if err != nil {
		t.Errorf("Search with empty query: err = %v, want nil", err)
	}
	if len(hits) != 0 {
		t.Errorf("Search with empty query: hits = %v, want none", hits)
	}
}

func TestAddressEngine_Search_WhitespaceOnlyValueYieldsNoHits(t *testing.T) {
	engine := newTestEngine()
	if err := engine.IndexRecord(1, map[string]string{"rua": "avenida paulista"}); err != nil {
		t.Fatalf("IndexRecord: %v", err)
	}

	hits, err := engine.Search(map[string]string{"rua": "   "}, 10, 0)
	if err != nil {
		t.Errorf("Search with whitespace-only value: err = %v, want nil", err)
	}
	if len(hits) != 0 {
		t.Errorf("Search with whitespace-only value: hits = %v, want none", hits)
	}
}

func TestAddressEngine_Search_FallsBackWhenDistinctiveTokensMiss(t *testing.T) {
	engine := newTestEngine()
	records := []BatchRecord{
		{DocID: 1, Fields: map[string]string{"rua": "avenida paulista"}},
		{DocID: 2, Fields: map[string]string{"rua": "travessa itapura"}},
	}
	if err := engine.IndexBatch(records); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}

	// A CEP that was never indexed forces round 1's distinctive union to
	// be empty; the fallback must still find doc 1 via its rua tokens.
	hits, err := engine.Search(map[string]string{"rua": "avenida paulista", "cep": "99999-999"}, 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	found := false
	for _, h := range hits {
		if h.DocID == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected doc 1 among fallback hits, got %v", hits)
	}
}

func TestAddressEngine_TopKLimitsResults(t *testing.T) {
	engine := newTestEngine()
	records := []BatchRecord{
		{DocID: 1, Fields: map[string]string{"bairro": "centro"}},
		{DocID: 2, Fields: map[string]string{"bairro": "centro"}},
		{DocID: 3, Fields: map[string]string{"bairro": "centro"}},
	}
	if err := engine.IndexBatch(records); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}

	hits, err := engine.Search(map[string]string{"bairro": "centro"}, 2, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) > 2 {
		t.Errorf("len(hits) = %d, want at most 2", len(hits))
	}
}

func TestAddressEngine_IndexRecord_UnknownFieldSkipped(t *testing.T) {
	engine := newTestEngine()
	if err := engine.IndexRecord(1, map[string]string{"not_a_field": "value", "rua": "rua das flores"}); err != nil {
		t.Fatalf("IndexRecord: %v", err)
	}

	hits, err := engine.Search(map[string]string{"rua": "flores"}, 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Error("expected known field rua to still be indexed despite unknown field present")
	}
}

func TestAddressEngine_SaveLoadMetadata_RoundTrip(t *testing.T) {
	engine := newTestEngine()
	if err := engine.IndexRecord(1, map[string]string{"rua": "avenida paulista"}); err != nil {
		t.Fatalf("IndexRecord: %v", err)
	}

	path := filepath.Join(t.TempDir(), "metadata.bin")
	if err := engine.SaveMetadata(path); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}

	restored := newTestEngine()
	if err := restored.LoadMetadata(path); err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if restored.TotalDocs() != 1 {
		t.Errorf("TotalDocs() after LoadMetadata = %d, want 1", restored.TotalDocs())
	}
}

func TestAddressEngine_Handle_ChunkedIndexBatch(t *testing.T) {
	handle := NewHandle(newTestEngine(), 1)

	records := make([]BatchRecord, 0, 10)
	for i := DocID(1); i <= 10; i++ {
		records = append(records, BatchRecord{DocID: i, Fields: map[string]string{"bairro": "centro"}})
	}
	if err := handle.IndexBatch(records); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}
	if handle.TotalDocs() != 10 {
		t.Errorf("TotalDocs() = %d, want 10", handle.TotalDocs())
	}
}

// newBelemFixture indexes the two-record Belem corpus used by the
// end-to-end retrieval scenarios, either record-by-record or as one batch.
func newBelemFixture(t *testing.T, batch bool) *AddressEngine {
	t.Helper()
	engine := newTestEngine()

	records := []BatchRecord{
		{DocID: 0, Fields: map[string]string{
			"cep": "66095-000", "municipio": "Belem", "rua": "Mauriti", "numero": "31",
		}},
		{DocID: 1, Fields: map[string]string{
			"cep": "67000-000", "municipio": "Ananindeua", "rua": "Mauriti", "numero": "500",
		}},
	}
	if batch {
		if err := engine.IndexBatch(records); err != nil {
			t.Fatalf("IndexBatch: %v", err)
		}
	} else {
		for _, r := range records {
			if err := engine.IndexRecord(r.DocID, r.Fields); err != nil {
				t.Fatalf("IndexRecord(%d): %v", r.DocID, err)
			}
		}
	}
	return engine
}

func TestAddressEngine_Search_PostalCodeExactMatch(t *testing.T) {
	engine := newBelemFixture(t, false)

	hits, err := engine.Search(map[string]string{"cep": "66095-000"}, 5, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("len(hits) = %d, want exactly 1: %v", len(hits), hits)
	}
	if hits[0].DocID != 0 {
		t.Errorf("hits[0].DocID = %d, want 0", hits[0].DocID)
	}
	if hits[0].Score <= 0 {
		t.Errorf("hits[0].Score = %v, want positive", hits[0].Score)
	}
}

func TestAddressEngine_Search_FallbackOnNonDistinctiveMunicipio(t *testing.T) {
	engine := newBelemFixture(t, false)

	// "belem" yields no distinctive tokens, so round 1 comes up empty and
	// the rarest-token fallback must carry the query.
	hits, err := engine.Search(map[string]string{"municipio": "Belem"}, 5, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 || hits[0].DocID != 0 {
		t.Errorf("Search municipio=Belem = %v, want doc 0 first", hits)
	}
}

func TestAddressEngine_Search_FullMatchOutranksPartial(t *testing.T) {
	engine := newBelemFixture(t, false)

	hits, err := engine.Search(map[string]string{
		"rua": "Mauriti", "municipio": "Belem", "numero": "31",
	}, 5, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	scores := make(map[DocID]float32, len(hits))
	for _, h := range hits {
		scores[h.DocID] = h.Score
	}
	s0, ok0 := scores[0]
	s1, ok1 := scores[1]
	if !ok0 || !ok1 {
		t.Fatalf("expected both docs scored, got %v", hits)
	}
	if s0 <= s1 {
		t.Errorf("full match score %v should strictly exceed partial match score %v", s0, s1)
	}
}

func TestAddressEngine_BatchAndPerRecordIngestEquivalent(t *testing.T) {
	perRecord := newBelemFixture(t, false)
	batched := newBelemFixture(t, true)

	perEntries, err := perRecord.engine.storage.Iter()
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	batchEntries, err := batched.engine.storage.Iter()
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	if len(perEntries) != len(batchEntries) {
		t.Fatalf("posting-list counts differ: %d vs %d", len(perEntries), len(batchEntries))
	}
	for i := range perEntries {
		pe, be := perEntries[i], batchEntries[i]
		if pe.Key != be.Key {
			t.Fatalf("key order diverges at %d: %v vs %v", i, pe.Key, be.Key)
		}
		if pe.Postings.Len() != be.Postings.Len() {
			t.Errorf("postings for %v differ in cardinality: %d vs %d", pe.Key, pe.Postings.Len(), be.Postings.Len())
		}
		iter := pe.Postings.Bitmap().Iterator()
		for iter.HasNext() {
			doc := iter.Next()
			if pe.Postings.Frequency(doc) != be.Postings.Frequency(doc) {
				t.Errorf("frequency for %v doc %d differs: %d vs %d",
					pe.Key, doc, pe.Postings.Frequency(doc), be.Postings.Frequency(doc))
			}
		}
	}

	if !maps.Equal(perRecord.engine.metadata.termDF, batched.engine.metadata.termDF) {
		t.Error("termDF maps differ between per-record and batch ingest")
	}

	queries := []map[string]string{
		{"cep": "66095-000"},
		{"municipio": "Belem"},
		{"rua": "Mauriti", "municipio": "Belem", "numero": "31"},
	}
	for _, q := range queries {
		ph, err := perRecord.Search(q, 5, 0)
		if err != nil {
			t.Fatalf("Search(%v): %v", q, err)
		}
		bh, err := batched.Search(q, 5, 0)
		if err != nil {
			t.Fatalf("Search(%v): %v", q, err)
		}
		if len(ph) != len(bh) {
			t.Fatalf("hit counts for %v differ: %v vs %v", q, ph, bh)
		}
		for i := range ph {
			if ph[i].DocID != bh[i].DocID {
				t.Errorf("hit order for %v diverges at %d: %v vs %v", q, i, ph, bh)
			}
			if diff := ph[i].Score - bh[i].Score; diff > 1e-5 || diff < -1e-5 {
				t.Errorf("scores for %v doc %d differ: %v vs %v", q, ph[i].DocID, ph[i].Score, bh[i].Score)
			}
		}
	}
}

func TestAddressEngine_TermDFMatchesPostingsCardinality(t *testing.T) {
	engine := newBelemFixture(t, false)

	entries, err := engine.engine.storage.Iter()
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	for _, e := range entries {
		df := engine.engine.metadata.DocumentFrequency(e.Key.Field, e.Key.Term)
		if df != e.Postings.Len() {
			t.Errorf("termDF[%v] = %d, want postings cardinality %d", e.Key, df, e.Postings.Len())
		}
	}
}

func TestAddressEngine_FieldLengthSumsMatchTotals(t *testing.T) {
	engine := newBelemFixture(t, true)
	m := engine.engine.metadata

	sums := make(map[RecordField]int)
	for _, perDoc := range m.lengths {
		for f, l := range perDoc {
			sums[f] += l
		}
	}
	for f, total := range m.totalFieldLengths {
		if sums[f] != total {
			t.Errorf("totalFieldLengths[%v] = %d, want per-doc sum %d", f, total, sums[f])
		}
	}
}
