package lfas

import (
	"testing"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// INVERTED INDEX TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestInvertedIndex_AddTermAndGetPostings(t *testing.T) {
	idx := NewInvertedIndex[RecordField, Storage[RecordField]](NewMemoryStorage[RecordField]())

	if err := idx.AddTerm(1, FieldRua, "mauriti"); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}
	if err := idx.AddTerm(2, FieldRua, "mauriti"); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}

	postings, ok, err := idx.GetPostings(FieldRua, "mauriti")
	if err != nil {
		t.Fatalf("GetPostings: %v", err)
	}
	if !ok {
		t.Fatal("expected postings to exist")
	}
	if postings.Len() != 2 {
		t.Errorf("Len() = %d, want 2", postings.Len())
	}
}

func TestInvertedIndex_AddBatch_DedupesWithinCall(t *testing.T) {
	idx := NewInvertedIndex[RecordField, Storage[RecordField]](NewMemoryStorage[RecordField]())

	err := idx.AddBatch([]BatchEntry[RecordField]{
		{Doc: 1, Field: FieldNome, Term: "joao"},
		{Doc: 1, Field: FieldNome, Term: "joao"}, // same doc, same key: must not double count
		{Doc: 2, Field: FieldNome, Term: "joao"},
	})
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	postings, ok, err := idx.GetPostings(FieldNome, "joao")
	if err != nil || !ok {
		t.Fatalf("GetPostings: ok=%v err=%v", ok, err)
	}
	if postings.Frequency(1) != 1 {
		t.Errorf("Frequency(1) = %d, want 1 (deduped)", postings.Frequency(1))
	}
	if postings.Len() != 2 {
		t.Errorf("Len() = %d, want 2", postings.Len())
	}
}

func TestInvertedIndex_AddBatch_MergesWithExisting(t *testing.T) {
	idx := NewInvertedIndex[RecordField, Storage[RecordField]](NewMemoryStorage[RecordField]())

	if err := idx.AddTerm(1, FieldBairro, "centro"); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}
	if err := idx.AddBatch([]BatchEntry[RecordField]{{Doc: 2, Field: FieldBairro, Term: "centro"}}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}

	postings, _, err := idx.GetPostings(FieldBairro, "centro")
	if err != nil {
		t.Fatalf("GetPostings: %v", err)
	}
	if postings.Len() != 2 {
		t.Errorf("Len() = %d, want 2", postings.Len())
	}
}

func TestInvertedIndex_TermBitmap_UnknownTerm(t *testing.T) {
	idx := NewInvertedIndex[RecordField, Storage[RecordField]](NewMemoryStorage[RecordField]())

	bm, err := idx.TermBitmap(FieldRua, "nonexistent")
	if err != nil {
		t.Fatalf("TermBitmap: %v", err)
	}
	if !bm.IsEmpty() {
		t.Error("expected empty bitmap for unknown term")
	}
}

func TestIntersectAndUnion(t *testing.T) {
	idx := NewInvertedIndex[RecordField, Storage[RecordField]](NewMemoryStorage[RecordField]())

	mustAddTerm(t, idx, 1, FieldRua, "avenida")
	mustAddTerm(t, idx, 2, FieldRua, "avenida")
	mustAddTerm(t, idx, 2, FieldBairro, "centro")
	mustAddTerm(t, idx, 3, FieldBairro, "centro")

	bm1, _ := idx.TermBitmap(FieldRua, "avenida")
	bm2, _ := idx.TermBitmap(FieldBairro, "centro")

	intersection := Intersect([]*roaring.Bitmap{bm1, bm2})
	if intersection.GetCardinality() != 1 || !intersection.Contains(2) {
		t.Errorf("Intersect = %v, want {2}", intersection.ToArray())
	}

	union := Union([]*roaring.Bitmap{bm1, bm2})
	if union.GetCardinality() != 3 {
		t.Errorf("Union cardinality = %d, want 3", union.GetCardinality())
	}
}

func TestIntersect_Empty(t *testing.T) {
	if Intersect(nil).GetCardinality() != 0 {
		t.Error("Intersect(nil) should be empty")
	}
	if Union(nil).GetCardinality() != 0 {
		t.Error("Union(nil) should be empty")
	}
}

func mustAddTerm(t *testing.T, idx *InvertedIndex[RecordField, Storage[RecordField]], doc DocID, field RecordField, term string) {
	t.Helper()
	if err := idx.AddTerm(doc, field, term); err != nil {
		t.Fatalf("AddTerm(%d, %v, %q): %v", doc, field, term, err)
	}
}
