package lfas

import "testing"

// ═══════════════════════════════════════════════════════════════════════════════
// FIELD METADATA TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestFieldMetadata_RecordFieldLength(t *testing.T) {
	m := NewFieldMetadata[RecordField]()
	m.RecordDocument(1)
	m.RecordFieldLength(1, FieldRua, 3)

	length, ok := m.FieldLength(1, FieldRua)
	if !ok || length != 3 {
		t.Errorf("FieldLength = (%d, %v), want (3, true)", length, ok)
	}
	if avg := m.AverageFieldLength(FieldRua); avg != 3 {
		t.Errorf("AverageFieldLength = %v, want 3", avg)
	}
}

func TestFieldMetadata_RecordFieldLength_OverwriteAdjustsTotal(t *testing.T) {
	m := NewFieldMetadata[RecordField]()
	m.RecordDocument(1)
	m.RecordFieldLength(1, FieldRua, 3)
	m.RecordFieldLength(1, FieldRua, 5) // re-index with a different length

	length, _ := m.FieldLength(1, FieldRua)
	if length != 5 {
		t.Errorf("FieldLength after overwrite = %d, want 5", length)
	}
	if avg := m.AverageFieldLength(FieldRua); avg != 5 {
		t.Errorf("AverageFieldLength = %v, want 5 (no double counting)", avg)
	}
}

func TestFieldMetadata_AverageFieldLength_NoDocsDefaultsToOne(t *testing.T) {
	m := NewFieldMetadata[RecordField]()
	if avg := m.AverageFieldLength(FieldRua); avg != 1.0 {
		t.Errorf("AverageFieldLength with no docs = %v, want 1.0", avg)
	}
}

func TestFieldMetadata_AverageFieldLength_ZeroLengthSumDefaultsToOne(t *testing.T) {
	m := NewFieldMetadata[RecordField]()
	m.RecordDocument(1)
	m.RecordFieldLength(1, FieldRua, 0)

	if avg := m.AverageFieldLength(FieldRua); avg != 1.0 {
		t.Errorf("AverageFieldLength with zero total field length = %v, want 1.0", avg)
	}
}

func TestFieldMetadata_TotalDocs(t *testing.T) {
	m := NewFieldMetadata[RecordField]()
	m.RecordDocument(1)
	m.RecordDocument(2)
	m.RecordDocument(1) // repeat: must not double count

	if m.TotalDocs() != 2 {
		t.Errorf("TotalDocs() = %d, want 2", m.TotalDocs())
	}
}

func TestFieldMetadata_DocumentFrequency(t *testing.T) {
	m := NewFieldMetadata[RecordField]()
	m.RecordTermPresence(FieldBairro, "centro")
	m.RecordTermPresence(FieldBairro, "centro")

	if df := m.DocumentFrequency(FieldBairro, "centro"); df != 2 {
		t.Errorf("DocumentFrequency = %d, want 2 (one RecordTermPresence call per document)", df)
	}
	if df := m.DocumentFrequency(FieldBairro, "jardim"); df != 0 {
		t.Errorf("DocumentFrequency for unseen term = %d, want 0", df)
	}
}
