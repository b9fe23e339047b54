package lfas

import "testing"

// ═══════════════════════════════════════════════════════════════════════════════
// METADATA SERIALIZATION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestSerializeDeserializeMetadata_RoundTrip(t *testing.T) {
	m := NewFieldMetadata[RecordField]()
	m.RecordDocument(1)
	m.RecordDocument(2)
	m.RecordFieldLength(1, FieldRua, 3)
	m.RecordFieldLength(2, FieldRua, 5)
	m.RecordFieldLength(1, FieldBairro, 1)
	m.RecordTermPresence(FieldRua, "avenida")
	m.RecordTermPresence(FieldRua, "avenida")
	m.RecordTermPresence(FieldBairro, "centro")

	encoded, err := SerializeMetadata[RecordField](m)
	if err != nil {
		t.Fatalf("SerializeMetadata: %v", err)
	}

	decoded, err := DeserializeMetadata[RecordField](encoded, DecodeRecordField)
	if err != nil {
		t.Fatalf("DeserializeMetadata: %v", err)
	}

	if decoded.TotalDocs() != m.TotalDocs() {
		t.Errorf("TotalDocs() = %d, want %d", decoded.TotalDocs(), m.TotalDocs())
	}

	length1, ok1 := decoded.FieldLength(1, FieldRua)
	length2, ok2 := decoded.FieldLength(2, FieldRua)
	if !ok1 || !ok2 || length1 != 3 || length2 != 5 {
		t.Errorf("FieldLength roundtrip = (%d,%v) (%d,%v), want (3,true) (5,true)", length1, ok1, length2, ok2)
	}

	if avg := decoded.AverageFieldLength(FieldRua); avg != m.AverageFieldLength(FieldRua) {
		t.Errorf("AverageFieldLength(rua) = %v, want %v", avg, m.AverageFieldLength(FieldRua))
	}

	if df := decoded.DocumentFrequency(FieldRua, "avenida"); df != 2 {
		t.Errorf("DocumentFrequency(rua, avenida) = %d, want 2", df)
	}
	if df := decoded.DocumentFrequency(FieldBairro, "centro"); df != 1 {
		t.Errorf("DocumentFrequency(bairro, centro) = %d, want 1", df)
	}
}

func TestDeserializeMetadata_RejectsUnsupportedVersion(t *testing.T) {
	_, err := DeserializeMetadata[RecordField]([]byte{99, 0, 0, 0, 0}, DecodeRecordField)
	if err == nil {
		t.Error("expected an error for an unsupported format version")
	}
}

func TestSerializeMetadata_EmptyMetadata(t *testing.T) {
	m := NewFieldMetadata[RecordField]()
	encoded, err := SerializeMetadata[RecordField](m)
	if err != nil {
		t.Fatalf("SerializeMetadata: %v", err)
	}

	decoded, err := DeserializeMetadata[RecordField](encoded, DecodeRecordField)
	if err != nil {
		t.Fatalf("DeserializeMetadata: %v", err)
	}
	if decoded.TotalDocs() != 0 {
		t.Errorf("TotalDocs() = %d, want 0", decoded.TotalDocs())
	}
}
