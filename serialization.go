package lfas

// ═══════════════════════════════════════════════════════════════════════════════
// WHY SERIALIZE METADATA SEPARATELY FROM POSTINGS?
// ═══════════════════════════════════════════════════════════════════════════════
// Posting lists already persist through Storage. FieldMetadata's document
// lengths and term-document-frequency counters do not: they live only in
// process memory, so a restart would have to retokenize every field to
// rebuild avgdl and idf from scratch. Serializing FieldMetadata to a
// sidecar file lets a reopened collection restore them with LoadMetadata
// instead; Open itself does not read the sidecar.
//
// The framing below uses explicit length prefixes, explicit big-endian
// integers, and a leading version byte.
// ═══════════════════════════════════════════════════════════════════════════════

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// metadataFormatVersion guards future encoding changes; DeserializeMetadata
// rejects any other value.
const metadataFormatVersion = 1

// SerializeMetadata encodes m into a versioned, length-prefixed byte
// stream: document field-lengths, per-field total lengths, then per-(field,
// term) document frequencies, each section sorted by field/term so the
// encoding is deterministic.
func SerializeMetadata[F Field](m *FieldMetadata[F]) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(metadataFormatVersion)

	docs := make([]DocID, 0, len(m.lengths))
	for doc := range m.lengths {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })

	writeUint32(&buf, uint32(len(docs)))
	for _, doc := range docs {
		writeUint32(&buf, doc)

		perDoc := m.lengths[doc]
		fields := make([]F, 0, len(perDoc))
		for f := range perDoc {
			fields = append(fields, f)
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].String() < fields[j].String() })

		writeUint32(&buf, uint32(len(fields)))
		for _, f := range fields {
			if err := writeField(&buf, f); err != nil {
				return nil, err
			}
			writeUint32(&buf, uint32(perDoc[f]))
		}
	}

	totalFields := make([]F, 0, len(m.totalFieldLengths))
	for f := range m.totalFieldLengths {
		totalFields = append(totalFields, f)
	}
	sort.Slice(totalFields, func(i, j int) bool { return totalFields[i].String() < totalFields[j].String() })

	writeUint32(&buf, uint32(len(totalFields)))
	for _, f := range totalFields {
		if err := writeField(&buf, f); err != nil {
			return nil, err
		}
		writeUint32(&buf, uint32(m.totalFieldLengths[f]))
	}

	keys := make([]metadataKey[F], 0, len(m.termDF))
	for k := range m.termDF {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].field.String() != keys[j].field.String() {
			return keys[i].field.String() < keys[j].field.String()
		}
		return keys[i].term < keys[j].term
	})

	writeUint32(&buf, uint32(len(keys)))
	for _, k := range keys {
		if err := writeField(&buf, k.field); err != nil {
			return nil, err
		}
		writeString(&buf, k.term)
		writeUint32(&buf, uint32(m.termDF[k]))
	}

	return buf.Bytes(), nil
}

// DeserializeMetadata is SerializeMetadata's inverse. decodeF reconstructs
// an F from the bytes F.MarshalBinary produced, e.g. DecodeRecordField.
func DeserializeMetadata[F Field](data []byte, decodeF func([]byte) (F, error)) (*FieldMetadata[F], error) {
	r := bytesReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: reading metadata version: %v", ErrSerialization, err)
	}
	if version != metadataFormatVersion {
		return nil, fmt.Errorf("%w: unsupported metadata format version %d", ErrSerialization, version)
	}

	m := NewFieldMetadata[F]()

	numDocs, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading doc count: %v", ErrSerialization, err)
	}
	for i := uint32(0); i < numDocs; i++ {
		doc, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading doc id: %v", ErrSerialization, err)
		}
		m.RecordDocument(doc)

		numFields, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading field count for doc %d: %v", ErrSerialization, doc, err)
		}
		for j := uint32(0); j < numFields; j++ {
			field, err := readField(r, decodeF)
			if err != nil {
				return nil, err
			}
			length, err := readUint32(r)
			if err != nil {
				return nil, fmt.Errorf("%w: reading field length: %v", ErrSerialization, err)
			}
			m.RecordFieldLength(doc, field, int(length))
		}
	}

	numTotalFields, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading total-field-length count: %v", ErrSerialization, err)
	}
	for i := uint32(0); i < numTotalFields; i++ {
		field, err := readField(r, decodeF)
		if err != nil {
			return nil, err
		}
		total, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading total field length: %v", ErrSerialization, err)
		}
		// RecordFieldLength already accumulated totalFieldLengths from the
		// per-doc section above; this section exists for forward
		// compatibility with readers that skip per-doc detail, so
		// overwrite rather than add to avoid double counting.
		m.totalFieldLengths[field] = int(total)
	}

	numTermDF, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading term-df count: %v", ErrSerialization, err)
	}
	for i := uint32(0); i < numTermDF; i++ {
		field, err := readField(r, decodeF)
		if err != nil {
			return nil, err
		}
		term, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading term: %v", ErrSerialization, err)
		}
		df, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading document frequency: %v", ErrSerialization, err)
		}
		m.termDF[metadataKey[F]{field: field, term: term}] = int(df)
	}

	return m, nil
}

func writeField[F Field](buf *bytes.Buffer, f F) error {
	encoded, err := f.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: marshaling field: %v", ErrSerialization, err)
	}
	writeUint32(buf, uint32(len(encoded)))
	buf.Write(encoded)
	return nil
}

func readField[F Field](r *bytes.Reader, decodeF func([]byte) (F, error)) (F, error) {
	var zero F
	n, err := readUint32(r)
	if err != nil {
		return zero, fmt.Errorf("%w: reading field length: %v", ErrSerialization, err)
	}
	encoded := make([]byte, n)
	if _, err := io.ReadFull(r, encoded); err != nil {
		return zero, fmt.Errorf("%w: reading field bytes: %v", ErrSerialization, err)
	}
	field, err := decodeF(encoded)
	if err != nil {
		return zero, fmt.Errorf("%w: decoding field: %v", ErrSerialization, err)
	}
	return field, nil
}
