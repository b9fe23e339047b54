package lfas

import "strings"

// Field is the constraint satisfied by a closed field enumeration: it must
// be usable as a map key and able to marshal itself to bytes for the
// on-disk backend's key encoding (hex(field-bytes) + ":" + term).
type Field interface {
	comparable
	MarshalBinary() ([]byte, error)
	String() string
}

// RecordField is the shipped field enumeration for the Brazilian postal
// address domain this package is specialized for.
type RecordField uint8

const (
	FieldEstado RecordField = iota
	FieldMunicipio
	FieldBairro
	FieldCep
	FieldTipoLogradouro
	FieldRua
	FieldNumero
	FieldComplemento
	FieldNome
)

var recordFieldNames = map[RecordField]string{
	FieldEstado:         "estado",
	FieldMunicipio:      "municipio",
	FieldBairro:         "bairro",
	FieldCep:            "cep",
	FieldTipoLogradouro: "tipo_logradouro",
	FieldRua:            "rua",
	FieldNumero:         "numero",
	FieldComplemento:    "complemento",
	FieldNome:           "nome",
}

var fieldNameToRecordField = func() map[string]RecordField {
	m := make(map[string]RecordField, len(recordFieldNames))
	for f, name := range recordFieldNames {
		m[name] = f
	}
	return m
}()

// String returns the field's canonical lower-case name.
func (f RecordField) String() string {
	if name, ok := recordFieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// MarshalBinary encodes the field as a single byte, used as the field
// component of the on-disk storage key.
func (f RecordField) MarshalBinary() ([]byte, error) {
	return []byte{byte(f)}, nil
}

// fieldFromName lower-cases name and maps it to the closed RecordField
// enumeration; unrecognized names are reported via ok=false so callers can
// skip them.
func fieldFromName(name string) (RecordField, bool) {
	f, ok := fieldNameToRecordField[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// recordFieldOrder is the canonical iteration order over all fields.
var recordFieldOrder = []RecordField{
	FieldEstado, FieldMunicipio, FieldBairro, FieldCep, FieldTipoLogradouro,
	FieldRua, FieldNumero, FieldComplemento, FieldNome,
}

// BatchRecord is one (doc id, field values) pair used by IndexBatch.
type BatchRecord struct {
	DocID  DocID
	Fields map[string]string
}

// SearchHit is a single scored result from Search: a document id paired
// with its BM25F relevance score.
type SearchHit struct {
	DocID DocID
	Score float32
}
