package lfas

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring"
)

// DocID identifies a document within the index. Doc ids are assigned densely
// from 0 during ingest and are stable for the lifetime of the index.
type DocID = uint32

// Postings is the per-(field, term) document list: a compressed set of doc
// ids plus a per-doc occurrence count. The bitmap and the frequency map are
// kept in lockstep — every doc id in the bitmap has a frequency of at least
// one, and vice versa.
type Postings struct {
	bitmap      *roaring.Bitmap
	frequencies map[DocID]uint32
}

// NewPostings returns an empty posting list.
func NewPostings() *Postings {
	return &Postings{
		bitmap:      roaring.NewBitmap(),
		frequencies: make(map[DocID]uint32),
	}
}

// AddOccurrence records one occurrence of the term in doc d: inserting d
// into the bitmap is idempotent, but frequencies[d] increments every call.
func (p *Postings) AddOccurrence(d DocID) {
	p.bitmap.Add(d)
	p.frequencies[d]++
}

// Merge folds other into p: bitmaps are OR-ed together and frequencies are
// summed per doc. Used by AddBatch to collapse many tokens sharing a key
// into a single read-modify-write round trip.
func (p *Postings) Merge(other *Postings) {
	if other == nil {
		return
	}
	p.bitmap.Or(other.bitmap)
	for d, f := range other.frequencies {
		p.frequencies[d] += f
	}
}

// Bitmap returns the underlying doc-id bitmap. Callers must not mutate it.
func (p *Postings) Bitmap() *roaring.Bitmap { return p.bitmap }

// Contains reports whether d occurs in this posting list.
func (p *Postings) Contains(d DocID) bool { return p.bitmap.Contains(d) }

// Len returns the number of distinct documents in the posting list.
func (p *Postings) Len() int { return int(p.bitmap.GetCardinality()) }

// IsEmpty reports whether the posting list has no documents.
func (p *Postings) IsEmpty() bool { return p.bitmap.IsEmpty() }

// Frequency returns the occurrence count for d, or 0 if d is absent.
func (p *Postings) Frequency(d DocID) uint32 { return p.frequencies[d] }

// Clone returns a deep, independent copy.
func (p *Postings) Clone() *Postings {
	clone := &Postings{
		bitmap:      p.bitmap.Clone(),
		frequencies: make(map[DocID]uint32, len(p.frequencies)),
	}
	for d, f := range p.frequencies {
		clone.frequencies[d] = f
	}
	return clone
}

// MarshalBinary encodes the posting list for storage. Layout:
//
//	[bitmapLen uint32][bitmap bytes][numFreqs uint32][(docID uint32, freq uint32) ...]
func (p *Postings) MarshalBinary() ([]byte, error) {
	bitmapBytes, err := p.bitmap.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding postings bitmap: %v", ErrSerialization, err)
	}

	buf := make([]byte, 0, 8+len(bitmapBytes)+len(p.frequencies)*8)
	var tmp [4]byte

	binary.BigEndian.PutUint32(tmp[:], uint32(len(bitmapBytes)))
	buf = append(buf, tmp[:]...)
	buf = append(buf, bitmapBytes...)

	binary.BigEndian.PutUint32(tmp[:], uint32(len(p.frequencies)))
	buf = append(buf, tmp[:]...)
	for d, f := range p.frequencies {
		binary.BigEndian.PutUint32(tmp[:], d)
		buf = append(buf, tmp[:]...)
		binary.BigEndian.PutUint32(tmp[:], f)
		buf = append(buf, tmp[:]...)
	}
	return buf, nil
}

// UnmarshalBinary decodes a posting list previously written by MarshalBinary.
func (p *Postings) UnmarshalBinary(data []byte) error {
	r := bytesReader(data)

	bitmapLen, err := readUint32(r)
	if err != nil {
		return fmt.Errorf("%w: reading bitmap length: %v", ErrSerialization, err)
	}
	bitmapBytes := make([]byte, bitmapLen)
	if _, err := io.ReadFull(r, bitmapBytes); err != nil {
		return fmt.Errorf("%w: reading bitmap bytes: %v", ErrSerialization, err)
	}

	bm := roaring.NewBitmap()
	if _, err := bm.ReadFrom(bytesReader(bitmapBytes)); err != nil {
		return fmt.Errorf("%w: decoding bitmap: %v", ErrSerialization, err)
	}

	numFreqs, err := readUint32(r)
	if err != nil {
		return fmt.Errorf("%w: reading frequency count: %v", ErrSerialization, err)
	}
	freqs := make(map[DocID]uint32, numFreqs)
	for i := uint32(0); i < numFreqs; i++ {
		d, err := readUint32(r)
		if err != nil {
			return fmt.Errorf("%w: reading doc id: %v", ErrSerialization, err)
		}
		f, err := readUint32(r)
		if err != nil {
			return fmt.Errorf("%w: reading frequency: %v", ErrSerialization, err)
		}
		freqs[d] = f
	}

	p.bitmap = bm
	p.frequencies = freqs
	return nil
}
