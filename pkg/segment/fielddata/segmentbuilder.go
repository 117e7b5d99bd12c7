// Copyright (c) 2021-2024 SigScalr, Inc.
//
// This file is part of SigLens Observability Solution
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package fielddata

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash"
	"github.com/google/uuid"
)

// SegmentBuilder accumulates documents column by column. Values are added to
// the current document until EndDoc is called.
type SegmentBuilder struct {
	segKey     string
	numDocs    uint32
	docPending bool
	keyCols    map[string]*keyColumnBuilder
	numCols    map[string]*doubleColumnBuilder
}

type keyColumnBuilder struct {
	offsets  []uint32
	ords     []uint32
	termOrds map[string]uint32
	terms    [][]byte
	hashes   []uint64
}

type doubleColumnBuilder struct {
	offsets []uint32
	values  []float64
	present *bitset.BitSet
}

func NewSegmentBuilder() *SegmentBuilder {
	return NewSegmentBuilderWithKey(uuid.NewString())
}

func NewSegmentBuilderWithKey(segKey string) *SegmentBuilder {
	return &SegmentBuilder{
		segKey:  segKey,
		keyCols: make(map[string]*keyColumnBuilder),
		numCols: make(map[string]*doubleColumnBuilder),
	}
}

func (b *SegmentBuilder) SegKey() string {
	return b.segKey
}

// NumDocs returns the number of finished documents.
func (b *SegmentBuilder) NumDocs() uint32 {
	return b.numDocs
}

// AddKey copies term into the column dictionary.
func (b *SegmentBuilder) AddKey(field string, term []byte) {
	col, ok := b.keyCols[field]
	if !ok {
		col = &keyColumnBuilder{termOrds: make(map[string]uint32)}
		b.keyCols[field] = col
	}
	col.padTo(b.numDocs)

	ord, ok := col.termOrds[string(term)]
	if !ok {
		owned := make([]byte, len(term))
		copy(owned, term)
		ord = uint32(len(col.terms))
		col.termOrds[string(owned)] = ord
		col.terms = append(col.terms, owned)
		col.hashes = append(col.hashes, xxhash.Sum64(owned))
	}
	col.ords = append(col.ords, ord)
	b.docPending = true
}

func (b *SegmentBuilder) AddKeyString(field string, term string) {
	b.AddKey(field, []byte(term))
}

func (b *SegmentBuilder) AddDouble(field string, value float64) {
	col, ok := b.numCols[field]
	if !ok {
		col = &doubleColumnBuilder{present: bitset.New(0)}
		b.numCols[field] = col
	}
	col.padTo(b.numDocs)
	col.values = append(col.values, value)
	col.present.Set(uint(b.numDocs))
	b.docPending = true
}

// EndDoc finishes the current document and returns its id. A document
// without any value is still counted.
func (b *SegmentBuilder) EndDoc() uint32 {
	docID := b.numDocs
	b.numDocs++
	b.docPending = false
	return docID
}

// Build finishes a pending document and returns the immutable segment. The
// builder must not be used afterwards.
func (b *SegmentBuilder) Build() *MemSegment {
	if b.docPending {
		b.EndDoc()
	}

	seg := &MemSegment{
		segKey:  b.segKey,
		numDocs: b.numDocs,
		keyCols: make(map[string]*keyColumn, len(b.keyCols)),
		numCols: make(map[string]*doubleColumn, len(b.numCols)),
	}
	for field, col := range b.keyCols {
		col.padTo(b.numDocs)
		seg.keyCols[field] = &keyColumn{
			offsets: col.offsets,
			ords:    col.ords,
			terms:   col.terms,
			hashes:  col.hashes,
		}
	}
	for field, col := range b.numCols {
		col.padTo(b.numDocs)
		seg.numCols[field] = &doubleColumn{
			offsets: col.offsets,
			values:  col.values,
			present: col.present,
		}
	}
	return seg
}

// padTo makes offsets[doc] the start of doc's values.
func (c *keyColumnBuilder) padTo(doc uint32) {
	for uint32(len(c.offsets)) < doc+1 {
		c.offsets = append(c.offsets, uint32(len(c.ords)))
	}
}

func (c *doubleColumnBuilder) padTo(doc uint32) {
	for uint32(len(c.offsets)) < doc+1 {
		c.offsets = append(c.offsets, uint32(len(c.values)))
	}
}
