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
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// MemSegment is an immutable, in-memory columnar segment.
type MemSegment struct {
	segKey  string
	numDocs uint32
	keyCols map[string]*keyColumn
	numCols map[string]*doubleColumn
}

type keyColumn struct {
	offsets []uint32 // offsets[doc]..offsets[doc+1] indexes ords
	ords    []uint32
	terms   [][]byte
	hashes  []uint64
}

type doubleColumn struct {
	offsets []uint32 // offsets[doc]..offsets[doc+1] indexes values
	values  []float64
	present *bitset.BitSet
}

func (s *MemSegment) SegKey() string {
	return s.segKey
}

func (s *MemSegment) NumDocs() uint32 {
	return s.numDocs
}

func (s *MemSegment) NumTerms(field string) int {
	col, ok := s.keyCols[field]
	if !ok {
		return 0
	}
	return len(col.terms)
}

func (s *MemSegment) KeyValues(field string) (KeyValues, error) {
	col, ok := s.keyCols[field]
	if !ok {
		return &emptyKeyValues{numDocs: s.numDocs}, nil
	}
	return &memKeyValues{col: col, numDocs: s.numDocs}, nil
}

func (s *MemSegment) DoubleValues(field string) (DoubleValues, error) {
	col, ok := s.numCols[field]
	if !ok {
		return &emptyDoubleValues{numDocs: s.numDocs}, nil
	}
	return &memDoubleValues{col: col, numDocs: s.numDocs}, nil
}

type memKeyValues struct {
	col     *keyColumn
	numDocs uint32
	scratch []byte // terms are copied here, so keys never outlive a callback
}

func (v *memKeyValues) HasValue(docID uint32) bool {
	if docID >= v.numDocs {
		return false
	}
	return v.col.offsets[docID] != v.col.offsets[docID+1]
}

func (v *memKeyValues) ForEachValueInDoc(docID uint32, proc KeyValueProc) error {
	if docID >= v.numDocs {
		return fmt.Errorf("memKeyValues.ForEachValueInDoc: doc %d, numDocs %d: %w", docID, v.numDocs, ErrDocOutOfRange)
	}
	start, end := v.col.offsets[docID], v.col.offsets[docID+1]
	if start == end {
		proc.OnMissing(docID)
		return nil
	}
	for i := start; i < end; i++ {
		ord := v.col.ords[i]
		v.scratch = append(v.scratch[:0], v.col.terms[ord]...)
		err := proc.OnValue(docID, HashedKey{Bytes: v.scratch, Hash: v.col.hashes[ord]})
		if err != nil {
			return err
		}
	}
	return nil
}

type memDoubleValues struct {
	col     *doubleColumn
	numDocs uint32
}

func (v *memDoubleValues) HasValue(docID uint32) bool {
	return v.col.present.Test(uint(docID))
}

func (v *memDoubleValues) FirstValue(docID uint32) (float64, bool, error) {
	if docID >= v.numDocs {
		return 0, false, fmt.Errorf("memDoubleValues.FirstValue: doc %d, numDocs %d: %w", docID, v.numDocs, ErrDocOutOfRange)
	}
	if !v.col.present.Test(uint(docID)) {
		return 0, false, nil
	}
	return v.col.values[v.col.offsets[docID]], true, nil
}

func (v *memDoubleValues) ForEachValueInDoc(docID uint32, proc DoubleValueProc) error {
	if docID >= v.numDocs {
		return fmt.Errorf("memDoubleValues.ForEachValueInDoc: doc %d, numDocs %d: %w", docID, v.numDocs, ErrDocOutOfRange)
	}
	if !v.col.present.Test(uint(docID)) {
		proc.OnMissing(docID)
		return nil
	}
	for i := v.col.offsets[docID]; i < v.col.offsets[docID+1]; i++ {
		proc.OnValue(docID, v.col.values[i])
	}
	return nil
}

// emptyKeyValues and emptyDoubleValues serve fields that have no value in a
// segment.
type emptyKeyValues struct {
	numDocs uint32
}

func (v *emptyKeyValues) HasValue(docID uint32) bool {
	return false
}

func (v *emptyKeyValues) ForEachValueInDoc(docID uint32, proc KeyValueProc) error {
	if docID >= v.numDocs {
		return fmt.Errorf("emptyKeyValues.ForEachValueInDoc: doc %d, numDocs %d: %w", docID, v.numDocs, ErrDocOutOfRange)
	}
	proc.OnMissing(docID)
	return nil
}

type emptyDoubleValues struct {
	numDocs uint32
}

func (v *emptyDoubleValues) HasValue(docID uint32) bool {
	return false
}

func (v *emptyDoubleValues) FirstValue(docID uint32) (float64, bool, error) {
	if docID >= v.numDocs {
		return 0, false, fmt.Errorf("emptyDoubleValues.FirstValue: doc %d, numDocs %d: %w", docID, v.numDocs, ErrDocOutOfRange)
	}
	return 0, false, nil
}

func (v *emptyDoubleValues) ForEachValueInDoc(docID uint32, proc DoubleValueProc) error {
	if docID >= v.numDocs {
		return fmt.Errorf("emptyDoubleValues.ForEachValueInDoc: doc %d, numDocs %d: %w", docID, v.numDocs, ErrDocOutOfRange)
	}
	proc.OnMissing(docID)
	return nil
}
