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
	"errors"

	"github.com/cespare/xxhash"
)

var ErrDocOutOfRange = errors.New("document id is out of the segment range")

// HashedKey is a term together with its precomputed hash. Bytes handed to a
// KeyValueProc are only valid for the duration of the callback.
type HashedKey struct {
	Bytes []byte
	Hash  uint64
}

func NewHashedKey(b []byte) HashedKey {
	return HashedKey{Bytes: b, Hash: xxhash.Sum64(b)}
}

func NewHashedKeyString(s string) HashedKey {
	return HashedKey{Bytes: []byte(s), Hash: xxhash.Sum64String(s)}
}

// MakeSafe returns a copy of the key that does not alias column storage.
func (k HashedKey) MakeSafe() HashedKey {
	owned := make([]byte, len(k.Bytes))
	copy(owned, k.Bytes)
	return HashedKey{Bytes: owned, Hash: k.Hash}
}

type KeyValueProc interface {
	OnValue(docID uint32, key HashedKey) error
	OnMissing(docID uint32)
}

type DoubleValueProc interface {
	OnValue(docID uint32, value float64)
	OnMissing(docID uint32)
}

// KeyValues is the per segment view of a term column. A document may have any
// number of terms.
type KeyValues interface {
	HasValue(docID uint32) bool
	ForEachValueInDoc(docID uint32, proc KeyValueProc) error
}

// DoubleValues is the per segment view of a numeric column. A document may
// have any number of values.
type DoubleValues interface {
	HasValue(docID uint32) bool
	FirstValue(docID uint32) (float64, bool, error)
	ForEachValueInDoc(docID uint32, proc DoubleValueProc) error
}

// SegmentReader hands out columns scoped to one segment. Fields without any
// value in the segment yield empty columns.
type SegmentReader interface {
	SegKey() string
	NumDocs() uint32
	KeyValues(field string) (KeyValues, error)
	DoubleValues(field string) (DoubleValues, error)
}

type Scorer interface {
	Score() (float64, error)
}
