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

package facetresults

import (
	"github.com/siglens/facetstats/pkg/segment/fielddata"
	"github.com/siglens/facetstats/pkg/segment/structs"
)

// Table maps terms to their running statistics. Entries are bucketed by the
// precomputed key hash so lookups never convert the transient key bytes.
type Table struct {
	buckets map[uint64][]*structs.TermsStatsEntry
	size    int
}

func NewTable(capacity int) *Table {
	if capacity < 0 {
		capacity = 0
	}
	return &Table{
		buckets: make(map[uint64][]*structs.TermsStatsEntry, capacity),
	}
}

func (t *Table) Get(key fielddata.HashedKey) *structs.TermsStatsEntry {
	for _, entry := range t.buckets[key.Hash] {
		if entry.Term == string(key.Bytes) {
			return entry
		}
	}
	return nil
}

// GetOrCreate returns the entry for key, creating it from a copy of the key
// bytes the first time the term is seen. The bool is true for new entries.
func (t *Table) GetOrCreate(key fielddata.HashedKey) (*structs.TermsStatsEntry, bool) {
	if entry := t.Get(key); entry != nil {
		return entry, false
	}
	entry := structs.NewTermsStatsEntry(string(key.Bytes))
	t.buckets[key.Hash] = append(t.buckets[key.Hash], entry)
	t.size++
	return entry, true
}

func (t *Table) Len() int {
	return t.size
}

func (t *Table) IsEmpty() bool {
	return t.size == 0
}

// Values returns the entries in no particular order.
func (t *Table) Values() []*structs.TermsStatsEntry {
	values := make([]*structs.TermsStatsEntry, 0, t.size)
	for _, bucket := range t.buckets {
		values = append(values, bucket...)
	}
	return values
}

// Reset drops every entry but keeps the map storage for the next user.
func (t *Table) Reset() {
	for hash := range t.buckets {
		delete(t.buckets, hash)
	}
	t.size = 0
}
