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
	"sort"
	"sync"
	"testing"

	"github.com/siglens/facetstats/pkg/segment/fielddata"
	"github.com/stretchr/testify/assert"
)

func Test_TableGetOrCreate(t *testing.T) {
	table := NewTable(4)
	assert.True(t, table.IsEmpty())

	scratch := []byte("alpha")
	key := fielddata.NewHashedKey(scratch)
	entry, created := table.GetOrCreate(key)
	assert.True(t, created)
	assert.Equal(t, "alpha", entry.Term)

	// the stored term must not alias the caller's buffer
	copy(scratch, "omega")
	assert.Equal(t, "alpha", entry.Term)

	again, created := table.GetOrCreate(fielddata.NewHashedKeyString("alpha"))
	assert.False(t, created)
	assert.Same(t, entry, again)
	assert.Equal(t, 1, table.Len())
	assert.Nil(t, table.Get(fielddata.NewHashedKeyString("beta")))
}

func Test_TableHashCollisions(t *testing.T) {
	table := NewTable(0)

	// force two different terms into the same bucket
	a := fielddata.HashedKey{Bytes: []byte("a"), Hash: 7}
	b := fielddata.HashedKey{Bytes: []byte("b"), Hash: 7}

	ea, created := table.GetOrCreate(a)
	assert.True(t, created)
	eb, created := table.GetOrCreate(b)
	assert.True(t, created)
	assert.NotSame(t, ea, eb)
	assert.Equal(t, 2, table.Len())
	assert.Same(t, ea, table.Get(a))
	assert.Same(t, eb, table.Get(b))

	terms := make([]string, 0)
	for _, e := range table.Values() {
		terms = append(terms, e.Term)
	}
	sort.Strings(terms)
	assert.Equal(t, []string{"a", "b"}, terms)
}

func Test_TableReset(t *testing.T) {
	table := NewTable(-5)
	for _, term := range []string{"x", "y", "z"} {
		table.GetOrCreate(fielddata.NewHashedKeyString(term))
	}
	assert.Equal(t, 3, table.Len())
	assert.Len(t, table.Values(), 3)

	table.Reset()
	assert.True(t, table.IsEmpty())
	assert.Len(t, table.Values(), 0)
	assert.Nil(t, table.Get(fielddata.NewHashedKeyString("x")))
}

func Test_RecyclingTablePool(t *testing.T) {
	pool := NewRecyclingTablePool(1, 16)
	assert.Equal(t, 1, pool.Len())

	table := pool.AcquireTable()
	entry, _ := table.GetOrCreate(fielddata.NewHashedKeyString("kept"))
	entry.RecordMatch()
	assert.Equal(t, 1, pool.NumInUse())

	pool.ReleaseTable(table)
	assert.Equal(t, 0, pool.NumInUse())

	// the released table comes back cleared, while the entry handed out
	// earlier keeps its state
	reused := pool.AcquireTable()
	assert.Same(t, table, reused)
	assert.True(t, reused.IsEmpty())
	assert.Equal(t, uint64(1), entry.Count)

	second := pool.AcquireTable()
	assert.NotSame(t, reused, second)
	assert.Equal(t, 2, pool.Len())

	pool.ReleaseTable(reused)
	pool.ReleaseTable(second)
	pool.ReleaseTable(second)
	pool.ReleaseTable(nil)
	pool.ReleaseTable(NewTable(1))
	assert.Equal(t, 0, pool.NumInUse())
	assert.Equal(t, 2, pool.Len())
}

func Test_RecyclingTablePoolConcurrent(t *testing.T) {
	pool := NewRecyclingTablePool(2, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			for k := 0; k < 50; k++ {
				table := pool.AcquireTable()
				assert.True(t, table.IsEmpty())
				table.GetOrCreate(fielddata.NewHashedKeyString("term"))
				pool.ReleaseTable(table)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, pool.NumInUse())
	assert.LessOrEqual(t, pool.Len(), 8)
}
